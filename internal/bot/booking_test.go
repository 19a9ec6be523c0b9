package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pirouette/internal/domain"
	"pirouette/internal/events"
	"pirouette/internal/models"
	"pirouette/internal/repository"
	"pirouette/internal/service"
	"pirouette/internal/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupBookingFlowCreatesApplication(t *testing.T) {
	b, tg, db := newTestBot(t)
	ctx := context.Background()
	p := createTestProgram(t, db, models.ProgramTypeGroup, 6000)

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("book_%d", p.ID))))
	assert.Contains(t, tg.lastText(t), "укажите ваш телефон")

	require.NoError(t, b.ProcessUpdate(ctx, messageUpdate(userID, "8 900 123-45-67")))
	assert.Contains(t, tg.lastText(t), "пожелания")

	require.NoError(t, b.ProcessUpdate(ctx, messageUpdate(userID, "Болит колено")))
	assert.Contains(t, tg.lastText(t), "Как оплатить")

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, "booking_confirm")))
	assert.Contains(t, tg.lastText(t), "Заявка отправлена")

	apps, err := db.GetPendingApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	a := apps[0]
	assert.Equal(t, p.ID, a.ProgramID)
	assert.Equal(t, "+79001234567", a.UserPhone)
	assert.Equal(t, "Болит колено", a.UserNotes)
	assert.Equal(t, int64(6000), a.Amount)
	require.NotNil(t, a.UserID)
	assert.Equal(t, userID, *a.UserID)

	_, ok := b.sessions.Booking(userID)
	assert.False(t, ok, "состояние записи должно очищаться после заявки")
}

func TestSkippingNotesKeepsApplicationClean(t *testing.T) {
	b, _, db := newTestBot(t)
	ctx := context.Background()
	p := createTestProgram(t, db, models.ProgramTypeGroup, 6000)

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("book_%d", p.ID))))
	require.NoError(t, b.ProcessUpdate(ctx, messageUpdate(userID, "+79001234567")))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, "notes_skip")))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, "booking_confirm")))

	apps, err := db.GetPendingApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Empty(t, apps[0].UserNotes)
}

func TestFullProgramRejectsBooking(t *testing.T) {
	b, tg, db := newTestBot(t)
	ctx := context.Background()

	p := createTestProgram(t, db, models.ProgramTypeGroup, 6000)
	for i := int64(0); i < p.MaxParticipants; i++ {
		require.NoError(t, db.IncrementParticipants(ctx, p.ID))
	}

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("book_%d", p.ID))))

	assert.Contains(t, tg.lastText(t), "Все места заняты")
	_, ok := b.sessions.Booking(userID)
	assert.False(t, ok)
}

func newOpenGroupWithSessions(t *testing.T, b *Bot, count int) (*models.Program, []*models.ProgramSession) {
	t.Helper()
	ctx := context.Background()
	db := b.store

	start := time.Now().AddDate(0, 0, 1)
	single := int64(800)
	p := &models.Program{
		Type:            models.ProgramTypeOpenGroup,
		Title:           "Открытая группа",
		StartDate:       start,
		MaxParticipants: 20,
		Price:           2800,
		SinglePrice:     &single,
		Status:          models.ProgramStatusActive,
		DurationMinutes: 90,
	}
	require.NoError(t, b.store.CreateProgram(ctx, p))

	var rows []models.ProgramSession
	for i := 0; i < count; i++ {
		rows = append(rows, models.ProgramSession{
			ProgramID:       p.ID,
			Date:            start.AddDate(0, 0, i),
			Time:            "19:00",
			DurationMinutes: 90,
		})
	}
	require.NoError(t, db.CreateProgramSessions(ctx, rows))

	sessions, err := db.GetSessionsByProgram(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, sessions, count)
	return p, sessions
}

func TestOpenGroupSingleVisitFlow(t *testing.T) {
	b, tg, db := newTestBot(t)
	ctx := context.Background()
	p, sessions := newOpenGroupWithSessions(t, b, 1)

	u, err := db.GetOrCreateUser(ctx, &models.User{TelegramID: userID, FirstName: "Мария"})
	require.NoError(t, err)
	require.NoError(t, db.UpdateUserPhone(ctx, u.TelegramID, "+79001234567"))

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("book_%d", p.ID))))
	assert.Contains(t, tg.lastText(t), "вариант участия")

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("option_single_%d", p.ID))))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("single_date_%d", sessions[0].ID))))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, "notes_skip")))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, "booking_confirm")))

	apps, err := db.GetPendingApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	a := apps[0]
	require.NotNil(t, a.SessionID)
	assert.Equal(t, sessions[0].ID, *a.SessionID)
	assert.Equal(t, int64(800), a.Amount, "разовое посещение считается по разовой цене")
	assert.Contains(t, a.UserNotes, "Разовое занятие")
}

func TestFullPassRequiresExactlyFourSessions(t *testing.T) {
	b, tg, _ := newTestBot(t)
	ctx := context.Background()
	p, sessions := newOpenGroupWithSessions(t, b, 5)

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("book_%d", p.ID))))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("option_full_%d", p.ID))))

	for i := 0; i < 3; i++ {
		require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("toggle_full_%d", sessions[i].ID))))
	}
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, "full_done")))
	assert.Contains(t, tg.lastText(t), "ровно 4")

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("toggle_full_%d", sessions[3].ID))))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, "full_done")))

	sess, ok := b.sessions.Booking(userID)
	require.True(t, ok)
	assert.Equal(t, session.StepNotes, sess.Step)
	assert.Len(t, sess.SelectedSessions, 4)

	// Пятое занятие сверх лимита не добавляется.
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("toggle_full_%d", sessions[4].ID))))
	sess, ok = b.sessions.Booking(userID)
	require.True(t, ok)
	assert.Len(t, sess.SelectedSessions, 4)
}

func TestSingleVisitRespectsSessionCapacity(t *testing.T) {
	b, tg, db := newTestBot(t)
	ctx := context.Background()
	p, sessions := newOpenGroupWithSessions(t, b, 1)

	// Забиваем дату до предела подтверждёнными разовыми записями.
	for i := 0; i < models.SingleSessionCapacity; i++ {
		uid := int64(1000 + i)
		a := &models.Application{
			ProgramID: p.ID,
			UserID:    &uid,
			UserName:  fmt.Sprintf("Гость %d", i),
			UserPhone: "+79000000000",
			Amount:    800,
			Status:    models.ApplicationStatusPending,
			SessionID: &sessions[0].ID,
		}
		require.NoError(t, db.CreateApplication(ctx, a))
		_, err := db.CreateBookingFromApplication(ctx, a)
		require.NoError(t, err)
	}

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("book_%d", p.ID))))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("option_single_%d", p.ID))))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("single_date_%d", sessions[0].ID))))

	assert.Contains(t, tg.lastText(t), "нет мест")
	sess, ok := b.sessions.Booking(userID)
	require.True(t, ok)
	assert.Nil(t, sess.SessionID)
}

// phoneWriteFailStore отказывает в сохранении телефона, остальное
// делегирует настоящей базе.
type phoneWriteFailStore struct {
	domain.Store
}

func (s *phoneWriteFailStore) UpdateUserPhone(ctx context.Context, telegramID int64, phone string) error {
	return errors.New("update_user_phone: база недоступна")
}

func newTestBotWithStore(t *testing.T, store domain.Store) (*Bot, *fakeTelegram) {
	t.Helper()

	cfg := testConfig()
	tg := &fakeTelegram{}
	logger := zerolog.Nop()

	notifier := service.NewNotificationService(tg, store, cfg, &logger)
	apps := service.NewApplicationService(store, notifier, events.NewEventBus(), nil, &logger)

	b, err := NewBot(tg, cfg, store, session.NewStore(), apps, repository.NewMemoryRateLimiter(), events.NewEventBus(), nil, &logger)
	require.NoError(t, err)
	return b, tg
}

func TestPhoneSaveFailureDoesNotBlockBooking(t *testing.T) {
	db := newTestDB(t)
	b, tg := newTestBotWithStore(t, &phoneWriteFailStore{Store: db})
	ctx := context.Background()
	p := createTestProgram(t, db, models.ProgramTypeGroup, 6000)

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("book_%d", p.ID))))
	require.NoError(t, b.ProcessUpdate(ctx, messageUpdate(userID, "8 900 123-45-67")))

	sess, ok := b.sessions.Booking(userID)
	require.True(t, ok)
	assert.Equal(t, session.StepNotes, sess.Step, "сбой записи телефона не должен останавливать запись")
	assert.Equal(t, "+79001234567", sess.Phone)
	assert.Contains(t, tg.lastText(t), "пожелания")
}

func TestConfirmWithoutStoredPhoneReturnsToContact(t *testing.T) {
	db := newTestDB(t)
	b, tg := newTestBotWithStore(t, &phoneWriteFailStore{Store: db})
	ctx := context.Background()
	p := createTestProgram(t, db, models.ProgramTypeGroup, 6000)

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("book_%d", p.ID))))
	require.NoError(t, b.ProcessUpdate(ctx, messageUpdate(userID, "+79001234567")))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, "notes_skip")))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, "booking_confirm")))

	assert.Contains(t, tg.lastText(t), "укажите ваш телефон")
	sess, ok := b.sessions.Booking(userID)
	require.True(t, ok)
	assert.Equal(t, session.StepContact, sess.Step)

	apps, err := db.GetPendingApplications(ctx)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestCancelBookingClearsSession(t *testing.T) {
	b, tg, db := newTestBot(t)
	ctx := context.Background()
	p := createTestProgram(t, db, models.ProgramTypeGroup, 6000)

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, fmt.Sprintf("book_%d", p.ID))))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(userID, "booking_cancel")))

	assert.Contains(t, tg.lastText(t), "начать заново")
	_, ok := b.sessions.Booking(userID)
	assert.False(t, ok)

	apps, err := db.GetPendingApplications(ctx)
	require.NoError(t, err)
	assert.Empty(t, apps)
}
