package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pirouette/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func singlePrice(v int64) *int64 { return &v }

func newOpenGroup(t *testing.T, db *DB) *models.Program {
	t.Helper()
	p := &models.Program{
		Type:            models.ProgramTypeOpenGroup,
		Title:           "Хореография",
		Description:     "Открытая группа по средам",
		StartDate:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local),
		Schedule:        "Ср 19:00",
		MaxParticipants: 10,
		Price:           4400,
		SinglePrice:     singlePrice(1200),
		Status:          models.ProgramStatusActive,
		DurationMinutes: 90,
	}
	require.NoError(t, db.CreateProgram(context.Background(), p))
	return p
}

func TestProgramRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := newOpenGroup(t, db)
	require.NotZero(t, p.ID)

	got, err := db.GetProgramByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Хореография", got.Title)
	assert.Equal(t, models.ProgramTypeOpenGroup, got.Type)
	require.NotNil(t, got.SinglePrice)
	assert.Equal(t, int64(1200), *got.SinglePrice)
	assert.Nil(t, got.EndDate)

	_, err = db.GetProgramByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSoftDeleteHidesProgram(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := newOpenGroup(t, db)
	active, err := db.GetActivePrograms(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, db.SoftDeleteProgram(ctx, p.ID))

	active, err = db.GetActivePrograms(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	// История остаётся доступной по ID.
	got, err := db.GetProgramByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProgramStatusDeleted, got.Status)
}

func TestIncrementParticipantsCapped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &models.Program{
		Type:            models.ProgramTypeGroup,
		Title:           "Группа",
		StartDate:       time.Now(),
		MaxParticipants: 2,
		Price:           6000,
		Status:          models.ProgramStatusActive,
		DurationMinutes: 60,
	}
	require.NoError(t, db.CreateProgram(ctx, p))

	for i := 0; i < 5; i++ {
		require.NoError(t, db.IncrementParticipants(ctx, p.ID))
	}

	got, err := db.GetProgramByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.CurrentParticipants)
}

func TestCompletePastIntensives(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.Local)

	past := now.AddDate(0, 0, -3)
	future := now.AddDate(0, 0, 3)
	for _, end := range []time.Time{past, future} {
		end := end
		p := &models.Program{
			Type:            models.ProgramTypeIntensive,
			Title:           "Интенсив",
			StartDate:       end.AddDate(0, 0, -2),
			EndDate:         &end,
			MaxParticipants: 10,
			Price:           5000,
			Status:          models.ProgramStatusActive,
			DurationMinutes: 90,
		}
		require.NoError(t, db.CreateProgram(ctx, p))
	}

	updated, err := db.CompletePastIntensives(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	active, err := db.GetActivePrograms(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].EndDate.After(now))
}

func TestProgramSessions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := newOpenGroup(t, db)

	sessions := []models.ProgramSession{
		{ProgramID: p.ID, Date: time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local), Time: "19:00", DurationMinutes: 90},
		{ProgramID: p.ID, Date: time.Date(2026, 3, 11, 0, 0, 0, 0, time.Local), Time: "19:00", DurationMinutes: 90},
		{ProgramID: p.ID, Date: time.Date(2026, 3, 18, 0, 0, 0, 0, time.Local), Time: "19:00", DurationMinutes: 90},
	}
	require.NoError(t, db.CreateProgramSessions(ctx, sessions))
	for _, s := range sessions {
		assert.NotZero(t, s.ID)
	}

	all, err := db.GetSessionsByProgram(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)

	future, err := db.GetFutureSessions(ctx, p.ID, time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.Len(t, future, 2)
	assert.Equal(t, 11, future[0].Date.Day())
}

func TestUsersGetOrCreate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, err := db.GetOrCreateUser(ctx, &models.User{
		TelegramID: 42, Username: "dancer", FirstName: "Мария",
	})
	require.NoError(t, err)
	require.NotZero(t, u.ID)

	// Повторный вызов не создаёт дубликата, но обновляет имя.
	again, err := db.GetOrCreateUser(ctx, &models.User{
		TelegramID: 42, Username: "dancer", FirstName: "Мария", LastName: "Иванова",
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Иванова", again.LastName)

	require.NoError(t, db.UpdateUserPhone(ctx, 42, "8 915 673-28-91"))
	got, err := db.GetUserByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "+79156732891", got.Phone)

	assert.ErrorIs(t, db.UpdateUserPhone(ctx, 77, "+7000"), ErrNotFound)
}

func TestApplicationRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := newOpenGroup(t, db)

	userID := int64(42)
	a := &models.Application{
		ProgramID:     p.ID,
		UserID:        &userID,
		UserName:      "Мария",
		UserPhone:     "+79156732891",
		UserNotes:     "цель: растяжка",
		PaymentMethod: "tinkoff",
		Amount:        4400,
		Status:        models.ApplicationStatusPending,
		SessionIDs:    []int64{1, 2, 3, 4},
	}
	require.NoError(t, db.CreateApplication(ctx, a))

	got, err := db.GetApplicationByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, got.SessionIDs)
	assert.Nil(t, got.SessionID)
	assert.Equal(t, "цель: растяжка", got.UserNotes)

	pending, err := db.GetPendingApplications(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, db.UpdateApplicationStatus(ctx, a.ID, models.ApplicationStatusPaid))
	pending, err = db.GetPendingApplications(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCreateBookingFromApplication(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := newOpenGroup(t, db)

	sessions := []models.ProgramSession{
		{ProgramID: p.ID, Date: time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local), Time: "19:00", DurationMinutes: 90},
		{ProgramID: p.ID, Date: time.Date(2026, 3, 11, 0, 0, 0, 0, time.Local), Time: "19:00", DurationMinutes: 90},
	}
	require.NoError(t, db.CreateProgramSessions(ctx, sessions))

	userID := int64(42)
	a := &models.Application{
		ProgramID:  p.ID,
		UserID:     &userID,
		UserName:   "Мария",
		UserPhone:  "+79156732891",
		Amount:     4400,
		Status:     models.ApplicationStatusPaid,
		SessionIDs: []int64{sessions[0].ID, sessions[1].ID},
	}
	require.NoError(t, db.CreateApplication(ctx, a))

	b, err := db.CreateBookingFromApplication(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
	assert.Equal(t, models.PaymentStatusPaid, b.PaymentStatus)

	ids, err := db.GetBookingSessionIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{sessions[0].ID, sessions[1].ID}, ids)

	// Повторная оплата той же программы отклоняется.
	_, err = db.CreateBookingFromApplication(ctx, a)
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	count, err := db.CountSessionParticipants(ctx, sessions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCountSessionParticipantsSingleVisit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := newOpenGroup(t, db)

	sessions := []models.ProgramSession{
		{ProgramID: p.ID, Date: time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local), Time: "19:00", DurationMinutes: 90},
	}
	require.NoError(t, db.CreateProgramSessions(ctx, sessions))

	userID := int64(7)
	a := &models.Application{
		ProgramID: p.ID,
		UserID:    &userID,
		UserName:  "Оля",
		UserPhone: "+79990000000",
		Amount:    1200,
		Status:    models.ApplicationStatusPaid,
		SessionID: &sessions[0].ID,
	}
	require.NoError(t, db.CreateApplication(ctx, a))
	_, err := db.CreateBookingFromApplication(ctx, a)
	require.NoError(t, err)

	count, err := db.CountSessionParticipants(ctx, sessions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := newOpenGroup(t, db)

	userA, userB := int64(1), int64(2)
	apps := []*models.Application{
		{ProgramID: p.ID, UserID: &userA, UserName: "А", UserPhone: "+7", Amount: 1200, Status: models.ApplicationStatusPaid},
		{ProgramID: p.ID, UserID: &userB, UserName: "Б", UserPhone: "+7", Amount: 4400, Status: models.ApplicationStatusPaid},
		{ProgramID: p.ID, UserName: "В", UserPhone: "+7", Amount: 4400, Status: models.ApplicationStatusPending},
	}
	for _, a := range apps {
		require.NoError(t, db.CreateApplication(ctx, a))
	}
	_, err := db.CreateBookingFromApplication(ctx, apps[0])
	require.NoError(t, err)
	_, err = db.CreateBookingFromApplication(ctx, apps[1])
	require.NoError(t, err)

	as, err := db.GetApplicationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, as.Total)
	assert.Equal(t, 1, as.Pending)
	assert.Equal(t, 2, as.Paid)
	assert.Equal(t, int64(5600), as.Amount)

	bs, err := db.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, bs.Total)
	assert.Equal(t, int64(5600), bs.Amount)

	ts, err := db.GetTypeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ts.OpenSingle)
	assert.Equal(t, 1, ts.OpenFull)

	ids, err := db.GetActiveUserIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)

	ids, err = db.GetProgramUserIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}
