package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pirouette/internal/database"
	"pirouette/internal/events"
	"pirouette/internal/models"
	"pirouette/internal/worker"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// recordingNotifier запоминает вызовы вместо отправки сообщений.
type recordingNotifier struct {
	newApps   []int64
	confirmed []int64
	rejected  []int64
	lastNext  *models.ProgramSession
}

func (n *recordingNotifier) NewApplication(ctx context.Context, a *models.Application, p *models.Program) error {
	n.newApps = append(n.newApps, a.ID)
	return nil
}

func (n *recordingNotifier) BookingConfirmed(ctx context.Context, a *models.Application, p *models.Program, next *models.ProgramSession) error {
	n.confirmed = append(n.confirmed, a.ID)
	n.lastNext = next
	return nil
}

func (n *recordingNotifier) ApplicationRejected(ctx context.Context, a *models.Application, p *models.Program) error {
	n.rejected = append(n.rejected, a.ID)
	return nil
}

type recordingSync struct {
	tasks []string
}

func (s *recordingSync) EnqueueTask(ctx context.Context, taskType string, applicationID int64, a *models.Application, status string) error {
	s.tasks = append(s.tasks, taskType)
	return nil
}

func newAppService(t *testing.T) (*ApplicationService, *database.DB, *recordingNotifier, *recordingSync, *events.EventBus) {
	t.Helper()
	db := newTestStore(t)
	notifier := &recordingNotifier{}
	sync := &recordingSync{}
	bus := events.NewEventBus()
	logger := zerolog.Nop()
	return NewApplicationService(db, notifier, bus, sync, &logger), db, notifier, sync, bus
}

func seedProgram(t *testing.T, db *database.DB, programType string) *models.Program {
	t.Helper()
	singlePrice := int64(1200)
	p := &models.Program{
		Type:            programType,
		Title:           "Хореография",
		Status:          models.ProgramStatusActive,
		Price:           4400,
		SinglePrice:     &singlePrice,
		MaxParticipants: 10,
		StartDate:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.CreateProgram(context.Background(), p))
	return p
}

func TestCreateApplicationNotifiesAndSyncs(t *testing.T) {
	svc, db, notifier, sync, bus := newAppService(t)
	ctx := context.Background()
	p := seedProgram(t, db, models.ProgramTypeGroup)

	var published []string
	bus.Subscribe(events.EventApplicationCreated, func(e *events.Event) error {
		published = append(published, e.Type)
		return nil
	})

	userID := int64(777)
	app := &models.Application{
		ProgramID: p.ID,
		UserID:    &userID,
		UserName:  "Мария",
		UserPhone: "+79990001122",
		Amount:    4400,
		Status:    models.ApplicationStatusPending,
	}
	require.NoError(t, svc.CreateApplication(ctx, app))
	require.NotZero(t, app.ID)

	assert.Equal(t, []int64{app.ID}, notifier.newApps)
	assert.Equal(t, []string{worker.TaskAppend}, sync.tasks)
	assert.Equal(t, []string{events.EventApplicationCreated}, published)

	stored, err := db.GetApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, stored.Status)
}

func TestConfirmPaymentCreatesBooking(t *testing.T) {
	svc, db, notifier, sync, _ := newAppService(t)
	ctx := context.Background()
	p := seedProgram(t, db, models.ProgramTypeGroup)
	sessionDate := time.Date(2099, 3, 4, 0, 0, 0, 0, time.Local)
	require.NoError(t, db.CreateProgramSessions(ctx, []models.ProgramSession{
		{ProgramID: p.ID, Date: sessionDate, Time: "19:00", DurationMinutes: 90},
	}))

	userID := int64(777)
	app := &models.Application{
		ProgramID: p.ID,
		UserID:    &userID,
		UserName:  "Мария",
		UserPhone: "+79990001122",
		Amount:    4400,
		Status:    models.ApplicationStatusPending,
	}
	require.NoError(t, db.CreateApplication(ctx, app))

	updated, err := svc.ConfirmPayment(ctx, app.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPaid, updated.Status)

	assert.Equal(t, []int64{app.ID}, notifier.confirmed)
	require.NotNil(t, notifier.lastNext)
	assert.True(t, notifier.lastNext.Date.Equal(sessionDate))
	assert.Equal(t, []string{worker.TaskUpdateStatus}, sync.tasks)

	bookings, err := db.GetUserBookings(ctx, userID)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, models.BookingStatusConfirmed, bookings[0].Status)

	refreshed, err := db.GetProgramByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), refreshed.CurrentParticipants)
}

func TestConfirmPaymentTwiceReturnsDuplicate(t *testing.T) {
	svc, db, _, _, _ := newAppService(t)
	ctx := context.Background()
	p := seedProgram(t, db, models.ProgramTypeGroup)

	userID := int64(777)
	app := &models.Application{
		ProgramID: p.ID,
		UserID:    &userID,
		UserName:  "Мария",
		UserPhone: "+79990001122",
		Amount:    4400,
		Status:    models.ApplicationStatusPending,
	}
	require.NoError(t, db.CreateApplication(ctx, app))

	_, err := svc.ConfirmPayment(ctx, app.ID, 100)
	require.NoError(t, err)

	second := &models.Application{
		ProgramID: p.ID,
		UserID:    &userID,
		UserName:  "Мария",
		UserPhone: "+79990001122",
		Amount:    4400,
		Status:    models.ApplicationStatusPending,
	}
	require.NoError(t, db.CreateApplication(ctx, second))

	_, err = svc.ConfirmPayment(ctx, second.ID, 100)
	assert.ErrorIs(t, err, ErrDuplicateBooking)
}

func TestRejectUpdatesStatusAndNotifies(t *testing.T) {
	svc, db, notifier, sync, _ := newAppService(t)
	ctx := context.Background()
	p := seedProgram(t, db, models.ProgramTypeGroup)

	userID := int64(777)
	app := &models.Application{
		ProgramID: p.ID,
		UserID:    &userID,
		UserName:  "Мария",
		UserPhone: "+79990001122",
		Amount:    4400,
		Status:    models.ApplicationStatusPending,
	}
	require.NoError(t, db.CreateApplication(ctx, app))

	updated, err := svc.Reject(ctx, app.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusRejected, updated.Status)
	assert.Equal(t, []int64{app.ID}, notifier.rejected)
	assert.Equal(t, []string{worker.TaskUpdateStatus}, sync.tasks)
}

func TestConfirmPaymentSingleVisitUsesChosenSession(t *testing.T) {
	svc, db, notifier, _, _ := newAppService(t)
	ctx := context.Background()
	p := seedProgram(t, db, models.ProgramTypeOpenGroup)
	require.NoError(t, db.CreateProgramSessions(ctx, []models.ProgramSession{
		{ProgramID: p.ID, Date: time.Date(2099, 3, 4, 0, 0, 0, 0, time.Local), Time: "19:00", DurationMinutes: 90},
		{ProgramID: p.ID, Date: time.Date(2099, 3, 6, 0, 0, 0, 0, time.Local), Time: "20:00", DurationMinutes: 90},
	}))
	sessions, err := db.GetSessionsByProgram(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	userID := int64(42)
	app := &models.Application{
		ProgramID: p.ID,
		UserID:    &userID,
		UserName:  "Оля",
		UserPhone: "+79990001133",
		Amount:    1200,
		Status:    models.ApplicationStatusPending,
		SessionID: &sessions[1].ID,
	}
	require.NoError(t, db.CreateApplication(ctx, app))

	_, err = svc.ConfirmPayment(ctx, app.ID, 100)
	require.NoError(t, err)
	require.NotNil(t, notifier.lastNext)
	assert.Equal(t, sessions[1].ID, notifier.lastNext.ID)
}
