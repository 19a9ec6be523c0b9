package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pirouette/internal/database"
	"pirouette/internal/domain"
	"pirouette/internal/events"
	"pirouette/internal/models"
	"pirouette/internal/worker"

	"github.com/rs/zerolog"
)

// ErrDuplicateBooking пробрасывается наружу при повторном подтверждении
// оплаты по той же программе.
var ErrDuplicateBooking = database.ErrDuplicateBooking

// ApplicationService управляет жизненным циклом заявки: создание,
// подтверждение оплаты, отклонение.
type ApplicationService struct {
	store    domain.Store
	notifier domain.Notifier
	eventBus domain.EventPublisher
	sync     domain.SyncWorker
	logger   *zerolog.Logger
}

func NewApplicationService(store domain.Store, notifier domain.Notifier, eventBus domain.EventPublisher, sync domain.SyncWorker, logger *zerolog.Logger) *ApplicationService {
	return &ApplicationService{
		store:    store,
		notifier: notifier,
		eventBus: eventBus,
		sync:     sync,
		logger:   logger,
	}
}

// CreateApplication сохраняет заявку, уведомляет администраторов и ставит
// её в очередь синхронизации с таблицей.
func (s *ApplicationService) CreateApplication(ctx context.Context, a *models.Application) error {
	program, err := s.store.GetProgramByID(ctx, a.ProgramID)
	if err != nil {
		return fmt.Errorf("failed to load program: %w", err)
	}

	if err := s.store.CreateApplication(ctx, a); err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	if err := s.notifier.NewApplication(ctx, a, program); err != nil {
		s.logger.Error().Err(err).Int64("application_id", a.ID).Msg("Не удалось уведомить администраторов о заявке")
	}

	s.publishApplicationEvent(events.EventApplicationCreated, a, program, 0)
	s.enqueueSync(ctx, worker.TaskAppend, a, "")
	return nil
}

// ConfirmPayment переводит заявку в статус "оплачена", создаёт
// подтверждённую запись и уведомляет пользователя. При повторном
// подтверждении возвращает ErrDuplicateBooking.
func (s *ApplicationService) ConfirmPayment(ctx context.Context, applicationID int64, adminID int64) (*models.Application, error) {
	a, err := s.store.GetApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	program, err := s.store.GetProgramByID(ctx, a.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}

	if err := s.store.UpdateApplicationStatus(ctx, a.ID, models.ApplicationStatusPaid); err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}
	a.Status = models.ApplicationStatusPaid

	booking, err := s.store.CreateBookingFromApplication(ctx, a)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateBooking) {
			return a, ErrDuplicateBooking
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	next, err := s.nextSession(ctx, a, booking)
	if err != nil {
		s.logger.Warn().Err(err).Int64("application_id", a.ID).Msg("Не удалось определить ближайшее занятие")
	}

	if err := s.store.IncrementParticipants(ctx, program.ID); err != nil {
		s.logger.Warn().Err(err).Int64("program_id", program.ID).Msg("Не удалось увеличить счётчик участников")
	}

	if err := s.notifier.BookingConfirmed(ctx, a, program, next); err != nil {
		s.logger.Error().Err(err).Int64("application_id", a.ID).Msg("Не удалось уведомить пользователя о записи")
	}

	s.publishApplicationEvent(events.EventApplicationPaid, a, program, adminID)
	s.publishBookingEvent(booking, program)
	s.enqueueSync(ctx, worker.TaskUpdateStatus, a, models.ApplicationStatusPaid)
	return a, nil
}

// Reject отклоняет заявку и уведомляет пользователя.
func (s *ApplicationService) Reject(ctx context.Context, applicationID int64, adminID int64) (*models.Application, error) {
	a, err := s.store.GetApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	program, err := s.store.GetProgramByID(ctx, a.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}

	if err := s.store.UpdateApplicationStatus(ctx, a.ID, models.ApplicationStatusRejected); err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}
	a.Status = models.ApplicationStatusRejected

	if err := s.notifier.ApplicationRejected(ctx, a, program); err != nil {
		s.logger.Error().Err(err).Int64("application_id", a.ID).Msg("Не удалось уведомить пользователя об отклонении")
	}

	s.publishApplicationEvent(events.EventApplicationRejected, a, program, adminID)
	s.enqueueSync(ctx, worker.TaskUpdateStatus, a, models.ApplicationStatusRejected)
	return a, nil
}

// nextSession подбирает занятие для уведомления: выбранное разовое,
// первое из абонемента, иначе ближайшее будущее занятие программы.
func (s *ApplicationService) nextSession(ctx context.Context, a *models.Application, booking *models.Booking) (*models.ProgramSession, error) {
	if a.SessionID != nil {
		return s.store.GetSessionByID(ctx, *a.SessionID)
	}
	if len(booking.SessionIDs) > 0 {
		ids, err := s.store.GetBookingSessionIDs(ctx, booking.ID)
		if err == nil && len(ids) > 0 {
			return s.store.GetSessionByID(ctx, ids[0])
		}
		return s.store.GetSessionByID(ctx, booking.SessionIDs[0])
	}
	sessions, err := s.store.GetFutureSessions(ctx, a.ProgramID, time.Now())
	if err != nil || len(sessions) == 0 {
		return nil, err
	}
	return sessions[0], nil
}

func (s *ApplicationService) publishApplicationEvent(eventType string, a *models.Application, p *models.Program, adminID int64) {
	payload := events.ApplicationEventPayload{
		ApplicationID: a.ID,
		ProgramID:     a.ProgramID,
		UserName:      a.UserName,
		Amount:        a.Amount,
		Status:        a.Status,
		ChangedByID:   adminID,
	}
	if p != nil {
		payload.ProgramTitle = p.Title
	}
	if a.UserID != nil {
		payload.UserID = *a.UserID
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("Не удалось опубликовать событие")
	}
}

func (s *ApplicationService) publishBookingEvent(booking *models.Booking, p *models.Program) {
	payload := events.ApplicationEventPayload{
		ApplicationID: booking.ApplicationID,
		ProgramID:     booking.ProgramID,
		UserName:      booking.UserName,
		Amount:        booking.Amount,
		Status:        booking.Status,
	}
	if p != nil {
		payload.ProgramTitle = p.Title
	}
	if booking.UserID != nil {
		payload.UserID = *booking.UserID
	}
	if err := s.eventBus.PublishJSON(events.EventBookingConfirmed, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", events.EventBookingConfirmed).Msg("Не удалось опубликовать событие")
	}
}

func (s *ApplicationService) enqueueSync(ctx context.Context, taskType string, a *models.Application, status string) {
	if s.sync == nil {
		return
	}
	if err := s.sync.EnqueueTask(ctx, taskType, a.ID, a, status); err != nil {
		s.logger.Warn().Err(err).Int64("application_id", a.ID).Str("task", taskType).Msg("Не удалось поставить задачу синхронизации")
	}
}
