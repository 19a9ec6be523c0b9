package domain

import (
	"context"
	"time"

	"pirouette/internal/database"
	"pirouette/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Store interface {
	// Программы и расписание.
	CreateProgram(ctx context.Context, p *models.Program) error
	GetProgramByID(ctx context.Context, id int64) (*models.Program, error)
	GetActivePrograms(ctx context.Context) ([]*models.Program, error)
	GetProgramsByType(ctx context.Context, programType string) ([]*models.Program, error)
	UpdateProgramStatus(ctx context.Context, id int64, status string) error
	SoftDeleteProgram(ctx context.Context, id int64) error
	IncrementParticipants(ctx context.Context, id int64) error
	CompletePastIntensives(ctx context.Context, now time.Time) (int64, error)
	CreateProgramSessions(ctx context.Context, sessions []models.ProgramSession) error
	GetSessionByID(ctx context.Context, id int64) (*models.ProgramSession, error)
	GetSessionsByProgram(ctx context.Context, programID int64) ([]*models.ProgramSession, error)
	GetFutureSessions(ctx context.Context, programID int64, from time.Time) ([]*models.ProgramSession, error)
	CountSessionParticipants(ctx context.Context, sessionID int64) (int, error)

	// Пользователи.
	GetOrCreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	UpdateUserPhone(ctx context.Context, telegramID int64, phone string) error
	GetAllUserIDs(ctx context.Context) ([]int64, error)
	GetActiveUserIDs(ctx context.Context) ([]int64, error)
	GetProgramUserIDs(ctx context.Context, programID int64) ([]int64, error)

	// Заявки и записи.
	CreateApplication(ctx context.Context, a *models.Application) error
	GetApplicationByID(ctx context.Context, id int64) (*models.Application, error)
	GetPendingApplications(ctx context.Context) ([]*models.Application, error)
	GetAllApplications(ctx context.Context) ([]*models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status string) error
	CreateBookingFromApplication(ctx context.Context, a *models.Application) (*models.Booking, error)
	GetBookingByID(ctx context.Context, id int64) (*models.Booking, error)
	GetAllBookings(ctx context.Context) ([]*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	GetProgramBookings(ctx context.Context, programID int64) ([]*models.Booking, error)
	GetBookingSessionIDs(ctx context.Context, bookingID int64) ([]int64, error)

	// Статистика.
	GetApplicationStats(ctx context.Context) (*database.ApplicationStats, error)
	GetBookingStats(ctx context.Context) (*database.BookingStats, error)
	GetTypeStats(ctx context.Context) (*database.TypeStats, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendHTML(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	RemoveReplyKeyboard(chatID int64, text string) error
	AnswerCallback(callbackID string, text string) error
	SendDocument(chatID int64, path string, caption string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type Notifier interface {
	NewApplication(ctx context.Context, a *models.Application, p *models.Program) error
	BookingConfirmed(ctx context.Context, a *models.Application, p *models.Program, next *models.ProgramSession) error
	ApplicationRejected(ctx context.Context, a *models.Application, p *models.Program) error
}

type SheetsWriter interface {
	AppendApplication(ctx context.Context, a *models.Application, programTitle string) error
	UpdateApplicationStatus(ctx context.Context, applicationID int64, status string) error
	ReplaceApplicationsSheet(ctx context.Context, apps []*models.Application, programTitles map[int64]string) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, applicationID int64, a *models.Application, status string) error
}
