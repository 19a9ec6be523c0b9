// Package bot обрабатывает обновления Telegram: диалог записи,
// мастер создания программ, админ-панель и рассылки.
package bot

import (
	"context"
	"os"
	"time"

	"pirouette/internal/config"
	"pirouette/internal/domain"
	"pirouette/internal/events"
	"pirouette/internal/models"
	"pirouette/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ApplicationFlow жизненный цикл заявки, который нужен обработчикам бота.
type ApplicationFlow interface {
	CreateApplication(ctx context.Context, a *models.Application) error
	ConfirmPayment(ctx context.Context, applicationID int64, adminID int64) (*models.Application, error)
	Reject(ctx context.Context, applicationID int64, adminID int64) (*models.Application, error)
}

type Bot struct {
	tgService    domain.TelegramService
	config       *config.Config
	store        domain.Store
	sessions     *session.Store
	applications ApplicationFlow
	rateLimiter  domain.RateLimiter
	eventBus     domain.EventPublisher
	metrics      *Metrics
	logger       *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	cfg *config.Config,
	store domain.Store,
	sessions *session.Store,
	applications ApplicationFlow,
	rateLimiter domain.RateLimiter,
	eventBus domain.EventPublisher,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	if eventBus == nil {
		eventBus = events.NewEventBus()
	}
	if sessions == nil {
		sessions = session.NewStore()
	}
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tgService:    tgService,
		config:       cfg,
		store:        store,
		sessions:     sessions,
		applications: applications,
		rateLimiter:  rateLimiter,
		eventBus:     eventBus,
		metrics:      metrics,
		logger:       logger,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			_ = b.ProcessUpdate(ctx, update)
		}
	}
}

// ProcessUpdate обрабатывает одно обновление. Используется и циклом
// long polling, и вебхуком HTTP API.
func (b *Bot) ProcessUpdate(ctx context.Context, update tgbotapi.Update) error {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		var userID int64
		if update.Message != nil {
			userID = update.Message.From.ID
		} else if update.CallbackQuery != nil {
			userID = update.CallbackQuery.From.ID
		}

		if userID == 0 {
			return
		}

		if !b.isAdmin(userID) && b.rateLimiter != nil {
			window := time.Duration(b.config.Bot.RateLimitWindow) * time.Second
			allowed, err := b.rateLimiter.Allow(updateCtx, userID, b.config.Bot.RateLimitMessages, window)
			if err != nil {
				b.logger.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
			} else if !allowed {
				b.logger.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
				if update.Message != nil {
					b.sendText(update.Message.Chat.ID, "⚠️ Вы отправляете сообщения слишком часто. Пожалуйста, подождите немного.")
				}
				return
			}
		}

		if update.CallbackQuery != nil {
			if b.metrics != nil {
				b.metrics.CallbacksProcessed.Inc()
			}
			b.handleCallbackQuery(updateCtx, update.CallbackQuery)
			return
		}

		if update.Message == nil {
			return
		}

		if b.metrics != nil {
			b.metrics.MessagesProcessed.Inc()
		}
		b.handleMessage(updateCtx, update.Message)
	})

	return nil
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.config.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendHTML(chatID int64, text string) {
	if _, err := b.tgService.SendHTML(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

// teacherURL ссылка на личку преподавателя для inline-кнопок.
func (b *Bot) teacherURL() string {
	username := b.config.Teacher.Telegram
	if len(username) > 0 && username[0] == '@' {
		username = username[1:]
	}
	return "https://t.me/" + username
}
