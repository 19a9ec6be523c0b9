package service

import (
	"context"
	"fmt"
	"strings"

	"pirouette/internal/config"
	"pirouette/internal/domain"
	"pirouette/internal/format"
	"pirouette/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// NotificationService рассылает уведомления администраторам и
// пользователям о жизненном цикле заявки.
type NotificationService struct {
	telegram domain.TelegramService
	store    domain.Store
	cfg      *config.Config
	logger   *zerolog.Logger
}

func NewNotificationService(telegram domain.TelegramService, store domain.Store, cfg *config.Config, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{
		telegram: telegram,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// NewApplication уведомляет всех администраторов о новой заявке.
func (s *NotificationService) NewApplication(ctx context.Context, a *models.Application, p *models.Program) error {
	sessions, err := s.applicationSessions(ctx, a)
	if err != nil {
		s.logger.Warn().Err(err).Int64("application_id", a.ID).Msg("Не удалось загрузить занятия заявки")
	}

	text := "🎉 <b>НОВАЯ ЗАЯВКА!</b>\n\n" + format.ApplicationCard(a, p, sessions)

	rows := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить оплату", fmt.Sprintf("admin_confirm_%d", a.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", fmt.Sprintf("admin_reject_%d", a.ID)),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("📞 Контакт", fmt.Sprintf("admin_call_%d", a.ID)),
		},
	}
	if a.UserID != nil {
		rows[1] = append(rows[1],
			tgbotapi.NewInlineKeyboardButtonURL("💬 Написать", fmt.Sprintf("tg://user?id=%d", *a.UserID)))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)

	var lastErr error
	for _, adminID := range s.adminIDs() {
		if _, err := s.telegram.SendWithInlineKeyboard(adminID, text, keyboard); err != nil {
			s.logger.Error().Err(err).Int64("admin_id", adminID).Msg("Не удалось уведомить администратора")
			lastErr = err
		}
	}
	return lastErr
}

// BookingConfirmed уведомляет пользователя о подтверждённой записи.
func (s *NotificationService) BookingConfirmed(ctx context.Context, a *models.Application, p *models.Program, next *models.ProgramSession) error {
	if a.UserID == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString("🎉 <b>Запись подтверждена!</b>\n\n")
	fmt.Fprintf(&b, "🎯 %s\n", format.EscapeHTML(p.Title))
	if next != nil {
		fmt.Fprintf(&b, "📅 Ближайшее занятие: %s\n", format.SessionLine(next))
	}
	fmt.Fprintf(&b, "\n📍 Адрес: %s, %s\n", s.cfg.Studio.Address, s.cfg.Studio.Floor)
	b.WriteString("\n🩰 Что взять с собой:\n• удобную одежду\n• носочки или чешки\n• воду\n")
	if p.GroupLink != "" {
		fmt.Fprintf(&b, "\n💬 Чат группы: %s\n", p.GroupLink)
	}
	b.WriteString("\nДо встречи на занятии! 💛")

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Мои записи", "nav_my_bookings"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💬 Написать Ане", s.teacherLink()),
			tgbotapi.NewInlineKeyboardButtonData("🏠 В начало", "nav_start"),
		),
	)

	_, err := s.telegram.SendWithInlineKeyboard(*a.UserID, b.String(), keyboard)
	return err
}

// ApplicationRejected уведомляет пользователя об отклонённой заявке.
func (s *NotificationService) ApplicationRejected(ctx context.Context, a *models.Application, p *models.Program) error {
	if a.UserID == nil {
		return nil
	}

	text := fmt.Sprintf(
		"😔 <b>Заявка отклонена</b>\n\n🎯 %s\n\nЕсли есть вопросы — напишите Ане: %s",
		format.EscapeHTML(p.Title), s.cfg.Teacher.Telegram,
	)
	_, err := s.telegram.SendHTML(*a.UserID, text)
	return err
}

func (s *NotificationService) applicationSessions(ctx context.Context, a *models.Application) ([]*models.ProgramSession, error) {
	return s.store.GetSessionsByProgram(ctx, a.ProgramID)
}

func (s *NotificationService) adminIDs() []int64 {
	seen := make(map[int64]bool, len(s.cfg.Admins))
	var ids []int64
	for _, id := range s.cfg.Admins {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *NotificationService) teacherLink() string {
	username := strings.TrimPrefix(s.cfg.Teacher.Telegram, "@")
	return "https://t.me/" + username
}
