package bot

import (
	"context"
	"fmt"
	"strings"

	"time"

	"pirouette/internal/format"
	"pirouette/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// showMyBookings подтверждённые записи пользователя плюс заявки,
// которые ещё ждут подтверждения оплаты.
func (b *Bot) showMyBookings(ctx context.Context, chatID int64, telegramID int64) {
	l := zerolog.Ctx(ctx)

	bookings, err := b.store.GetUserBookings(ctx, telegramID)
	if err != nil {
		l.Error().Err(err).Int64("user_id", telegramID).Msg("Failed to load bookings")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	var pending []*models.Application
	apps, err := b.store.GetPendingApplications(ctx)
	if err != nil {
		l.Error().Err(err).Msg("Failed to load pending applications")
	} else {
		for _, a := range apps {
			if a.UserID != nil && *a.UserID == telegramID {
				pending = append(pending, a)
			}
		}
	}

	if len(bookings) == 0 && len(pending) == 0 {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("💃 Записаться", "nav_programs"),
				tgbotapi.NewInlineKeyboardButtonData("🏠 В начало", "nav_start"),
			),
		)
		b.sendWithKeyboard(chatID, "📭 У вас пока нет записей.\n\nСамое время выбрать занятие! 💛", keyboard)
		return
	}

	var sb strings.Builder
	sb.WriteString("📅 <b>МОИ ЗАНЯТИЯ</b>\n\n")

	if len(bookings) > 0 {
		sb.WriteString("✅ <b>Подтверждённые записи:</b>\n\n")
		for _, bk := range bookings {
			b.writeBookingLine(ctx, &sb, bk)
		}
	}

	if len(pending) > 0 {
		sb.WriteString("⏳ <b>Ожидают подтверждения:</b>\n\n")
		for _, a := range pending {
			title := fmt.Sprintf("Программа #%d", a.ProgramID)
			if p, err := b.store.GetProgramByID(ctx, a.ProgramID); err == nil {
				title = p.Title
			}
			fmt.Fprintf(&sb, "• <b>%s</b> — %s\n  Заявка #%d, Аня скоро подтвердит 💛\n\n",
				format.EscapeHTML(title), format.Currency(a.Amount), a.ID)
		}
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💃 Записаться ещё", "nav_programs"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 В начало", "nav_start"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), keyboard)
}

func (b *Bot) writeBookingLine(ctx context.Context, sb *strings.Builder, bk *models.Booking) {
	title := fmt.Sprintf("Программа #%d", bk.ProgramID)
	var p *models.Program
	if loaded, err := b.store.GetProgramByID(ctx, bk.ProgramID); err == nil {
		p = loaded
		title = p.Title
	}

	fmt.Fprintf(sb, "• <b>%s</b>\n", format.EscapeHTML(title))

	switch {
	case len(bk.SessionIDs) > 0:
		b.writeBookingSessions(ctx, sb, bk.SessionIDs)
	default:
		ids, err := b.store.GetBookingSessionIDs(ctx, bk.ID)
		if err == nil && len(ids) > 0 {
			b.writeBookingSessions(ctx, sb, ids)
		} else if p != nil && p.Schedule != "" {
			fmt.Fprintf(sb, "  ⏰ %s\n", format.EscapeHTML(p.Schedule))
		}
	}

	if p != nil && p.GroupLink != "" {
		fmt.Fprintf(sb, "  🔗 <a href=\"%s\">Группа занятия</a>\n", p.GroupLink)
	}

	payment := "⏳ ожидает оплаты"
	if bk.PaymentStatus == models.PaymentStatusPaid {
		payment = "💳 оплачено"
	}
	fmt.Fprintf(sb, "  %s · %s\n\n", payment, format.Currency(bk.Amount))
}

func (b *Bot) writeBookingSessions(ctx context.Context, sb *strings.Builder, ids []int64) {
	now := timeNow()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, id := range ids {
		s, err := b.store.GetSessionByID(ctx, id)
		if err != nil {
			continue
		}
		marker := "📅"
		if s.Date.Before(today) {
			marker = "✔️"
		}
		fmt.Fprintf(sb, "  %s %s\n", marker, format.SessionLine(s))
	}
}
