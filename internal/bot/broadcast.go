package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pirouette/internal/format"
	"pirouette/internal/models"
	"pirouette/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// startBroadcast выбор сегмента получателей.
func (b *Bot) startBroadcast(ctx context.Context, chatID int64) {
	b.sessions.SetBroadcast(&session.Broadcast{
		ChatID: chatID,
		Stage:  session.BroadcastStageSegment,
	})

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Всем пользователям", "broadcast_all"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ С активными записями", "broadcast_active"),
		),
	}

	programs, err := b.store.GetActivePrograms(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to load programs for broadcast")
	}
	for _, p := range programs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %s", typeEmoji(p.Type), truncate(p.Title, 28)),
				fmt.Sprintf("broadcast_program_%d", p.ID),
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "broadcast_cancel"),
	))

	b.sendWithKeyboard(chatID, "📢 <b>Рассылка</b>\n\nКому отправить сообщение?", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) selectBroadcastSegment(ctx context.Context, chatID int64, segment string) {
	st, ok := b.sessions.Broadcast(chatID)
	if !ok {
		st = &session.Broadcast{ChatID: chatID}
	}
	st.Segment = segment
	st.Stage = session.BroadcastStageText
	b.sessions.SetBroadcast(st)

	b.sendHTML(chatID, fmt.Sprintf(
		"✍️ <b>Получатели:</b> %s\n\nНапишите текст рассылки одним сообщением:",
		b.segmentLabel(ctx, segment)))
}

// handleBroadcastText перехватывает текст администратора, когда
// рассылка ждёт сообщение.
func (b *Bot) handleBroadcastText(ctx context.Context, chatID int64, text string) bool {
	st, ok := b.sessions.Broadcast(chatID)
	if !ok || st.Stage != session.BroadcastStageText {
		return false
	}

	st.Text = text
	st.Stage = session.BroadcastStageConfirm
	b.sessions.SetBroadcast(st)

	ids, err := b.broadcastRecipients(ctx, st.Segment)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("segment", st.Segment).Msg("Failed to resolve recipients")
	}

	preview := fmt.Sprintf(
		"📢 <b>Проверьте рассылку</b>\n\n<b>Получатели:</b> %s (%d чел.)\n\n<b>Текст:</b>\n%s\n\nОтправляем?",
		b.segmentLabel(ctx, st.Segment), len(ids), format.EscapeHTML(text))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 Отправить", "broadcast_confirm"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "broadcast_cancel"),
		),
	)
	b.sendWithKeyboard(chatID, preview, keyboard)
	return true
}

// confirmBroadcast шлёт сообщение по одному получателю с паузой,
// чтобы не упереться в лимиты Telegram.
func (b *Bot) confirmBroadcast(ctx context.Context, chatID int64) {
	st, ok := b.sessions.Broadcast(chatID)
	if !ok || st.Stage != session.BroadcastStageConfirm || st.Text == "" {
		b.sendText(chatID, "⚠️ Рассылка не найдена. Начните заново через админ-панель.")
		return
	}

	ids, err := b.broadcastRecipients(ctx, st.Segment)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("segment", st.Segment).Msg("Failed to resolve recipients")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	text := fmt.Sprintf("💌 *Сообщение от Ани!*\n\n%s\n\n_Если есть вопросы — пишите!_ 💛", st.Text)

	sent, failed := 0, 0
	for _, userID := range ids {
		msg := tgbotapi.NewMessage(userID, text)
		msg.ParseMode = models.ParseModeMarkdown
		if _, err := b.tgService.Send(msg); err != nil {
			failed++
			zerolog.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Broadcast message failed")
		} else {
			sent++
		}
		time.Sleep(50 * time.Millisecond)
	}

	if b.metrics != nil {
		b.metrics.BroadcastsSent.Inc()
	}
	b.sessions.ClearBroadcast(chatID)

	zerolog.Ctx(ctx).Info().
		Str("segment", st.Segment).
		Int("sent", sent).
		Int("failed", failed).
		Msg("Broadcast finished")

	summary := fmt.Sprintf("📤 <b>Рассылка завершена!</b>\n\n✅ Отправлено: %d\n❌ Ошибок: %d", sent, failed)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 В админку", "admin_panel"),
		),
	)
	b.sendWithKeyboard(chatID, summary, keyboard)
}

func (b *Bot) cancelBroadcast(chatID int64) {
	b.sessions.ClearBroadcast(chatID)
	b.sendText(chatID, "❌ Рассылка отменена.")
}

func (b *Bot) broadcastRecipients(ctx context.Context, segment string) ([]int64, error) {
	switch {
	case segment == "all":
		return b.store.GetAllUserIDs(ctx)
	case segment == "active":
		return b.store.GetActiveUserIDs(ctx)
	case strings.HasPrefix(segment, "program_"):
		programID, err := strconv.ParseInt(strings.TrimPrefix(segment, "program_"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad broadcast segment %q: %w", segment, err)
		}
		return b.store.GetProgramUserIDs(ctx, programID)
	}
	return nil, fmt.Errorf("unknown broadcast segment %q", segment)
}

func (b *Bot) segmentLabel(ctx context.Context, segment string) string {
	switch {
	case segment == "all":
		return "все пользователи"
	case segment == "active":
		return "с активными записями"
	case strings.HasPrefix(segment, "program_"):
		programID, err := strconv.ParseInt(strings.TrimPrefix(segment, "program_"), 10, 64)
		if err == nil {
			if p, perr := b.store.GetProgramByID(ctx, programID); perr == nil {
				return "участники «" + format.EscapeHTML(p.Title) + "»"
			}
		}
		return "участники программы"
	}
	return segment
}
