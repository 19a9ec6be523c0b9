package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.Contact != nil {
		b.handleContact(ctx, msg)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	text := msg.Text
	if text == "" {
		return
	}

	// Приоритет свободного текста: мастер программ, затем рассылка,
	// затем шаги записи.
	if b.isAdmin(msg.From.ID) {
		if b.handleWizardText(ctx, chatID, text) {
			return
		}
		if b.handleBroadcastText(ctx, chatID, text) {
			return
		}
	}

	if b.handleBookingText(ctx, chatID, msg.From, text) {
		return
	}

	b.showStartMenu(chatID)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendWelcome(ctx, msg)
	case "programs":
		b.showPrograms(ctx, msg.Chat.ID)
	case "admin":
		if !b.isAdmin(msg.From.ID) {
			b.sendText(msg.Chat.ID, "⛔ Нет доступа к админ-панели")
			return
		}
		b.showAdminPanel(msg.Chat.ID)
	default:
		b.showStartMenu(msg.Chat.ID)
	}
}
