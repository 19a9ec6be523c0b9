package bot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pirouette/internal/config"
	"pirouette/internal/database"
	"pirouette/internal/events"
	"pirouette/internal/models"
	"pirouette/internal/repository"
	"pirouette/internal/service"
	"pirouette/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminID = int64(900)
	userID  = int64(42)
)

// fakeTelegram записывает отправленные сообщения вместо похода в API.
type fakeTelegram struct {
	sent   []sentMessage
	raw    []tgbotapi.Chattable
	nextID int
}

type sentMessage struct {
	chatID   int64
	text     string
	keyboard *tgbotapi.InlineKeyboardMarkup
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.raw = append(f.raw, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegram) SendHTML(chatID int64, text string) (tgbotapi.Message, error) {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegram) SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error) {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegram) SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, keyboard: &keyboard})
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeTelegram) EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, keyboard: keyboard})
	return tgbotapi.Message{MessageID: messageID}, nil
}

func (f *fakeTelegram) RemoveReplyKeyboard(chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeTelegram) AnswerCallback(callbackID string, text string) error { return nil }

func (f *fakeTelegram) SendDocument(chatID int64, path string, caption string) error { return nil }

func (f *fakeTelegram) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return nil
}

func (f *fakeTelegram) GetSelf() tgbotapi.User { return tgbotapi.User{UserName: "pirouette_test_bot"} }

func (f *fakeTelegram) StopReceivingUpdates() {}

func (f *fakeTelegram) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1].text
}

func (f *fakeTelegram) textsFor(chatID int64) []string {
	var out []string
	for _, m := range f.sent {
		if m.chatID == chatID {
			out = append(out, m.text)
		}
	}
	return out
}

func testConfig() *config.Config {
	cfg := &config.Config{Admins: []int64{adminID}}
	cfg.Bot.RateLimitMessages = 100
	cfg.Bot.RateLimitWindow = 60
	cfg.Studio.Name = "Pirouette"
	cfg.Studio.Address = "ул. Максима Горького, 17/129"
	cfg.Studio.Floor = "2 этаж"
	cfg.Teacher.Name = "Анна Карелина"
	cfg.Teacher.Phone = "+7 900 000-00-00"
	cfg.Teacher.Telegram = "@anv_karelina"
	cfg.Payment.Recipient = "Анна К."
	cfg.Payment.Phone = "+7 900 000-00-00"
	cfg.Payment.Bank = "Тинькофф"
	cfg.Exports.Path = "exports"
	return cfg
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestBot(t *testing.T) (*Bot, *fakeTelegram, *database.DB) {
	t.Helper()
	return newTestBotWithConfig(t, testConfig())
}

func newTestBotWithConfig(t *testing.T, cfg *config.Config) (*Bot, *fakeTelegram, *database.DB) {
	t.Helper()

	db := newTestDB(t)
	tg := &fakeTelegram{}
	logger := zerolog.Nop()

	notifier := service.NewNotificationService(tg, db, cfg, &logger)
	apps := service.NewApplicationService(db, notifier, events.NewEventBus(), nil, &logger)

	b, err := NewBot(tg, cfg, db, session.NewStore(), apps, repository.NewMemoryRateLimiter(), events.NewEventBus(), nil, &logger)
	require.NoError(t, err)
	return b, tg, db
}

func messageUpdate(from int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from, FirstName: "Мария"},
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
	}}
}

func commandUpdate(from int64, command string) tgbotapi.Update {
	u := messageUpdate(from, command)
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}}
	return u
}

func callbackUpdate(from int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: from, FirstName: "Мария"},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: from}},
		Data:    data,
	}}
}

func createTestProgram(t *testing.T, db *database.DB, programType string, price int64) *models.Program {
	t.Helper()
	p := &models.Program{
		Type:            programType,
		Title:           "Тестовое занятие",
		Description:     "Описание",
		StartDate:       time.Now().AddDate(0, 0, 1),
		Schedule:        "Ср 19:00–20:30",
		MaxParticipants: 10,
		Price:           price,
		Status:          models.ProgramStatusActive,
		DurationMinutes: 90,
	}
	require.NoError(t, db.CreateProgram(context.Background(), p))
	return p
}

func TestStartCommandShowsMainMenu(t *testing.T) {
	b, tg, db := newTestBot(t)

	require.NoError(t, b.ProcessUpdate(context.Background(), commandUpdate(userID, "/start")))

	assert.Contains(t, tg.lastText(t), "Привет")

	u, err := db.GetUserByTelegramID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Мария", u.FirstName)
}

func TestRateLimitWarnsChattyUsers(t *testing.T) {
	cfg := testConfig()
	cfg.Bot.RateLimitMessages = 2
	b, tg, _ := newTestBotWithConfig(t, cfg)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.ProcessUpdate(context.Background(), messageUpdate(userID, "привет")))
	}

	assert.Contains(t, tg.lastText(t), "слишком часто")
}

func TestAdminsBypassRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Bot.RateLimitMessages = 1
	b, tg, _ := newTestBotWithConfig(t, cfg)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.ProcessUpdate(context.Background(), messageUpdate(adminID, "привет")))
	}

	for _, text := range tg.textsFor(adminID) {
		assert.NotContains(t, text, "слишком часто")
	}
}

func TestUnknownCallbackIsNoop(t *testing.T) {
	b, tg, _ := newTestBot(t)

	require.NoError(t, b.ProcessUpdate(context.Background(), callbackUpdate(userID, "guide_42")))

	assert.Empty(t, tg.sent)
}

func TestPanicInHandlerIsRecovered(t *testing.T) {
	b, _, _ := newTestBot(t)

	assert.NotPanics(t, func() {
		b.withRecovery(func() { panic("boom") })
	})
}
