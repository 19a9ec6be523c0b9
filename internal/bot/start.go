package bot

import (
	"context"
	"fmt"
	"strings"

	"pirouette/internal/format"
	"pirouette/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func mainKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💃 Записаться", "nav_programs"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Мои занятия", "nav_my_bookings"),
			tgbotapi.NewInlineKeyboardButtonData("🗓 Расписание студии", "nav_schedule"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Информация", "nav_info"),
		),
	)
}

func (b *Bot) sendWelcome(ctx context.Context, msg *tgbotapi.Message) {
	user := &models.User{
		TelegramID: msg.From.ID,
		Username:   msg.From.UserName,
		FirstName:  msg.From.FirstName,
		LastName:   msg.From.LastName,
	}
	if _, err := b.store.GetOrCreateUser(ctx, user); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", msg.From.ID).Msg("Failed to register user")
	}

	name := msg.From.FirstName
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 <b>Привет, %s!</b> Я помощница Ани 💃\n\n"+
			"✨ <b>Этот бот поможет тебе быстро записаться на занятия и ничего не забыть.</b>\n\n"+
			"Здесь ты можешь:\n"+
			"• записаться на тренировки\n"+
			"• посмотреть свои записи\n"+
			"• узнать адрес студии, цены и всю важную информацию",
		format.EscapeHTML(name),
	)
	b.sendWithKeyboard(msg.Chat.ID, text, mainKeyboard())
}

func (b *Bot) showStartMenu(chatID int64) {
	b.sendWithKeyboard(chatID, "Выберите действие:", mainKeyboard())
}

func (b *Bot) handleNav(ctx context.Context, chatID int64, from *tgbotapi.User, target string) {
	switch target {
	case "start":
		b.showStartMenu(chatID)
	case "programs":
		b.showPrograms(ctx, chatID)
	case "booking":
		b.sendText(chatID, "Для записи выберите программу из списка:")
		b.showPrograms(ctx, chatID)
	case "my_bookings":
		b.showMyBookings(ctx, chatID, from.ID)
	case "schedule":
		b.showScheduleOverview(ctx, chatID)
	case "info":
		b.showInfoMenu(chatID)
	case "studio":
		b.showStudioInfo(chatID)
	case "contacts":
		b.showContacts(chatID)
	case "equipment":
		b.showEquipmentInfo(chatID)
	default:
		zerolog.Ctx(ctx).Warn().Str("target", target).Msg("Unknown nav target")
		b.showStartMenu(chatID)
	}
}

func (b *Bot) showInfoMenu(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📍 Студия", "nav_studio"),
			tgbotapi.NewInlineKeyboardButtonData("📞 Контакты", "nav_contacts"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👗 Что взять", "nav_equipment"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 В начало", "nav_start"),
		),
	)
	b.sendWithKeyboard(chatID, "ℹ️ <b>Информация</b>\n\nВыберите раздел:", keyboard)
}

func (b *Bot) showStudioInfo(chatID int64) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📍 <b>Адрес студии:</b>\n%s\n%s\n\n",
		format.EscapeHTML(b.config.Studio.Address), format.EscapeHTML(b.config.Studio.Floor))
	sb.WriteString("🚗 <b>Как добраться:</b>\n")
	sb.WriteString("• Центральный вход с улицы\n")
	sb.WriteString("• Подъём на этаж студии\n")
	sb.WriteString("• Справа — наша студия")

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👗 Что взять с собой", "nav_equipment"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 В начало", "nav_start"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), keyboard)
}

func (b *Bot) showContacts(chatID int64) {
	var sb strings.Builder
	sb.WriteString("📞 <b>Контакты</b>\n\n")
	fmt.Fprintf(&sb, "👩‍🏫 %s\n", format.EscapeHTML(b.config.Teacher.Name))
	fmt.Fprintf(&sb, "📱 Телефон: %s\n", format.EscapeHTML(b.config.Teacher.Phone))
	fmt.Fprintf(&sb, "💬 Telegram: %s", format.EscapeHTML(b.config.Teacher.Telegram))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💬 Написать в Telegram", b.teacherURL()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📞 Позвонить", "show_phone_number"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "nav_start"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), keyboard)
}

func (b *Bot) showEquipmentInfo(chatID int64) {
	text := "🎒 <b>Что взять с собой:</b>\n\n" +
		"• удобную одежду для танцев\n" +
		"• туфли на каблуке (если есть)\n" +
		"• наколенники\n" +
		"• воду 0,5–1 литр\n\n" +
		"💡 На всякий случай можно взять пластырь."

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Все программы", "nav_programs"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 В начало", "nav_start"),
		),
	)
	b.sendWithKeyboard(chatID, text, keyboard)
}

// showScheduleOverview общее расписание студии по всем активным программам.
func (b *Bot) showScheduleOverview(ctx context.Context, chatID int64) {
	programs, err := b.store.GetActivePrograms(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to load programs")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	if len(programs) == 0 {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🏠 В начало", "nav_start"),
			),
		)
		b.sendWithKeyboard(chatID, "😢 Пока нет активных занятий, но скоро появятся!", keyboard)
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>📅 РАСПИСАНИЕ ЗАНЯТИЙ</b>\n\n")

	for _, programType := range programTypeOrder {
		group := programsOfType(programs, programType)
		if len(group) == 0 {
			continue
		}
		sb.WriteString(typeHeader(programType) + "\n")
		for _, p := range group {
			fmt.Fprintf(&sb, "\n<b>%s</b> (%s)\n", format.EscapeHTML(p.Title), durationText(p.DurationMinutes))
			b.writeUpcomingSessions(ctx, &sb, p)
			if p.Type == models.ProgramTypeOpenGroup && p.HasSinglePrice() {
				fmt.Fprintf(&sb, "💰 Разовое: %s / 💳 Абонемент (%d занятия): %s\n",
					format.Currency(*p.SinglePrice), models.PassSessionCount, format.Currency(p.Price))
			}
		}
		sb.WriteString("\n──────────────\n")
	}
	fmt.Fprintf(&sb, "\n📍 <i>%s</i>", format.EscapeHTML(b.config.Studio.Address))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💃 Записаться", "nav_programs"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", "nav_start"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), keyboard)
}

// writeUpcomingSessions до трёх ближайших занятий программы либо её
// текстовое расписание.
func (b *Bot) writeUpcomingSessions(ctx context.Context, sb *strings.Builder, p *models.Program) {
	sessions, err := b.store.GetFutureSessions(ctx, p.ID, timeNow())
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("program_id", p.ID).Msg("Failed to load sessions")
	}
	if len(sessions) == 0 {
		if p.Schedule != "" {
			fmt.Fprintf(sb, "🕒 %s\n", format.EscapeHTML(p.Schedule))
		} else {
			sb.WriteString("🗓️ Расписание уточняется\n")
		}
		return
	}
	for i, s := range sessions {
		if i == 3 {
			break
		}
		fmt.Fprintf(sb, "• %s\n", format.SessionLine(s))
	}
}

func durationText(minutes int64) string {
	switch minutes {
	case 60:
		return "1 час"
	case 90:
		return "1,5 часа"
	default:
		return fmt.Sprintf("%d мин", minutes)
	}
}
