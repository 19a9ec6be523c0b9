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

// timeNow вынесено в переменную для подмены времени в тестах.
var timeNow = time.Now

// programTypeOrder порядок показа типов в списках.
var programTypeOrder = []string{
	models.ProgramTypeGroup,
	models.ProgramTypeIntensive,
	models.ProgramTypeOpenGroup,
	models.ProgramTypeIndividual,
}

func typeHeader(programType string) string {
	switch programType {
	case models.ProgramTypeGroup:
		return "👥 ГРУППОВЫЕ ЗАНЯТИЯ"
	case models.ProgramTypeIntensive:
		return "🔥 ИНТЕНСИВЫ"
	case models.ProgramTypeOpenGroup:
		return "🎪 ОТКРЫТЫЕ ГРУППЫ"
	case models.ProgramTypeIndividual:
		return "👤 ИНДИВИДУАЛЬНЫЕ ЗАНЯТИЯ"
	default:
		return "📌 ЗАНЯТИЯ"
	}
}

func typeEmoji(programType string) string {
	switch programType {
	case models.ProgramTypeGroup:
		return "👥"
	case models.ProgramTypeIntensive:
		return "🔥"
	case models.ProgramTypeOpenGroup:
		return "🎪"
	case models.ProgramTypeIndividual:
		return "👤"
	default:
		return "💃"
	}
}

func programsOfType(programs []*models.Program, programType string) []*models.Program {
	var out []*models.Program
	for _, p := range programs {
		if p.Type == programType {
			out = append(out, p)
		}
	}
	return out
}

func (b *Bot) showPrograms(ctx context.Context, chatID int64) {
	programs, err := b.store.GetActivePrograms(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to load programs")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	if len(programs) == 0 {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("💬 Написать Ане", b.teacherURL()),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", "nav_start"),
			),
		)
		b.sendWithKeyboard(chatID, "📭 Сейчас нет активных занятий.\n\nСледи за обновлениями 💛", keyboard)
		return
	}

	var sb strings.Builder
	sb.WriteString("💃 <b>Запись открыта!</b>\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	n := 0
	for _, programType := range programTypeOrder {
		group := programsOfType(programs, programType)
		if len(group) == 0 {
			continue
		}
		sb.WriteString(typeHeader(programType) + "\n\n")
		for _, p := range group {
			n++
			fmt.Fprintf(&sb, "%d. <b>%s</b>\n", n, format.EscapeHTML(p.Title))
			fmt.Fprintf(&sb, "   📅 %s\n", p.StartDate.Format("02.01.2006"))
			if p.Type != models.ProgramTypeIndividual {
				fmt.Fprintf(&sb, "   👥 %d мест\n", p.FreeSpots())
			}
			if p.Type == models.ProgramTypeOpenGroup && p.HasSinglePrice() {
				fmt.Fprintf(&sb, "   💰 <b>%d занятия:</b> %s\n", models.PassSessionCount, format.Currency(p.Price))
				fmt.Fprintf(&sb, "   💳 <b>Разовое:</b> %s\n", format.Currency(*p.SinglePrice))
			} else {
				fmt.Fprintf(&sb, "   💰 %s\n", format.Currency(p.Price))
			}
			sb.WriteString("\n")

			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("%s %s", typeEmoji(p.Type), truncate(p.Title, 25)),
					fmt.Sprintf("program_%d", p.ID),
				),
			))
		}
		sb.WriteString("──────────────\n\n")
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonURL("💬 Спросить Аню", b.teacherURL()),
		tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", "nav_start"),
	))

	b.sendWithKeyboard(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showProgramDetails(ctx context.Context, chatID int64, programID int64) {
	p, err := b.store.GetProgramByID(ctx, programID)
	if err != nil {
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Записаться", fmt.Sprintf("book_%d", p.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📍 Адрес студии", "nav_studio"),
			tgbotapi.NewInlineKeyboardButtonData("👗 Что взять", "nav_equipment"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Все программы", "nav_programs"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 В начало", "nav_start"),
		),
	)
	b.sendWithKeyboard(chatID, format.ProgramCard(p), keyboard)
}

func (b *Bot) showProgramsByType(ctx context.Context, chatID int64, programType string) {
	programs, err := b.store.GetProgramsByType(ctx, programType)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("type", programType).Msg("Failed to load programs")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	if len(programs) == 0 {
		b.sendText(chatID, "😔 Сейчас нет доступных программ в этой категории.")
		return
	}

	var sb strings.Builder
	sb.WriteString(typeHeader(programType) + "\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range programs {
		fmt.Fprintf(&sb, "• <b>%s</b> — %s\n", format.EscapeHTML(p.Title), format.Currency(p.Price))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %s", typeEmoji(p.Type), truncate(p.Title, 25)),
				fmt.Sprintf("program_%d", p.ID),
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", "nav_start"),
	))
	b.sendWithKeyboard(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
