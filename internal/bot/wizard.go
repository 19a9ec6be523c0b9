package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pirouette/internal/events"
	"pirouette/internal/format"
	"pirouette/internal/models"
	"pirouette/internal/schedule"
	"pirouette/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// dayCodes сопоставляет суффикс коллбэка дню недели.
var dayCodes = []struct {
	Code  string
	Label string
}{
	{"mon", "Пн"}, {"tue", "Вт"}, {"wed", "Ср"},
	{"thu", "Чт"}, {"fri", "Пт"}, {"sat", "Сб"}, {"sun", "Вс"},
}

func dayLabel(code string) (string, bool) {
	for _, d := range dayCodes {
		if d.Code == code {
			return d.Label, true
		}
	}
	return "", false
}

// intensiveTimeCodes варианты времени для кнопок int_time_*.
var intensiveTimeCodes = map[string]string{
	"18": "18:00", "19": "19:00", "1930": "19:30",
	"20": "20:00", "2030": "20:30", "21": "21:00", "2130": "21:30",
}

func wizardCancelRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "add_cancel"),
	)
}

func wizardCancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(wizardCancelRow())
}

// startWizard начинает мастер создания программы с чистого черновика.
func (b *Bot) startWizard(chatID int64) {
	b.sessions.ClearDraft(chatID)
	b.sessions.SetDraft(&session.ProgramDraft{ChatID: chatID, Step: session.DraftStepType})

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Группа", "add_type_group"),
			tgbotapi.NewInlineKeyboardButtonData("🔥 Интенсив", "add_type_intensive"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎪 Открытая группа", "add_type_open_group"),
			tgbotapi.NewInlineKeyboardButtonData("👠 Индивидуальные", "add_type_individual"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "add_cancel"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 В админку", "admin_panel"),
		),
	)
	b.sendWithKeyboard(chatID, "➕ <b>Добавим новое занятие!</b>\nВыбери формат:", keyboard)
}

// handleWizardCallback обрабатывает все кнопки мастера. Неизвестные
// данные внутри зоны мастера просто логируются.
func (b *Bot) handleWizardCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data string) {
	chatID := cb.Message.Chat.ID

	if data == "add_cancel" {
		b.cancelWizard(chatID)
		return
	}

	draft, ok := b.sessions.Draft(chatID)
	if !ok {
		b.sendWizardLost(chatID)
		return
	}

	switch {
	case data == "add_confirm":
		b.confirmWizard(ctx, chatID)

	case strings.HasPrefix(data, "add_type_"):
		b.setWizardType(chatID, draft, strings.TrimPrefix(data, "add_type_"))

	case data == "add_date_manual":
		draft.Step = session.DraftStepStartDate
		b.sessions.SetDraft(draft)
		b.sendWithKeyboard(chatID, "✍️ Введите дату: <b>дд.мм.гг</b>\nНапример: 03.03.26", wizardCancelKeyboard())

	case data == "duration_60" || data == "duration_90":
		minutes := int64(60)
		if data == "duration_90" {
			minutes = 90
		}
		b.setWizardDuration(chatID, draft, minutes)

	case data == "intensive_days_manual":
		draft.Step = session.DraftStepIntensiveDays
		b.sessions.SetDraft(draft)
		b.sendWithKeyboard(chatID, "✍️ Введите количество дней (1-30):", wizardCancelKeyboard())

	case strings.HasPrefix(data, "intensive_days_"):
		n, err := strconv.Atoi(strings.TrimPrefix(data, "intensive_days_"))
		if err != nil || n < 1 || n > 30 {
			b.sendText(chatID, "❌ Введите корректное число (1-30).")
			return
		}
		b.setIntensiveDays(chatID, draft, n)

	case strings.HasPrefix(data, "day_"):
		label, ok := dayLabel(strings.TrimPrefix(data, "day_"))
		if !ok {
			zerolog.Ctx(ctx).Warn().Str("data", data).Msg("Unknown wizard day")
			return
		}
		b.askTimeForDay(chatID, draft, label)

	case data == "time_manual":
		draft.Step = session.DraftStepScheduleTimeText
		b.sessions.SetDraft(draft)
		b.sendWithKeyboard(chatID, "✍️ Введите время (например 19:30):", wizardCancelKeyboard())

	case strings.HasPrefix(data, "time_"):
		b.setScheduleTime(chatID, draft, strings.TrimPrefix(data, "time_")+":00")

	case data == "schedule_add_more":
		b.askScheduleDay(chatID, draft)

	case data == "schedule_done":
		b.finishSchedule(chatID, draft)

	case data == "int_time_manual":
		b.sendWithKeyboard(chatID, "✍️ Введите время (например 19:30):", wizardCancelKeyboard())

	case strings.HasPrefix(data, "int_time_"):
		t, ok := intensiveTimeCodes[strings.TrimPrefix(data, "int_time_")]
		if !ok {
			zerolog.Ctx(ctx).Warn().Str("data", data).Msg("Unknown intensive time")
			return
		}
		b.saveIntensiveTime(chatID, draft, t)

	case data == "ind_days_done":
		b.finishIndividualDays(chatID, draft)

	case strings.HasPrefix(data, "ind_day_"):
		label, ok := dayLabel(strings.TrimPrefix(data, "ind_day_"))
		if !ok {
			zerolog.Ctx(ctx).Warn().Str("data", data).Msg("Unknown wizard day")
			return
		}
		b.toggleIndividualDay(chatID, draft, label)

	case data == "ind_time_manual":
		b.sendWithKeyboard(chatID, "✍️ Введите время (например 19:00):", wizardCancelKeyboard())

	case strings.HasPrefix(data, "ind_time_"):
		t, ok := intensiveTimeCodes[strings.TrimPrefix(data, "ind_time_")]
		if !ok {
			zerolog.Ctx(ctx).Warn().Str("data", data).Msg("Unknown individual time")
			return
		}
		b.saveIndividualTime(chatID, draft, t)

	case data == "group_link_skip":
		draft.GroupLink = ""
		draft.Step = session.DraftStepConfirm
		b.sessions.SetDraft(draft)
		b.showWizardPreview(chatID, draft)

	default:
		zerolog.Ctx(ctx).Warn().Str("data", data).Msg("Unknown wizard callback")
	}
}

// handleWizardText свободный текст на шагах мастера. Возвращает true,
// если текст относился к мастеру.
func (b *Bot) handleWizardText(ctx context.Context, chatID int64, text string) bool {
	draft, ok := b.sessions.Draft(chatID)
	if !ok {
		return false
	}
	text = strings.TrimSpace(text)

	switch draft.Step {
	case session.DraftStepTitle:
		draft.Title = text
		draft.Step = session.DraftStepDescription
		b.sessions.SetDraft(draft)
		prompt := "📝 Добавь описание занятия:"
		if draft.Type == models.ProgramTypeIntensive {
			prompt = "📝 Добавь описание интенсива:"
		}
		b.sendWithKeyboard(chatID, prompt, wizardCancelKeyboard())

	case session.DraftStepDescription:
		draft.Description = text
		draft.Step = session.DraftStepStartDate
		b.sessions.SetDraft(draft)
		b.askStartDate(chatID)

	case session.DraftStepStartDate:
		b.setStartDate(chatID, draft, text)

	case session.DraftStepScheduleTimeText:
		if !schedule.TimeRe.MatchString(text) {
			b.sendText(chatID, "❌ Неправильный формат времени. Пример: 19:00 или 09:30")
			return true
		}
		b.setScheduleTime(chatID, draft, text)

	case session.DraftStepIntensiveDays:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > 30 {
			b.sendText(chatID, "❌ Введите корректное число (1-30).")
			return true
		}
		b.setIntensiveDays(chatID, draft, n)

	case session.DraftStepIntensiveTime:
		b.saveIntensiveTime(chatID, draft, text)

	case session.DraftStepIndividualTime:
		b.saveIndividualTime(chatID, draft, text)

	case session.DraftStepPrice:
		price, err := strconv.ParseInt(text, 10, 64)
		if err != nil || price <= 0 {
			b.sendText(chatID, "❌ Цена должна быть положительным числом.")
			return true
		}
		b.setWizardPrice(chatID, draft, price)

	case session.DraftStepSinglePrice:
		price, err := strconv.ParseInt(text, 10, 64)
		if err != nil || price <= 0 {
			b.sendText(chatID, "❌ Введите положительное число.")
			return true
		}
		draft.SinglePrice = price
		draft.Step = session.DraftStepMaxParticipants
		b.sessions.SetDraft(draft)
		b.sendWithKeyboard(chatID, "👥 Максимум участников?", wizardCancelKeyboard())

	case session.DraftStepMaxParticipants:
		max, err := strconv.ParseInt(text, 10, 64)
		if err != nil || max <= 0 {
			b.sendText(chatID, "❌ Введите положительное число.")
			return true
		}
		draft.MaxParticipants = max
		if draft.Type == models.ProgramTypeIndividual {
			draft.Step = session.DraftStepConfirm
			b.sessions.SetDraft(draft)
			b.showWizardPreview(chatID, draft)
			return true
		}
		draft.Step = session.DraftStepGroupLink
		b.sessions.SetDraft(draft)
		b.askGroupLink(chatID)

	case session.DraftStepGroupLink:
		if text != "-" && !strings.HasPrefix(text, "http") {
			b.sendText(chatID, "❌ Ссылка должна начинаться с http:// или https://. Отправь '-' чтобы пропустить.")
			return true
		}
		if text != "-" {
			draft.GroupLink = text
		}
		draft.Step = session.DraftStepConfirm
		b.sessions.SetDraft(draft)
		b.showWizardPreview(chatID, draft)

	default:
		return false
	}
	return true
}

func (b *Bot) setWizardType(chatID int64, draft *session.ProgramDraft, programType string) {
	draft.Type = programType

	switch programType {
	case models.ProgramTypeIntensive, models.ProgramTypeIndividual:
		draft.Step = session.DraftStepDurationChoice
		b.sessions.SetDraft(draft)
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("1 час", "duration_60"),
				tgbotapi.NewInlineKeyboardButtonData("1,5 часа", "duration_90"),
			),
			wizardCancelRow(),
		)
		b.sendWithKeyboard(chatID, "⏱ Сколько будет длиться занятие?", keyboard)
	default:
		draft.Step = session.DraftStepTitle
		b.sessions.SetDraft(draft)
		b.sendWithKeyboard(chatID, "✏️ Напиши название занятия:", wizardCancelKeyboard())
	}
}

func (b *Bot) setWizardDuration(chatID int64, draft *session.ProgramDraft, minutes int64) {
	// На шаге конструктора расписания та же кнопка задаёт длительность
	// для конкретного дня недели.
	if draft.Step == session.DraftStepWaitingDuration {
		b.addScheduleEntry(chatID, draft, draft.TempTime, minutes)
		return
	}

	draft.DurationMinutes = minutes
	b.sessions.SetDraft(draft)
	b.sendText(chatID, "✅ Длительность установлена: "+durationText(minutes))

	switch draft.Type {
	case models.ProgramTypeIntensive:
		b.askIntensiveDays(chatID, draft)
	case models.ProgramTypeIndividual:
		b.askIndividualDays(chatID, draft)
	default:
		draft.Step = session.DraftStepTitle
		b.sessions.SetDraft(draft)
		b.sendWithKeyboard(chatID, "✏️ Напиши название занятия:", wizardCancelKeyboard())
	}
}

func (b *Bot) askIntensiveDays(chatID int64, draft *session.ProgramDraft) {
	draft.Step = session.DraftStepIntensiveDays
	b.sessions.SetDraft(draft)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("2 дня", "intensive_days_2"),
			tgbotapi.NewInlineKeyboardButtonData("3 дня", "intensive_days_3"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("4 дня", "intensive_days_4"),
			tgbotapi.NewInlineKeyboardButtonData("5 дней", "intensive_days_5"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("6 дней", "intensive_days_6"),
			tgbotapi.NewInlineKeyboardButtonData("7 дней", "intensive_days_7"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Ввести вручную", "intensive_days_manual"),
		),
		wizardCancelRow(),
	)
	b.sendWithKeyboard(chatID, "🔥 Сколько дней длится интенсив?", keyboard)
}

func (b *Bot) setIntensiveDays(chatID int64, draft *session.ProgramDraft, days int) {
	draft.IntensiveDays = days
	if draft.DurationMinutes == 0 {
		draft.DurationMinutes = models.DefaultDurationMinutes
	}
	draft.Step = session.DraftStepTitle
	b.sessions.SetDraft(draft)
	b.sendWithKeyboard(chatID, "✏️ Напиши название интенсива:", wizardCancelKeyboard())
}

func (b *Bot) askStartDate(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Ввести вручную", "add_date_manual"),
		),
		wizardCancelRow(),
	)
	b.sendWithKeyboard(chatID, "📅 Выбери дату старта.\n\nМожно сразу написать в формате <b>дд.мм.гг</b>, например 03.03.26", keyboard)
}

func (b *Bot) setStartDate(chatID int64, draft *session.ProgramDraft, text string) {
	start, err := schedule.ParseShortDate(text)
	if err != nil {
		b.sendText(chatID, "❌ Формат даты неверный.\nПример: 03.03.26")
		return
	}
	draft.StartDate = text

	if draft.Type == models.ProgramTypeIntensive {
		if draft.IntensiveDays == 0 {
			b.sendText(chatID, "❌ Сначала выбери сколько дней длится интенсив")
			return
		}
		end := start.AddDate(0, 0, draft.IntensiveDays-1)
		draft.EndDate = end.Format("02.01.06")
		draft.IntensiveTimes = nil
		draft.IntensiveCursor = 0
		draft.Step = session.DraftStepIntensiveTime
		b.sessions.SetDraft(draft)

		b.sendHTML(chatID, fmt.Sprintf(
			"📅 <b>Интенсив на %d дней:</b>\n• Начало: %s\n• Окончание: %s\n\n⏰ Теперь укажи время для каждого дня:",
			draft.IntensiveDays, schedule.FormatDate(start), schedule.FormatDate(end)))
		b.askIntensiveTime(chatID, draft)
		return
	}

	draft.Step = session.DraftStepScheduleBuilder
	draft.ScheduleDraft = nil
	draft.ScheduleDetails = nil
	b.sessions.SetDraft(draft)
	b.askScheduleDay(chatID, draft)
}

func (b *Bot) askScheduleDay(chatID int64, draft *session.ProgramDraft) {
	draft.Step = session.DraftStepScheduleBuilder
	b.sessions.SetDraft(draft)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Пн", "day_mon"),
			tgbotapi.NewInlineKeyboardButtonData("Вт", "day_tue"),
			tgbotapi.NewInlineKeyboardButtonData("Ср", "day_wed"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Чт", "day_thu"),
			tgbotapi.NewInlineKeyboardButtonData("Пт", "day_fri"),
			tgbotapi.NewInlineKeyboardButtonData("Сб", "day_sat"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Вс", "day_sun"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Завершить расписание", "schedule_done"),
		),
		wizardCancelRow(),
	)
	b.sendWithKeyboard(chatID, "🗓 Выбери день недели:", keyboard)
}

func (b *Bot) askTimeForDay(chatID int64, draft *session.ProgramDraft, day string) {
	draft.TempDay = day
	b.sessions.SetDraft(draft)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("18:00", "time_18"),
			tgbotapi.NewInlineKeyboardButtonData("19:00", "time_19"),
			tgbotapi.NewInlineKeyboardButtonData("20:00", "time_20"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Другое", "time_manual"),
		),
		wizardCancelRow(),
	)
	b.sendWithKeyboard(chatID, fmt.Sprintf("⏰ Время для <b>%s</b>:", day), keyboard)
}

// setScheduleTime время выбрано, осталось уточнить длительность дня.
func (b *Bot) setScheduleTime(chatID int64, draft *session.ProgramDraft, t string) {
	draft.TempTime = t
	draft.Step = session.DraftStepWaitingDuration
	b.sessions.SetDraft(draft)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("1 час (60 мин)", "duration_60"),
			tgbotapi.NewInlineKeyboardButtonData("1,5 часа (90 мин)", "duration_90"),
		),
		wizardCancelRow(),
	)
	b.sendWithKeyboard(chatID, "🕘 Выбери длительность занятия для этого дня:", keyboard)
}

func (b *Bot) addScheduleEntry(chatID int64, draft *session.ProgramDraft, t string, minutes int64) {
	entry := fmt.Sprintf("%s %s (%d мин)", draft.TempDay, schedule.AddDuration(t, minutes), minutes)
	draft.ScheduleDraft = append(draft.ScheduleDraft, entry)
	draft.ScheduleDetails = append(draft.ScheduleDetails, schedule.Entry{
		Day:             draft.TempDay,
		Time:            t,
		DurationMinutes: minutes,
	})
	draft.TempTime = ""
	draft.Step = session.DraftStepScheduleBuilder
	b.sessions.SetDraft(draft)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить день", "schedule_add_more"),
			tgbotapi.NewInlineKeyboardButtonData("✅ Готово", "schedule_done"),
		),
	)
	b.sendWithKeyboard(chatID, fmt.Sprintf("✅ Добавлено: <b>%s</b>\nДобавим ещё?", format.EscapeHTML(entry)), keyboard)
}

func (b *Bot) finishSchedule(chatID int64, draft *session.ProgramDraft) {
	if len(draft.ScheduleDraft) == 0 {
		b.sendText(chatID, "⚠️ Добавь хотя бы один день.")
		return
	}
	draft.Schedule = strings.Join(draft.ScheduleDraft, ", ")
	draft.Step = session.DraftStepPrice
	b.sessions.SetDraft(draft)
	b.sendWithKeyboard(chatID, "💰 Введи цену курса (например 6000):", wizardCancelKeyboard())
}

func (b *Bot) askIndividualDays(chatID int64, draft *session.ProgramDraft) {
	draft.Step = session.DraftStepIndividualDays
	b.sessions.SetDraft(draft)

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(dayCodes); i += 3 {
		var row []tgbotapi.InlineKeyboardButton
		for j := i; j < i+3 && j < len(dayCodes); j++ {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(dayCodes[j].Label, "ind_day_"+dayCodes[j].Code))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Выбрано", "ind_days_done"),
	))
	rows = append(rows, wizardCancelRow())

	b.sendWithKeyboard(chatID,
		"🗓 <b>Выбери дни недели, когда доступны индивидуальные занятия:</b>\n\nМожно выбрать несколько дней",
		tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) toggleIndividualDay(chatID int64, draft *session.ProgramDraft, day string) {
	removed := false
	for i, d := range draft.IndividualDays {
		if d == day {
			draft.IndividualDays = append(draft.IndividualDays[:i], draft.IndividualDays[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		draft.IndividualDays = append(draft.IndividualDays, day)
	}
	b.sessions.SetDraft(draft)

	if removed {
		b.sendHTML(chatID, fmt.Sprintf("❌ <b>%s</b> удалён из расписания", day))
	} else {
		b.sendHTML(chatID, fmt.Sprintf("✅ <b>%s</b> добавлен в расписание", day))
	}

	list := "пока ничего"
	if len(draft.IndividualDays) > 0 {
		list = strings.Join(draft.IndividualDays, ", ")
	}
	b.sendHTML(chatID, fmt.Sprintf(
		"📋 <b>Выбранные дни:</b> %s\n\nПродолжайте выбирать дни или нажмите \"✅ Выбрано\"", list))
	b.askIndividualDays(chatID, draft)
}

func (b *Bot) finishIndividualDays(chatID int64, draft *session.ProgramDraft) {
	if len(draft.IndividualDays) == 0 {
		b.sendText(chatID, "❌ Нужно выбрать хотя бы один день")
		b.askIndividualDays(chatID, draft)
		return
	}
	draft.Step = session.DraftStepIndividualTime
	draft.IndividualCursor = 0
	draft.ScheduleDraft = nil
	b.sessions.SetDraft(draft)
	b.askIndividualTime(chatID, draft)
}

func (b *Bot) askIndividualTime(chatID int64, draft *session.ProgramDraft) {
	day := draft.IndividualDays[draft.IndividualCursor]
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("18:00", "ind_time_18"),
			tgbotapi.NewInlineKeyboardButtonData("19:00", "ind_time_19"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("20:00", "ind_time_20"),
			tgbotapi.NewInlineKeyboardButtonData("21:00", "ind_time_21"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Ввести вручную", "ind_time_manual"),
		),
		wizardCancelRow(),
	)
	b.sendWithKeyboard(chatID, fmt.Sprintf(
		"⏰ <b>Укажи время для %s:</b>\n\nПример: 19:00 или 20:30\nЭто время начала индивидуального занятия", day), keyboard)
}

func (b *Bot) saveIndividualTime(chatID int64, draft *session.ProgramDraft, t string) {
	if !schedule.TimeRe.MatchString(t) {
		b.sendText(chatID, "❌ Неправильный формат времени. Пример: 19:00 или 09:30")
		return
	}

	day := draft.IndividualDays[draft.IndividualCursor]
	duration := draft.DurationMinutes
	if duration == 0 {
		duration = models.DefaultDurationMinutes
	}
	entry := fmt.Sprintf("%s %s", day, schedule.AddDuration(t, duration))
	draft.ScheduleDraft = append(draft.ScheduleDraft, entry)
	draft.IndividualCursor++
	b.sessions.SetDraft(draft)

	b.sendHTML(chatID, fmt.Sprintf("✅ Время для %s сохранено: <b>%s</b>", day, format.EscapeHTML(entry)))

	if draft.IndividualCursor < len(draft.IndividualDays) {
		b.askIndividualTime(chatID, draft)
		return
	}
	b.finishIndividualSchedule(chatID, draft)
}

func (b *Bot) finishIndividualSchedule(chatID int64, draft *session.ProgramDraft) {
	draft.Schedule = strings.Join(draft.ScheduleDraft, ", ")
	draft.Title = "Индивидуальное занятие с Аней"
	draft.Description = "🎯 Отличная возможность улучшить свои навыки!\n\n" +
		"• Персональный подход и внимание к деталям\n" +
		"• Работа над техникой и выразительностью\n" +
		"• Подбор материала по вашим целям\n" +
		"• Гибкое расписание и удобное время\n\n" +
		"Идеально подходит для тех, кто хочет:\n" +
		"• Быстро прогрессировать в танце\n" +
		"• Подготовиться к выступлению или конкурсу\n" +
		"• Проработать сложные элементы\n" +
		"• Получить индивидуальную обратную связь"
	draft.Step = session.DraftStepPrice
	b.sessions.SetDraft(draft)

	b.sendWithKeyboard(chatID, fmt.Sprintf(
		"📋 <b>Расписание создано:</b>\n%s\n\n💰 <b>Теперь установите цену за индивидуальное занятие:</b>",
		format.EscapeHTML(draft.Schedule)), wizardCancelKeyboard())
}

func (b *Bot) askIntensiveTime(chatID int64, draft *session.ProgramDraft) {
	start, err := schedule.ParseShortDate(draft.StartDate)
	if err != nil {
		b.sendText(chatID, "❌ Формат даты неверный.\nПример: 03.03.26")
		return
	}
	date := start.AddDate(0, 0, draft.IntensiveCursor)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("18:00", "int_time_18"),
			tgbotapi.NewInlineKeyboardButtonData("19:00", "int_time_19"),
			tgbotapi.NewInlineKeyboardButtonData("19:30", "int_time_1930"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("20:00", "int_time_20"),
			tgbotapi.NewInlineKeyboardButtonData("20:30", "int_time_2030"),
			tgbotapi.NewInlineKeyboardButtonData("21:00", "int_time_21"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("21:30", "int_time_2130"),
			tgbotapi.NewInlineKeyboardButtonData("✍️ Ввести вручную", "int_time_manual"),
		),
		wizardCancelRow(),
	)
	b.sendWithKeyboard(chatID, fmt.Sprintf(
		"⏰ <b>День %d из %d</b>\n📅 Дата: %s (%s)\nВыберите время начала занятия:",
		draft.IntensiveCursor+1, draft.IntensiveDays,
		schedule.FormatDate(date), schedule.WeekdayShort(date)), keyboard)
}

func (b *Bot) saveIntensiveTime(chatID int64, draft *session.ProgramDraft, t string) {
	if !schedule.TimeRe.MatchString(t) {
		b.sendText(chatID, "❌ Неправильный формат времени. Пример: 19:00 или 09:30")
		return
	}
	start, err := schedule.ParseShortDate(draft.StartDate)
	if err != nil {
		b.sendText(chatID, "❌ Сначала укажи дату старта интенсива.")
		return
	}

	date := start.AddDate(0, 0, draft.IntensiveCursor)
	draft.IntensiveTimes = append(draft.IntensiveTimes, t)
	draft.IntensiveCursor++
	b.sessions.SetDraft(draft)

	b.sendHTML(chatID, fmt.Sprintf("✅ День %d (%s) — время %s сохранено!",
		draft.IntensiveCursor, schedule.FormatDate(date), t))

	if draft.IntensiveCursor < draft.IntensiveDays {
		b.askIntensiveTime(chatID, draft)
		return
	}

	var lines []string
	var sb strings.Builder
	sb.WriteString("📆 <b>Расписание интенсива:</b>\n")
	for i, tm := range draft.IntensiveTimes {
		d := start.AddDate(0, 0, i)
		fmt.Fprintf(&sb, "• %s (%s) — <b>%s</b>\n", schedule.FormatDate(d), schedule.WeekdayShort(d), tm)
		lines = append(lines, fmt.Sprintf("%s %s", schedule.FormatDate(d), tm))
	}
	draft.Schedule = strings.Join(lines, ", ")
	draft.Step = session.DraftStepPrice
	b.sessions.SetDraft(draft)

	b.sendWithKeyboard(chatID, sb.String()+"\n💰 Теперь введи цену интенсива:", wizardCancelKeyboard())
}

func (b *Bot) setWizardPrice(chatID int64, draft *session.ProgramDraft, price int64) {
	draft.Price = price

	switch draft.Type {
	case models.ProgramTypeOpenGroup:
		draft.Step = session.DraftStepSinglePrice
		b.sessions.SetDraft(draft)
		b.sendWithKeyboard(chatID, "💳 Теперь введи цену разового занятия:", wizardCancelKeyboard())
	case models.ProgramTypeIndividual:
		draft.MaxParticipants = 1
		draft.SinglePrice = price
		draft.Step = session.DraftStepConfirm
		b.sessions.SetDraft(draft)
		b.showWizardPreview(chatID, draft)
	default:
		draft.Step = session.DraftStepMaxParticipants
		b.sessions.SetDraft(draft)
		b.sendWithKeyboard(chatID, "👥 Максимум участников?", wizardCancelKeyboard())
	}
}

func (b *Bot) askGroupLink(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏩ Пропустить", "group_link_skip"),
		),
		wizardCancelRow(),
	)
	b.sendWithKeyboard(chatID,
		"🔗 Введи ссылку на Telegram-группу для участников (например, https://t.me/joinchat/...)\nЕсли ссылки пока нет, отправь '-' чтобы пропустить.",
		keyboard)
}

func (b *Bot) showWizardPreview(chatID int64, draft *session.ProgramDraft) {
	var sb strings.Builder

	switch draft.Type {
	case models.ProgramTypeIndividual:
		sb.WriteString("👤 <b>ИНДИВИДУАЛЬНОЕ ЗАНЯТИЕ</b>\n\n")
		fmt.Fprintf(&sb, "💃 <b>%s</b>\n📌 %s\n\n", format.EscapeHTML(draft.Title), format.EscapeHTML(draft.Description))
		fmt.Fprintf(&sb, "📅 <b>Доступное время:</b>\n⏰ %s\n", format.EscapeHTML(draft.Schedule))
		fmt.Fprintf(&sb, "⏱ Длительность: <b>%s</b>\n\n", durationText(draft.DurationMinutes))
		fmt.Fprintf(&sb, "💰 Цена: <b>%s</b>\n", format.Currency(draft.Price))
		fmt.Fprintf(&sb, "👥 Места: <b>%d</b> (индивидуальное)\n\n", draft.MaxParticipants)
	case models.ProgramTypeIntensive:
		fmt.Fprintf(&sb, "🔥 <b>%s</b>\n📌 %s\n\n", format.EscapeHTML(draft.Title), format.EscapeHTML(draft.Description))
		fmt.Fprintf(&sb, "📅 Старт: <b>%s</b>\n", draft.StartDate)
		fmt.Fprintf(&sb, "📆 <b>Расписание интенсива:</b>\n%s\n", format.EscapeHTML(draft.Schedule))
		fmt.Fprintf(&sb, "⏱ Длительность: <b>%s</b>\n", durationText(draft.DurationMinutes))
		fmt.Fprintf(&sb, "💰 Цена: <b>%s</b>\n", format.Currency(draft.Price))
		fmt.Fprintf(&sb, "👥 Места: <b>%d</b>\n\n", draft.MaxParticipants)
	default:
		fmt.Fprintf(&sb, "💃 <b>%s</b>\n📌 %s\n\n", format.EscapeHTML(draft.Title), format.EscapeHTML(draft.Description))
		fmt.Fprintf(&sb, "📅 Старт: <b>%s</b>\n", draft.StartDate)
		fmt.Fprintf(&sb, "⏰ %s\n", format.EscapeHTML(draft.Schedule))
		fmt.Fprintf(&sb, "💰 Цена курса: <b>%s</b>\n", format.Currency(draft.Price))
		if draft.SinglePrice > 0 {
			fmt.Fprintf(&sb, "💳 Разовое: <b>%s</b>\n", format.Currency(draft.SinglePrice))
		}
		fmt.Fprintf(&sb, "👥 Места: <b>%d</b>\n\n", draft.MaxParticipants)
	}
	sb.WriteString("Создать занятие?")

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Создать", "add_confirm"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "add_cancel"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), keyboard)
}

// confirmWizard создаёт программу и даты занятий из черновика.
func (b *Bot) confirmWizard(ctx context.Context, chatID int64) {
	l := zerolog.Ctx(ctx)

	draft, ok := b.sessions.Draft(chatID)
	if !ok || draft.Type == "" || draft.Title == "" || draft.Price == 0 {
		b.sendWizardLost(chatID)
		return
	}

	start := timeNow()
	if draft.StartDate != "" {
		parsed, err := schedule.ParseShortDate(draft.StartDate)
		if err != nil {
			b.sendText(chatID, "❌ Формат даты неверный.\nПример: 03.03.26")
			return
		}
		start = parsed
	}

	duration := draft.DurationMinutes
	if duration == 0 {
		duration = models.DefaultDurationMinutes
	}

	p := &models.Program{
		Type:            draft.Type,
		Title:           draft.Title,
		Description:     draft.Description,
		StartDate:       start,
		Schedule:        draft.Schedule,
		MaxParticipants: draft.MaxParticipants,
		Price:           draft.Price,
		Status:          models.ProgramStatusActive,
		DurationMinutes: duration,
		GroupLink:       draft.GroupLink,
	}
	if draft.EndDate != "" {
		if end, err := schedule.ParseShortDate(draft.EndDate); err == nil {
			p.EndDate = &end
		}
	}
	// Разовая цена есть у открытых групп и индивидуальных занятий.
	if draft.SinglePrice > 0 {
		switch draft.Type {
		case models.ProgramTypeOpenGroup, models.ProgramTypeIndividual:
			sp := draft.SinglePrice
			p.SinglePrice = &sp
		}
	}

	if err := b.store.CreateProgram(ctx, p); err != nil {
		l.Error().Err(err).Str("title", draft.Title).Msg("Failed to create program")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	if err := b.createWizardSessions(ctx, p, draft, start); err != nil {
		l.Error().Err(err).Int64("program_id", p.ID).Msg("Failed to create program sessions")
	}

	if err := b.eventBus.PublishJSON(events.EventProgramCreated, p); err != nil {
		l.Warn().Err(err).Msg("Failed to publish program event")
	}

	b.sessions.ClearDraft(chatID)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить ещё", "admin_add_program"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 В админку", "admin_panel"),
		),
	)
	b.sendWithKeyboard(chatID, fmt.Sprintf("🎉 Занятие <b>%s</b> создано!", format.EscapeHTML(p.Title)), keyboard)
}

func (b *Bot) createWizardSessions(ctx context.Context, p *models.Program, draft *session.ProgramDraft, start time.Time) error {
	var rows []models.ProgramSession

	switch draft.Type {
	case models.ProgramTypeOpenGroup:
		var slots []schedule.Slot
		if len(draft.ScheduleDetails) > 0 {
			slots = schedule.GenerateDetailed(start, draft.ScheduleDetails, models.ScheduleWeeksForward)
		} else {
			slots = schedule.Generate(start, draft.Schedule, models.ScheduleWeeksForward)
		}
		for _, s := range slots {
			rows = append(rows, models.ProgramSession{
				ProgramID:       p.ID,
				Date:            s.Date,
				Time:            s.Time,
				DurationMinutes: s.DurationMinutes,
			})
		}
	case models.ProgramTypeIntensive:
		for i, t := range draft.IntensiveTimes {
			rows = append(rows, models.ProgramSession{
				ProgramID:       p.ID,
				Date:            start.AddDate(0, 0, i),
				Time:            t,
				DurationMinutes: p.DurationMinutes,
			})
		}
	default:
		// Группы живут по текстовому расписанию, индивидуальные
		// занятия согласуются лично.
		return nil
	}

	if len(rows) == 0 {
		return nil
	}
	return b.store.CreateProgramSessions(ctx, rows)
}

func (b *Bot) cancelWizard(chatID int64) {
	b.sessions.ClearDraft(chatID)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Создать заново", "admin_add_program"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 В админку", "admin_panel"),
		),
	)
	b.sendWithKeyboard(chatID, "❌ Создание отменено.", keyboard)
}

func (b *Bot) sendWizardLost(chatID int64) {
	b.sessions.ClearDraft(chatID)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Создать заново", "admin_add_program"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 В админку", "admin_panel"),
		),
	)
	b.sendWithKeyboard(chatID,
		"❌ Данные программы потеряны (возможно, бот перезагрузился). Пожалуйста, создайте занятие заново.",
		keyboard)
}
