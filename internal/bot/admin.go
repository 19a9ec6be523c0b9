package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"pirouette/internal/format"
	"pirouette/internal/models"
	"pirouette/internal/schedule"
	"pirouette/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func adminKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Заявки", "admin_applications"),
			tgbotapi.NewInlineKeyboardButtonData("👥 Записи", "admin_bookings"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💃 Активности", "admin_activities"),
			tgbotapi.NewInlineKeyboardButtonData("📅 Расписание", "admin_my_schedule"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", "admin_stats"),
			tgbotapi.NewInlineKeyboardButtonData("📢 Рассылка", "admin_broadcast"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 Экспорт", "admin_export"),
			tgbotapi.NewInlineKeyboardButtonData("🎉", "admin_celebrate"),
		),
	)
}

func (b *Bot) showAdminPanel(chatID int64) {
	b.sendWithKeyboard(chatID, "👑 <b>Админ-панель</b>\n\nВыберите раздел:", adminKeyboard())
}

// showApplications каждая ожидающая заявка отдельной карточкой с
// кнопками действий.
func (b *Bot) showApplications(ctx context.Context, chatID int64) {
	apps, err := b.store.GetPendingApplications(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to load pending applications")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	if len(apps) == 0 {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🏠 В админку", "admin_panel"),
			),
		)
		b.sendWithKeyboard(chatID, "✨ Новых заявок нет. Всё обработано!", keyboard)
		return
	}

	for _, a := range apps {
		var p *models.Program
		if loaded, err := b.store.GetProgramByID(ctx, a.ProgramID); err == nil {
			p = loaded
		}
		var sessions []*models.ProgramSession
		if a.IsSingleVisit() || a.IsPass() {
			sessions, _ = b.store.GetSessionsByProgram(ctx, a.ProgramID)
		}

		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Оплата получена", fmt.Sprintf("admin_confirm_%d", a.ID)),
				tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", fmt.Sprintf("admin_reject_%d", a.ID)),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📞 Контакт", fmt.Sprintf("admin_call_%d", a.ID)),
			),
		)
		b.sendWithKeyboard(chatID, format.ApplicationCard(a, p, sessions), keyboard)
	}
}

func (b *Bot) adminConfirmPayment(ctx context.Context, chatID int64, adminID int64, applicationID int64) {
	a, err := b.applications.ConfirmPayment(ctx, applicationID, adminID)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateBooking) {
			b.sendText(chatID, "⚠️ У пользователя уже есть подтверждённая запись на эту программу.")
			return
		}
		zerolog.Ctx(ctx).Error().Err(err).Int64("application_id", applicationID).Msg("Failed to confirm payment")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	b.sendHTML(chatID, fmt.Sprintf("✅ Оплата подтверждена для заявки #%d (%s)", a.ID, format.EscapeHTML(a.UserName)))
}

func (b *Bot) adminRejectApplication(ctx context.Context, chatID int64, adminID int64, applicationID int64) {
	a, err := b.applications.Reject(ctx, applicationID, adminID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("application_id", applicationID).Msg("Failed to reject application")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	b.sendHTML(chatID, fmt.Sprintf("❌ Заявка #%d отклонена. Пользователь получил уведомление.", a.ID))
}

func (b *Bot) showApplicantContact(ctx context.Context, chatID int64, applicationID int64) {
	a, err := b.store.GetApplicationByID(ctx, applicationID)
	if err != nil {
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	text := fmt.Sprintf("📞 <b>Контакт по заявке #%d</b>\n\n👤 %s\n📱 %s",
		a.ID, format.EscapeHTML(a.UserName), format.EscapeHTML(a.UserPhone))
	if a.UserID != nil {
		text += fmt.Sprintf("\n🆔 <code>%d</code>", *a.UserID)
	}
	b.sendHTML(chatID, text)
}

func (b *Bot) showBookings(ctx context.Context, chatID int64) {
	bookings, err := b.store.GetAllBookings(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to load bookings")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	if len(bookings) == 0 {
		b.sendText(chatID, "📭 Записей пока нет.")
		return
	}

	byProgram := make(map[int64][]*models.Booking)
	var order []int64
	for _, bk := range bookings {
		if bk.Status == models.BookingStatusCancelled {
			continue
		}
		if _, ok := byProgram[bk.ProgramID]; !ok {
			order = append(order, bk.ProgramID)
		}
		byProgram[bk.ProgramID] = append(byProgram[bk.ProgramID], bk)
	}

	var sb strings.Builder
	sb.WriteString("👥 <b>ЗАПИСИ ПО ПРОГРАММАМ</b>\n\n")
	for _, programID := range order {
		title := fmt.Sprintf("Программа #%d", programID)
		if p, err := b.store.GetProgramByID(ctx, programID); err == nil {
			title = p.Title
		}
		group := byProgram[programID]
		fmt.Fprintf(&sb, "💃 <b>%s</b> (%d)\n", format.EscapeHTML(title), len(group))
		for _, bk := range group {
			paid := "⏳"
			if bk.PaymentStatus == models.PaymentStatusPaid {
				paid = "💳"
			}
			fmt.Fprintf(&sb, "  %s %s — %s — %s\n",
				paid, format.EscapeHTML(bk.UserName), format.EscapeHTML(bk.UserPhone), format.Currency(bk.Amount))
		}
		sb.WriteString("\n")
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 В админку", "admin_panel"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), keyboard)
}

func (b *Bot) showStats(ctx context.Context, chatID int64) {
	l := zerolog.Ctx(ctx)

	appStats, err := b.store.GetApplicationStats(ctx)
	if err != nil {
		l.Error().Err(err).Msg("Failed to load application stats")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	bookingStats, err := b.store.GetBookingStats(ctx)
	if err != nil {
		l.Error().Err(err).Msg("Failed to load booking stats")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	typeStats, err := b.store.GetTypeStats(ctx)
	if err != nil {
		l.Error().Err(err).Msg("Failed to load type stats")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>СТАТИСТИКА СТУДИИ</b>\n\n")
	sb.WriteString("📋 <b>Заявки:</b>\n")
	fmt.Fprintf(&sb, "• Всего: %d\n", appStats.Total)
	fmt.Fprintf(&sb, "• ⏳ Ожидают: %d\n", appStats.Pending)
	fmt.Fprintf(&sb, "• ✅ Одобрены: %d\n", appStats.Approved)
	fmt.Fprintf(&sb, "• 💰 Оплачены: %d\n", appStats.Paid)
	fmt.Fprintf(&sb, "• ❌ Отклонены: %d\n\n", appStats.Rejected)

	sb.WriteString("👥 <b>Записи:</b>\n")
	fmt.Fprintf(&sb, "• Подтверждено: %d\n", bookingStats.Total)
	fmt.Fprintf(&sb, "• 💵 Сумма: %s\n\n", format.Currency(bookingStats.Amount))

	sb.WriteString("💃 <b>Активные программы:</b>\n")
	fmt.Fprintf(&sb, "• 👥 Группы: %d\n", typeStats.Group)
	fmt.Fprintf(&sb, "• 🔥 Интенсивы: %d\n", typeStats.Intensive)
	fmt.Fprintf(&sb, "• 🎪 Открытые (разовые): %d\n", typeStats.OpenSingle)
	fmt.Fprintf(&sb, "• 🎪 Открытые (абонемент): %d\n", typeStats.OpenFull)
	fmt.Fprintf(&sb, "• 👠 Индивидуальные: %d\n", typeStats.Individual)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 Экспорт в Excel", "admin_export"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 В админку", "admin_panel"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), keyboard)
}

var celebrations = []string{
	"🎉 Ты супер! Студия растёт благодаря тебе 💛",
	"💃 Отличная работа! Танцы меняют жизни!",
	"✨ Сегодня отличный день, чтобы гордиться собой!",
	"🔥 Ещё одна неделя — ещё больше счастливых учениц!",
}

func (b *Bot) sendCelebration(chatID int64) {
	b.sendText(chatID, celebrations[rand.Intn(len(celebrations))])
}

func (b *Bot) showActivitiesMenu(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить занятие", "admin_add_program"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Список занятий", "admin_list_programs"),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить занятие", "admin_delete_program"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 В админку", "admin_panel"),
		),
	)
	b.sendWithKeyboard(chatID, "💃 <b>Управление активностями</b>", keyboard)
}

func (b *Bot) listPrograms(ctx context.Context, chatID int64) {
	programs, err := b.store.GetActivePrograms(ctx)
	if err != nil {
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	if len(programs) == 0 {
		b.sendText(chatID, "📭 Активных занятий нет.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>АКТИВНЫЕ ЗАНЯТИЯ</b>\n\n")
	for _, p := range programs {
		fmt.Fprintf(&sb, "• #%d %s <b>%s</b>\n  📅 %s · 💰 %s · 👥 %d/%d\n\n",
			p.ID, typeEmoji(p.Type), format.EscapeHTML(p.Title),
			schedule.FormatDate(p.StartDate), format.Currency(p.Price),
			p.CurrentParticipants, p.MaxParticipants)
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💃 Активности", "admin_activities"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 В админку", "admin_panel"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), keyboard)
}

func (b *Bot) deleteProgramMenu(ctx context.Context, chatID int64) {
	programs, err := b.store.GetActivePrograms(ctx)
	if err != nil {
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	if len(programs) == 0 {
		b.sendText(chatID, "📭 Удалять нечего, активных занятий нет.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range programs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗑 %s", truncate(p.Title, 30)),
				fmt.Sprintf("admin_delete_%d", p.ID),
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 В админку", "admin_panel"),
	))
	b.sendWithKeyboard(chatID, "🗑 <b>Какое занятие удалить?</b>\n\nЗанятие скроется из записи, записи участников сохранятся.", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) deleteProgram(ctx context.Context, chatID int64, programID int64) {
	p, err := b.store.GetProgramByID(ctx, programID)
	if err != nil {
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	if err := b.store.SoftDeleteProgram(ctx, programID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("program_id", programID).Msg("Failed to delete program")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	b.sendHTML(chatID, fmt.Sprintf("🗑 Занятие <b>%s</b> удалено.", format.EscapeHTML(p.Title)))
}

// showMySchedule неделя занятий преподавателя. Прошедшие интенсивы
// перед показом помечаются завершёнными.
func (b *Bot) showMySchedule(ctx context.Context, chatID int64) {
	l := zerolog.Ctx(ctx)

	if n, err := b.store.CompletePastIntensives(ctx, timeNow()); err != nil {
		l.Error().Err(err).Msg("Failed to complete past intensives")
	} else if n > 0 {
		l.Info().Int64("count", n).Msg("Intensives marked completed")
	}

	programs, err := b.store.GetActivePrograms(ctx)
	if err != nil {
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	type scheduleItem struct {
		session *models.ProgramSession
		title   string
	}
	var items []scheduleItem
	weekEnd := timeNow().AddDate(0, 0, 7)
	for _, p := range programs {
		sessions, err := b.store.GetFutureSessions(ctx, p.ID, timeNow())
		if err != nil {
			l.Warn().Err(err).Int64("program_id", p.ID).Msg("Failed to load sessions")
			continue
		}
		for _, s := range sessions {
			if s.Date.After(weekEnd) {
				continue
			}
			items = append(items, scheduleItem{session: s, title: p.Title})
		}
	}

	if len(items) == 0 {
		b.sendText(chatID, "🗓 На ближайшую неделю занятий нет.")
		return
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].session.Date.Equal(items[j].session.Date) {
			return items[i].session.Date.Before(items[j].session.Date)
		}
		return items[i].session.Time < items[j].session.Time
	})

	var sb strings.Builder
	sb.WriteString("📅 <b>МОЁ РАСПИСАНИЕ НА НЕДЕЛЮ</b>\n\n")
	var lastDay time.Time
	for _, it := range items {
		if !it.session.Date.Equal(lastDay) {
			fmt.Fprintf(&sb, "<b>%s (%s)</b>\n",
				schedule.FormatDate(it.session.Date), schedule.WeekdayShort(it.session.Date))
			lastDay = it.session.Date
		}
		fmt.Fprintf(&sb, "• %s — %s\n", it.session.Time, format.EscapeHTML(it.title))
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 В админку", "admin_panel"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), keyboard)
}
