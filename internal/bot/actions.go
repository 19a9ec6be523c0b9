package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// actionKind закрытый перечень действий inline-кнопок.
type actionKind int

const (
	actionUnknown actionKind = iota

	// Администратор: работа с заявками.
	actionAdminConfirm
	actionAdminReject
	actionAdminCall
	actionAdminDelete

	// Администратор: разделы панели.
	actionAdminPanel
	actionAdminApplications
	actionAdminBookings
	actionAdminStats
	actionAdminCelebrate
	actionAdminActivities
	actionAdminListPrograms
	actionAdminDeleteMenu
	actionAdminBroadcast
	actionAdminMySchedule
	actionAdminExport
	actionAdminAddProgram

	// Рассылка.
	actionBroadcastProgram
	actionBroadcastAll
	actionBroadcastActive
	actionBroadcastConfirm
	actionBroadcastCancel

	// Мастер создания программы: сырые коллбэки шага.
	actionWizard

	// Запись на занятие.
	actionBook
	actionBookingConfirm
	actionBookingCancel
	actionPayment
	actionNotesSkip
	actionSingleDate
	actionToggleFull
	actionFullDone
	actionOptionFull
	actionOptionSingle

	// Навигация и карточки программ.
	actionNav
	actionProgram
	actionProgramType
	actionShowPhone
)

// action разобранное действие коллбэка с полезной нагрузкой.
type action struct {
	kind actionKind
	id   int64
	arg  string
	raw  string
}

// wizardPrefixes коллбэки, целиком принадлежащие мастеру программ.
var wizardPrefixes = []string{
	"add_", "day_", "time_", "duration_", "schedule_",
	"intensive_days_", "int_time_", "ind_", "group_link_skip",
}

// parseAction разбирает callback data, проверяя более специфичные
// префиксы раньше общих.
func parseAction(data string) action {
	a := action{raw: data}

	withID := func(kind actionKind, prefix string) bool {
		if !strings.HasPrefix(data, prefix) {
			return false
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
		if err != nil {
			return false
		}
		a.kind = kind
		a.id = id
		return true
	}

	switch {
	case withID(actionAdminConfirm, "admin_confirm_"):
	case withID(actionAdminReject, "admin_reject_"):
	case withID(actionAdminCall, "admin_call_"):
	case withID(actionAdminDelete, "admin_delete_"):
	case withID(actionBroadcastProgram, "broadcast_program_"):
	case withID(actionSingleDate, "single_date_"):
	case withID(actionToggleFull, "toggle_full_"):
	case withID(actionOptionFull, "option_full_"):
	case withID(actionOptionSingle, "option_single_"):
	case withID(actionBook, "book_"):
	case data == "broadcast_all":
		a.kind = actionBroadcastAll
	case data == "broadcast_active":
		a.kind = actionBroadcastActive
	case data == "broadcast_confirm":
		a.kind = actionBroadcastConfirm
	case data == "broadcast_cancel":
		a.kind = actionBroadcastCancel
	case data == "booking_confirm":
		a.kind = actionBookingConfirm
	case data == "booking_cancel":
		a.kind = actionBookingCancel
	case data == "notes_skip":
		a.kind = actionNotesSkip
	case data == "full_done":
		a.kind = actionFullDone
	case strings.HasPrefix(data, "payment_"):
		a.kind = actionPayment
		a.arg = strings.TrimPrefix(data, "payment_")
	case data == "show_phone_number":
		a.kind = actionShowPhone
	case data == "admin_panel":
		a.kind = actionAdminPanel
	case data == "admin_applications":
		a.kind = actionAdminApplications
	case data == "admin_bookings":
		a.kind = actionAdminBookings
	case data == "admin_stats":
		a.kind = actionAdminStats
	case data == "admin_celebrate":
		a.kind = actionAdminCelebrate
	case data == "admin_activities":
		a.kind = actionAdminActivities
	case data == "admin_list_programs":
		a.kind = actionAdminListPrograms
	case data == "admin_delete_program":
		a.kind = actionAdminDeleteMenu
	case data == "admin_broadcast":
		a.kind = actionAdminBroadcast
	case data == "admin_my_schedule":
		a.kind = actionAdminMySchedule
	case data == "admin_export":
		a.kind = actionAdminExport
	case data == "admin_add_program":
		a.kind = actionAdminAddProgram
	case hasAnyPrefix(data, wizardPrefixes):
		a.kind = actionWizard
	case strings.HasPrefix(data, "nav_"):
		a.kind = actionNav
		a.arg = strings.TrimPrefix(data, "nav_")
	case strings.HasPrefix(data, "program_"):
		rest := strings.TrimPrefix(data, "program_")
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil {
			a.kind = actionProgram
			a.id = id
		} else {
			a.kind = actionProgramType
			a.arg = rest
		}
	}

	return a
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// adminOnly сообщает, требует ли действие прав администратора.
func (a action) adminOnly() bool {
	switch a.kind {
	case actionAdminConfirm, actionAdminReject, actionAdminCall, actionAdminDelete,
		actionAdminPanel, actionAdminApplications, actionAdminBookings, actionAdminStats,
		actionAdminCelebrate, actionAdminActivities, actionAdminListPrograms,
		actionAdminDeleteMenu, actionAdminBroadcast, actionAdminMySchedule,
		actionAdminExport, actionAdminAddProgram,
		actionBroadcastProgram, actionBroadcastAll, actionBroadcastActive,
		actionBroadcastConfirm, actionBroadcastCancel,
		actionWizard:
		return true
	}
	return false
}

func (b *Bot) handleCallbackQuery(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	userID := cb.From.ID

	// Сначала подтверждаем коллбэк, чтобы убрать "часики" у кнопки.
	if err := b.tgService.AnswerCallback(cb.ID, ""); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to answer callback")
	}

	a := parseAction(cb.Data)

	if a.adminOnly() && !b.isAdmin(userID) {
		b.sendText(chatID, "⛔ Нет доступа к админ-панели")
		return
	}

	switch a.kind {
	case actionAdminConfirm:
		b.adminConfirmPayment(ctx, chatID, userID, a.id)
	case actionAdminReject:
		b.adminRejectApplication(ctx, chatID, userID, a.id)
	case actionAdminCall:
		b.showApplicantContact(ctx, chatID, a.id)
	case actionAdminDelete:
		b.deleteProgram(ctx, chatID, a.id)

	case actionAdminPanel:
		b.showAdminPanel(chatID)
	case actionAdminApplications:
		b.showApplications(ctx, chatID)
	case actionAdminBookings:
		b.showBookings(ctx, chatID)
	case actionAdminStats:
		b.showStats(ctx, chatID)
	case actionAdminCelebrate:
		b.sendCelebration(chatID)
	case actionAdminActivities:
		b.showActivitiesMenu(chatID)
	case actionAdminListPrograms:
		b.listPrograms(ctx, chatID)
	case actionAdminDeleteMenu:
		b.deleteProgramMenu(ctx, chatID)
	case actionAdminBroadcast:
		b.startBroadcast(ctx, chatID)
	case actionAdminMySchedule:
		b.showMySchedule(ctx, chatID)
	case actionAdminExport:
		b.exportApplications(ctx, chatID)
	case actionAdminAddProgram:
		b.startWizard(chatID)

	case actionBroadcastProgram:
		b.selectBroadcastSegment(ctx, chatID, "program_"+strconv.FormatInt(a.id, 10))
	case actionBroadcastAll:
		b.selectBroadcastSegment(ctx, chatID, "all")
	case actionBroadcastActive:
		b.selectBroadcastSegment(ctx, chatID, "active")
	case actionBroadcastConfirm:
		b.confirmBroadcast(ctx, chatID)
	case actionBroadcastCancel:
		b.cancelBroadcast(chatID)

	case actionWizard:
		b.handleWizardCallback(ctx, cb, a.raw)

	case actionBook:
		b.startBooking(ctx, chatID, userID, cb.From, a.id)
	case actionBookingConfirm:
		b.confirmBooking(ctx, chatID, cb.From)
	case actionBookingCancel:
		b.cancelBooking(chatID)
	case actionPayment:
		b.handlePaymentMethod(ctx, chatID, a.arg)
	case actionNotesSkip:
		b.handleNotes(ctx, chatID, "нет")
	case actionSingleDate:
		b.selectSingleLessonDate(ctx, chatID, a.id)
	case actionToggleFull:
		b.toggleFullSession(ctx, cb, a.id)
	case actionFullDone:
		b.finishFullBooking(ctx, chatID)
	case actionOptionFull:
		b.selectOpenGroupOption(ctx, chatID, a.id, "full")
	case actionOptionSingle:
		b.selectOpenGroupOption(ctx, chatID, a.id, "single")

	case actionNav:
		b.handleNav(ctx, chatID, cb.From, a.arg)
	case actionProgram:
		b.showProgramDetails(ctx, chatID, a.id)
	case actionProgramType:
		b.showProgramsByType(ctx, chatID, a.arg)
	case actionShowPhone:
		b.sendHTML(chatID, "📞 <b>Телефон Анны:</b>\n"+b.config.Teacher.Phone)

	default:
		zerolog.Ctx(ctx).Warn().Str("data", cb.Data).Msg("Unknown callback action")
	}
}
