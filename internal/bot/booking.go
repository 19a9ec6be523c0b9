package bot

import (
	"context"
	"fmt"
	"strings"

	"pirouette/internal/format"
	"pirouette/internal/models"
	"pirouette/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// startBooking начинает диалог записи на программу. Прошлое состояние
// чата сбрасывается.
func (b *Bot) startBooking(ctx context.Context, chatID int64, userID int64, from *tgbotapi.User, programID int64) {
	b.sessions.DeleteBooking(chatID)

	p, err := b.store.GetProgramByID(ctx, programID)
	if err != nil {
		b.sendText(chatID, "❌ Программа не найдена")
		return
	}

	if p.Type == models.ProgramTypeIndividual {
		b.showIndividualInfo(ctx, chatID, p)
		return
	}

	if p.FreeSpots() <= 0 {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("💃 Другие занятия", "nav_programs"),
			),
		)
		b.sendWithKeyboard(chatID, "😔 Все места заняты. Вы можете записаться на другую программу", keyboard)
		return
	}

	if _, err := b.store.GetOrCreateUser(ctx, &models.User{
		TelegramID: from.ID,
		Username:   from.UserName,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	}); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", from.ID).Msg("Failed to register user")
	}

	uid := userID
	sess := &session.Booking{
		ChatID:    chatID,
		ProgramID: programID,
		Step:      session.StepContact,
		UserID:    &uid,
	}
	b.sessions.SetBooking(sess)

	if p.Type == models.ProgramTypeOpenGroup && p.HasSinglePrice() {
		b.showOpenGroupOptions(chatID, p)
		return
	}

	b.askForContact(chatID, p, sess)
}

// showIndividualInfo индивидуальные занятия бронируются через личное
// обсуждение, заявка в боте не создаётся.
func (b *Bot) showIndividualInfo(ctx context.Context, chatID int64, p *models.Program) {
	var sb strings.Builder
	sb.WriteString("👤 <b>Индивидуальное занятие с Аней</b>\n\n")
	sb.WriteString("✨ <i>Персональные тренировки требуют обсуждения деталей</i>\n\n")
	sb.WriteString("📅 <b>Свободные слоты:</b>\n")

	sessions, err := b.store.GetFutureSessions(ctx, p.ID, timeNow())
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("program_id", p.ID).Msg("Failed to load sessions")
	}
	if len(sessions) == 0 {
		if p.Schedule != "" {
			fmt.Fprintf(&sb, "⏰ %s\n", format.EscapeHTML(p.Schedule))
		} else {
			sb.WriteString("🗓️ Расписание уточняется...\n")
		}
	} else {
		for _, s := range sessions {
			fmt.Fprintf(&sb, "• %s\n", format.SessionLine(s))
		}
	}

	sb.WriteString("\n💬 <b>Что обсудим с Аней:</b>\n")
	sb.WriteString("• Удобные день и время\n• Твои цели в танцах\n• Предпочитаемый стиль\n• Длительность занятия\n\n")
	fmt.Fprintf(&sb, "💰 <b>Стоимость:</b> %s\n\n", format.Currency(p.Price))
	sb.WriteString("👇 <b>Нажми кнопку, чтобы написать Ане:</b>")

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💬 Написать Ане", b.teacherURL()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Обновить расписание", fmt.Sprintf("program_%d", p.ID)),
			tgbotapi.NewInlineKeyboardButtonData("💃 Другие занятия", "nav_programs"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), keyboard)
}

func (b *Bot) showOpenGroupOptions(chatID int64, p *models.Program) {
	text := fmt.Sprintf(
		"🎪 <b>Открытая группа</b>\n\nВыберите вариант участия:\n\n"+
			"1. <b>%d занятия (полный цикл)</b>\n   • Стоимость: %s\n\n"+
			"2. <b>Разовое посещение</b>\n   • Стоимость: %s",
		models.PassSessionCount, format.Currency(p.Price), format.Currency(*p.SinglePrice),
	)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ %d занятия", models.PassSessionCount), fmt.Sprintf("option_full_%d", p.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🎫 Разовое", fmt.Sprintf("option_single_%d", p.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "booking_cancel"),
		),
	)
	b.sendWithKeyboard(chatID, text, keyboard)
}

func (b *Bot) selectOpenGroupOption(ctx context.Context, chatID int64, programID int64, option string) {
	sess, ok := b.sessions.Booking(chatID)
	if !ok || sess.ProgramID != programID {
		b.sendText(chatID, "❌ Программа не найдена")
		return
	}
	sess.SelectedOption = option

	switch option {
	case models.VisitOptionSingle:
		sess.Step = session.StepChooseDate
		b.sessions.SetBooking(sess)
		b.askSingleLessonDate(ctx, chatID, programID)
	case models.VisitOptionFull:
		sess.Step = session.StepChooseDatesFull
		sess.SelectedSessions = nil
		b.sessions.SetBooking(sess)
		b.showFullDatesPicker(ctx, chatID, sess)
	}
}

// askSingleLessonDate даты разовых посещений: только будущие занятия
// в месяце старта программы.
func (b *Bot) askSingleLessonDate(ctx context.Context, chatID int64, programID int64) {
	p, err := b.store.GetProgramByID(ctx, programID)
	if err != nil {
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	sessions, err := b.store.GetFutureSessions(ctx, programID, timeNow())
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("program_id", programID).Msg("Failed to load sessions")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	if len(sessions) == 0 {
		b.sendText(chatID, "⚠️ Для этой группы пока не заведены даты занятий.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range sessions {
		if s.Date.Month() != p.StartDate.Month() || s.Date.Year() != p.StartDate.Year() {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				"📅 "+format.SessionLine(s),
				fmt.Sprintf("single_date_%d", s.ID),
			),
		))
	}
	if len(rows) == 0 {
		b.sendText(chatID, "⚠️ В этом месяце больше нет доступных занятий.")
		return
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "booking_cancel"),
	))
	b.sendWithKeyboard(chatID, "🎫 <b>Разовое занятие</b>\n\nВыберите дату занятия:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) selectSingleLessonDate(ctx context.Context, chatID int64, sessionID int64) {
	sess, ok := b.sessions.Booking(chatID)
	if !ok {
		b.showStartMenu(chatID)
		return
	}

	s, err := b.store.GetSessionByID(ctx, sessionID)
	if err != nil {
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	count, err := b.store.CountSessionParticipants(ctx, sessionID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("session_id", sessionID).Msg("Failed to count participants")
	}
	if count >= models.SingleSessionCapacity {
		b.sendText(chatID, fmt.Sprintf("😔 На эту дату уже нет мест (%d человек).\nВыберите другую.", models.SingleSessionCapacity))
		return
	}

	sess.SessionID = &sessionID
	sess.Notes = "Разовое занятие: " + format.SessionLine(s)
	sess.Step = session.StepNotes
	b.sessions.SetBooking(sess)

	b.askNotes(chatID)
}

// showFullDatesPicker пикер "ровно 4 занятия" редактируется на месте.
func (b *Bot) showFullDatesPicker(ctx context.Context, chatID int64, sess *session.Booking) {
	sessions, err := b.store.GetFutureSessions(ctx, sess.ProgramID, timeNow())
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("program_id", sess.ProgramID).Msg("Failed to load sessions")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	if len(sessions) == 0 {
		b.sendText(chatID, "⚠️ Для этой группы пока не заведены даты занятий.")
		return
	}

	text := fmt.Sprintf("📅 <b>Выберите ровно %d занятия:</b>\n\nВыбрано: <b>%d/%d</b>",
		models.PassSessionCount, len(sess.SelectedSessions), models.PassSessionCount)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range sessions {
		mark := "⬜"
		if sess.HasSession(s.ID) {
			mark = "✅"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %s", mark, format.SessionLine(s)),
				fmt.Sprintf("toggle_full_%d", s.ID),
			),
		))
	}
	if len(sess.SelectedSessions) == models.PassSessionCount {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➡️ Продолжить", "full_done"),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "booking_cancel"),
	))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)

	if sess.PickerMessageID != 0 {
		if _, err := b.tgService.EditMessage(chatID, sess.PickerMessageID, text, &keyboard); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to edit picker message")
		}
		return
	}

	msg, err := b.tgService.SendWithInlineKeyboard(chatID, text, keyboard)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to send picker message")
		return
	}
	sess.PickerMessageID = msg.MessageID
	b.sessions.SetBooking(sess)
}

func (b *Bot) toggleFullSession(ctx context.Context, cb *tgbotapi.CallbackQuery, sessionID int64) {
	chatID := cb.Message.Chat.ID
	sess, ok := b.sessions.Booking(chatID)
	if !ok {
		return
	}
	if !sess.ToggleSession(sessionID, models.PassSessionCount) {
		if err := b.tgService.AnswerCallback(cb.ID, fmt.Sprintf("Можно выбрать только %d занятия", models.PassSessionCount)); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to answer callback")
		}
		return
	}
	b.sessions.SetBooking(sess)
	b.showFullDatesPicker(ctx, chatID, sess)
}

func (b *Bot) finishFullBooking(ctx context.Context, chatID int64) {
	sess, ok := b.sessions.Booking(chatID)
	if !ok {
		return
	}
	if len(sess.SelectedSessions) != models.PassSessionCount {
		b.sendText(chatID, fmt.Sprintf("⚠️ Нужно выбрать ровно %d занятия.", models.PassSessionCount))
		return
	}

	if sess.PickerMessageID != 0 {
		text := fmt.Sprintf("📅 Занятия выбраны: <b>%d/%d</b> ✅", models.PassSessionCount, models.PassSessionCount)
		if _, err := b.tgService.EditMessage(chatID, sess.PickerMessageID, text, nil); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to clear picker keyboard")
		}
	}

	sess.Step = session.StepNotes
	b.sessions.SetBooking(sess)
	b.askNotes(chatID)
}

func (b *Bot) askForContact(chatID int64, p *models.Program, sess *session.Booking) {
	amount := bookingAmount(p, sess)
	text := fmt.Sprintf(
		"📝 <b>Запись на программу</b>\n\n<b>%s</b>\n💰 <b>Стоимость:</b> %s\n\nДля продолжения укажите ваш телефон:",
		format.EscapeHTML(p.Title), format.Currency(amount),
	)

	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📱 Отправить телефон"),
		),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true

	if _, err := b.tgService.SendWithKeyboard(chatID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send contact request")
	}
}

func (b *Bot) handleContact(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sess, ok := b.sessions.Booking(chatID)
	if !ok || sess.Step != session.StepContact {
		return
	}

	phone := models.NormalizePhone(msg.Contact.PhoneNumber)
	// Сбой записи телефона не останавливает запись: номер остаётся
	// в состоянии чата, пользователь идёт дальше.
	if err := b.store.UpdateUserPhone(ctx, msg.From.ID, phone); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", msg.From.ID).Msg("Failed to save phone")
	}

	sess.Phone = phone
	sess.Step = session.StepNotes
	b.sessions.SetBooking(sess)

	text := "📝 <b>Пара нюансов</b>\n\nБудет круто, если напишешь:\n" +
		"🩹 травмы или ограничения\n🎯 цель на занятие\n\n" +
		"👇 это не обязательно, но очень помогает 💛"
	b.sendWithKeyboard(chatID, text, notesSkipKeyboard())
}

// handleBookingText свободный текст на шагах записи: телефон и пожелания.
func (b *Bot) handleBookingText(ctx context.Context, chatID int64, from *tgbotapi.User, text string) bool {
	sess, ok := b.sessions.Booking(chatID)
	if !ok {
		return false
	}

	switch sess.Step {
	case session.StepContact:
		phone := models.NormalizePhone(text)
		if countDigits(phone) < 10 {
			b.sendText(chatID, "📱 Пожалуйста, отправьте номер телефона или нажмите кнопку ниже.")
			return true
		}
		if err := b.store.UpdateUserPhone(ctx, from.ID, phone); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", from.ID).Msg("Failed to save phone")
		}
		sess.Phone = phone
		sess.Step = session.StepNotes
		b.sessions.SetBooking(sess)
		b.askNotes(chatID)
		return true

	case session.StepNotes:
		b.handleNotes(ctx, chatID, text)
		return true
	}

	return false
}

func (b *Bot) askNotes(chatID int64) {
	b.sendWithKeyboard(chatID,
		"📝 Есть ли дополнительные пожелания?\n\nНапишите текстом или нажмите кнопку 👇",
		notesSkipKeyboard())
}

func notesSkipKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Нет, всё отлично", "notes_skip"),
		),
	)
}

// handleNotes ответ "нет" не добавляет пожеланий, любой другой текст
// дописывается к заметкам заявки.
func (b *Bot) handleNotes(ctx context.Context, chatID int64, text string) {
	sess, ok := b.sessions.Booking(chatID)
	if !ok || sess.Step != session.StepNotes {
		return
	}

	if !strings.EqualFold(strings.TrimSpace(text), "нет") {
		if sess.Notes != "" {
			sess.Notes += "; " + text
		} else {
			sess.Notes = text
		}
	}

	sess.Step = session.StepPayment
	b.sessions.SetBooking(sess)
	b.askPaymentMethod(ctx, chatID)
}

func (b *Bot) askPaymentMethod(ctx context.Context, chatID int64) {
	text := fmt.Sprintf(
		"💳 <b>Как оплатить занятие</b>\n\n"+
			"Оплатить можно <b>любым удобным способом</b> — переводом по реквизитам ниже 👇\n\n"+
			"<b>Получатель:</b>\n%s\n\n"+
			"<b>Способы оплаты:</b>\n📞 <b>По номеру телефона:</b> %s (%s)\n\n"+
			"Ваша заявка автоматически попадёт к Ане — она проверит оплату и подтвердит запись.\n\n"+
			"⏳ Обычно подтверждение занимает до <b>24 часов</b>.\n\n"+
			"Когда будете готовы — нажмите кнопку ниже 👇",
		format.EscapeHTML(b.config.Payment.Recipient),
		format.EscapeHTML(b.config.Payment.Phone),
		format.EscapeHTML(b.config.Payment.Bank),
	)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Я оплатил(а)", "booking_confirm"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить запись", "booking_cancel"),
		),
	)
	b.sendWithKeyboard(chatID, text, keyboard)
}

func (b *Bot) handlePaymentMethod(ctx context.Context, chatID int64, method string) {
	sess, ok := b.sessions.Booking(chatID)
	if !ok {
		return
	}
	sess.PaymentMethod = method
	sess.Step = session.StepSummary
	b.sessions.SetBooking(sess)
	b.showSummary(ctx, chatID)
}

func (b *Bot) showSummary(ctx context.Context, chatID int64) {
	sess, ok := b.sessions.Booking(chatID)
	if !ok {
		return
	}
	p, err := b.store.GetProgramByID(ctx, sess.ProgramID)
	if err != nil {
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	var user *models.User
	if sess.UserID != nil {
		user, err = b.store.GetUserByTelegramID(ctx, *sess.UserID)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to load user for summary")
		}
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Проверьте данные заявки:</b>\n\n")
	fmt.Fprintf(&sb, "<b>Программа:</b> %s\n", format.EscapeHTML(p.Title))
	switch sess.SelectedOption {
	case models.VisitOptionSingle:
		sb.WriteString("<b>Вариант:</b> Разовое занятие\n")
	case models.VisitOptionFull:
		fmt.Fprintf(&sb, "<b>Вариант:</b> %d занятия\n", models.PassSessionCount)
	}
	if user != nil {
		fmt.Fprintf(&sb, "<b>Имя:</b> %s\n", format.EscapeHTML(user.DisplayName()))
		phone := user.Phone
		if phone == "" {
			phone = sess.Phone
		}
		if phone == "" {
			phone = "<i>не указан</i>"
		}
		fmt.Fprintf(&sb, "<b>Телефон:</b> %s\n", phone)
	}
	fmt.Fprintf(&sb, "<b>Способ оплаты:</b> %s\n", format.PaymentMethodLabel(sess.PaymentMethod))
	notes := sess.Notes
	if notes == "" {
		notes = "нет"
	}
	fmt.Fprintf(&sb, "<b>Заметки:</b> %s\n", format.EscapeHTML(notes))
	fmt.Fprintf(&sb, "<b>Сумма:</b> %s\n\n<b>Всё верно?</b>", format.Currency(bookingAmount(p, sess)))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да, отправить", "booking_confirm"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Нет, отменить", "booking_cancel"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), keyboard)
}

// confirmBooking создаёт заявку. Без телефона возвращает на шаг
// контакта; состояние чата очищается только при успехе.
func (b *Bot) confirmBooking(ctx context.Context, chatID int64, from *tgbotapi.User) {
	sess, ok := b.sessions.Booking(chatID)
	if !ok {
		b.showStartMenu(chatID)
		return
	}

	p, err := b.store.GetProgramByID(ctx, sess.ProgramID)
	if err != nil {
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	user, err := b.store.GetUserByTelegramID(ctx, from.ID)
	if err != nil || user.Phone == "" {
		sess.Step = session.StepContact
		b.sessions.SetBooking(sess)
		b.askForContact(chatID, p, sess)
		return
	}

	uid := from.ID
	a := &models.Application{
		ProgramID:     p.ID,
		UserID:        &uid,
		UserName:      user.DisplayName(),
		UserPhone:     user.Phone,
		UserNotes:     sess.Notes,
		PaymentMethod: sess.PaymentMethod,
		Amount:        bookingAmount(p, sess),
		Status:        models.ApplicationStatusPending,
		SessionIDs:    sess.SelectedSessions,
	}
	if sess.SelectedOption == models.VisitOptionSingle {
		a.SessionID = sess.SessionID
	}

	if err := b.applications.CreateApplication(ctx, a); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("program_id", p.ID).Msg("Failed to create application")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	if b.metrics != nil {
		b.metrics.ApplicationsCreated.WithLabelValues(p.Type).Inc()
	}

	b.sessions.DeleteBooking(chatID)

	if err := b.tgService.RemoveReplyKeyboard(chatID, "⏳"); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to remove reply keyboard")
	}
	b.sendApplicationConfirmation(chatID, p, a)
}

func (b *Bot) sendApplicationConfirmation(chatID int64, p *models.Program, a *models.Application) {
	text := fmt.Sprintf(
		"🎉 <b>Заявка отправлена!</b>\n\n"+
			"<b>Программа:</b> %s\n<b>ID заявки:</b> %d\n\n"+
			"<b>Что дальше:</b>\n1. Аня проверит вашу заявку\n2. Подтвердит оплату\n3. Отправит подтверждение записи\n\n"+
			"<b>Обычно это занимает до 24 часов.</b>\n\n"+
			"<b>Контакты для вопросов:</b>\n📱 Telegram: %s\n📞 Телефон: %s",
		format.EscapeHTML(p.Title), a.ID,
		format.EscapeHTML(b.config.Teacher.Telegram), format.EscapeHTML(b.config.Teacher.Phone),
	)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💬 Написать Ане", b.teacherURL()),
			tgbotapi.NewInlineKeyboardButtonData("🏠 В начало", "nav_start"),
		),
	)
	b.sendWithKeyboard(chatID, text, keyboard)
}

func (b *Bot) cancelBooking(chatID int64) {
	b.sessions.DeleteBooking(chatID)

	if err := b.tgService.RemoveReplyKeyboard(chatID, "❌ Запись отменена"); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to remove reply keyboard")
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💃 Посмотреть программы", "nav_programs"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 В начало", "nav_start"),
		),
	)
	b.sendWithKeyboard(chatID, "Если передумаете — всегда можно начать заново! 💫", keyboard)
}

// bookingAmount сумма заявки пересчитывается на сервере, а не берётся
// из текста кнопок.
func bookingAmount(p *models.Program, sess *session.Booking) int64 {
	if p.Type == models.ProgramTypeOpenGroup && sess.SelectedOption == models.VisitOptionSingle && p.HasSinglePrice() {
		return *p.SinglePrice
	}
	return p.Price
}

func countDigits(s string) int {
	n := 0
	for _, c := range s {
		if c >= '0' && c <= '9' {
			n++
		}
	}
	return n
}
