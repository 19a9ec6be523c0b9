// Package format собирает HTML-тексты сообщений бота.
package format

import (
	"fmt"
	"strings"

	"pirouette/internal/models"
	"pirouette/internal/schedule"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML экранирует пользовательский текст для parse_mode=HTML.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Currency форматирует сумму в рублях с разделителями тысяч.
func Currency(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + " ₽"
}

// SpotsLabel подпись о свободных местах.
func SpotsLabel(p *models.Program) string {
	if p.Type == models.ProgramTypeIndividual {
		return ""
	}
	free := p.FreeSpots()
	if free == 0 {
		return "(мест нет)"
	}
	return fmt.Sprintf("(%d свободно)", free)
}

// SessionLine строка занятия: "04.03.2026 (Ср) — 19:00".
func SessionLine(s *models.ProgramSession) string {
	return fmt.Sprintf("%s (%s) — %s",
		schedule.FormatDate(s.Date), schedule.WeekdayShort(s.Date), s.Time)
}

// ProgramCard карточка программы для списка.
func ProgramCard(p *models.Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n<b>%s</b>\n", models.ProgramTypeLabel(p.Type), EscapeHTML(p.Title))
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", EscapeHTML(p.Description))
	}
	fmt.Fprintf(&b, "\n📅 Старт: %s\n", schedule.FormatDate(p.StartDate))
	if p.Schedule != "" {
		fmt.Fprintf(&b, "🕒 Расписание: %s\n", EscapeHTML(p.Schedule))
	}
	price := fmt.Sprintf("💰 %s", Currency(p.Price))
	if p.HasSinglePrice() {
		price += fmt.Sprintf(" / разовое %s", Currency(*p.SinglePrice))
	}
	b.WriteString(price)
	if spots := SpotsLabel(p); spots != "" {
		b.WriteString(" " + spots)
	}
	return b.String()
}

// ApplicationCard карточка заявки для администратора.
func ApplicationCard(a *models.Application, p *models.Program, sessions []*models.ProgramSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏳ <b>ЗАЯВКА #%d</b>\n\n", a.ID)
	fmt.Fprintf(&b, "👤 %s\n", EscapeHTML(a.UserName))
	fmt.Fprintf(&b, "📱 %s\n", EscapeHTML(a.UserPhone))
	if p != nil {
		fmt.Fprintf(&b, "🎯 %s\n", EscapeHTML(p.Title))
	}

	switch {
	case a.IsSingleVisit():
		b.WriteString("\n🎫 <b>Разовое занятие</b>\n")
		for _, s := range sessions {
			if s.ID == *a.SessionID {
				fmt.Fprintf(&b, "📅 %s\n", SessionLine(s))
			}
		}
	case a.IsPass():
		fmt.Fprintf(&b, "\n📦 <b>Абонемент (%d занятия)</b>\n", len(a.SessionIDs))
		for _, id := range a.SessionIDs {
			for _, s := range sessions {
				if s.ID == id {
					fmt.Fprintf(&b, "• %s\n", SessionLine(s))
				}
			}
		}
	}

	fmt.Fprintf(&b, "\n💰 Сумма: %s\n", Currency(a.Amount))
	notes := a.UserNotes
	if notes == "" {
		notes = "нет"
	}
	fmt.Fprintf(&b, "📝 <b>Комментарий:</b> %s\n", EscapeHTML(notes))
	fmt.Fprintf(&b, "\nСтатус: %s", StatusLabel(a.Status))
	return b.String()
}

// StatusLabel русская подпись статуса заявки.
func StatusLabel(status string) string {
	switch status {
	case models.ApplicationStatusPending:
		return "⏳ ожидает"
	case models.ApplicationStatusApproved:
		return "✅ одобрена"
	case models.ApplicationStatusPaid:
		return "💰 оплачена"
	case models.ApplicationStatusRejected:
		return "❌ отклонена"
	default:
		return status
	}
}

// PaymentMethodLabel подпись способа оплаты.
func PaymentMethodLabel(method string) string {
	switch method {
	case "tinkoff":
		return "Тинькофф"
	case "":
		return "не указан"
	default:
		return method
	}
}
