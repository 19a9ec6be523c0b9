package models

import (
	"strings"
	"time"
)

// User пользователь Telegram, известный боту.
type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"` // Уникальный ID Telegram
	Username   string    `json:"username"`    // Юзернейм Telegram
	FirstName  string    `json:"first_name"`  // Имя пользователя
	LastName   string    `json:"last_name"`   // Фамилия пользователя
	Phone      string    `json:"phone"`       // Телефон в формате +7XXXXXXXXXX
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DisplayName возвращает имя для показа администратору.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// NormalizePhone приводит телефон к виду +7XXXXXXXXXX.
func NormalizePhone(raw string) string {
	phone := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(raw)
	if phone == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(phone, "+"):
		return phone
	case strings.HasPrefix(phone, "8") && len(phone) == 11:
		return "+7" + phone[1:]
	case strings.HasPrefix(phone, "7"):
		return "+" + phone
	default:
		return "+" + phone
	}
}
