package models

import "time"

// Application заявка на запись, созданная пользователем и ожидающая
// подтверждения оплаты администратором.
type Application struct {
	ID            int64     `json:"id"`
	ProgramID     int64     `json:"program_id"`
	UserID        *int64    `json:"user_id,omitempty"`
	UserName      string    `json:"user_name"`
	UserPhone     string    `json:"user_phone"`
	UserNotes     string    `json:"user_notes,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	AdminNotes    string    `json:"admin_notes,omitempty"`
	SessionID     *int64    `json:"session_id,omitempty"`
	SessionIDs    []int64   `json:"session_ids,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsSingleVisit сообщает, что заявка на разовое посещение открытой группы.
func (a *Application) IsSingleVisit() bool {
	return a.SessionID != nil
}

// IsPass сообщает, что заявка на абонемент из нескольких занятий.
func (a *Application) IsPass() bool {
	return len(a.SessionIDs) > 0
}
