package models

import "time"

// Booking подтверждённая запись, создаётся из оплаченной заявки.
type Booking struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	ProgramID     int64     `json:"program_id"`
	UserID        *int64    `json:"user_id,omitempty"`
	UserName      string    `json:"user_name"`
	UserPhone     string    `json:"user_phone"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Attended      bool      `json:"attended"`
	Notes         string    `json:"notes,omitempty"`
	SessionIDs    []int64   `json:"session_ids,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
