package models

import "time"

// Program описывает занятие студии: группу, интенсив, открытую группу
// или индивидуальные занятия.
type Program struct {
	ID                  int64      `json:"id" yaml:"id"`
	Type                string     `json:"type" yaml:"type"`
	Title               string     `json:"title" yaml:"title"`
	Description         string     `json:"description" yaml:"description"`
	StartDate           time.Time  `json:"start_date" yaml:"start_date"`
	EndDate             *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Schedule            string     `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	MaxParticipants     int64      `json:"max_participants" yaml:"max_participants"`
	CurrentParticipants int64      `json:"current_participants" yaml:"current_participants"`
	Price               int64      `json:"price" yaml:"price"`
	SinglePrice         *int64     `json:"single_price,omitempty" yaml:"single_price,omitempty"`
	Status              string     `json:"status" yaml:"status"`
	DurationMinutes     int64      `json:"duration_minutes" yaml:"duration_minutes"`
	GroupLink           string     `json:"group_link,omitempty" yaml:"group_link,omitempty"`
	CreatedAt           time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" yaml:"updated_at"`
}

// FreeSpots возвращает количество свободных мест.
func (p *Program) FreeSpots() int64 {
	free := p.MaxParticipants - p.CurrentParticipants
	if free < 0 {
		return 0
	}
	return free
}

// HasSinglePrice сообщает, продаются ли разовые посещения.
func (p *Program) HasSinglePrice() bool {
	return p.SinglePrice != nil && *p.SinglePrice > 0
}

// ProgramSession конкретная дата и время занятия в рамках программы.
type ProgramSession struct {
	ID              int64     `json:"id"`
	ProgramID       int64     `json:"program_id"`
	Date            time.Time `json:"session_date"`
	Time            string    `json:"session_time"`
	DurationMinutes int64     `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}
