package models

import "time"

// Типы программ.
const (
	ProgramTypeGroup      = "group"
	ProgramTypeIntensive  = "intensive"
	ProgramTypeOpenGroup  = "open_group"
	ProgramTypeIndividual = "individual"
)

// Статусы программ.
const (
	ProgramStatusActive    = "active"
	ProgramStatusInactive  = "inactive"
	ProgramStatusCompleted = "completed"
	ProgramStatusDeleted   = "deleted"
)

// Статусы заявок.
const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusApproved = "approved"
	ApplicationStatusRejected = "rejected"
	ApplicationStatusPaid     = "paid"
)

// Статусы записей.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"

	PaymentStatusPaid = "paid"
)

// Варианты посещения открытой группы.
const (
	VisitOptionSingle = "single"
	VisitOptionFull   = "full"
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	// SingleSessionCapacity максимум участников на разовой дате открытой группы
	SingleSessionCapacity = 10

	// PassSessionCount количество занятий в абонементе открытой группы
	PassSessionCount = 4

	// ScheduleWeeksForward горизонт генерации дат занятий по расписанию
	ScheduleWeeksForward = 4

	// DefaultDurationMinutes длительность занятия по умолчанию
	DefaultDurationMinutes = 90

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = time.Minute

	// WorkerQueueSize размер очереди воркера синхронизации
	WorkerQueueSize = 128
)

// ProgramTypeLabel возвращает подпись типа программы для пользователя.
func ProgramTypeLabel(programType string) string {
	switch programType {
	case ProgramTypeGroup:
		return "👥 Групповое занятие"
	case ProgramTypeIntensive:
		return "🔥 Интенсив"
	case ProgramTypeOpenGroup:
		return "🎪 Открытая группа"
	case ProgramTypeIndividual:
		return "👤 Индивидуальное занятие"
	default:
		return "📌 Занятие"
	}
}
