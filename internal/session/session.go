// Package session хранит состояние диалогов: запись на занятие,
// черновик программы администратора и режим рассылки.
package session

import (
	"sync"

	"pirouette/internal/schedule"
)

// BookingStep шаг диалога записи.
type BookingStep string

const (
	StepContact         BookingStep = "contact"
	StepNotes           BookingStep = "notes"
	StepPayment         BookingStep = "payment"
	StepSummary         BookingStep = "summary"
	StepChooseDate      BookingStep = "choose_date"
	StepChooseDatesFull BookingStep = "choose_dates_full"
)

// Booking состояние записи одного чата на программу.
type Booking struct {
	ChatID           int64
	ProgramID        int64
	Step             BookingStep
	PickerMessageID  int
	UserID           *int64
	Phone            string
	Notes            string
	PaymentMethod    string
	SelectedOption   string
	SessionID        *int64
	SelectedSessions []int64
}

// ToggleSession добавляет либо убирает занятие из выбранных.
// Возвращает false, если достигнут предел limit и занятие не добавлено.
func (b *Booking) ToggleSession(sessionID int64, limit int) bool {
	for i, id := range b.SelectedSessions {
		if id == sessionID {
			b.SelectedSessions = append(b.SelectedSessions[:i], b.SelectedSessions[i+1:]...)
			return true
		}
	}
	if len(b.SelectedSessions) >= limit {
		return false
	}
	b.SelectedSessions = append(b.SelectedSessions, sessionID)
	return true
}

// HasSession сообщает, выбрано ли занятие.
func (b *Booking) HasSession(sessionID int64) bool {
	for _, id := range b.SelectedSessions {
		if id == sessionID {
			return true
		}
	}
	return false
}

// DraftStep шаг мастера создания программы.
type DraftStep string

const (
	DraftStepType             DraftStep = "type"
	DraftStepDurationChoice   DraftStep = "duration_choice"
	DraftStepIntensiveDays    DraftStep = "intensive_days"
	DraftStepTitle            DraftStep = "title"
	DraftStepDescription      DraftStep = "description"
	DraftStepStartDate        DraftStep = "start_date"
	DraftStepScheduleBuilder  DraftStep = "schedule_builder"
	DraftStepScheduleTimeText DraftStep = "schedule_time_manual"
	DraftStepWaitingDuration  DraftStep = "waiting_duration"
	DraftStepIntensiveTime    DraftStep = "intensive_time"
	DraftStepIndividualDays   DraftStep = "individual_days"
	DraftStepIndividualTime   DraftStep = "individual_time"
	DraftStepPrice            DraftStep = "price"
	DraftStepSinglePrice      DraftStep = "single_price"
	DraftStepMaxParticipants  DraftStep = "max_participants"
	DraftStepGroupLink        DraftStep = "group_link"
	DraftStepConfirm          DraftStep = "confirm"
)

// ProgramDraft черновик программы со всем промежуточным состоянием
// мастера. Удаляется целиком одним вызовом ClearDraft.
type ProgramDraft struct {
	ChatID          int64
	Step            DraftStep
	Type            string
	Title           string
	Description     string
	StartDate       string
	EndDate         string
	DurationMinutes int64
	Price           int64
	SinglePrice     int64
	MaxParticipants int64
	GroupLink       string
	Schedule        string

	// Конструктор расписания групп и открытых групп.
	ScheduleDraft   []string
	ScheduleDetails []schedule.Entry
	TempDay         string
	TempTime        string

	// Состояние ветки интенсива.
	IntensiveDays   int
	IntensiveTimes  []string
	IntensiveCursor int

	// Состояние ветки индивидуальных занятий.
	IndividualDays   []string
	IndividualCursor int
}

// BroadcastStage этап подготовки рассылки.
type BroadcastStage string

const (
	BroadcastStageSegment BroadcastStage = "segment"
	BroadcastStageText    BroadcastStage = "text"
	BroadcastStageConfirm BroadcastStage = "confirm"
)

// Broadcast состояние рассылки администратора.
type Broadcast struct {
	ChatID  int64
	Stage   BroadcastStage
	Segment string
	Text    string
}

// Store потокобезопасное хранилище диалоговых состояний по чатам.
type Store struct {
	mu         sync.RWMutex
	bookings   map[int64]*Booking
	drafts     map[int64]*ProgramDraft
	broadcasts map[int64]*Broadcast
}

func NewStore() *Store {
	return &Store{
		bookings:   make(map[int64]*Booking),
		drafts:     make(map[int64]*ProgramDraft),
		broadcasts: make(map[int64]*Broadcast),
	}
}

func (s *Store) Booking(chatID int64) (*Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[chatID]
	return b, ok
}

func (s *Store) SetBooking(b *Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ChatID] = b
}

func (s *Store) DeleteBooking(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookings, chatID)
}

func (s *Store) Draft(chatID int64) (*ProgramDraft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[chatID]
	return d, ok
}

func (s *Store) SetDraft(d *ProgramDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ChatID] = d
}

// ClearDraft удаляет черновик вместе со всем вспомогательным состоянием.
func (s *Store) ClearDraft(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, chatID)
}

func (s *Store) Broadcast(chatID int64) (*Broadcast, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.broadcasts[chatID]
	return b, ok
}

func (s *Store) SetBroadcast(b *Broadcast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcasts[b.ChatID] = b
}

func (s *Store) ClearBroadcast(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.broadcasts, chatID)
}
