package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventApplicationCreated  = "application_created"
	EventApplicationPaid     = "application_paid"
	EventApplicationRejected = "application_rejected"
	EventBookingConfirmed    = "booking_confirmed"
	EventProgramCreated      = "program_created"
)

// ApplicationEventPayload describes the minimal application snapshot for
// event consumers.
type ApplicationEventPayload struct {
	ApplicationID int64  `json:"application_id"`
	ProgramID     int64  `json:"program_id"`
	ProgramTitle  string `json:"program_title,omitempty"`
	UserID        int64  `json:"user_id,omitempty"`
	UserName      string `json:"user_name"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	ChangedByID   int64  `json:"changed_by_id,omitempty"`
}

// ProgramEventPayload describes a freshly created program.
type ProgramEventPayload struct {
	ProgramID int64  `json:"program_id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Sessions  int    `json:"sessions"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
