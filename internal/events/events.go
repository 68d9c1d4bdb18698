package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingAdded       = "booking_added"
	EventBookingRemoved     = "booking_removed"
	EventBookingRepaired    = "booking_repaired"
	EventBookingsConfirmed  = "bookings_confirmed"
	EventConfirmationFailed = "confirmation_failed"
)

// BookingEventPayload is the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID   string  `json:"booking_id"`
	ServiceID   string  `json:"service_id"`
	ServiceName string  `json:"service_name"`
	GuestName   string  `json:"guest_name,omitempty"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	TotalPrice  float64 `json:"total_price"`
}

// ConfirmationEventPayload describes the outcome of a confirmation run.
type ConfirmationEventPayload struct {
	Count        int    `json:"count"`
	FailureClass string `json:"failure_class,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
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
