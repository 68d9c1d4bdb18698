package domain

import (
	"context"
	"time"

	"velora/internal/models"
)

// PersistenceStore is a durable key-value slot holding the serialized
// reservation set. Implementations store the raw payload under a single
// fixed key; (de)serialization and corruption handling belong to the
// booking store.
type PersistenceStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
	Clear(ctx context.Context) error
}

// Clock supplies the current instant. Injected so temporal checks can be
// frozen in tests.
type Clock interface {
	Now() time.Time
}

// Catalog is the read-only provider of services, add-ons, bookable dates
// and time slots. The booking engine never mutates it.
type Catalog interface {
	ListServices() []models.Service
	GetService(id string) (*models.Service, bool)
}

// BookingClient submits a confirmation batch to the external booking API.
type BookingClient interface {
	CreateBookings(ctx context.Context, bookings []models.Booking) error
}

// Notifier accepts a user-facing message, fire-and-forget.
type Notifier interface {
	Notify(message string)
}

// EventPublisher publishes domain events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ExportWorker schedules asynchronous back-office exports of the
// reservation set.
type ExportWorker interface {
	EnqueueExport(ctx context.Context, bookings []models.Booking) error
}
