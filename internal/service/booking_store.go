package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"velora/internal/domain"
	"velora/internal/events"
	"velora/internal/metrics"
	"velora/internal/models"

	"github.com/rs/zerolog"
)

var ErrBookingNotFound = errors.New("booking not found")

// ConflictError reports a duplicate (serviceId, date, time) slot and names
// the clashing entry for user messaging.
type ConflictError struct {
	Existing models.Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s on %s at %s is already in your bookings",
		e.Existing.Name, e.Existing.DateLabel, e.Existing.Time)
}

// BookingStore is the ordered local reservation set. Mutations persist the
// whole collection fire-and-forget: a storage failure is logged, never
// surfaced, and the in-memory state stays authoritative.
type BookingStore struct {
	mu          sync.Mutex
	persistence domain.PersistenceStore
	eventBus    domain.EventPublisher
	logger      *zerolog.Logger
	bookings    []models.Booking
	index       map[string]int // SlotKey -> position, O(1) conflict checks
}

// NewBookingStore constructs the store and loads the persisted collection.
// A missing, non-array or unparseable payload means an empty store; the
// corrupted payload is erased rather than surfaced.
func NewBookingStore(ctx context.Context, persistence domain.PersistenceStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingStore {
	s := &BookingStore{
		persistence: persistence,
		eventBus:    eventBus,
		logger:      logger,
		index:       make(map[string]int),
	}
	s.load(ctx)
	return s
}

func (s *BookingStore) load(ctx context.Context) {
	payload, err := s.persistence.Load(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load persisted bookings, starting empty")
		return
	}
	if len(payload) == 0 {
		return
	}

	var bookings []models.Booking
	if err := json.Unmarshal(payload, &bookings); err != nil {
		s.logger.Warn().Err(err).Msg("persisted bookings are corrupted, erasing")
		if clearErr := s.persistence.Clear(ctx); clearErr != nil {
			s.logger.Error().Err(clearErr).Msg("failed to erase corrupted payload")
		}
		return
	}

	s.bookings = bookings
	s.reindex()
}

// Add appends a booking unless an existing entry occupies the same
// (serviceId, date, time) slot. On conflict the existing entry is
// preserved and a ConflictError identifies it.
func (s *BookingStore) Add(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[booking.SlotKey()]; ok {
		metrics.IncBookingConflict()
		return &ConflictError{Existing: s.bookings[i]}
	}

	s.bookings = append(s.bookings, *booking)
	s.index[booking.SlotKey()] = len(s.bookings) - 1
	s.persist(ctx)

	metrics.IncBookingAdded()
	s.publish(events.EventBookingAdded, *booking)
	return nil
}

// Remove deletes one booking by id and re-persists.
func (s *BookingStore) Remove(ctx context.Context, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.bookings {
		if b.BookingID == bookingID {
			removed := b
			s.bookings = append(s.bookings[:i], s.bookings[i+1:]...)
			s.reindex()
			s.persist(ctx)
			s.publish(events.EventBookingRemoved, removed)
			return nil
		}
	}
	return ErrBookingNotFound
}

// Clear drops every booking and erases the persisted state.
func (s *BookingStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookings = nil
	s.index = make(map[string]int)
	if err := s.persistence.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to erase persisted bookings")
	}
}

// UpdateGuestInfo applies shared contact info to every booking: one guest
// books multiple services, contact fields are not per-booking.
func (s *BookingStore) UpdateGuestInfo(ctx context.Context, info models.GuestInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bookings {
		s.bookings[i].GuestName = info.Name
		s.bookings[i].GuestEmail = info.Email
		s.bookings[i].GuestPhone = info.Phone
	}
	s.persist(ctx)
}

// ApplyRepair shifts one booking's date in place. Only the confirmation
// coordinator's auto-repair step calls this.
func (s *BookingStore) ApplyRepair(ctx context.Context, bookingID, date, dateLabel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bookings {
		if s.bookings[i].BookingID == bookingID {
			s.bookings[i].Date = date
			s.bookings[i].DateLabel = dateLabel
			s.reindex()
			s.persist(ctx)
			return nil
		}
	}
	return ErrBookingNotFound
}

// List returns a copy of the current reservation set in insertion order.
func (s *BookingStore) List() []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Booking, len(s.bookings))
	copy(out, s.bookings)
	return out
}

// Len reports the number of bookings in the store.
func (s *BookingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

// Persist re-persists the collection explicitly. Used after an auth
// failure to guarantee the guest's selections survive a re-login.
func (s *BookingStore) Persist(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(ctx)
}

// persist is fire-and-forget by design: quota or connectivity failures are
// logged and the in-memory state stays authoritative. Callers must hold mu.
func (s *BookingStore) persist(ctx context.Context) {
	bookings := s.bookings
	if bookings == nil {
		bookings = []models.Booking{}
	}
	payload, err := json.Marshal(bookings)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to serialize bookings")
		return
	}
	if err := s.persistence.Save(ctx, payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist bookings, keeping in-memory state")
	}
}

func (s *BookingStore) reindex() {
	s.index = make(map[string]int, len(s.bookings))
	for i := range s.bookings {
		s.index[s.bookings[i].SlotKey()] = i
	}
}

func (s *BookingStore) publish(eventType string, b models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   b.BookingID,
		ServiceID:   b.ServiceID,
		ServiceName: b.Name,
		GuestName:   b.GuestName,
		Date:        b.Date,
		Time:        b.Time,
		TotalPrice:  b.TotalPrice,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", b.BookingID).Msg("publish event error")
	}
}
