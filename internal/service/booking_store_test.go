package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"velora/internal/events"
	"velora/internal/models"
	"velora/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*BookingStore, *repository.MemoryStore) {
	t.Helper()
	logger := zerolog.Nop()
	mem := repository.NewMemoryStore()
	return NewBookingStore(context.Background(), mem, events.NewEventBus(), &logger), mem
}

func sampleBooking(id, serviceID, date, slot string) *models.Booking {
	return &models.Booking{
		BookingID:  id,
		ServiceID:  serviceID,
		Name:       "Swedish Massage",
		GuestEmail: "anna@example.com",
		Date:       date,
		DateLabel:  "Tomorrow",
		Time:       slot,
		BasePrice:  50,
		TotalPrice: 50,
		Currency:   "USD",
	}
}

func TestBookingStore_AddAndList(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, sampleBooking("bk-1", "swedish-massage", "2026-03-03", "10:00 AM")))
	require.NoError(t, store.Add(ctx, sampleBooking("bk-2", "swedish-massage", "2026-03-03", "2:30 PM")))

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "bk-1", list[0].BookingID)
	assert.Equal(t, "bk-2", list[1].BookingID)

	payload, err := mem.Load(ctx)
	require.NoError(t, err)
	var persisted []models.Booking
	require.NoError(t, json.Unmarshal(payload, &persisted))
	assert.Len(t, persisted, 2)
}

func TestBookingStore_DuplicateSlotRejected(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, sampleBooking("bk-1", "swedish-massage", "2026-03-03", "10:00 AM")))

	err := store.Add(ctx, sampleBooking("bk-2", "swedish-massage", "2026-03-03", "10:00 AM"))
	require.Error(t, err)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "bk-1", conflict.Existing.BookingID)
	assert.Contains(t, err.Error(), "Swedish Massage")
	assert.Equal(t, 1, store.Len())
}

func TestBookingStore_SameServiceDifferentSlotAllowed(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, sampleBooking("bk-1", "swedish-massage", "2026-03-03", "10:00 AM")))
	require.NoError(t, store.Add(ctx, sampleBooking("bk-2", "swedish-massage", "2026-03-04", "10:00 AM")))
	assert.Equal(t, 2, store.Len())
}

func TestBookingStore_Remove(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, sampleBooking("bk-1", "swedish-massage", "2026-03-03", "10:00 AM")))
	require.NoError(t, store.Remove(ctx, "bk-1"))
	assert.Equal(t, 0, store.Len())

	// Slot is free again after removal.
	require.NoError(t, store.Add(ctx, sampleBooking("bk-3", "swedish-massage", "2026-03-03", "10:00 AM")))

	assert.ErrorIs(t, store.Remove(ctx, "missing"), ErrBookingNotFound)
}

func TestBookingStore_Clear(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, sampleBooking("bk-1", "swedish-massage", "2026-03-03", "10:00 AM")))
	store.Clear(ctx)

	assert.Equal(t, 0, store.Len())
	payload, err := mem.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestBookingStore_UpdateGuestInfo(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, sampleBooking("bk-1", "swedish-massage", "2026-03-03", "10:00 AM")))
	require.NoError(t, store.Add(ctx, sampleBooking("bk-2", "deep-tissue", "2026-03-04", "1:00 PM")))

	store.UpdateGuestInfo(ctx, models.GuestInfo{Name: "Anna", Email: "anna@example.com", Phone: "+1234"})

	for _, b := range store.List() {
		assert.Equal(t, "Anna", b.GuestName)
		assert.Equal(t, "anna@example.com", b.GuestEmail)
		assert.Equal(t, "+1234", b.GuestPhone)
	}
}

func TestBookingStore_LoadsPersistedState(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	mem := repository.NewMemoryStore()

	first := NewBookingStore(ctx, mem, nil, &logger)
	require.NoError(t, first.Add(ctx, sampleBooking("bk-1", "swedish-massage", "2026-03-03", "10:00 AM")))

	second := NewBookingStore(ctx, mem, nil, &logger)
	require.Equal(t, 1, second.Len())
	assert.Equal(t, "bk-1", second.List()[0].BookingID)
}

func TestBookingStore_CorruptedPayloadErased(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	require.NoError(t, mem.Save(ctx, []byte("{not valid json")))

	store := NewBookingStore(ctx, mem, nil, &logger)
	assert.Equal(t, 0, store.Len())

	payload, err := mem.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestBookingStore_NonArrayPayloadErased(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	require.NoError(t, mem.Save(ctx, []byte(`{"bookings":[]}`)))

	store := NewBookingStore(ctx, mem, nil, &logger)
	assert.Equal(t, 0, store.Len())
}

type brokenStore struct{}

func (brokenStore) Load(ctx context.Context) ([]byte, error) { return nil, nil }
func (brokenStore) Save(ctx context.Context, _ []byte) error { return errors.New("quota exceeded") }
func (brokenStore) Clear(ctx context.Context) error          { return errors.New("quota exceeded") }

func TestBookingStore_PersistenceFailureIsTolerated(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	store := NewBookingStore(ctx, brokenStore{}, nil, &logger)

	require.NoError(t, store.Add(ctx, sampleBooking("bk-1", "swedish-massage", "2026-03-03", "10:00 AM")))
	assert.Equal(t, 1, store.Len())
}
