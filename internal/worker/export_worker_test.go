package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"velora/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu       sync.Mutex
	failures int
	writes   [][]models.Booking
}

func (s *fakeSink) Write(bookings []models.Booking) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return "", errors.New("disk busy")
	}
	s.writes = append(s.writes, bookings)
	return "/tmp/export.xlsx", nil
}

func (s *fakeSink) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func testBookings() []models.Booking {
	return []models.Booking{{BookingID: "bk-1", Name: "Swedish Massage"}}
}

func TestExportWorker_WritesQueuedSet(t *testing.T) {
	logger := zerolog.Nop()
	sink := &fakeSink{}
	w := NewExportWorker(sink, 4, DefaultRetryPolicy(), &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, w.EnqueueExport(ctx, testBookings()))

	assert.Eventually(t, func() bool {
		return sink.writeCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestExportWorker_RetriesThenSucceeds(t *testing.T) {
	logger := zerolog.Nop()
	sink := &fakeSink{failures: 2}
	retry := RetryPolicy{MaxRetries: 3, InitialDelay: 5 * time.Millisecond, BackoffFactor: 2}
	w := NewExportWorker(sink, 4, retry, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, w.EnqueueExport(ctx, testBookings()))

	assert.Eventually(t, func() bool {
		return sink.writeCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestExportWorker_QueueFull(t *testing.T) {
	logger := zerolog.Nop()
	w := NewExportWorker(&fakeSink{}, 1, DefaultRetryPolicy(), &logger)

	// Worker not started: first enqueue fills the buffer.
	ctx := context.Background()
	require.NoError(t, w.EnqueueExport(ctx, testBookings()))
	assert.ErrorIs(t, w.EnqueueExport(ctx, testBookings()), ErrQueueFull)
}

func TestExportWorker_EmptySetIgnored(t *testing.T) {
	logger := zerolog.Nop()
	w := NewExportWorker(&fakeSink{}, 1, DefaultRetryPolicy(), &logger)

	require.NoError(t, w.EnqueueExport(context.Background(), nil))
	require.NoError(t, w.EnqueueExport(context.Background(), testBookings()))
}

func TestExportWorker_SnapshotIsolation(t *testing.T) {
	logger := zerolog.Nop()
	sink := &fakeSink{}
	w := NewExportWorker(sink, 4, DefaultRetryPolicy(), &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bookings := testBookings()
	require.NoError(t, w.EnqueueExport(ctx, bookings))
	bookings[0].Name = "mutated"

	go w.Start(ctx)
	require.Eventually(t, func() bool {
		return sink.writeCount() == 1
	}, time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, "Swedish Massage", sink.writes[0][0].Name)
}

func TestRetryPolicy_NextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 5*time.Second, p.NextDelay(4))
	assert.Equal(t, 5*time.Second, p.NextDelay(10))

	// Zero values fall back to sane defaults.
	var zero RetryPolicy
	assert.Equal(t, time.Second, zero.NextDelay(0))
}
