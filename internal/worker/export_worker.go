package worker

import (
	"context"
	"errors"
	"time"

	"velora/internal/models"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when an export cannot be accepted right now.
var ErrQueueFull = errors.New("export queue is full")

// ExportSink turns a reservation set into an artifact and returns its path.
type ExportSink interface {
	Write(bookings []models.Booking) (string, error)
}

// ExportWorker writes queued reservation sets to disk off the request path.
// Exports are best-effort: after the retry budget a set is dropped with a
// log record, never blocking the booking flow.
type ExportWorker struct {
	sink   ExportSink
	queue  chan []models.Booking
	retry  RetryPolicy
	logger *zerolog.Logger
}

func NewExportWorker(sink ExportSink, queueSize int, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	if queueSize <= 0 {
		queueSize = models.DefaultExportQueueSize
	}
	if retry.MaxRetries == 0 {
		retry = DefaultRetryPolicy()
	}

	return &ExportWorker{
		sink:   sink,
		queue:  make(chan []models.Booking, queueSize),
		retry:  retry,
		logger: logger,
	}
}

// EnqueueExport accepts a snapshot of the reservation set for background
// export. Non-blocking; a full queue rejects the request.
func (w *ExportWorker) EnqueueExport(ctx context.Context, bookings []models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	snapshot := make([]models.Booking, len(bookings))
	copy(snapshot, bookings)

	select {
	case w.queue <- snapshot:
		return nil
	default:
		w.logger.Warn().Int("count", len(bookings)).Msg("export queue full, rejecting")
		return ErrQueueFull
	}
}

// Start consumes the queue until ctx is done.
func (w *ExportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("export worker started")
	defer w.logger.Info().Msg("export worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case bookings := <-w.queue:
			w.process(ctx, bookings)
		}
	}
}

func (w *ExportWorker) process(ctx context.Context, bookings []models.Booking) {
	for attempt := 1; ; attempt++ {
		path, err := w.sink.Write(bookings)
		if err == nil {
			w.logger.Info().Str("path", path).Int("count", len(bookings)).Msg("export written")
			return
		}

		if attempt > w.retry.MaxRetries {
			w.logger.Error().Err(err).Int("count", len(bookings)).Msg("export dropped after retries")
			return
		}

		w.logger.Warn().Err(err).Int("attempt", attempt).Msg("export attempt failed, retrying")
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retry.NextDelay(attempt)):
		}
	}
}
