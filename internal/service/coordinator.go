package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"velora/internal/api"
	"velora/internal/domain"
	"velora/internal/events"
	"velora/internal/metrics"
	"velora/internal/models"
	"velora/internal/schedule"

	"github.com/rs/zerolog"
)

// State is the coordinator's explicit phase. Only one confirmation run may
// be active at a time.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRepairing
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRepairing:
		return "repairing"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	failureClassValidation = "validation"
	failureClassAuth       = "auth"
	failureClassServer     = "server"
	failureClassNetwork    = "network"
)

// ConfirmationCoordinator drives a reservation set through validation,
// stale-date repair and submission. Failures leave the store intact so the
// guest can correct and retry.
type ConfirmationCoordinator struct {
	mu       sync.Mutex
	state    State
	store    *BookingStore
	checker  *BookingValidator
	temporal *schedule.TemporalValidator
	labels   *schedule.Normalizer
	client   domain.BookingClient
	notifier domain.Notifier
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewConfirmationCoordinator(
	store *BookingStore,
	clock domain.Clock,
	client domain.BookingClient,
	notifier domain.Notifier,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *ConfirmationCoordinator {
	return &ConfirmationCoordinator{
		state:    StateIdle,
		store:    store,
		checker:  NewBookingValidator(),
		temporal: schedule.NewTemporalValidator(clock),
		labels:   schedule.NewNormalizer(clock),
		client:   client,
		notifier: notifier,
		eventBus: eventBus,
		logger:   logger,
	}
}

// State reports the coordinator's current phase.
func (c *ConfirmationCoordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *ConfirmationCoordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Confirm runs the full pipeline over the current reservation set. A call
// while a run is active is a silent no-op; the caller polls State.
func (c *ConfirmationCoordinator) Confirm(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateValidating, StateRepairing, StateSubmitting:
		c.mu.Unlock()
		c.logger.Debug().Str("state", c.state.String()).Msg("confirmation already running, ignoring")
		return nil
	}
	c.state = StateValidating
	c.mu.Unlock()

	bookings := c.store.List()
	if len(bookings) == 0 {
		c.setState(StateIdle)
		c.notifier.Notify("Your booking list is empty.")
		return nil
	}

	// Phase A: structural checks over the whole set, nothing submitted
	// until every booking passes.
	if violations := c.checker.Collect(bookings); len(violations) > 0 {
		msg := violations[0]
		if extra := len(violations) - 1; extra > 0 {
			msg = fmt.Sprintf("%s (and %d more issues)", msg, extra)
		}
		return c.fail(failureClassValidation, msg, len(bookings))
	}

	// Phase B: shift stale dates forward one day before submission.
	c.setState(StateRepairing)
	if err := c.repairStaleDates(ctx, bookings); err != nil {
		return c.fail(failureClassValidation, err.Error(), len(bookings))
	}
	bookings = c.store.List()

	// Phase C: submit atomically, then drop the local set.
	c.setState(StateSubmitting)
	if err := c.client.CreateBookings(ctx, bookings); err != nil {
		class := classifyFailure(err)
		c.logger.Error().Err(err).Str("class", class).Int("count", len(bookings)).Msg("booking submission failed")

		if class == failureClassAuth {
			// Selections must survive the re-login round trip.
			c.store.Persist(ctx)
		}
		return c.fail(class, failureMessage(class, err), len(bookings))
	}

	count := len(bookings)
	c.store.Clear(ctx)
	c.setState(StateSucceeded)

	metrics.IncConfirmation("succeeded")
	if c.eventBus != nil {
		_ = c.eventBus.PublishJSON(events.EventBookingsConfirmed, events.ConfirmationEventPayload{Count: count})
	}
	c.notifier.Notify(fmt.Sprintf("Your %d booking(s) are confirmed. See you soon!", count))
	c.logger.Info().Int("count", count).Msg("bookings confirmed")
	return nil
}

// repairStaleDates walks the set and moves any already-elapsed booking one
// day forward. A booking still in the past after the shift has a broken
// date and aborts the run.
func (c *ConfirmationCoordinator) repairStaleDates(ctx context.Context, bookings []models.Booking) error {
	for i, b := range bookings {
		if !c.temporal.IsPast(b.Date, b.Time) {
			continue
		}

		day, err := time.Parse("2006-01-02", b.Date)
		if err != nil {
			return fmt.Errorf("booking %d (%s) has an unreadable date %q", i+1, b.Name, b.Date)
		}
		shifted := day.AddDate(0, 0, 1).Format("2006-01-02")
		if c.temporal.IsPast(shifted, b.Time) {
			return fmt.Errorf("booking %d (%s) is scheduled in the past and cannot be repaired", i+1, b.Name)
		}

		label := c.labels.ToRelativeLabel(shifted)
		if err := c.store.ApplyRepair(ctx, b.BookingID, shifted, label); err != nil {
			return fmt.Errorf("booking %d (%s): %w", i+1, b.Name, err)
		}

		metrics.IncBookingRepaired()
		if c.eventBus != nil {
			_ = c.eventBus.PublishJSON(events.EventBookingRepaired, events.BookingEventPayload{
				BookingID:   b.BookingID,
				ServiceID:   b.ServiceID,
				ServiceName: b.Name,
				Date:        shifted,
				Time:        b.Time,
				TotalPrice:  b.TotalPrice,
			})
		}
		c.logger.Info().Str("booking_id", b.BookingID).Str("from", b.Date).Str("to", shifted).Msg("stale booking shifted forward")
	}
	return nil
}

func (c *ConfirmationCoordinator) fail(class, message string, count int) error {
	c.setState(StateFailed)

	metrics.IncConfirmation("failed")
	metrics.IncConfirmFailure(class)
	if c.eventBus != nil {
		_ = c.eventBus.PublishJSON(events.EventConfirmationFailed, events.ConfirmationEventPayload{
			Count:        count,
			FailureClass: class,
			Message:      message,
		})
	}
	c.notifier.Notify(message)
	return errors.New(message)
}

// classifyFailure buckets a submission error for messaging and metrics.
func classifyFailure(err error) string {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized:
			return failureClassAuth
		case statusErr.StatusCode >= 500:
			return failureClassServer
		default:
			return failureClassNetwork
		}
	}
	if errors.Is(err, api.ErrMalformedResponse) {
		return failureClassServer
	}
	return failureClassNetwork
}

func failureMessage(class string, err error) string {
	switch class {
	case failureClassAuth:
		return "Your session has expired. Please sign in again; your selections are saved."
	case failureClassServer:
		return "The booking service is having trouble right now. Please try again in a few minutes."
	default:
		msg := err.Error()
		if strings.Contains(msg, "context deadline exceeded") {
			return "The booking service took too long to respond. Please try again."
		}
		return "We could not reach the booking service. Check your connection and try again."
	}
}
