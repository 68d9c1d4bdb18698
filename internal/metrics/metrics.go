package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "bookings_added_total",
			Help:      "Bookings accepted into the local reservation set.",
		},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "booking_conflicts_total",
			Help:      "Bookings rejected as duplicates of an existing slot.",
		},
	)

	confirmations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "confirmations_total",
			Help:      "Confirmation runs by result.",
		},
		[]string{"result"},
	)

	confirmFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "confirmation_failures_total",
			Help:      "Confirmation failures by classified cause.",
		},
		[]string{"class"},
	)

	repairedBookings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "bookings_repaired_total",
			Help:      "Stale bookings auto-shifted forward during confirmation.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingsAdded,
			bookingConflicts,
			confirmations,
			confirmFailures,
			repairedBookings,
			httpRequests,
		)
	})
}

// IncBookingAdded increments the accepted-booking counter.
func IncBookingAdded() {
	bookingsAdded.Inc()
}

// IncBookingConflict increments the duplicate-rejection counter.
func IncBookingConflict() {
	bookingConflicts.Inc()
}

// IncConfirmation increments the confirmation counter for a result label
// ("succeeded" or "failed").
func IncConfirmation(result string) {
	confirmations.WithLabelValues(result).Inc()
}

// IncConfirmFailure increments the failure counter for a classified cause.
func IncConfirmFailure(class string) {
	confirmFailures.WithLabelValues(class).Inc()
}

// IncBookingRepaired increments the auto-repair counter.
func IncBookingRepaired() {
	repairedBookings.Inc()
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
