package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_operations_total",
			Help: "Registration attempts per resource kind and outcome",
		},
		[]string{"operation", "resource_kind", "outcome"},
	)

	bookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Booking status transitions",
		},
		[]string{"from", "to", "outcome"},
	)

	bookingAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_amount_rupees",
			Help:    "Total amount of created bookings",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10),
		},
	)

	assistantRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_requests_total",
			Help: "Assistant requests per feature and source (model, cache, fallback)",
		},
		[]string{"feature", "source"},
	)

	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genai_request_duration_seconds",
			Help:    "Duration of text generation calls",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
		[]string{"outcome"},
	)

	waitlistOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_operations_total",
			Help: "Waitlist joins, leaves and promotions",
		},
		[]string{"operation", "resource_kind", "outcome"},
	)

	rateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// Monitor records service metrics. A nil *Monitor records nothing, which keeps
// tests and metric-less deployments free of nil checks.
type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// Track registration attempts: operation is register or unregister, outcome
// is success or the failure reason.
func (m *Monitor) TrackRegistration(operation, resourceKind, outcome string) {
	if m == nil {
		return
	}
	registrationOperations.WithLabelValues(operation, resourceKind, outcome).Inc()
}

func (m *Monitor) TrackBookingTransition(from, to, outcome string) {
	if m == nil {
		return
	}
	bookingTransitions.WithLabelValues(from, to, outcome).Inc()
}

func (m *Monitor) TrackBookingAmount(amount float64) {
	if m == nil {
		return
	}
	bookingAmount.Observe(amount)
}

func (m *Monitor) TrackAssistant(feature, source string) {
	if m == nil {
		return
	}
	assistantRequests.WithLabelValues(feature, source).Inc()
}

func (m *Monitor) TrackGeneration(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	generationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Monitor) TrackWaitlist(operation, resourceKind, outcome string) {
	if m == nil {
		return
	}
	waitlistOperations.WithLabelValues(operation, resourceKind, outcome).Inc()
}

func (m *Monitor) TrackRateLimited() {
	if m == nil {
		return
	}
	rateLimited.Inc()
}
