package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMonitorCounts(t *testing.T) {
	m := NewMonitor()

	before := testutil.ToFloat64(registrationOperations.WithLabelValues("register", "event", "Full"))
	m.TrackRegistration("register", "event", "Full")
	m.TrackRegistration("register", "event", "Full")
	assert.Equal(t, before+2, testutil.ToFloat64(registrationOperations.WithLabelValues("register", "event", "Full")))

	before = testutil.ToFloat64(bookingTransitions.WithLabelValues("pending", "confirmed", "success"))
	m.TrackBookingTransition("pending", "confirmed", "success")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingTransitions.WithLabelValues("pending", "confirmed", "success")))

	before = testutil.ToFloat64(rateLimited)
	m.TrackRateLimited()
	assert.Equal(t, before+1, testutil.ToFloat64(rateLimited))

	before = testutil.ToFloat64(assistantRequests.WithLabelValues("chat", "fallback"))
	m.TrackAssistant("chat", "fallback")
	assert.Equal(t, before+1, testutil.ToFloat64(assistantRequests.WithLabelValues("chat", "fallback")))
}

func TestNilMonitorIsSilent(t *testing.T) {
	var m *Monitor

	before := testutil.ToFloat64(rateLimited)
	assert.NotPanics(t, func() {
		m.TrackRegistration("register", "event", "success")
		m.TrackBookingTransition("", "pending", "success")
		m.TrackBookingAmount(1500)
		m.TrackAssistant("chat", "model")
		m.TrackGeneration("success", time.Second)
		m.TrackRateLimited()
	})
	assert.Equal(t, before, testutil.ToFloat64(rateLimited))
}
