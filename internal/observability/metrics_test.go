package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordCommand(t *testing.T) {
	m := NewMetrics()

	m.RecordCommand("reserve", "ok", 10*time.Millisecond)
	m.RecordCommand("reserve", "ok", 5*time.Millisecond)
	m.RecordCommand("reserve", "INSUFFICIENT_DOSES", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("reserve", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("reserve", "INSUFFICIENT_DOSES")))
}

func TestMetricsCountersAndRegistry(t *testing.T) {
	m := NewMetrics()

	m.RecordReservation("booked")
	m.RecordTxRetry()
	m.RecordTxRetry()
	m.RecordRequest("/health/live", "GET", 200)
	m.RecordRequest("/health/ready", "GET", 503)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reservations.WithLabelValues("booked")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.txRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/health/ready", "GET", "5xx")))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCommand("quit", "ok", 0)
		m.RecordReservation("booked")
		m.RecordTxRetry()
		m.RecordRequest("/", "GET", 200)
	})
	assert.Nil(t, m.Registry())
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "2xx", statusLabel(204))
	assert.Equal(t, "3xx", statusLabel(302))
	assert.Equal(t, "4xx", statusLabel(404))
	assert.Equal(t, "5xx", statusLabel(500))
}
