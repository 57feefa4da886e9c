package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.ObserveConsume("enrollment-service", "payment.completed", "applied", 10*time.Millisecond)
	m.ObserveConsume("enrollment-service", "payment.completed", "duplicate", time.Millisecond)
	m.ObserveConsume("enrollment-service", "payment.completed", "applied", time.Millisecond)
	m.ObservePublish("payment-service", "payment.completed", "commit", false)
	m.ObserveOutboxFailed("payment-service", "payment.completed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.consumed.WithLabelValues("enrollment-service", "payment.completed", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues("payment-service", "payment.completed", "commit", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboxSwept.WithLabelValues("payment-service", "payment.completed")))
}

func TestMetricsRejectDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	require.Error(t, err)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveConsume("svc", "type", "applied", time.Second)
	m.ObservePublish("svc", "type", "relay", true)
	m.ObserveOutboxFailed("svc", "type")
}
