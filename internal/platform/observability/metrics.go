package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var defaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Metrics holds the choreography counters. A nil *Metrics is valid and
// records nothing, so components can run without a registry in tests.
type Metrics struct {
	consumed        *prometheus.CounterVec
	consumeDuration *prometheus.HistogramVec
	published       *prometheus.CounterVec
	outboxSwept     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eduweb",
			Subsystem: "consumer",
			Name:      "deliveries_total",
			Help:      "Deliveries handled by idempotent consumers, by outcome.",
		}, []string{"service", "event_type", "outcome"}),
		consumeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eduweb",
			Subsystem: "consumer",
			Name:      "handle_duration_seconds",
			Help:      "Time from receive to settlement.",
			Buckets:   defaultBuckets,
		}, []string{"service", "event_type"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eduweb",
			Subsystem: "outbox",
			Name:      "publish_total",
			Help:      "Broker publish attempts of committed events, by path and result.",
		}, []string{"service", "event_type", "path", "result"}),
		outboxSwept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eduweb",
			Subsystem: "outbox",
			Name:      "rows_failed_total",
			Help:      "Outbox rows that exhausted their attempts or had no route.",
		}, []string{"service", "event_type"}),
	}

	for _, collector := range []prometheus.Collector{m.consumed, m.consumeDuration, m.published, m.outboxSwept} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveConsume(service string, eventType string, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.consumed.WithLabelValues(service, eventType, outcome).Inc()
	m.consumeDuration.WithLabelValues(service, eventType).Observe(elapsed.Seconds())
}

// ObservePublish records one publish attempt; path is "commit" or "relay".
func (m *Metrics) ObservePublish(service string, eventType string, path string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.published.WithLabelValues(service, eventType, path, result).Inc()
}

func (m *Metrics) ObserveOutboxFailed(service string, eventType string) {
	if m == nil {
		return
	}
	m.outboxSwept.WithLabelValues(service, eventType).Inc()
}
