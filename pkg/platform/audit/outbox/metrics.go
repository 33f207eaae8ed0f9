package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Published           prometheus.Counter
	PublishFailures     prometheus.Counter
	CircuitBreakerState prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounter(prometheus.CounterOpts{
			Name: "blueprints_outbox_published_total",
			Help: "Outbox entries acknowledged by the broker",
		}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "blueprints_outbox_publish_failures_total",
			Help: "Relay batches that failed to publish",
		}),
		CircuitBreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "blueprints_outbox_circuit_breaker_state",
			Help: "Relay circuit breaker state (0=closed, 1=open)",
		}),
	}
}
