package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transition results used as the result label.
const (
	ResultApplied  = "applied"
	ResultRejected = "rejected"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// Metrics provides observability for the requests module.
type Metrics struct {
	TransitionsTotal     *prometheus.CounterVec
	RequestsCreated      prometheus.Counter
	ListRequestsDuration *prometheus.HistogramVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TransitionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blueprints_request_transitions_total",
			Help: "Transition commands by action and result",
		}, []string{"action", "result"}),
		RequestsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "blueprints_requests_created_total",
			Help: "Total number of blueprint requests created",
		}),
		ListRequestsDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blueprints_list_requests_duration_seconds",
			Help:    "Duration of ListRequests by role",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"role"}),
	}
}

func (m *Metrics) IncrementTransition(action, result string) {
	m.TransitionsTotal.WithLabelValues(action, result).Inc()
}

func (m *Metrics) IncrementRequestCreated() {
	m.RequestsCreated.Inc()
}

// ObserveListRequests records a listing. Call with time.Now() taken at the start.
func (m *Metrics) ObserveListRequests(role string, start time.Time) {
	m.ListRequestsDuration.WithLabelValues(role).Observe(time.Since(start).Seconds())
}
