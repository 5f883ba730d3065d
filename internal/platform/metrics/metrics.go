package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersCreated    prometheus.Counter
	SeedRuns        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates all Prometheus metrics and registers them on reg. Production
// wiring passes prometheus.DefaultRegisterer; tests pass a fresh registry so
// multiple test binaries' init paths never collide on registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "arcanalyse_users_created_total",
			Help: "Total number of users created in the system",
		}),
		SeedRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arcanalyse_seed_runs_total",
			Help: "System user bootstrap runs by outcome (created, existing, error)",
		}, []string{"outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arcanalyse_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// IncrementUsersCreated increments the users created counter by 1.
func (m *Metrics) IncrementUsersCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

// RecordSeedRun counts one bootstrap run with the given outcome.
func (m *Metrics) RecordSeedRun(outcome string) {
	if m == nil {
		return
	}
	m.SeedRuns.WithLabelValues(outcome).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method, status).Observe(seconds)
}
