package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the resolution service.
// Each Metrics value carries its own registry so servers in tests do
// not trip duplicate-registration panics.
type Metrics struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates and registers the service collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semcite",
				Name:      "resolutions_total",
				Help:      "Count of resolution requests by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "semcite",
				Name:      "resolution_duration_seconds",
				Help:      "Time spent resolving a CURIE.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	m.registry.MustRegister(m.resolutions, m.duration)
	return m
}

// ObserveResolution records one resolution attempt.
func (m *Metrics) ObserveResolution(operation, outcome string, elapsed time.Duration) {
	m.resolutions.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// HTTPHandler returns the /metrics endpoint handler.
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
