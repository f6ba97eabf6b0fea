package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-level HTTP metrics.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	InFlight        prometheus.Gauge
}

// New creates and registers the HTTP metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "biblio_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biblio_http_requests_total",
			Help: "Total HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "biblio_http_requests_in_flight",
			Help: "Requests currently being served",
		}),
	}
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(method, route, status string, start time.Time) {
	m.RequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
}
