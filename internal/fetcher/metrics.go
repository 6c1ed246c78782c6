package fetcher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for widget data requests.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	RetriesTotal    prometheus.Counter
}

// NewMetrics constructs and registers the collectors on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewhub_widget_data_requests_total",
			Help: "Widget data requests by outcome.",
		},
		[]string{"outcome"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reviewhub_widget_data_request_duration_seconds",
			Help:    "Latency of widget data requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reviewhub_widget_data_retries_total",
			Help: "Retry attempts scheduled after failed widget data requests.",
		},
	)

	registry.MustRegister(requests, requestDuration, retries)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		RetriesTotal:    retries,
	}
}

func (metrics *Metrics) IncRequest(outcome string) {
	if metrics == nil {
		return
	}
	metrics.RequestsTotal.WithLabelValues(outcome).Inc()
}

func (metrics *Metrics) ObserveDuration(duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.RequestDuration.Observe(duration.Seconds())
}

func (metrics *Metrics) IncRetries() {
	if metrics == nil {
		return
	}
	metrics.RetriesTotal.Inc()
}
