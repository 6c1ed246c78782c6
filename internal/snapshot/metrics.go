package snapshot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	cacheResultHit  = "hit"
	cacheResultMiss = "miss"

	renderOutcomeOK     = "ok"
	renderOutcomeFailed = "failed"
)

// Metrics counts snapshot cache lookups and render outcomes.
type Metrics struct {
	CacheLookups   *prometheus.CounterVec
	Renders        *prometheus.CounterVec
	RenderDuration prometheus.Histogram
}

// NewMetrics registers the snapshot collectors on registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviewhub_snapshot_cache_lookups_total",
				Help: "Snapshot cache lookups by result.",
			},
			[]string{"result"},
		),
		Renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviewhub_snapshot_renders_total",
				Help: "Host page prerenders by outcome.",
			},
			[]string{"outcome"},
		),
		RenderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reviewhub_snapshot_render_duration_seconds",
				Help:    "Time spent booting widgets for a prerender.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	for _, collector := range []prometheus.Collector{metrics.CacheLookups, metrics.Renders, metrics.RenderDuration} {
		if registerErr := registerer.Register(collector); registerErr != nil {
			return nil, registerErr
		}
	}
	return metrics, nil
}

func (metrics *Metrics) observeCache(result string) {
	if metrics == nil {
		return
	}
	metrics.CacheLookups.WithLabelValues(result).Inc()
}

func (metrics *Metrics) observeRender(duration time.Duration, succeeded bool) {
	if metrics == nil {
		return
	}
	outcome := renderOutcomeOK
	if !succeeded {
		outcome = renderOutcomeFailed
	}
	metrics.Renders.WithLabelValues(outcome).Inc()
	metrics.RenderDuration.Observe(duration.Seconds())
}
