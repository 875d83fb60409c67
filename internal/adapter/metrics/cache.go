package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics holds Prometheus metrics for the resolved value snapshot.
// It implements storage.Observer.
type CacheMetrics struct {
	Hits            *prometheus.CounterVec
	Misses          *prometheus.CounterVec
	RebuildDuration prometheus.Histogram
	Invalidations   prometheus.Counter
}

// NewCacheMetrics creates and registers cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "hits_total",
			Help:      "Total number of snapshot lookups served, by layer.",
		}, []string{"layer"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "misses_total",
			Help:      "Total number of snapshot lookups missed, by layer.",
		}, []string{"layer"}),
		RebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of snapshot rebuilds from the repository in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "invalidations_total",
			Help:      "Total number of snapshot invalidations.",
		}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.RebuildDuration, m.Invalidations)
	return m
}

func (m *CacheMetrics) Hit(layer string) {
	m.Hits.WithLabelValues(layer).Inc()
}

func (m *CacheMetrics) Miss(layer string) {
	m.Misses.WithLabelValues(layer).Inc()
}

func (m *CacheMetrics) Rebuilt(took time.Duration) {
	m.RebuildDuration.Observe(took.Seconds())
}

func (m *CacheMetrics) Invalidated() {
	m.Invalidations.Inc()
}
