package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConfigMetrics counts configuration writes.
type ConfigMetrics struct {
	Writes *prometheus.CounterVec
}

// NewConfigMetrics creates and registers write metrics on the given registry.
func NewConfigMetrics(reg prometheus.Registerer) *ConfigMetrics {
	m := &ConfigMetrics{
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_writes_total",
			Help:      "Total number of configuration writes, by operation and result.",
		}, []string{"operation", "result"}),
	}

	reg.MustRegister(m.Writes)
	return m
}

// Record counts one write. result is "ok" or the error kind.
func (m *ConfigMetrics) Record(operation, result string) {
	m.Writes.WithLabelValues(operation, result).Inc()
}
