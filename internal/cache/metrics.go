package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache outcomes per operation.
type Metrics struct {
	hits     *prometheus.CounterVec
	misses   *prometheus.CounterVec
	degraded *prometheus.CounterVec
}

// NewMetrics creates the cache counters and registers them on reg.
// A nil reg creates unregistered counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sovereign_cache_hits_total",
			Help: "Cache reads answered by the backend.",
		}, []string{"op"}),
		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sovereign_cache_misses_total",
			Help: "Cache reads that found no value.",
		}, []string{"op"}),
		degraded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sovereign_cache_degraded_total",
			Help: "Cache operations skipped because the backend was unavailable.",
		}, []string{"op"}),
	}
}

func (m *Metrics) hit(op string) {
	if m != nil {
		m.hits.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) miss(op string) {
	if m != nil {
		m.misses.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) degrade(op string) {
	if m != nil {
		m.degraded.WithLabelValues(op).Inc()
	}
}
