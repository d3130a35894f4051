package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCounters backs Counters with a prometheus CounterVec
// labeled by the full counter name. A label value outside the fixed
// set this package defines is still accepted: Prometheus counters
// have no fixed cardinality ceiling, so this adapter doesn't gate on
// it.
type PrometheusCounters struct {
	vec *prometheus.CounterVec

	mu       sync.Mutex
	degraded bool
}

// NewPrometheusCounters builds and registers the counter vector
// against reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewPrometheusCounters(reg prometheus.Registerer) *PrometheusCounters {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hss",
		Name:      "counter_total",
		Help:      "S6a request/answer counters keyed by route and outcome.",
	}, []string{"counter"})

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				vec = existing
			}
		}
	}
	return &PrometheusCounters{vec: vec}
}

// Incr increments the counter named by name. A backend error (which
// prometheus's client never actually returns from WithLabelValues,
// but a future swapped-in implementation might) is swallowed: metrics
// must never be able to fail a Diameter exchange.
func (p *PrometheusCounters) Incr(name string) {
	defer func() {
		if r := recover(); r != nil {
			p.mu.Lock()
			p.degraded = true
			p.mu.Unlock()
		}
	}()
	p.vec.WithLabelValues(name).Inc()
}
