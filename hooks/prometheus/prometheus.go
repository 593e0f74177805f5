// Package prometheus provides tiercache.Hooks backed by Prometheus counters.
package prometheus

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/tiercache"
)

// Hooks counts pool events. Keys are never used as labels.
type Hooks struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	corrupt       prometheus.Counter
	serialization *prometheus.CounterVec
	rejected      prometheus.Counter
	pending       prometheus.Gauge
}

// Compile-time check that Hooks implements tiercache.Hooks.
var _ tiercache.Hooks = (*Hooks)(nil)

// New registers the metrics with registry under namespace (for example
// "myapp" yields myapp_tiercache_item_hits_total). If registry is nil,
// prometheus.DefaultRegisterer is used. Metrics that are already registered
// are reused, so several pools can share one registry.
func New(registry prometheus.Registerer, namespace string) *Hooks {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return register(registry, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tiercache",
			Name:      name,
			Help:      help,
		}))
	}
	return &Hooks{
		hits:     counter("item_hits_total", "Items loaded with a value."),
		misses:   counter("item_misses_total", "Items not found, expired or without a value."),
		corrupt:  counter("corrupt_records_total", "Records that failed validation and were deleted."),
		rejected: counter("save_rejected_total", "Saves the store reported as not persisted."),
		serialization: register(registry, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tiercache",
			Name:      "serialization_failures_total",
			Help:      "Codec failures by direction.",
		}, []string{"op"})),
		pending: register(registry, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tiercache",
			Name:      "commit_pending",
			Help:      "Items left queued by the last incomplete commit.",
		})),
	}
}

func (h *Hooks) ItemHit(string)               { h.hits.Inc() }
func (h *Hooks) ItemMiss(string)              { h.misses.Inc() }
func (h *Hooks) CorruptRecord(string, error)  { h.corrupt.Inc() }
func (h *Hooks) SaveRejected(string)          { h.rejected.Inc() }
func (h *Hooks) CommitIncomplete(pending int) { h.pending.Set(float64(pending)) }
func (h *Hooks) SerializationFailed(_, op string, _ error) {
	h.serialization.WithLabelValues(op).Inc()
}

// register returns the collector already registered under the same
// descriptor, if any.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		// Fallback: use the unregistered collector (metric works, not exported).
	}
	return c
}
