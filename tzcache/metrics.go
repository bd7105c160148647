package tzcache

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	evictions   *prometheus.CounterVec
	evaluations prometheus.Counter
	active      prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tzeval_evaluator_cache_hits_total",
			Help: "Evaluations served by an existing evaluator",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tzeval_evaluator_cache_misses_total",
			Help: "Evaluations that had to create an evaluator",
		}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tzeval_evaluator_evictions_total",
			Help: "Evaluators dropped from the cache",
		}, []string{"reason"}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tzeval_evaluations_total",
			Help: "Evaluate calls handled by the registry",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tzeval_evaluators_active",
			Help: "Evaluators currently holding periods",
		}),
	}
}

// register adds the collectors to reg. Registries sharing a Registerer
// share the collectors registered first.
func (m *metrics) register(reg prometheus.Registerer) error {
	return errors.Join(
		registerOrReuse(reg, &m.hits),
		registerOrReuse(reg, &m.misses),
		registerOrReuse(reg, &m.evictions),
		registerOrReuse(reg, &m.evaluations),
		registerOrReuse(reg, &m.active),
	)
}

func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return err
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return err
	}
	*c = existing
	return nil
}
