// Package metrics exports container activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-ioc/framework/container"
)

// Collector counts instances the container builds and reports how many
// bindings and scopes it holds.
//
//	m := metrics.NewCollector(prometheus.NewRegistry())
//	if err := m.Observe(c); err != nil { ... }
//	router.Handle("/metrics", m.Handler())
type Collector struct {
	registry *prometheus.Registry
	built    *prometheus.CounterVec
}

// NewCollector creates a collector registering into reg. A nil reg gets a
// fresh registry.
func NewCollector(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Collector{
		registry: reg,
		built: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ioc",
			Name:      "instances_built_total",
			Help:      "Instances constructed by the container, by service key.",
		}, []string{"key"}),
	}
}

// Observe registers the collector's metrics for c and subscribes to its
// construction events.
func (m *Collector) Observe(c *container.Container) error {
	scopes := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "ioc",
		Name:      "active_scopes",
		Help:      "Scopes currently open.",
	}, func() float64 { return float64(c.ActiveScopes()) })

	bindings := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "ioc",
		Name:      "bindings",
		Help:      "Service keys currently registered.",
	}, func() float64 { return float64(len(c.Bindings())) })

	for _, col := range []prometheus.Collector{m.built, scopes, bindings} {
		if err := m.registry.Register(col); err != nil {
			return err
		}
	}

	c.AfterResolving(func(key string, _ any) {
		m.built.WithLabelValues(key).Inc()
	})
	return nil
}

// Registry returns the underlying Prometheus registry.
func (m *Collector) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
