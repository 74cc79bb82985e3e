// Package metrics provides Prometheus metrics collection for the type
// registry. The Collector implements registry.Observer, so the core stays
// free of any metrics dependency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/artpar/typekit/core/registry"
)

// Collector holds all Prometheus metrics for typekit.
type Collector struct {
	// Resolution metrics
	ResolutionsTotal   *prometheus.CounterVec
	CacheHitsTotal     *prometheus.CounterVec
	ResolveErrorsTotal *prometheus.CounterVec

	// Registry lifecycle metrics
	RegistrySwaps   prometheus.Counter
	RegisteredTypes prometheus.Gauge
	ResolvedTypes   prometheus.Gauge
}

// New creates a new metrics collector registered on the default registerer.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector registered on the given
// registerer.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "typekit",
				Name:      "resolutions_total",
				Help:      "Total number of concrete type resolutions that missed the cache",
			},
			[]string{"type"},
		),
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "typekit",
				Name:      "cache_hits_total",
				Help:      "Total number of resolutions served from the concrete cache",
			},
			[]string{"type"},
		),
		ResolveErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "typekit",
				Name:      "resolve_errors_total",
				Help:      "Total number of failed resolutions",
			},
			[]string{"type"},
		),
		RegistrySwaps: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "typekit",
				Name:      "registry_swaps_total",
				Help:      "Total number of hot-reload registry swaps",
			},
		),
		RegisteredTypes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "typekit",
				Name:      "registered_templates",
				Help:      "Number of templates in the current registry",
			},
		),
		ResolvedTypes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "typekit",
				Name:      "resolved_types",
				Help:      "Number of concrete types in the current registry cache",
			},
		),
	}
}

// ResolveStarted implements registry.Observer.
func (c *Collector) ResolveStarted(serialName string) {
	c.ResolutionsTotal.WithLabelValues(serialName).Inc()
}

// CacheHit implements registry.Observer.
func (c *Collector) CacheHit(serialName string) {
	c.CacheHitsTotal.WithLabelValues(serialName).Inc()
}

// ResolveFailed implements registry.Observer.
func (c *Collector) ResolveFailed(serialName string, _ error) {
	c.ResolveErrorsTotal.WithLabelValues(serialName).Inc()
}

// ObserveSwap records a registry hot swap and refreshes the gauges.
// Intended for use as a loader.Holder OnSwap callback.
func (c *Collector) ObserveSwap(reg *registry.Registry) {
	c.RegistrySwaps.Inc()
	c.RegisteredTypes.Set(float64(len(reg.Templates())))
	c.ResolvedTypes.Set(float64(reg.ResolvedCount()))
}
