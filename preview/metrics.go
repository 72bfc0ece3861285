/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package preview

import "github.com/prometheus/client_golang/prometheus"

// CacheMetricsCollector represents a collector of page cache metrics.
type CacheMetricsCollector interface {
	// SetAmount sets the number of cached pages and the total size of their images.
	SetAmount(pages int, size uint64)

	// IncHits increments the number of pages served from the cache.
	IncHits()

	// IncMisses increments the number of pages that had to be rendered.
	IncMisses()

	// AddEvictions increments the number of pages evicted to keep the cache within its bounds.
	AddEvictions(int)
}

// PrometheusCacheMetrics represents Prometheus metrics for the page cache.
type PrometheusCacheMetrics struct {
	PagesAmount    prometheus.Gauge
	SizeBytes      prometheus.Gauge
	HitsTotal      prometheus.Counter
	MissesTotal    prometheus.Counter
	EvictionsTotal prometheus.Counter
}

// NewPrometheusCacheMetrics creates a new instance of PrometheusCacheMetrics.
func NewPrometheusCacheMetrics(namespace string) *PrometheusCacheMetrics {
	return &PrometheusCacheMetrics{
		PagesAmount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "preview_cache_pages_amount",
			Help:      "Number of rendered pages in the cache.",
		}),
		SizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "preview_cache_size_bytes",
			Help:      "Total size of cached page images.",
		}),
		HitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preview_cache_hits_total",
			Help:      "Number of pages served from the cache.",
		}),
		MissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preview_cache_misses_total",
			Help:      "Number of pages rendered by the backend.",
		}),
		EvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preview_cache_evictions_total",
			Help:      "Number of evicted pages.",
		}),
	}
}

// MustRegisterWith registers the metrics in reg and panics if any error occurs.
func (pm *PrometheusCacheMetrics) MustRegisterWith(reg prometheus.Registerer) {
	reg.MustRegister(pm.PagesAmount, pm.SizeBytes, pm.HitsTotal, pm.MissesTotal, pm.EvictionsTotal)
}

// SetAmount implements CacheMetricsCollector.
func (pm *PrometheusCacheMetrics) SetAmount(pages int, size uint64) {
	pm.PagesAmount.Set(float64(pages))
	pm.SizeBytes.Set(float64(size))
}

// IncHits implements CacheMetricsCollector.
func (pm *PrometheusCacheMetrics) IncHits() {
	pm.HitsTotal.Inc()
}

// IncMisses implements CacheMetricsCollector.
func (pm *PrometheusCacheMetrics) IncMisses() {
	pm.MissesTotal.Inc()
}

// AddEvictions implements CacheMetricsCollector.
func (pm *PrometheusCacheMetrics) AddEvictions(n int) {
	pm.EvictionsTotal.Add(float64(n))
}

type disabledCacheMetrics struct{}

func (disabledCacheMetrics) SetAmount(int, uint64) {}
func (disabledCacheMetrics) IncHits()              {}
func (disabledCacheMetrics) IncMisses()            {}
func (disabledCacheMetrics) AddEvictions(int)      {}
