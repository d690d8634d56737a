// Package monitoring holds the gateway's Prometheus metrics bundle and
// the OpenTelemetry tracer handle shared across the request pipeline.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the search gateway.
type Metrics struct {
	// Latency histograms (milliseconds)
	SearchDuration    prometheus.Histogram
	EmbeddingDuration prometheus.Histogram

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// In-flight searches
	ActiveSearches prometheus.Gauge

	// Circuit breaker state per backend: 1 = open, 0 = closed/half-open
	CircuitBreakerOpen *prometheus.GaugeVec

	// Admission rejections
	RateLimited prometheus.Counter
}

// NewMetrics creates and registers all gateway metrics on the default
// registry.
func NewMetrics() *Metrics {
	return newMetrics(nil)
}

// NewMetricsWithRegistry registers on a caller-owned registry. Tests use
// this to avoid duplicate-registration panics across cases.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	if reg == nil {
		factory = promauto.With(prometheus.DefaultRegisterer)
	}

	msBuckets := []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

	return &Metrics{
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_search_duration_ms",
			Help:    "End-to-end search request duration in milliseconds",
			Buckets: msBuckets,
		}),

		EmbeddingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_embedding_duration_ms",
			Help:    "Embedding backend call duration in milliseconds",
			Buckets: msBuckets,
		}),

		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_cache_hits_total",
			Help: "Total number of search responses served from cache",
		}),

		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_cache_misses_total",
			Help: "Total number of search requests that missed the cache",
		}),

		ActiveSearches: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_active_searches",
			Help: "Number of search requests currently in flight",
		}),

		CircuitBreakerOpen: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gateway_circuit_breaker_open",
			Help: "Whether the circuit breaker for a backend is open (1) or not (0)",
		}, []string{"backend"}),

		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),
	}
}
