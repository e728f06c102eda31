// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Provider metrics
	ProviderFetchesTotal  *prometheus.CounterVec
	ProviderFetchDuration *prometheus.HistogramVec
	IncentivesFetched     *prometheus.CounterVec
	ProviderHealthy       *prometheus.GaugeVec

	// Aggregation metrics
	AggregationsTotal   *prometheus.CounterVec
	AggregationDuration prometheus.Histogram
	IncentivesMerged    prometheus.Counter
	IncentivesServed    prometheus.Counter

	// Pricing metrics
	PriceResolutionsTotal *prometheus.CounterVec
	RPCCallLatency        *prometheus.HistogramVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulAggregation prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "incentive_hub"
	}

	return &Metrics{
		// Provider metrics
		ProviderFetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetches_total",
			Help:      "Total number of provider fetches by source and status",
		}, []string{"source", "status"}),
		ProviderFetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_duration_seconds",
			Help:      "Provider fetch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		IncentivesFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "incentives_fetched_total",
			Help:      "Total number of raw incentives fetched by source",
		}, []string{"source"}),
		ProviderHealthy: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "healthy",
			Help:      "Whether a provider's last health probe succeeded (1) or failed (0)",
		}, []string{"source"}),

		// Aggregation metrics
		AggregationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "runs_total",
			Help:      "Total number of aggregation runs by status",
		}, []string{"status"}),
		AggregationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "duration_seconds",
			Help:      "Aggregation run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		IncentivesMerged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "incentives_merged_total",
			Help:      "Total number of duplicate incentives collapsed by the merge step",
		}),
		IncentivesServed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "incentives_served_total",
			Help:      "Total number of incentives returned to callers",
		}),

		// Pricing metrics
		PriceResolutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "resolutions_total",
			Help:      "Total number of price resolutions by fetcher and outcome",
		}, []string{"fetcher", "outcome"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "rpc_call_latency_seconds",
			Help:      "JSON-RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Cache metrics
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits by cache name",
		}, []string{"cache"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses by cache name",
		}, []string{"cache"}),

		// HTTP metrics
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),

		// Health metrics
		LastSuccessfulAggregation: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_aggregation_timestamp",
			Help:      "Unix timestamp of the last aggregation run that reached every provider",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordProviderFetch records one provider fetch attempt.
func RecordProviderFetch(source, status string, seconds float64, count int) {
	DefaultMetrics.ProviderFetchesTotal.WithLabelValues(source, status).Inc()
	DefaultMetrics.ProviderFetchDuration.WithLabelValues(source).Observe(seconds)
	if count > 0 {
		DefaultMetrics.IncentivesFetched.WithLabelValues(source).Add(float64(count))
	}
}

// RecordProviderHealth records a provider health probe result.
func RecordProviderHealth(source string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	DefaultMetrics.ProviderHealthy.WithLabelValues(source).Set(v)
}

// RecordAggregation records one aggregation run.
func RecordAggregation(status string, seconds float64, merged, served int) {
	DefaultMetrics.AggregationsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.AggregationDuration.Observe(seconds)
	DefaultMetrics.IncentivesMerged.Add(float64(merged))
	DefaultMetrics.IncentivesServed.Add(float64(served))
}

// RecordPriceResolution records a price fetcher outcome.
func RecordPriceResolution(fetcher, outcome string) {
	DefaultMetrics.PriceResolutionsTotal.WithLabelValues(fetcher, outcome).Inc()
}

// RecordRPCLatency records JSON-RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		DefaultMetrics.CacheHits.WithLabelValues(cache).Inc()
	} else {
		DefaultMetrics.CacheMisses.WithLabelValues(cache).Inc()
	}
}

// RecordHTTPRequest records an HTTP request duration.
func RecordHTTPRequest(route, method, status string, seconds float64) {
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route, method, status).Observe(seconds)
}

// MarkAggregationSuccess stamps the last full-coverage aggregation time.
func MarkAggregationSuccess(unix int64) {
	DefaultMetrics.LastSuccessfulAggregation.Set(float64(unix))
}
