package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records upstream catalog traffic and snapshot cache behavior.
type CatalogMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_upstream_requests_total",
		Help: "Upstream catalog requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_upstream_request_duration_seconds",
		Help:    "Latency of upstream catalog requests, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_snapshot_cache_total",
		Help: "Catalog snapshot lookups by cache result (fresh, stale, miss, stale_on_error).",
	}, []string{"result"})
	reg.MustRegister(requests, latency, cache)
	return &CatalogMetrics{
		requests: requests,
		latency:  latency,
		cache:    cache,
	}
}

// ObserveUpstream records one logical upstream call.
func (c *CatalogMetrics) ObserveUpstream(endpoint, outcome string, duration time.Duration) {
	if c == nil || c.requests == nil {
		return
	}
	endpoint = normalizeLabel(endpoint)
	c.requests.WithLabelValues(endpoint, normalizeLabel(outcome)).Inc()
	c.latency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// IncCache counts a snapshot cache result.
func (c *CatalogMetrics) IncCache(result string) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
