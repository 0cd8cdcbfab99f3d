package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutations and slot persistence outcomes.
type CartMetrics struct {
	mutations      *prometheus.CounterVec
	persistFailure *prometheus.CounterVec
	loadFallback   *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations applied, by operation.",
	}, []string{"op"})
	persistFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Write-through failures against the cart slot, by operation.",
	}, []string{"op"})
	loadFallback := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_slot_load_fallback_total",
		Help: "Cart slot loads that fell back to an empty cart, by reason.",
	}, []string{"reason"})
	reg.MustRegister(mutations, persistFailure, loadFallback)
	return &CartMetrics{
		mutations:      mutations,
		persistFailure: persistFailure,
		loadFallback:   loadFallback,
	}
}

// IncMutation counts one applied mutation.
func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncPersistFailure counts one failed write-through.
func (c *CartMetrics) IncPersistFailure(op string) {
	if c == nil || c.persistFailure == nil {
		return
	}
	c.persistFailure.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncLoadFallback counts one slot read that degraded to an empty cart.
func (c *CartMetrics) IncLoadFallback(reason string) {
	if c == nil || c.loadFallback == nil {
		return
	}
	c.loadFallback.WithLabelValues(normalizeLabel(reason)).Inc()
}

// CatalogMetrics records upstream catalog fetches.
type CatalogMetrics struct {
	duration *prometheus.HistogramVec
	fetches  *prometheus.CounterVec
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_fetch_duration_seconds",
		Help:    "Duration of upstream catalog fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fetch_total",
		Help: "Upstream catalog fetches, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, fetches)
	return &CatalogMetrics{duration: duration, fetches: fetches}
}

// ObserveFetch records one upstream fetch and its outcome.
func (c *CatalogMetrics) ObserveFetch(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.duration.WithLabelValues(label).Observe(duration.Seconds())
	c.fetches.WithLabelValues(label).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
