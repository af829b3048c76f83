package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics covers the request path: catalog cache, shipping quotes,
// checkout sessions and HTTP latency.
type StorefrontMetrics struct {
	catalogLookups   *prometheus.CounterVec
	catalogFailures  prometheus.Counter
	shippingQuotes   *prometheus.CounterVec
	checkoutSessions *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewStorefrontMetrics registers the collectors. A nil registerer yields a
// no-op value whose methods are safe to call.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	m := &StorefrontMetrics{
		catalogLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by result.",
		}, []string{"result"}),
		catalogFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_catalog_refresh_failures_total",
			Help: "Catalog refreshes that failed and fell back to cached or empty data.",
		}),
		shippingQuotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_shipping_quotes_total",
			Help: "Shipping quotes by source (printful or fallback).",
		}, []string{"source"}),
		checkoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_checkout_sessions_total",
			Help: "Checkout session attempts by outcome.",
		}, []string{"outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.catalogLookups, m.catalogFailures, m.shippingQuotes, m.checkoutSessions, m.httpDuration)
	return m
}

func (m *StorefrontMetrics) CatalogCacheHit() {
	if m == nil || m.catalogLookups == nil {
		return
	}
	m.catalogLookups.WithLabelValues("hit").Inc()
}

func (m *StorefrontMetrics) CatalogCacheMiss() {
	if m == nil || m.catalogLookups == nil {
		return
	}
	m.catalogLookups.WithLabelValues("miss").Inc()
}

func (m *StorefrontMetrics) CatalogRefreshFailed() {
	if m == nil || m.catalogFailures == nil {
		return
	}
	m.catalogFailures.Inc()
}

// ShippingQuote counts a quote served from source.
func (m *StorefrontMetrics) ShippingQuote(source string) {
	if m == nil || m.shippingQuotes == nil {
		return
	}
	m.shippingQuotes.WithLabelValues(normalizeLabel(source)).Inc()
}

// CheckoutSession counts a checkout attempt, e.g. "created", "rejected", "failed".
func (m *StorefrontMetrics) CheckoutSession(outcome string) {
	if m == nil || m.checkoutSessions == nil {
		return
	}
	m.checkoutSessions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveHTTP records one served request.
func (m *StorefrontMetrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil || m.httpDuration == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(d.Seconds())
}
