// Package metrics holds the Prometheus collectors for the API. HTTP traffic
// is recorded by the Metrics middleware; the domain collectors are updated
// by the handlers and the scheduler. Everything registers with the default
// registry at init and is served by promhttp at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "medfinder"

// Substitute lookup outcomes
const (
	OutcomeFound    = "found"
	OutcomeEmpty    = "empty"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Number of clients holding a rate limiter bucket",
		},
	)

	RecommendationsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_served_total",
			Help:      "Recommendation requests answered, by mode",
		},
		[]string{"mode"},
	)

	RecommendationsEmpty = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_empty_total",
			Help:      "Recommendation requests where no pharmacy stocked the medicine, by mode",
		},
		[]string{"mode"},
	)

	SubstituteLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "substitute_lookups_total",
			Help:      "Substitute lookups by outcome",
		},
		[]string{"outcome"},
	)

	CatalogMedicines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_medicines",
			Help:      "Medicines in the current catalog snapshot",
		},
	)

	Pharmacies = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pharmacies",
			Help:      "Known pharmacies, custom ones included",
		},
	)

	CatalogReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reloads_total",
			Help:      "Catalog reload attempts by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		RecommendationsServed,
		RecommendationsEmpty,
		SubstituteLookups,
		CatalogMedicines,
		Pharmacies,
		CatalogReloads,
	)
}

// RecordRecommendation counts a served recommendation and whether it was empty
func RecordRecommendation(mode string, results int) {
	RecommendationsServed.WithLabelValues(mode).Inc()
	if results == 0 {
		RecommendationsEmpty.WithLabelValues(mode).Inc()
	}
}

// RecordSubstituteLookup counts a lookup outcome
func RecordSubstituteLookup(outcome string) {
	SubstituteLookups.WithLabelValues(outcome).Inc()
}

// SetDataSizes updates the catalog and pharmacy gauges
func SetDataSizes(medicines, pharmacies int) {
	CatalogMedicines.Set(float64(medicines))
	Pharmacies.Set(float64(pharmacies))
}
