package metrics

import "github.com/prometheus/client_golang/prometheus"

// Catalog gateway and pipeline Prometheus metrics.
var (
	CatalogRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recollect",
			Name:      "catalog_requests_total",
			Help:      "Total number of catalog API requests",
		},
		[]string{"provider", "endpoint", "status"},
	)

	CatalogRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recollect",
			Name:      "catalog_request_duration_seconds",
			Help:      "Catalog API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"provider", "endpoint"},
	)

	CatalogItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recollect",
			Name:      "catalog_items_total",
			Help:      "Normalized catalog items returned per facet",
		},
		[]string{"provider", "facet"},
	)

	SearchOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recollect",
			Name:      "search_outcomes_total",
			Help:      "Search requests by mode and outcome",
		},
		[]string{"mode", "outcome"}, // outcome: "results" / "empty" / "error"
	)
)

var catalogMetricsRegistered bool

// RegisterCatalogMetrics registers Prometheus catalog and pipeline metrics. Must be called once from main.
func RegisterCatalogMetrics() {
	if catalogMetricsRegistered {
		return
	}
	prometheus.MustRegister(CatalogRequestsTotal)
	prometheus.MustRegister(CatalogRequestDuration)
	prometheus.MustRegister(CatalogItemsTotal)
	prometheus.MustRegister(SearchOutcomesTotal)
	catalogMetricsRegistered = true
}
