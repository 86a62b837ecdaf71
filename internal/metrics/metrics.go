// Package metrics provides Prometheus metrics for the price tracker.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricetracker_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricetracker_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Collection Run Metrics
	CollectionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricetracker_collection_runs_total",
			Help: "Total number of collection runs by outcome",
		},
		[]string{"outcome"}, // "completed" or "skipped_overlap"
	)

	CollectionRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricetracker_collection_run_duration_seconds",
			Help:    "Time taken for one full collection run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	PriceRecordsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricetracker_price_records_created_total",
			Help: "Price records created at ingestion, by classification",
		},
		[]string{"status"}, // "ACTIVE" or "INACTIVE"
	)

	DuplicateListingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricetracker_duplicate_listings_total",
			Help: "Listings skipped because their (item, date, url) key already exists",
		},
	)

	ItemsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricetracker_items_skipped_total",
			Help: "Items skipped during collection (no data or item-scoped failure)",
		},
	)

	LastCollectionTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricetracker_last_collection_timestamp_seconds",
			Help: "Unix time of the last completed collection run",
		},
	)

	// Upstream Feed Metrics
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricetracker_feed_requests_total",
			Help: "Upstream trade feed requests by result",
		},
		[]string{"result"}, // "success", "http_error", "transport_error", "parse_error"
	)

	// Revalidation Metrics
	RevalidationRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricetracker_revalidation_runs_total",
			Help: "Total number of revalidation batch runs",
		},
	)

	RevalidationDemotionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricetracker_revalidation_demotions_total",
			Help: "Records demoted ACTIVE -> INACTIVE by revalidation",
		},
	)

	// Catalog Metrics
	ItemsTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricetracker_items_tracked",
			Help: "Number of items in the catalog",
		},
	)

	PriceRecordsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricetracker_price_records_stored",
			Help: "Total number of stored price records",
		},
	)
)

// UpdateCatalogMetrics refreshes the catalog size gauges from the database.
// Called after each collection run.
func UpdateCatalogMetrics(db *gorm.DB) {
	var items, records int64
	db.Table("items").Count(&items)
	db.Table("price_records").Count(&records)
	ItemsTracked.Set(float64(items))
	PriceRecordsStored.Set(float64(records))
}
