// Package metrics exposes Prometheus collectors for catalog sync runs.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	syncRunsTotal          *prometheus.CounterVec
	syncDurationSeconds    prometheus.Histogram
	pagesFetchedTotal      *prometheus.CounterVec
	productsExtractedTotal prometheus.Counter
	imageDownloadsTotal    *prometheus.CounterVec
	catalogProducts        prometheus.Gauge
	catalogCategories      prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		syncRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_sync_runs_total",
				Help: "Total number of sync runs, labeled by outcome.",
			},
			[]string{"status"},
		)

		syncDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalog_sync_duration_seconds",
				Help:    "Histogram of sync run durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
		)

		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_pages_fetched_total",
				Help: "Total number of storefront pages requested, labeled by result.",
			},
			[]string{"status"},
		)

		productsExtractedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_products_extracted_total",
				Help: "Total number of product containers successfully parsed.",
			},
		)

		imageDownloadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_image_downloads_total",
				Help: "Total number of image cache lookups, labeled by outcome.",
			},
			[]string{"status"},
		)

		catalogProducts = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_products",
				Help: "Number of products in the last persisted snapshot.",
			},
		)

		catalogCategories = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_categories",
				Help: "Number of categories in the last persisted snapshot.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveSync records the outcome and duration of one sync run.
func ObserveSync(status string, duration time.Duration) {
	Init()
	syncRunsTotal.WithLabelValues(status).Inc()
	syncDurationSeconds.Observe(duration.Seconds())
}

// ObservePage increments the page fetch counter.
func ObservePage(status string) {
	Init()
	pagesFetchedTotal.WithLabelValues(status).Inc()
}

// ObserveProducts adds n parsed products.
func ObserveProducts(n int) {
	Init()
	if n > 0 {
		productsExtractedTotal.Add(float64(n))
	}
}

// ObserveImage increments the image cache counter ("downloaded", "cached", "fallback").
func ObserveImage(status string) {
	Init()
	imageDownloadsTotal.WithLabelValues(status).Inc()
}

// SetCatalogSize publishes the size of the persisted snapshot.
func SetCatalogSize(products, categories int) {
	Init()
	catalogProducts.Set(float64(products))
	catalogCategories.Set(float64(categories))
}
