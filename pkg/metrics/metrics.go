package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec

	// Scrape Metrics
	ScrapeCitiesTotal  *prometheus.CounterVec
	ScrapeTowersTotal  prometheus.Counter
	ScrapeDuration     prometheus.Histogram
	ScrapeErrorsTotal  *prometheus.CounterVec
	ScrapeTowersByCity prometheus.Histogram

	// Storage Metrics
	DocumentsLoadedTotal *prometheus.CounterVec
	DocumentLoadDuration *prometheus.HistogramVec
	DBQueryDuration      *prometheus.HistogramVec
	DBConnectionPool     *prometheus.GaugeVec
	DBErrorsTotal        *prometheus.CounterVec

	// Ranking Metrics
	RankingBuildDuration *prometheus.HistogramVec
	CacheRequestsTotal   *prometheus.CounterVec
}

// NewCollector creates a collector registered with the default prometheus registry
func NewCollector(namespace string) *Collector {
	return NewCollectorWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector registered with reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewCollectorWithRegistry(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"endpoint"},
		),

		APIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors by type",
			},
			[]string{"error_type", "endpoint"},
		),

		ScrapeCitiesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scrape_cities_total",
				Help:      "Cities scraped by outcome (saved, empty, failed)",
			},
			[]string{"outcome"},
		),

		ScrapeTowersTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scrape_towers_total",
				Help:      "Total number of towers kept after trimming",
			},
		),

		ScrapeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scrape_city_duration_seconds",
				Help:      "Duration of fetching and storing one city",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),

		ScrapeErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scrape_errors_total",
				Help:      "Total number of scrape errors by type",
			},
			[]string{"error_type"},
		),

		ScrapeTowersByCity: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scrape_towers_per_city",
				Help:      "Number of towers kept per scraped city",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			},
		),

		DocumentsLoadedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_loaded_total",
				Help:      "City documents loaded by storage backend",
			},
			[]string{"backend"},
		),

		DocumentLoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_load_duration_seconds",
				Help:      "Duration of loading a set of city documents",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"backend"},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database query duration in seconds by query type",
				Buckets:   []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5},
			},
			[]string{"query_type"},
		),

		DBConnectionPool: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"state"}, // "in_use", "idle", "total"
		),

		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_errors_total",
				Help:      "Total number of database errors by type",
			},
			[]string{"error_type"},
		),

		RankingBuildDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ranking_build_duration_seconds",
				Help:      "Duration of building a ranking aggregate by level",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"level"},
		),

		CacheRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Response cache lookups by result (hit, miss, error)",
			},
			[]string{"result"},
		),
	}
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPIError increments API error counter
func (c *Collector) RecordAPIError(errorType, endpoint string) {
	c.APIErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordScrapedCity counts a scraped city and its kept towers
func (c *Collector) RecordScrapedCity(outcome string, towers int) {
	c.ScrapeCitiesTotal.WithLabelValues(outcome).Inc()
	c.ScrapeTowersTotal.Add(float64(towers))
	c.ScrapeTowersByCity.Observe(float64(towers))
}

// RecordScrapeError increments scrape error counter
func (c *Collector) RecordScrapeError(errorType string) {
	c.ScrapeErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordDocumentsLoaded counts documents read from a backend
func (c *Collector) RecordDocumentsLoaded(backend string, n int) {
	c.DocumentsLoadedTotal.WithLabelValues(backend).Add(float64(n))
}

// RecordDBError increments database error counter
func (c *Collector) RecordDBError(errorType string) {
	c.DBErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordCacheResult counts a cache lookup
func (c *Collector) RecordCacheResult(result string) {
	c.CacheRequestsTotal.WithLabelValues(result).Inc()
}

// UpdateDBConnectionPool updates database connection pool metrics
func (c *Collector) UpdateDBConnectionPool(inUse, idle, total int) {
	c.DBConnectionPool.WithLabelValues("in_use").Set(float64(inUse))
	c.DBConnectionPool.WithLabelValues("idle").Set(float64(idle))
	c.DBConnectionPool.WithLabelValues("total").Set(float64(total))
}
