package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Scraper metrics
	ScraperRequestsTotal   *prometheus.CounterVec
	ScraperDurationSeconds *prometheus.HistogramVec

	// Geocoder cache metrics
	GeocodeCacheHitsTotal   *prometheus.CounterVec
	GeocodeCacheMissesTotal *prometheus.CounterVec

	// Analysis metrics
	AnalysesTotal           *prometheus.CounterVec
	AnalysisDurationSeconds prometheus.Histogram
	ComparisonsComputed     *prometheus.CounterVec

	// Import metrics
	ImportRowsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Data integrity metrics
	ProfileDataIntegrity *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Scraper metrics
		ScraperRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "collegeradar_scraper_requests_total",
				Help: "Total number of scraper requests by strategy and status",
			},
			[]string{"strategy", "status"}, // status: success, error, timeout, not_found
		),

		ScraperDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "collegeradar_scraper_duration_seconds",
				Help:    "Scraper request duration in seconds by strategy",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"strategy"}, // strategy: selectors, jsonld, headers, links
		),

		// Geocoder cache metrics
		GeocodeCacheHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "collegeradar_geocode_cache_hits_total",
				Help: "Total number of geocoder cache hits by source",
			},
			[]string{"source"}, // source: memory, disk
		),

		GeocodeCacheMissesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "collegeradar_geocode_cache_misses_total",
				Help: "Total number of geocoder cache misses by source",
			},
			[]string{"source"},
		),

		// Analysis metrics
		AnalysesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "collegeradar_analyses_total",
				Help: "Total number of analysis runs by status",
			},
			[]string{"status"}, // status: success, error
		),

		AnalysisDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "collegeradar_analysis_duration_seconds",
				Help:    "Total duration of a full analysis run",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),

		ComparisonsComputed: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "collegeradar_comparisons_computed_total",
				Help: "Total number of college comparisons computed by competition level",
			},
			[]string{"level"}, // level: high, medium, low, none
		),

		// Import metrics
		ImportRowsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "collegeradar_import_rows_total",
				Help: "Total number of CSV rows processed by status",
			},
			[]string{"status"}, // status: imported, skipped, error
		),

		// HTTP metrics
		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "collegeradar_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: timeout, rate_limit, bad_request, etc.
		),

		// Data integrity metrics
		ProfileDataIntegrity: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "collegeradar_profile_data_integrity_issues_total",
				Help: "Total number of college profile data integrity issues detected",
			},
			[]string{"issue_type"}, // issue_type: missing_name, no_programs, bad_rate, etc.
		),
	}

	return m
}

// RecordScraperRequest records a scraper request with status
func (m *Metrics) RecordScraperRequest(strategy, status string, duration float64) {
	m.ScraperRequestsTotal.WithLabelValues(strategy, status).Inc()
	m.ScraperDurationSeconds.WithLabelValues(strategy).Observe(duration)
}

// RecordGeocodeCacheHit records a geocoder cache hit
func (m *Metrics) RecordGeocodeCacheHit(source string) {
	m.GeocodeCacheHitsTotal.WithLabelValues(source).Inc()
}

// RecordGeocodeCacheMiss records a geocoder cache miss
func (m *Metrics) RecordGeocodeCacheMiss(source string) {
	m.GeocodeCacheMissesTotal.WithLabelValues(source).Inc()
}

// RecordAnalysis records a completed analysis run
func (m *Metrics) RecordAnalysis(status string, duration float64) {
	m.AnalysesTotal.WithLabelValues(status).Inc()
	m.AnalysisDurationSeconds.Observe(duration)
}

// RecordComparison records a computed comparison by competition level
func (m *Metrics) RecordComparison(level string) {
	m.ComparisonsComputed.WithLabelValues(level).Inc()
}

// RecordImportRow records a processed CSV import row
func (m *Metrics) RecordImportRow(status string) {
	m.ImportRowsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, module string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordProfileIntegrityIssue records a college profile data integrity issue
func (m *Metrics) RecordProfileIntegrityIssue(issueType string) {
	m.ProfileDataIntegrity.WithLabelValues(issueType).Inc()
}
