// Package metrics provides Prometheus metrics for the cyclingdb rider service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the rider service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Dataset load metrics
	loadsTotal     *prometheus.CounterVec
	loadDuration   *prometheus.HistogramVec
	rowsLoaded     prometheus.Gauge
	rowsDropped    prometheus.Gauge
	bytesLoaded    prometheus.Gauge
	lastLoadUnix   prometheus.Gauge
	fetchAttempts  *prometheus.CounterVec
	fetchRetries   prometheus.Counter
	cacheWrites    *prometheus.CounterVec
	tableGenerated prometheus.Gauge

	// Query metrics
	searches      prometheus.Counter
	searchLatency prometheus.Histogram
	resultSize    prometheus.Histogram
	exports       *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System metrics
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cyclingdb",
		subsystem:        "riders",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.loadsTotal = auto.NewCounterVec(
		m.counterOpts("loads_total", "Dataset loads by source and outcome"),
		[]string{"source", "outcome"},
	)
	m.loadDuration = auto.NewHistogramVec(
		m.histogramOpts("load_duration_milliseconds", "Dataset load duration in milliseconds", m.histogramBuckets),
		[]string{"source"},
	)
	m.rowsLoaded = auto.NewGauge(m.gaugeOpts("rows_loaded", "Riders in the current table"))
	m.rowsDropped = auto.NewGauge(m.gaugeOpts("rows_dropped", "Rows dropped while parsing the current dataset"))
	m.bytesLoaded = auto.NewGauge(m.gaugeOpts("bytes_loaded", "Size of the current dataset in bytes"))
	m.lastLoadUnix = auto.NewGauge(m.gaugeOpts("last_load_timestamp_seconds", "Unix time of the last successful load"))
	m.fetchAttempts = auto.NewCounterVec(
		m.counterOpts("fetch_attempts_total", "Remote fetch attempts by outcome"),
		[]string{"outcome"},
	)
	m.fetchRetries = auto.NewCounter(m.counterOpts("fetch_retries_total", "Remote fetch retries"))
	m.cacheWrites = auto.NewCounterVec(
		m.counterOpts("cache_writes_total", "Local cache writes by outcome"),
		[]string{"outcome"},
	)
	m.tableGenerated = auto.NewGauge(m.gaugeOpts("table_generation", "Number of tables built since start"))

	m.searches = auto.NewCounter(m.counterOpts("searches_total", "Total number of searches"))
	m.searchLatency = auto.NewHistogram(
		m.histogramOpts("search_latency_milliseconds", "Search latency in milliseconds", m.histogramBuckets),
	)
	m.resultSize = auto.NewHistogram(
		m.histogramOpts("search_result_size", "Number of riders matched per search",
			prometheus.ExponentialBuckets(1, 4, 8)), //nolint:mnd // 1..16384 riders
	)
	m.exports = auto.NewCounterVec(
		m.counterOpts("exports_total", "Exports by format"),
		[]string{"format"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpErrors = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "HTTP errors by endpoint and error code"),
		[]string{"endpoint", "code"},
	)

	m.memoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "memory_usage_bytes",
		Help:        "Current heap allocation in bytes",
		ConstLabels: m.customLabels,
	})
	m.goroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "goroutines",
		Help:        "Current number of goroutines",
		ConstLabels: m.customLabels,
	})
	m.gcPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "gc_pause_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
}

// RecordLoad records a finished dataset load.
func RecordLoad(source, outcome string, durationMs float64) {
	globalManager.loadsTotal.WithLabelValues(source, outcome).Inc()
	globalManager.loadDuration.WithLabelValues(source).Observe(durationMs)
}

// UpdateTableSize sets the gauges describing the current table.
func UpdateTableSize(rows, dropped int, bytes int64, loadedAtUnix float64) {
	globalManager.rowsLoaded.Set(float64(rows))
	globalManager.rowsDropped.Set(float64(dropped))
	globalManager.bytesLoaded.Set(float64(bytes))
	globalManager.lastLoadUnix.Set(loadedAtUnix)
	globalManager.tableGenerated.Inc()
}

// RecordFetchAttempt records one remote fetch attempt.
func RecordFetchAttempt(outcome string) {
	globalManager.fetchAttempts.WithLabelValues(outcome).Inc()
}

// RecordFetchRetry increments the retry counter.
func RecordFetchRetry() {
	globalManager.fetchRetries.Inc()
}

// RecordCacheWrite records a cache write.
func RecordCacheWrite(outcome string) {
	globalManager.cacheWrites.WithLabelValues(outcome).Inc()
}

// RecordSearch records a completed search.
func RecordSearch(latencyMs float64, matched int) {
	globalManager.searches.Inc()
	globalManager.searchLatency.Observe(latencyMs)
	globalManager.resultSize.Observe(float64(matched))
}

// RecordExport increments the export counter for a format.
func RecordExport(format string) {
	globalManager.exports.WithLabelValues(format).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, code string) {
	globalManager.httpErrors.WithLabelValues(endpoint, code).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	globalManager.goroutineCount.Set(float64(n))
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.gcPauseTime.Observe(ms)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
