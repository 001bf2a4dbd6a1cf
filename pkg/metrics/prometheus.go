package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ranking views reported on the rankings_computed_total counter.
const (
	ViewCategory = "category"
	ViewOverall  = "overall"
	ViewDivision = "division"
	viewOther    = "other"
)

// Manager manages all Prometheus metrics for the ironflow service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Ranking metrics
	rankingsComputed *prometheus.CounterVec
	rankingDuration  prometheus.Histogram
	bombOuts         prometheus.Counter

	// Records vault metrics
	recordsSet        prometheus.Counter
	recordsScans      prometheus.Counter
	recordsScanErrors prometheus.Counter

	// Store metrics
	storeLatency     *prometheus.HistogramVec
	tournamentsTotal prometheus.Gauge
	recordsTotal     prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ironflow",
		subsystem:        "rankings",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
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
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.rankingsComputed = auto.NewCounterVec(
		m.counterOpts("rankings_computed_total", "Total number of ranking computations by view"),
		[]string{"view"},
	)
	m.rankingDuration = auto.NewHistogram(
		m.histogramOpts("ranking_duration_milliseconds", "Ranking computation latency in milliseconds", m.histogramBuckets),
	)
	m.bombOuts = auto.NewCounter(
		m.counterOpts("bomb_outs_total", "Athletes ranked without a valid total"),
	)

	m.recordsSet = auto.NewCounter(
		m.counterOpts("records_set_total", "Platform records created or improved"),
	)
	m.recordsScans = auto.NewCounter(
		m.counterOpts("records_scans_total", "Finished tournaments scanned for records"),
	)
	m.recordsScanErrors = auto.NewCounter(
		m.counterOpts("records_scan_errors_total", "Record scans aborted by a store error"),
	)

	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Store operation latency in milliseconds", m.histogramBuckets),
		[]string{"op"},
	)
	m.tournamentsTotal = auto.NewGauge(
		m.gaugeOpts("tournaments_total", "Tournaments held by the store"),
	)
	m.recordsTotal = auto.NewGauge(
		m.gaugeOpts("records_total", "Platform record slots held by the store"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutine_count", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordRankingComputed increments the computation counter for a view.
// Views outside category, overall and division are folded into "other".
func RecordRankingComputed(view string) {
	switch view {
	case ViewCategory, ViewOverall, ViewDivision:
	default:
		view = viewOther
	}
	globalManager.rankingsComputed.WithLabelValues(view).Inc()
}

// RecordRankingDuration records ranking latency in milliseconds.
func RecordRankingDuration(latencyMs float64) {
	globalManager.rankingDuration.Observe(latencyMs)
}

// RecordBombOuts adds n athletes without a valid total.
func RecordBombOuts(n int) {
	if n > 0 {
		globalManager.bombOuts.Add(float64(n))
	}
}

// RecordRecordsSet adds n created or improved record slots.
func RecordRecordsSet(n int) {
	if n > 0 {
		globalManager.recordsSet.Add(float64(n))
	}
}

// RecordRecordsScan increments the records scan counter.
func RecordRecordsScan() {
	globalManager.recordsScans.Inc()
}

// RecordRecordsScanError increments the records scan error counter.
func RecordRecordsScanError() {
	globalManager.recordsScanErrors.Inc()
}

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateTournamentsTotal sets the number of stored tournaments.
func UpdateTournamentsTotal(count int) {
	globalManager.tournamentsTotal.Set(float64(count))
}

// UpdateRecordsTotal sets the number of stored record slots.
func UpdateRecordsTotal(count int) {
	globalManager.recordsTotal.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
