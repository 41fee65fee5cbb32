// Package metrics provides Prometheus metrics for the AIOps console API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the console API.
type Manager struct {
	namespace        string
	subsystem        string
	httpBuckets     []float64
	upstreamBuckets []float64
	enabled         bool
	refreshInterval time.Duration
	constLabels     map[string]string
	metricPrefix    string
	registry        prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// Upstream AWS
	awsCalls       *prometheus.CounterVec
	awsCallLatency *prometheus.HistogramVec
	mockFallbacks  *prometheus.CounterVec

	// Model catalog cache
	catalogHits       prometheus.Counter
	catalogMisses     prometheus.Counter
	catalogRefreshes  *prometheus.CounterVec
	catalogModelCount prometheus.Gauge

	// Inference
	bedrockInvocations *prometheus.CounterVec
	bedrockLatency     *prometheus.HistogramVec
	rcaAnalyses        *prometheus.CounterVec

	// Detector store
	detectorToggles  *prometheus.CounterVec
	detectorsTotal   *prometheus.GaugeVec
	stackSubmissions *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "aiops",
		subsystem:        "console",
		httpBuckets:     []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		upstreamBuckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		constLabels:     make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.constLabels)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("http_requests_total"),
		Help: "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("http_request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.httpBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("errors_by_endpoint_total"),
		Help: "Total number of error responses by endpoint",
	}, []string{"endpoint", "method", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("errors_by_type_total"),
		Help: "Total number of errors by type and severity",
	}, []string{"error_type", "severity"})

	m.awsCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("aws_calls_total"),
		Help: "AWS SDK calls by service, operation and outcome",
	}, []string{"service", "operation", "outcome"})

	m.awsCallLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("aws_call_latency_milliseconds"),
		Help:    "AWS SDK call latency in milliseconds",
		Buckets: m.upstreamBuckets,
	}, []string{"service", "operation"})

	m.mockFallbacks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("mock_fallbacks_total"),
		Help: "Responses served from generated data instead of AWS, by route and reason",
	}, []string{"route", "reason"})

	m.catalogHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("model_catalog_cache_hits_total"),
		Help: "Model catalog lookups served from cache",
	})

	m.catalogMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("model_catalog_cache_misses_total"),
		Help: "Model catalog lookups that required a load",
	})

	m.catalogRefreshes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("model_catalog_refreshes_total"),
		Help: "Model catalog loads by outcome",
	}, []string{"outcome"})

	m.catalogModelCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("model_catalog_models"),
		Help: "Number of models in the cached catalog",
	})

	m.bedrockInvocations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("bedrock_invocations_total"),
		Help: "Model invocations by provider family and source (bedrock or simulated)",
	}, []string{"family", "source"})

	m.bedrockLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("bedrock_invocation_latency_milliseconds"),
		Help:    "Model invocation latency in milliseconds",
		Buckets: m.upstreamBuckets,
	}, []string{"family"})

	m.rcaAnalyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("rca_analyses_total"),
		Help: "Root cause analyses by source",
	}, []string{"source"})

	m.detectorToggles = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("detector_toggles_total"),
		Help: "Anomaly detector enable/disable operations",
	}, []string{"enabled"})

	m.detectorsTotal = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("detectors"),
		Help: "Anomaly detectors tracked per environment",
	}, []string{"environment"})

	m.stackSubmissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("stack_submissions_total"),
		Help: "CloudFormation stack create submissions by outcome",
	}, []string{"outcome"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("system_memory_usage_bytes"),
		Help: "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("system_goroutine_count"),
		Help: "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("system_gc_pause_time_milliseconds"),
		Help:    "GC pause time in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordAWSCall records one SDK call. outcome is "ok" or "error".
func RecordAWSCall(service, operation, outcome string, latencyMs float64) {
	globalManager.awsCalls.WithLabelValues(service, operation, outcome).Inc()
	globalManager.awsCallLatency.WithLabelValues(service, operation).Observe(latencyMs)
}

// RecordMockFallback records a response served from generated data.
func RecordMockFallback(route, reason string) {
	globalManager.mockFallbacks.WithLabelValues(route, reason).Inc()
}

// RecordCatalogHit increments the catalog cache hit counter.
func RecordCatalogHit() {
	globalManager.catalogHits.Inc()
}

// RecordCatalogMiss increments the catalog cache miss counter.
func RecordCatalogMiss() {
	globalManager.catalogMisses.Inc()
}

// RecordCatalogRefresh records a catalog load. outcome is "ok", "stale" or "error".
func RecordCatalogRefresh(outcome string, models int) {
	globalManager.catalogRefreshes.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		globalManager.catalogModelCount.Set(float64(models))
	}
}

// RecordBedrockInvocation records a model invocation.
func RecordBedrockInvocation(family, source string, latencyMs float64) {
	globalManager.bedrockInvocations.WithLabelValues(family, source).Inc()
	if source == "bedrock" {
		globalManager.bedrockLatency.WithLabelValues(family).Observe(latencyMs)
	}
}

// RecordRCA records a root cause analysis by source.
func RecordRCA(source string) {
	globalManager.rcaAnalyses.WithLabelValues(source).Inc()
}

// RecordDetectorToggle records a detector enable/disable.
func RecordDetectorToggle(enabled bool) {
	label := "false"
	if enabled {
		label = "true"
	}
	globalManager.detectorToggles.WithLabelValues(label).Inc()
}

// UpdateDetectorCount sets the number of detectors tracked for an environment.
func UpdateDetectorCount(environment string, count int) {
	globalManager.detectorsTotal.WithLabelValues(environment).Set(float64(count))
}

// RecordStackSubmission records a stack create submission. outcome is
// "created", "duplicate" or "error".
func RecordStackSubmission(outcome string) {
	globalManager.stackSubmissions.WithLabelValues(outcome).Inc()
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

// RefreshInterval returns how often runtime gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
