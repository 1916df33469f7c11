// Package metrics provides Prometheus metrics for the college API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by the recording helpers.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeDeleted   = "deleted"
	OutcomeNotFound  = "not_found"
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
)

// latencyBuckets covers fast local handlers up to slow text generation calls (ms).
var latencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000}

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Upstream calls (statistics provider, identity, text generation)
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	// Domain
	savedInserts       *prometheus.CounterVec
	savedDeletes       *prometheus.CounterVec
	recordsNormalized  prometheus.Counter
	recordsDropped     prometheus.Counter
	gradingViolations  prometheus.Counter
	extractedDocuments *prometheus.CounterVec

	// Store
	storedColleges prometheus.Gauge
	storedUsers    prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "collegeapi",
		subsystem:        "facade",
		histogramBuckets: latencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_errors_total",
		Help:      "HTTP error responses by endpoint and error type",
	}, []string{"endpoint", "error_type"})

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_requests_total",
		Help:      "Calls to external services by service and outcome",
	}, []string{"service", "outcome"})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_latency_milliseconds",
		Help:      "Latency of external service calls in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"service"})

	m.savedInserts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "saved_college_inserts_total",
		Help:      "Saved-college insert calls by outcome (created, duplicate)",
	}, []string{"outcome"})

	m.savedDeletes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "saved_college_deletes_total",
		Help:      "Saved-college delete calls by outcome (deleted, not_found)",
	}, []string{"outcome"})

	m.recordsNormalized = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "external_records_normalized_total",
		Help:      "Statistics-provider records returned after normalization",
	})

	m.recordsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "external_records_dropped_total",
		Help:      "Statistics-provider records dropped for lacking a school name",
	})

	m.gradingViolations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "grading_schema_violations_total",
		Help:      "Grading replies that deviated from the requested schema and were defaulted",
	})

	m.extractedDocuments = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "documents_extracted_total",
		Help:      "Uploaded documents by format and whether text was found",
	}, []string{"format", "outcome"})

	m.storedColleges = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "saved_colleges_stored",
		Help:      "Saved colleges currently held by the in-memory store",
	})

	m.storedUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "saved_college_users",
		Help:      "Users with at least one collection in the in-memory store",
	})
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// RecordUpstreamCall records one call to an external service.
func RecordUpstreamCall(service, outcome string, latencyMs float64) {
	globalManager.upstreamRequests.WithLabelValues(service, outcome).Inc()
	globalManager.upstreamLatency.WithLabelValues(service).Observe(latencyMs)
}

// RecordSavedInsert records an insert outcome.
func RecordSavedInsert(outcome string) {
	globalManager.savedInserts.WithLabelValues(outcome).Inc()
}

// RecordSavedDelete records a delete outcome.
func RecordSavedDelete(outcome string) {
	globalManager.savedDeletes.WithLabelValues(outcome).Inc()
}

// RecordNormalization records the result of batch-normalizing a page.
func RecordNormalization(kept, dropped int) {
	globalManager.recordsNormalized.Add(float64(kept))
	globalManager.recordsDropped.Add(float64(dropped))
}

// RecordGradingViolation counts a grading reply that needed defaulting.
func RecordGradingViolation() {
	globalManager.gradingViolations.Inc()
}

// RecordDocumentExtraction records an uploaded document extraction.
func RecordDocumentExtraction(format, outcome string) {
	globalManager.extractedDocuments.WithLabelValues(format, outcome).Inc()
}

// UpdateStoreTotals sets the in-memory store gauges.
func UpdateStoreTotals(users, colleges int) {
	globalManager.storedUsers.Set(float64(users))
	globalManager.storedColleges.Set(float64(colleges))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
