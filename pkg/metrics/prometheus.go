// Package metrics provides Prometheus metrics for the refinery pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	registry  prometheus.Registerer

	// Session pipeline outcomes
	sessionsProcessed prometheus.Counter
	sessionsFailed    prometheus.Counter
	sessionsPartial   prometheus.Counter
	pipelineDuration  prometheus.Histogram

	// Data quality
	malformedRecords prometheus.Counter
	playersSkipped   prometheus.Counter
	triggerDuplicate prometheus.Counter

	// Shared-store transactions
	storeTxRetries  prometheus.Counter
	storeTxFailures prometheus.Counter

	// Trigger queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueRejects     prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "neurorace",
		subsystem: "refinery",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sessionsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_processed_total",
		Help:      "Total number of sessions processed end to end",
	})
	m.sessionsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_failed_total",
		Help:      "Total number of sessions abandoned before producing KPIs",
	})
	m.sessionsPartial = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_partial_total",
		Help:      "Sessions whose shared-store writes failed and were flagged for reconciliation",
	})
	m.pipelineDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_duration_seconds",
		Help:      "Histogram of per-session pipeline duration in seconds",
		Buckets:   m.buckets,
	})

	m.malformedRecords = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "malformed_records_total",
		Help:      "Raw jsonl lines skipped because they failed to parse",
	})
	m.playersSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_skipped_total",
		Help:      "Players skipped for having no valid-signal readings",
	})
	m.triggerDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trigger_duplicate_total",
		Help:      "Duplicate session triggers detected and dropped",
	})

	m.storeTxRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_tx_retries_total",
		Help:      "Optimistic-concurrency conflicts that forced a retry",
	})
	m.storeTxFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_tx_failures_total",
		Help:      "Transactions that exhausted their retry budget",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trigger_queue_size",
		Help:      "Current number of queued session triggers",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trigger_queue_capacity",
		Help:      "Configured trigger queue capacity",
	})
	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trigger_queue_utilization",
		Help:      "Queue size divided by capacity",
	})
	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trigger_queue_enqueues_total",
		Help:      "Triggers accepted into the queue",
	})
	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trigger_queue_dequeues_total",
		Help:      "Triggers handed to workers",
	})
	m.queueRejects = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trigger_queue_rejects_total",
		Help:      "Triggers rejected due to backpressure or a closed queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of session workers",
	})
	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_seconds",
		Help:      "Histogram of per-trigger worker processing latency in seconds",
		Buckets:   m.buckets,
	})
	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Errors returned by the session pipeline",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration by endpoint, method and status",
		Buckets:   m.buckets,
	}, []string{"endpoint", "method", "status"})
}

// GetRegistry returns the registry metrics are exposed from.
func GetRegistry() *prometheus.Registry { return customRegistry }

// Package-level recording helpers delegating to the global manager.

func RecordSessionProcessed()  { globalManager.sessionsProcessed.Inc() }
func RecordSessionFailed()     { globalManager.sessionsFailed.Inc() }
func RecordSessionPartial()    { globalManager.sessionsPartial.Inc() }
func RecordMalformedRecord()   { globalManager.malformedRecords.Inc() }
func RecordPlayerSkipped()     { globalManager.playersSkipped.Inc() }
func RecordTriggerDuplicate()  { globalManager.triggerDuplicate.Inc() }
func RecordStoreTxRetry()      { globalManager.storeTxRetries.Inc() }
func RecordStoreTxFailure()    { globalManager.storeTxFailures.Inc() }
func RecordQueueEnqueue()      { globalManager.queueEnqueues.Inc() }
func RecordQueueDequeue()      { globalManager.queueDequeues.Inc() }
func RecordQueueReject()       { globalManager.queueRejects.Inc() }
func RecordWorkerError()       { globalManager.workerErrors.Inc() }

func RecordPipelineDuration(seconds float64) { globalManager.pipelineDuration.Observe(seconds) }
func RecordWorkerProcessingLatency(seconds float64) {
	globalManager.workerProcessingLatency.Observe(seconds)
}

func UpdateQueueSize(n int)             { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int)         { globalManager.queueCapacity.Set(float64(n)) }
func UpdateQueueUtilization(u float64)  { globalManager.queueUtilization.Set(u) }
func UpdateWorkerCount(n int)           { globalManager.workerCount.Set(float64(n)) }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}
