// Package metrics provides Prometheus metrics for the tally engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Ingestion
	ticketsIngested     *prometheus.CounterVec
	ticketsDuplicate    *prometheus.CounterVec
	ticketsRejected     *prometheus.CounterVec
	ticketsUnclassified *prometheus.CounterVec

	// Units
	unitsBuilt      *prometheus.CounterVec
	unitsIncomplete *prometheus.CounterVec

	// Runs
	runDuration      *prometheus.HistogramVec
	runs             *prometheus.CounterVec
	rowsUpserted     *prometheus.CounterVec
	percentageFilled *prometheus.GaugeVec
	lastRunUnix      *prometheus.GaugeVec

	// Queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueDequeued prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerPartitions        prometheus.Counter
	workerProcessingLatency prometheus.Histogram

	// Store
	storeApplyLatency prometheus.Histogram
	storeQueryLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec
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
		namespace:        "tally",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.ticketsIngested = m.counterVec("tickets_ingested_total", "Raw tickets read from the source", "region")
	m.ticketsDuplicate = m.counterVec("tickets_duplicate_total", "Tickets dropped as repeated ticket ids", "region")
	m.ticketsRejected = m.counterVec("tickets_rejected_total", "Tickets rejected for structural failures", "region", "reason")
	m.ticketsUnclassified = m.counterVec("tickets_unclassified_total", "Tickets no rule matched", "region")

	m.unitsBuilt = m.counterVec("units_built_total", "Participant units built", "region", "family")
	m.unitsIncomplete = m.counterVec("units_incomplete_total", "Incomplete units by reason", "region", "reason")

	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Duration of a region run",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"region"})
	m.runs = m.counterVec("runs_total", "Region runs by status", "region", "status")
	m.rowsUpserted = m.counterVec("rows_upserted_total", "Summary rows written", "region")
	m.percentageFilled = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "percentage_filled",
		Help:        "Capacity fill percentage per summary key",
		ConstLabels: m.customLabels,
	}, []string{"region", "category", "event_day"})
	m.lastRunUnix = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_unix_seconds",
		Help:        "Completion time of the last successful run",
		ConstLabels: m.customLabels,
	}, []string{"region"})

	m.queueSize = m.gauge("queue_size", "Partitions waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Partitions enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Partitions dequeued")

	m.workerCount = m.gauge("worker_count", "Configured workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently building units")
	m.workerPartitions = m.counter("worker_partitions_total", "Partitions processed by workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time to build and tally one partition", []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50})

	m.storeApplyLatency = m.histogram("store_apply_latency_milliseconds", "Store apply latency",
		[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000})
	m.storeQueryLatency = m.histogram("store_query_latency_milliseconds", "Store query latency",
		[]float64{0.1, 0.5, 1, 5, 10, 50, 100, 500})

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type",
		"component", "error_type")
}

// RecordTicketsIngested adds n ingested tickets for a region.
func RecordTicketsIngested(region string, n int) {
	globalManager.ticketsIngested.WithLabelValues(region).Add(float64(n))
}

// RecordTicketsDuplicate adds n dropped duplicates for a region.
func RecordTicketsDuplicate(region string, n int) {
	globalManager.ticketsDuplicate.WithLabelValues(region).Add(float64(n))
}

// RecordTicketRejected counts one structurally invalid ticket.
func RecordTicketRejected(region, reason string) {
	globalManager.ticketsRejected.WithLabelValues(region, reason).Inc()
}

// RecordTicketsUnclassified adds n unclassified tickets for a region.
func RecordTicketsUnclassified(region string, n int) {
	globalManager.ticketsUnclassified.WithLabelValues(region).Add(float64(n))
}

// RecordUnitBuilt counts one unit of a family.
func RecordUnitBuilt(region, family string) {
	globalManager.unitsBuilt.WithLabelValues(region, family).Inc()
}

// RecordUnitIncomplete counts one incomplete reason.
func RecordUnitIncomplete(region, reason string) {
	globalManager.unitsIncomplete.WithLabelValues(region, reason).Inc()
}

// RecordRun records a finished run.
func RecordRun(region, status string, seconds float64) {
	globalManager.runs.WithLabelValues(region, status).Inc()
	globalManager.runDuration.WithLabelValues(region).Observe(seconds)
}

// RecordRowsUpserted adds written summary rows.
func RecordRowsUpserted(region string, n int) {
	globalManager.rowsUpserted.WithLabelValues(region).Add(float64(n))
}

// UpdatePercentageFilled sets the fill gauge for a key.
func UpdatePercentageFilled(region, category, day string, pct float64) {
	globalManager.percentageFilled.WithLabelValues(region, category, day).Set(pct)
}

// UpdateLastRun sets the completion time of the last successful run.
func UpdateLastRun(region string, unix float64) {
	globalManager.lastRunUnix.WithLabelValues(region).Set(unix)
}

// UpdateQueueSize updates the queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity updates the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// UpdateWorkerCount updates the worker count gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount updates the active worker gauge.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerPartition records one processed partition and its latency.
func RecordWorkerPartition(latencyMs float64) {
	globalManager.workerPartitions.Inc()
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordStoreApplyLatency records store apply latency in milliseconds.
func RecordStoreApplyLatency(latencyMs float64) {
	globalManager.storeApplyLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records store query latency in milliseconds.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records errors by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
