package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the application metrics
type Metrics struct {
	// HTTP request metrics
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Collection store metrics
	StoreOperationTotal    *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	MalformedRecordTotal   *prometheus.CounterVec

	// Cascade metrics
	CascadeTotal        *prometheus.CounterVec
	CascadeStepFailures *prometheus.CounterVec

	// Notification bus metrics
	BusPublishTotal *prometheus.CounterVec
}

// Global metrics instance with mutex for thread safety
var (
	globalMetrics *Metrics
	metricsMutex  sync.Mutex
)

// NewMetrics creates a new Metrics instance with all required metrics
func NewMetrics() *Metrics {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	// Return existing instance if already created
	if globalMetrics != nil {
		return globalMetrics
	}

	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		StoreOperationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of collection store operations",
		}, []string{"operation", "slot", "status"}),

		StoreOperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Collection store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "slot", "status"}),

		MalformedRecordTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "malformed_records_total",
			Help: "Total number of stored blobs that failed to decode and were absorbed as empty",
		}, []string{"slot"}),

		CascadeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cascade_operations_total",
			Help: "Total number of cascade operations",
		}, []string{"operation", "status"}),

		CascadeStepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cascade_step_failures_total",
			Help: "Total number of individual cascade steps that failed",
		}, []string{"operation", "step"}),

		BusPublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bus_publish_total",
			Help: "Total number of notification bus publishes",
		}, []string{"topic"}),
	}

	// Register metrics with the default registry
	registerMetrics(m)

	// Store as global instance
	globalMetrics = m

	return m
}

// registerMetrics registers all metrics with the default registry
func registerMetrics(m *Metrics) {
	registerOrGet(m.HTTPRequestTotal)
	registerOrGet(m.HTTPRequestDuration)
	registerOrGet(m.StoreOperationTotal)
	registerOrGet(m.StoreOperationDuration)
	registerOrGet(m.MalformedRecordTotal)
	registerOrGet(m.CascadeTotal)
	registerOrGet(m.CascadeStepFailures)
	registerOrGet(m.BusPublishTotal)
}

// registerOrGet tries to register a metric, returns the existing one if already registered
func registerOrGet(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		// If already registered, return the existing collector
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}
