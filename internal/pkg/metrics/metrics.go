// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's prometheus collectors
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Replenishment batch metrics
	BatchRunsTotal      *prometheus.CounterVec
	BatchRunDuration    *prometheus.HistogramVec
	PartsProcessedTotal *prometheus.CounterVec

	// Pricing metrics
	InvoicesPricedTotal *prometheus.CounterVec

	// Task metrics
	TasksProcessedTotal *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "fieldservice",
	}
}

// New creates a new Metrics instance with its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"service", "method", "path"},
	)

	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.BatchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "replenishment_batch_runs_total",
			Help:      "Total number of replenishment batch runs",
		},
		[]string{"service", "batch", "status"},
	)

	m.BatchRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "replenishment_batch_duration_seconds",
			Help:      "Replenishment batch run duration in seconds",
			Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"service", "batch"},
	)

	m.PartsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "replenishment_parts_processed_total",
			Help:      "Parts processed by replenishment batches by outcome",
		},
		[]string{"service", "batch", "outcome"},
	)

	m.InvoicesPricedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "invoices_priced_total",
			Help:      "Total number of invoices priced",
		},
		[]string{"service", "callback", "status"},
	)

	m.TasksProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "tasks_processed_total",
			Help:      "Total number of background tasks processed",
		},
		[]string{"service", "task_type", "status"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.BatchRunsTotal,
		m.BatchRunDuration,
		m.PartsProcessedTotal,
		m.InvoicesPricedTotal,
		m.TasksProcessedTotal,
	)

	return m
}

// Handler returns the /metrics handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments the in-flight gauge
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	if m == nil {
		return
	}
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements the in-flight gauge
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	if m == nil {
		return
	}
	m.HTTPRequestsInFlight.Dec()
}

// RecordBatchRun records a completed batch run
func (m *Metrics) RecordBatchRun(batch string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.BatchRunsTotal.WithLabelValues(m.serviceName, batch, status).Inc()
	m.BatchRunDuration.WithLabelValues(m.serviceName, batch).Observe(duration.Seconds())
}

// RecordPartOutcome records what a batch did with a single part
func (m *Metrics) RecordPartOutcome(batch, outcome string) {
	if m == nil {
		return
	}
	m.PartsProcessedTotal.WithLabelValues(m.serviceName, batch, outcome).Inc()
}

// RecordInvoicePriced records a pricing request
func (m *Metrics) RecordInvoicePriced(callback bool, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.InvoicesPricedTotal.WithLabelValues(m.serviceName, strconv.FormatBool(callback), status).Inc()
}

// RecordTask records a processed background task
func (m *Metrics) RecordTask(taskType string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.TasksProcessedTotal.WithLabelValues(m.serviceName, taskType, status).Inc()
}
