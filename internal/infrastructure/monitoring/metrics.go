package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fileserver"

// Metrics holds all Prometheus metrics. Each instance owns its registry so
// several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Filesystem metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
	BytesServed       prometheus.Counter
	BytesWritten      prometheus.Counter

	// Auth metrics
	AuthFailures *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Running totals for the metrics summary endpoint
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds running totals for quick inspection without scraping.
type Snapshot struct {
	TotalRequests int64
	TotalErrors   int64
	TotalDuration float64
}

// NewMetrics creates a metrics collector with its own registry, including
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000, 100000000},
			},
			[]string{"method", "path"},
		),

		// Filesystem metrics
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fs_operations_total",
				Help:      "Total number of filesystem operations",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fs_operation_duration_seconds",
				Help:      "Filesystem operation duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"operation"},
		),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fs_operation_errors_total",
				Help:      "Total number of failed filesystem operations by error code",
			},
			[]string{"operation", "code"},
		),
		BytesServed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fs_bytes_served_total",
				Help:      "Total number of file content bytes served",
			},
		),
		BytesWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fs_bytes_written_total",
				Help:      "Total number of uploaded bytes written",
			},
		),

		// Auth metrics
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total number of rejected bearer tokens by error code",
			},
			[]string{"code"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry backing this collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// ObserveOperation records a filesystem operation and, on failure, its
// error code.
func (m *Metrics) ObserveOperation(op string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		m.OperationErrors.WithLabelValues(op, string(errors.GetCode(err))).Inc()
	}
	m.OperationsTotal.WithLabelValues(op, status).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// ObserveBytesServed adds to the served content byte counter.
func (m *Metrics) ObserveBytesServed(n int64) {
	if n > 0 {
		m.BytesServed.Add(float64(n))
	}
}

// ObserveBytesWritten adds to the uploaded byte counter.
func (m *Metrics) ObserveBytesWritten(n int64) {
	if n > 0 {
		m.BytesWritten.Add(float64(n))
	}
}

// RecordAuthFailure counts a rejected token.
func (m *Metrics) RecordAuthFailure(err error) {
	m.AuthFailures.WithLabelValues(string(errors.GetCode(err))).Inc()
}

// Snapshot returns a copy of the running totals.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Since returns the time elapsed since the collector was created.
func (m *Metrics) Since() time.Duration {
	return time.Since(m.startTime)
}
