package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Pipeline run metrics
	RunsStarted prometheus.Counter
	RunsFailed  prometheus.Counter
	RunsActive  prometheus.Gauge

	// Endpoint transfer metrics
	BytesTransferred *prometheus.CounterVec

	// Ring buffer metrics
	RingBufferGrowths prometheus.Counter

	// Registry metrics
	RegistryRuns prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64
	TotalErrors       int64
	ActiveRuns        int64
	ActiveConnections int64
	TotalDuration     float64 // sum of all request durations
	RequestCount      int64   // count for averaging
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Pipeline run metrics
		RunsStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_runs_started_total",
				Help: "Total number of pipeline runs started",
			},
		),
		RunsFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_runs_failed_total",
				Help: "Total number of pipeline runs that returned a structural or non-zero exit error",
			},
		),
		RunsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_runs_active",
				Help: "Number of pipeline runs currently in progress",
			},
		),

		// Endpoint transfer metrics
		BytesTransferred: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_bytes_transferred_total",
				Help: "Total bytes moved through input/output endpoints, by direction and endpoint kind",
			},
			[]string{"direction", "kind"},
		),

		// Ring buffer metrics
		RingBufferGrowths: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_ring_buffer_growths_total",
				Help: "Total number of ring buffer doubling-growth events across all runs",
			},
		),

		// Registry metrics
		RegistryRuns: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_registry_runs",
				Help: "Number of runs held in the in-memory run registry",
			},
		),

		// WebSocket metrics
		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncRunsStarted increments the pipeline runs started counter.
func (m *Metrics) IncRunsStarted() {
	m.RunsStarted.Inc()
}

// IncRunsFailed increments the pipeline runs failed counter.
func (m *Metrics) IncRunsFailed() {
	m.RunsFailed.Inc()
}

// SetRunsActive sets the number of pipeline runs currently in progress.
func (m *Metrics) SetRunsActive(count int) {
	m.RunsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveRuns = int64(count)
	m.mu.Unlock()
}

// AddBytesTransferred records bytes moved through an endpoint, labeled by
// direction ("input"/"output") and endpoint kind ("fd", "file", "bytes",
// "callback").
func (m *Metrics) AddBytesTransferred(direction, kind string, n int) {
	m.BytesTransferred.WithLabelValues(direction, kind).Add(float64(n))
}

// IncRingBufferGrowths increments the ring buffer growth-event counter.
func (m *Metrics) IncRingBufferGrowths() {
	m.RingBufferGrowths.Inc()
}

// SetRegistryRuns sets the number of runs held in the run registry.
func (m *Metrics) SetRegistryRuns(count int) {
	m.RegistryRuns.Set(float64(count))
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
