package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the sensor uplink service.
// All Record helpers are safe on a nil receiver so components can run
// without a registry in tests.
type Metrics struct {
	// Frame metrics
	FramesSent   *prometheus.CounterVec
	BytesSent    prometheus.Counter
	SendFailures *prometheus.CounterVec

	// Acquisition metrics
	AudioReadErrors prometheus.Counter
	CyclesCompleted prometheus.Counter
	CyclesFailed    prometheus.Counter
	CycleDuration   prometheus.Histogram

	// Connection metrics
	ConnectionsAccepted prometheus.Counter
	Teardowns           prometheus.Counter
	Connected           prometheus.Gauge

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		FramesSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "uplink_frames_sent_total",
			Help: "Total number of frames fully delivered, by frame type",
		}, []string{"type"}),
		BytesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uplink_bytes_sent_total",
			Help: "Total payload and tag bytes handed to the network layer",
		}),
		SendFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "uplink_send_failures_total",
			Help: "Total number of failed frame sends, by frame type",
		}, []string{"type"}),

		AudioReadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uplink_audio_read_errors_total",
			Help: "Total number of audio acquisition failures",
		}),
		CyclesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uplink_cycles_completed_total",
			Help: "Total number of acquisition cycles completed while connected",
		}),
		CyclesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uplink_cycles_failed_total",
			Help: "Total number of acquisition cycles aborted by a transport failure",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "uplink_cycle_duration_seconds",
			Help:    "Duration of one acquisition-transmission cycle",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),

		ConnectionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uplink_connections_accepted_total",
			Help: "Total number of collector connections accepted",
		}),
		Teardowns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uplink_teardowns_total",
			Help: "Total number of connection teardowns",
		}),
		Connected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "uplink_connected",
			Help: "Whether a collector is currently connected (0 or 1)",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "uplink_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "uplink_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "uplink_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordFrameSent records a fully delivered frame and its wire size.
func (m *Metrics) RecordFrameSent(frameType string, wireBytes int) {
	if m == nil {
		return
	}
	m.FramesSent.WithLabelValues(frameType).Inc()
	m.BytesSent.Add(float64(wireBytes))
}

// RecordSendFailure records a failed frame send.
func (m *Metrics) RecordSendFailure(frameType string) {
	if m == nil {
		return
	}
	m.SendFailures.WithLabelValues(frameType).Inc()
}

// RecordAudioReadError increments the audio acquisition failure counter.
func (m *Metrics) RecordAudioReadError() {
	if m == nil {
		return
	}
	m.AudioReadErrors.Inc()
}

// RecordCycle records the outcome and duration of one acquisition cycle.
func (m *Metrics) RecordCycle(failed bool, durationSeconds float64) {
	if m == nil {
		return
	}
	if failed {
		m.CyclesFailed.Inc()
	} else {
		m.CyclesCompleted.Inc()
	}
	m.CycleDuration.Observe(durationSeconds)
}

// RecordConnectionAccepted marks the slot as occupied.
func (m *Metrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.ConnectionsAccepted.Inc()
	m.Connected.Set(1)
}

// RecordTeardown marks the slot as free.
func (m *Metrics) RecordTeardown() {
	if m == nil {
		return
	}
	m.Teardowns.Inc()
	m.Connected.Set(0)
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error.
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	if m == nil {
		return
	}
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
