package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RelayMetrics provides observability for the relay adapter.
//
// Implementations collect metrics about connection lifecycle, relayed bytes,
// relay pass durations, and fault dispositions. This interface is optional -
// if not provided to the adapter, a no-op implementation is used with zero
// overhead.
//
// Example usage:
//
//	// With metrics enabled
//	m := metrics.NewRelayMetrics()
//	adapter := usock.New(config, m)
//
//	// Without metrics (no-op)
//	adapter := usock.New(config, nil)
type RelayMetrics interface {
	// RecordConnectionAccepted increments the accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the closed connections counter.
	RecordConnectionClosed()

	// SetActiveConnections updates the active connection gauge. With
	// sequential service this is only ever 0 or 1; the gauge exists so a
	// concurrent variant would not change the metrics surface.
	SetActiveConnections(count int32)

	// RecordBytesRelayed adds to the relayed bytes counter.
	RecordBytesRelayed(bytes int64)

	// RecordRelayPass records a completed relay pass with its duration and
	// terminal status ("completed", "close_failed", "aborted").
	RecordRelayPass(status string, duration time.Duration)

	// RecordFault counts a classified fault by operation and disposition.
	RecordFault(op string, disposition string)
}

// relayMetrics is the Prometheus implementation of RelayMetrics.
type relayMetrics struct {
	connectionsAccepted prometheus.Counter
	connectionsClosed   prometheus.Counter
	activeConnections   prometheus.Gauge
	bytesRelayed        prometheus.Counter
	relayPasses         *prometheus.CounterVec
	relayPassDuration   *prometheus.HistogramVec
	faults              *prometheus.CounterVec
}

// NewRelayMetrics creates a new Prometheus-backed RelayMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewRelayMetrics() RelayMetrics {
	if !IsEnabled() {
		return &noopRelayMetrics{}
	}

	reg := GetRegistry()

	return &relayMetrics{
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "uxfer_connections_accepted_total",
				Help: "Total number of client connections accepted",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "uxfer_connections_closed_total",
				Help: "Total number of client connections closed",
			},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "uxfer_active_connections",
				Help: "Current number of connections being served",
			},
		),
		bytesRelayed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "uxfer_bytes_relayed_total",
				Help: "Total bytes forwarded from clients to the sink",
			},
		),
		relayPasses: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "uxfer_relay_passes_total",
				Help: "Total relay passes by terminal status",
			},
			[]string{"status"},
		),
		relayPassDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "uxfer_relay_pass_duration_seconds",
				Help: "Duration of relay passes in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
					30.0,  // 30s
					300.0, // 5m
				},
			},
			[]string{"status"},
		),
		faults: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "uxfer_faults_total",
				Help: "Total classified faults by operation and disposition",
			},
			[]string{"op", "disposition"},
		),
	}
}

func (m *relayMetrics) RecordConnectionAccepted() {
	m.connectionsAccepted.Inc()
}

func (m *relayMetrics) RecordConnectionClosed() {
	m.connectionsClosed.Inc()
}

func (m *relayMetrics) SetActiveConnections(count int32) {
	m.activeConnections.Set(float64(count))
}

func (m *relayMetrics) RecordBytesRelayed(bytes int64) {
	m.bytesRelayed.Add(float64(bytes))
}

func (m *relayMetrics) RecordRelayPass(status string, duration time.Duration) {
	m.relayPasses.WithLabelValues(status).Inc()
	m.relayPassDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *relayMetrics) RecordFault(op string, disposition string) {
	m.faults.WithLabelValues(op, disposition).Inc()
}

// noopRelayMetrics is a no-op implementation of RelayMetrics with zero overhead.
type noopRelayMetrics struct{}

func (noopRelayMetrics) RecordConnectionAccepted()                      {}
func (noopRelayMetrics) RecordConnectionClosed()                        {}
func (noopRelayMetrics) SetActiveConnections(count int32)               {}
func (noopRelayMetrics) RecordBytesRelayed(bytes int64)                 {}
func (noopRelayMetrics) RecordRelayPass(status string, d time.Duration) {}
func (noopRelayMetrics) RecordFault(op string, disposition string)      {}
