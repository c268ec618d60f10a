package client

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics aggregates the engine's observability counters.
type metrics struct {
	callsStarted   prometheus.Counter
	callsCompleted *prometheus.CounterVec
	inFlight       prometheus.Gauge
	callLatency    prometheus.Histogram

	framesSent     prometheus.Counter
	framesReceived prometheus.Counter
	bytesSent      prometheus.Counter
	bytesReceived  prometheus.Counter

	connects    prometheus.Counter
	disconnects prometheus.Counter
	cancelsSent prometheus.Counter
	broadcasts  prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		callsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strand_client_calls_started_total",
			Help: "RPC calls dispatched.",
		}),
		callsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strand_client_calls_completed_total",
			Help: "RPC calls resolved, by outcome kind.",
		}, []string{"kind"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "strand_client_calls_in_flight",
			Help: "Pending RPC calls.",
		}),
		callLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "strand_client_call_duration_seconds",
			Help:    "Latency from dispatch to resolution.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strand_client_frames_sent_total",
			Help: "Frames written to the connection.",
		}),
		framesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strand_client_frames_received_total",
			Help: "Frames read from the connection.",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strand_client_bytes_sent_total",
			Help: "Payload bytes written to the connection.",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strand_client_bytes_received_total",
			Help: "Payload bytes read from the connection.",
		}),
		connects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strand_client_connects_total",
			Help: "Successful connection attempts, including reconnects.",
		}),
		disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strand_client_disconnects_total",
			Help: "Connection teardowns after errors or shutdown.",
		}),
		cancelsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strand_client_cancel_requests_total",
			Help: "CANCEL_REQUEST frames emitted.",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strand_client_broadcast_failures_total",
			Help: "Connection-wide failures broadcast to pending calls.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.callsStarted, m.callsCompleted, m.inFlight, m.callLatency,
			m.framesSent, m.framesReceived, m.bytesSent, m.bytesReceived,
			m.connects, m.disconnects, m.cancelsSent, m.broadcasts,
		)
	}
	return m
}
