// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "asr_session"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionsFailed  prometheus.Counter
	SessionDuration prometheus.Histogram

	// Frame metrics
	FramesReceived     prometheus.Counter
	AudioBytesReceived prometheus.Counter
	DecodeErrors       prometheus.Counter

	// Inference metrics
	InferenceErrors  prometheus.Counter
	InferenceLatency prometheus.Histogram

	// Transcript metrics
	PartialsEmitted prometheus.Counter
	FinalsEmitted   prometheus.Counter

	// Persistence metrics
	DraftWrites          prometheus.Counter
	DraftWriteErrors     prometheus.Counter
	SegmentsCommitted    prometheus.Counter
	SegmentCommitErrors  prometheus.Counter
	DraftDeleteErrors    prometheus.Counter
	SegmentCommitLatency prometheus.Histogram

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of websocket sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active sessions",
		}),
		SessionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_failed_total",
			Help:      "Total number of sessions that failed to activate",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of sessions in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),

		FramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Total audio frames received",
		}),
		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received",
		}),
		DecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Total frames skipped due to decode/resample errors",
		}),

		InferenceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_errors_total",
			Help:      "Total frames skipped due to recognizer errors",
		}),
		InferenceLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_latency_seconds",
			Help:      "Latency of one offloaded inference cycle",
			Buckets:   prometheus.DefBuckets,
		}),

		PartialsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partials_emitted_total",
			Help:      "Total partial transcript events emitted",
		}),
		FinalsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finals_emitted_total",
			Help:      "Total final transcript events emitted",
		}),

		DraftWrites: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_writes_total",
			Help:      "Total draft upserts to the volatile store",
		}),
		DraftWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_write_errors_total",
			Help:      "Total failed draft upserts",
		}),
		SegmentsCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_committed_total",
			Help:      "Total segments durably committed",
		}),
		SegmentCommitErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segment_commit_errors_total",
			Help:      "Total failed segment commits (sequence gap left behind)",
		}),
		DraftDeleteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_delete_errors_total",
			Help:      "Total failed draft deletions after a committed final",
		}),
		SegmentCommitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_commit_latency_seconds",
			Help:      "Latency of the full final-commit path",
			Buckets:   prometheus.DefBuckets,
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total Kafka publish attempts",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total failed Kafka publishes",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Latency of Kafka publishes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic", "event_type"}),
	}
}

// RecordSessionStart records a new active session.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a session ending after the given duration.
func (m *Metrics) RecordSessionEnd(d time.Duration) {
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(d.Seconds())
}

// RecordFrame records one received audio frame.
func (m *Metrics) RecordFrame(bytes int) {
	m.FramesReceived.Inc()
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic, eventType).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
