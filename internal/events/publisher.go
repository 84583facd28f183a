// Package events fans transcript events out to Kafka, one topic for
// partials and one for committed finals. Publishing is best-effort and
// optional; with Kafka disabled the publisher degrades to log-only mode.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"asr-session-service/internal/models"
	"asr-session-service/internal/observability/metrics"
)

// Config holds Kafka publisher configuration.
type Config struct {
	Enabled      bool
	Brokers      []string
	TopicPartial string
	TopicFinal   string
	Principal    string
}

// Publisher publishes transcript events keyed by session id.
type Publisher struct {
	writerPartial *kafka.Writer
	writerFinal   *kafka.Writer
	principal     string
	topicPartial  string
	topicFinal    string
	enabled       bool
	metrics       *metrics.Metrics
}

// envelope is the published payload: the wire event plus its session
// context and a publish timestamp.
type envelope struct {
	SessionID string `json:"sessionId"`
	Type      string `json:"type"`
	Text      string `json:"text"`
	Seq       int64  `json:"seq"`
	Timestamp int64  `json:"timestamp"`
}

// New creates a publisher. With Enabled false or no brokers configured it
// runs in log-only mode.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, transcript events in log-only mode")
		p := &Publisher{enabled: false, metrics: m}
		if cfg != nil {
			p.principal = cfg.Principal
			p.topicPartial = cfg.TopicPartial
			p.topicFinal = cfg.TopicFinal
		}
		return p
	}

	// Generous dial timeout for DNS resolution inside Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{Dial: dialer.DialFunc}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicPartial", cfg.TopicPartial).
		Str("topicFinal", cfg.TopicFinal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerPartial: newWriter(cfg.TopicPartial),
		writerFinal:   newWriter(cfg.TopicFinal),
		principal:     cfg.Principal,
		topicPartial:  cfg.TopicPartial,
		topicFinal:    cfg.TopicFinal,
		enabled:       true,
		metrics:       m,
	}
}

// PublishPartial publishes a partial transcript event.
func (p *Publisher) PublishPartial(ctx context.Context, sessionID string, ev models.TranscriptEvent) error {
	return p.publish(ctx, p.writerPartial, p.topicPartial, sessionID, ev)
}

// PublishFinal publishes a committed final transcript event.
func (p *Publisher) PublishFinal(ctx context.Context, sessionID string, ev models.TranscriptEvent) error {
	return p.publish(ctx, p.writerFinal, p.topicFinal, sessionID, ev)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, sessionID string, ev models.TranscriptEvent) error {
	start := time.Now()

	payload, err := json.Marshal(envelope{
		SessionID: sessionID,
		Type:      ev.Type,
		Text:      ev.Text,
		Seq:       ev.Seq,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	log.Debug().
		Str("topic", topic).
		Str("sessionId", sessionID).
		RawJSON("payload", payload).
		Msg("publishing transcript event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, ev.Type, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(sessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(ev.Type)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}
	err = writer.WriteMessages(ctx, msg)
	p.metrics.RecordKafkaPublish(topic, ev.Type, err, time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).
			Str("topic", topic).
			Str("sessionId", sessionID).
			Msg("failed to write to Kafka")
		return err
	}
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerPartial != nil {
		if e := p.writerPartial.Close(); e != nil {
			log.Error().Err(e).Msg("error closing partial writer")
			err = e
		}
	}
	if p.writerFinal != nil {
		if e := p.writerFinal.Close(); e != nil {
			log.Error().Err(e).Msg("error closing final writer")
			err = e
		}
	}
	return err
}
