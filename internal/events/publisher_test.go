package events

import (
	"context"
	"testing"

	"asr-session-service/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"nil brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerPartial != nil {
				t.Error("expected nil partial writer when disabled")
			}
			if p.writerFinal != nil {
				t.Error("expected nil final writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:      false,
		Brokers:      []string{"localhost:9092"},
		TopicPartial: "asr.transcript.partial",
		TopicFinal:   "asr.transcript.final",
		Principal:    "asr-session-service",
	}

	p := New(cfg)

	if p.principal != "asr-session-service" {
		t.Errorf("expected principal 'asr-session-service', got %s", p.principal)
	}
	if p.topicPartial != "asr.transcript.partial" {
		t.Errorf("expected partial topic 'asr.transcript.partial', got %s", p.topicPartial)
	}
	if p.topicFinal != "asr.transcript.final" {
		t.Errorf("expected final topic 'asr.transcript.final', got %s", p.topicFinal)
	}
}

func TestPublisher_PublishPartial_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	ev := models.TranscriptEvent{Type: models.EventPartial, Text: "hello", Seq: 1}
	if err := p.PublishPartial(context.Background(), "sess-1", ev); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishFinal_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	ev := models.TranscriptEvent{Type: models.EventFinal, Text: "hello world.", Seq: 3}
	if err := p.PublishFinal(context.Background(), "sess-1", ev); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilWriters(t *testing.T) {
	p := &Publisher{
		writerPartial: nil,
		writerFinal:   nil,
	}

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}
