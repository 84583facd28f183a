package mock

import (
	"testing"
)

func drain(t *testing.T, s interface {
	IsReady() bool
	Decode()
}) {
	t.Helper()
	for s.IsReady() {
		s.Decode()
	}
}

func TestStream_ProgressivePartialsThenEndpoint(t *testing.T) {
	e := NewWithScript(16000, []Utterance{
		{Partials: []string{"hello", "hello world"}, Final: "hello world."},
	})
	s, err := e.NewStream()
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}

	chunk := make([]float32, 160)

	s.AcceptWaveform(16000, chunk)
	drain(t, s)
	if got := s.Result(); got != "hello" {
		t.Errorf("step 1: expected %q, got %q", "hello", got)
	}
	if s.IsEndpoint() {
		t.Error("step 1: unexpected endpoint")
	}

	s.AcceptWaveform(16000, chunk)
	drain(t, s)
	if got := s.Result(); got != "hello world" {
		t.Errorf("step 2: expected %q, got %q", "hello world", got)
	}

	s.AcceptWaveform(16000, chunk)
	drain(t, s)
	if got := s.Result(); got != "hello world." {
		t.Errorf("step 3: expected final %q, got %q", "hello world.", got)
	}
	if !s.IsEndpoint() {
		t.Error("step 3: expected endpoint after script exhausted")
	}
}

func TestStream_ResetStartsNextUtterance(t *testing.T) {
	e := NewWithScript(16000, []Utterance{
		{Partials: []string{"one"}, Final: "one."},
		{Partials: []string{"two"}, Final: "two."},
	})
	s, _ := e.NewStream()
	chunk := make([]float32, 160)

	// Drive to the first endpoint.
	for i := 0; i < 2; i++ {
		s.AcceptWaveform(16000, chunk)
		drain(t, s)
	}
	if !s.IsEndpoint() {
		t.Fatal("expected endpoint on first utterance")
	}
	s.Reset()

	if s.IsEndpoint() {
		t.Error("expected listening state after reset")
	}
	if got := s.Result(); got != "" {
		t.Errorf("expected empty result after reset, got %q", got)
	}

	s.AcceptWaveform(16000, chunk)
	drain(t, s)
	if got := s.Result(); got != "two" {
		t.Errorf("expected next utterance partial %q, got %q", "two", got)
	}
}

func TestStream_EmptyChunkIsIgnored(t *testing.T) {
	e := New(16000)
	s, _ := e.NewStream()

	s.AcceptWaveform(16000, nil)
	if s.IsReady() {
		t.Error("empty chunk must not make the stream decode-ready")
	}
}

func TestStream_ClosedStreamIsInert(t *testing.T) {
	e := New(16000)
	s, _ := e.NewStream()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s.AcceptWaveform(16000, make([]float32, 160))
	if s.IsReady() {
		t.Error("closed stream must not accept audio")
	}
}
