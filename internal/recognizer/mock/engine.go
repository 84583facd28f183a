// Package mock provides a scripted recognizer engine for development and
// tests without a real model. Each stream replays utterances as progressive
// partials followed by an endpoint with the final text, one step per
// submitted audio chunk.
package mock

import (
	"sync"

	"asr-session-service/internal/recognizer"
)

// Utterance is one scripted utterance: progressive partial transcripts and
// the final text reported at the endpoint.
type Utterance struct {
	Partials []string
	Final    string
}

// DefaultScript provides sample utterances for simulation.
var DefaultScript = []Utterance{
	{
		Partials: []string{"I want", "I want to", "I want to cancel"},
		Final:    "I want to cancel my subscription",
	},
	{
		Partials: []string{"Yes", "Yes please"},
		Final:    "Yes please go ahead",
	},
	{
		Partials: []string{"Can you", "Can you help", "Can you help me with"},
		Final:    "Can you help me with my account",
	},
	{
		Partials: []string{"Thank you"},
		Final:    "Thank you very much",
	},
}

// Engine implements recognizer.Engine with scripted responses.
type Engine struct {
	rate   int
	script []Utterance
}

// New creates a mock engine at the given sample rate using DefaultScript.
func New(sampleRate int) *Engine {
	return NewWithScript(sampleRate, DefaultScript)
}

// NewWithScript creates a mock engine that replays the given utterances.
func NewWithScript(sampleRate int, script []Utterance) *Engine {
	if len(script) == 0 {
		script = DefaultScript
	}
	return &Engine{rate: sampleRate, script: script}
}

func (e *Engine) Name() string    { return "mock" }
func (e *Engine) SampleRate() int { return e.rate }

// NewStream creates a stream that cycles through the engine's script.
func (e *Engine) NewStream() (recognizer.Stream, error) {
	return &stream{script: e.script}, nil
}

// stream replays one utterance at a time: each accepted chunk advances one
// step through the partials; the step after the last partial reports the
// final text and signals an endpoint.
type stream struct {
	mu       sync.Mutex
	script   []Utterance
	uttIdx   int
	step     int
	pending  int
	result   string
	endpoint bool
	closed   bool
}

func (s *stream) AcceptWaveform(_ int, samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(samples) == 0 {
		return
	}
	s.step++
	s.pending++
}

func (s *stream) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0 && !s.closed
}

func (s *stream) Decode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == 0 || s.closed {
		return
	}
	s.pending--

	utt := s.script[s.uttIdx%len(s.script)]
	if s.step <= len(utt.Partials) {
		s.result = utt.Partials[s.step-1]
	} else {
		s.result = utt.Final
		s.endpoint = true
	}
}

func (s *stream) Result() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *stream) IsEndpoint() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

func (s *stream) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = false
	s.result = ""
	s.step = 0
	s.pending = 0
	s.uttIdx++
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
