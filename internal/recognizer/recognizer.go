// Package recognizer defines the contract for streaming speech recognition
// engines and the per-session adapter that drives one engine stream.
package recognizer

// Engine is an opaque streaming recognizer. Implementations own their model
// state; the service only drives the stream operations below.
type Engine interface {
	// Name returns the engine name for logging/metrics.
	Name() string

	// SampleRate returns the sample rate the engine requires.
	SampleRate() int

	// NewStream creates one recognition stream. One stream serves exactly
	// one session connection.
	NewStream() (Stream, error)
}

// Stream is a single recognition stream. Streams are not safe for concurrent
// use; the adapter serializes all calls.
type Stream interface {
	// AcceptWaveform submits normalized float32 samples at the given rate.
	AcceptWaveform(sampleRate int, samples []float32)

	// IsReady reports whether a decode step can run.
	IsReady() bool

	// Decode performs one decode step.
	Decode()

	// Result returns the accumulated transcript for the current utterance.
	Result() string

	// IsEndpoint reports whether the engine detected an utterance boundary.
	IsEndpoint() bool

	// Reset clears utterance state so subsequent audio starts fresh.
	Reset()

	// Close releases stream resources.
	Close() error
}
