package recognizer

import (
	"context"
	"strings"

	"asr-session-service/internal/worker"
)

// Adapter wraps exactly one engine stream for the lifetime of a session
// connection. The CPU-bound submit/decode/reset cycle runs on the shared
// worker pool, never on the caller's I/O goroutine; Infer waits for the
// offloaded work before returning, so frames of one session are always
// processed in arrival order.
type Adapter struct {
	stream Stream
	rate   int
	pool   *worker.Pool
}

// NewAdapter creates an adapter around a freshly created engine stream.
func NewAdapter(stream Stream, sampleRate int, pool *worker.Pool) *Adapter {
	return &Adapter{stream: stream, rate: sampleRate, pool: pool}
}

// Infer submits samples and drives the decode loop. It returns the current
// transcript (whitespace-trimmed) and whether the engine signaled an
// utterance endpoint. On endpoint the underlying stream is reset before
// Infer returns, so the stream is already listening for the next utterance
// by the time the caller observes the final. Empty text with final=false is
// a valid "nothing new yet" result.
func (a *Adapter) Infer(ctx context.Context, samples []float32) (text string, final bool, err error) {
	err = a.pool.Do(ctx, func() {
		a.stream.AcceptWaveform(a.rate, samples)
		for a.stream.IsReady() {
			a.stream.Decode()
		}
		text = a.stream.Result()
		if a.stream.IsEndpoint() {
			a.stream.Reset()
			final = true
		}
	})
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(text), final, nil
}

// Close releases the underlying stream.
func (a *Adapter) Close() error {
	return a.stream.Close()
}
