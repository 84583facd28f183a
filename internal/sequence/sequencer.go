// Package sequence owns the authoritative per-session segment sequence
// numbers, backed by an atomic counter in the volatile store.
package sequence

import (
	"context"
	"fmt"
)

// Counter is the volatile-store primitive the sequencer runs on.
type Counter interface {
	// Incr atomically increments the counter at key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// Get reads the counter's current value. An absent key reads as 0.
	Get(ctx context.Context, key string) (int64, error)
}

// CounterKey returns the volatile-store key holding a session's sequence
// counter.
func CounterKey(sessionID string) string {
	return fmt.Sprintf("asr:sess:%s:seq", sessionID)
}

// Sequencer allocates segment sequence numbers for sessions. Safe for
// concurrent use; all state lives in the counter store.
type Sequencer struct {
	counter Counter
}

// New creates a Sequencer on top of the given counter store.
func New(counter Counter) *Sequencer {
	return &Sequencer{counter: counter}
}

// RecoverNext reads the counter's current value and returns value+1. It is
// used only to seed the orchestrator's advisory display counter on
// (re)connect; it does not reserve a sequence number.
func (s *Sequencer) RecoverNext(ctx context.Context, sessionID string) (int64, error) {
	cur, err := s.counter.Get(ctx, CounterKey(sessionID))
	if err != nil {
		return 0, fmt.Errorf("read sequence counter: %w", err)
	}
	return cur + 1, nil
}

// Next atomically increments the counter and returns the new value. This is
// the only call that allocates a durable sequence number; it is invoked
// exactly once per final commit. On error no sequence is consumed and the
// caller must treat the final event as not committed.
func (s *Sequencer) Next(ctx context.Context, sessionID string) (int64, error) {
	seq, err := s.counter.Incr(ctx, CounterKey(sessionID))
	if err != nil {
		return 0, fmt.Errorf("increment sequence counter: %w", err)
	}
	return seq, nil
}
