// Package session runs the per-connection pipeline: receive frame, decode,
// infer, persist, emit. One orchestrator serves one transport connection.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of one session connection.
type State int

const (
	// StateConnecting - connection accepted, session not yet activated.
	StateConnecting State = iota
	// StateActive - sequence recovered, recognizer stream live, loop running.
	StateActive
	// StateClosed - connection torn down. Terminal.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateActive:
		return "ACTIVE"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for invalid lifecycle transitions.
var (
	ErrSessionClosed = errors.New("session is closed")
	ErrAlreadyActive = errors.New("session is already active")
)

// lifecycle manages the state machine for one connection. Thread-safe.
//
//	CONNECTING → ACTIVE → CLOSED
//
// Activation happens exactly once; Close is idempotent and valid from any
// state (a session that fails activation goes straight to CLOSED).
type lifecycle struct {
	mu    sync.RWMutex
	state State
}

func newLifecycle() *lifecycle {
	return &lifecycle{state: StateConnecting}
}

// State returns the current state.
func (l *lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Activate transitions CONNECTING → ACTIVE.
func (l *lifecycle) Activate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case StateConnecting:
		l.state = StateActive
		return nil
	case StateActive:
		return ErrAlreadyActive
	default:
		return ErrSessionClosed
	}
}

// Close transitions to CLOSED from any state. Idempotent.
func (l *lifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateClosed
}

// IsClosed reports whether the session reached its terminal state.
func (l *lifecycle) IsClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateClosed
}
