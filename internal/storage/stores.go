// Package storage provides the two backing stores of the session pipeline
// (the volatile draft/counter store and the durable segment store) and the
// coordinator that sequences writes across them without a cross-store
// transaction.
package storage

import (
	"context"

	"asr-session-service/internal/models"
)

// DraftStore holds the ephemeral latest partial transcript per session.
type DraftStore interface {
	// PutDraft overwrites the session's draft and resets its TTL, applied
	// as one atomic batch so a reader never observes a draft without its
	// TTL set.
	PutDraft(ctx context.Context, sessionID string, draft models.Draft) error

	// GetDraft reads the session's draft. The second return is false when
	// no draft exists.
	GetDraft(ctx context.Context, sessionID string) (models.Draft, bool, error)

	// DeleteDraft removes the session's draft. Deleting an absent draft is
	// not an error.
	DeleteDraft(ctx context.Context, sessionID string) error
}

// SegmentStore is the durable relational store for sessions and their
// committed segments.
type SegmentStore interface {
	// EnsureSession creates the session row if absent. Idempotent.
	EnsureSession(ctx context.Context, sessionID, userID string) error

	// InsertSegment commits one segment inside a single transaction.
	InsertSegment(ctx context.Context, seg models.Segment) error
}
