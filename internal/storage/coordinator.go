package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"asr-session-service/internal/models"
	"asr-session-service/internal/observability/logging"
	"asr-session-service/internal/observability/metrics"
	"asr-session-service/internal/sequence"
)

func nowUTC() time.Time { return time.Now().UTC() }

// Coordinator sequences transcript writes across the volatile draft store
// and the durable segment store. There is no cross-store transaction; the
// ordered local commits and their partial-failure outcomes are documented
// on each method.
type Coordinator struct {
	drafts   DraftStore
	segments SegmentStore
	seq      *sequence.Sequencer
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

// NewCoordinator wires the coordinator to its stores and sequencer.
func NewCoordinator(drafts DraftStore, segments SegmentStore, seq *sequence.Sequencer) *Coordinator {
	return &Coordinator{
		drafts:   drafts,
		segments: segments,
		seq:      seq,
		log:      logging.WithComponent("coordinator"),
		metrics:  metrics.DefaultMetrics,
	}
}

// EnsureSessionExists creates the session row if absent. Must run at least
// once before the first SaveFinal for a session so the segment's foreign
// key resolves. Idempotent.
func (c *Coordinator) EnsureSessionExists(ctx context.Context, sessionID, ownerID string) error {
	if err := c.segments.EnsureSession(ctx, sessionID, ownerID); err != nil {
		return fmt.Errorf("ensure session %s: %w", sessionID, err)
	}
	return nil
}

// SavePartial overwrites the session's draft with the latest partial text
// and resets its TTL. Side effect only; seq is the caller's advisory
// display counter and never reserves a sequence number.
func (c *Coordinator) SavePartial(ctx context.Context, sessionID, text string, seq int64) error {
	draft := models.Draft{Text: text, Seq: seq, UpdatedAt: nowUTC()}
	if err := c.drafts.PutDraft(ctx, sessionID, draft); err != nil {
		c.metrics.DraftWriteErrors.Inc()
		return fmt.Errorf("save partial for %s: %w", sessionID, err)
	}
	c.metrics.DraftWrites.Inc()
	return nil
}

// SaveFinal commits one finalized utterance:
//
//	1. allocate a sequence number (the sole allocation point),
//	2. build the segment,
//	3. insert it in a single durable transaction,
//	4. unconditionally delete the session's draft.
//
// If (3) fails the sequence number from (1) is permanently consumed (a gap
// in segment_seq is accepted, never retried) and the draft is NOT deleted.
// If (4) fails after (3) succeeded, the stale draft lingers until its TTL
// expires; the committed segment is still returned.
func (c *Coordinator) SaveFinal(ctx context.Context, sessionID, text string) (models.Segment, error) {
	start := time.Now()

	seq, err := c.seq.Next(ctx, sessionID)
	if err != nil {
		return models.Segment{}, fmt.Errorf("allocate sequence for %s: %w", sessionID, err)
	}

	seg := models.Segment{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Seq:       seq,
		Text:      text,
		CreatedAt: nowUTC(),
	}

	if err := c.segments.InsertSegment(ctx, seg); err != nil {
		c.metrics.SegmentCommitErrors.Inc()
		return models.Segment{}, fmt.Errorf("commit segment %d for %s: %w", seq, sessionID, err)
	}
	c.metrics.SegmentsCommitted.Inc()
	c.metrics.SegmentCommitLatency.Observe(time.Since(start).Seconds())

	if err := c.drafts.DeleteDraft(ctx, sessionID); err != nil {
		// Segment is durable; the stale draft self-heals via TTL.
		c.metrics.DraftDeleteErrors.Inc()
		c.log.Warn().Err(err).
			Str("sessionId", sessionID).
			Int64("seq", seq).
			Msg("draft delete failed after committed final")
	}

	return seg, nil
}
