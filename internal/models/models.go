// Package models defines the data structures shared across the session pipeline.
package models

import "time"

// Session represents one logical, possibly reconnectable, transcription
// conversation. Rows are created lazily on the first final commit and are
// never updated or deleted by this service.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Segment is one durably committed finalized utterance within a session.
// Immutable once written. Seq values for a session are strictly increasing
// and unique, but not necessarily contiguous.
type Segment struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Seq       int64     `json:"segmentSeq"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Draft is the ephemeral, TTL-bound latest partial transcript for a session.
// At most one live instance per session; overwritten on every partial and
// deleted after a final commit. Seq is a display-only placeholder and never
// reserves a sequence number.
type Draft struct {
	Text      string    `json:"text"`
	Seq       int64     `json:"seq"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Event types emitted to the transport.
const (
	EventPartial = "partial"
	EventFinal   = "final"
)

// TranscriptEvent is the outbound wire schema for the websocket transport.
type TranscriptEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Seq  int64  `json:"seq"`
}
