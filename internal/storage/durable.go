package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"asr-session-service/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS segments (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL REFERENCES sessions(id),
	segment_seq INTEGER NOT NULL,
	content     TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	UNIQUE(session_id, segment_seq)
);
`

// SQLStore is the durable relational store. Sessions and segments are only
// ever written through the transactional inserts below, never updated or
// deleted.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens the database, verifies the connection and bootstraps
// the schema.
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent sessions.
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// EnsureSession creates the session row if it does not exist. The read and
// the insert run inside one transaction; repeated calls are no-ops beyond
// the read.
func (s *SQLStore) EnsureSession(ctx context.Context, sessionID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM sessions WHERE id = ?`, sessionID).Scan(&existing)
	switch {
	case err == nil:
		return tx.Commit()
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("lookup session: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, created_at) VALUES (?, ?, ?)`,
		sessionID, userID, nowUTC()); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// InsertSegment commits one segment row in a single transaction. No partial
// write is visible outside it.
func (s *SQLStore) InsertSegment(ctx context.Context, seg models.Segment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO segments (id, session_id, segment_seq, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		seg.ID, seg.SessionID, seg.Seq, seg.Text, seg.CreatedAt); err != nil {
		return fmt.Errorf("insert segment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit segment: %w", err)
	}
	return nil
}

// SegmentsForSession returns a session's committed segments in sequence
// order.
func (s *SQLStore) SegmentsForSession(ctx context.Context, sessionID string) ([]models.Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, segment_seq, content, created_at
		 FROM segments
		 WHERE session_id = ?
		 ORDER BY segment_seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var segs []models.Segment
	for rows.Next() {
		var seg models.Segment
		if err := rows.Scan(&seg.ID, &seg.SessionID, &seg.Seq, &seg.Text, &seg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segs = append(segs, seg)
	}
	return segs, rows.Err()
}

// GetSession looks up a session row by primary key. Returns nil when the
// session does not exist.
func (s *SQLStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM sessions WHERE id = ?`, sessionID)

	var sess models.Session
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &sess, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
