package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"asr-session-service/internal/models"
)

// DefaultDraftTTL is how long a draft survives after its last write.
const DefaultDraftTTL = 300 * time.Second

// DraftKey returns the volatile-store key holding a session's draft hash.
func DraftKey(sessionID string) string {
	return fmt.Sprintf("asr:sess:%s:current", sessionID)
}

// RedisStore is the volatile-store client. It implements DraftStore and the
// sequencer's Counter. One long-lived, connection-pooled instance is shared
// by all sessions.
type RedisStore struct {
	rdb      *redis.Client
	draftTTL time.Duration
}

// RedisConfig holds volatile-store connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	DraftTTL time.Duration
}

// NewRedisStore creates a RedisStore and verifies connectivity.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	ttl := cfg.DraftTTL
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{rdb: rdb, draftTTL: ttl}, nil
}

// Incr atomically increments the counter at key and returns the new value.
func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.rdb.Incr(ctx, key).Result()
}

// Get reads the counter at key, treating an absent key as 0.
func (s *RedisStore) Get(ctx context.Context, key string) (int64, error) {
	raw, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric counter %q: %w", raw, err)
	}
	return v, nil
}

// PutDraft overwrites the session's draft hash and resets its TTL. The
// multi-field write and the expire run in one MULTI/EXEC pipeline.
func (s *RedisStore) PutDraft(ctx context.Context, sessionID string, draft models.Draft) error {
	key := DraftKey(sessionID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"content": draft.Text,
			"seq":     draft.Seq,
			"ts":      draft.UpdatedAt.UTC().Format(time.RFC3339Nano),
		})
		pipe.Expire(ctx, key, s.draftTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	return nil
}

// GetDraft reads the session's draft hash, if present.
func (s *RedisStore) GetDraft(ctx context.Context, sessionID string) (models.Draft, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, DraftKey(sessionID)).Result()
	if err != nil {
		return models.Draft{}, false, err
	}
	if len(fields) == 0 {
		return models.Draft{}, false, nil
	}
	draft := models.Draft{Text: fields["content"]}
	if raw, ok := fields["seq"]; ok {
		draft.Seq, _ = strconv.ParseInt(raw, 10, 64)
	}
	if raw, ok := fields["ts"]; ok {
		draft.UpdatedAt, _ = time.Parse(time.RFC3339Nano, raw)
	}
	return draft, true, nil
}

// DeleteDraft removes the session's draft key.
func (s *RedisStore) DeleteDraft(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, DraftKey(sessionID)).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
