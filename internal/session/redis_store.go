package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socratic/internal/models"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "session:"

// RedisStore persists sessions in Redis with a TTL as the idle expiry, so
// state survives restarts and is shared across engine instances.
type RedisStore struct {
	client      *redis.Client
	idleTimeout time.Duration
}

// NewRedisStore creates a RedisStore. idleTimeout <= 0 stores without expiry.
func NewRedisStore(client *redis.Client, idleTimeout time.Duration) *RedisStore {
	return &RedisStore{client: client, idleTimeout: idleTimeout}
}

// Get loads a session. Redis TTL handles idle expiry, so a missing key covers
// both "never existed" and "idled out".
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.QuestionSession, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var session models.QuestionSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &session, nil
}

// Put saves a session and resets its idle TTL.
func (s *RedisStore) Put(ctx context.Context, session *models.QuestionSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.SessionID, err)
	}
	var ttl time.Duration
	if s.idleTimeout > 0 {
		ttl = s.idleTimeout
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.SessionID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", session.SessionID, err)
	}
	return nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}
