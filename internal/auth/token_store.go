package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adminconsole/internal/cache"
	apperrors "adminconsole/internal/errors"
)

const sessionKeyPrefix = "session:"

// RedisStore keeps sessions in Redis so they survive restarts and are shared
// across instances.
type RedisStore struct {
	cache *cache.Client
}

// Ensure RedisStore implements SessionStore
var _ SessionStore = (*RedisStore)(nil)

// NewRedisStore creates a new Redis-backed session store.
func NewRedisStore(cache *cache.Client) *RedisStore {
	return &RedisStore{cache: cache}
}

// Save stores a session with TTL.
func (s *RedisStore) Save(ctx context.Context, session *Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl); err != nil {
		return apperrors.Unavailable(err)
	}
	return nil
}

// Get retrieves session data from Redis.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	if data == nil {
		return nil, ErrSessionMissing
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, ErrSessionMissing
	}
	return &session, nil
}

// Delete removes a session from Redis.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, sessionKeyPrefix+id); err != nil {
		return apperrors.Unavailable(err)
	}
	return nil
}
