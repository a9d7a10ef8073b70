package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisKeyPrefix = "storefront:session:"

// redisStore keeps each session as a JSON value whose TTL is refreshed on
// every save, so idle sessions expire on their own.
type redisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed session store. A zero ttl keeps
// sessions until they are deleted.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration, logger zerolog.Logger) Store {
	return &redisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("store", "redis").Logger(),
	}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (r *redisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		r.logger.Error().Err(err).Str("session_id", id).Msg("failed to get session")
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *redisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := r.client.Set(ctx, redisKey(s.ID), data, r.ttl).Err(); err != nil {
		r.logger.Error().Err(err).Str("session_id", s.ID).Msg("failed to save session")
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Touch refreshes the key TTL. The stored UpdatedAt is left as written by the
// last Save; Redis tracks idleness through the TTL alone.
func (r *redisStore) Touch(ctx context.Context, id string, at time.Time) error {
	key := redisKey(id)

	var (
		found bool
		err   error
	)
	if r.ttl > 0 {
		found, err = r.client.Expire(ctx, key, r.ttl).Result()
	} else {
		var n int64
		n, err = r.client.Exists(ctx, key).Result()
		found = n > 0
	}
	if err != nil {
		r.logger.Error().Err(err).Str("session_id", id).Msg("failed to touch session")
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		r.logger.Error().Err(err).Str("session_id", id).Msg("failed to delete session")
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Purge is a no-op; Redis expires idle sessions through the key TTL.
func (r *redisStore) Purge(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}
