package viewstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a visitor's view state survives without navigation.
const DefaultTTL = 30 * time.Minute

// RedisStore keeps view state in Redis as JSON with a per-key TTL, so
// several site instances share it.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed store. A ttl <= 0 uses DefaultTTL.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get returns ErrNotFound if the key doesn't exist or has expired.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*State, error) {
	data, err := s.redis.Get(ctx, Key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			stateMisses.WithLabelValues("redis").Inc()
			return nil, ErrNotFound
		}
		stateErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		stateErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	stateHits.WithLabelValues("redis").Inc()
	return &st, nil
}

// Put stores the state and restarts its TTL.
func (s *RedisStore) Put(ctx context.Context, sessionID string, state *State) error {
	if state == nil {
		stateErrors.WithLabelValues("put").Inc()
		return ErrInvalidState
	}

	data, err := json.Marshal(state)
	if err != nil {
		stateErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal view state: %w", err)
	}

	if err := s.redis.Set(ctx, Key(sessionID), data, s.ttl).Err(); err != nil {
		stateErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	stateEntryBytes.Observe(float64(len(data)))
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, Key(sessionID)).Err(); err != nil {
		stateErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

// TTL returns the entry lifetime.
func (s *RedisStore) TTL() time.Duration {
	return s.ttl
}
