package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore provides typed JSON-serialized state on Redis.
type RedisStore[C any] struct {
	rdb       goredis.UniversalClient
	keyPrefix string
}

// NewRedisStore creates a RedisStore on rdb. Every key is prefixed with
// keyPrefix verbatim.
func NewRedisStore[C any](rdb goredis.UniversalClient, keyPrefix string) *RedisStore[C] {
	return &RedisStore[C]{rdb: rdb, keyPrefix: keyPrefix}
}

func (s *RedisStore[C]) fullKey(key string) string { return s.keyPrefix + key }

// Load deserializes JSON from Redis. Returns (nil, nil) if key doesn't exist.
func (s *RedisStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.rdb.Get(ctx, s.fullKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis store load %q: %w", key, err)
	}

	var val C
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, fmt.Errorf("redis store unmarshal %q: %w", key, err)
	}
	return &val, nil
}

// Save serializes to JSON and stores with TTL.
func (s *RedisStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	if val == nil {
		return s.Delete(ctx, key)
	}
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("redis store marshal %q: %w", key, err)
	}
	if err := s.rdb.Set(ctx, s.fullKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis store save %q: %w", key, err)
	}
	return nil
}

// Delete removes the key.
func (s *RedisStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("redis store delete %q: %w", key, err)
	}
	return nil
}

var _ ContextStore[any] = (*RedisStore[any])(nil)
