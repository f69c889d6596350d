package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store abstracts the key/value operations a session needs.
// Each call is a single atomic key operation; no multi-key transactions.
type Store interface {
	// Put writes value under key with a TTL, replacing any previous value.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns (nil, false, nil) when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// RedisStore implements Store on go-redis.
//
// The client is owned by the caller; this store never closes it.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil redis client", ErrConfig)
	}
	return &RedisStore{client: client}, nil
}

// Put issues SET key value EX ttl.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: non-positive ttl", ErrConfig)
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set: %w", ErrUnavailable, err)
	}
	return nil
}

// Get issues GET key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get: %w", ErrUnavailable, err)
	}
	return b, true, nil
}

// Delete issues DEL key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: del: %w", ErrUnavailable, err)
	}
	return nil
}

// Ping checks connectivity; used by readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrUnavailable, err)
	}
	return nil
}
