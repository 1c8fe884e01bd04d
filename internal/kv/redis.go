// internal/kv/redis.go
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisStore implements the Store interface on a Redis instance. Slots map
// directly to Redis string keys under a fixed namespace.
type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed store from a connection URL
// ("redis://localhost:6379"). It pings the server before returning.
func NewRedis(url string) (Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &redisStore{client: client, prefix: "cliphaven:"}, nil
}

// Close closes the underlying Redis client.
func (r *redisStore) Close() {
	_ = r.client.Close()
}

func (r *redisStore) Get(ctx context.Context, slot string) (string, error) {
	value, err := r.client.Get(ctx, r.prefix+slot).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get slot: %w", err)
	}
	return value, nil
}

func (r *redisStore) Set(ctx context.Context, slot, value string) error {
	if err := r.client.Set(ctx, r.prefix+slot, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set slot: %w", err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, slot string) error {
	if err := r.client.Del(ctx, r.prefix+slot).Err(); err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return nil
}
