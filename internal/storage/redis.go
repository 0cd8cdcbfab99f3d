package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
	"github.com/redis/go-redis/v9"
)

// redisStore is the subset of pkg/redis.Client the slot backend needs.
type redisStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Ping(ctx context.Context) error
	CartSlotKey(scope, name string) string
}

var _ redisStore = (*pkgredis.Client)(nil)

// Redis stores each slot as one string key. Every save refreshes the key's expiry to
// ttl, the lifetime of the session that owns the scope. A zero ttl never expires.
type Redis struct {
	client redisStore
	ttl    time.Duration
}

// NewRedis binds the backend to a connected redis client.
func NewRedis(client redisStore, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Load(ctx context.Context, scope, name string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.client.CartSlotKey(scope, name))
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get slot: %w", err)
	}
	return value, nil
}

func (r *Redis) Save(ctx context.Context, scope, name string, value []byte) error {
	if err := r.client.Set(ctx, r.client.CartSlotKey(scope, name), value, r.ttl); err != nil {
		return fmt.Errorf("redis set slot: %w", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
