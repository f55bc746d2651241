// Package cache wraps the participant-record cache. Deployments point it at
// Redis; when no Redis host is configured it degrades to an in-process map
// so developers can run the service without extra infrastructure.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/seattleflu/husky-musher/internal/config"
)

// Store is the minimal key-value surface the service needs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// Cache namespaces keys under the application name so several deployments
// can share one Redis instance.
type Cache struct {
	store  Store
	prefix string
	ttl    time.Duration
}

func New(cfg config.Config) *Cache {
	var store Store
	if cfg.Redis.Host != "" {
		store = NewRedisStore(cfg.Redis)
	} else {
		store = NewMemoryStore()
	}
	return &Cache{
		store:  store,
		prefix: cfg.App.Name + ".",
		ttl:    cfg.Redis.CacheTTL,
	}
}

// NewWithStore builds a cache over an explicit store. Used by tests and by
// callers that manage the store lifecycle themselves.
func NewWithStore(store Store, appName string, ttl time.Duration) *Cache {
	return &Cache{store: store, prefix: appName + ".", ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	return c.store.Get(ctx, c.sanitizeKey(key))
}

func (c *Cache) Set(ctx context.Context, key, value string) error {
	return c.store.Set(ctx, c.sanitizeKey(key), value, c.ttl)
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

func (c *Cache) sanitizeKey(key string) string {
	if len(key) >= len(c.prefix) && key[:len(c.prefix)] == c.prefix {
		return key
	}
	return c.prefix + key
}

// RedisStore backs the cache with Redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
		}),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
