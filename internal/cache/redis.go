package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/immigration-docs/internal/common"
)

// Redis implements Cache on a go-redis client.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// OpenRedis connects using the cache config and pings the server.
func OpenRedis(ctx context.Context, cfg common.CacheConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return NewRedis(client, "immidocs:"), nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	return b, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Open returns the cache described by cfg: nil when disabled, Redis when an
// address is configured and reachable, memory otherwise. The returned close
// function is never nil.
func Open(ctx context.Context, cfg common.CacheConfig, logger *slog.Logger) (Cache, func() error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() error { return nil }
	if cfg.Disabled {
		return nil, noop
	}
	if cfg.RedisAddr == "" {
		return NewMemory(), noop
	}
	r, err := OpenRedis(ctx, cfg)
	if err != nil {
		logger.Warn("cache.redis.unavailable", "addr", cfg.RedisAddr, "error", err, "fallback", "memory")
		return NewMemory(), noop
	}
	logger.Info("cache.redis.connected", "addr", cfg.RedisAddr)
	return r, r.Close
}
