// Package cache provides the Redis read-through cache layer.
//
// Every operation fails open: a backend failure is reported to callers as a
// cache miss (reads) or a logged no-op (writes and deletes), so the cache can
// only degrade latency, never correctness.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides Redis cache access methods.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a new Cache with a Redis client.
func New(ctx context.Context, redisURL string, logger *slog.Logger) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{client: client, logger: logger}, nil
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the underlying Redis client.
func (c *Cache) Client() *redis.Client {
	return c.client
}
