package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is absent, expired, or the backend is
// unavailable. Callers never distinguish those cases.
var ErrCacheMiss = errors.New("cache miss")

// scanBatchSize bounds how many keys a single SCAN iteration returns.
const scanBatchSize = 100

// GetJSON retrieves a key and unmarshals its JSON value into dest.
// Returns ErrCacheMiss if the key is absent or the backend failed.
// No side effects on miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get degraded to miss",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return ErrCacheMiss
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// Corrupted entry: drop it and report a miss.
		c.client.Del(ctx, key)
		c.logger.Warn("cache entry corrupted, evicted",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return ErrCacheMiss
	}

	return nil
}

// SetJSON marshals value as JSON and stores it under key with the given TTL,
// overwriting any prior entry. Storage failures are logged; callers treat
// them as best-effort.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("cache set %s: %w", key, err)
	}

	return nil
}

// Delete removes a single key. Returns whether a key existed.
func (c *Cache) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := c.client.Del(ctx, key).Result()
	if err != nil {
		c.logger.Warn("cache delete failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("cache delete %s: %w", key, err)
	}
	return removed > 0, nil
}

// DeletePattern removes all keys matching a glob-style pattern and returns
// how many were removed. Uses SCAN rather than KEYS so the keyspace is never
// blocked; concurrent readers may observe the partially-deleted set for at
// most one round trip.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	var removed int64
	var cursor uint64

	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			c.logger.Warn("cache pattern delete failed",
				slog.String("pattern", pattern),
				slog.String("error", err.Error()),
			)
			return int(removed), fmt.Errorf("cache scan %s: %w", pattern, err)
		}

		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			removed += n
			if err != nil {
				c.logger.Warn("cache pattern delete failed",
					slog.String("pattern", pattern),
					slog.String("error", err.Error()),
				)
				return int(removed), fmt.Errorf("cache delete batch: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return int(removed), nil
}
