package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/model"
)

// ErrCacheDown simulates an unreachable cache backend.
var ErrCacheDown = errors.New("cache backend unavailable")

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemCache is an in-memory stand-in for the Redis cache layer.
// It satisfies service.TaskCache and service.AuthCache, reuses the real key
// scheme from the cache package, and honors TTLs and glob deletion.
//
// Set Down to true to make every operation fail, for fail-open tests.
type MemCache struct {
	mu      sync.Mutex
	entries map[string]memEntry

	Down bool
}

// NewMemCache creates an empty MemCache.
func NewMemCache() *MemCache {
	return &MemCache{entries: make(map[string]memEntry)}
}

// Len returns the number of live entries.
func (c *MemCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	now := time.Now()
	for _, e := range c.entries {
		if e.expiresAt.After(now) {
			n++
		}
	}
	return n
}

// Has reports whether a live entry exists for the key.
func (c *MemCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && e.expiresAt.After(time.Now())
}

// Corrupt replaces an entry's payload with data that is not valid for its
// type, simulating a poisoned cache.
func (c *MemCache) Corrupt(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memEntry{data: []byte(`{"bogus"`), expiresAt: time.Now().Add(time.Hour)}
}

func (c *MemCache) get(key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Down {
		return ErrCacheDown
	}

	e, ok := c.entries[key]
	if !ok || !e.expiresAt.After(time.Now()) {
		return cache.ErrCacheMiss
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		delete(c.entries, key)
		return cache.ErrCacheMiss
	}
	return nil
}

func (c *MemCache) set(key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Down {
		return ErrCacheDown
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = memEntry{data: data, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *MemCache) delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Down {
		return ErrCacheDown
	}

	delete(c.entries, key)
	return nil
}

// GetTask implements service.TaskCache.
func (c *MemCache) GetTask(_ context.Context, taskID string) (*model.Task, error) {
	var task model.Task
	if err := c.get(cache.TaskKey(taskID), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetTask implements service.TaskCache.
func (c *MemCache) SetTask(_ context.Context, task *model.Task, ttl time.Duration) error {
	return c.set(cache.TaskKey(task.ID), task, ttl)
}

// DeleteTask implements service.TaskCache.
func (c *MemCache) DeleteTask(_ context.Context, taskID string) error {
	return c.delete(cache.TaskKey(taskID))
}

// GetTaskPage implements service.TaskCache.
func (c *MemCache) GetTaskPage(_ context.Context, ownerID string, q cache.ListQuery) (*model.TaskPage, error) {
	var page model.TaskPage
	if err := c.get(cache.ListKey(ownerID, q), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SetTaskPage implements service.TaskCache.
func (c *MemCache) SetTaskPage(_ context.Context, ownerID string, q cache.ListQuery, page *model.TaskPage, ttl time.Duration) error {
	return c.set(cache.ListKey(ownerID, q), page, ttl)
}

// GetStats implements service.TaskCache.
func (c *MemCache) GetStats(_ context.Context, ownerID string) (*model.TaskStats, error) {
	var stats model.TaskStats
	if err := c.get(cache.StatsKey(ownerID), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetStats implements service.TaskCache.
func (c *MemCache) SetStats(_ context.Context, ownerID string, stats *model.TaskStats, ttl time.Duration) error {
	return c.set(cache.StatsKey(ownerID), stats, ttl)
}

// InvalidateOwnerLists implements service.TaskCache with glob semantics
// matching the Redis SCAN-based deletion.
func (c *MemCache) InvalidateOwnerLists(_ context.Context, ownerID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Down {
		return 0, ErrCacheDown
	}

	pattern := cache.OwnerListPattern(ownerID)
	removed := 0
	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

// GetAuthContext retrieves a cached auth context.
func (c *MemCache) GetAuthContext(_ context.Context, userID string) (*model.AuthContext, error) {
	var authCtx model.AuthContext
	if err := c.get("auth:user:"+userID, &authCtx); err != nil {
		return nil, err
	}
	return &authCtx, nil
}

// SetAuthContext caches an auth context.
func (c *MemCache) SetAuthContext(_ context.Context, authCtx *model.AuthContext) error {
	return c.set("auth:user:"+authCtx.UserID, authCtx, cache.AuthContextTTL)
}

// DeleteAuthContext implements service.AuthCache.
func (c *MemCache) DeleteAuthContext(_ context.Context, userID string) error {
	return c.delete("auth:user:" + userID)
}
