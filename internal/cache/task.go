package cache

import (
	"context"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

// GetTask retrieves a cached task by ID.
// Returns ErrCacheMiss if not found. The entry is keyed by task ID only;
// callers must verify ownership before returning a hit to a requester.
func (c *Cache) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	var task model.Task
	if err := c.GetJSON(ctx, TaskKey(taskID), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetTask stores a task under its detail key.
func (c *Cache) SetTask(ctx context.Context, task *model.Task, ttl time.Duration) error {
	return c.SetJSON(ctx, TaskKey(task.ID), task, ttl)
}

// DeleteTask removes a task's detail entry.
func (c *Cache) DeleteTask(ctx context.Context, taskID string) error {
	_, err := c.Delete(ctx, TaskKey(taskID))
	return err
}

// GetTaskPage retrieves a cached list page for an owner and query shape.
func (c *Cache) GetTaskPage(ctx context.Context, ownerID string, q ListQuery) (*model.TaskPage, error) {
	var page model.TaskPage
	if err := c.GetJSON(ctx, ListKey(ownerID, q), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SetTaskPage stores a list page under its query-shape key.
func (c *Cache) SetTaskPage(ctx context.Context, ownerID string, q ListQuery, page *model.TaskPage, ttl time.Duration) error {
	return c.SetJSON(ctx, ListKey(ownerID, q), page, ttl)
}

// GetStats retrieves an owner's cached stats summary.
func (c *Cache) GetStats(ctx context.Context, ownerID string) (*model.TaskStats, error) {
	var stats model.TaskStats
	if err := c.GetJSON(ctx, StatsKey(ownerID), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetStats stores an owner's stats summary. The TTL here is the staleness
// bound: stats are never invalidated on mutation.
func (c *Cache) SetStats(ctx context.Context, ownerID string, stats *model.TaskStats, ttl time.Duration) error {
	return c.SetJSON(ctx, StatsKey(ownerID), stats, ttl)
}

// InvalidateOwnerLists removes every cached list page for an owner.
// Returns the number of entries removed.
func (c *Cache) InvalidateOwnerLists(ctx context.Context, ownerID string) (int, error) {
	return c.DeletePattern(ctx, OwnerListPattern(ownerID))
}
