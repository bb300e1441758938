package cache

import "fmt"

// Key namespaces. Single-entity keys are namespaced per task so point
// invalidation works without knowing the owner; list and stats keys are
// namespaced per owner so one pattern delete covers every query shape.
const (
	taskKeyPrefix  = "task:"
	listKeyPrefix  = "tasks:user:"
	statsKeyPrefix = "stats:user:"
)

// ListQuery identifies the shape of a task list request. Two requests with
// equal fields share one cache entry.
type ListQuery struct {
	Page     int
	PageSize int
	Status   string
	Priority string
	Search   string
}

// TaskKey returns the cache key for a single task.
func TaskKey(taskID string) string {
	return taskKeyPrefix + taskID
}

// ListKey returns the deterministic cache key for a list query shape.
func ListKey(ownerID string, q ListQuery) string {
	return fmt.Sprintf("%s%s:page:%d:size:%d:status:%s:priority:%s:search:%s",
		listKeyPrefix, ownerID, q.Page, q.PageSize, q.Status, q.Priority, q.Search)
}

// OwnerListPattern returns the glob matching every list key for an owner.
func OwnerListPattern(ownerID string) string {
	return listKeyPrefix + ownerID + ":*"
}

// StatsKey returns the cache key for an owner's stats summary.
func StatsKey(ownerID string) string {
	return statsKeyPrefix + ownerID
}
