// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Cache metrics; kind is one of "task", "list", "stats".
	IncCacheHit(kind string)
	IncCacheMiss(kind string)
	ObserveInvalidatedKeys(count int)

	// Task lifecycle metrics
	IncTaskCreated()
	IncTaskUpdated()
	IncTaskDeleted()

	// Uncached list query latency
	ObserveListDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
