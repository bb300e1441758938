package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CacheHits           map[string]uint64
	CacheMisses         map[string]uint64
	InvalidatedKeys     uint64
	TasksCreated        uint64
	TasksUpdated        uint64
	TasksDeleted        uint64
	ListDurationCount   uint64
	ListDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                  sync.Mutex
	cacheHits           map[string]uint64
	cacheMisses         map[string]uint64
	invalidatedKeys     uint64
	tasksCreated        uint64
	tasksUpdated        uint64
	tasksDeleted        uint64
	listDurationCount   uint64
	listDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		cacheHits:   make(map[string]uint64),
		cacheMisses: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	hits := make(map[string]uint64, len(m.cacheHits))
	for k, v := range m.cacheHits {
		hits[k] = v
	}
	misses := make(map[string]uint64, len(m.cacheMisses))
	for k, v := range m.cacheMisses {
		misses[k] = v
	}

	return Snapshot{
		CacheHits:           hits,
		CacheMisses:         misses,
		InvalidatedKeys:     m.invalidatedKeys,
		TasksCreated:        m.tasksCreated,
		TasksUpdated:        m.tasksUpdated,
		TasksDeleted:        m.tasksDeleted,
		ListDurationCount:   m.listDurationCount,
		ListDurationTotalNs: m.listDurationTotalNs,
	}
}

// IncCacheHit increments the hit counter for a key kind.
func (m *InMemoryRecorder) IncCacheHit(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits[kind]++
}

// IncCacheMiss increments the miss counter for a key kind.
func (m *InMemoryRecorder) IncCacheMiss(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheMisses[kind]++
}

// ObserveInvalidatedKeys adds to the invalidated key counter.
func (m *InMemoryRecorder) ObserveInvalidatedKeys(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidatedKeys += uint64(count)
}

// IncTaskCreated increments the task created counter.
func (m *InMemoryRecorder) IncTaskCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasksCreated++
}

// IncTaskUpdated increments the task updated counter.
func (m *InMemoryRecorder) IncTaskUpdated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasksUpdated++
}

// IncTaskDeleted increments the task deleted counter.
func (m *InMemoryRecorder) IncTaskDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasksDeleted++
}

// ObserveListDuration records an uncached list query duration.
func (m *InMemoryRecorder) ObserveListDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listDurationCount++
	m.listDurationTotalNs += duration.Nanoseconds()
}
