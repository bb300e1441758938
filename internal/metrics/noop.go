package metrics

import "time"

// NoopRecorder discards all metric events.
type NoopRecorder struct{}

// NewNoop returns a Recorder that does nothing.
func NewNoop() *NoopRecorder {
	return &NoopRecorder{}
}

func (*NoopRecorder) IncCacheHit(string) {}
func (*NoopRecorder) IncCacheMiss(string) {}
func (*NoopRecorder) ObserveInvalidatedKeys(int) {}
func (*NoopRecorder) IncTaskCreated() {}
func (*NoopRecorder) IncTaskUpdated() {}
func (*NoopRecorder) IncTaskDeleted() {}
func (*NoopRecorder) ObserveListDuration(time.Duration) {}
