package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/taskdeck/taskdeck/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	for _, kind := range sortedKinds(snap.CacheHits, snap.CacheMisses) {
		writeMetric(w, "taskdeck_cache_hits_total{kind=%q} %d\n", kind, snap.CacheHits[kind])
		writeMetric(w, "taskdeck_cache_misses_total{kind=%q} %d\n", kind, snap.CacheMisses[kind])
	}
	writeMetric(w, "taskdeck_cache_invalidated_keys_total %d\n", snap.InvalidatedKeys)

	writeMetric(w, "taskdeck_tasks_created_total %d\n", snap.TasksCreated)
	writeMetric(w, "taskdeck_tasks_updated_total %d\n", snap.TasksUpdated)
	writeMetric(w, "taskdeck_tasks_deleted_total %d\n", snap.TasksDeleted)

	writeMetric(w, "taskdeck_list_query_duration_seconds_count %d\n", snap.ListDurationCount)
	writeMetric(w, "taskdeck_list_query_duration_seconds_sum %.6f\n", float64(snap.ListDurationTotalNs)/1e9)
}

func sortedKinds(maps ...map[string]uint64) []string {
	seen := make(map[string]struct{})
	for _, m := range maps {
		for kind := range m {
			seen[kind] = struct{}{}
		}
	}
	kinds := make([]string, 0, len(seen))
	for kind := range seen {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
