package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/shosseini811/MultiGenQA/internal/metrics"
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

	for _, class := range sortedKeys(snap.HTTPRequests) {
		writeMetric(w, "multigenqa_http_requests_total{status=%q} %d\n", class, snap.HTTPRequests[class])
	}

	for _, model := range sortedKeys(snap.AIRequests) {
		byStatus := snap.AIRequests[model]
		for _, status := range sortedKeys(byStatus) {
			writeMetric(w, "multigenqa_ai_requests_total{model=%q,status=%q} %d\n", model, status, byStatus[status])
		}
	}

	for _, model := range sortedKeys(snap.AIRequestDurations) {
		stat := snap.AIRequestDurations[model]
		writeMetric(w, "multigenqa_ai_request_duration_seconds_count{model=%q} %d\n", model, stat.Count)
		writeMetric(w, "multigenqa_ai_request_duration_seconds_sum{model=%q} %.6f\n", model, float64(stat.TotalNs)/1e9)
	}

	writeMetric(w, "multigenqa_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "multigenqa_conversations_created_total %d\n", snap.ConversationsCreated)

	for _, role := range sortedKeys(snap.MessagesSaved) {
		writeMetric(w, "multigenqa_messages_saved_total{role=%q} %d\n", role, snap.MessagesSaved[role])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// sortedKeys returns map keys in lexical order for stable output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
