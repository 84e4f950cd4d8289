package handler

import (
	"fmt"
	"net/http"

	"github.com/fintrack/fintrack/internal/metrics"
	"github.com/fintrack/fintrack/internal/model"
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

	writeMetric(w, "fintrack_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "fintrack_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "fintrack_logins_total{status=\"failed\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "fintrack_auth_rejected_total %d\n", snap.AuthRejected)

	for _, kind := range model.Kinds {
		writeMetric(w, "fintrack_records_created_total{kind=%q} %d\n", string(kind), snap.RecordsCreated[string(kind)])
	}
	for _, kind := range model.Kinds {
		writeMetric(w, "fintrack_records_deleted_total{kind=%q} %d\n", string(kind), snap.RecordsDeleted[string(kind)])
	}

	writeMetric(w, "fintrack_summary_duration_seconds_count %d\n", snap.SummaryDurationCount)
	writeMetric(w, "fintrack_summary_duration_seconds_sum %.6f\n", float64(snap.SummaryDurationTotalNs)/1e9)

	for _, scope := range []string{"ip", "user"} {
		writeMetric(w, "fintrack_rate_limited_total{scope=%q} %d\n", scope, snap.RateLimited[scope])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
