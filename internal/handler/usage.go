package handler

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/shosseini811/MultiGenQA/internal/auth"
	"github.com/shosseini811/MultiGenQA/internal/model"
)

// usagePeriodDays is the aggregation window for the usage endpoint.
const usagePeriodDays = 30

// UsageStore is the persistence surface the usage endpoint needs.
type UsageStore interface {
	UsageSummary(ctx context.Context, userID string, since time.Time) ([]*model.UsageStat, error)
}

// UsageHandler serves per-user usage statistics.
type UsageHandler struct {
	store  UsageStore
	logger *slog.Logger
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(store UsageStore, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{
		store:  store,
		logger: logger,
	}
}

// Get handles GET /api/usage.
func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	since := time.Now().UTC().AddDate(0, 0, -usagePeriodDays)
	stats, err := h.store.UsageSummary(r.Context(), user.ID, since)
	if err != nil {
		h.logger.Error("failed to summarize usage",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to load usage statistics")
		return
	}

	if stats == nil {
		stats = []*model.UsageStat{}
	}
	for _, stat := range stats {
		stat.Cost = round(stat.Cost, 4)
		stat.AvgResponseTime = round(stat.AvgResponseTime, 3)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period": "30_days",
		"usage":  stats,
	})
}

// round rounds v to the given number of decimal places.
func round(v float64, places int) float64 {
	factor := math.Pow10(places)
	return math.Round(v*factor) / factor
}
