package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/promptforge/backend/internal/middleware"
	"github.com/promptforge/backend/internal/models"
)

// RequestLog defines the aggregation queries over the prompt request log.
type RequestLog interface {
	CountByUser(ctx context.Context, userID string) (int64, error)
	CountSince(ctx context.Context, userID string, t time.Time) (int64, error)
	DailyCounts(ctx context.Context, userID string, t time.Time) (map[string]int, error)
}

// Handler serves GET /api/stats/usage.
type Handler struct {
	requests RequestLog
	log      *slog.Logger

	// now is swapped in tests to pin the window.
	now func() time.Time
}

func NewHandler(requests RequestLog, log *slog.Logger) *Handler {
	return &Handler{requests: requests, log: log, now: time.Now}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Usage returns the 7-day histogram, lifetime total, today's count, and the
// user's daily limit.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	now := h.now()
	since := windowStart(now, UsageWindowDays)

	buckets, err := h.requests.DailyCounts(r.Context(), user.ID, since)
	if err != nil {
		h.log.Error("daily counts", "err", err, "user_id", user.ID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}

	total, err := h.requests.CountByUser(r.Context(), user.ID)
	if err != nil {
		h.log.Error("total count", "err", err, "user_id", user.ID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}

	today, err := h.requests.CountSince(r.Context(), user.ID, startOfDay(now))
	if err != nil {
		h.log.Error("today count", "err", err, "user_id", user.ID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}

	writeJSON(w, http.StatusOK, models.UsageStats{
		DailyUsage:    FillDailyUsage(buckets, now, UsageWindowDays),
		TotalRequests: total,
		RequestsToday: today,
		RequestLimit:  user.RequestLimit,
	})
}
