package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/promptforge/backend/internal/middleware"
	"github.com/promptforge/backend/internal/models"
)

// RequestCounter counts a user's prompt submissions since a point in time.
type RequestCounter interface {
	CountSince(ctx context.Context, userID string, t time.Time) (int64, error)
}

// QuotaError reports a rejected submission with the limit and the count
// that tripped it.
type QuotaError struct {
	Limit int
	Used  int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("daily request limit reached: used %d of %d", e.Used, e.Limit)
}

// StartOfDay truncates t to 00:00:00 in its own location. The quota window
// is the server-local calendar day; there is no per-user timezone handling.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CheckQuota compares today's request count against the user's limit.
//
// The count and the later insert are separate operations, so concurrent
// submissions from one user can each pass the check before any insert
// lands. The limit is an advisory cap, not a hard gate.
func CheckQuota(ctx context.Context, counter RequestCounter, user *models.User, now time.Time) error {
	used, err := counter.CountSince(ctx, user.ID, StartOfDay(now))
	if err != nil {
		return fmt.Errorf("count requests today: %w", err)
	}
	if used >= int64(user.RequestLimit) {
		return &QuotaError{Limit: user.RequestLimit, Used: used}
	}
	return nil
}

// RequireQuota is middleware gating prompt submission on the daily quota.
// It expects RequireAuth to have run first.
func RequireQuota(counter RequestCounter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := middleware.UserFromContext(r.Context())
			if !ok {
				http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			err := CheckQuota(r.Context(), counter, user, time.Now())
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			if qe, ok := err.(*QuotaError); ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"error":   "Rate limit exceeded",
					"message": "You have reached your daily request limit",
					"limit":   qe.Limit,
					"used":    qe.Used,
				})
				return
			}

			http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
		})
	}
}
