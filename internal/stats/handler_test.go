package stats

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/promptforge/backend/internal/middleware"
	"github.com/promptforge/backend/internal/models"
)

type fakeRequestLog struct {
	total   int64
	today   int64
	buckets map[string]int

	dailySince time.Time
	todaySince time.Time
}

func (f *fakeRequestLog) CountByUser(_ context.Context, _ string) (int64, error) {
	return f.total, nil
}

func (f *fakeRequestLog) CountSince(_ context.Context, _ string, t time.Time) (int64, error) {
	f.todaySince = t
	return f.today, nil
}

func (f *fakeRequestLog) DailyCounts(_ context.Context, _ string, t time.Time) (map[string]int, error) {
	f.dailySince = t
	return f.buckets, nil
}

func TestUsage_ResponseShape(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	log := &fakeRequestLog{
		total:   42,
		today:   3,
		buckets: map[string]int{"2026-08-28": 3, "2026-08-26": 2},
	}

	h := NewHandler(log, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return now }

	user := &models.User{ID: "u1", RequestLimit: 10}
	req := httptest.NewRequest(http.MethodGet, "/api/stats/usage", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), user))
	w := httptest.NewRecorder()
	h.Usage(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got models.UsageStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))

	require.Len(t, got.DailyUsage, 7)
	require.Equal(t, "2026-08-22", got.DailyUsage[0].Date)
	require.Equal(t, "2026-08-28", got.DailyUsage[6].Date)
	require.Equal(t, 3, got.DailyUsage[6].Count)
	require.Equal(t, 2, got.DailyUsage[4].Count)
	require.EqualValues(t, 42, got.TotalRequests)
	require.EqualValues(t, 3, got.RequestsToday)
	require.Equal(t, 10, got.RequestLimit)

	// The histogram window starts 6 days back; today's count starts at
	// local midnight.
	require.Equal(t, time.Date(2026, 8, 22, 0, 0, 0, 0, time.Local), log.dailySince)
	require.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.Local), log.todaySince)
}

func TestUsage_Unauthenticated(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeRequestLog{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w := httptest.NewRecorder()
	h.Usage(w, httptest.NewRequest(http.MethodGet, "/api/stats/usage", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
