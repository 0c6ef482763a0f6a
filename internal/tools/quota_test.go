package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/promptforge/backend/internal/middleware"
	"github.com/promptforge/backend/internal/models"
)

type fakeCounter struct {
	count int64
	err   error
	since time.Time
}

func (f *fakeCounter) CountSince(_ context.Context, _ string, t time.Time) (int64, error) {
	f.since = t
	return f.count, f.err
}

func TestCheckQuota_UnderLimit(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: "u1", RequestLimit: 10}
	err := CheckQuota(context.Background(), &fakeCounter{count: 9}, user, time.Now())
	require.NoError(t, err)
}

func TestCheckQuota_AtLimit(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: "u1", RequestLimit: 10}
	err := CheckQuota(context.Background(), &fakeCounter{count: 10}, user, time.Now())

	var qe *QuotaError
	require.ErrorAs(t, err, &qe)
	require.Equal(t, 10, qe.Limit)
	require.EqualValues(t, 10, qe.Used)
}

func TestCheckQuota_CountsFromStartOfDay(t *testing.T) {
	t.Parallel()

	counter := &fakeCounter{}
	now := time.Date(2026, 8, 28, 15, 42, 7, 0, time.Local)
	user := &models.User{ID: "u1", RequestLimit: 10}
	require.NoError(t, CheckQuota(context.Background(), counter, user, now))

	require.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.Local), counter.since)
}

func TestRequireQuota_Rejects429WithCounts(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run when quota is exhausted")
	})

	user := &models.User{ID: "u1", RequestLimit: 5}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), user))
	w := httptest.NewRecorder()

	RequireQuota(&fakeCounter{count: 5})(next).ServeHTTP(w, req)

	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.EqualValues(t, 5, body["limit"])
	require.EqualValues(t, 5, body["used"])
	require.Equal(t, "Rate limit exceeded", body["error"])
}

func TestRequireQuota_PassesUnderLimit(t *testing.T) {
	t.Parallel()

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	user := &models.User{ID: "u1", RequestLimit: 5}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), user))

	RequireQuota(&fakeCounter{count: 4})(next).ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, called)
}

func TestRequireQuota_StoreErrorIs500(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: "u1", RequestLimit: 5}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), user))
	w := httptest.NewRecorder()

	RequireQuota(&fakeCounter{err: errors.New("mongo down")})(http.HandlerFunc(
		func(http.ResponseWriter, *http.Request) {
			t.Fatal("next handler must not run on store error")
		})).ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireQuota_NoUserIs401(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	RequireQuota(&fakeCounter{})(http.HandlerFunc(
		func(http.ResponseWriter, *http.Request) {
			t.Fatal("next handler must not run without a user")
		})).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStartOfDay(t *testing.T) {
	t.Parallel()

	in := time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.Local)
	require.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.Local), StartOfDay(in))
}
