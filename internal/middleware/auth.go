package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/promptforge/backend/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenVerifier validates a bearer token and returns the user id it carries.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserStore loads the account behind a verified token. The user row is
// re-fetched on every request, so a deleted account locks out immediately
// even though tokens themselves are never revoked.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// UserFromContext returns the authenticated user placed by RequireAuth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

// WithUser is used by handler tests to inject an authenticated user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// RequireAuth validates the Authorization bearer token and injects the full
// user record into the request context.
func RequireAuth(tokens TokenVerifier, users UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, `{"error":"No authentication token, access denied"}`, http.StatusUnauthorized)
				return
			}

			userID, err := tokens.Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, `{"error":"Token is not valid"}`, http.StatusUnauthorized)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil || user == nil {
				http.Error(w, `{"error":"User not found"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
