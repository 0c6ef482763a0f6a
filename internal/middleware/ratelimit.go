package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitStore is the subset of redis commands the IP limiter uses.
// *redis.Client satisfies it.
type RateLimitStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// RateLimitByIP caps the number of requests per client IP inside a rolling
// window, counted in Redis. This runs ahead of auth and the per-user daily
// quota; it protects the API as a whole, not any one account.
//
// The counter is created with its TTL (SETNX with expiry) before the
// increment. A separate EXPIRE after INCR could be lost, leaving a counter
// that never resets and an IP banned forever once over the limit.
//
// Redis being down fails open: business traffic should not stop because the
// limiter's backing store is unavailable.
func RateLimitByIP(rdb RateLimitStore, limit int, window time.Duration, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			key := "ratelimit:ip:" + ip

			if err := rdb.SetNX(r.Context(), key, 0, window).Err(); err != nil {
				log.Warn("ip rate limiter unavailable", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			n, err := rdb.Incr(r.Context(), key).Result()
			if err != nil {
				log.Warn("ip rate limiter unavailable", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			if n > int64(limit) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"Too many requests from this IP, please try again after 24 hours"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP assumes chi's RealIP middleware already rewrote RemoteAddr from
// X-Forwarded-For / X-Real-IP where present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
