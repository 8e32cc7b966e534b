package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Limiter is the token-bucket contract the rate-limit middleware consumes.
// The cache package's Redis-backed limiter satisfies it.
type Limiter interface {
	// Allow spends one token for key, reporting whether the request may
	// proceed.
	Allow(ctx context.Context, key string) bool

	// RetryAfter returns how long a drained bucket needs for one token.
	RetryAfter() time.Duration
}

// RateLimit bounds requests per client IP and flow. Buckets are keyed
// "ip|flow" so one hot surface cannot drain another's budget. A nil
// limiter disables the check.
func RateLimit(limiter Limiter, flow string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := clientIP(r) + "|" + flow
			if !limiter.Allow(r.Context(), key) {
				retry := limiter.RetryAfter()
				w.Header().Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
				slog.Default().Debug("request rate limited",
					slog.String("key", key),
					slog.String("path", r.URL.Path))
				WriteJSON(w, http.StatusTooManyRequests, errorBody{Detail: "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the caller's address. chi's RealIP middleware has
// already folded X-Forwarded-For / X-Real-IP into RemoteAddr upstream.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
