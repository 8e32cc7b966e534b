package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// APIKeyHeader carries the caller's API key. The external session layer
// terminates user auth; this key identifies trusted callers of the core.
const APIKeyHeader = "X-API-KEY"

// UserIDHeader carries the authenticated user's ID, set by the session
// layer in front of this service. Empty means anonymous.
const UserIDHeader = "X-User-ID"

// AuthConfig holds the accepted API keys. No keys disables the check,
// which is the local-development mode.
type AuthConfig struct {
	keys []string
}

// NewAuthConfig creates a disabled AuthConfig.
func NewAuthConfig() AuthConfig {
	return AuthConfig{}
}

// NewAuthConfigWithKeys creates an AuthConfig accepting the given keys.
func NewAuthConfigWithKeys(keys []string) AuthConfig {
	cp := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		cp = append(cp, k)
	}
	return AuthConfig{keys: cp}
}

// Enabled reports whether any key is configured.
func (c AuthConfig) Enabled() bool { return len(c.keys) > 0 }

// Accepts reports whether the presented key matches a configured key.
// Comparison is constant-time per key.
func (c AuthConfig) Accepts(key string) bool {
	if key == "" {
		return false
	}
	for _, k := range c.keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

// WriteProtect requires a valid API key on mutating methods. GET, HEAD
// and OPTIONS pass through so read surfaces stay public.
func WriteProtect(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled() || isReadMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if !config.Accepts(r.Header.Get(APIKeyHeader)) {
				WriteError(w, r, NewAuthenticationError("missing or invalid API key"), slog.Default())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireKey requires a valid API key on every method. Used on surfaces
// that carry per-user data, where even reads need an authenticated caller.
// The check runs before any payload validation.
func RequireKey(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			if !config.Accepts(r.Header.Get(APIKeyHeader)) {
				WriteError(w, r, NewAuthenticationError("missing or invalid API key"), slog.Default())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserID returns the caller's user ID from the request, or "" for
// anonymous requests.
func UserID(r *http.Request) string {
	return r.Header.Get(UserIDHeader)
}

func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
