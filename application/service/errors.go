package service

import "errors"

// Service errors form the closed taxonomy the HTTP boundary translates
// into status codes. Services wrap these with context; handlers unwrap
// with errors.Is and never invent statuses of their own.
var (
	// ErrClientClosed is returned when operations are attempted on a closed client.
	ErrClientClosed = errors.New("gim: client is closed")

	// ErrNotFound marks a missing entity or expired context. Translates to 404.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks a request the caller can fix. Translates to 400
	// or 422 depending on whether the shape or the semantics are wrong.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated marks a missing or unknown API key. Translates to
	// 401 before any payload validation runs.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrRateLimited marks a caller over its request budget. Translates to
	// 429 with Retry-After.
	ErrRateLimited = errors.New("rate limited")

	// ErrRiskReauth marks an upstream demand for step-up authentication.
	// The session layer lives outside this service, so the boundary can only
	// surface it as 401.
	ErrRiskReauth = errors.New("reauthentication required")

	// ErrDependencyUnavailable marks a hard dependency outage, such as the
	// cache being down during event submission. Translates to 503.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
