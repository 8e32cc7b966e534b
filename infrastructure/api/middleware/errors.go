package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gimlabs/gim/application/service"
)

// Sentinel errors for errors.Is matching across wrapping.
var (
	// ErrAuthentication marks authentication failures.
	ErrAuthentication = errors.New("authentication error")

	// ErrServer marks upstream or internal server failures.
	ErrServer = errors.New("server error")
)

// APIError is an HTTP-facing error with a status code, a client-safe
// message and an optional wrapped cause.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates an APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the client-safe message.
func (e *APIError) Message() string { return e.message }

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the wrapped cause.
func (e *APIError) Unwrap() error { return e.cause }

// AuthenticationError is returned when a request fails the API-key check.
type AuthenticationError struct {
	message string
}

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{message: message}
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.message)
}

// Unwrap makes the error match ErrAuthentication with errors.Is.
func (e *AuthenticationError) Unwrap() error { return ErrAuthentication }

// ServerError is returned when an internal subsystem fails in a way the
// client should see as a specific 5xx.
type ServerError struct {
	statusCode int
	message    string
}

// NewServerError creates a ServerError.
func NewServerError(statusCode int, message string) *ServerError {
	return &ServerError{statusCode: statusCode, message: message}
}

// StatusCode returns the HTTP status code.
func (e *ServerError) StatusCode() int { return e.statusCode }

// Message returns the client-safe message.
func (e *ServerError) Message() string { return e.message }

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.statusCode, e.message)
}

// Unwrap makes the error match ErrServer with errors.Is.
func (e *ServerError) Unwrap() error { return ErrServer }

// errorBody is the uniform error payload. 4xx messages describe what the
// caller got wrong; 5xx messages stay generic so internals never leak.
type errorBody struct {
	Detail string `json:"detail"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates an error into an HTTP response. The service
// taxonomy maps onto status codes here and nowhere else; handlers pass
// errors through untouched.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	status, detail := translate(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()))
	} else {
		logger.Debug("request rejected",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()))
	}

	WriteJSON(w, status, errorBody{Detail: detail})
}

// translate maps an error to a status code and a client-safe detail.
func translate(err error) (int, string) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code(), apiErr.Message()
	}
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return srvErr.StatusCode(), srvErr.Message()
	}

	switch {
	case errors.Is(err, ErrAuthentication),
		errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrRiskReauth):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, clientDetail(err)
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusUnprocessableEntity, clientDetail(err)
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, "rate limit exceeded"
	case errors.Is(err, service.ErrDependencyUnavailable),
		errors.Is(err, service.ErrClientClosed):
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// clientDetail returns the error text for 4xx responses. Service errors
// wrap the taxonomy sentinel with caller-fixable context, so the full
// message is safe to return.
func clientDetail(err error) string {
	return err.Error()
}
