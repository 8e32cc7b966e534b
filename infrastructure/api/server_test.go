package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewServer(t *testing.T) {
	server := NewServer(":8080", slog.Default())

	if server.Addr() != ":8080" {
		t.Errorf("Addr() = %v, want :8080", server.Addr())
	}
	if server.Router() == nil {
		t.Error("Router() returned nil")
	}
}

func TestServer_RouterServes(t *testing.T) {
	server := NewServer(":0", nil)
	router := server.Router()

	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusOK)
	}
	if w.Body.String() != "pong" {
		t.Errorf("body = %q, want pong", w.Body.String())
	}
}

func TestServer_NotFound(t *testing.T) {
	server := NewServer(":0", nil)

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusNotFound)
	}
}

// The base stack carries Recoverer, so a panicking handler answers 500
// instead of dropping the connection.
func TestServer_RecoversFromPanics(t *testing.T) {
	server := NewServer(":0", nil)
	router := server.Router()

	router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusInternalServerError)
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	server := NewServer(":0", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}
}
