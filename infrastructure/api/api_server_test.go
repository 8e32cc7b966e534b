package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/scoring"
	"github.com/gimlabs/gim/domain/vector"
	"github.com/gimlabs/gim/infrastructure/api"
	"github.com/gimlabs/gim/infrastructure/api/middleware"
	"github.com/gimlabs/gim/infrastructure/api/v1/dto"
	"github.com/gimlabs/gim/infrastructure/persistence"
	"github.com/gimlabs/gim/infrastructure/provider"
	"github.com/gimlabs/gim/internal/database"
)

func newTestClient(t *testing.T) *gim.Client {
	t.Helper()
	return newClientAt(t, filepath.Join(t.TempDir(), "test.db"))
}

func newClientAt(t *testing.T, dbPath string) *gim.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := gim.New(
		gim.WithSQLite(dbPath),
		gim.WithRedisURL("redis://"+mr.Addr()),
	)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// newSeededClient seeds one repository and two embedded open issues
// before the client opens, enough for full-stack search and feed calls.
func newSeededClient(t *testing.T) *gim.Client {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := database.NewDatabase(context.Background(), "sqlite:///"+dbPath)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := persistence.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	ctx := context.Background()

	repoStore := persistence.NewRepoStore(db)
	if err := repoStore.UpsertAll(ctx, []issue.Repository{
		issue.NewRepository("R_ws", "acme/gadget", "Go", []string{"networking"}, 4200),
	}); err != nil {
		t.Fatalf("seed repository: %v", err)
	}

	local := provider.NewLocalProvider(vector.Dim)
	issueStore := persistence.NewIssueStore(db)
	now := time.Now().UTC()
	for nodeID, title := range map[string]string{
		"I_ws":    "memory leak in websocket server",
		"I_retry": "retry storm after broker restart",
	} {
		iss := issue.NewIssue(
			nodeID, "R_ws", title, "heap grows with every reconnect",
			[]string{"bug"}, issue.StateOpen,
			"https://github.com/acme/gadget/issues/1",
			now.Add(-24*time.Hour),
			scoring.NewQComponents(true, true, 0.5),
		)
		resp, err := local.Embed(ctx, provider.NewEmbeddingRequest([]string{iss.EmbedText()}))
		if err != nil {
			t.Fatalf("embed seed issue: %v", err)
		}
		if err := issueStore.Upsert(ctx, iss.WithEmbedding(resp.Embeddings()[0], now)); err != nil {
			t.Fatalf("seed issue: %v", err)
		}
	}
	_ = db.Close()

	return newClientAt(t, dbPath)
}

func TestAPIServer_AuthBoundaries(t *testing.T) {
	client := newSeededClient(t)
	config := api.NewConfig().WithAPIKeys([]string{"test-secret-key"})
	handler := api.NewAPIServer(client, config).Handler()

	get := func(t *testing.T, path, key, userID string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if key != "" {
			req.Header.Set(middleware.APIKeyHeader, key)
		}
		if userID != "" {
			req.Header.Set(middleware.UserIDHeader, userID)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("trending feed is open", func(t *testing.T) {
		if w := get(t, "/api/v1/feed/trending", "", ""); w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}
	})

	t.Run("stats and taxonomy are open", func(t *testing.T) {
		if w := get(t, "/api/v1/stats", "", ""); w.Code != http.StatusOK {
			t.Errorf("stats status = %d, want %d", w.Code, http.StatusOK)
		}
		if w := get(t, "/api/v1/taxonomy/languages", "", ""); w.Code != http.StatusOK {
			t.Errorf("taxonomy status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("search is open to anonymous callers", func(t *testing.T) {
		body := strings.NewReader(`{"query":"websocket server memory leak"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/search", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}
		var resp dto.SearchResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp.Items) == 0 || resp.Items[0].NodeID != "I_ws" {
			t.Errorf("items = %+v, want I_ws first", resp.Items)
		}
	})

	t.Run("personal feed requires an API key", func(t *testing.T) {
		if w := get(t, "/api/v1/feed", "", "u-1"); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("personal feed serves with key and user identity", func(t *testing.T) {
		if w := get(t, "/api/v1/feed", "test-secret-key", "u-1"); w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}
	})

	t.Run("issue detail requires an API key even on GET", func(t *testing.T) {
		if w := get(t, "/api/v1/issues/I_ws", "", ""); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if w := get(t, "/api/v1/issues/I_ws", "test-secret-key", ""); w.Code != http.StatusOK {
			t.Errorf("keyed status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}
	})

	t.Run("event submission rejects missing key before reading the body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/events", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		if w := get(t, "/api/v1/feed", "wrong-key", "u-1"); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

func TestAPIServer_Healthz(t *testing.T) {
	client := newTestClient(t)
	handler := api.NewAPIServer(client, api.NewConfig()).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestAPIServer_SecurityHeaders(t *testing.T) {
	client := newTestClient(t)
	handler := api.NewAPIServer(client, api.NewConfig()).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestAPIServer_CORSPreflight(t *testing.T) {
	client := newTestClient(t)
	config := api.NewConfig().WithAllowedOrigins([]string{"https://app.example.com"})
	handler := api.NewAPIServer(client, config).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want the configured origin", got)
	}

	// An origin outside the allow list gets no CORS grant.
	req = httptest.NewRequest(http.MethodOptions, "/api/v1/search", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty for unlisted origin", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		production bool
		wantErr    error
	}{
		{"wildcard rejected in production", []string{"*"}, true, api.ErrWildcardOrigin},
		{"wildcard tolerated in development", []string{"*"}, false, nil},
		{"explicit origins pass production", []string{"https://app.example.com"}, true, nil},
		{"empty origin list passes", nil, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := api.NewConfig().WithAllowedOrigins(tt.origins)
			err := config.Validate(tt.production)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate(%v) = %v, want %v", tt.production, err, tt.wantErr)
			}
		})
	}
}

// Routes mounted on a caller-supplied router still answer, matching the
// Router-then-MountRoutes customization path.
func TestAPIServer_CustomRouterPath(t *testing.T) {
	client := newTestClient(t)
	apiServer := api.NewAPIServer(client, api.NewConfig())

	router := apiServer.Router()
	apiServer.MountRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
}
