package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/profile"
	"github.com/gimlabs/gim/domain/scoring"
	"github.com/gimlabs/gim/domain/vector"
	"github.com/gimlabs/gim/infrastructure/api"
	apimiddleware "github.com/gimlabs/gim/infrastructure/api/middleware"
	"github.com/gimlabs/gim/infrastructure/persistence"
	"github.com/gimlabs/gim/infrastructure/provider"
	"github.com/gimlabs/gim/internal/database"
)

const testAPIKey = "e2e-test-key"

// TestServer runs the full HTTP surface for end to end tests: a gim
// client on SQLite and miniredis behind the real router, served over a
// live listener.
type TestServer struct {
	t          *testing.T
	client     *gim.Client
	httpServer *httptest.Server
	dbPath     string
}

// seedIssue describes one corpus row the seeder writes before the client
// opens.
type seedIssue struct {
	nodeID string
	title  string
	body   string
	labels []string
	age    time.Duration
	comps  scoring.QComponents
}

// seedCorpus returns the issues every test server starts with. Titles are
// distinct enough that lexical search can tell them apart.
func seedCorpus() []seedIssue {
	return []seedIssue{
		{
			nodeID: "I_ws",
			title:  "memory leak in websocket server",
			body:   "heap grows with every reconnect until the process is OOM killed",
			labels: []string{"bug"},
			age:    24 * time.Hour,
			comps:  scoring.NewQComponents(true, true, 0.9),
		},
		{
			nodeID: "I_retry",
			title:  "retry storm after broker restart",
			body:   "exponential backoff never caps, consumers hammer the broker",
			labels: []string{"bug"},
			age:    48 * time.Hour,
			comps:  scoring.NewQComponents(true, true, 0.6),
		},
		{
			nodeID: "I_docs",
			title:  "document the migration path for the v2 config format",
			body:   "the upgrade guide stops at v1 and never mentions the new keys",
			labels: []string{"documentation", "good first issue"},
			age:    72 * time.Hour,
			comps:  scoring.NewQComponents(false, true, 0.2),
		},
	}
}

// NewTestServer seeds a corpus, opens a gim client over it and serves the
// mounted API on a real listener. The worker polls fast so queued tasks
// settle within a test's patience.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "e2e.db")
	seedDatabase(t, dbPath)

	mr := miniredis.RunT(t)
	client, err := gim.New(
		gim.WithSQLite(dbPath),
		gim.WithRedisURL("redis://"+mr.Addr()),
		gim.WithAPIKeys(testAPIKey),
		gim.WithWorkerPollPeriod(20*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	config := api.NewConfig().WithAPIKeys(client.APIKeys())
	httpServer := httptest.NewServer(api.NewAPIServer(client, config).Handler())

	s := &TestServer{
		t:          t,
		client:     client,
		httpServer: httpServer,
		dbPath:     dbPath,
	}
	t.Cleanup(s.Close)
	return s
}

// seedDatabase writes one repository, the seed issues with embeddings,
// and an onboarded-but-uncomputed profile, then releases the handle so
// the client can take over the file.
func seedDatabase(t *testing.T, dbPath string) {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewDatabase(ctx, "sqlite:///"+dbPath)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := persistence.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	repoStore := persistence.NewRepoStore(db)
	if err := repoStore.UpsertAll(ctx, []issue.Repository{
		issue.NewRepository("R_e2e", "acme/gadget", "Go", []string{"networking", "distributed-systems"}, 4200),
	}); err != nil {
		t.Fatalf("seed repository: %v", err)
	}

	local := provider.NewLocalProvider(vector.Dim)
	issueStore := persistence.NewIssueStore(db)
	now := time.Now().UTC()
	for _, seed := range seedCorpus() {
		iss := issue.NewIssue(
			seed.nodeID, "R_e2e", seed.title, seed.body,
			seed.labels, issue.StateOpen,
			"https://github.com/acme/gadget/issues/1",
			now.Add(-seed.age),
			seed.comps,
		)
		resp, err := local.Embed(ctx, provider.NewEmbeddingRequest([]string{iss.EmbedText()}))
		if err != nil {
			t.Fatalf("embed seed issue: %v", err)
		}
		if err := issueStore.Upsert(ctx, iss.WithEmbedding(resp.Embeddings()[0], now)); err != nil {
			t.Fatalf("seed issue %s: %v", seed.nodeID, err)
		}
	}

	// u-pro has stated interests but no vectors yet. Recomputing the
	// profile is part of the flows under test.
	profileStore := persistence.NewProfileStore(db)
	prof := profile.NewUserProfile("u-pro").WithIntent(
		profile.NewIntentSource(
			"contribute to Go networking and distributed systems projects",
			[]string{"networking"},
			[]string{"Go"},
		),
		nil,
	)
	if _, err := profileStore.Save(ctx, prof); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

// Close shuts the listener before the client so in-flight requests
// cannot hit a closed client.
func (s *TestServer) Close() {
	s.httpServer.Close()
	_ = s.client.Close()
}

// Client exposes the underlying gim client for direct service calls.
func (s *TestServer) Client() *gim.Client { return s.client }

// URL returns the base URL of the running server.
func (s *TestServer) URL() string { return s.httpServer.URL }

// GetJSON performs an authenticated GET and decodes the JSON response.
func (s *TestServer) GetJSON(path, userID string, out any) int {
	s.t.Helper()

	req, err := http.NewRequest(http.MethodGet, s.httpServer.URL+path, nil)
	if err != nil {
		s.t.Fatalf("build request: %v", err)
	}
	req.Header.Set(apimiddleware.APIKeyHeader, testAPIKey)
	if userID != "" {
		req.Header.Set(apimiddleware.UserIDHeader, userID)
	}
	return s.do(req, out)
}

// PostJSON performs an authenticated POST with a JSON body and decodes
// the JSON response. A nil out discards the body.
func (s *TestServer) PostJSON(path, userID string, body, out any) int {
	s.t.Helper()

	encoded, err := json.Marshal(body)
	if err != nil {
		s.t.Fatalf("encode request body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, s.httpServer.URL+path, bytes.NewReader(encoded))
	if err != nil {
		s.t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.APIKeyHeader, testAPIKey)
	if userID != "" {
		req.Header.Set(apimiddleware.UserIDHeader, userID)
	}
	return s.do(req, out)
}

func (s *TestServer) do(req *http.Request, out any) int {
	s.t.Helper()

	resp, err := s.httpServer.Client().Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		s.t.Fatalf("read response body: %v", err)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			s.t.Fatalf("decode %s %s (%d): %v\nbody: %s", req.Method, req.URL.Path, resp.StatusCode, err, raw)
		}
	}
	return resp.StatusCode
}

// WaitForIdle blocks until the task queue drains or the deadline passes.
func (s *TestServer) WaitForIdle(ctx context.Context) {
	s.t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if s.client.WorkerIdle(ctx) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	s.t.Fatal("task queue did not drain in time")
}
