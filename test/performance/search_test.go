package performance_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/domain/scoring"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/domain/vector"
	"github.com/gimlabs/gim/infrastructure/persistence"
	"github.com/gimlabs/gim/infrastructure/provider"
	infrasearch "github.com/gimlabs/gim/infrastructure/search"
	"github.com/gimlabs/gim/internal/database"
)

// searchCorpusSize is the issue count the retrieval phases run against.
const searchCorpusSize = 1000

// perfDB opens a throwaway SQLite database with the schema migrated.
func perfDB(t *testing.T) (database.Database, string) {
	t.Helper()
	ctx := context.Background()

	path := t.TempDir() + "/perf.db"
	db, err := database.NewDatabase(ctx, "sqlite:///"+path)
	require.NoError(t, err)
	require.NoError(t, persistence.AutoMigrate(db))

	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

// sampleIssues returns realistic issue texts for the corpus. Titles and
// bodies rotate through common failure reports and feature requests so
// lexical and vector retrieval both have something to bite on.
func sampleIssues() []struct{ title, body string } {
	return []struct{ title, body string }{
		{
			"connection pool exhausted under sustained load",
			"After roughly an hour of steady traffic every request blocks on acquiring a connection. The pool reports all slots busy but pg_stat_activity shows idle sessions.\n\n```\nFATAL: remaining connection slots are reserved\n```",
		},
		{
			"panic: concurrent map writes in metrics registry",
			"Two collectors registering histograms at startup race on the registry map. Reproduces about one run in five with -race enabled.",
		},
		{
			"memory usage grows unbounded when websocket clients reconnect",
			"Each reconnect leaks the previous session's send buffer. Heap profiles show the buffers pinned by the hub's broadcast slice.\n\n```go\nhub.sessions = append(hub.sessions, s)\n```",
		},
		{
			"support configurable retry backoff for webhook delivery",
			"Delivery currently retries on a fixed five second interval. An exponential schedule with a cap would stop us hammering endpoints that are down for maintenance.",
		},
		{
			"document the migration path from v1 to v2 configuration",
			"The upgrade guide stops at the v1 keys. Nothing explains how the nested v2 sections map onto the old flat file, so every upgrade is guesswork.",
		},
		{
			"flaky test: consumer rebalance times out on slow runners",
			"The rebalance test waits two seconds for partition assignment, which is not enough on loaded CI machines. Locally it never fails.",
		},
		{
			"add histogram for queue flush latency",
			"We only export a counter for flushed events. A latency histogram per flush batch would make the p99 visible before consumers start lagging.",
		},
		{
			"TLS handshake errors after certificate rotation",
			"Rotating the serving certificate leaves long-lived clients failing with bad certificate until they reconnect. The listener should pick up the new keypair without a restart.",
		},
		{
			"CLI exits zero on partial failure",
			"When three of five uploads fail the command still exits 0, so CI pipelines report green. Partial failure needs a non-zero exit code and a summary line.",
		},
		{
			"feature request: dry-run flag for the sync command",
			"Sync applies destructive changes immediately. A --dry-run that prints the plan would make it safe to use against production buckets.",
		},
	}
}

// seedSearchCorpus writes one repository and n embedded open issues.
func seedSearchCorpus(t *testing.T, db database.Database, n int) {
	t.Helper()
	ctx := context.Background()

	repoStore := persistence.NewRepoStore(db)
	require.NoError(t, repoStore.UpsertAll(ctx, []issue.Repository{
		issue.NewRepository("R_perf", "acme/loadbearing", "Go", []string{"networking", "observability"}, 12000),
	}))

	local := provider.NewLocalProvider(vector.Dim)
	issueStore := persistence.NewIssueStore(db)
	samples := sampleIssues()
	labels := [][]string{{"bug"}, {"enhancement"}, {"documentation"}, {"good first issue"}, {"help wanted"}}
	now := time.Now().UTC()

	start := time.Now()
	for batch := 0; batch < n; batch += 100 {
		size := min(100, n-batch)
		issues := make([]issue.Issue, size)
		texts := make([]string, size)
		for i := range size {
			idx := batch + i
			sample := samples[idx%len(samples)]
			issues[i] = issue.NewIssue(
				fmt.Sprintf("I_perf_%06d", idx),
				"R_perf",
				fmt.Sprintf("%s (#%d)", sample.title, idx),
				sample.body,
				labels[idx%len(labels)],
				issue.StateOpen,
				fmt.Sprintf("https://github.com/acme/loadbearing/issues/%d", idx),
				now.Add(-time.Duration(idx)*time.Hour),
				scoring.NewQComponents(idx%2 == 0, idx%3 != 0, 0.3+float64(idx%7)*0.1),
			)
			texts[i] = issues[i].EmbedText()
		}

		resp, err := local.Embed(ctx, provider.NewEmbeddingRequest(texts))
		require.NoError(t, err)
		vecs := resp.Embeddings()
		require.Len(t, vecs, size)

		for i, iss := range issues {
			require.NoError(t, issueStore.Upsert(ctx, iss.WithEmbedding(vecs[i], now)))
		}
	}
	elapsed := time.Since(start)
	t.Logf("seeded corpus: issues=%d total=%v per_item=%v", n, elapsed, elapsed/time.Duration(n))
}

// TestSearchPipeline times every stage of retrieval over a seeded corpus:
// embedding throughput, ingest, both stage-1 arms in isolation and the
// full hybrid query through the client wiring.
func TestSearchPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping performance test in short mode")
	}

	ctx := context.Background()
	db, dbPath := perfDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	local := provider.NewLocalProvider(vector.Dim)

	// --- Phase 1: embedding throughput ---
	t.Run("embedding_throughput", func(t *testing.T) {
		batchSizes := []int{1, 10, 32, 64, 100}
		for _, size := range batchSizes {
			t.Run(fmt.Sprintf("batch_%d", size), func(t *testing.T) {
				texts := make([]string, size)
				samples := sampleIssues()
				for i := range texts {
					sample := samples[i%len(samples)]
					texts[i] = sample.title + "\n\n" + sample.body
				}

				start := time.Now()
				resp, err := local.Embed(ctx, provider.NewEmbeddingRequest(texts))
				elapsed := time.Since(start)
				require.NoError(t, err)
				require.Len(t, resp.Embeddings(), size)

				t.Logf("batch=%d total=%v per_item=%v items/sec=%.1f",
					size, elapsed, elapsed/time.Duration(size), float64(size)/elapsed.Seconds())
			})
		}
	})

	// --- Phase 2: ingest (embed plus upsert, the collector's write path) ---
	seedSearchCorpus(t, db, searchCorpusSize)

	// --- Phase 3: lexical arm ---
	t.Run("lexical_search", func(t *testing.T) {
		store := infrasearch.NewSQLiteLexicalStore(db, logger)
		queries := []string{
			"connection pool exhausted",
			"websocket memory leak",
			"retry backoff webhook",
			"queue flush latency histogram",
			"certificate rotation handshake",
		}
		for _, query := range queries {
			t.Run(query, func(t *testing.T) {
				const iterations = 20
				var total time.Duration
				for range iterations {
					start := time.Now()
					results, err := store.Search(ctx,
						search.WithQuery(query),
						repository.WithLimit(search.CandidateLimit),
					)
					total += time.Since(start)
					require.NoError(t, err)
					require.NotEmpty(t, results)
				}
				avg := total / iterations
				t.Logf("query=%q avg=%v queries/sec=%.1f", query, avg, float64(iterations)/total.Seconds())
			})
		}
	})

	// --- Phase 4: vector arm ---
	t.Run("vector_search", func(t *testing.T) {
		store := infrasearch.NewSQLiteVectorStore(db, logger)
		resp, err := local.Embed(ctx, provider.NewEmbeddingRequest([]string{"websocket reconnect leaks memory"}))
		require.NoError(t, err)
		queryVector := resp.Embeddings()[0]

		limits := []int{5, 10, 50}
		for _, limit := range limits {
			t.Run(fmt.Sprintf("top_%d", limit), func(t *testing.T) {
				const iterations = 20
				var total time.Duration
				for range iterations {
					start := time.Now()
					results, err := store.Search(ctx,
						search.WithEmbedding(queryVector),
						repository.WithLimit(limit),
					)
					total += time.Since(start)
					require.NoError(t, err)
					require.Len(t, results, limit)
				}
				avg := total / iterations
				t.Logf("corpus=%d limit=%d avg=%v queries/sec=%.1f",
					searchCorpusSize, limit, avg, float64(iterations)/total.Seconds())
			})
		}
	})

	// --- Phase 5: hybrid query through the client wiring ---
	t.Run("hybrid_query", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := gim.New(
			gim.WithSQLite(dbPath),
			gim.WithRedisURL("redis://"+mr.Addr()),
		)
		require.NoError(t, err)
		defer func() { _ = client.Close() }()

		queries := []string{
			"connection pool exhausted under load",
			"memory grows when clients reconnect",
			"document the configuration migration",
		}
		for _, query := range queries {
			t.Run(query, func(t *testing.T) {
				q := search.NewQuery(query, search.NewFilters())

				start := time.Now()
				page, err := client.Search.Query(ctx, q)
				cold := time.Since(start)
				require.NoError(t, err)
				require.NotEmpty(t, page.Items())

				const iterations = 10
				var warm time.Duration
				for range iterations {
					start := time.Now()
					_, err := client.Search.Query(ctx, q)
					warm += time.Since(start)
					require.NoError(t, err)
				}
				t.Logf("query=%q cold=%v warm_avg=%v candidates=%d",
					query, cold, warm/iterations, page.Total())
			})
		}
	})
}
