package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoStore_UpsertAllRefreshesDiscoveryFields(t *testing.T) {
	db := newTestDB(t)
	store := NewRepoStore(db)
	ctx := context.Background()

	first := issue.NewRepository("R_1", "acme/widgets", "Go", []string{"cli"}, 100)
	require.NoError(t, store.UpsertAll(ctx, []issue.Repository{first}))

	scraped := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.MarkScraped(ctx, "R_1", scraped))

	// Rediscovery updates stars and topics but must not clear the scrape
	// timestamp.
	second := issue.NewRepository("R_1", "acme/widgets", "Go", []string{"cli", "tooling"}, 250)
	require.NoError(t, store.UpsertAll(ctx, []issue.Repository{second}))

	got, err := store.FindOne(ctx, repository.WithNodeID("R_1"))
	require.NoError(t, err)
	assert.Equal(t, 250, got.StargazerCount())
	assert.Equal(t, []string{"cli", "tooling"}, got.Topics())
	assert.True(t, got.LastScrapedAt().Equal(scraped))
}

func TestRepoStore_SearchByNameEscapesPattern(t *testing.T) {
	db := newTestDB(t)
	store := NewRepoStore(db)
	ctx := context.Background()

	require.NoError(t, store.UpsertAll(ctx, []issue.Repository{
		issue.NewRepository("R_1", "acme/go_widgets", "Go", nil, 10),
		issue.NewRepository("R_2", "acme/gowidgets", "Go", nil, 10),
		issue.NewRepository("R_3", "other/project", "Rust", nil, 10),
	}))

	// Underscore matches literally, not as a single-character wildcard.
	got, err := store.SearchByName(ctx, "go_w")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "acme/go_widgets", got[0].FullName())

	got, err = store.SearchByName(ctx, "acme/")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = store.SearchByName(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRepoStore_FindShard(t *testing.T) {
	db := newTestDB(t)
	store := NewRepoStore(db)
	ctx := context.Background()

	repos := []issue.Repository{
		issue.NewRepository("R_a", "o/a", "Go", nil, 1),
		issue.NewRepository("R_b", "o/b", "Go", nil, 1),
		issue.NewRepository("R_c", "o/c", "Go", nil, 1),
	}
	require.NoError(t, store.UpsertAll(ctx, repos))

	// Every repository appears in exactly one shard.
	seen := map[string]int{}
	for hour := 0; hour < issue.ShardCount; hour++ {
		shard, err := store.FindShard(ctx, hour)
		require.NoError(t, err)
		for _, r := range shard {
			assert.Equal(t, hour, r.ShardHour())
			seen[r.NodeID()]++
		}
	}
	assert.Equal(t, map[string]int{"R_a": 1, "R_b": 1, "R_c": 1}, seen)
}
