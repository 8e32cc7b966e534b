package search

import (
	"context"
	"testing"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/profile"
	"github.com/gimlabs/gim/domain/scoring"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trendIssue(nodeID string, q scoring.QComponents, created time.Time) issue.Issue {
	return issue.NewIssue(nodeID, "R_go", "Fix reconnect panic", "body", nil, issue.StateOpen, testIssueURL, created, q)
}

func TestFeedStore_PersonalizedRanksBySimilarityTimesFreshness(t *testing.T) {
	db := testdb.New(t)
	store := NewFeedStore(db, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	seedRepo(t, db, "R_go", "acme/gadget", "Go", []string{"redis"})

	// Fresh and aligned beats fresh but off-axis beats aligned but two
	// weeks old (decay 0.25).
	seedIssue(t, db, openIssue("I_fresh", "R_go", "t", "b", nil, now).WithEmbedding([]float64{1, 0}, now))
	seedIssue(t, db, openIssue("I_near", "R_go", "t", "b", nil, now).WithEmbedding([]float64{0.8, 0.6}, now))
	seedIssue(t, db, openIssue("I_old", "R_go", "t", "b", nil, now.Add(-14*24*time.Hour)).WithEmbedding([]float64{1, 0}, now))

	prefs := profile.NewPreferences(nil, nil, 0)
	items, total, err := store.Personalized(ctx, []float64{1, 0}, prefs, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 3)
	assert.Equal(t, "I_fresh", items[0].NodeID())
	assert.Equal(t, "I_near", items[1].NodeID())
	assert.Equal(t, "I_old", items[2].NodeID())

	sim, personalized := items[0].Similarity()
	assert.True(t, personalized)
	assert.InDelta(t, 1.0, sim, 1e-9)
	assert.Equal(t, []string{"redis"}, items[0].RepoTopics())
}

func TestFeedStore_PersonalizedEligibility(t *testing.T) {
	db := testdb.New(t)
	store := NewFeedStore(db, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	seedRepo(t, db, "R_go", "acme/gadget", "Go", nil)

	seedIssue(t, db, openIssue("I_live", "R_go", "t", "b", nil, now).WithEmbedding([]float64{1, 0}, now))

	// Closed, unembedded and low-heat rows never reach the feed.
	closed := issue.NewIssue(
		"I_closed", "R_go", "t", "b", nil, issue.StateClosed, testIssueURL,
		now, scoring.NewQComponents(true, true, 0.5),
	).WithEmbedding([]float64{1, 0}, now)
	seedIssue(t, db, closed)
	seedIssue(t, db, openIssue("I_bare", "R_go", "t", "b", nil, now))
	cold := issue.NewIssue(
		"I_cold", "R_go", "t", "b", nil, issue.StateOpen, testIssueURL,
		now, scoring.NewQComponents(false, false, 0.5),
	).WithEmbedding([]float64{1, 0}, now)
	seedIssue(t, db, cold)

	items, total, err := store.Personalized(ctx, []float64{1, 0}, profile.NewPreferences(nil, nil, 0), 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "I_live", items[0].NodeID())
}

func TestFeedStore_PersonalizedPreferenceFilters(t *testing.T) {
	db := testdb.New(t)
	store := NewFeedStore(db, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	seedRepo(t, db, "R_go", "acme/gadget", "Go", []string{"redis", "cli"})
	seedRepo(t, db, "R_rs", "acme/rustool", "Rust", []string{"parser"})
	seedIssue(t, db, openIssue("I_go", "R_go", "t", "b", nil, now).WithEmbedding([]float64{1, 0}, now))
	seedIssue(t, db, openIssue("I_rs", "R_rs", "t", "b", nil, now).WithEmbedding([]float64{1, 0}, now))

	items, total, err := store.Personalized(ctx, []float64{1, 0}, profile.NewPreferences([]string{"GO"}, nil, 0), 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "I_go", items[0].NodeID())

	items, total, err = store.Personalized(ctx, []float64{1, 0}, profile.NewPreferences(nil, []string{"Parser"}, 0), 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "I_rs", items[0].NodeID())
}

func TestFeedStore_PersonalizedPagination(t *testing.T) {
	db := testdb.New(t)
	store := NewFeedStore(db, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	seedRepo(t, db, "R_go", "acme/gadget", "Go", nil)
	seedIssue(t, db, openIssue("I_a", "R_go", "t", "b", nil, now).WithEmbedding([]float64{1, 0}, now))
	seedIssue(t, db, openIssue("I_b", "R_go", "t", "b", nil, now).WithEmbedding([]float64{0.8, 0.6}, now))
	seedIssue(t, db, openIssue("I_c", "R_go", "t", "b", nil, now).WithEmbedding([]float64{0.6, 0.8}, now))

	prefs := profile.NewPreferences(nil, nil, 0)
	items, total, err := store.Personalized(ctx, []float64{1, 0}, prefs, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 1)
	assert.Equal(t, "I_b", items[0].NodeID())

	// Past the end the page is empty but the total still counts.
	items, total, err = store.Personalized(ctx, []float64{1, 0}, prefs, 5, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, items)
}

func TestFeedStore_PersonalizedWithoutVector(t *testing.T) {
	db := testdb.New(t)
	store := NewFeedStore(db, nil)

	items, total, err := store.Personalized(context.Background(), nil, profile.NewPreferences(nil, nil, 0), 0, 20)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
}

func TestFeedStore_TrendingOrdersByHeatThenRecency(t *testing.T) {
	db := testdb.New(t)
	store := NewFeedStore(db, nil)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	seedRepo(t, db, "R_go", "acme/gadget", "Go", nil)

	hot := scoring.NewQComponents(true, true, 0.875)
	warm := scoring.NewQComponents(true, true, 0.5)
	cold := scoring.NewQComponents(true, false, 0)

	seedIssue(t, db, trendIssue("I_warm_old", warm, base))
	seedIssue(t, db, trendIssue("I_warm_new", warm, base.Add(48*time.Hour)))
	seedIssue(t, db, trendIssue("I_hot", hot, base))
	seedIssue(t, db, trendIssue("I_cold", cold, base.Add(72*time.Hour)))
	closed := issue.NewIssue("I_closed", "R_go", "t", "b", nil, issue.StateClosed, testIssueURL, base, hot)
	seedIssue(t, db, closed)

	items, total, err := store.Trending(ctx, search.Filters{}, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 3)
	assert.Equal(t, "I_hot", items[0].NodeID())
	assert.Equal(t, "I_warm_new", items[1].NodeID())
	assert.Equal(t, "I_warm_old", items[2].NodeID())

	_, personalized := items[0].Similarity()
	assert.False(t, personalized)
}

func TestFeedStore_TrendingFiltersAndPages(t *testing.T) {
	db := testdb.New(t)
	store := NewFeedStore(db, nil)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	seedRepo(t, db, "R_go", "acme/gadget", "Go", nil)
	seedRepo(t, db, "R_rs", "acme/rustool", "Rust", nil)

	warm := scoring.NewQComponents(true, true, 0.5)
	seedIssue(t, db, issue.NewIssue("I_go1", "R_go", "t", "b", []string{"good first issue"}, issue.StateOpen, testIssueURL, base, warm))
	seedIssue(t, db, issue.NewIssue("I_go2", "R_go", "t", "b", []string{"bug"}, issue.StateOpen, testIssueURL, base.Add(time.Hour), warm))
	seedIssue(t, db, issue.NewIssue("I_rs1", "R_rs", "t", "b", []string{"bug"}, issue.StateOpen, testIssueURL, base.Add(2*time.Hour), warm))

	items, total, err := store.Trending(ctx, search.NewFilters(search.WithLabels([]string{"good first issue"})), 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "I_go1", items[0].NodeID())

	items, total, err = store.Trending(ctx, search.NewFilters(search.WithLanguages([]string{"RUST"})), 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "I_rs1", items[0].NodeID())

	items, total, err = store.Trending(ctx, search.NewFilters(search.WithRepos([]string{"acme/gadget"})), 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)

	// Second page of the unfiltered set: equal heat orders newest first.
	items, total, err = store.Trending(ctx, search.Filters{}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 1)
	assert.Equal(t, "I_go1", items[0].NodeID())
}
