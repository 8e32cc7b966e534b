package cache

import (
	"context"
	"testing"
	"time"

	"github.com/gimlabs/gim/domain/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateCache_RoundTripPreservesOrder(t *testing.T) {
	client, _ := newTestClient(t)
	cc := NewCandidateCache(client, time.Minute)
	ctx := context.Background()

	saved := search.NewCandidates([]search.FusionResult{
		search.NewFusionResult("I_b", 0.032, 1, []float64{4.0, 0.91}),
		search.NewFusionResult("I_a", 0.016, 2, []float64{2.0}),
	}, true)
	require.NoError(t, cc.Set(ctx, "gim:search:abc", saved))

	got, ok, err := cc.Get(ctx, "gim:search:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.IsCapped())
	require.Equal(t, 2, got.Len())

	results := got.Results()
	assert.Equal(t, "I_b", results[0].ID())
	assert.InDelta(t, 0.032, results[0].Score(), 1e-12)
	assert.Equal(t, 1, results[0].BestRank())
	assert.Equal(t, []float64{4.0, 0.91}, results[0].OriginalScores())
	assert.Equal(t, "I_a", results[1].ID())
}

func TestCandidateCache_Miss(t *testing.T) {
	client, _ := newTestClient(t)
	cc := NewCandidateCache(client, time.Minute)

	_, ok, err := cc.Get(context.Background(), "gim:search:absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCandidateCache_Expires(t *testing.T) {
	client, mr := newTestClient(t)
	cc := NewCandidateCache(client, time.Minute)
	ctx := context.Background()

	saved := search.NewCandidates([]search.FusionResult{
		search.NewFusionResult("I_a", 0.016, 1, []float64{2.0}),
	}, false)
	require.NoError(t, cc.Set(ctx, "gim:search:abc", saved))

	mr.FastForward(2 * time.Minute)

	_, ok, err := cc.Get(ctx, "gim:search:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCandidateCache_EmptySetRoundTrips(t *testing.T) {
	client, _ := newTestClient(t)
	cc := NewCandidateCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cc.Set(ctx, "gim:search:empty", search.NewCandidates(nil, false)))

	got, ok, err := cc.Get(ctx, "gim:search:empty")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, got.Len())
	assert.False(t, got.IsCapped())
}
