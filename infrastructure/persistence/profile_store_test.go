package persistence

import (
	"context"
	"testing"

	"github.com/gimlabs/gim/domain/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileStore_GetOrCreateMintsDefaults(t *testing.T) {
	db := newTestDB(t)
	store := NewProfileStore(db)
	ctx := context.Background()

	got, err := store.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID())
	assert.Equal(t, profile.OnboardingNotStarted, got.OnboardingStatus())
	assert.Equal(t, profile.DefaultMinHeat, got.Prefs().MinHeat())
	assert.False(t, got.IsPersonalizable())

	// Second access reads, does not remint.
	again, err := store.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, got.UserID(), again.UserID())

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestProfileStore_SaveRoundTripsVectors(t *testing.T) {
	db := newTestDB(t)
	store := NewProfileStore(db)
	ctx := context.Background()

	p, err := store.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)

	p = p.WithIntent(
		profile.NewIntentSource("realtime data pipelines", []string{"backend"}, []string{"Go"}),
		[]float64{1, 0, 0},
	)
	p = p.WithResume(profile.NewResumeSource([]string{"go", "kafka"}, []string{"backend engineer"}), []float64{0, 1, 0})
	p, err = p.Recompose()
	require.NoError(t, err)
	p = p.WithOnboardingStatus(profile.OnboardingCompleted)

	saved, err := store.Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0}, saved.IntentVector())
	assert.Nil(t, saved.GitHubVector())
	assert.True(t, saved.IsPersonalizable())
	assert.Equal(t, profile.OnboardingCompleted, saved.OnboardingStatus())
	assert.Equal(t, []string{"backend"}, saved.Intent().StackAreas())
	assert.Equal(t, []string{"go", "kafka"}, saved.Resume().Skills())

	// Intent+resume composition is 0.6/0.4 over unit vectors.
	combined := saved.CombinedVector()
	require.Len(t, combined, 3)
	assert.InDelta(t, 0.6/0.721110255, combined[0], 1e-6)
	assert.InDelta(t, 0.4/0.721110255, combined[1], 1e-6)
}

func TestProfileStore_SetCalculating(t *testing.T) {
	db := newTestDB(t)
	store := NewProfileStore(db)
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, store.SetCalculating(ctx, "user-1", true))
	got, err := store.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, got.IsCalculating())

	require.NoError(t, store.SetCalculating(ctx, "user-1", false))
	got, err = store.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, got.IsCalculating())
}
