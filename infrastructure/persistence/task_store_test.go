package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/gimlabs/gim/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStore_SaveDeduplicatesByKey(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	first, err := store.Save(ctx, task.NewTask(task.OperationProfileRecompute, task.PriorityBackground, map[string]any{"user_id": "u1"}))
	require.NoError(t, err)
	require.NotZero(t, first.ID())

	// Same operation and payload: the row is reused with the new priority.
	second, err := store.Save(ctx, task.NewTask(task.OperationProfileRecompute, task.PriorityUserInitiated, map[string]any{"user_id": "u1"}))
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, int(task.PriorityUserInitiated), second.Priority())

	// Different payload is a different key.
	third, err := store.Save(ctx, task.NewTask(task.OperationProfileRecompute, task.PriorityBackground, map[string]any{"user_id": "u2"}))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), third.ID())

	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTaskStore_DequeueOrdersByPriorityThenAge(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	older, err := store.Save(ctx, task.NewTask(task.OperationJanitorSweep, task.PriorityBackground, nil))
	require.NoError(t, err)
	_, err = store.Save(ctx, task.NewTask(task.OperationStatsRefresh, task.PriorityBackground, nil))
	require.NoError(t, err)
	urgent, err := store.Save(ctx, task.NewTask(task.OperationEventFlush, task.PriorityCritical, nil))
	require.NoError(t, err)

	// created_at ties at second resolution are possible here, so pin the
	// background tasks apart explicitly.
	require.NoError(t, db.Session(ctx).
		Model(&TaskModel{}).
		Where("id = ?", older.ID()).
		Update("created_at", older.CreatedAt().Add(-time.Second)).Error)

	got, ok, err := store.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, urgent.ID(), got.ID())
	require.NoError(t, store.Delete(ctx, got))

	got, ok, err = store.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, older.ID(), got.ID())
	require.NoError(t, store.Delete(ctx, got))

	got, ok, err = store.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.Delete(ctx, got))

	_, ok, err = store.Dequeue(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTaskStore_PayloadRoundTrip(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	saved, err := store.Save(ctx, task.NewTask(task.OperationScoutRepos, task.PriorityNormal, map[string]any{"min_stars": "500"}))
	require.NoError(t, err)

	got, err := store.Get(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, task.OperationScoutRepos, got.Operation())
	assert.Equal(t, map[string]any{"min_stars": "500"}, got.Payload())
	assert.Equal(t, saved.DedupKey(), got.DedupKey())
}
