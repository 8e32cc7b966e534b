package cache

import (
	"context"
	"testing"

	"github.com/gimlabs/gim/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queuedEvent(t *testing.T, eventID string, position int) event.RecommendationEvent {
	t.Helper()
	ev, err := event.NewRecommendationEvent(
		eventID, "b_1", "user-1", "I_1", position,
		event.SurfaceFeed, event.TypeClick, true,
		map[string]any{"client": "web"},
	)
	require.NoError(t, err)
	return ev
}

func TestEventQueue_PopReturnsOldestFirst(t *testing.T) {
	client, _ := newTestClient(t)
	queue := NewEventQueue(client)
	ctx := context.Background()

	require.NoError(t, queue.Push(ctx,
		queuedEvent(t, "evt-1", 0),
		queuedEvent(t, "evt-2", 1),
		queuedEvent(t, "evt-3", 2),
	))

	batch, err := queue.Pop(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "evt-1", batch[0].EventID())
	assert.Equal(t, "evt-2", batch[1].EventID())

	batch, err = queue.Pop(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "evt-3", batch[0].EventID())

	batch, err = queue.Pop(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestEventQueue_RoundTripKeepsFields(t *testing.T) {
	client, _ := newTestClient(t)
	queue := NewEventQueue(client)
	ctx := context.Background()

	require.NoError(t, queue.Push(ctx, queuedEvent(t, "evt-1", 4)))

	batch, err := queue.Pop(ctx, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	got := batch[0]
	assert.Equal(t, "evt-1", got.EventID())
	assert.Equal(t, "b_1", got.BatchID())
	assert.Equal(t, "user-1", got.UserID())
	assert.Equal(t, "I_1", got.IssueNodeID())
	assert.Equal(t, 4, got.Position())
	assert.Equal(t, event.SurfaceFeed, got.Surface())
	assert.Equal(t, event.TypeClick, got.EventType())
	assert.True(t, got.IsPersonalized())
	assert.Equal(t, map[string]any{"client": "web"}, got.Metadata())
}

func TestEventQueue_PopEmptyQueue(t *testing.T) {
	client, _ := newTestClient(t)
	queue := NewEventQueue(client)

	batch, err := queue.Pop(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, batch)
}
