package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gimlabs/gim/domain/event"
)

const eventQueueKey = "gim:reco:queue"

type eventPayload struct {
	EventID        string         `json:"event_id"`
	BatchID        string         `json:"recommendation_batch_id"`
	UserID         string         `json:"user_id,omitempty"`
	IssueNodeID    string         `json:"issue_node_id"`
	Position       int            `json:"position"`
	Surface        string         `json:"surface"`
	EventType      string         `json:"event_type"`
	IsPersonalized bool           `json:"is_personalized"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// EventQueue implements event.Queue on a single Redis list. Accepted events
// are appended at the tail; the flush job pops batches from the head, so
// delivery order follows acceptance order.
type EventQueue struct {
	client *Client
}

// NewEventQueue creates a new EventQueue.
func NewEventQueue(client *Client) *EventQueue {
	return &EventQueue{client: client}
}

// Push appends events to the queue.
func (q *EventQueue) Push(ctx context.Context, events ...event.RecommendationEvent) error {
	if len(events) == 0 {
		return nil
	}
	values := make([]any, len(events))
	for i, ev := range events {
		data, err := json.Marshal(eventPayload{
			EventID:        ev.EventID(),
			BatchID:        ev.BatchID(),
			UserID:         ev.UserID(),
			IssueNodeID:    ev.IssueNodeID(),
			Position:       ev.Position(),
			Surface:        string(ev.Surface()),
			EventType:      string(ev.EventType()),
			IsPersonalized: ev.IsPersonalized(),
			Metadata:       ev.Metadata(),
		})
		if err != nil {
			return fmt.Errorf("encode event %s: %w", ev.EventID(), err)
		}
		values[i] = data
	}
	return q.client.RPush(ctx, eventQueueKey, values...)
}

// Pop removes and returns up to max events, oldest first. An empty slice
// with a nil error means the queue is drained. The warehouse stamps
// created_at on insert, so queued events carry none.
func (q *EventQueue) Pop(ctx context.Context, max int) ([]event.RecommendationEvent, error) {
	if max <= 0 {
		return nil, nil
	}
	raw, err := q.client.LPopCount(ctx, eventQueueKey, max)
	if err != nil {
		return nil, err
	}
	events := make([]event.RecommendationEvent, 0, len(raw))
	for _, item := range raw {
		var payload eventPayload
		if err := json.Unmarshal([]byte(item), &payload); err != nil {
			return events, fmt.Errorf("decode queued event: %w", err)
		}
		events = append(events, event.ReconstructRecommendationEvent(
			payload.EventID,
			payload.BatchID,
			payload.UserID,
			payload.IssueNodeID,
			payload.Position,
			event.Surface(payload.Surface),
			event.Type(payload.EventType),
			payload.IsPersonalized,
			payload.Metadata,
			time.Time{},
		))
	}
	return events, nil
}
