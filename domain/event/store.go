package event

import "context"

// ContextStore caches batch contexts between the feed response that minted
// them and the event submissions that follow. Find returns
// ErrContextNotFound once the context expires.
type ContextStore interface {
	Save(ctx context.Context, bc BatchContext) error
	Find(ctx context.Context, batchID string) (BatchContext, error)
}

// Deduper remembers event IDs for the dedup window. Remember reports true
// the first time an ID is seen and false on every replay inside the window.
type Deduper interface {
	Remember(ctx context.Context, eventID string) (bool, error)
}

// Queue buffers accepted events between submission and the flush job.
type Queue interface {
	Push(ctx context.Context, events ...RecommendationEvent) error
	// Pop removes and returns up to max events, oldest first. An empty
	// slice with a nil error means the queue is drained.
	Pop(ctx context.Context, max int) ([]RecommendationEvent, error)
}

// Store lands events in the analytics warehouse. InsertBatch is idempotent
// on event ID so queue redelivery cannot double-count; it returns the number
// of rows actually inserted.
type Store interface {
	InsertBatch(ctx context.Context, events []RecommendationEvent) (int, error)
}

// InteractionStore persists search click interactions.
type InteractionStore interface {
	Insert(ctx context.Context, interaction SearchInteraction) error
}
