package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gimlabs/gim/domain/event"
)

// EventSubmission is one client-reported recommendation event before
// validation. The HTTP layer decodes the request body straight into it.
type EventSubmission struct {
	EventID     string
	IssueNodeID string
	Position    int
	Surface     string
	Type        string
	Metadata    map[string]any
}

// Events ingests client recommendation events: verify against the served
// batch, dedup on event ID, queue for the flush job. Capture is
// at-least-once; the analytics insert downstream is idempotent.
type Events struct {
	contexts event.ContextStore
	dedup    event.Deduper
	queue    event.Queue
	closed   *atomic.Bool
	logger   *slog.Logger
}

// NewEvents creates a new Events service.
func NewEvents(
	contexts event.ContextStore,
	dedup event.Deduper,
	queue event.Queue,
	closed *atomic.Bool,
	logger *slog.Logger,
) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{
		contexts: contexts,
		dedup:    dedup,
		queue:    queue,
		closed:   closed,
		logger:   logger,
	}
}

// Submit processes one batch of client events. Events that fail
// verification against the batch context are dropped silently and
// counted; everything else is either queued or deduped. The whole payload
// is validated before any event is queued, so a malformed submission
// never half-applies.
func (s *Events) Submit(ctx context.Context, userID, batchID string, submissions []EventSubmission) (event.Receipt, error) {
	if s.closed != nil && s.closed.Load() {
		return event.Receipt{}, ErrClientClosed
	}
	if strings.TrimSpace(batchID) == "" {
		return event.Receipt{}, fmt.Errorf("%w: recommendation batch id is empty", ErrInvalidInput)
	}

	bc, err := s.contexts.Find(ctx, batchID)
	if err != nil {
		if errors.Is(err, event.ErrContextNotFound) {
			return event.Receipt{}, fmt.Errorf("%w: recommendation batch %s", ErrNotFound, batchID)
		}
		return event.Receipt{}, fmt.Errorf("%w: batch context store: %v", ErrDependencyUnavailable, err)
	}

	events := make([]event.RecommendationEvent, 0, len(submissions))
	for _, sub := range submissions {
		ev, err := event.NewRecommendationEvent(
			sub.EventID,
			batchID,
			userID,
			sub.IssueNodeID,
			sub.Position,
			event.Surface(sub.Surface),
			event.Type(sub.Type),
			bc.IsPersonalized(),
			sub.Metadata,
		)
		if err != nil {
			return event.Receipt{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		events = append(events, ev)
	}

	var receipt event.Receipt
	for _, ev := range events {
		if err := bc.Verify(ev.Position(), ev.IssueNodeID()); err != nil {
			eventsDropped.Inc()
			s.logger.Debug("event dropped on batch mismatch",
				slog.String("batch_id", batchID),
				slog.String("event_id", ev.EventID()),
				slog.Int("position", ev.Position()))
			continue
		}

		first, err := s.dedup.Remember(ctx, ev.EventID())
		if err != nil {
			return receipt, fmt.Errorf("%w: event dedup: %v", ErrDependencyUnavailable, err)
		}
		if !first {
			receipt.Deduped++
			eventsDeduped.Inc()
			continue
		}

		if err := s.queue.Push(ctx, ev); err != nil {
			return receipt, fmt.Errorf("%w: event queue: %v", ErrDependencyUnavailable, err)
		}
		receipt.Queued++
		eventsQueued.Inc()
	}

	return receipt, nil
}
