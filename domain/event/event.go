// Package event models the recommendation analytics pipeline: impression
// and click events validated against the batch context that served them,
// deduplicated by event ID, queued, and flushed into the warehouse.
package event

import (
	"errors"
	"fmt"
	"time"
)

// Type classifies a recommendation event.
type Type string

// Type values.
const (
	TypeImpression Type = "impression"
	TypeClick      Type = "click"
)

// ParseType validates a client-supplied event type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeImpression, TypeClick:
		return Type(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// Surface identifies where an event originated.
type Surface string

// Surface values.
const (
	SurfaceFeed   Surface = "feed"
	SurfaceSearch Surface = "search"
	SurfaceEmail  Surface = "email"
)

// ParseSurface validates a client-supplied surface.
func ParseSurface(s string) (Surface, error) {
	switch Surface(s) {
	case SurfaceFeed, SurfaceSearch, SurfaceEmail:
		return Surface(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSurface, s)
	}
}

// Validation errors for client-submitted events.
var (
	ErrInvalidType    = errors.New("invalid event type")
	ErrInvalidSurface = errors.New("invalid event surface")
	ErrEmptyEventID   = errors.New("event id is required")
	ErrEmptyNodeID    = errors.New("issue node id is required")
)

// RecommendationEvent is one impression or click attributed to a served
// recommendation batch. Events are deduplicated on event ID, so clients may
// retry submission safely.
type RecommendationEvent struct {
	eventID        string
	batchID        string
	userID         string
	issueNodeID    string
	position       int
	surface        Surface
	eventType      Type
	isPersonalized bool
	metadata       map[string]any
	createdAt      time.Time
}

// NewRecommendationEvent builds an accepted event. The personalization flag
// comes from the batch context, never from the client payload.
func NewRecommendationEvent(
	eventID string,
	batchID string,
	userID string,
	issueNodeID string,
	position int,
	surface Surface,
	eventType Type,
	isPersonalized bool,
	metadata map[string]any,
) (RecommendationEvent, error) {
	if eventID == "" {
		return RecommendationEvent{}, ErrEmptyEventID
	}
	if issueNodeID == "" {
		return RecommendationEvent{}, ErrEmptyNodeID
	}
	if position < 0 {
		return RecommendationEvent{}, fmt.Errorf("position must not be negative, got %d", position)
	}
	if _, err := ParseSurface(string(surface)); err != nil {
		return RecommendationEvent{}, err
	}
	if _, err := ParseType(string(eventType)); err != nil {
		return RecommendationEvent{}, err
	}
	return RecommendationEvent{
		eventID:        eventID,
		batchID:        batchID,
		userID:         userID,
		issueNodeID:    issueNodeID,
		position:       position,
		surface:        surface,
		eventType:      eventType,
		isPersonalized: isPersonalized,
		metadata:       copyMetadata(metadata),
	}, nil
}

// ReconstructRecommendationEvent recreates an event from persistence or the
// flush queue without revalidating.
func ReconstructRecommendationEvent(
	eventID string,
	batchID string,
	userID string,
	issueNodeID string,
	position int,
	surface Surface,
	eventType Type,
	isPersonalized bool,
	metadata map[string]any,
	createdAt time.Time,
) RecommendationEvent {
	return RecommendationEvent{
		eventID:        eventID,
		batchID:        batchID,
		userID:         userID,
		issueNodeID:    issueNodeID,
		position:       position,
		surface:        surface,
		eventType:      eventType,
		isPersonalized: isPersonalized,
		metadata:       copyMetadata(metadata),
		createdAt:      createdAt,
	}
}

// EventID returns the client-generated idempotency key.
func (e RecommendationEvent) EventID() string { return e.eventID }

// BatchID returns the recommendation batch the event belongs to.
func (e RecommendationEvent) BatchID() string { return e.batchID }

// UserID returns the acting user.
func (e RecommendationEvent) UserID() string { return e.userID }

// IssueNodeID returns the issue the event refers to.
func (e RecommendationEvent) IssueNodeID() string { return e.issueNodeID }

// Position returns the zero-indexed slot the issue occupied in the batch.
func (e RecommendationEvent) Position() int { return e.position }

// Surface returns where the event originated.
func (e RecommendationEvent) Surface() Surface { return e.surface }

// EventType returns impression or click.
func (e RecommendationEvent) EventType() Type { return e.eventType }

// IsPersonalized reports whether the serving batch was personalized.
func (e RecommendationEvent) IsPersonalized() bool { return e.isPersonalized }

// Metadata returns the client-supplied metadata.
func (e RecommendationEvent) Metadata() map[string]any { return copyMetadata(e.metadata) }

// CreatedAt returns when the warehouse recorded the event.
func (e RecommendationEvent) CreatedAt() time.Time { return e.createdAt }

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Receipt summarizes one submission call.
type Receipt struct {
	Queued  int `json:"queued"`
	Deduped int `json:"deduped"`
}

// FlushReport summarizes one flush-job run.
type FlushReport struct {
	Loops    int `json:"loops"`
	Popped   int `json:"popped"`
	Inserted int `json:"inserted"`
}
