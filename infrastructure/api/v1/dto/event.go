package dto

// EventSubmission is one client-reported recommendation event.
type EventSubmission struct {
	EventID     string         `json:"event_id"`
	EventType   string         `json:"event_type"`
	IssueNodeID string         `json:"issue_node_id"`
	Position    int            `json:"position"`
	Surface     string         `json:"surface"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// EventsRequest submits a batch of events against one served batch.
type EventsRequest struct {
	RecommendationBatchID string            `json:"recommendation_batch_id"`
	Events                []EventSubmission `json:"events"`
}

// EventsResponse is the submission receipt. Events dropped on batch
// mismatch are counted in neither field.
type EventsResponse struct {
	Queued  int `json:"queued"`
	Deduped int `json:"deduped"`
}
