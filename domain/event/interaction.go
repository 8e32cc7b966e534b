package event

import (
	"time"

	"github.com/gimlabs/gim/domain/search"
)

// SearchInteraction is one search→click row: the query as issued, a
// snapshot of its filters, the served result count, and the clicked issue.
// Inserts are best-effort telemetry.
type SearchInteraction struct {
	id          int64
	userID      string
	searchID    string
	query       string
	filters     search.Filters
	resultCount int
	nodeID      string
	position    int
	createdAt   time.Time
}

// NewSearchInteraction records a click against a persisted search context.
func NewSearchInteraction(userID, searchID string, sctx search.Context, nodeID string, position int) SearchInteraction {
	return SearchInteraction{
		userID:      userID,
		searchID:    searchID,
		query:       sctx.Query(),
		filters:     sctx.Filters(),
		resultCount: sctx.ResultCount(),
		nodeID:      nodeID,
		position:    position,
	}
}

// ReconstructSearchInteraction recreates a row from persistence.
func ReconstructSearchInteraction(
	id int64,
	userID string,
	searchID string,
	query string,
	filters search.Filters,
	resultCount int,
	nodeID string,
	position int,
	createdAt time.Time,
) SearchInteraction {
	return SearchInteraction{
		id:          id,
		userID:      userID,
		searchID:    searchID,
		query:       query,
		filters:     filters,
		resultCount: resultCount,
		nodeID:      nodeID,
		position:    position,
		createdAt:   createdAt,
	}
}

// ID returns the analytics row identifier.
func (s SearchInteraction) ID() int64 { return s.id }

// UserID returns the acting user.
func (s SearchInteraction) UserID() string { return s.userID }

// SearchID returns the search the click belongs to.
func (s SearchInteraction) SearchID() string { return s.searchID }

// Query returns the query text as issued.
func (s SearchInteraction) Query() string { return s.query }

// Filters returns the filter snapshot.
func (s SearchInteraction) Filters() search.Filters { return s.filters }

// ResultCount returns the total reported to the client.
func (s SearchInteraction) ResultCount() int { return s.resultCount }

// NodeID returns the clicked issue.
func (s SearchInteraction) NodeID() string { return s.nodeID }

// Position returns the zero-indexed click position.
func (s SearchInteraction) Position() int { return s.position }

// CreatedAt returns when the click was recorded.
func (s SearchInteraction) CreatedAt() time.Time { return s.createdAt }
