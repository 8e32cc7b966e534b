package event

import (
	"errors"
	"fmt"
	"time"
)

// Batch-context errors.
var (
	// ErrContextNotFound means the batch context expired or never existed.
	ErrContextNotFound = errors.New("recommendation batch context not found")
	// ErrPositionMismatch means the claimed position does not hold the
	// claimed issue in the served order. Such events are dropped silently.
	ErrPositionMismatch = errors.New("position does not match served order")
)

// BatchContext is the short-lived record cached per feed response. It pins
// the served order so later event submissions can be validated against what
// the user actually saw.
type BatchContext struct {
	batchID        string
	issueNodeIDs   []string
	page           int
	pageSize       int
	isPersonalized bool
	servedAt       time.Time
}

// NewBatchContext records a served feed page.
func NewBatchContext(batchID string, issueNodeIDs []string, page, pageSize int, isPersonalized bool, servedAt time.Time) BatchContext {
	ids := make([]string, len(issueNodeIDs))
	copy(ids, issueNodeIDs)
	return BatchContext{
		batchID:        batchID,
		issueNodeIDs:   ids,
		page:           page,
		pageSize:       pageSize,
		isPersonalized: isPersonalized,
		servedAt:       servedAt,
	}
}

// BatchID returns the minted recommendation batch ID.
func (b BatchContext) BatchID() string { return b.batchID }

// IssueNodeIDs returns the issues in served order.
func (b BatchContext) IssueNodeIDs() []string {
	ids := make([]string, len(b.issueNodeIDs))
	copy(ids, b.issueNodeIDs)
	return ids
}

// Page returns the served page number.
func (b BatchContext) Page() int { return b.page }

// PageSize returns the served page size.
func (b BatchContext) PageSize() int { return b.pageSize }

// IsPersonalized reports whether the batch came from the personalized path.
func (b BatchContext) IsPersonalized() bool { return b.isPersonalized }

// ServedAt returns when the batch was served.
func (b BatchContext) ServedAt() time.Time { return b.servedAt }

// Verify checks a claimed (position, issue) pair against the served order.
func (b BatchContext) Verify(position int, issueNodeID string) error {
	if position < 0 || position >= len(b.issueNodeIDs) {
		return fmt.Errorf("%w: position %d outside batch of %d", ErrPositionMismatch, position, len(b.issueNodeIDs))
	}
	if b.issueNodeIDs[position] != issueNodeID {
		return fmt.Errorf("%w: position %d served %s", ErrPositionMismatch, position, b.issueNodeIDs[position])
	}
	return nil
}
