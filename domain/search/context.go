package search

import (
	"errors"
	"fmt"
)

// ErrPositionOutOfRange rejects interaction positions outside the served page.
var ErrPositionOutOfRange = errors.New("position out of range")

// ErrContextNotFound means the search context expired or never existed.
var ErrContextNotFound = errors.New("search context not found")

// Context is the short-lived record persisted per search response, keyed by
// search ID. It lets a later interact call validate the clicked position
// against what was actually served.
type Context struct {
	query       string
	filters     Filters
	resultCount int
	page        int
	pageSize    int
}

// NewContext creates a search Context.
func NewContext(query string, filters Filters, resultCount, page, pageSize int) Context {
	return Context{
		query:       query,
		filters:     filters,
		resultCount: resultCount,
		page:        page,
		pageSize:    pageSize,
	}
}

// Query returns the original query text.
func (c Context) Query() string { return c.query }

// Filters returns the filter snapshot.
func (c Context) Filters() Filters { return c.filters }

// ResultCount returns the total result count reported to the client.
func (c Context) ResultCount() int { return c.resultCount }

// Page returns the served page number.
func (c Context) Page() int { return c.page }

// PageSize returns the served page size.
func (c Context) PageSize() int { return c.pageSize }

// ValidatePosition checks a zero-indexed click position against the served
// page: it must fall inside the page and inside the total result count.
func (c Context) ValidatePosition(position int) error {
	if position < 0 || position >= c.pageSize || position >= c.resultCount {
		return fmt.Errorf("%w: %d (page_size %d, result_count %d)", ErrPositionOutOfRange, position, c.pageSize, c.resultCount)
	}
	return nil
}
