// Package search implements the hybrid retrieval domain: query normalization,
// filter predicates, reciprocal rank fusion and the value objects shared by
// the lexical and vector paths.
package search

import (
	"github.com/gimlabs/gim/domain/taxonomy"
)

const (
	// DefaultPageSize applies when the caller sends no page size.
	DefaultPageSize = 20

	// MaxPageSize caps the page size regardless of what the caller sends.
	MaxPageSize = 50

	// CandidateLimit bounds each stage-1 subquery and therefore the fused
	// candidate set.
	CandidateLimit = 300

	// MinVectorTokens is the shortest query that takes the vector path.
	// Shorter queries are keyword lookups where lexical rank wins anyway.
	MinVectorTokens = 3

	// BodyPreviewRunes caps the body preview attached to result items.
	BodyPreviewRunes = 300
)

// Query is a normalized hybrid search request.
type Query struct {
	text     string
	filters  Filters
	page     int
	pageSize int
	userID   string
}

// NewQuery creates a Query with page 1 and the default page size.
func NewQuery(text string, filters Filters) Query {
	return Query{
		text:     text,
		filters:  filters,
		page:     1,
		pageSize: DefaultPageSize,
	}
}

// WithPage returns a copy with the given page. Pages below 1 clamp to 1.
func (q Query) WithPage(page int) Query {
	if page < 1 {
		page = 1
	}
	q.page = page
	return q
}

// WithPageSize returns a copy with the given page size, clamped to
// [1, MaxPageSize]. Zero or negative sizes fall back to the default.
func (q Query) WithPageSize(size int) Query {
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	q.pageSize = size
	return q
}

// WithUserID returns a copy scoped to a user, which partitions the cache.
func (q Query) WithUserID(id string) Query {
	q.userID = id
	return q
}

// Text returns the raw query text.
func (q Query) Text() string { return q.text }

// Filters returns the filter predicates.
func (q Query) Filters() Filters { return q.filters }

// Page returns the 1-based page number.
func (q Query) Page() int { return q.page }

// PageSize returns the clamped page size.
func (q Query) PageSize() int { return q.pageSize }

// UserID returns the requesting user, or "" for anonymous searches.
func (q Query) UserID() string { return q.userID }

// Offset returns the item offset of the requested page.
func (q Query) Offset() int { return (q.page - 1) * q.pageSize }

// UseVectorPath reports whether the query is long enough for the vector
// subquery to add signal.
func (q Query) UseVectorPath() bool {
	return len(taxonomy.Tokenize(q.text)) >= MinVectorTokens
}
