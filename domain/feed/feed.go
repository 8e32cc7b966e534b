// Package feed holds the recommendation domain: the served page model, the
// ranking store contract and the why-this explainer.
package feed

import (
	"context"

	"github.com/gimlabs/gim/domain/profile"
	"github.com/gimlabs/gim/domain/search"
)

// TrendingMinQScore is the quality floor for the trending fallback.
const TrendingMinQScore = 0.6

// ProfileCTA invites users without a combined vector to finish setup.
const ProfileCTA = "Complete your profile to get recommendations matched to your skills and interests."

// Item is one served feed entry: the presentation row plus similarity and
// explanations when the feed is personalized.
type Item struct {
	search.Item
	repoTopics   []string
	similarity   float64
	personalized bool
	reasons      []string
}

// NewItem creates a trending-form item with no similarity attached.
func NewItem(base search.Item, repoTopics []string) Item {
	tp := make([]string, len(repoTopics))
	copy(tp, repoTopics)
	return Item{Item: base, repoTopics: tp}
}

// WithSimilarity returns a copy carrying a personalized similarity score.
func (i Item) WithSimilarity(s float64) Item {
	i.similarity = s
	i.personalized = true
	return i
}

// WithReasons returns a copy carrying why-this explanations.
func (i Item) WithReasons(reasons []string) Item {
	rs := make([]string, len(reasons))
	copy(rs, reasons)
	i.reasons = rs
	return i
}

// RepoTopics returns the owning repository's topics.
func (i Item) RepoTopics() []string {
	tp := make([]string, len(i.repoTopics))
	copy(tp, i.repoTopics)
	return tp
}

// Similarity returns the cosine similarity to the user's combined vector.
// The second return is false on trending items, which carry none.
func (i Item) Similarity() (float64, bool) {
	return i.similarity, i.personalized
}

// Reasons returns the why-this explanations, nil on trending items.
func (i Item) Reasons() []string {
	if i.reasons == nil {
		return nil
	}
	rs := make([]string, len(i.reasons))
	copy(rs, i.reasons)
	return rs
}

// Page is one served feed page.
type Page struct {
	items          []Item
	total          int64
	page           int
	pageSize       int
	isPersonalized bool
	profileCTA     string
}

// NewPage creates a feed page. cta is empty on personalized pages.
func NewPage(items []Item, total int64, page, pageSize int, isPersonalized bool, cta string) Page {
	cp := make([]Item, len(items))
	copy(cp, items)
	return Page{
		items:          cp,
		total:          total,
		page:           page,
		pageSize:       pageSize,
		isPersonalized: isPersonalized,
		profileCTA:     cta,
	}
}

// Items returns the served items in rank order.
func (p Page) Items() []Item {
	cp := make([]Item, len(p.items))
	copy(cp, p.items)
	return cp
}

// Total returns the filtered total across all pages.
func (p Page) Total() int64 { return p.total }

// Page returns the 1-based page number.
func (p Page) Page() int { return p.page }

// PageSize returns the page size.
func (p Page) PageSize() int { return p.pageSize }

// HasMore reports whether later pages exist.
func (p Page) HasMore() bool {
	return int64(p.page)*int64(p.pageSize) < p.total
}

// IsPersonalized reports whether the page was ranked against a profile.
func (p Page) IsPersonalized() bool { return p.isPersonalized }

// ProfileCTA returns the call-to-action, empty on personalized pages.
func (p Page) ProfileCTA() string { return p.profileCTA }

// NodeIDs returns the served node IDs in order, for the batch context.
func (p Page) NodeIDs() []string {
	ids := make([]string, len(p.items))
	for i, item := range p.items {
		ids[i] = item.NodeID()
	}
	return ids
}

// Store ranks issues for the feed. Both queries see only open issues;
// Personalized additionally requires a stored embedding.
type Store interface {
	// Personalized returns one page ranked by cosine similarity to the
	// combined vector times freshness decay, after the preference
	// filters and the q-score floor, plus the filtered total.
	Personalized(ctx context.Context, combined []float64, prefs profile.Preferences, offset, limit int) ([]Item, int64, error)

	// Trending returns one page of issues at or above TrendingMinQScore
	// ordered by q-score then source creation time, both descending,
	// plus the filtered total.
	Trending(ctx context.Context, filters search.Filters, offset, limit int) ([]Item, int64, error)
}
