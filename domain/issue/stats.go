package issue

import (
	"context"
	"time"
)

// Stats is the public platform snapshot: corpus and coverage counts,
// stamped with when they were computed. Counts are expensive enough that
// callers serve a cached snapshot and refresh it in the background.
type Stats struct {
	OpenIssues   int64     `json:"open_issues"`
	Repositories int64     `json:"repositories"`
	Languages    int64     `json:"languages"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// StatsCache holds the latest snapshot between refreshes.
type StatsCache interface {
	// Get returns the cached snapshot and whether one was present.
	Get(ctx context.Context) (Stats, bool, error)

	// Set replaces the cached snapshot.
	Set(ctx context.Context, stats Stats) error
}
