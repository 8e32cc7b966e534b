package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/repository"
)

// Stats serves the public platform snapshot. Counts come from the corpus
// tables and are cached; a cache outage degrades to counting on every
// request rather than failing the endpoint.
type Stats struct {
	issues issue.IssueStore
	repos  issue.RepositoryStore
	cache  issue.StatsCache
	closed *atomic.Bool
	logger *slog.Logger
}

// NewStats creates a new Stats service.
func NewStats(
	issues issue.IssueStore,
	repos issue.RepositoryStore,
	cache issue.StatsCache,
	closed *atomic.Bool,
	logger *slog.Logger,
) *Stats {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stats{
		issues: issues,
		repos:  repos,
		cache:  cache,
		closed: closed,
		logger: logger,
	}
}

// Snapshot returns the platform counts, preferring the cached copy.
func (s *Stats) Snapshot(ctx context.Context) (issue.Stats, error) {
	if s.closed != nil && s.closed.Load() {
		return issue.Stats{}, ErrClientClosed
	}

	cached, hit, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn("stats cache read failed", slog.String("error", err.Error()))
	}
	if hit {
		return cached, nil
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the snapshot from the corpus and replaces the cached
// copy. Also runs as the periodic stats operation so interactive requests
// rarely pay for the counts.
func (s *Stats) Refresh(ctx context.Context) (issue.Stats, error) {
	openIssues, err := s.issues.Count(ctx, repository.WithState(string(issue.StateOpen)))
	if err != nil {
		return issue.Stats{}, fmt.Errorf("count open issues: %w", err)
	}
	repos, err := s.repos.Count(ctx)
	if err != nil {
		return issue.Stats{}, fmt.Errorf("count repositories: %w", err)
	}
	languages, err := s.repos.CountLanguages(ctx)
	if err != nil {
		return issue.Stats{}, fmt.Errorf("count languages: %w", err)
	}

	stats := issue.Stats{
		OpenIssues:   openIssues,
		Repositories: repos,
		Languages:    languages,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := s.cache.Set(ctx, stats); err != nil {
		s.logger.Warn("stats cache write failed", slog.String("error", err.Error()))
	}
	return stats, nil
}
