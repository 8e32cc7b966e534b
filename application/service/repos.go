package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/repository"
)

// RepoPage is one page of the repository listing. The listing reads one
// row past the page instead of counting, so it carries a has-more flag
// rather than a total.
type RepoPage struct {
	repos    []issue.Repository
	page     int
	pageSize int
	hasMore  bool
}

// NewRepoPage creates a RepoPage.
func NewRepoPage(repos []issue.Repository, page, pageSize int, hasMore bool) RepoPage {
	cp := make([]issue.Repository, len(repos))
	copy(cp, repos)
	return RepoPage{repos: cp, page: page, pageSize: pageSize, hasMore: hasMore}
}

// Repos returns the page's repositories, stars descending.
func (p RepoPage) Repos() []issue.Repository {
	cp := make([]issue.Repository, len(p.repos))
	copy(cp, p.repos)
	return cp
}

// Page returns the 1-based page number.
func (p RepoPage) Page() int { return p.page }

// PageSize returns the page size.
func (p RepoPage) PageSize() int { return p.pageSize }

// HasMore reports whether later pages exist.
func (p RepoPage) HasMore() bool { return p.hasMore }

// Repos serves the tracked-repository listing.
type Repos struct {
	repos  issue.RepositoryStore
	closed *atomic.Bool
	logger *slog.Logger
}

// NewRepos creates a new Repos service.
func NewRepos(repos issue.RepositoryStore, closed *atomic.Bool, logger *slog.Logger) *Repos {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repos{repos: repos, closed: closed, logger: logger}
}

// List returns tracked repositories ordered by stars, optionally filtered
// by a name substring and a primary language.
func (s *Repos) List(ctx context.Context, name, language string, pageNum, pageSize int) (RepoPage, error) {
	if s.closed != nil && s.closed.Load() {
		return RepoPage{}, ErrClientClosed
	}
	pageNum, pageSize = clampPaging(pageNum, pageSize)

	opts := []repository.Option{
		repository.WithOrderDesc("stargazer_count"),
		repository.WithOrderAsc("node_id"),
		repository.WithLimit(pageSize + 1),
		repository.WithOffset((pageNum - 1) * pageSize),
	}
	if language = strings.TrimSpace(language); language != "" {
		opts = append(opts, repository.WithWhere("LOWER(primary_language) = ?", strings.ToLower(language)))
	}

	var (
		repos []issue.Repository
		err   error
	)
	if name = strings.TrimSpace(name); name != "" {
		repos, err = s.repos.SearchByName(ctx, name, opts...)
	} else {
		repos, err = s.repos.Find(ctx, opts...)
	}
	if err != nil {
		return RepoPage{}, fmt.Errorf("list repositories: %w", err)
	}

	hasMore := len(repos) > pageSize
	if hasMore {
		repos = repos[:pageSize]
	}
	return NewRepoPage(repos, pageNum, pageSize, hasMore), nil
}
