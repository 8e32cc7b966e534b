// Package service provides application layer services that orchestrate domain operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/gimlabs/gim/domain/event"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/domain/search"
)

// SearchPage is one page of hybrid search results plus the minted search
// context handle the interact endpoint needs.
type SearchPage struct {
	searchID string
	items    []search.Item
	total    int
	page     int
	pageSize int
	isCapped bool
}

// NewSearchPage creates a SearchPage.
func NewSearchPage(searchID string, items []search.Item, total, page, pageSize int, isCapped bool) SearchPage {
	cp := make([]search.Item, len(items))
	copy(cp, items)
	return SearchPage{
		searchID: searchID,
		items:    cp,
		total:    total,
		page:     page,
		pageSize: pageSize,
		isCapped: isCapped,
	}
}

// SearchID identifies the cached search context for click reporting.
func (p SearchPage) SearchID() string { return p.searchID }

// Items returns the page's results in fused rank order.
func (p SearchPage) Items() []search.Item {
	cp := make([]search.Item, len(p.items))
	copy(cp, p.items)
	return cp
}

// Total returns the fused candidate count, capped at the stage-1 limit.
func (p SearchPage) Total() int { return p.total }

// Page returns the 1-based page number.
func (p SearchPage) Page() int { return p.page }

// PageSize returns the page size.
func (p SearchPage) PageSize() int { return p.pageSize }

// IsCapped reports whether any stage-1 subquery hit the candidate limit,
// meaning Total is a floor rather than an exact count.
func (p SearchPage) IsCapped() bool { return p.isCapped }

// HasMore reports whether later pages exist.
func (p SearchPage) HasMore() bool { return p.page*p.pageSize < p.total }

// Search orchestrates two-stage hybrid retrieval over the issue corpus:
// stage 1 fuses lexical and vector candidates under RRF and caches them,
// stage 2 hydrates one page of candidates into presentation items.
type Search struct {
	lexical      search.LexicalStore
	vectors      search.VectorStore
	items        search.ItemStore
	embedder     search.Embedder
	candidates   search.CandidateCache
	contexts     search.ContextStore
	interactions event.InteractionStore
	fusion       search.Fusion
	closed       *atomic.Bool
	logger       *slog.Logger
}

// NewSearch creates a new Search service.
func NewSearch(
	lexical search.LexicalStore,
	vectors search.VectorStore,
	items search.ItemStore,
	embedder search.Embedder,
	candidates search.CandidateCache,
	contexts search.ContextStore,
	interactions event.InteractionStore,
	closed *atomic.Bool,
	logger *slog.Logger,
) *Search {
	if logger == nil {
		logger = slog.Default()
	}
	return &Search{
		lexical:      lexical,
		vectors:      vectors,
		items:        items,
		embedder:     embedder,
		candidates:   candidates,
		contexts:     contexts,
		interactions: interactions,
		fusion:       search.NewFusion(),
		closed:       closed,
		logger:       logger,
	}
}

// Query runs a hybrid search and returns the requested page. The fused
// candidate list is cached under the full query identity, so paging
// through one query re-ranks nothing.
func (s *Search) Query(ctx context.Context, q search.Query) (SearchPage, error) {
	if s.closed != nil && s.closed.Load() {
		return SearchPage{}, ErrClientClosed
	}
	if strings.TrimSpace(q.Text()) == "" {
		return SearchPage{}, fmt.Errorf("%w: query text is empty", ErrInvalidInput)
	}

	key := search.CacheKey(q)
	candidates, hit, err := s.candidates.Get(ctx, key)
	if err != nil {
		s.logger.Warn("candidate cache read failed", slog.String("error", err.Error()))
		hit = false
	}
	if !hit {
		candidates, err = s.gather(ctx, q)
		if err != nil {
			return SearchPage{}, err
		}
		if err := s.candidates.Set(ctx, key, candidates); err != nil {
			s.logger.Warn("candidate cache write failed", slog.String("error", err.Error()))
		}
	}

	ranked := candidates.Page(q.Offset(), q.PageSize())
	items, err := s.hydrate(ctx, ranked)
	if err != nil {
		return SearchPage{}, err
	}

	searchID := uuid.NewString()
	sctx := search.NewContext(q.Text(), q.Filters(), candidates.Len(), q.Page(), q.PageSize())
	if err := s.contexts.Save(ctx, searchID, sctx); err != nil {
		s.logger.Warn("search context save failed",
			slog.String("search_id", searchID),
			slog.String("error", err.Error()))
	}

	s.logger.Debug("search served",
		slog.String("search_id", searchID),
		slog.Int("candidates", candidates.Len()),
		slog.Int("page_items", len(items)),
		slog.Bool("is_capped", candidates.IsCapped()))

	return NewSearchPage(searchID, items, candidates.Len(), q.Page(), q.PageSize(), candidates.IsCapped()), nil
}

// Interact records a click on a search result, validating the position
// against the stored search context. Persistence is best-effort: a dead
// analytics table must not break the click path.
func (s *Search) Interact(ctx context.Context, userID, searchID, nodeID string, position int) error {
	if s.closed != nil && s.closed.Load() {
		return ErrClientClosed
	}

	sctx, err := s.contexts.Find(ctx, searchID)
	if err != nil {
		if errors.Is(err, search.ErrContextNotFound) {
			return fmt.Errorf("%w: search context %s", ErrNotFound, searchID)
		}
		return fmt.Errorf("%w: search context store: %v", ErrDependencyUnavailable, err)
	}

	if err := sctx.ValidatePosition(position); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	interaction := event.NewSearchInteraction(userID, searchID, sctx, nodeID, position)
	if err := s.interactions.Insert(ctx, interaction); err != nil {
		s.logger.Error("search interaction insert failed",
			slog.String("search_id", searchID),
			slog.String("node_id", nodeID),
			slog.String("error", err.Error()))
	}
	return nil
}

// gather runs stage 1: both retrieval paths capped at the candidate
// limit, fused under reciprocal rank fusion. The vector path is skipped
// for short queries and degrades silently when the query cannot be
// embedded.
func (s *Search) gather(ctx context.Context, q search.Query) (search.Candidates, error) {
	filters := q.Filters()

	lexical, err := s.lexical.Search(ctx,
		search.WithQuery(q.Text()),
		search.WithFilters(filters),
		repository.WithLimit(search.CandidateLimit),
	)
	if err != nil {
		return search.Candidates{}, fmt.Errorf("lexical search: %w", err)
	}

	lists := [][]search.Result{lexical}
	if q.UseVectorPath() {
		if embedding := s.embedQuery(ctx, q.Text()); embedding != nil {
			semantic, err := s.vectors.Search(ctx,
				search.WithEmbedding(embedding),
				search.WithFilters(filters),
				repository.WithLimit(search.CandidateLimit),
			)
			if err != nil {
				return search.Candidates{}, fmt.Errorf("vector search: %w", err)
			}
			lists = append(lists, semantic)
		}
	}

	capped := false
	for _, list := range lists {
		if len(list) >= search.CandidateLimit {
			capped = true
			break
		}
	}

	return search.NewCandidates(s.fusion.Fuse(lists...), capped), nil
}

// hydrate runs stage 2: fetch presentation rows for the page and restore
// stage-1 order. Candidates deleted since stage 1 are dropped.
func (s *Search) hydrate(ctx context.Context, ranked []search.FusionResult) ([]search.Item, error) {
	if len(ranked) == 0 {
		return []search.Item{}, nil
	}

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID()
	}

	rows, err := s.items.FindItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate search items: %w", err)
	}

	byID := make(map[string]search.Item, len(rows))
	for _, row := range rows {
		byID[row.NodeID()] = row
	}

	items := make([]search.Item, 0, len(ranked))
	for _, r := range ranked {
		row, ok := byID[r.ID()]
		if !ok {
			continue
		}
		items = append(items, row.WithRRFScore(r.Score()))
	}
	return items, nil
}

// embedQuery embeds the query text for the vector path. Nil means the
// path is unavailable and search proceeds lexical-only.
func (s *Search) embedQuery(ctx context.Context, text string) []float64 {
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		s.logger.Warn("query embedding failed, lexical only", slog.String("error", err.Error()))
		return nil
	}
	if len(vecs) != 1 || vecs[0] == nil {
		return nil
	}
	return vecs[0]
}
