package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/internal/database"
)

// DefaultSimilarLimit is how many neighbors the similar-issues lookup
// returns unless the caller asks for fewer.
const DefaultSimilarLimit = 10

// Issues serves single-issue lookups: the detail view and the
// vector-neighborhood listing behind "more like this".
type Issues struct {
	issues  issue.IssueStore
	items   search.ItemStore
	vectors search.VectorStore
	closed  *atomic.Bool
	logger  *slog.Logger
}

// NewIssues creates a new Issues service.
func NewIssues(
	issues issue.IssueStore,
	items search.ItemStore,
	vectors search.VectorStore,
	closed *atomic.Bool,
	logger *slog.Logger,
) *Issues {
	if logger == nil {
		logger = slog.Default()
	}
	return &Issues{
		issues:  issues,
		items:   items,
		vectors: vectors,
		closed:  closed,
		logger:  logger,
	}
}

// Detail returns the presentation row for one issue.
func (s *Issues) Detail(ctx context.Context, nodeID string) (search.Item, error) {
	if s.closed != nil && s.closed.Load() {
		return search.Item{}, ErrClientClosed
	}
	if strings.TrimSpace(nodeID) == "" {
		return search.Item{}, fmt.Errorf("%w: node id is empty", ErrInvalidInput)
	}

	rows, err := s.items.FindItems(ctx, []string{nodeID})
	if err != nil {
		return search.Item{}, fmt.Errorf("load issue %s: %w", nodeID, err)
	}
	if len(rows) == 0 {
		return search.Item{}, fmt.Errorf("%w: issue %s", ErrNotFound, nodeID)
	}
	return rows[0], nil
}

// Similar returns up to limit issues closest to the given one in
// embedding space, excluding the issue itself. An issue the embedder has
// not reached yet has no neighborhood and returns an empty list.
func (s *Issues) Similar(ctx context.Context, nodeID string, limit int) ([]search.Item, error) {
	if s.closed != nil && s.closed.Load() {
		return nil, ErrClientClosed
	}
	if strings.TrimSpace(nodeID) == "" {
		return nil, fmt.Errorf("%w: node id is empty", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	if limit > search.MaxPageSize {
		limit = search.MaxPageSize
	}

	iss, err := s.issues.FindOne(ctx, repository.WithNodeID(nodeID))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: issue %s", ErrNotFound, nodeID)
		}
		return nil, fmt.Errorf("load issue %s: %w", nodeID, err)
	}
	if !iss.HasEmbedding() {
		return []search.Item{}, nil
	}

	// One extra candidate absorbs the issue matching itself.
	results, err := s.vectors.Search(ctx,
		search.WithEmbedding(iss.Embedding()),
		repository.WithLimit(limit+1),
	)
	if err != nil {
		return nil, fmt.Errorf("similar search: %w", err)
	}

	ids := make([]string, 0, limit)
	for _, r := range results {
		if r.NodeID() == nodeID {
			continue
		}
		ids = append(ids, r.NodeID())
		if len(ids) == limit {
			break
		}
	}
	if len(ids) == 0 {
		return []search.Item{}, nil
	}

	rows, err := s.items.FindItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate similar issues: %w", err)
	}
	byID := make(map[string]search.Item, len(rows))
	for _, row := range rows {
		byID[row.NodeID()] = row
	}
	items := make([]search.Item, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			items = append(items, row)
		}
	}
	return items, nil
}
