package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/internal/database"
)

// PgvectorStore implements search.VectorStore using the pgvector cosine
// distance operator against the embedding column on the issue table.
type PgvectorStore struct {
	db     database.Database
	logger *slog.Logger
}

// NewPgvectorStore creates a new PgvectorStore.
func NewPgvectorStore(db database.Database, logger *slog.Logger) *PgvectorStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PgvectorStore{db: db, logger: logger}
}

// Search ranks open embedded issues by cosine similarity to the query
// embedding. The score is 1 - cosine distance so higher is better, which
// matches the in-memory SQLite path.
func (s *PgvectorStore) Search(ctx context.Context, options ...repository.Option) ([]search.Result, error) {
	q := repository.Build(options...)
	embedding, ok := search.EmbeddingFrom(q)
	if !ok || len(embedding) == 0 {
		return []search.Result{}, nil
	}

	limit := q.LimitValue()
	if limit <= 0 {
		limit = search.CandidateLimit
	}

	vec := database.NewVector(embedding)
	tx := s.db.Session(ctx).
		Table("ingestion_issues").
		Select("ingestion_issues.node_id, 1 - (ingestion_issues.embedding <=> ?) AS score", vec).
		Where("ingestion_issues.embedding IS NOT NULL").
		Where("ingestion_issues.state = ?", string(issue.StateOpen))

	tx = database.ApplyConditions(tx, options...)
	if filters, ok := search.FiltersFrom(q); ok {
		tx = applySearchFilters(tx, filters)
	}

	var rows []struct {
		NodeID string  `gorm:"column:node_id"`
		Score  float64 `gorm:"column:score"`
	}
	err := tx.Order("score DESC, node_id ASC").Limit(limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]search.Result, len(rows))
	for i, row := range rows {
		results[i] = search.NewResult(row.NodeID, row.Score)
	}
	return results, nil
}
