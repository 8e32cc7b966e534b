package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/infrastructure/persistence"
	"github.com/gimlabs/gim/internal/database"
)

// SQLiteVectorStore implements search.VectorStore for SQLite. Embeddings
// live as JSON in the issue table; candidates load into memory and cosine
// similarity runs in Go. Development and test dialect only.
type SQLiteVectorStore struct {
	db     database.Database
	logger *slog.Logger
}

// NewSQLiteVectorStore creates a new SQLiteVectorStore.
func NewSQLiteVectorStore(db database.Database, logger *slog.Logger) *SQLiteVectorStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteVectorStore{db: db, logger: logger}
}

// Search ranks open embedded issues by cosine similarity to the query
// embedding, top-k.
func (s *SQLiteVectorStore) Search(ctx context.Context, options ...repository.Option) ([]search.Result, error) {
	q := repository.Build(options...)
	embedding, ok := search.EmbeddingFrom(q)
	if !ok || len(embedding) == 0 {
		return []search.Result{}, nil
	}

	limit := q.LimitValue()
	if limit <= 0 {
		limit = search.CandidateLimit
	}

	vectors, err := s.loadVectors(ctx, options...)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return []search.Result{}, nil
	}

	matches := TopKSimilar(embedding, vectors, limit)
	results := make([]search.Result, len(matches))
	for i, m := range matches {
		results[i] = search.NewResult(m.NodeID(), m.Similarity())
	}
	return results, nil
}

// loadVectors loads the embeddings of open issues matching the options.
func (s *SQLiteVectorStore) loadVectors(ctx context.Context, options ...repository.Option) ([]StoredVector, error) {
	q := repository.Build(options...)

	tx := s.db.Session(ctx).
		Table("ingestion_issues").
		Select("ingestion_issues.node_id, ingestion_issues.embedding").
		Where("ingestion_issues.embedding IS NOT NULL").
		Where("ingestion_issues.state = ?", string(issue.StateOpen))

	tx = database.ApplyConditions(tx, options...)
	if filters, ok := search.FiltersFrom(q); ok {
		tx = applySearchFilters(tx, filters)
	}

	var rows []struct {
		NodeID    string                       `gorm:"column:node_id"`
		Embedding *persistence.EmbeddingColumn `gorm:"column:embedding"`
	}
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}

	vectors := make([]StoredVector, 0, len(rows))
	for _, row := range rows {
		floats := row.Embedding.FloatsOrNil()
		if len(floats) == 0 {
			s.logger.Warn("skipping empty embedding", "node_id", row.NodeID)
			continue
		}
		vectors = append(vectors, NewStoredVector(row.NodeID, floats))
	}
	return vectors, nil
}
