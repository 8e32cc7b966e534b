package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/internal/database"
)

// PostgresLexicalStore implements search.LexicalStore against the generated
// tsvector column on the issue table.
type PostgresLexicalStore struct {
	db     database.Database
	logger *slog.Logger
}

// NewPostgresLexicalStore creates a new PostgresLexicalStore.
func NewPostgresLexicalStore(db database.Database, logger *slog.Logger) *PostgresLexicalStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLexicalStore{db: db, logger: logger}
}

// Search ranks issues by ts_rank_cd against plainto_tsquery. An empty or
// all-punctuation query returns no results instead of matching everything.
func (s *PostgresLexicalStore) Search(ctx context.Context, options ...repository.Option) ([]search.Result, error) {
	q := repository.Build(options...)
	query, ok := search.QueryFrom(q)
	if !ok || strings.TrimSpace(query) == "" {
		return []search.Result{}, nil
	}

	limit := q.LimitValue()
	if limit <= 0 {
		limit = search.CandidateLimit
	}

	sanitized := sanitizeTSQuery(query)
	tx := s.db.Session(ctx).
		Table("ingestion_issues").
		Select("ingestion_issues.node_id, ts_rank_cd(ingestion_issues.lexeme, plainto_tsquery('english', ?)) AS score", sanitized).
		Where("ingestion_issues.lexeme @@ plainto_tsquery('english', ?)", sanitized).
		Where("ingestion_issues.state = ?", string(issue.StateOpen))

	if filters, ok := search.FiltersFrom(q); ok {
		tx = applySearchFilters(tx, filters)
	}

	var rows []struct {
		NodeID string  `gorm:"column:node_id"`
		Score  float64 `gorm:"column:score"`
	}
	err := tx.Order("score DESC, node_id ASC").Limit(limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	results := make([]search.Result, len(rows))
	for i, row := range rows {
		results[i] = search.NewResult(row.NodeID, row.Score)
	}
	return results, nil
}

// sanitizeTSQuery strips characters plainto_tsquery treats as operators.
func sanitizeTSQuery(query string) string {
	replacer := strings.NewReplacer(
		"'", " ",
		"\"", " ",
		"(", " ",
		")", " ",
		":", " ",
		"!", " ",
		"&", " ",
		"|", " ",
	)
	return replacer.Replace(query)
}
