package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/domain/taxonomy"
	"github.com/gimlabs/gim/internal/database"
)

// SQLiteLexicalStore implements search.LexicalStore without a full-text
// index: candidate rows are matched per token in SQL and ranked in memory
// by how many query tokens they contain. Development and test dialect only.
type SQLiteLexicalStore struct {
	db     database.Database
	logger *slog.Logger
}

// NewSQLiteLexicalStore creates a new SQLiteLexicalStore.
func NewSQLiteLexicalStore(db database.Database, logger *slog.Logger) *SQLiteLexicalStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteLexicalStore{db: db, logger: logger}
}

// Search matches issues containing any query token and ranks them by
// matched-token count, title matches counting double. Ties order by node
// ID so ranks are stable across runs.
func (s *SQLiteLexicalStore) Search(ctx context.Context, options ...repository.Option) ([]search.Result, error) {
	q := repository.Build(options...)
	query, ok := search.QueryFrom(q)
	if !ok {
		return []search.Result{}, nil
	}
	tokens := taxonomy.Tokenize(query)
	if len(tokens) == 0 {
		return []search.Result{}, nil
	}

	limit := q.LimitValue()
	if limit <= 0 {
		limit = search.CandidateLimit
	}

	tx := s.db.Session(ctx).
		Table("ingestion_issues").
		Select("ingestion_issues.node_id, ingestion_issues.title, ingestion_issues.body_text").
		Where("ingestion_issues.state = ?", string(issue.StateOpen))

	anyToken := make([]string, len(tokens))
	args := make([]any, 0, len(tokens)*2)
	for i, tok := range tokens {
		anyToken[i] = "(instr(lower(ingestion_issues.title), ?) > 0 OR instr(lower(ingestion_issues.body_text), ?) > 0)"
		args = append(args, tok, tok)
	}
	tx = tx.Where("("+strings.Join(anyToken, " OR ")+")", args...)

	if filters, ok := search.FiltersFrom(q); ok {
		tx = applySearchFilters(tx, filters)
	}

	var rows []struct {
		NodeID   string `gorm:"column:node_id"`
		Title    string `gorm:"column:title"`
		BodyText string `gorm:"column:body_text"`
	}
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	results := make([]search.Result, 0, len(rows))
	for _, row := range rows {
		score := tokenScore(tokens, row.Title, row.BodyText)
		if score > 0 {
			results = append(results, search.NewResult(row.NodeID, score))
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score() != results[j].Score() {
			return results[i].Score() > results[j].Score()
		}
		return results[i].NodeID() < results[j].NodeID()
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func tokenScore(tokens []string, title, body string) float64 {
	title = strings.ToLower(title)
	body = strings.ToLower(body)
	var score float64
	for _, tok := range tokens {
		switch {
		case strings.Contains(title, tok):
			score += 2
		case strings.Contains(body, tok):
			score++
		}
	}
	return score
}
