package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/gimlabs/gim/domain/feed"
	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/profile"
	"github.com/gimlabs/gim/domain/scoring"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/infrastructure/persistence"
	"github.com/gimlabs/gim/internal/database"
	"gorm.io/gorm"
)

// pgFeedRank scores a personalized candidate in SQL: cosine similarity to
// the combined vector times freshness decay with half-life 7 days and
// floor 0.2, anchored on the issue's source creation time.
const pgFeedRank = `(1 - (ingestion_issues.embedding <=> ?)) *
	GREATEST(0.2, POWER(2, -(GREATEST(EXTRACT(EPOCH FROM (?::timestamptz - ingestion_issues.github_created_at)), 0) / 86400.0) / 7.0))`

// feedRow scans one feed candidate: the item projection plus repository
// topics and, depending on dialect, the ranking inputs or outputs.
type feedRow struct {
	ItemRow    `gorm:"embedded"`
	Topics     persistence.StringList       `gorm:"column:topics"`
	Embedding  *persistence.EmbeddingColumn `gorm:"column:embedding"`
	Similarity float64                      `gorm:"column:similarity"`
}

func (r feedRow) toFeedItem() feed.Item {
	return feed.NewItem(r.toItem(), r.Topics)
}

// FeedStore implements feed.Store over the issue and repository tables.
// PostgreSQL ranks personalized pages in one SQL statement; SQLite loads
// the eligible rows and ranks them in memory.
type FeedStore struct {
	db     database.Database
	logger *slog.Logger
}

// NewFeedStore creates a new FeedStore.
func NewFeedStore(db database.Database, logger *slog.Logger) FeedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return FeedStore{db: db, logger: logger}
}

// Personalized returns one page ranked by cosine similarity times freshness
// decay, after the preference filters and the q-score floor.
func (s FeedStore) Personalized(ctx context.Context, combined []float64, prefs profile.Preferences, offset, limit int) ([]feed.Item, int64, error) {
	if len(combined) == 0 {
		return []feed.Item{}, 0, nil
	}
	now := time.Now().UTC()

	total, err := countRows(s.personalizedWhere(ctx, prefs))
	if err != nil {
		return nil, 0, fmt.Errorf("personalized feed count: %w", err)
	}

	if s.db.IsPostgres() {
		items, err := s.personalizedPostgres(ctx, combined, prefs, now, offset, limit)
		if err != nil {
			return nil, 0, err
		}
		return items, total, nil
	}

	items, err := s.personalizedSQLite(ctx, combined, prefs, now, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s FeedStore) personalizedPostgres(ctx context.Context, combined []float64, prefs profile.Preferences, now time.Time, offset, limit int) ([]feed.Item, error) {
	vec := database.NewVector(combined)
	tx := s.personalizedWhere(ctx, prefs).
		Select(itemColumns+
			", ingestion_repositories.topics"+
			", 1 - (ingestion_issues.embedding <=> ?) AS similarity"+
			", "+pgFeedRank+" AS rank_score", vec, vec, now).
		Order("rank_score DESC, ingestion_issues.node_id ASC").
		Offset(offset).
		Limit(limit)

	var rows []feedRow
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("personalized feed: %w", err)
	}

	items := make([]feed.Item, len(rows))
	for i, row := range rows {
		items[i] = row.toFeedItem().WithSimilarity(row.Similarity)
	}
	return items, nil
}

func (s FeedStore) personalizedSQLite(ctx context.Context, combined []float64, prefs profile.Preferences, now time.Time, offset, limit int) ([]feed.Item, error) {
	tx := s.personalizedWhere(ctx, prefs).
		Select(itemColumns + ", ingestion_repositories.topics, ingestion_issues.embedding")

	var rows []feedRow
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("personalized feed: %w", err)
	}

	type ranked struct {
		row        feedRow
		similarity float64
		score      float64
	}
	candidates := make([]ranked, 0, len(rows))
	for _, row := range rows {
		floats := row.Embedding.FloatsOrNil()
		if len(floats) == 0 {
			continue
		}
		sim := CosineSimilarity(combined, floats)
		decay := scoring.FreshnessDecay(scoring.AgeDays(row.GitHubCreatedAt, now), scoring.FreshnessHalfLifeDays, scoring.FreshnessFloor)
		candidates = append(candidates, ranked{row: row, similarity: sim, score: sim * decay})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].row.NodeID < candidates[j].row.NodeID
	})

	if offset < 0 || offset >= len(candidates) || limit <= 0 {
		return []feed.Item{}, nil
	}
	end := offset + limit
	if end > len(candidates) {
		end = len(candidates)
	}

	items := make([]feed.Item, 0, end-offset)
	for _, c := range candidates[offset:end] {
		items = append(items, c.row.toFeedItem().WithSimilarity(c.similarity))
	}
	return items, nil
}

// personalizedWhere builds the shared eligibility query: open, embedded,
// above the heat floor, inside the preference filters.
func (s FeedStore) personalizedWhere(ctx context.Context, prefs profile.Preferences) *gorm.DB {
	tx := s.db.Session(ctx).
		Table("ingestion_issues").
		Joins(repoJoin).
		Where("ingestion_issues.state = ?", string(issue.StateOpen)).
		Where("ingestion_issues.embedding IS NOT NULL").
		Where("ingestion_issues.q_score >= ?", prefs.MinHeat())

	if langs := prefs.Languages(); len(langs) > 0 {
		tx = tx.Where("LOWER(ingestion_repositories.primary_language) IN ?", lowerAll(langs))
	}
	if topics := prefs.Topics(); len(topics) > 0 {
		tx = tx.Where(topicsOverlapSQL(tx), lowerAll(topics))
	}
	return tx
}

// Trending returns one page of high-quality open issues, newest hottest
// first. Both dialects share the SQL.
func (s FeedStore) Trending(ctx context.Context, filters search.Filters, offset, limit int) ([]feed.Item, int64, error) {
	where := func() *gorm.DB {
		tx := s.db.Session(ctx).
			Table("ingestion_issues").
			Joins(repoJoin).
			Where("ingestion_issues.state = ?", string(issue.StateOpen)).
			Where("ingestion_issues.q_score >= ?", feed.TrendingMinQScore)
		return applyFilterPredicates(tx, filters)
	}

	total, err := countRows(where())
	if err != nil {
		return nil, 0, fmt.Errorf("trending feed count: %w", err)
	}

	var rows []feedRow
	err = where().
		Select(itemColumns + ", ingestion_repositories.topics").
		Order("ingestion_issues.q_score DESC, ingestion_issues.github_created_at DESC, ingestion_issues.node_id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("trending feed: %w", err)
	}

	items := make([]feed.Item, len(rows))
	for i, row := range rows {
		items[i] = row.toFeedItem()
	}
	return items, total, nil
}

func countRows(tx *gorm.DB) (int64, error) {
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
