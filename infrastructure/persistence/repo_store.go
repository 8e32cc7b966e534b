package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/internal/database"
	"gorm.io/gorm/clause"
)

// RepoStore implements issue.RepositoryStore using GORM.
type RepoStore struct {
	database.Repository[issue.Repository, RepoModel]
	db database.Database
}

// NewRepoStore creates a new RepoStore.
func NewRepoStore(db database.Database) RepoStore {
	return RepoStore{
		Repository: database.NewRepository[issue.Repository, RepoModel](db, RepoMapper{}, "repository"),
		db:         db,
	}
}

// Save persists a repository, updating on node ID conflict.
func (s RepoStore) Save(ctx context.Context, r issue.Repository) (issue.Repository, error) {
	if err := s.UpsertAll(ctx, []issue.Repository{r}); err != nil {
		return issue.Repository{}, err
	}
	return s.FindOne(ctx, repository.WithNodeID(r.NodeID()))
}

// Delete removes a repository by node ID.
func (s RepoStore) Delete(ctx context.Context, r issue.Repository) error {
	return s.DeleteBy(ctx, repository.WithNodeID(r.NodeID()))
}

// UpsertAll writes discovered repositories through by node ID, refreshing
// name, language, topics and star counts on conflict. The scrape timestamp
// is deliberately not in the update set so discovery never clears it.
func (s RepoStore) UpsertAll(ctx context.Context, repos []issue.Repository) error {
	if len(repos) == 0 {
		return nil
	}
	models := make([]RepoModel, len(repos))
	for i, r := range repos {
		models[i] = RepoMapper{}.ToModel(r)
	}
	err := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "node_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"full_name", "primary_language", "topics",
			"stargazer_count", "issue_velocity_week", "shard_hour", "updated_at",
		}),
	}).Create(&models).Error
	if err != nil {
		return fmt.Errorf("upsert repositories: %w", err)
	}
	return nil
}

// SearchByName finds repositories whose full name contains substr,
// treating %, _ and \ in the input literally.
func (s RepoStore) SearchByName(ctx context.Context, substr string, options ...repository.Option) ([]issue.Repository, error) {
	pattern := "%" + escapeLike(substr) + "%"
	operator := "LIKE"
	if s.db.IsPostgres() {
		operator = "ILIKE"
	}
	where := fmt.Sprintf("full_name %s ? ESCAPE '\\'", operator)
	return s.Find(ctx, append(options, repository.WithWhere(where, pattern))...)
}

// FindShard returns the repositories harvested in the given UTC hour.
func (s RepoStore) FindShard(ctx context.Context, hour int) ([]issue.Repository, error) {
	return s.Find(ctx,
		repository.WithWhere("shard_hour = ?", hour),
		repository.WithOrderAsc("node_id"),
	)
}

// CountLanguages returns how many distinct primary languages the tracked
// repositories cover, ignoring repositories without a detected language.
func (s RepoStore) CountLanguages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.Session(ctx).
		Table(RepoModel{}.TableName()).
		Where("primary_language <> ''").
		Distinct("primary_language").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count languages: %w", err)
	}
	return count, nil
}

// MarkScraped stamps a repository's last harvest time.
func (s RepoStore) MarkScraped(ctx context.Context, nodeID string, t time.Time) error {
	err := s.db.Session(ctx).
		Model(&RepoModel{}).
		Where("node_id = ?", nodeID).
		Updates(map[string]any{"last_scraped_at": t, "updated_at": t}).Error
	if err != nil {
		return fmt.Errorf("mark scraped %s: %w", nodeID, err)
	}
	return nil
}

// escapeLike neutralizes LIKE metacharacters so user input matches
// literally. Backslash first, since it is the escape character itself.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
