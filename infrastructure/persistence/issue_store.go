package persistence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/domain/scoring"
	"github.com/gimlabs/gim/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IssueStore implements issue.IssueStore using GORM.
type IssueStore struct {
	database.Repository[issue.Issue, IssueModel]
	db database.Database
}

// NewIssueStore creates a new IssueStore.
func NewIssueStore(db database.Database) IssueStore {
	return IssueStore{
		Repository: database.NewRepository[issue.Issue, IssueModel](db, IssueMapper{}, "issue"),
		db:         db,
	}
}

// Save persists an issue, updating on node ID conflict.
func (s IssueStore) Save(ctx context.Context, iss issue.Issue) (issue.Issue, error) {
	if err := s.Upsert(ctx, iss); err != nil {
		return issue.Issue{}, err
	}
	return s.FindOne(ctx, repository.WithNodeID(iss.NodeID()))
}

// Delete removes an issue by node ID.
func (s IssueStore) Delete(ctx context.Context, iss issue.Issue) error {
	return s.DeleteBy(ctx, repository.WithNodeID(iss.NodeID()))
}

// Upsert writes an issue through by node ID, replacing content, scores,
// state, embedding and ingestion time on conflict.
func (s IssueStore) Upsert(ctx context.Context, iss issue.Issue) error {
	model := IssueMapper{}.ToModel(iss)
	err := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "node_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "body_text", "labels", "state", "html_url",
			"has_code", "has_template_headers", "tech_stack_weight",
			"q_score", "survival_score", "content_hash", "embedding",
			"github_created_at", "ingested_at", "updated_at",
		}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("upsert issue %s: %w", iss.NodeID(), err)
	}
	return nil
}

// HashState returns the stored content hash and whether an embedding is
// present. Unknown node IDs return an empty hash, not an error.
func (s IssueStore) HashState(ctx context.Context, nodeID string) (string, bool, error) {
	var row struct {
		ContentHash  string `gorm:"column:content_hash"`
		HasEmbedding bool   `gorm:"column:has_embedding"`
	}
	err := s.db.Session(ctx).
		Table(IssueModel{}.TableName()).
		Select("content_hash, embedding IS NOT NULL AS has_embedding").
		Where("node_id = ?", nodeID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("hash state for %s: %w", nodeID, err)
	}
	return row.ContentHash, row.HasEmbedding, nil
}

// RefreshSurvival recomputes survival scores from q_score and the age since
// ingestion. PostgreSQL does it in one set-based statement; SQLite lacks
// POWER so it recomputes per row inside a transaction.
func (s IssueStore) RefreshSurvival(ctx context.Context, now time.Time) error {
	if s.db.IsPostgres() {
		err := s.db.Session(ctx).Exec(`
			UPDATE ingestion_issues
			SET survival_score = q_score * POWER(2, -(GREATEST(EXTRACT(EPOCH FROM (?::timestamptz - ingested_at)), 0) / 86400.0) / 7.0),
			    updated_at = ?
			WHERE ingested_at IS NOT NULL`, now, now).Error
		if err != nil {
			return fmt.Errorf("refresh survival: %w", err)
		}
		return nil
	}

	return s.db.GORM().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []struct {
			NodeID     string    `gorm:"column:node_id"`
			QScore     float64   `gorm:"column:q_score"`
			IngestedAt time.Time `gorm:"column:ingested_at"`
		}
		if err := tx.Table(IssueModel{}.TableName()).
			Select("node_id, q_score, ingested_at").
			Where("ingested_at IS NOT NULL").
			Find(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			survival := scoring.SurvivalScore(row.QScore, row.IngestedAt, now)
			if err := tx.Table(IssueModel{}.TableName()).
				Where("node_id = ?", row.NodeID).
				Updates(map[string]any{"survival_score": survival, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SurvivalThreshold returns the survival score at the given quantile.
// PostgreSQL interpolates with percentile_cont; SQLite takes the value at
// the quantile's ordered offset.
func (s IssueStore) SurvivalThreshold(ctx context.Context, quantile float64) (float64, error) {
	if quantile < 0 || quantile > 1 {
		return 0, fmt.Errorf("quantile out of range: %v", quantile)
	}

	if s.db.IsPostgres() {
		var threshold float64
		err := s.db.Session(ctx).Raw(`
			SELECT COALESCE(percentile_cont(?) WITHIN GROUP (ORDER BY survival_score), 0)
			FROM ingestion_issues`, quantile).Scan(&threshold).Error
		if err != nil {
			return 0, fmt.Errorf("survival threshold: %w", err)
		}
		return threshold, nil
	}

	var count int64
	if err := s.db.Session(ctx).Model(&IssueModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("survival threshold: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	offset := int(math.Floor(quantile * float64(count-1)))
	var threshold float64
	err := s.db.Session(ctx).
		Table(IssueModel{}.TableName()).
		Select("survival_score").
		Order("survival_score ASC").
		Offset(offset).
		Limit(1).
		Scan(&threshold).Error
	if err != nil {
		return 0, fmt.Errorf("survival threshold: %w", err)
	}
	return threshold, nil
}

// DeleteBelowSurvival removes issues with survival strictly below threshold
// and returns how many went.
func (s IssueStore) DeleteBelowSurvival(ctx context.Context, threshold float64) (int64, error) {
	result := s.db.Session(ctx).
		Where("survival_score < ?", threshold).
		Delete(&IssueModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete below survival: %w", result.Error)
	}
	return result.RowsAffected, nil
}
