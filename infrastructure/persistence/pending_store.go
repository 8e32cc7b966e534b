package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PendingStore implements issue.PendingStore using GORM.
type PendingStore struct {
	database.Repository[issue.PendingIssue, PendingIssueModel]
	db database.Database
}

// NewPendingStore creates a new PendingStore.
func NewPendingStore(db database.Database) PendingStore {
	return PendingStore{
		Repository: database.NewRepository[issue.PendingIssue, PendingIssueModel](db, PendingMapper{}, "pending issue"),
		db:         db,
	}
}

// Save persists a staged issue, updating on node ID conflict.
func (s PendingStore) Save(ctx context.Context, p issue.PendingIssue) (issue.PendingIssue, error) {
	if err := s.Stage(ctx, []issue.PendingIssue{p}); err != nil {
		return issue.PendingIssue{}, err
	}
	return s.FindOne(ctx, repository.WithNodeID(p.NodeID()))
}

// Delete removes a staged issue.
func (s PendingStore) Delete(ctx context.Context, p issue.PendingIssue) error {
	return s.DeleteBy(ctx, repository.WithNodeID(p.NodeID()))
}

// Stage inserts staged issues, replacing any earlier row for the same node
// ID so the newest content version wins. Status and attempts reset with
// the new content.
func (s PendingStore) Stage(ctx context.Context, pending []issue.PendingIssue) error {
	if len(pending) == 0 {
		return nil
	}
	models := make([]PendingIssueModel, len(pending))
	for i, p := range pending {
		models[i] = PendingMapper{}.ToModel(p)
	}
	err := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "node_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "body_text", "labels", "state", "html_url",
			"has_code", "has_template_headers", "tech_stack_weight",
			"content_hash", "status", "attempts", "github_created_at", "updated_at",
		}),
	}).Create(&models).Error
	if err != nil {
		return fmt.Errorf("stage pending issues: %w", err)
	}
	return nil
}

// MarkStatus moves a staged row to the given status. Failed rows get their
// attempt counter bumped.
func (s PendingStore) MarkStatus(ctx context.Context, nodeID string, status issue.PendingStatus) error {
	updates := map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	if status == issue.PendingStatusFailed {
		updates["attempts"] = gorm.Expr("attempts + 1")
	}
	err := s.db.Session(ctx).
		Model(&PendingIssueModel{}).
		Where("node_id = ?", nodeID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("mark pending %s %s: %w", nodeID, status, err)
	}
	return nil
}

// SweepCompleted deletes completed rows last touched before the cutoff and
// returns how many went.
func (s PendingStore) SweepCompleted(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.Session(ctx).
		Where("status = ? AND updated_at < ?", string(issue.PendingStatusCompleted), before).
		Delete(&PendingIssueModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("sweep completed: %w", result.Error)
	}
	return result.RowsAffected, nil
}
