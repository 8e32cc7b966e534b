package issue

import (
	"context"
	"time"

	"github.com/gimlabs/gim/domain/repository"
)

// IssueStore defines persistence for the main issue table.
type IssueStore interface {
	repository.Store[Issue]

	// Upsert writes an issue through by node ID, replacing content,
	// scores, state, embedding and ingestion time on conflict.
	Upsert(ctx context.Context, iss Issue) error

	// HashState returns the stored content hash and whether an embedding
	// is present. Unknown node IDs return an empty hash, not an error,
	// since absence is the common case on first ingestion.
	HashState(ctx context.Context, nodeID string) (contentHash string, hasEmbedding bool, err error)

	// RefreshSurvival recomputes survival scores from q_score and age in
	// one set-based statement.
	RefreshSurvival(ctx context.Context, now time.Time) error

	// SurvivalThreshold returns the survival score at the given quantile,
	// e.g. 0.2 for the janitor's 20th percentile.
	SurvivalThreshold(ctx context.Context, quantile float64) (float64, error)

	// DeleteBelowSurvival removes issues with survival below threshold
	// and returns how many went.
	DeleteBelowSurvival(ctx context.Context, threshold float64) (int64, error)
}

// RepositoryStore defines persistence for tracked repositories.
type RepositoryStore interface {
	repository.Store[Repository]

	// UpsertAll writes discovered repositories through by node ID,
	// refreshing name, language, topics and star counts on conflict.
	UpsertAll(ctx context.Context, repos []Repository) error

	// SearchByName finds repositories whose full name contains substr,
	// treating %, _ and \ in the input literally.
	SearchByName(ctx context.Context, substr string, options ...repository.Option) ([]Repository, error)

	// FindShard returns the repositories harvested in the given UTC hour.
	FindShard(ctx context.Context, hour int) ([]Repository, error)

	// MarkScraped stamps a repository's last harvest time.
	MarkScraped(ctx context.Context, nodeID string, t time.Time) error

	// CountLanguages returns how many distinct primary languages the
	// tracked repositories cover. Repositories without a detected
	// language do not count.
	CountLanguages(ctx context.Context) (int64, error)
}

// PendingStore defines persistence for the embedding staging table.
type PendingStore interface {
	repository.Store[PendingIssue]

	// Stage inserts staged issues, replacing any earlier row for the
	// same node ID so the newest content version wins.
	Stage(ctx context.Context, pending []PendingIssue) error

	// MarkStatus moves a staged row to the given status. Failed rows get
	// their attempt counter bumped.
	MarkStatus(ctx context.Context, nodeID string, status PendingStatus) error

	// SweepCompleted deletes completed rows last touched before the
	// cutoff and returns how many went.
	SweepCompleted(ctx context.Context, before time.Time) (int64, error)
}
