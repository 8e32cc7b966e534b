package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/internal/config"
)

// survivalQuantile is the fraction of the corpus the janitor prunes each
// sweep once the corpus is large enough to rank.
const survivalQuantile = 0.2

// JanitorReport summarizes one janitor sweep.
type JanitorReport struct {
	Deleted      int64   // issues pruned below the survival threshold
	Remaining    int64   // issues left in the corpus
	Threshold    float64 // survival cutoff used, zero when pruning was skipped
	SweptStaging int64   // aged-out completed staging rows removed
}

// Janitor keeps the corpus bounded: it refreshes survival scores, prunes
// the weakest quantile, and sweeps settled staging rows past their
// retention age. Small corpora are never pruned.
type Janitor struct {
	issues  issue.IssueStore
	staging issue.PendingStore
	cfg     config.JanitorConfig
	logger  *slog.Logger
}

// NewJanitor creates a new Janitor job.
func NewJanitor(issues issue.IssueStore, staging issue.PendingStore, cfg config.JanitorConfig, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		issues:  issues,
		staging: staging,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run executes one sweep. Survival scores are recomputed first so the
// percentile reflects current age decay, not the scores at ingest time.
func (j *Janitor) Run(ctx context.Context) (JanitorReport, error) {
	now := time.Now().UTC()
	var report JanitorReport

	if err := j.issues.RefreshSurvival(ctx, now); err != nil {
		return report, fmt.Errorf("refresh survival: %w", err)
	}

	total, err := j.issues.Count(ctx)
	if err != nil {
		return report, fmt.Errorf("count issues: %w", err)
	}
	report.Remaining = total

	if total >= int64(j.cfg.MinIssues()) {
		threshold, err := j.issues.SurvivalThreshold(ctx, survivalQuantile)
		if err != nil {
			return report, fmt.Errorf("survival threshold: %w", err)
		}
		report.Threshold = threshold

		deleted, err := j.issues.DeleteBelowSurvival(ctx, threshold)
		if err != nil {
			return report, fmt.Errorf("prune issues: %w", err)
		}
		report.Deleted = deleted
		report.Remaining = total - deleted
		issuesPruned.Add(float64(deleted))
	}

	swept, err := j.staging.SweepCompleted(ctx, now.Add(-j.cfg.StagingMaxAge()))
	if err != nil {
		return report, fmt.Errorf("sweep staging: %w", err)
	}
	report.SweptStaging = swept

	j.logger.Info("janitor sweep complete",
		slog.Int64("deleted", report.Deleted),
		slog.Int64("remaining", report.Remaining),
		slog.Int64("swept_staging", report.SweptStaging))
	return report, nil
}
