// Package service provides domain service interfaces.
package service

import (
	"context"

	"github.com/gimlabs/gim/domain/issue"
)

// Forge discovers repositories and harvests their issues from the hosting
// platform.
type Forge interface {
	// DiscoverRepositories returns public repositories at or above the
	// star floor, deduplicated by node ID and capped at maxRepos.
	DiscoverRepositories(ctx context.Context, minStars, maxRepos int) ([]issue.Repository, error)

	// HarvestIssues streams one repository's open issues, newest first,
	// up to maxIssues. The sequence is lazy, finite, and cannot be
	// restarted: issues arrive as pages are fetched, junk rows are
	// dropped inside the producer, and at most one error is delivered
	// on the second channel before both close.
	HarvestIssues(ctx context.Context, repo issue.Repository, maxIssues int) (<-chan issue.PendingIssue, <-chan error)
}
