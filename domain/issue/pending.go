package issue

import (
	"time"

	"github.com/gimlabs/gim/domain/scoring"
)

// PendingStatus tracks a staged issue through the embedding pipeline.
type PendingStatus string

// PendingStatus values.
const (
	PendingStatusPending    PendingStatus = "pending"
	PendingStatusProcessing PendingStatus = "processing"
	PendingStatusCompleted  PendingStatus = "completed"
	PendingStatusFailed     PendingStatus = "failed"
)

// PendingIssue is a staging row awaiting embedding. The collector creates
// it alongside the broker publish; the embedder drives its status and the
// janitor sweeps completed rows once they age out.
type PendingIssue struct {
	id              int64
	nodeID          string
	repoID          string
	title           string
	bodyText        string
	labels          []string
	state           State
	htmlURL         string
	components      scoring.QComponents
	contentHash     string
	status          PendingStatus
	attempts        int
	githubCreatedAt time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

// NewPendingIssue stages a harvested issue.
func NewPendingIssue(
	nodeID string,
	repoID string,
	title string,
	bodyText string,
	labels []string,
	state State,
	htmlURL string,
	githubCreatedAt time.Time,
	components scoring.QComponents,
) PendingIssue {
	lb := make([]string, len(labels))
	copy(lb, labels)
	return PendingIssue{
		nodeID:          nodeID,
		repoID:          repoID,
		title:           title,
		bodyText:        bodyText,
		labels:          lb,
		state:           state,
		htmlURL:         htmlURL,
		components:      components,
		contentHash:     scoring.ContentHash(nodeID, title, bodyText),
		status:          PendingStatusPending,
		githubCreatedAt: githubCreatedAt,
	}
}

// ReconstructPendingIssue recreates a staging row from persistence.
func ReconstructPendingIssue(
	id int64,
	nodeID string,
	repoID string,
	title string,
	bodyText string,
	labels []string,
	state State,
	htmlURL string,
	components scoring.QComponents,
	contentHash string,
	status PendingStatus,
	attempts int,
	githubCreatedAt time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) PendingIssue {
	lb := make([]string, len(labels))
	copy(lb, labels)
	return PendingIssue{
		id:              id,
		nodeID:          nodeID,
		repoID:          repoID,
		title:           title,
		bodyText:        bodyText,
		labels:          lb,
		state:           state,
		htmlURL:         htmlURL,
		components:      components,
		contentHash:     contentHash,
		status:          status,
		attempts:        attempts,
		githubCreatedAt: githubCreatedAt,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// ToIssue promotes the staged content to a main-table issue.
func (p PendingIssue) ToIssue() Issue {
	return NewIssue(
		p.nodeID,
		p.repoID,
		p.title,
		p.bodyText,
		p.labels,
		p.state,
		p.htmlURL,
		p.githubCreatedAt,
		p.components,
	)
}

// WithStatus returns a copy in the given status.
func (p PendingIssue) WithStatus(status PendingStatus) PendingIssue {
	p.status = status
	return p
}

// WithAttempt returns a copy with the attempt counter bumped.
func (p PendingIssue) WithAttempt() PendingIssue {
	p.attempts++
	return p
}

// ID returns the staging row's database identifier.
func (p PendingIssue) ID() int64 { return p.id }

// NodeID returns the issue's source node ID.
func (p PendingIssue) NodeID() string { return p.nodeID }

// RepoID returns the owning repository's node ID.
func (p PendingIssue) RepoID() string { return p.repoID }

// Title returns the issue title.
func (p PendingIssue) Title() string { return p.title }

// BodyText returns the issue body.
func (p PendingIssue) BodyText() string { return p.bodyText }

// Labels returns the labels in source order.
func (p PendingIssue) Labels() []string {
	lb := make([]string, len(p.labels))
	copy(lb, p.labels)
	return lb
}

// State returns the issue state at harvest time.
func (p PendingIssue) State() State { return p.state }

// HTMLURL returns the issue's page at the source.
func (p PendingIssue) HTMLURL() string { return p.htmlURL }

// Components returns the Q-score components computed at harvest.
func (p PendingIssue) Components() scoring.QComponents { return p.components }

// ContentHash identifies the staged content version.
func (p PendingIssue) ContentHash() string { return p.contentHash }

// Status returns the staging status.
func (p PendingIssue) Status() PendingStatus { return p.status }

// Attempts returns how many times the embedder has tried this row.
func (p PendingIssue) Attempts() int { return p.attempts }

// GitHubCreatedAt returns the creation time at the source.
func (p PendingIssue) GitHubCreatedAt() time.Time { return p.githubCreatedAt }

// CreatedAt returns when the row was staged.
func (p PendingIssue) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last status change time.
func (p PendingIssue) UpdatedAt() time.Time { return p.updatedAt }
