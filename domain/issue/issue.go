// Package issue holds the ingestion domain: the Issue and Repository
// entities, the staging row issues pass through on their way to the main
// table, and the store contracts the persistence layer implements.
package issue

import (
	"time"

	"github.com/gimlabs/gim/domain/scoring"
)

// State is the lifecycle state of an issue at the source.
type State string

// State values.
const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	return s == StateOpen || s == StateClosed
}

// Issue is one harvested issue with its scores and optional embedding.
// Immutable once constructed; mutation happens through copies.
type Issue struct {
	nodeID          string
	repoID          string
	title           string
	bodyText        string
	labels          []string
	state           State
	htmlURL         string
	components      scoring.QComponents
	qScore          float64
	survivalScore   float64
	contentHash     string
	embedding       []float64
	githubCreatedAt time.Time
	ingestedAt      time.Time
}

// NewIssue assembles an issue from harvested content. Scores and the
// content hash are derived here; the embedding stays nil until the
// embedder has processed the row.
func NewIssue(
	nodeID string,
	repoID string,
	title string,
	bodyText string,
	labels []string,
	state State,
	htmlURL string,
	githubCreatedAt time.Time,
	components scoring.QComponents,
) Issue {
	lb := make([]string, len(labels))
	copy(lb, labels)
	return Issue{
		nodeID:          nodeID,
		repoID:          repoID,
		title:           title,
		bodyText:        bodyText,
		labels:          lb,
		state:           state,
		htmlURL:         htmlURL,
		components:      components,
		qScore:          components.Score(),
		contentHash:     scoring.ContentHash(nodeID, title, bodyText),
		githubCreatedAt: githubCreatedAt,
	}
}

// ReconstructIssue recreates an issue from persistence.
func ReconstructIssue(
	nodeID string,
	repoID string,
	title string,
	bodyText string,
	labels []string,
	state State,
	htmlURL string,
	components scoring.QComponents,
	qScore float64,
	survivalScore float64,
	contentHash string,
	embedding []float64,
	githubCreatedAt time.Time,
	ingestedAt time.Time,
) Issue {
	lb := make([]string, len(labels))
	copy(lb, labels)
	var emb []float64
	if embedding != nil {
		emb = make([]float64, len(embedding))
		copy(emb, embedding)
	}
	return Issue{
		nodeID:          nodeID,
		repoID:          repoID,
		title:           title,
		bodyText:        bodyText,
		labels:          lb,
		state:           state,
		htmlURL:         htmlURL,
		components:      components,
		qScore:          qScore,
		survivalScore:   survivalScore,
		contentHash:     contentHash,
		embedding:       emb,
		githubCreatedAt: githubCreatedAt,
		ingestedAt:      ingestedAt,
	}
}

// WithEmbedding returns a copy carrying the embedding, stamped as ingested
// at now with the survival score reset accordingly.
func (i Issue) WithEmbedding(embedding []float64, now time.Time) Issue {
	emb := make([]float64, len(embedding))
	copy(emb, embedding)
	i.embedding = emb
	i.ingestedAt = now
	i.survivalScore = scoring.SurvivalScore(i.qScore, now, now)
	return i
}

// NodeID returns the source node ID, the primary key.
func (i Issue) NodeID() string { return i.nodeID }

// RepoID returns the owning repository's node ID.
func (i Issue) RepoID() string { return i.repoID }

// Title returns the issue title.
func (i Issue) Title() string { return i.title }

// BodyText returns the full body text.
func (i Issue) BodyText() string { return i.bodyText }

// Labels returns the labels in source order.
func (i Issue) Labels() []string {
	lb := make([]string, len(i.labels))
	copy(lb, i.labels)
	return lb
}

// State returns the issue state.
func (i Issue) State() State { return i.state }

// IsOpen reports whether the issue is open.
func (i Issue) IsOpen() bool { return i.state == StateOpen }

// HTMLURL returns the issue's page at the source.
func (i Issue) HTMLURL() string { return i.htmlURL }

// Components returns the Q-score components.
func (i Issue) Components() scoring.QComponents { return i.components }

// QScore returns the quality score in [0,1].
func (i Issue) QScore() float64 { return i.qScore }

// SurvivalScore returns the janitor's pruning score in [0,1].
func (i Issue) SurvivalScore() float64 { return i.survivalScore }

// ContentHash identifies this content version.
func (i Issue) ContentHash() string { return i.contentHash }

// Embedding returns the unit-norm embedding, or nil before the embedder
// has processed the row.
func (i Issue) Embedding() []float64 {
	if i.embedding == nil {
		return nil
	}
	emb := make([]float64, len(i.embedding))
	copy(emb, i.embedding)
	return emb
}

// HasEmbedding reports whether the embedder has processed this row.
func (i Issue) HasEmbedding() bool { return i.embedding != nil }

// GitHubCreatedAt returns the creation time at the source.
func (i Issue) GitHubCreatedAt() time.Time { return i.githubCreatedAt }

// IngestedAt returns when the embedder last wrote this row.
func (i Issue) IngestedAt() time.Time { return i.ingestedAt }

// EmbedText returns the text the embedder encodes for this issue.
func (i Issue) EmbedText() string {
	if i.bodyText == "" {
		return i.title
	}
	return i.title + "\n\n" + i.bodyText
}
