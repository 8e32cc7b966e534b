package issue

import (
	"context"
	"time"

	"github.com/gimlabs/gim/domain/scoring"
)

// RepoMessage is the per-repository fan-out record on the repo topic. The
// scout publishes one per discovered repository; gatherers consume them.
type RepoMessage struct {
	NodeID          string   `json:"node_id"`
	FullName        string   `json:"full_name"`
	PrimaryLanguage string   `json:"primary_language"`
	StargazerCount  int      `json:"stargazer_count"`
	Topics          []string `json:"topics,omitempty"`
}

// IssueMessage is the per-issue fan-out record on the issue topic. The
// content hash rides both as a broker attribute (publish dedup) and as a
// payload field (consumer idempotency).
type IssueMessage struct {
	NodeID             string    `json:"node_id"`
	RepoID             string    `json:"repo_id"`
	Title              string    `json:"title"`
	BodyText           string    `json:"body_text"`
	Labels             []string  `json:"labels,omitempty"`
	State              State     `json:"state"`
	HTMLURL            string    `json:"html_url"`
	GitHubCreatedAt    time.Time `json:"github_created_at"`
	HasCode            bool      `json:"has_code"`
	HasTemplateHeaders bool      `json:"has_template_headers"`
	TechStackWeight    float64   `json:"tech_stack_weight"`
	ContentHash        string    `json:"content_hash"`
}

// NewIssueMessage projects a staged issue onto the wire record.
func NewIssueMessage(p PendingIssue) IssueMessage {
	return IssueMessage{
		NodeID:             p.NodeID(),
		RepoID:             p.RepoID(),
		Title:              p.Title(),
		BodyText:           p.BodyText(),
		Labels:             p.Labels(),
		State:              p.State(),
		HTMLURL:            p.HTMLURL(),
		GitHubCreatedAt:    p.GitHubCreatedAt(),
		HasCode:            p.Components().HasCode(),
		HasTemplateHeaders: p.Components().HasTemplateHeaders(),
		TechStackWeight:    p.Components().TechStackWeight(),
		ContentHash:        p.ContentHash(),
	}
}

// Components rebuilds the Q-components carried by the message.
func (m IssueMessage) Components() scoring.QComponents {
	return scoring.NewQComponents(m.HasCode, m.HasTemplateHeaders, m.TechStackWeight)
}

// PublishStats counts the outcomes of one publishing session.
type PublishStats struct {
	Published int `json:"published"`
	Deduped   int `json:"deduped"`
	Failed    int `json:"failed"`
}

// SweepStats counts the outcome of one dead-letter sweep: stalled is how
// many unacked deliveries sat past the idle threshold, dead-lettered the
// subset that exhausted its delivery budget and moved off the topic.
type SweepStats struct {
	Stalled      int `json:"stalled"`
	DeadLettered int `json:"dead_lettered"`
}

// Publisher fans harvested records out to the broker topics. PublishIssue
// may complete asynchronously under the publisher's inflight bound; Drain
// blocks until outstanding publishes settle and reports the session
// outcome.
type Publisher interface {
	PublishRepo(ctx context.Context, msg RepoMessage) error
	PublishIssue(ctx context.Context, msg IssueMessage) error
	Drain(ctx context.Context) PublishStats
}

// RepoDelivery is one repo message held by a consumer group until acked.
type RepoDelivery struct {
	ID      string
	Message RepoMessage
}

// IssueDelivery is one issue message held by a consumer group until acked.
type IssueDelivery struct {
	ID      string
	Message IssueMessage
}

// RepoConsumer pulls repo messages for a consumer group. A nack is simply
// not acking: Pull reclaims deliveries left idle past the redelivery
// threshold before reading new messages, and Sweep moves deliveries that
// exhausted their budget to the dead-letter stream.
type RepoConsumer interface {
	Pull(ctx context.Context, max int) ([]RepoDelivery, error)
	Ack(ctx context.Context, ids ...string) error
	Sweep(ctx context.Context) (SweepStats, error)
}

// IssueConsumer pulls issue messages for a consumer group, with the same
// pending, redelivery and sweep semantics as RepoConsumer.
type IssueConsumer interface {
	Pull(ctx context.Context, max int) ([]IssueDelivery, error)
	Ack(ctx context.Context, ids ...string) error
	Sweep(ctx context.Context) (SweepStats, error)
}
