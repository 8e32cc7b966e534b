package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/internal/config"
)

// Embedder consumes the issue topic and writes embedded issues into the
// corpus. One instance processes deliveries serially; horizontal scale
// comes from more instances in the same consumer group.
type Embedder struct {
	consumer  issue.IssueConsumer
	issues    issue.IssueStore
	staging   issue.PendingStore
	embedding *Embedding
	batchSize int
	logger    *slog.Logger

	stopping atomic.Bool
}

// NewEmbedder creates a new Embedder worker.
func NewEmbedder(
	consumer issue.IssueConsumer,
	issues issue.IssueStore,
	staging issue.PendingStore,
	embedding *Embedding,
	broker config.BrokerConfig,
	logger *slog.Logger,
) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{
		consumer:  consumer,
		issues:    issues,
		staging:   staging,
		embedding: embedding,
		batchSize: broker.BatchSize(),
		logger:    logger,
	}
}

// Stop makes the run loop exit before the next message. In-flight work
// finishes; unprocessed deliveries stay unacked and redeliver.
func (e *Embedder) Stop() { e.stopping.Store(true) }

// Run pulls and processes deliveries until the context is cancelled or
// Stop is called. Empty pulls trigger a sweep of exhausted deliveries to
// the dead letter stream; pull errors back off for a second instead of
// spinning on a dead broker.
func (e *Embedder) Run(ctx context.Context) error {
	for {
		if e.stopping.Load() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		processed, err := e.ProcessBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Error("embedder batch failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		if processed == 0 {
			stats, err := e.consumer.Sweep(ctx)
			if err != nil {
				e.logger.Warn("issue topic sweep failed", slog.String("error", err.Error()))
			} else if stats.Stalled > 0 || stats.DeadLettered > 0 {
				e.logger.Warn("issue topic sweep",
					slog.Int("stalled", stats.Stalled),
					slog.Int("dead_lettered", stats.DeadLettered))
			}
		}
	}
}

// ProcessBatch pulls one batch and processes it. Returns how many
// deliveries were acked. A failed message is logged and left unacked so
// the broker redelivers it; a stop request mid-batch leaves the remainder
// unacked the same way.
func (e *Embedder) ProcessBatch(ctx context.Context) (int, error) {
	deliveries, err := e.consumer.Pull(ctx, e.batchSize)
	if err != nil {
		return 0, fmt.Errorf("pull issue topic: %w", err)
	}

	processed := 0
	for _, delivery := range deliveries {
		if e.stopping.Load() {
			return processed, nil
		}
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		if err := e.process(ctx, delivery.Message); err != nil {
			e.logger.Error("issue embed failed",
				slog.String("node_id", delivery.Message.NodeID),
				slog.String("error", err.Error()))
			continue
		}
		if err := e.consumer.Ack(ctx, delivery.ID); err != nil {
			e.logger.Warn("ack failed",
				slog.String("node_id", delivery.Message.NodeID),
				slog.String("error", err.Error()))
			continue
		}
		processed++
	}
	return processed, nil
}

// process embeds one staged issue and upserts it into the corpus. A
// message whose content hash already sits embedded in the corpus is a
// redelivery or an unchanged re-harvest; it only settles the staging row.
func (e *Embedder) process(ctx context.Context, msg issue.IssueMessage) error {
	storedHash, hasEmbedding, err := e.issues.HashState(ctx, msg.NodeID)
	if err != nil {
		return fmt.Errorf("hash state %s: %w", msg.NodeID, err)
	}
	if storedHash == msg.ContentHash && hasEmbedding {
		e.settle(ctx, msg.NodeID)
		return nil
	}

	iss := issue.NewIssue(
		msg.NodeID,
		msg.RepoID,
		msg.Title,
		msg.BodyText,
		msg.Labels,
		issue.State(msg.State),
		msg.HTMLURL,
		msg.GitHubCreatedAt,
		msg.Components(),
	)

	vec := e.embedding.EmbedOne(ctx, iss.EmbedText())
	if vec == nil {
		e.markFailed(ctx, msg.NodeID)
		return fmt.Errorf("embed %s: %w", msg.NodeID, errNoVector)
	}

	iss = iss.WithEmbedding(vec, time.Now().UTC())
	if err := e.issues.Upsert(ctx, iss); err != nil {
		e.markFailed(ctx, msg.NodeID)
		return fmt.Errorf("upsert %s: %w", msg.NodeID, err)
	}

	e.settle(ctx, msg.NodeID)
	issuesEmbedded.Inc()
	return nil
}

// settle marks the staging row completed. The issue is already in the
// corpus at this point, so a failure here only delays the janitor sweep.
func (e *Embedder) settle(ctx context.Context, nodeID string) {
	if err := e.staging.MarkStatus(ctx, nodeID, issue.PendingStatusCompleted); err != nil {
		e.logger.Warn("staging settle failed",
			slog.String("node_id", nodeID),
			slog.String("error", err.Error()))
	}
}

// markFailed bumps the staging row's attempt count for observability.
// Redelivery is driven by the missing ack, not by this status.
func (e *Embedder) markFailed(ctx context.Context, nodeID string) {
	if err := e.staging.MarkStatus(ctx, nodeID, issue.PendingStatusFailed); err != nil {
		e.logger.Warn("staging mark failed",
			slog.String("node_id", nodeID),
			slog.String("error", err.Error()))
	}
}
