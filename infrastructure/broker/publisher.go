package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"
)

// Publisher implements issue.Publisher. Repo messages publish inline; the
// issue fan-out runs asynchronously under an inflight bound so a slow
// broker backpressures the gatherers instead of growing memory. Each
// outstanding publish carries its own deadline: a hung publish counts as a
// failure and releases its slot.
type Publisher struct {
	streams     *Streams
	maxInflight int64
	timeout     time.Duration
	sem         *semaphore.Weighted
	logger      *slog.Logger

	published atomic.Int64
	deduped   atomic.Int64
	failed    atomic.Int64
}

// NewPublisher creates a Publisher bounded to maxInflight outstanding issue
// publishes with the given per-publish timeout.
func NewPublisher(streams *Streams, maxInflight int, timeout time.Duration, logger *slog.Logger) *Publisher {
	if maxInflight <= 0 {
		maxInflight = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = streams.logger
	}
	return &Publisher{
		streams:     streams,
		maxInflight: int64(maxInflight),
		timeout:     timeout,
		sem:         semaphore.NewWeighted(int64(maxInflight)),
		logger:      logger,
	}
}

// PublishRepo publishes one repo message inline.
func (p *Publisher) PublishRepo(ctx context.Context, msg issue.RepoMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode repo message %s: %w", msg.NodeID, err)
	}
	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err = p.streams.rdb.XAdd(pubCtx, &redis.XAddArgs{
		Stream: RepoStream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]any{"payload": data},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish repo %s: %w", msg.NodeID, err)
	}
	return nil
}

// PublishIssue schedules one issue publish. It blocks only while all
// inflight slots are taken; the publish itself, including the at-broker
// content-hash dedup, happens on its own goroutine.
func (p *Publisher) PublishIssue(ctx context.Context, msg issue.IssueMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode issue message %s: %w", msg.NodeID, err)
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire publish slot: %w", err)
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		defer p.sem.Release(1)
		p.publishIssue(detached, msg, data)
	}()
	return nil
}

func (p *Publisher) publishIssue(ctx context.Context, msg issue.IssueMessage, data []byte) {
	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	created, err := p.streams.rdb.SetNX(pubCtx, dedupPrefix+msg.ContentHash, "1", publishDedupTTL).Result()
	if err != nil {
		p.failed.Add(1)
		p.logger.Warn("issue publish dedup check failed",
			slog.String("node_id", msg.NodeID),
			slog.String("error", err.Error()),
		)
		return
	}
	if !created {
		p.deduped.Add(1)
		return
	}

	err = p.streams.rdb.XAdd(pubCtx, &redis.XAddArgs{
		Stream: IssueStream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]any{
			"payload":      data,
			"content_hash": msg.ContentHash,
		},
	}).Err()
	if err != nil {
		p.failed.Add(1)
		p.logger.Warn("issue publish failed",
			slog.String("node_id", msg.NodeID),
			slog.String("error", err.Error()),
		)
		return
	}
	p.published.Add(1)
}

// Drain blocks until every outstanding issue publish settles, then reports
// the fan-out outcome since the previous Drain. The counters reset on read
// so each collector pass logs its own numbers. Repo publishes are
// synchronous and not counted here.
func (p *Publisher) Drain(ctx context.Context) issue.PublishStats {
	if err := p.sem.Acquire(ctx, p.maxInflight); err == nil {
		p.sem.Release(p.maxInflight)
	}
	return issue.PublishStats{
		Published: int(p.published.Swap(0)),
		Deduped:   int(p.deduped.Swap(0)),
		Failed:    int(p.failed.Swap(0)),
	}
}
