package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/internal/config"
	"github.com/redis/go-redis/v9"
)

// groupReader is the consumer-group plumbing shared by both topics: pull
// with reclaim, ack, and the dead-letter sweep.
type groupReader struct {
	rdb           redis.UniversalClient
	stream        string
	dead          string
	group         string
	consumer      string
	blockTimeout  time.Duration
	minIdle       time.Duration
	maxDeliveries int64
	logger        *slog.Logger
}

func newGroupReader(ctx context.Context, s *Streams, stream string, cfg config.BrokerConfig, consumer string) (*groupReader, error) {
	r := &groupReader{
		rdb:           s.rdb,
		stream:        stream,
		dead:          stream + deadSuffix,
		group:         cfg.Group(),
		consumer:      consumer,
		blockTimeout:  cfg.BlockTimeout(),
		minIdle:       redeliveryIdle,
		maxDeliveries: int64(cfg.MaxDeliveries()),
		logger:        s.logger,
	}
	err := s.rdb.XGroupCreateMkStream(ctx, stream, r.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create group %s on %s: %w", r.group, stream, err)
	}
	return r, nil
}

// pull returns up to max messages: deliveries reclaimed from consumers that
// went quiet first, then new messages. It blocks up to the configured
// timeout only when nothing was reclaimed.
func (r *groupReader) pull(ctx context.Context, max int) ([]redis.XMessage, error) {
	if max <= 0 {
		return nil, nil
	}

	claimed, _, err := r.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   r.stream,
		Group:    r.group,
		Consumer: r.consumer,
		MinIdle:  r.minIdle,
		Start:    "0-0",
		Count:    int64(max),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reclaim %s: %w", r.stream, err)
	}
	if len(claimed) >= max {
		return claimed[:max], nil
	}

	block := r.blockTimeout
	if len(claimed) > 0 {
		block = -1
	}
	streams, err := r.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    r.group,
		Consumer: r.consumer,
		Streams:  []string{r.stream, ">"},
		Count:    int64(max - len(claimed)),
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return claimed, nil
		}
		return claimed, fmt.Errorf("read %s: %w", r.stream, err)
	}
	out := claimed
	for _, st := range streams {
		out = append(out, st.Messages...)
	}
	return out, nil
}

func (r *groupReader) ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.rdb.XAck(ctx, r.stream, r.group, ids...).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", r.stream, err)
	}
	return nil
}

// sweep moves deliveries that exhausted their budget to the dead-letter
// stream, payload intact, and acks them off the topic. Stalled deliveries
// under budget are left for pull's reclaim.
func (r *groupReader) sweep(ctx context.Context) (issue.SweepStats, error) {
	var stats issue.SweepStats
	pending, err := r.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: r.stream,
		Group:  r.group,
		Idle:   r.minIdle,
		Start:  "-",
		End:    "+",
		Count:  sweepBatch,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return stats, nil
		}
		return stats, fmt.Errorf("pending %s: %w", r.stream, err)
	}

	stats.Stalled = len(pending)
	for _, entry := range pending {
		if entry.RetryCount < r.maxDeliveries {
			continue
		}
		if err := r.deadLetter(ctx, entry); err != nil {
			return stats, err
		}
		stats.DeadLettered++
	}
	return stats, nil
}

func (r *groupReader) deadLetter(ctx context.Context, entry redis.XPendingExt) error {
	msgs, err := r.rdb.XRangeN(ctx, r.stream, entry.ID, entry.ID, 1).Result()
	if err != nil {
		return fmt.Errorf("fetch poison %s %s: %w", r.stream, entry.ID, err)
	}

	// A trimmed entry has no body left to preserve; just drop it from the
	// pending list.
	if len(msgs) == 1 {
		values := msgs[0].Values
		values["origin_id"] = entry.ID
		values["deliveries"] = entry.RetryCount
		err = r.rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: r.dead,
			MaxLen: maxStreamLen,
			Approx: true,
			Values: values,
		}).Err()
		if err != nil {
			return fmt.Errorf("dead-letter %s %s: %w", r.stream, entry.ID, err)
		}
	}

	if err := r.rdb.XAck(ctx, r.stream, r.group, entry.ID).Err(); err != nil {
		return fmt.Errorf("ack poison %s %s: %w", r.stream, entry.ID, err)
	}
	r.logger.Warn("dead-lettered poison message",
		slog.String("stream", r.stream),
		slog.String("id", entry.ID),
		slog.Int64("deliveries", entry.RetryCount),
	)
	return nil
}

func decodePayload(msg redis.XMessage, target any) error {
	raw, ok := msg.Values["payload"]
	if !ok {
		return fmt.Errorf("message %s has no payload", msg.ID)
	}
	text, ok := raw.(string)
	if !ok {
		return fmt.Errorf("message %s payload is %T", msg.ID, raw)
	}
	if err := json.Unmarshal([]byte(text), target); err != nil {
		return fmt.Errorf("decode message %s: %w", msg.ID, err)
	}
	return nil
}

// RepoConsumer implements issue.RepoConsumer on the repo topic.
type RepoConsumer struct {
	core *groupReader
}

// NewRepoConsumer joins the repo topic's consumer group, creating it if
// this is the first consumer.
func NewRepoConsumer(ctx context.Context, s *Streams, cfg config.BrokerConfig, consumer string) (*RepoConsumer, error) {
	core, err := newGroupReader(ctx, s, RepoStream, cfg, consumer)
	if err != nil {
		return nil, err
	}
	return &RepoConsumer{core: core}, nil
}

// Pull returns up to max repo deliveries. Undecodable messages are left
// unacked for the sweep to dead-letter.
func (c *RepoConsumer) Pull(ctx context.Context, max int) ([]issue.RepoDelivery, error) {
	msgs, err := c.core.pull(ctx, max)
	if err != nil {
		return nil, err
	}
	out := make([]issue.RepoDelivery, 0, len(msgs))
	for _, m := range msgs {
		var payload issue.RepoMessage
		if err := decodePayload(m, &payload); err != nil {
			c.core.logger.Warn("skipping undecodable repo message", slog.String("error", err.Error()))
			continue
		}
		out = append(out, issue.RepoDelivery{ID: m.ID, Message: payload})
	}
	return out, nil
}

// Ack removes deliveries from the pending list.
func (c *RepoConsumer) Ack(ctx context.Context, ids ...string) error {
	return c.core.ack(ctx, ids...)
}

// Sweep dead-letters poison repo messages.
func (c *RepoConsumer) Sweep(ctx context.Context) (issue.SweepStats, error) {
	return c.core.sweep(ctx)
}

// IssueConsumer implements issue.IssueConsumer on the issue topic.
type IssueConsumer struct {
	core *groupReader
}

// NewIssueConsumer joins the issue topic's consumer group, creating it if
// this is the first consumer.
func NewIssueConsumer(ctx context.Context, s *Streams, cfg config.BrokerConfig, consumer string) (*IssueConsumer, error) {
	core, err := newGroupReader(ctx, s, IssueStream, cfg, consumer)
	if err != nil {
		return nil, err
	}
	return &IssueConsumer{core: core}, nil
}

// Pull returns up to max issue deliveries. Undecodable messages are left
// unacked for the sweep to dead-letter.
func (c *IssueConsumer) Pull(ctx context.Context, max int) ([]issue.IssueDelivery, error) {
	msgs, err := c.core.pull(ctx, max)
	if err != nil {
		return nil, err
	}
	out := make([]issue.IssueDelivery, 0, len(msgs))
	for _, m := range msgs {
		var payload issue.IssueMessage
		if err := decodePayload(m, &payload); err != nil {
			c.core.logger.Warn("skipping undecodable issue message", slog.String("error", err.Error()))
			continue
		}
		out = append(out, issue.IssueDelivery{ID: m.ID, Message: payload})
	}
	return out, nil
}

// Ack removes deliveries from the pending list.
func (c *IssueConsumer) Ack(ctx context.Context, ids ...string) error {
	return c.core.ack(ctx, ids...)
}

// Sweep dead-letters poison issue messages.
func (c *IssueConsumer) Sweep(ctx context.Context) (issue.SweepStats, error) {
	return c.core.sweep(ctx)
}
