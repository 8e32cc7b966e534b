package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gimlabs/gim/domain/issue"
	domainservice "github.com/gimlabs/gim/domain/service"
	"github.com/gimlabs/gim/internal/config"
)

// CollectorReport summarizes one collector run.
type CollectorReport struct {
	Discovered int                // repositories returned by discovery
	Enqueued   int                // shard repositories published to the repo topic
	Harvested  int                // repositories whose issues were gathered
	Staged     int                // issues staged for embedding
	Publish    issue.PublishStats // issue fan-out outcome
}

// Collector drives one ingestion pass: discover repositories worth
// harvesting, enqueue the current hour's shard onto the repo topic, then
// drain the topic with a bounded gatherer pool that stages issues and
// fans them out to the embedder.
type Collector struct {
	forge     domainservice.Forge
	repos     issue.RepositoryStore
	staging   issue.PendingStore
	publisher issue.Publisher
	consumer  issue.RepoConsumer
	github    config.GitHubConfig
	batchSize int
	logger    *slog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(
	forge domainservice.Forge,
	repos issue.RepositoryStore,
	staging issue.PendingStore,
	publisher issue.Publisher,
	consumer issue.RepoConsumer,
	github config.GitHubConfig,
	broker config.BrokerConfig,
	logger *slog.Logger,
) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		forge:     forge,
		repos:     repos,
		staging:   staging,
		publisher: publisher,
		consumer:  consumer,
		github:    github,
		batchSize: broker.BatchSize(),
		logger:    logger,
	}
}

// Run executes one collector pass for the shard of the current UTC hour.
// Each repository is harvested once per day, at its shard hour.
func (c *Collector) Run(ctx context.Context) (CollectorReport, error) {
	var report CollectorReport
	hour := time.Now().UTC().Hour()

	discovered, enqueued, err := c.scout(ctx, hour)
	if err != nil {
		return report, err
	}
	report.Discovered = discovered
	report.Enqueued = enqueued

	report.Harvested, report.Staged, err = c.gather(ctx)

	// Drain regardless of gather outcome so inflight publishes settle
	// before the run is accounted for.
	report.Publish = c.publisher.Drain(ctx)
	publishFailures.Add(float64(report.Publish.Failed))

	if err != nil {
		return report, err
	}

	c.logger.Info("collector run complete",
		slog.Int("shard_hour", hour),
		slog.Int("discovered", report.Discovered),
		slog.Int("enqueued", report.Enqueued),
		slog.Int("harvested", report.Harvested),
		slog.Int("staged", report.Staged),
		slog.Int("published", report.Publish.Published),
		slog.Int("publish_deduped", report.Publish.Deduped),
		slog.Int("publish_failed", report.Publish.Failed))
	return report, nil
}

// Loop runs collector passes until the context is cancelled, one pass
// immediately and then one per interval. A failed pass is logged and the
// loop keeps its cadence; the next shard hour comes around regardless.
func (c *Collector) Loop(ctx context.Context, interval time.Duration) error {
	if _, err := c.Run(ctx); err != nil && ctx.Err() == nil {
		c.logger.Error("collector pass failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := c.Run(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error("collector pass failed", slog.String("error", err.Error()))
			}
		}
	}
}

// scout refreshes the repository table from discovery and enqueues the
// current shard. The shard is the union of freshly discovered repos and
// repos already on file, so a repository keeps its harvest slot even when
// one discovery run misses it.
func (c *Collector) scout(ctx context.Context, hour int) (int, int, error) {
	discovered, err := c.forge.DiscoverRepositories(ctx, c.github.MinStars(), c.github.MaxRepos())
	if err != nil {
		return 0, 0, fmt.Errorf("discover repositories: %w", err)
	}
	if err := c.repos.UpsertAll(ctx, discovered); err != nil {
		return 0, 0, fmt.Errorf("upsert repositories: %w", err)
	}

	due := make(map[string]issue.Repository)
	for _, repo := range discovered {
		if repo.InShard(hour) {
			due[repo.NodeID()] = repo
		}
	}
	known, err := c.repos.FindShard(ctx, hour)
	if err != nil {
		return len(discovered), 0, fmt.Errorf("load shard %d: %w", hour, err)
	}
	for _, repo := range known {
		if _, ok := due[repo.NodeID()]; !ok {
			due[repo.NodeID()] = repo
		}
	}

	ids := make([]string, 0, len(due))
	for id := range due {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	enqueued := 0
	for _, id := range ids {
		repo := due[id]
		msg := issue.RepoMessage{
			NodeID:          repo.NodeID(),
			FullName:        repo.FullName(),
			PrimaryLanguage: repo.PrimaryLanguage(),
			StargazerCount:  repo.StargazerCount(),
			Topics:          repo.Topics(),
		}
		if err := c.publisher.PublishRepo(ctx, msg); err != nil {
			c.logger.Error("repo publish failed",
				slog.String("repo", repo.FullName()),
				slog.String("error", err.Error()))
			continue
		}
		enqueued++
	}
	return len(discovered), enqueued, nil
}

// gather drains the repo topic with a bounded worker pool. A failed
// harvest stays unacked and redelivers; it never kills the pool.
func (c *Collector) gather(ctx context.Context) (int, int, error) {
	var mu sync.Mutex
	harvested, staged := 0, 0

	for {
		deliveries, err := c.consumer.Pull(ctx, c.batchSize)
		if err != nil {
			return harvested, staged, fmt.Errorf("pull repo topic: %w", err)
		}
		if len(deliveries) == 0 {
			return harvested, staged, nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.github.GathererConcurrency())
		for _, delivery := range deliveries {
			g.Go(func() error {
				count, err := c.harvestOne(gctx, delivery)
				if err != nil {
					c.logger.Error("harvest failed",
						slog.String("repo", delivery.Message.FullName),
						slog.String("error", err.Error()))
					return nil
				}
				mu.Lock()
				harvested++
				staged += count
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return harvested, staged, err
		}
	}
}

// harvestOne gathers one repository's open issues, stages them and fans
// them out onto the issue topic. The delivery is acked only after staging
// succeeds; the at-broker content-hash dedup keeps redelivery idempotent.
func (c *Collector) harvestOne(ctx context.Context, delivery issue.RepoDelivery) (int, error) {
	msg := delivery.Message
	repo := issue.NewRepository(msg.NodeID, msg.FullName, msg.PrimaryLanguage, msg.Topics, msg.StargazerCount)

	issues, errs := c.forge.HarvestIssues(ctx, repo, c.github.MaxIssuesPerRepo())
	batch := make([]issue.PendingIssue, 0, c.github.MaxIssuesPerRepo())
	for pending := range issues {
		batch = append(batch, pending)
	}
	if err := <-errs; err != nil {
		return 0, fmt.Errorf("harvest %s: %w", msg.FullName, err)
	}

	if len(batch) > 0 {
		if err := c.staging.Stage(ctx, batch); err != nil {
			return 0, fmt.Errorf("stage %s: %w", msg.FullName, err)
		}
		for _, pending := range batch {
			if err := c.publisher.PublishIssue(ctx, issue.NewIssueMessage(pending)); err != nil {
				return len(batch), fmt.Errorf("publish issues for %s: %w", msg.FullName, err)
			}
		}
	}

	if err := c.repos.MarkScraped(ctx, msg.NodeID, time.Now().UTC()); err != nil {
		c.logger.Warn("mark scraped failed",
			slog.String("repo", msg.FullName),
			slog.String("error", err.Error()))
	}
	if err := c.consumer.Ack(ctx, delivery.ID); err != nil {
		return len(batch), fmt.Errorf("ack %s: %w", msg.FullName, err)
	}
	return len(batch), nil
}
