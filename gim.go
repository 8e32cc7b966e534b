// Package gim provides a library for GitHub issue discovery, hybrid
// search, and personalized recommendation feeds.
//
// Gim ingests open issues from popular repositories through a Redis
// stream pipeline, embeds them for similarity search, and serves hybrid
// (lexical + vector) search, a personalized feed, and a recommendation
// event pipeline on top of the corpus.
//
// Basic usage:
//
//	client, err := gim.New(
//	    gim.WithSQLite(".gim/data.db"),
//	    gim.WithRedisURL("redis://localhost:6379/0"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Hybrid search
//	page, err := client.Search.Query(ctx, search.NewQuery("memory leak in websocket server", search.NewFilters()))
//
//	// Personalized feed
//	feed, err := client.Feed.ForUser(ctx, "user-123", 1, 20)
//
//	// Iterate results
//	for _, item := range page.Items() {
//	    fmt.Println(item.NodeID(), item.Title())
//	}
package gim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gimlabs/gim/application/service"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/domain/vector"
	"github.com/gimlabs/gim/infrastructure/broker"
	"github.com/gimlabs/gim/infrastructure/cache"
	"github.com/gimlabs/gim/infrastructure/github"
	"github.com/gimlabs/gim/infrastructure/persistence"
	"github.com/gimlabs/gim/infrastructure/provider"
	infrasearch "github.com/gimlabs/gim/infrastructure/search"
	"github.com/gimlabs/gim/internal/database"
)

// Client is the main entry point for the gim library.
// The background task worker starts automatically on creation.
//
// Access resources via struct fields:
//
//	client.Feed.ForUser(ctx, userID, 1, 20)
//	client.Search.Query(ctx, query)
//	client.Events.Submit(ctx, userID, batchID, events)
type Client struct {
	// Public resource fields (direct service access)
	Feed     *service.Feed
	Search   *service.Search
	Issues   *service.Issues
	Repos    *service.Repos
	Stats    *service.Stats
	Events   *service.Events
	Profiles *service.Profile
	Tasks    *service.Queue

	db      database.Database
	cache   *cache.Client
	streams *broker.Streams

	// ownsRedis records whether Close tears down the Redis connections.
	// False when the caller supplied its own client via WithRedis.
	ownsRedis bool

	embedding *service.Embedding
	limiter   *cache.RateLimiter

	// Pipeline services driven by worker processes
	collector *service.Collector
	embedder  *service.Embedder
	flush     *service.Flush
	janitor   *service.Janitor

	// Task plumbing (internal only)
	queue     *service.Queue
	worker    *service.Worker
	scheduler *service.Scheduler
	registry  *service.Registry

	closers []io.Closer

	logger  *slog.Logger
	apiKeys []string
	closed  atomic.Bool
	mu      sync.Mutex
}

// New creates a new Client with the given options.
// The background task worker is started automatically; the scheduler only
// runs when WithScheduler is given.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dbURL == "" {
		return nil, ErrNoDatabase
	}
	if cfg.redisURL == "" && cfg.redis == nil {
		return nil, ErrNoRedis
	}

	// Set up logger
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Open database
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, cfg.dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Run auto migration
	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	// Connect Redis: the cache and the broker share the connection when
	// the caller supplies one, otherwise each dials the configured URL.
	ownsRedis := cfg.redis == nil
	var cacheClient *cache.Client
	var streams *broker.Streams
	if cfg.redis != nil {
		cacheClient = cache.NewFromRedis(cfg.redis)
		streams = broker.NewFromRedis(cfg.redis, logger)
	} else {
		cacheClient, err = cache.New(ctx, cfg.redisURL)
		if err != nil {
			errClose := db.Close()
			return nil, errors.Join(fmt.Errorf("connect redis: %w", err), errClose)
		}
		streams, err = broker.New(ctx, cfg.redisURL, logger)
		if err != nil {
			errClose := errors.Join(cacheClient.Close(), db.Close())
			return nil, errors.Join(fmt.Errorf("connect broker: %w", err), errClose)
		}
	}

	closeAll := func() error {
		errs := []error{db.Close()}
		if ownsRedis {
			errs = append(errs, cacheClient.Close(), streams.Close())
		}
		return errors.Join(errs...)
	}

	// Create stores
	issueStore := persistence.NewIssueStore(db)
	repoStore := persistence.NewRepoStore(db)
	pendingStore := persistence.NewPendingStore(db)
	eventStore := persistence.NewEventStore(db)
	interactionStore := persistence.NewInteractionStore(db)
	profileStore := persistence.NewProfileStore(db)
	taskStore := persistence.NewTaskStore(db)

	itemStore := infrasearch.NewItemStore(db)
	feedStore := infrasearch.NewFeedStore(db, logger)

	// Lexical and vector subqueries follow the dialect.
	var lexicalStore search.LexicalStore
	var vectorStore search.VectorStore
	if db.IsPostgres() {
		lexicalStore = infrasearch.NewPostgresLexicalStore(db, logger)
		vectorStore = infrasearch.NewPgvectorStore(db, logger)
	} else {
		lexicalStore = infrasearch.NewSQLiteLexicalStore(db, logger)
		vectorStore = infrasearch.NewSQLiteVectorStore(db, logger)
	}

	// Cache-backed stores
	candidateCache := cache.NewCandidateCache(cacheClient, cfg.searchCacheTTL)
	searchContexts := cache.NewSearchContextStore(cacheClient, cfg.contextTTL)
	batchContexts := cache.NewBatchContextStore(cacheClient, cfg.contextTTL)
	deduper := cache.NewDeduper(cacheClient, cfg.events.DedupTTL())
	eventQueue := cache.NewEventQueue(cacheClient)
	statsCache := cache.NewStatsCache(cacheClient, cfg.statsCacheTTL)
	limiter := cache.NewRateLimiter(cacheClient, cfg.rateLimit.PerMinute(), cfg.rateLimit.Burst(), logger)

	// Embedding service: custom provider wins, then an OpenAI-compatible
	// endpoint, then the deterministic local provider. The factory is
	// lazy, so a process that never embeds never dials upstream.
	factory := embeddingFactory(cfg)
	embedding := service.NewEmbedding(factory, cfg.embeddingBatchSize, logger)

	// Broker plumbing
	consumerName := cfg.consumerName
	if consumerName == "" {
		consumerName = defaultConsumerName()
	}
	repoConsumer, err := broker.NewRepoConsumer(ctx, streams, cfg.broker, consumerName)
	if err != nil {
		errClose := closeAll()
		return nil, errors.Join(fmt.Errorf("repo consumer: %w", err), errClose)
	}
	issueConsumer, err := broker.NewIssueConsumer(ctx, streams, cfg.broker, consumerName)
	if err != nil {
		errClose := closeAll()
		return nil, errors.Join(fmt.Errorf("issue consumer: %w", err), errClose)
	}
	publisher := broker.NewPublisher(streams, cfg.broker.MaxInflight(), cfg.broker.PublishTimeout(), logger)

	forge := github.New(cfg.github.Token(), logger)

	// Create application services
	registry := service.NewRegistry()
	queue := service.NewQueue(taskStore, logger)
	worker := service.NewWorker(taskStore, registry, logger)
	if cfg.workerPollPeriod > 0 {
		worker.WithPollPeriod(cfg.workerPollPeriod)
	}

	client := &Client{
		db:        db,
		cache:     cacheClient,
		streams:   streams,
		ownsRedis: ownsRedis,
		embedding: embedding,
		limiter:   limiter,
		queue:     queue,
		worker:    worker,
		registry:  registry,
		closers:   cfg.closers,
		logger:    logger,
		apiKeys:   cfg.apiKeys,
	}

	// Initialize service fields directly
	client.Feed = service.NewFeed(profileStore, feedStore, batchContexts, &client.closed, logger)
	client.Search = service.NewSearch(lexicalStore, vectorStore, itemStore, embedding, candidateCache, searchContexts, interactionStore, &client.closed, logger)
	client.Issues = service.NewIssues(issueStore, itemStore, vectorStore, &client.closed, logger)
	client.Repos = service.NewRepos(repoStore, &client.closed, logger)
	client.Stats = service.NewStats(issueStore, repoStore, statsCache, &client.closed, logger)
	client.Events = service.NewEvents(batchContexts, deduper, eventQueue, &client.closed, logger)
	client.Profiles = service.NewProfile(profileStore, embedding, logger)
	client.Tasks = queue

	// Pipeline services
	client.collector = service.NewCollector(forge, repoStore, pendingStore, publisher, repoConsumer, cfg.github, cfg.broker, logger)
	client.embedder = service.NewEmbedder(issueConsumer, issueStore, pendingStore, embedding, cfg.broker, logger)
	client.flush = service.NewFlush(eventQueue, eventStore, cfg.events, logger)
	client.janitor = service.NewJanitor(issueStore, pendingStore, cfg.janitor, logger)

	// Register task handlers
	client.registerHandlers()

	// Start the background worker
	worker.Start(ctx)

	// Self-scheduling is opt-in: API processes only consume tasks,
	// worker processes enqueue the operations their role owns.
	if cfg.schedulerInterval > 0 {
		client.scheduler = service.NewScheduler(queue, cfg.schedulerInterval, logger, cfg.schedulerOps...)
		client.scheduler.Start(ctx)
	}

	return client, nil
}

// Close releases all resources and stops the background worker.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Stop the scheduler, the embedder loop, and the worker
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
	c.embedder.Stop()
	c.worker.Stop()

	// Release the embedding provider
	if err := c.embedding.Close(); err != nil && !errors.Is(err, ErrClientClosed) {
		c.logger.Error("failed to close embedding service", slog.Any("error", err))
	}

	// Close registered resources (e.g. caching transports)
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	// Close the Redis connections unless the caller owns them
	if c.ownsRedis {
		if err := c.cache.Close(); err != nil {
			c.logger.Error("failed to close cache", slog.Any("error", err))
		}
		if err := c.streams.Close(); err != nil {
			c.logger.Error("failed to close broker", slog.Any("error", err))
		}
	}

	// Close the database
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("gim client closed")
	return nil
}

// RunCollector runs the ingestion pass every interval until the context
// is cancelled. Intended for the collector worker process.
func (c *Client) RunCollector(ctx context.Context, interval time.Duration) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.collector.Loop(ctx, interval)
}

// RunEmbedder consumes staged issues from the broker until the context is
// cancelled. Intended for the embedder worker process; run one per
// replica, the consumer group shards deliveries.
func (c *Client) RunEmbedder(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.embedder.Run(ctx)
}

// Healthy reports whether the embedding path yields a full-dimension
// vector. Readiness probes call this.
func (c *Client) Healthy(ctx context.Context) bool {
	if c.closed.Load() {
		return false
	}
	return c.embedding.Healthy(ctx)
}

// WorkerIdle reports whether the task queue has no pending work.
func (c *Client) WorkerIdle(ctx context.Context) bool {
	n, err := c.queue.Count(ctx)
	return err == nil && n == 0
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// APIKeys returns the keys accepted by the HTTP boundary.
func (c *Client) APIKeys() []string {
	return c.apiKeys
}

// Limiter returns the cache-backed request limiter for the HTTP boundary.
func (c *Client) Limiter() *cache.RateLimiter {
	return c.limiter
}

// embeddingFactory picks the provider for the embedding service. A custom
// provider wins, then an OpenAI-compatible endpoint, then the local
// hash-based provider that needs no upstream at all.
func embeddingFactory(cfg *clientConfig) service.ProviderFactory {
	switch {
	case cfg.embeddingProvider != nil:
		p := cfg.embeddingProvider
		return func() (provider.Embedder, error) { return p, nil }
	case cfg.openAI != nil:
		oc := *cfg.openAI
		return func() (provider.Embedder, error) {
			return provider.NewOpenAIProviderFromConfig(oc), nil
		}
	default:
		return func() (provider.Embedder, error) {
			return provider.NewLocalProvider(vector.Dim), nil
		}
	}
}

// defaultConsumerName identifies this process in the broker consumer
// groups so replicas shard deliveries instead of duplicating them.
func defaultConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "gim"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
