package gim

import (
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gimlabs/gim/domain/task"
	"github.com/gimlabs/gim/infrastructure/provider"
	"github.com/gimlabs/gim/internal/config"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	dbURL    string
	redisURL string
	redis    redis.UniversalClient

	embeddingProvider  provider.Embedder
	openAI             *provider.OpenAIConfig
	embeddingBatchSize int

	github    config.GitHubConfig
	broker    config.BrokerConfig
	events    config.EventsConfig
	janitor   config.JanitorConfig
	rateLimit config.RateLimitConfig

	searchCacheTTL time.Duration
	contextTTL     time.Duration
	statsCacheTTL  time.Duration

	logger           *slog.Logger
	apiKeys          []string
	consumerName     string
	workerPollPeriod time.Duration

	schedulerInterval time.Duration
	schedulerOps      []task.Operation

	closers []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
// This ensures all defaults come from the single source of truth.
func newClientConfig() *clientConfig {
	return &clientConfig{
		github:         config.NewGitHubConfig(),
		broker:         config.NewBrokerConfig(),
		events:         config.NewEventsConfig(),
		janitor:        config.NewJanitorConfig(),
		rateLimit:      config.NewRateLimitConfig(),
		searchCacheTTL: config.DefaultSearchCacheTTL,
		contextTTL:     config.DefaultContextTTL,
		statsCacheTTL:  config.DefaultStatsCacheTTL,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithDatabaseURL configures the database from a URL. Supported schemes
// are sqlite:// and postgres://.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.dbURL = url
	}
}

// WithSQLite configures SQLite as the database. Lexical search uses FTS5
// and vector search scans JSON-encoded embeddings.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.dbURL = "sqlite:///" + path
	}
}

// WithPostgres configures PostgreSQL as the database. Lexical search uses
// tsvector and vector search uses the pgvector extension.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.dbURL = dsn
	}
}

// WithRedisURL configures the Redis connection from a URL. Redis backs
// the candidate cache, the served-context stores, the event queue, rate
// limiting and the ingestion streams.
func WithRedisURL(url string) Option {
	return func(c *clientConfig) {
		c.redisURL = url
	}
}

// WithRedis uses an existing Redis client instead of dialing a URL.
// The caller keeps ownership; Close does not close it.
func WithRedis(rdb redis.UniversalClient) Option {
	return func(c *clientConfig) {
		c.redis = rdb
	}
}

// WithOpenAIEmbedding configures an OpenAI-compatible embedding endpoint.
func WithOpenAIEmbedding(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		c.openAI = &cfg
	}
}

// WithEmbeddingProvider sets a custom embedding provider. It takes
// precedence over WithOpenAIEmbedding.
func WithEmbeddingProvider(p provider.Embedder) Option {
	return func(c *clientConfig) {
		c.embeddingProvider = p
	}
}

// WithEmbeddingBatchSize caps how many texts go into one upstream
// embedding call. Values <= 0 fall back to the endpoint default.
func WithEmbeddingBatchSize(n int) Option {
	return func(c *clientConfig) {
		c.embeddingBatchSize = n
	}
}

// WithGitHubConfig sets the repository scout and issue gatherer limits.
func WithGitHubConfig(cfg config.GitHubConfig) Option {
	return func(c *clientConfig) {
		c.github = cfg
	}
}

// WithBrokerConfig sets the stream consumer and publisher bounds.
func WithBrokerConfig(cfg config.BrokerConfig) Option {
	return func(c *clientConfig) {
		c.broker = cfg
	}
}

// WithEventsConfig sets the event dedup TTL and flush bounds.
func WithEventsConfig(cfg config.EventsConfig) Option {
	return func(c *clientConfig) {
		c.events = cfg
	}
}

// WithJanitorConfig sets the pruning floor and staging sweep age.
func WithJanitorConfig(cfg config.JanitorConfig) Option {
	return func(c *clientConfig) {
		c.janitor = cfg
	}
}

// WithRateLimit sets the per-key request budget enforced at the HTTP
// boundary.
func WithRateLimit(cfg config.RateLimitConfig) Option {
	return func(c *clientConfig) {
		c.rateLimit = cfg
	}
}

// WithSearchCacheTTL sets how long fused candidate lists stay cached.
func WithSearchCacheTTL(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.searchCacheTTL = d
		}
	}
}

// WithContextTTL sets how long served search and feed contexts stay
// verifiable for interaction and event reporting.
func WithContextTTL(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.contextTTL = d
		}
	}
}

// WithStatsCacheTTL sets how long the platform stats snapshot stays cached.
func WithStatsCacheTTL(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.statsCacheTTL = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithAPIKeys sets the API keys for HTTP API authentication.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) {
		c.apiKeys = keys
	}
}

// WithConsumerName names this process in the broker consumer groups.
// Defaults to hostname-pid so replicas shard deliveries.
func WithConsumerName(name string) Option {
	return func(c *clientConfig) {
		c.consumerName = name
	}
}

// WithWorkerPollPeriod sets how often the background worker checks for new
// tasks. Defaults to 1 second. Tests lower this to keep queue round trips
// fast.
func WithWorkerPollPeriod(d time.Duration) Option {
	return func(c *clientConfig) {
		c.workerPollPeriod = d
	}
}

// WithScheduler enqueues the given operations every interval. Without
// this option the client processes tasks but never self-schedules, which
// is what the API process wants; worker processes pass the operations
// their role owns.
func WithScheduler(interval time.Duration, ops ...task.Operation) Option {
	return func(c *clientConfig) {
		c.schedulerInterval = interval
		c.schedulerOps = ops
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(closer io.Closer) Option {
	return func(cfg *clientConfig) {
		cfg.closers = append(cfg.closers, closer)
	}
}
