// Package config provides application configuration.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g. EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DBURL is the database connection URL.
	// Env: DB_URL (default: sqlite:///gim.db)
	DBURL string `envconfig:"DB_URL"`

	// RedisURL is the Redis connection URL serving the broker, cache,
	// event queue and rate limiter.
	// Env: REDIS_URL (default: redis://localhost:6379/0)
	RedisURL string `envconfig:"REDIS_URL"`

	// Environment selects development or production behavior.
	// Env: ENVIRONMENT (default: development)
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of valid API keys.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// CORSOrigins is a comma-separated list of allowed origins.
	// Env: CORS_ORIGINS
	CORSOrigins string `envconfig:"CORS_ORIGINS"`

	// JobType selects the background job for a worker process.
	// Env: JOB_TYPE (collector, embedder, janitor, reco_flush)
	JobType string `envconfig:"JOB_TYPE"`

	// HTTPCacheDir is the directory for caching embedding HTTP responses.
	// Env: HTTP_CACHE_DIR
	HTTPCacheDir string `envconfig:"HTTP_CACHE_DIR"`

	// GitHub configures the repository scout and issue gatherer.
	GitHub GitHubEnv `envconfig:"GITHUB"`

	// EmbeddingEndpoint configures the embedding service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// Broker configures the stream broker and publisher bounds.
	Broker BrokerEnv `envconfig:"BROKER"`

	// Reco configures recommendation event capture and flushing.
	Reco RecoEnv `envconfig:"RECO"`

	// Janitor configures the pruning job.
	Janitor JanitorEnv `envconfig:"JANITOR"`

	// RateLimit configures the token-bucket limiter.
	RateLimit RateLimitEnv `envconfig:"RATE_LIMIT"`

	// Search configures search-side cache lifetimes.
	Search SearchEnv `envconfig:"SEARCH"`
}

// GitHubEnv holds environment configuration for the scout and gatherer.
type GitHubEnv struct {
	// Token authenticates GitHub API calls.
	// Env: GITHUB_TOKEN
	Token string `envconfig:"TOKEN"`

	// MinStars is the popularity floor for scouted repositories.
	// Env: GITHUB_MIN_STARS (default: 200)
	MinStars int `envconfig:"MIN_STARS" default:"200"`

	// MaxRepos bounds repositories discovered per scout run.
	// Env: GITHUB_MAX_REPOS (default: 500)
	MaxRepos int `envconfig:"MAX_REPOS" default:"500"`

	// MaxIssuesPerRepo caps issues harvested per repository.
	// Env: GITHUB_MAX_ISSUES_PER_REPO (default: 100)
	MaxIssuesPerRepo int `envconfig:"MAX_ISSUES_PER_REPO" default:"100"`

	// GathererConcurrency bounds concurrent per-repository harvests.
	// Env: GITHUB_GATHERER_CONCURRENCY (default: 10)
	GathererConcurrency int `envconfig:"GATHERER_CONCURRENCY" default:"10"`
}

// EndpointEnv holds environment configuration for the embedding endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: EMBEDDING_ENDPOINT_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier.
	// Env: EMBEDDING_ENDPOINT_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: EMBEDDING_ENDPOINT_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: EMBEDDING_ENDPOINT_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: EMBEDDING_ENDPOINT_MAX_RETRIES (default: 3)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"3"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: EMBEDDING_ENDPOINT_INITIAL_DELAY (default: 1.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"1.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: EMBEDDING_ENDPOINT_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// MaxBatchSize is the maximum number of texts per request.
	// Env: EMBEDDING_ENDPOINT_MAX_BATCH_SIZE (default: 64)
	MaxBatchSize int `envconfig:"MAX_BATCH_SIZE" default:"64"`
}

// BrokerEnv holds environment configuration for the stream broker.
type BrokerEnv struct {
	// Group is the consumer group name.
	// Env: BROKER_GROUP (default: gim-workers)
	Group string `envconfig:"GROUP" default:"gim-workers"`

	// BatchSize is the per-pull message batch size.
	// Env: BROKER_BATCH_SIZE (default: 32)
	BatchSize int `envconfig:"BATCH_SIZE" default:"32"`

	// MaxDeliveries is the delivery count after which a message dead-letters.
	// Env: BROKER_MAX_DELIVERIES (default: 5)
	MaxDeliveries int `envconfig:"MAX_DELIVERIES" default:"5"`

	// BlockSeconds is how long a pull blocks waiting for messages.
	// Env: BROKER_BLOCK_SECONDS (default: 5)
	BlockSeconds float64 `envconfig:"BLOCK_SECONDS" default:"5"`

	// PublishTimeoutSeconds is the per-publish deadline.
	// Env: BROKER_PUBLISH_TIMEOUT_SECONDS (default: 10)
	PublishTimeoutSeconds float64 `envconfig:"PUBLISH_TIMEOUT_SECONDS" default:"10"`

	// PublishMaxInflight bounds concurrently outstanding publishes.
	// Env: BROKER_PUBLISH_MAX_INFLIGHT (default: 1000)
	PublishMaxInflight int `envconfig:"PUBLISH_MAX_INFLIGHT" default:"1000"`
}

// RecoEnv holds environment configuration for the event pipeline.
type RecoEnv struct {
	// DedupTTLSeconds is the event-id dedup key lifetime.
	// Env: RECO_DEDUP_TTL_SECONDS (default: 86400)
	DedupTTLSeconds float64 `envconfig:"DEDUP_TTL_SECONDS" default:"86400"`

	// FlushBatchSize is the per-loop pop size of the flush job.
	// Env: RECO_FLUSH_BATCH_SIZE (default: 500)
	FlushBatchSize int `envconfig:"FLUSH_BATCH_SIZE" default:"500"`

	// FlushMaxSeconds is the flush job's time budget.
	// Env: RECO_FLUSH_MAX_SECONDS (default: 45)
	FlushMaxSeconds float64 `envconfig:"FLUSH_MAX_SECONDS" default:"45"`
}

// JanitorEnv holds environment configuration for the janitor.
type JanitorEnv struct {
	// MinIssues is the row count below which pruning is skipped.
	// Env: JANITOR_MIN_ISSUES (default: 500)
	MinIssues int `envconfig:"MIN_ISSUES" default:"500"`

	// StagingMaxAgeHours is the sweep age for completed staging rows.
	// Env: JANITOR_STAGING_MAX_AGE_HOURS (default: 48)
	StagingMaxAgeHours float64 `envconfig:"STAGING_MAX_AGE_HOURS" default:"48"`
}

// RateLimitEnv holds environment configuration for the limiter.
type RateLimitEnv struct {
	// PerMinute is the sustained request budget per key.
	// Env: RATE_LIMIT_PER_MINUTE (default: 120)
	PerMinute int `envconfig:"PER_MINUTE" default:"120"`

	// Burst is the bucket capacity above the sustained rate.
	// Env: RATE_LIMIT_BURST (default: 20)
	Burst int `envconfig:"BURST" default:"20"`
}

// SearchEnv holds environment configuration for search-side caches.
type SearchEnv struct {
	// CacheTTLSeconds is the stage-1 candidate cache lifetime.
	// Env: SEARCH_CACHE_TTL_SECONDS (default: 300)
	CacheTTLSeconds float64 `envconfig:"CACHE_TTL_SECONDS" default:"300"`

	// ContextTTLSeconds is the search/batch context lifetime.
	// Env: SEARCH_CONTEXT_TTL_SECONDS (default: 1800)
	ContextTTLSeconds float64 `envconfig:"CONTEXT_TTL_SECONDS" default:"1800"`

	// StatsTTLSeconds is the platform stats cache lifetime.
	// Env: SEARCH_STATS_TTL_SECONDS (default: 3600)
	StatsTTLSeconds float64 `envconfig:"STATS_TTL_SECONDS" default:"3600"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "GIM" would require GIM_DB_URL instead of DB_URL.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// Normalize trims whitespace from string-valued fields.
func (e EnvConfig) Normalize() EnvConfig {
	e.Host = strings.TrimSpace(e.Host)
	e.DBURL = strings.TrimSpace(e.DBURL)
	e.RedisURL = strings.TrimSpace(e.RedisURL)
	e.Environment = strings.TrimSpace(strings.ToLower(e.Environment))
	e.LogLevel = strings.TrimSpace(e.LogLevel)
	e.LogFormat = strings.TrimSpace(e.LogFormat)
	e.JobType = strings.TrimSpace(e.JobType)
	e.GitHub.Token = strings.TrimSpace(e.GitHub.Token)
	return e
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = cfg.Apply(WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = cfg.Apply(WithPort(e.Port))
	}
	if e.DBURL != "" {
		cfg = cfg.Apply(WithDBURL(e.DBURL))
	}
	if e.RedisURL != "" {
		cfg = cfg.Apply(WithRedisURL(e.RedisURL))
	}
	if e.Environment == string(EnvProduction) {
		cfg = cfg.Apply(WithEnvironment(EnvProduction))
	}
	if e.LogLevel != "" {
		cfg = cfg.Apply(WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = cfg.Apply(WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.APIKeys != "" {
		cfg = cfg.Apply(WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}
	if e.CORSOrigins != "" {
		cfg = cfg.Apply(WithCORSOrigins(ParseOrigins(e.CORSOrigins)))
	}
	if e.JobType != "" {
		if jt, err := ParseJobType(e.JobType); err == nil {
			cfg = cfg.Apply(WithJobType(jt))
		}
	}
	if e.HTTPCacheDir != "" {
		cfg = cfg.Apply(WithHTTPCacheDir(e.HTTPCacheDir))
	}

	cfg = cfg.Apply(WithGitHubConfig(e.GitHub.ToGitHubConfig()))

	if e.EmbeddingEndpoint.IsConfigured() {
		cfg = cfg.Apply(WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}

	cfg = cfg.Apply(
		WithBrokerConfig(e.Broker.ToBrokerConfig()),
		WithEventsConfig(e.Reco.ToEventsConfig()),
		WithJanitorConfig(e.Janitor.ToJanitorConfig()),
		WithRateLimitConfig(e.RateLimit.ToRateLimitConfig()),
		WithSearchCacheTTL(secondsToDuration(e.Search.CacheTTLSeconds)),
		WithContextTTL(secondsToDuration(e.Search.ContextTTLSeconds)),
		WithStatsCacheTTL(secondsToDuration(e.Search.StatsTTLSeconds)),
	)

	return cfg
}

// ToGitHubConfig converts GitHubEnv to GitHubConfig.
func (g GitHubEnv) ToGitHubConfig() GitHubConfig {
	cfg := NewGitHubConfig().
		WithToken(g.Token).
		WithGathererConcurrency(g.GathererConcurrency)
	if g.MinStars > 0 {
		cfg = cfg.WithMinStars(g.MinStars)
	}
	if g.MaxRepos > 0 {
		cfg = cfg.WithMaxRepos(g.MaxRepos)
	}
	if g.MaxIssuesPerRepo > 0 {
		cfg = cfg.WithMaxIssuesPerRepo(g.MaxIssuesPerRepo)
	}
	return cfg
}

// IsConfigured returns true if the endpoint has a model configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithTimeout(secondsToDuration(e.Timeout)),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(secondsToDuration(e.InitialDelay)),
		WithBackoffFactor(e.BackoffFactor),
		WithMaxBatchSize(e.MaxBatchSize),
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}
	return NewEndpointWithOptions(opts...)
}

// ToBrokerConfig converts BrokerEnv to BrokerConfig.
func (b BrokerEnv) ToBrokerConfig() BrokerConfig {
	return NewBrokerConfig().
		WithGroup(b.Group).
		WithBatchSize(b.BatchSize).
		WithMaxDeliveries(b.MaxDeliveries).
		WithBlockTimeout(secondsToDuration(b.BlockSeconds)).
		WithPublishTimeout(secondsToDuration(b.PublishTimeoutSeconds)).
		WithMaxInflight(b.PublishMaxInflight)
}

// ToEventsConfig converts RecoEnv to EventsConfig.
func (r RecoEnv) ToEventsConfig() EventsConfig {
	return NewEventsConfig().
		WithDedupTTL(secondsToDuration(r.DedupTTLSeconds)).
		WithFlushBatchSize(r.FlushBatchSize).
		WithFlushMax(secondsToDuration(r.FlushMaxSeconds))
}

// ToJanitorConfig converts JanitorEnv to JanitorConfig.
func (j JanitorEnv) ToJanitorConfig() JanitorConfig {
	return NewJanitorConfig().
		WithMinIssues(j.MinIssues).
		WithStagingMaxAge(time.Duration(j.StagingMaxAgeHours * float64(time.Hour)))
}

// ToRateLimitConfig converts RateLimitEnv to RateLimitConfig.
func (r RateLimitEnv) ToRateLimitConfig() RateLimitConfig {
	return NewRateLimitConfig().
		WithPerMinute(r.PerMinute).
		WithBurst(r.Burst)
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
