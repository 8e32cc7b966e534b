// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost     = "0.0.0.0"
	DefaultPort     = 8080
	DefaultLogLevel = "INFO"

	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 3
	DefaultEndpointInitialDelay  = 1 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultEndpointMaxBatchSize  = 64

	DefaultScoutMinStars        = 200
	DefaultScoutMaxRepos        = 500
	DefaultMaxIssuesPerRepo     = 100
	DefaultGathererConcurrency  = 10
	DefaultPublishMaxInflight   = 1000
	DefaultPublishTimeout       = 10 * time.Second
	DefaultBrokerGroup          = "gim-workers"
	DefaultBrokerBatchSize      = 32
	DefaultBrokerMaxDeliveries  = 5
	DefaultBrokerBlockTimeout   = 5 * time.Second
	DefaultJanitorMinIssues     = 500
	DefaultStagingMaxAge        = 48 * time.Hour
	DefaultEventDedupTTL        = 24 * time.Hour
	DefaultFlushBatchSize       = 500
	DefaultFlushMaxSeconds      = 45
	DefaultSearchCacheTTL       = 5 * time.Minute
	DefaultContextTTL           = 30 * time.Minute
	DefaultStatsCacheTTL        = time.Hour
	DefaultRateLimitPerMinute   = 120
	DefaultRateLimitBurst       = 20
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Environment distinguishes development from production deployments.
type Environment string

// Environment values.
const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// JobType selects which background job a worker process runs.
type JobType string

// JobType values.
const (
	JobCollector JobType = "collector"
	JobEmbedder  JobType = "embedder"
	JobJanitor   JobType = "janitor"
	JobRecoFlush JobType = "reco_flush"
)

// ParseJobType validates a job type string.
func ParseJobType(s string) (JobType, error) {
	switch JobType(strings.ToLower(strings.TrimSpace(s))) {
	case JobCollector:
		return JobCollector, nil
	case JobEmbedder:
		return JobEmbedder, nil
	case JobJanitor:
		return JobJanitor, nil
	case JobRecoFlush:
		return JobRecoFlush, nil
	default:
		return "", fmt.Errorf("unknown job type %q (want collector, embedder, janitor or reco_flush)", s)
	}
}

// Endpoint configures the embedding service endpoint.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	maxBatchSize  int
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
		maxBatchSize:  DefaultEndpointMaxBatchSize,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// MaxBatchSize returns the maximum number of texts per embedding request.
func (e Endpoint) MaxBatchSize() int { return e.maxBatchSize }

// IsConfigured returns true if the endpoint has required configuration.
func (e Endpoint) IsConfigured() bool {
	return e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithMaxBatchSize sets the maximum number of texts per embedding request.
func WithMaxBatchSize(n int) EndpointOption {
	return func(e *Endpoint) { e.maxBatchSize = n }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// GitHubConfig configures the repository scout and issue gatherer.
type GitHubConfig struct {
	token               string
	minStars            int
	maxRepos            int
	maxIssuesPerRepo    int
	gathererConcurrency int
}

// NewGitHubConfig creates a new GitHubConfig with defaults.
func NewGitHubConfig() GitHubConfig {
	return GitHubConfig{
		minStars:            DefaultScoutMinStars,
		maxRepos:            DefaultScoutMaxRepos,
		maxIssuesPerRepo:    DefaultMaxIssuesPerRepo,
		gathererConcurrency: DefaultGathererConcurrency,
	}
}

// Token returns the GitHub API token.
func (g GitHubConfig) Token() string { return g.token }

// MinStars returns the popularity floor for scouted repositories.
func (g GitHubConfig) MinStars() int { return g.minStars }

// MaxRepos returns the per-run bound on scouted repositories.
func (g GitHubConfig) MaxRepos() int { return g.maxRepos }

// MaxIssuesPerRepo returns the per-repository harvest cap.
func (g GitHubConfig) MaxIssuesPerRepo() int { return g.maxIssuesPerRepo }

// GathererConcurrency returns the cross-repository fan-out bound.
func (g GitHubConfig) GathererConcurrency() int { return g.gathererConcurrency }

// WithToken returns a new config with the specified token.
func (g GitHubConfig) WithToken(token string) GitHubConfig {
	g.token = token
	return g
}

// WithMinStars returns a new config with the specified star floor.
func (g GitHubConfig) WithMinStars(n int) GitHubConfig {
	g.minStars = n
	return g
}

// WithMaxRepos returns a new config with the specified repo bound.
func (g GitHubConfig) WithMaxRepos(n int) GitHubConfig {
	g.maxRepos = n
	return g
}

// WithMaxIssuesPerRepo returns a new config with the specified harvest cap.
func (g GitHubConfig) WithMaxIssuesPerRepo(n int) GitHubConfig {
	g.maxIssuesPerRepo = n
	return g
}

// WithGathererConcurrency returns a new config with the specified bound.
func (g GitHubConfig) WithGathererConcurrency(n int) GitHubConfig {
	if n > 0 {
		g.gathererConcurrency = n
	}
	return g
}

// BrokerConfig configures the message broker topics and the publisher bounds.
type BrokerConfig struct {
	group          string
	batchSize      int
	maxDeliveries  int
	blockTimeout   time.Duration
	publishTimeout time.Duration
	maxInflight    int
}

// NewBrokerConfig creates a new BrokerConfig with defaults.
func NewBrokerConfig() BrokerConfig {
	return BrokerConfig{
		group:          DefaultBrokerGroup,
		batchSize:      DefaultBrokerBatchSize,
		maxDeliveries:  DefaultBrokerMaxDeliveries,
		blockTimeout:   DefaultBrokerBlockTimeout,
		publishTimeout: DefaultPublishTimeout,
		maxInflight:    DefaultPublishMaxInflight,
	}
}

// Group returns the consumer group name.
func (b BrokerConfig) Group() string { return b.group }

// BatchSize returns the per-pull message batch size.
func (b BrokerConfig) BatchSize() int { return b.batchSize }

// MaxDeliveries returns the delivery count after which a message dead-letters.
func (b BrokerConfig) MaxDeliveries() int { return b.maxDeliveries }

// BlockTimeout returns how long a pull blocks waiting for messages.
func (b BrokerConfig) BlockTimeout() time.Duration { return b.blockTimeout }

// PublishTimeout returns the per-publish deadline.
func (b BrokerConfig) PublishTimeout() time.Duration { return b.publishTimeout }

// MaxInflight returns the bound on concurrently outstanding publishes.
func (b BrokerConfig) MaxInflight() int { return b.maxInflight }

// WithGroup returns a new config with the specified consumer group.
func (b BrokerConfig) WithGroup(group string) BrokerConfig {
	if group != "" {
		b.group = group
	}
	return b
}

// WithBatchSize returns a new config with the specified batch size.
func (b BrokerConfig) WithBatchSize(n int) BrokerConfig {
	if n > 0 {
		b.batchSize = n
	}
	return b
}

// WithMaxDeliveries returns a new config with the specified delivery bound.
func (b BrokerConfig) WithMaxDeliveries(n int) BrokerConfig {
	if n > 0 {
		b.maxDeliveries = n
	}
	return b
}

// WithBlockTimeout returns a new config with the specified block timeout.
func (b BrokerConfig) WithBlockTimeout(d time.Duration) BrokerConfig {
	if d > 0 {
		b.blockTimeout = d
	}
	return b
}

// WithPublishTimeout returns a new config with the specified publish deadline.
func (b BrokerConfig) WithPublishTimeout(d time.Duration) BrokerConfig {
	if d > 0 {
		b.publishTimeout = d
	}
	return b
}

// WithMaxInflight returns a new config with the specified inflight bound.
func (b BrokerConfig) WithMaxInflight(n int) BrokerConfig {
	if n > 0 {
		b.maxInflight = n
	}
	return b
}

// EventsConfig configures recommendation event capture and flushing.
type EventsConfig struct {
	dedupTTL       time.Duration
	flushBatchSize int
	flushMax       time.Duration
}

// NewEventsConfig creates a new EventsConfig with defaults.
func NewEventsConfig() EventsConfig {
	return EventsConfig{
		dedupTTL:       DefaultEventDedupTTL,
		flushBatchSize: DefaultFlushBatchSize,
		flushMax:       DefaultFlushMaxSeconds * time.Second,
	}
}

// DedupTTL returns the event-id dedup key lifetime.
func (e EventsConfig) DedupTTL() time.Duration { return e.dedupTTL }

// FlushBatchSize returns the per-loop pop size of the flush job.
func (e EventsConfig) FlushBatchSize() int { return e.flushBatchSize }

// FlushMax returns the flush job's time budget.
func (e EventsConfig) FlushMax() time.Duration { return e.flushMax }

// WithDedupTTL returns a new config with the specified dedup TTL.
func (e EventsConfig) WithDedupTTL(d time.Duration) EventsConfig {
	if d > 0 {
		e.dedupTTL = d
	}
	return e
}

// WithFlushBatchSize returns a new config with the specified pop size.
func (e EventsConfig) WithFlushBatchSize(n int) EventsConfig {
	if n > 0 {
		e.flushBatchSize = n
	}
	return e
}

// WithFlushMax returns a new config with the specified time budget.
func (e EventsConfig) WithFlushMax(d time.Duration) EventsConfig {
	if d > 0 {
		e.flushMax = d
	}
	return e
}

// JanitorConfig configures the issue pruning job.
type JanitorConfig struct {
	minIssues     int
	stagingMaxAge time.Duration
}

// NewJanitorConfig creates a new JanitorConfig with defaults.
func NewJanitorConfig() JanitorConfig {
	return JanitorConfig{
		minIssues:     DefaultJanitorMinIssues,
		stagingMaxAge: DefaultStagingMaxAge,
	}
}

// MinIssues returns the row count below which the janitor skips pruning.
func (j JanitorConfig) MinIssues() int { return j.minIssues }

// StagingMaxAge returns the age after which completed staging rows are swept.
func (j JanitorConfig) StagingMaxAge() time.Duration { return j.stagingMaxAge }

// WithMinIssues returns a new config with the specified floor.
func (j JanitorConfig) WithMinIssues(n int) JanitorConfig {
	if n > 0 {
		j.minIssues = n
	}
	return j
}

// WithStagingMaxAge returns a new config with the specified sweep age.
func (j JanitorConfig) WithStagingMaxAge(d time.Duration) JanitorConfig {
	if d > 0 {
		j.stagingMaxAge = d
	}
	return j
}

// RateLimitConfig configures the token-bucket request limiter.
type RateLimitConfig struct {
	perMinute int
	burst     int
}

// NewRateLimitConfig creates a new RateLimitConfig with defaults.
func NewRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		perMinute: DefaultRateLimitPerMinute,
		burst:     DefaultRateLimitBurst,
	}
}

// PerMinute returns the sustained request budget per key.
func (r RateLimitConfig) PerMinute() int { return r.perMinute }

// Burst returns the bucket capacity above the sustained rate.
func (r RateLimitConfig) Burst() int { return r.burst }

// WithPerMinute returns a new config with the specified rate.
func (r RateLimitConfig) WithPerMinute(n int) RateLimitConfig {
	if n > 0 {
		r.perMinute = n
	}
	return r
}

// WithBurst returns a new config with the specified burst capacity.
func (r RateLimitConfig) WithBurst(n int) RateLimitConfig {
	if n > 0 {
		r.burst = n
	}
	return r
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host              string
	port              int
	dbURL             string
	redisURL          string
	environment       Environment
	logLevel          string
	logFormat         LogFormat
	apiKeys           []string
	corsOrigins       []string
	jobType           JobType
	github            GitHubConfig
	embeddingEndpoint *Endpoint
	broker            BrokerConfig
	events            EventsConfig
	janitor           JanitorConfig
	rateLimit         RateLimitConfig
	searchCacheTTL    time.Duration
	contextTTL        time.Duration
	statsCacheTTL     time.Duration
	httpCacheDir      string
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:           DefaultHost,
		port:           DefaultPort,
		dbURL:          "sqlite:///gim.db",
		redisURL:       "redis://localhost:6379/0",
		environment:    EnvDevelopment,
		logLevel:       DefaultLogLevel,
		logFormat:      LogFormatPretty,
		apiKeys:        []string{},
		corsOrigins:    []string{},
		github:         NewGitHubConfig(),
		broker:         NewBrokerConfig(),
		events:         NewEventsConfig(),
		janitor:        NewJanitorConfig(),
		rateLimit:      NewRateLimitConfig(),
		searchCacheTTL: DefaultSearchCacheTTL,
		contextTTL:     DefaultContextTTL,
		statsCacheTTL:  DefaultStatsCacheTTL,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// RedisURL returns the Redis connection URL.
func (c AppConfig) RedisURL() string { return c.redisURL }

// Environment returns the deployment environment.
func (c AppConfig) Environment() Environment { return c.environment }

// IsProduction returns true when running in production.
func (c AppConfig) IsProduction() bool { return c.environment == EnvProduction }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// APIKeys returns the configured API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// CORSOrigins returns the allowed CORS origins.
func (c AppConfig) CORSOrigins() []string {
	origins := make([]string, len(c.corsOrigins))
	copy(origins, c.corsOrigins)
	return origins
}

// JobType returns the background job a worker process should run.
func (c AppConfig) JobType() JobType { return c.jobType }

// GitHub returns the scout/gather config.
func (c AppConfig) GitHub() GitHubConfig { return c.github }

// EmbeddingEndpoint returns the embedding endpoint config.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// Broker returns the broker config.
func (c AppConfig) Broker() BrokerConfig { return c.broker }

// Events returns the recommendation event config.
func (c AppConfig) Events() EventsConfig { return c.events }

// Janitor returns the janitor config.
func (c AppConfig) Janitor() JanitorConfig { return c.janitor }

// RateLimit returns the rate limiter config.
func (c AppConfig) RateLimit() RateLimitConfig { return c.rateLimit }

// SearchCacheTTL returns the stage-1 candidate cache lifetime.
func (c AppConfig) SearchCacheTTL() time.Duration { return c.searchCacheTTL }

// ContextTTL returns the search/batch context lifetime.
func (c AppConfig) ContextTTL() time.Duration { return c.contextTTL }

// StatsCacheTTL returns the platform stats cache lifetime.
func (c AppConfig) StatsCacheTTL() time.Duration { return c.statsCacheTTL }

// HTTPCacheDir returns the directory for caching embedding HTTP responses.
func (c AppConfig) HTTPCacheDir() string { return c.httpCacheDir }

// Validate checks startup-fatal misconfiguration.
// Wildcard CORS origins are rejected in production.
func (c AppConfig) Validate() error {
	if c.IsProduction() {
		for _, origin := range c.corsOrigins {
			if strings.TrimSpace(origin) == "*" {
				return fmt.Errorf("wildcard CORS origin is not allowed in production")
			}
		}
	}
	if c.port <= 0 || c.port > 65535 {
		return fmt.Errorf("invalid port %d", c.port)
	}
	return nil
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithRedisURL sets the Redis URL.
func WithRedisURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.redisURL = url }
}

// WithEnvironment sets the deployment environment.
func WithEnvironment(env Environment) AppConfigOption {
	return func(c *AppConfig) { c.environment = env }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsOrigins = make([]string, len(origins))
		copy(c.corsOrigins, origins)
	}
}

// WithJobType sets the worker job type.
func WithJobType(jt JobType) AppConfigOption {
	return func(c *AppConfig) { c.jobType = jt }
}

// WithGitHubConfig sets the scout/gather config.
func WithGitHubConfig(g GitHubConfig) AppConfigOption {
	return func(c *AppConfig) { c.github = g }
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithBrokerConfig sets the broker config.
func WithBrokerConfig(b BrokerConfig) AppConfigOption {
	return func(c *AppConfig) { c.broker = b }
}

// WithEventsConfig sets the recommendation event config.
func WithEventsConfig(e EventsConfig) AppConfigOption {
	return func(c *AppConfig) { c.events = e }
}

// WithJanitorConfig sets the janitor config.
func WithJanitorConfig(j JanitorConfig) AppConfigOption {
	return func(c *AppConfig) { c.janitor = j }
}

// WithRateLimitConfig sets the rate limiter config.
func WithRateLimitConfig(r RateLimitConfig) AppConfigOption {
	return func(c *AppConfig) { c.rateLimit = r }
}

// WithSearchCacheTTL sets the stage-1 candidate cache lifetime.
func WithSearchCacheTTL(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.searchCacheTTL = d
		}
	}
}

// WithContextTTL sets the search/batch context lifetime.
func WithContextTTL(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.contextTTL = d
		}
	}
}

// WithStatsCacheTTL sets the stats cache lifetime.
func WithStatsCacheTTL(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.statsCacheTTL = d
		}
	}
}

// WithHTTPCacheDir sets the embedding HTTP response cache directory.
func WithHTTPCacheDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.httpCacheDir = dir }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Sensitive values are masked or shown as counts.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("addr", c.Addr()),
		slog.String("environment", string(c.environment)),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("redis_url", maskRedisURL(c.redisURL)),
		slog.String("embedding_base_url", c.endpointBaseURL()),
		slog.String("embedding_model", c.endpointModel()),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Int("cors_origins_count", len(c.corsOrigins)),
		slog.Bool("github_token_set", c.github.token != ""),
		slog.Int("gatherer_concurrency", c.github.gathererConcurrency),
		slog.Int("publish_max_inflight", c.broker.maxInflight),
		slog.Int("janitor_min_issues", c.janitor.minIssues),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

func maskRedisURL(url string) string {
	if url == "" {
		return "(default)"
	}
	if at := strings.LastIndex(url, "@"); at >= 0 {
		return "redis://***@" + url[at+1:]
	}
	return url
}

func (c AppConfig) endpointBaseURL() string {
	if c.embeddingEndpoint == nil {
		return "(not configured)"
	}
	return c.embeddingEndpoint.BaseURL()
}

func (c AppConfig) endpointModel() string {
	if c.embeddingEndpoint == nil {
		return "(not configured)"
	}
	return c.embeddingEndpoint.Model()
}

// ParseAPIKeys parses a comma-separated string of API keys.
func ParseAPIKeys(s string) []string {
	return splitCommaList(s)
}

// ParseOrigins parses a comma-separated string of CORS origins.
func ParseOrigins(s string) []string {
	return splitCommaList(s)
}

func splitCommaList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
