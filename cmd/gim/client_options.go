package main

import (
	"log/slog"
	"net/http"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/infrastructure/provider"
	"github.com/gimlabs/gim/internal/config"
)

// clientOptions returns the gim.Option slice derived from the shared parts
// of AppConfig: storage, Redis, pipeline bounds, cache lifetimes, and the
// embedding endpoint. Callers append entrypoint-specific options (API keys,
// scheduler) before passing the full slice to gim.New.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) []gim.Option {
	opts := []gim.Option{
		gim.WithDatabaseURL(cfg.DBURL()),
		gim.WithRedisURL(cfg.RedisURL()),
		gim.WithLogger(logger),
		gim.WithGitHubConfig(cfg.GitHub()),
		gim.WithBrokerConfig(cfg.Broker()),
		gim.WithEventsConfig(cfg.Events()),
		gim.WithJanitorConfig(cfg.Janitor()),
		gim.WithRateLimit(cfg.RateLimit()),
		gim.WithSearchCacheTTL(cfg.SearchCacheTTL()),
		gim.WithContextTTL(cfg.ContextTTL()),
		gim.WithStatsCacheTTL(cfg.StatsCacheTTL()),
	}

	return append(opts, embeddingOptions(cfg)...)
}

// embeddingOptions returns the options for the embedding endpoint when one
// is configured. Without one the client falls back to the deterministic
// local provider, which is the development and test mode.
func embeddingOptions(cfg config.AppConfig) []gim.Option {
	endpoint := cfg.EmbeddingEndpoint()
	if endpoint == nil || !endpoint.IsConfigured() {
		return nil
	}

	openaiCfg := provider.OpenAIConfig{
		APIKey:         endpoint.APIKey(),
		BaseURL:        endpoint.BaseURL(),
		EmbeddingModel: endpoint.Model(),
		Timeout:        endpoint.Timeout(),
		MaxRetries:     endpoint.MaxRetries(),
		InitialDelay:   endpoint.InitialDelay(),
		BackoffFactor:  endpoint.BackoffFactor(),
	}
	if cacheDir := cfg.HTTPCacheDir(); cacheDir != "" {
		openaiCfg.HTTPClient = &http.Client{
			Timeout:   endpoint.Timeout(),
			Transport: provider.NewCachingTransport(cacheDir, nil),
		}
	}

	return []gim.Option{
		gim.WithOpenAIEmbedding(openaiCfg),
		gim.WithEmbeddingBatchSize(endpoint.MaxBatchSize()),
	}
}
