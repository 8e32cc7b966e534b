package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/infrastructure/api"
	"github.com/gimlabs/gim/internal/config"
	"github.com/gimlabs/gim/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DB_URL                       Database URL (default: sqlite:///gim.db)
  REDIS_URL                    Redis URL (default: redis://localhost:6379/0)
  ENVIRONMENT                  development or production (default: development)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  API_KEYS                     Comma-separated list of valid API keys
  CORS_ORIGINS                 Comma-separated list of allowed origins

  GITHUB_*                     Ingestion configuration
    TOKEN                      GitHub API token
    MIN_STARS                  Popularity floor for scouted repos (default: 200)
    MAX_REPOS                  Repositories per scout run (default: 500)
    MAX_ISSUES_PER_REPO        Issues harvested per repository (default: 100)
    GATHERER_CONCURRENCY       Concurrent per-repo harvests (default: 10)

  EMBEDDING_ENDPOINT_*         Embedding service configuration
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier (e.g., text-embedding-3-small)
    API_KEY                    API key for authentication
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 3)
    MAX_BATCH_SIZE             Texts per request (default: 64)

  RATE_LIMIT_PER_MINUTE        Sustained request budget per key (default: 120)
  RATE_LIMIT_BURST             Bucket capacity above the rate (default: 20)
  SEARCH_CACHE_TTL_SECONDS     Candidate cache lifetime (default: 300)
  SEARCH_CONTEXT_TTL_SECONDS   Served context lifetime (default: 1800)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// Flags take precedence over env vars.
	cfg = applyServeOverrides(cfg, host, port)

	// Startup-fatal misconfiguration: bad port, wildcard CORS origin in
	// production.
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	slogger := log.New(cfg)

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting gim", attrs...)

	opts := clientOptions(cfg, slogger)
	if keys := cfg.APIKeys(); len(keys) > 0 {
		opts = append(opts, gim.WithAPIKeys(keys...))
	}

	client, err := gim.New(opts...)
	if err != nil {
		return fmt.Errorf("create gim client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close gim client", slog.Any("error", err))
		}
	}()

	apiConfig := api.NewConfig().
		WithAPIKeys(cfg.APIKeys()).
		WithAllowedOrigins(cfg.CORSOrigins())

	apiServer := api.NewAPIServer(client, apiConfig)
	apiServer.MountRoutes()

	server := api.NewServer(cfg.Addr(), slogger)
	server.Router().Mount("/", apiServer.Router())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slogger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slogger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
