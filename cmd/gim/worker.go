package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/domain/task"
	"github.com/gimlabs/gim/internal/config"
	"github.com/gimlabs/gim/internal/log"
)

// Job cadences. The collector runs hourly because each UTC hour owns one
// CRC32 shard of the repository table; a full day visits every repository
// exactly once. The janitor's percentile prune removes the bottom fifth of
// survival scores per sweep, so it must not run more than daily.
const (
	collectEvery = time.Hour
	janitorEvery = 24 * time.Hour
	flushEvery   = time.Minute
)

func workerCmd() *cobra.Command {
	var (
		envFile string
		job     string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a background worker process",
		Long: `Run a background worker process.

The job is selected by JOB_TYPE (or --job):
  collector   hourly repository scout + issue gather for the current shard
  embedder    consume staged issues, embed, promote to the corpus
  janitor     periodic survival prune, staging sweep and stats refresh
  reco_flush  drain the recommendation event queue into analytics

Every worker serves /healthz and /metrics on PORT (default 8080).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(envFile, job)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&job, "job", "", "Job to run (overrides JOB_TYPE)")

	return cmd
}

func runWorker(envFile, job string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if job != "" {
		jt, err := config.ParseJobType(job)
		if err != nil {
			return err
		}
		cfg = cfg.Apply(config.WithJobType(jt))
	}

	jobType := cfg.JobType()
	if jobType == "" {
		return fmt.Errorf("JOB_TYPE is required (collector, embedder, janitor or reco_flush)")
	}

	slogger := log.New(cfg).With(slog.String("job", string(jobType)))

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting gim worker", attrs...)

	opts := clientOptions(cfg, slogger)

	// Janitor and flush rounds go through the task queue; the scheduler
	// re-enqueues them so replicas dedup on the task table.
	switch jobType {
	case config.JobJanitor:
		opts = append(opts, gim.WithScheduler(janitorEvery, task.OperationJanitorSweep, task.OperationStatsRefresh))
	case config.JobRecoFlush:
		opts = append(opts, gim.WithScheduler(flushEvery, task.OperationEventFlush))
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	healthSrv := startHealthServer(client, cfg, jobType, slogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = healthSrv.Shutdown(shutdownCtx)
	}()

	switch jobType {
	case config.JobCollector:
		err = client.RunCollector(ctx, collectEvery)
	case config.JobEmbedder:
		err = client.RunEmbedder(ctx)
	default:
		// Scheduler-driven jobs: the client's worker loop does the work,
		// this process just stays alive.
		<-ctx.Done()
		err = ctx.Err()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker %s: %w", jobType, err)
	}
	slogger.Info("worker stopped")
	return nil
}

// startHealthServer serves readiness and metrics for the worker. Jobs that
// embed require a full-dimension vector from the provider before reporting
// ready; the rest only prove the process is serving.
func startHealthServer(client *gim.Client, cfg config.AppConfig, jobType config.JobType, logger *slog.Logger) *http.Server {
	needsEmbedder := jobType == config.JobEmbedder

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if needsEmbedder && !client.Healthy(r.Context()) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("worker health server listening", slog.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	return srv
}
