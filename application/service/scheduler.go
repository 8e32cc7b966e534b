package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gimlabs/gim/domain/task"
)

// Scheduler re-enqueues a fixed set of periodic operations on a timer.
// Dedup keys on the task table keep a round that is still pending from
// stacking behind a slow worker.
type Scheduler struct {
	queue      *Queue
	operations []task.Operation
	interval   time.Duration
	logger     *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates a scheduler that enqueues the given operations every
// interval. With no operations it schedules the full periodic set.
func NewScheduler(queue *Queue, interval time.Duration, logger *slog.Logger, operations ...task.Operation) *Scheduler {
	if len(operations) == 0 {
		operations = task.PeriodicOperations()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		queue:      queue,
		operations: operations,
		interval:   interval,
		logger:     logger,
	}
}

// Start begins scheduling in a background goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Go(func() {
		s.run(ctx)
	})

	s.logger.Info("scheduler started",
		slog.Duration("interval", s.interval),
		slog.Int("operations", len(s.operations)),
	)
}

// Stop cancels the background goroutine and waits for it to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	// Enqueue immediately on startup
	s.enqueue(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueue(ctx)
		}
	}
}

func (s *Scheduler) enqueue(ctx context.Context) {
	if err := s.queue.EnqueuePeriodic(ctx, s.operations...); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("scheduler failed to enqueue",
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("scheduler enqueued", slog.Int("count", len(s.operations)))
}
