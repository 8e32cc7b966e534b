package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gimlabs/gim/domain/event"
	"github.com/gimlabs/gim/internal/config"
)

// Flush drains the recommendation event queue into analytics. It runs as
// a periodic worker operation under a hard time budget so one bloated
// queue cannot starve the other jobs.
type Flush struct {
	queue  event.Queue
	store  event.Store
	cfg    config.EventsConfig
	logger *slog.Logger
}

// NewFlush creates a new Flush job.
func NewFlush(queue event.Queue, store event.Store, cfg config.EventsConfig, logger *slog.Logger) *Flush {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flush{
		queue:  queue,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Run pops batches off the queue and bulk-inserts them until the queue is
// empty or the time budget runs out. The insert is idempotent on event
// identity, so a crash after pop and before insert only costs the popped
// batch, and a crash after insert costs nothing on redelivery.
func (s *Flush) Run(ctx context.Context) (event.FlushReport, error) {
	deadline := time.Now().Add(s.cfg.FlushMax())

	var report event.FlushReport
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		events, err := s.queue.Pop(ctx, s.cfg.FlushBatchSize())
		if err != nil {
			return report, fmt.Errorf("pop event queue: %w", err)
		}
		if len(events) == 0 {
			break
		}

		report.Loops++
		report.Popped += len(events)

		inserted, err := s.store.InsertBatch(ctx, events)
		if err != nil {
			return report, fmt.Errorf("insert events: %w", err)
		}
		report.Inserted += inserted
	}

	s.logger.Info("event flush complete",
		slog.Int("loops", report.Loops),
		slog.Int("popped", report.Popped),
		slog.Int("inserted", report.Inserted))
	return report, nil
}
