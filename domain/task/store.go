package task

import (
	"context"

	"github.com/gimlabs/gim/domain/repository"
)

// TaskStore persists the task queue. Save upserts on dedup key; Dequeue
// claims the highest-priority pending task, oldest first within a priority.
type TaskStore interface {
	Save(ctx context.Context, t Task) (Task, error)
	Get(ctx context.Context, id int64) (Task, error)
	Dequeue(ctx context.Context) (Task, bool, error)
	Delete(ctx context.Context, t Task) error
	FindPending(ctx context.Context, options ...repository.Option) ([]Task, error)
	CountPending(ctx context.Context) (int64, error)
}
