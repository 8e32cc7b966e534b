package service

import (
	"context"
	"testing"

	"github.com/gimlabs/gim/domain/task"
)

func TestQueueEnqueuePeriodic_RoundsDoNotStack(t *testing.T) {
	store := &fakeTaskStore{}
	q := NewQueue(store, nil)
	ctx := context.Background()

	if err := q.EnqueuePeriodic(ctx, task.OperationJanitorSweep, task.OperationStatsRefresh); err != nil {
		t.Fatalf("EnqueuePeriodic() error = %v", err)
	}
	if err := q.EnqueuePeriodic(ctx, task.OperationJanitorSweep, task.OperationStatsRefresh); err != nil {
		t.Fatalf("EnqueuePeriodic() error = %v", err)
	}

	count, err := q.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("pending = %d, a second round must upsert onto the first", count)
	}
}

func TestQueueEnqueueOperations_FirstListedRunsFirst(t *testing.T) {
	store := &fakeTaskStore{}
	q := NewQueue(store, nil)
	ctx := context.Background()

	ops := []task.Operation{task.OperationEventFlush, task.OperationStatsRefresh}
	if err := q.EnqueueOperations(ctx, ops, task.PriorityBackground, nil); err != nil {
		t.Fatalf("EnqueueOperations() error = %v", err)
	}

	first, found, err := store.Dequeue(ctx)
	if err != nil || !found {
		t.Fatalf("Dequeue() = %v, %v", found, err)
	}
	if first.Operation() != task.OperationEventFlush {
		t.Errorf("first dequeued = %s, want the first listed operation", first.Operation())
	}
}

func TestQueueEnqueue_PayloadSplitsDedup(t *testing.T) {
	store := &fakeTaskStore{}
	q := NewQueue(store, nil)
	ctx := context.Background()

	// Distinct users are distinct work; the same user re-queued is not.
	for _, userID := range []string{"u-1", "u-2", "u-1"} {
		tk := task.NewTask(task.OperationProfileRecompute, task.PriorityUserInitiated,
			map[string]any{"user_id": userID})
		if err := q.Enqueue(ctx, tk); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	count, err := q.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("pending = %d, want 2", count)
	}
}

func TestQueueList_FiltersByOperation(t *testing.T) {
	store := &fakeTaskStore{}
	q := NewQueue(store, nil)
	ctx := context.Background()

	if err := q.EnqueuePeriodic(ctx, task.OperationJanitorSweep, task.OperationStatsRefresh); err != nil {
		t.Fatalf("EnqueuePeriodic() error = %v", err)
	}

	op := task.OperationJanitorSweep
	tasks, err := q.List(ctx, &TaskListParams{Operation: &op})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Operation() != task.OperationJanitorSweep {
		t.Errorf("List() = %v, want only the janitor round", tasks)
	}
}
