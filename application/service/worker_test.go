package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/domain/task"
	"github.com/gimlabs/gim/internal/database"
)

// fakeTaskStore implements task.TaskStore for testing: Save upserts on
// dedup key, Dequeue peeks highest priority first, Delete removes by ID.
type fakeTaskStore struct {
	mu         sync.Mutex
	nextID     int64
	tasks      []task.Task
	saveErr    error
	dequeueErr error
	deletes    int
}

func (f *fakeTaskStore) Save(_ context.Context, t task.Task) (task.Task, error) {
	if f.saveErr != nil {
		return task.Task{}, f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.tasks {
		if existing.DedupKey() == t.DedupKey() {
			f.tasks[i] = t.WithID(existing.ID())
			return f.tasks[i], nil
		}
	}
	f.nextID++
	saved := t.WithID(f.nextID)
	f.tasks = append(f.tasks, saved)
	return saved, nil
}

func (f *fakeTaskStore) Get(_ context.Context, id int64) (task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID() == id {
			return t, nil
		}
	}
	return task.Task{}, database.ErrNotFound
}

func (f *fakeTaskStore) Dequeue(_ context.Context) (task.Task, bool, error) {
	if f.dequeueErr != nil {
		return task.Task{}, false, f.dequeueErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tasks) == 0 {
		return task.Task{}, false, nil
	}
	best := 0
	for i, t := range f.tasks {
		if t.Priority() > f.tasks[best].Priority() {
			best = i
		}
	}
	return f.tasks[best], true, nil
}

func (f *fakeTaskStore) Delete(_ context.Context, t task.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	for i, existing := range f.tasks {
		if existing.ID() == t.ID() {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeTaskStore) FindPending(_ context.Context, _ ...repository.Option) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]task.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeTaskStore) CountPending(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.tasks)), nil
}

func (f *fakeTaskStore) pendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func TestWorkerProcessOne_ExecutesAndDeletes(t *testing.T) {
	store := &fakeTaskStore{}
	registry := NewRegistry()
	var gotPayload map[string]any
	registry.Register(task.OperationProfileRecompute, HandlerFunc(func(_ context.Context, payload map[string]any) error {
		gotPayload = payload
		return nil
	}))
	if _, err := store.Save(context.Background(),
		task.NewTask(task.OperationProfileRecompute, task.PriorityUserInitiated, map[string]any{"user_id": "u-1"})); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	w := NewWorker(store, registry, nil)
	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("ProcessOne() error = %v", err)
	}

	if !processed {
		t.Fatal("processed = false, want true")
	}
	if gotPayload["user_id"] != "u-1" {
		t.Errorf("payload = %v, want the task payload passed through", gotPayload)
	}
	if store.pendingCount() != 0 {
		t.Errorf("pending = %d, completed tasks must be deleted", store.pendingCount())
	}
}

func TestWorkerProcessOne_EmptyQueue(t *testing.T) {
	w := NewWorker(&fakeTaskStore{}, NewRegistry(), nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("ProcessOne() error = %v", err)
	}
	if processed {
		t.Error("processed = true on an empty queue")
	}
}

func TestWorkerProcessOne_NoHandlerDiscardsTask(t *testing.T) {
	store := &fakeTaskStore{}
	if _, err := store.Save(context.Background(),
		task.NewTask(task.OperationJanitorSweep, task.PriorityBackground, nil)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	w := NewWorker(store, NewRegistry(), nil)
	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne() error = %v", err)
	}

	if store.pendingCount() != 0 {
		t.Error("a task without a handler must not block the queue")
	}
}

func TestWorkerProcessOne_FailedTaskIsNotRetried(t *testing.T) {
	store := &fakeTaskStore{}
	registry := NewRegistry()
	registry.Register(task.OperationJanitorSweep, HandlerFunc(func(context.Context, map[string]any) error {
		return errors.New("sweep failed")
	}))
	if _, err := store.Save(context.Background(),
		task.NewTask(task.OperationJanitorSweep, task.PriorityBackground, nil)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	w := NewWorker(store, registry, nil)
	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne() error = %v, failures are logged, not returned", err)
	}

	if store.pendingCount() != 0 {
		t.Error("failed tasks are deleted; periodic rounds come back on their own")
	}
}

func TestWorkerProcessOne_PanickingHandlerIsContained(t *testing.T) {
	store := &fakeTaskStore{}
	registry := NewRegistry()
	registry.Register(task.OperationEventFlush, HandlerFunc(func(context.Context, map[string]any) error {
		panic("boom")
	}))
	if _, err := store.Save(context.Background(),
		task.NewTask(task.OperationEventFlush, task.PriorityBackground, nil)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	w := NewWorker(store, registry, nil)
	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne() error = %v, a panic must be recovered", err)
	}
	if store.pendingCount() != 0 {
		t.Error("panicked task must still be removed")
	}
}

func TestWorkerProcessOne_HigherPriorityFirst(t *testing.T) {
	store := &fakeTaskStore{}
	registry := NewRegistry()
	var order []task.Operation
	record := HandlerFunc(func(_ context.Context, _ map[string]any) error { return nil })
	registry.Register(task.OperationJanitorSweep, record)
	registry.Register(task.OperationProfileRecompute, record)

	ctx := context.Background()
	if _, err := store.Save(ctx, task.NewTask(task.OperationJanitorSweep, task.PriorityBackground, nil)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := store.Save(ctx, task.NewTask(task.OperationProfileRecompute, task.PriorityUserInitiated, map[string]any{"user_id": "u-1"})); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	w := NewWorker(store, registry, nil)
	for i := 0; i < 2; i++ {
		tk, found, err := store.Dequeue(ctx)
		if err != nil || !found {
			t.Fatalf("Dequeue() = %v, %v", found, err)
		}
		order = append(order, tk.Operation())
		if _, err := w.ProcessOne(ctx); err != nil {
			t.Fatalf("ProcessOne() error = %v", err)
		}
	}

	if order[0] != task.OperationProfileRecompute || order[1] != task.OperationJanitorSweep {
		t.Errorf("order = %v, user-initiated work must run before background rounds", order)
	}
}

func TestWorkerStartStop(t *testing.T) {
	store := &fakeTaskStore{}
	registry := NewRegistry()
	done := make(chan struct{}, 1)
	registry.Register(task.OperationStatsRefresh, HandlerFunc(func(context.Context, map[string]any) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	}))
	if _, err := store.Save(context.Background(),
		task.NewTask(task.OperationStatsRefresh, task.PriorityBackground, nil)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	w := NewWorker(store, registry, nil).WithPollPeriod(5 * time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond, "worker never picked up the task")
}
