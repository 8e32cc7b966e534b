package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/domain/task"
	"github.com/gimlabs/gim/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskStore implements task.TaskStore using GORM.
type TaskStore struct {
	db     database.Database
	mapper TaskMapper
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db database.Database) TaskStore {
	return TaskStore{db: db, mapper: TaskMapper{}}
}

// Save upserts a task by dedup key. Re-enqueueing pending work refreshes
// its priority instead of duplicating the row.
func (s TaskStore) Save(ctx context.Context, t task.Task) (task.Task, error) {
	model := s.mapper.ToModel(t)
	now := time.Now().UTC()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now
	err := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"priority", "payload", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return task.Task{}, fmt.Errorf("save task %s: %w", t.DedupKey(), err)
	}

	var saved TaskModel
	if err := s.db.Session(ctx).Where("dedup_key = ?", t.DedupKey()).Take(&saved).Error; err != nil {
		return task.Task{}, fmt.Errorf("reload task %s: %w", t.DedupKey(), err)
	}
	return s.mapper.ToDomain(saved), nil
}

// Get retrieves a task by ID.
func (s TaskStore) Get(ctx context.Context, id int64) (task.Task, error) {
	var model TaskModel
	err := s.db.Session(ctx).Where("id = ?", id).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return task.Task{}, fmt.Errorf("%w: task %d", database.ErrNotFound, id)
		}
		return task.Task{}, fmt.Errorf("get task %d: %w", id, err)
	}
	return s.mapper.ToDomain(model), nil
}

// Dequeue claims the highest-priority pending task, oldest first within a
// priority. Existence implies pending, so the claim is a plain read; the
// worker deletes the row once processing finishes.
func (s TaskStore) Dequeue(ctx context.Context) (task.Task, bool, error) {
	var model TaskModel
	err := s.db.Session(ctx).
		Order("priority DESC, created_at ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return task.Task{}, false, nil
		}
		return task.Task{}, false, fmt.Errorf("dequeue task: %w", err)
	}
	return s.mapper.ToDomain(model), true, nil
}

// Delete removes a task.
func (s TaskStore) Delete(ctx context.Context, t task.Task) error {
	if err := s.db.Session(ctx).Where("id = ?", t.ID()).Delete(&TaskModel{}).Error; err != nil {
		return fmt.Errorf("delete task %d: %w", t.ID(), err)
	}
	return nil
}

// FindPending returns pending tasks, highest priority first.
func (s TaskStore) FindPending(ctx context.Context, options ...repository.Option) ([]task.Task, error) {
	var models []TaskModel
	db := database.ApplyOptions(s.db.Session(ctx).Model(&TaskModel{}), options...)
	if err := db.Order("priority DESC, created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find pending tasks: %w", err)
	}
	tasks := make([]task.Task, len(models))
	for i, m := range models {
		tasks[i] = s.mapper.ToDomain(m)
	}
	return tasks, nil
}

// CountPending returns the number of pending tasks.
func (s TaskStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.Session(ctx).Model(&TaskModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count pending tasks: %w", err)
	}
	return count, nil
}
