package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/gimlabs/gim/domain/event"
	"github.com/gimlabs/gim/internal/database"
	"gorm.io/gorm/clause"
)

// EventStore implements event.Store: the analytics warehouse side of the
// recommendation event pipeline.
type EventStore struct {
	db     database.Database
	mapper EventMapper
}

// NewEventStore creates a new EventStore.
func NewEventStore(db database.Database) EventStore {
	return EventStore{db: db, mapper: EventMapper{}}
}

// InsertBatch lands events idempotently: replayed event IDs are skipped via
// conflict handling, so queue redelivery cannot double-count. Returns the
// number of rows actually inserted.
func (s EventStore) InsertBatch(ctx context.Context, events []event.RecommendationEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	models := make([]RecommendationEventModel, len(events))
	for i, ev := range events {
		m := s.mapper.ToModel(ev)
		m.CreatedAt = now
		models[i] = m
	}
	result := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&models)
	if result.Error != nil {
		return 0, fmt.Errorf("insert events: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// FindByBatch returns the stored events for one recommendation batch,
// oldest first.
func (s EventStore) FindByBatch(ctx context.Context, batchID string) ([]event.RecommendationEvent, error) {
	var models []RecommendationEventModel
	err := s.db.Session(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, event_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find events for batch %s: %w", batchID, err)
	}
	events := make([]event.RecommendationEvent, len(models))
	for i, m := range models {
		events[i] = s.mapper.ToDomain(m)
	}
	return events, nil
}

// Count returns the number of stored events.
func (s EventStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.Session(ctx).Model(&RecommendationEventModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// InteractionStore implements event.InteractionStore.
type InteractionStore struct {
	db     database.Database
	mapper InteractionMapper
}

// NewInteractionStore creates a new InteractionStore.
func NewInteractionStore(db database.Database) InteractionStore {
	return InteractionStore{db: db, mapper: InteractionMapper{}}
}

// Insert records one search click.
func (s InteractionStore) Insert(ctx context.Context, interaction event.SearchInteraction) error {
	model := s.mapper.ToModel(interaction)
	model.CreatedAt = time.Now().UTC()
	if err := s.db.Session(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("insert search interaction: %w", err)
	}
	return nil
}

// FindBySearch returns the clicks recorded against one search ID.
func (s InteractionStore) FindBySearch(ctx context.Context, searchID string) ([]event.SearchInteraction, error) {
	var models []SearchInteractionModel
	err := s.db.Session(ctx).
		Where("search_id = ?", searchID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find interactions for search %s: %w", searchID, err)
	}
	interactions := make([]event.SearchInteraction, len(models))
	for i, m := range models {
		interactions[i] = s.mapper.ToDomain(m)
	}
	return interactions, nil
}
