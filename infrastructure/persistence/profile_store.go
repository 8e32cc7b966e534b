package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gimlabs/gim/domain/profile"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/internal/database"
	"gorm.io/gorm/clause"
)

// ProfileStore implements profile.Store using GORM.
type ProfileStore struct {
	database.Repository[profile.UserProfile, UserProfileModel]
	db database.Database
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(db database.Database) ProfileStore {
	return ProfileStore{
		Repository: database.NewRepository[profile.UserProfile, UserProfileModel](db, ProfileMapper{}, "user profile"),
		db:         db,
	}
}

// Save persists a profile, updating on user ID conflict.
func (s ProfileStore) Save(ctx context.Context, p profile.UserProfile) (profile.UserProfile, error) {
	model := ProfileMapper{}.ToModel(p.WithUpdatedAt(time.Now().UTC()))
	err := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&model).Error
	if err != nil {
		return profile.UserProfile{}, fmt.Errorf("save profile %s: %w", p.UserID(), err)
	}
	return s.FindOne(ctx, repository.WithUserID(p.UserID()))
}

// Delete removes a profile.
func (s ProfileStore) Delete(ctx context.Context, p profile.UserProfile) error {
	return s.DeleteBy(ctx, repository.WithUserID(p.UserID()))
}

// GetOrCreate returns the user's profile, minting an empty one with default
// preferences on first access. A concurrent first access loses the insert
// race quietly and reads the winner's row.
func (s ProfileStore) GetOrCreate(ctx context.Context, userID string) (profile.UserProfile, error) {
	p, err := s.FindOne(ctx, repository.WithUserID(userID))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return profile.UserProfile{}, err
	}

	model := ProfileMapper{}.ToModel(profile.NewUserProfile(userID))
	createErr := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model).Error
	if createErr != nil {
		return profile.UserProfile{}, fmt.Errorf("create profile %s: %w", userID, createErr)
	}
	return s.FindOne(ctx, repository.WithUserID(userID))
}

// SetCalculating flips the recompute flag without touching vectors.
func (s ProfileStore) SetCalculating(ctx context.Context, userID string, calculating bool) error {
	err := s.db.Session(ctx).
		Model(&UserProfileModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"is_calculating": calculating, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("set calculating %s: %w", userID, err)
	}
	return nil
}
