package profile

import (
	"context"

	"github.com/gimlabs/gim/domain/repository"
)

// Store defines persistence for user profiles.
type Store interface {
	repository.Store[UserProfile]

	// GetOrCreate returns the user's profile, minting an empty one with
	// default preferences on first access.
	GetOrCreate(ctx context.Context, userID string) (UserProfile, error)

	// SetCalculating flips the recompute flag without touching vectors,
	// so concurrent readers see recompute progress.
	SetCalculating(ctx context.Context, userID string, calculating bool) error
}
