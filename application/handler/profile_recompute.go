package handler

import (
	"context"

	"github.com/gimlabs/gim/application/service"
)

// ProfileRecompute rebuilds a user's source and combined profile vectors.
// Tasks arrive from the onboarding system with the user ID in the payload.
type ProfileRecompute struct {
	profiles *service.Profile
}

// NewProfileRecompute creates a new ProfileRecompute handler.
func NewProfileRecompute(profiles *service.Profile) *ProfileRecompute {
	return &ProfileRecompute{profiles: profiles}
}

// Execute processes the gim.profile.recompute task.
func (h *ProfileRecompute) Execute(ctx context.Context, payload map[string]any) error {
	userID, err := ExtractString(payload, "user_id")
	if err != nil {
		return err
	}

	_, err = h.profiles.Recompute(ctx, userID)
	return err
}
