package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gimlabs/gim/domain/profile"
)

// Profile recomputes user profile vectors from their stored sources.
// Sources are written by the onboarding surface outside this service;
// recompute runs as a queued task whenever they change.
type Profile struct {
	profiles  profile.Store
	embedding *Embedding
	logger    *slog.Logger
}

// NewProfile creates a new Profile service.
func NewProfile(profiles profile.Store, embedding *Embedding, logger *slog.Logger) *Profile {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profile{
		profiles:  profiles,
		embedding: embedding,
		logger:    logger,
	}
}

// Recompute re-embeds every present source and recomposes the combined
// vector. The calculating flag is held for the duration and always
// released. A source that fails to embed keeps its previous vector, so a
// flaky upstream can delay personalization but never revoke it.
func (s *Profile) Recompute(ctx context.Context, userID string) (profile.UserProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return profile.UserProfile{}, fmt.Errorf("%w: user id is empty", ErrInvalidInput)
	}

	prof, err := s.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return profile.UserProfile{}, fmt.Errorf("load profile: %w", err)
	}

	if err := s.profiles.SetCalculating(ctx, userID, true); err != nil {
		return profile.UserProfile{}, fmt.Errorf("mark calculating: %w", err)
	}
	defer func() {
		if err := s.profiles.SetCalculating(ctx, userID, false); err != nil {
			s.logger.Warn("clear calculating failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
	}()

	if src := prof.Intent(); !src.IsZero() {
		if vec := s.embedding.EmbedWithRetry(ctx, src.EmbedText()); vec != nil {
			prof = prof.WithIntent(src, vec)
		}
	}
	if src := prof.Resume(); !src.IsZero() {
		if vec := s.embedding.EmbedWithRetry(ctx, src.EmbedText()); vec != nil {
			prof = prof.WithResume(src, vec)
		}
	}
	if src := prof.GitHub(); !src.IsZero() {
		if vec := s.embedding.EmbedWithRetry(ctx, src.EmbedText()); vec != nil {
			prof = prof.WithGitHub(src, vec)
		}
	}

	prof, err = prof.Recompose()
	if err != nil {
		return profile.UserProfile{}, fmt.Errorf("compose profile vector: %w", err)
	}
	prof = prof.WithUpdatedAt(time.Now().UTC()).WithCalculating(false)

	saved, err := s.profiles.Save(ctx, prof)
	if err != nil {
		return profile.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}

	s.logger.Info("profile recomputed",
		slog.String("user_id", userID),
		slog.Bool("personalizable", saved.IsPersonalizable()))
	return saved, nil
}
