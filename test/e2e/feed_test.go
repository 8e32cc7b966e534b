package e2e_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gimlabs/gim/domain/feed"
	"github.com/gimlabs/gim/domain/task"
	"github.com/gimlabs/gim/infrastructure/api/v1/dto"
)

// Trending serves only issues at or above the quality floor, best first.
func TestTrendingFeedQualityFloor(t *testing.T) {
	s := NewTestServer(t)

	var resp dto.FeedResponse
	if status := s.GetJSON("/api/v1/feed/trending", "", &resp); status != http.StatusOK {
		t.Fatalf("trending status = %d, want %d", status, http.StatusOK)
	}

	if resp.BatchID == "" {
		t.Error("batch_id is empty, events have nothing to verify against")
	}
	if resp.IsPersonalized {
		t.Error("trending page claims to be personalized")
	}
	if resp.ProfileCTA != feed.ProfileCTA {
		t.Errorf("profile_cta = %q, want the onboarding call to action on the public surface", resp.ProfileCTA)
	}

	if len(resp.Items) != 2 || resp.Total != 2 {
		t.Fatalf("items = %d, total = %d, want the two issues above the quality floor", len(resp.Items), resp.Total)
	}
	if resp.Items[0].NodeID != "I_ws" || resp.Items[1].NodeID != "I_retry" {
		t.Errorf("order = [%s, %s], want [I_ws, I_retry] by q-score", resp.Items[0].NodeID, resp.Items[1].NodeID)
	}
	for _, item := range resp.Items {
		if item.NodeID == "I_docs" {
			t.Error("I_docs sits below the quality floor and must not trend")
		}
		if item.Similarity != nil {
			t.Errorf("item %s carries a similarity on a trending page", item.NodeID)
		}
	}
}

func TestTrendingFeedFilters(t *testing.T) {
	s := NewTestServer(t)

	var resp dto.FeedResponse
	if status := s.GetJSON("/api/v1/feed/trending?languages=Go", "", &resp); status != http.StatusOK {
		t.Fatalf("trending status = %d, want %d", status, http.StatusOK)
	}
	if len(resp.Items) != 2 {
		t.Errorf("Go filter items = %d, want 2", len(resp.Items))
	}

	if status := s.GetJSON("/api/v1/feed/trending?languages=Rust", "", &resp); status != http.StatusOK {
		t.Fatalf("trending status = %d, want %d", status, http.StatusOK)
	}
	if len(resp.Items) != 0 || resp.Total != 0 {
		t.Errorf("Rust filter items = %d, total = %d, want an empty page", len(resp.Items), resp.Total)
	}
}

// A user without a rankable profile gets trending plus the call to action.
func TestPersonalFeedFallsBackToTrending(t *testing.T) {
	s := NewTestServer(t)

	var resp dto.FeedResponse
	if status := s.GetJSON("/api/v1/feed", "u-new", &resp); status != http.StatusOK {
		t.Fatalf("feed status = %d, want %d", status, http.StatusOK)
	}

	if resp.IsPersonalized {
		t.Error("fresh user got a personalized page without a combined vector")
	}
	if resp.ProfileCTA != feed.ProfileCTA {
		t.Errorf("profile_cta = %q, want the onboarding call to action", resp.ProfileCTA)
	}
	if len(resp.Items) != 2 {
		t.Errorf("fallback items = %d, want the trending page", len(resp.Items))
	}
}

// Recomputing a profile through the task queue flips the feed from
// trending fallback to similarity-ranked.
func TestProfileRecomputeUnlocksPersonalizedFeed(t *testing.T) {
	s := NewTestServer(t)
	ctx := context.Background()

	var before dto.FeedResponse
	if status := s.GetJSON("/api/v1/feed", "u-pro", &before); status != http.StatusOK {
		t.Fatalf("feed status = %d, want %d", status, http.StatusOK)
	}
	if before.IsPersonalized {
		t.Fatal("profile has no vectors yet, feed must fall back to trending")
	}

	err := s.Client().Tasks.Enqueue(ctx, task.NewTask(
		task.OperationProfileRecompute,
		task.PriorityUserInitiated,
		map[string]any{"user_id": "u-pro"},
	))
	if err != nil {
		t.Fatalf("enqueue recompute: %v", err)
	}
	s.WaitForIdle(ctx)

	var after dto.FeedResponse
	if status := s.GetJSON("/api/v1/feed", "u-pro", &after); status != http.StatusOK {
		t.Fatalf("feed status = %d, want %d", status, http.StatusOK)
	}

	if !after.IsPersonalized {
		t.Fatal("feed still falls back after the profile recompute settled")
	}
	if after.ProfileCTA != "" {
		t.Errorf("profile_cta = %q, want empty on a personalized page", after.ProfileCTA)
	}
	if len(after.Items) != 2 || after.Total != 2 {
		t.Fatalf("items = %d, total = %d, want the two issues above the preference heat floor", len(after.Items), after.Total)
	}
	for _, item := range after.Items {
		if item.Similarity == nil {
			t.Errorf("item %s has no similarity on a personalized page", item.NodeID)
		}
	}
}
