package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gimlabs/gim/domain/event"
	"github.com/gimlabs/gim/domain/feed"
	"github.com/gimlabs/gim/domain/profile"
	"github.com/gimlabs/gim/domain/search"
)

// FeedPage is one served feed page plus the recommendation batch handle
// the events endpoint verifies against.
type FeedPage struct {
	batchID  string
	page     feed.Page
	servedAt time.Time
}

// NewFeedPage creates a FeedPage.
func NewFeedPage(batchID string, page feed.Page, servedAt time.Time) FeedPage {
	return FeedPage{batchID: batchID, page: page, servedAt: servedAt}
}

// BatchID identifies the cached batch context for event reporting.
func (p FeedPage) BatchID() string { return p.batchID }

// Page returns the served feed page.
func (p FeedPage) Page() feed.Page { return p.page }

// ServedAt returns when the page was composed.
func (p FeedPage) ServedAt() time.Time { return p.servedAt }

// Feed serves the personalized issue feed with a trending fallback for
// users whose profile cannot rank yet. Every served page mints a
// recommendation batch context so client events can be verified later.
type Feed struct {
	profiles profile.Store
	store    feed.Store
	batches  event.ContextStore
	closed   *atomic.Bool
	logger   *slog.Logger
}

// NewFeed creates a new Feed service.
func NewFeed(
	profiles profile.Store,
	store feed.Store,
	batches event.ContextStore,
	closed *atomic.Bool,
	logger *slog.Logger,
) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		profiles: profiles,
		store:    store,
		batches:  batches,
		closed:   closed,
		logger:   logger,
	}
}

// ForUser serves the caller's feed. Personalizable profiles get the
// similarity-ranked feed with why-this reasons; everyone else gets
// trending plus the profile call to action.
func (s *Feed) ForUser(ctx context.Context, userID string, pageNum, pageSize int) (FeedPage, error) {
	if s.closed != nil && s.closed.Load() {
		return FeedPage{}, ErrClientClosed
	}
	if strings.TrimSpace(userID) == "" {
		return FeedPage{}, fmt.Errorf("%w: user id is empty", ErrInvalidInput)
	}
	pageNum, pageSize = clampPaging(pageNum, pageSize)

	prof, err := s.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return FeedPage{}, fmt.Errorf("load profile: %w", err)
	}

	var page feed.Page
	if prof.IsPersonalizable() {
		page, err = s.personalized(ctx, prof, pageNum, pageSize)
	} else {
		page, err = s.trending(ctx, search.NewFilters(), pageNum, pageSize)
	}
	if err != nil {
		return FeedPage{}, err
	}

	return s.mint(ctx, page), nil
}

// Trending serves the public trending feed, optionally filtered. No
// profile is consulted.
func (s *Feed) Trending(ctx context.Context, filters search.Filters, pageNum, pageSize int) (FeedPage, error) {
	if s.closed != nil && s.closed.Load() {
		return FeedPage{}, ErrClientClosed
	}
	pageNum, pageSize = clampPaging(pageNum, pageSize)

	page, err := s.trending(ctx, filters, pageNum, pageSize)
	if err != nil {
		return FeedPage{}, err
	}
	return s.mint(ctx, page), nil
}

func (s *Feed) personalized(ctx context.Context, prof profile.UserProfile, pageNum, pageSize int) (feed.Page, error) {
	offset := (pageNum - 1) * pageSize
	items, total, err := s.store.Personalized(ctx, prof.CombinedVector(), prof.Prefs(), offset, pageSize)
	if err != nil {
		return feed.Page{}, fmt.Errorf("personalized feed: %w", err)
	}

	entities := feed.CollectEntities(prof)
	explained := make([]feed.Item, len(items))
	for i, item := range items {
		explained[i] = item.WithReasons(feed.Explain(item, entities, feed.DefaultReasonCount))
	}

	return feed.NewPage(explained, total, pageNum, pageSize, true, ""), nil
}

// trending serves the fallback surface. Every trending page carries the
// profile call to action, signed-in or not: the invitation to finish the
// profile is what turns the surface personalized.
func (s *Feed) trending(ctx context.Context, filters search.Filters, pageNum, pageSize int) (feed.Page, error) {
	offset := (pageNum - 1) * pageSize
	items, total, err := s.store.Trending(ctx, filters, offset, pageSize)
	if err != nil {
		return feed.Page{}, fmt.Errorf("trending feed: %w", err)
	}
	return feed.NewPage(items, total, pageNum, pageSize, false, feed.ProfileCTA), nil
}

// mint creates and caches the batch context for a served page. A cache
// write failure costs event verification for this batch, not the feed.
func (s *Feed) mint(ctx context.Context, page feed.Page) FeedPage {
	batchID := uuid.NewString()
	servedAt := time.Now().UTC()

	bc := event.NewBatchContext(batchID, page.NodeIDs(), page.Page(), page.PageSize(), page.IsPersonalized(), servedAt)
	if err := s.batches.Save(ctx, bc); err != nil {
		s.logger.Warn("batch context save failed",
			slog.String("batch_id", batchID),
			slog.String("error", err.Error()))
	}

	s.logger.Debug("feed served",
		slog.String("batch_id", batchID),
		slog.Int("items", len(page.Items())),
		slog.Bool("personalized", page.IsPersonalized()))

	return NewFeedPage(batchID, page, servedAt)
}

// clampPaging normalizes feed paging to the shared search bounds.
func clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = search.DefaultPageSize
	}
	if pageSize > search.MaxPageSize {
		pageSize = search.MaxPageSize
	}
	return page, pageSize
}
