package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/application/service"
	"github.com/gimlabs/gim/domain/feed"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/infrastructure/api/middleware"
	"github.com/gimlabs/gim/infrastructure/api/v1/dto"
)

// FeedRouter handles feed API endpoints.
type FeedRouter struct {
	client *gim.Client
	logger *slog.Logger
}

// NewFeedRouter creates a new FeedRouter.
func NewFeedRouter(client *gim.Client) *FeedRouter {
	return &FeedRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for feed endpoints.
func (r *FeedRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.Feed)
	router.Get("/trending", r.Trending)

	return router
}

// Feed handles GET /api/v1/feed.
//
//	@Summary		Personal feed
//	@Description	Personalized issue feed, falling back to trending for users without a rankable profile
//	@Tags			feed
//	@Produce		json
//	@Param			page		query		int	false	"Page number"
//	@Param			page_size	query		int	false	"Page size"
//	@Success		200	{object}	dto.FeedResponse
//	@Failure		401	{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/feed [get]
func (r *FeedRouter) Feed(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	userID := middleware.UserID(req)
	if userID == "" {
		middleware.WriteError(w, req, middleware.NewAuthenticationError("missing user identity"), r.logger)
		return
	}

	params := ParsePagination(req)
	page, err := r.client.Feed.ForUser(ctx, userID, params.Page(), params.PageSize())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, buildFeedResponse(page))
}

// Trending handles GET /api/v1/feed/trending.
//
//	@Summary		Trending feed
//	@Description	Public quality-ranked feed, optionally filtered by language, label or repository
//	@Tags			feed
//	@Produce		json
//	@Param			languages	query		[]string	false	"Language filter"
//	@Param			labels		query		[]string	false	"Label filter"
//	@Param			repos		query		[]string	false	"Repository filter"
//	@Success		200	{object}	dto.FeedResponse
//	@Router			/feed/trending [get]
func (r *FeedRouter) Trending(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	filters := parseFeedFilters(req)
	params := ParsePagination(req)
	page, err := r.client.Feed.Trending(ctx, filters, params.Page(), params.PageSize())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, buildFeedResponse(page))
}

func parseFeedFilters(req *http.Request) search.Filters {
	var opts []search.FiltersOption
	if languages := parseListParam(req, "languages"); len(languages) > 0 {
		opts = append(opts, search.WithLanguages(languages))
	}
	if labels := parseListParam(req, "labels"); len(labels) > 0 {
		opts = append(opts, search.WithLabels(labels))
	}
	if repos := parseListParam(req, "repos"); len(repos) > 0 {
		opts = append(opts, search.WithRepos(repos))
	}
	return search.NewFilters(opts...)
}

func buildFeedResponse(served service.FeedPage) dto.FeedResponse {
	page := served.Page()
	items := page.Items()
	data := make([]dto.FeedItem, len(items))
	for i, item := range items {
		data[i] = feedItemToDTO(item)
	}

	return dto.FeedResponse{
		BatchID:        served.BatchID(),
		Items:          data,
		Total:          page.Total(),
		Page:           page.Page(),
		PageSize:       page.PageSize(),
		HasMore:        page.HasMore(),
		IsPersonalized: page.IsPersonalized(),
		ProfileCTA:     page.ProfileCTA(),
		ServedAt:       served.ServedAt(),
	}
}

func feedItemToDTO(item feed.Item) dto.FeedItem {
	out := dto.FeedItem{
		Issue:      issueToDTO(item.Item),
		RepoTopics: item.RepoTopics(),
		Reasons:    item.Reasons(),
	}
	if sim, ok := item.Similarity(); ok {
		out.Similarity = &sim
	}
	return out
}
