package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/application/service"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/infrastructure/api/middleware"
	"github.com/gimlabs/gim/infrastructure/api/v1/dto"
)

// SearchRouter handles hybrid search API endpoints.
type SearchRouter struct {
	client *gim.Client
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(client *gim.Client) *SearchRouter {
	return &SearchRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Search)
	router.Post("/interact", r.Interact)

	return router
}

// Search handles POST /api/v1/search.
//
//	@Summary		Search issues
//	@Description	Hybrid lexical plus vector search across open issues
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.SearchRequest	true	"Search request"
//	@Success		200		{object}	dto.SearchResponse
//	@Failure		422		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/search [post]
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.SearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, badBody(err), r.logger)
		return
	}

	query := buildQuery(body, middleware.UserID(req))
	page, err := r.client.Search.Query(ctx, query)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, buildSearchResponse(page))
}

// Interact handles POST /api/v1/search/interact.
//
//	@Summary		Report a result click
//	@Description	Records a click on a search result, validated against the cached search context
//	@Tags			search
//	@Accept			json
//	@Param			body	body	dto.InteractRequest	true	"Click report"
//	@Success		204
//	@Failure		404	{object}	map[string]string
//	@Failure		422	{object}	map[string]string
//	@Router			/search/interact [post]
func (r *SearchRouter) Interact(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.InteractRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, badBody(err), r.logger)
		return
	}

	userID := middleware.UserID(req)
	if err := r.client.Search.Interact(ctx, userID, body.SearchID, body.NodeID, body.Position); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusNoContent, nil)
}

func buildQuery(body dto.SearchRequest, userID string) search.Query {
	var opts []search.FiltersOption
	if f := body.Filters; f != nil {
		if len(f.Languages) > 0 {
			opts = append(opts, search.WithLanguages(f.Languages))
		}
		if len(f.Labels) > 0 {
			opts = append(opts, search.WithLabels(f.Labels))
		}
		if len(f.Repos) > 0 {
			opts = append(opts, search.WithRepos(f.Repos))
		}
	}

	query := search.NewQuery(body.Query, search.NewFilters(opts...))
	if body.Page > 0 {
		query = query.WithPage(body.Page)
	}
	if body.PageSize > 0 {
		query = query.WithPageSize(body.PageSize)
	}
	if userID != "" {
		query = query.WithUserID(userID)
	}
	return query
}

func buildSearchResponse(page service.SearchPage) dto.SearchResponse {
	items := page.Items()
	data := make([]dto.SearchItem, len(items))
	for i, item := range items {
		data[i] = dto.SearchItem{
			Issue:    issueToDTO(item),
			RRFScore: item.RRFScore(),
		}
	}

	return dto.SearchResponse{
		SearchID:          page.SearchID(),
		Items:             data,
		Total:             page.Total(),
		TotalIsLowerBound: page.IsCapped(),
		Page:              page.Page(),
		PageSize:          page.PageSize(),
		HasMore:           page.HasMore(),
	}
}

// issueToDTO projects the shared presentation row. Labels are kept
// non-nil so the JSON field is always an array.
func issueToDTO(item search.Item) dto.Issue {
	labels := item.Labels()
	if labels == nil {
		labels = []string{}
	}
	return dto.Issue{
		NodeID:          item.NodeID(),
		Title:           item.Title(),
		BodyPreview:     item.BodyPreview(),
		HTMLURL:         item.HTMLURL(),
		Labels:          labels,
		QScore:          item.QScore(),
		RepoName:        item.RepoName(),
		PrimaryLanguage: item.PrimaryLanguage(),
		CreatedAt:       item.GitHubCreatedAt(),
	}
}

// badBody wraps a JSON decode failure as a 400. Malformed bodies are a
// transport problem, distinct from the 422 the services return for
// well-formed payloads that fail validation.
func badBody(err error) error {
	return middleware.NewAPIError(http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), err)
}
