package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/infrastructure/api/middleware"
	"github.com/gimlabs/gim/infrastructure/api/v1/dto"
)

// IssuesRouter handles single-issue API endpoints.
type IssuesRouter struct {
	client *gim.Client
	logger *slog.Logger
}

// NewIssuesRouter creates a new IssuesRouter.
func NewIssuesRouter(client *gim.Client) *IssuesRouter {
	return &IssuesRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for issue endpoints.
func (r *IssuesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{node_id}", r.Detail)
	router.Get("/{node_id}/similar", r.Similar)

	return router
}

// Detail handles GET /api/v1/issues/{node_id}.
//
//	@Summary		Issue detail
//	@Tags			issues
//	@Produce		json
//	@Param			node_id	path		string	true	"Issue node ID"
//	@Success		200		{object}	dto.Issue
//	@Failure		404		{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/issues/{node_id} [get]
func (r *IssuesRouter) Detail(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	item, err := r.client.Issues.Detail(ctx, chi.URLParam(req, "node_id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, issueToDTO(item))
}

// Similar handles GET /api/v1/issues/{node_id}/similar.
//
//	@Summary		Similar issues
//	@Description	Nearest open issues in embedding space, excluding the issue itself
//	@Tags			issues
//	@Produce		json
//	@Param			node_id	path		string	true	"Issue node ID"
//	@Param			limit	query		int		false	"Result count"
//	@Success		200		{object}	dto.SimilarIssuesResponse
//	@Failure		404		{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/issues/{node_id}/similar [get]
func (r *IssuesRouter) Similar(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	limit := 0
	if limitStr := req.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil {
			limit = n
		}
	}

	items, err := r.client.Issues.Similar(ctx, chi.URLParam(req, "node_id"), limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	out := make([]dto.Issue, len(items))
	for i, item := range items {
		out[i] = issueToDTO(item)
	}
	middleware.WriteJSON(w, http.StatusOK, dto.SimilarIssuesResponse{Items: out})
}
