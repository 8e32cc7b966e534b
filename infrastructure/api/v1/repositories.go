package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/application/service"
	"github.com/gimlabs/gim/infrastructure/api/middleware"
	"github.com/gimlabs/gim/infrastructure/api/v1/dto"
)

// RepositoriesRouter handles the tracked-repository listing.
type RepositoriesRouter struct {
	client *gim.Client
	logger *slog.Logger
}

// NewRepositoriesRouter creates a new RepositoriesRouter.
func NewRepositoriesRouter(client *gim.Client) *RepositoriesRouter {
	return &RepositoriesRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for repository endpoints.
func (r *RepositoriesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)

	return router
}

// List handles GET /api/v1/repositories.
//
//	@Summary		List tracked repositories
//	@Description	Repositories ordered by stars, filterable by name substring and primary language
//	@Tags			repositories
//	@Produce		json
//	@Param			name		query		string	false	"Name substring"
//	@Param			language	query		string	false	"Primary language"
//	@Param			page		query		int		false	"Page number"
//	@Param			page_size	query		int		false	"Page size"
//	@Success		200	{object}	dto.RepositoriesResponse
//	@Router			/repositories [get]
func (r *RepositoriesRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	q := req.URL.Query()
	params := ParsePagination(req)
	page, err := r.client.Repos.List(ctx, q.Get("name"), q.Get("language"), params.Page(), params.PageSize())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, buildRepositoriesResponse(page))
}

func buildRepositoriesResponse(page service.RepoPage) dto.RepositoriesResponse {
	repos := page.Repos()
	items := make([]dto.Repository, len(repos))
	for i, repo := range repos {
		topics := repo.Topics()
		if topics == nil {
			topics = []string{}
		}
		items[i] = dto.Repository{
			NodeID:            repo.NodeID(),
			FullName:          repo.FullName(),
			PrimaryLanguage:   repo.PrimaryLanguage(),
			Topics:            topics,
			StargazerCount:    repo.StargazerCount(),
			IssueVelocityWeek: repo.IssueVelocityWeek(),
		}
	}

	return dto.RepositoriesResponse{
		Items:    items,
		Page:     page.Page(),
		PageSize: page.PageSize(),
		HasMore:  page.HasMore(),
	}
}
