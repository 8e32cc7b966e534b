package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/infrastructure/api/middleware"
	"github.com/gimlabs/gim/infrastructure/api/v1/dto"
)

// StatsRouter serves the public platform snapshot.
type StatsRouter struct {
	client *gim.Client
	logger *slog.Logger
}

// NewStatsRouter creates a new StatsRouter.
func NewStatsRouter(client *gim.Client) *StatsRouter {
	return &StatsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for the stats endpoint.
func (r *StatsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.Snapshot)

	return router
}

// Snapshot handles GET /api/v1/stats.
//
//	@Summary		Platform counts
//	@Description	Open issue, repository and language counts, served from cache
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	dto.StatsResponse
//	@Router			/stats [get]
func (r *StatsRouter) Snapshot(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	stats, err := r.client.Stats.Snapshot(ctx)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.StatsResponse{
		OpenIssues:   stats.OpenIssues,
		Repositories: stats.Repositories,
		Languages:    stats.Languages,
		GeneratedAt:  stats.GeneratedAt,
	})
}
