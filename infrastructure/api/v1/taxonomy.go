package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gimlabs/gim/domain/taxonomy"
	"github.com/gimlabs/gim/infrastructure/api/middleware"
	"github.com/gimlabs/gim/infrastructure/api/v1/dto"
)

// TaxonomyRouter serves the canonical vocabularies clients build filter
// and profile pickers from. The lists are compiled in, so no client or
// storage is involved.
type TaxonomyRouter struct{}

// NewTaxonomyRouter creates a new TaxonomyRouter.
func NewTaxonomyRouter() *TaxonomyRouter {
	return &TaxonomyRouter{}
}

// Routes returns the chi router for taxonomy endpoints.
func (r *TaxonomyRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/languages", r.Languages)
	router.Get("/stack-areas", r.StackAreas)

	return router
}

// Languages handles GET /api/v1/taxonomy/languages.
//
//	@Summary	Language whitelist
//	@Tags		taxonomy
//	@Produce	json
//	@Success	200	{object}	dto.TaxonomyResponse
//	@Router		/taxonomy/languages [get]
func (r *TaxonomyRouter) Languages(w http.ResponseWriter, req *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, dto.TaxonomyResponse{Values: taxonomy.Languages()})
}

// StackAreas handles GET /api/v1/taxonomy/stack-areas.
//
//	@Summary	Stack-area whitelist
//	@Tags		taxonomy
//	@Produce	json
//	@Success	200	{object}	dto.TaxonomyResponse
//	@Router		/taxonomy/stack-areas [get]
func (r *TaxonomyRouter) StackAreas(w http.ResponseWriter, req *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, dto.TaxonomyResponse{Values: taxonomy.StackAreas()})
}
