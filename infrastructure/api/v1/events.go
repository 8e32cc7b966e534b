package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/application/service"
	"github.com/gimlabs/gim/infrastructure/api/middleware"
	"github.com/gimlabs/gim/infrastructure/api/v1/dto"
)

// EventsRouter handles recommendation event submission.
type EventsRouter struct {
	client *gim.Client
	logger *slog.Logger
}

// NewEventsRouter creates a new EventsRouter.
func NewEventsRouter(client *gim.Client) *EventsRouter {
	return &EventsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for event endpoints.
func (r *EventsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/events", r.Submit)

	return router
}

// Submit handles POST /api/v1/recommendations/events.
//
//	@Summary		Submit recommendation events
//	@Description	Records impressions and clicks against a served feed batch
//	@Tags			recommendations
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.EventsRequest	true	"Event batch"
//	@Success		202		{object}	dto.EventsResponse
//	@Failure		404		{object}	map[string]string
//	@Failure		422		{object}	map[string]string
//	@Failure		503		{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/recommendations/events [post]
func (r *EventsRouter) Submit(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	userID := middleware.UserID(req)
	if userID == "" {
		middleware.WriteError(w, req, middleware.NewAuthenticationError("missing user identity"), r.logger)
		return
	}

	var body dto.EventsRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, badBody(err), r.logger)
		return
	}

	subs := make([]service.EventSubmission, len(body.Events))
	for i, ev := range body.Events {
		subs[i] = service.EventSubmission{
			EventID:     ev.EventID,
			IssueNodeID: ev.IssueNodeID,
			Position:    ev.Position,
			Surface:     ev.Surface,
			Type:        ev.EventType,
			Metadata:    ev.Metadata,
		}
	}

	receipt, err := r.client.Events.Submit(ctx, userID, body.RecommendationBatchID, subs)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, dto.EventsResponse{
		Queued:  receipt.Queued,
		Deduped: receipt.Deduped,
	})
}
