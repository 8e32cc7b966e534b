package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gimlabs/gim"
	apimiddleware "github.com/gimlabs/gim/infrastructure/api/middleware"
	v1 "github.com/gimlabs/gim/infrastructure/api/v1"
	internalmcp "github.com/gimlabs/gim/internal/mcp"
)

// ErrWildcardOrigin rejects a production config that would let any site
// read authenticated responses.
var ErrWildcardOrigin = errors.New("wildcard CORS origin is not allowed in production")

// Config holds the HTTP surface settings.
type Config struct {
	apiKeys        []string
	allowedOrigins []string
}

// NewConfig creates an open Config: no API keys, no cross-origin access.
func NewConfig() Config {
	return Config{}
}

// WithAPIKeys returns a copy accepting the given API keys on protected
// surfaces. An empty list disables the check for local development.
func (c Config) WithAPIKeys(keys []string) Config {
	c.apiKeys = append([]string(nil), keys...)
	return c
}

// WithAllowedOrigins returns a copy allowing the given CORS origins.
func (c Config) WithAllowedOrigins(origins []string) Config {
	c.allowedOrigins = append([]string(nil), origins...)
	return c
}

// APIKeys returns the configured API keys.
func (c Config) APIKeys() []string {
	return append([]string(nil), c.apiKeys...)
}

// AllowedOrigins returns the configured CORS origins.
func (c Config) AllowedOrigins() []string {
	return append([]string(nil), c.allowedOrigins...)
}

// Validate checks the config for a production deployment. The origin
// list must be explicit: a wildcard would expose key-protected responses
// to any page the user visits.
func (c Config) Validate(production bool) error {
	if !production {
		return nil
	}
	for _, origin := range c.allowedOrigins {
		if origin == "*" {
			return ErrWildcardOrigin
		}
	}
	return nil
}

// APIServer serves the public HTTP API backed by a gim Client.
//
// Surfaces split three ways: public reads (trending feed, repositories,
// stats, taxonomy), the mixed search endpoints that work with or without
// a caller identity, and the key-protected per-user surfaces (feed,
// issues, recommendation events). The MCP mount is key-protected too.
type APIServer struct {
	client       *gim.Client
	config       Config
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given gim Client.
func NewAPIServer(client *gim.Client, config Config) *APIServer {
	return &APIServer{
		client: client,
		config: config,
		logger: client.Logger(),
	}
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call
// MountRoutes(). If not called, ListenAndServe creates a default router
// with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all routes on the router. Call this after adding
// any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

// mountRoutes wires up all routes on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client
	auth := apimiddleware.NewAuthConfigWithKeys(a.config.APIKeys())

	// The limiter interface stays nil when the client carries none, so
	// the middleware's disabled path sees a true nil.
	var limiter apimiddleware.Limiter
	if l := c.Limiter(); l != nil {
		limiter = l
	}

	router.Use(apimiddleware.SecurityHeaders())
	router.Use(apimiddleware.Logging(a.logger))
	if origins := a.config.AllowedOrigins(); len(origins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", apimiddleware.APIKeyHeader, apimiddleware.UserIDHeader},
			ExposedHeaders: []string{"Retry-After"},
			MaxAge:         300,
		}))
	}

	feedRouter := v1.NewFeedRouter(c)
	searchRouter := v1.NewSearchRouter(c)
	eventsRouter := v1.NewEventsRouter(c)
	issuesRouter := v1.NewIssuesRouter(c)
	reposRouter := v1.NewRepositoriesRouter(c)
	statsRouter := v1.NewStatsRouter(c)
	taxonomyRouter := v1.NewTaxonomyRouter()

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		// Public reads.
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.RateLimit(limiter, "public"))
			r.Get("/feed/trending", feedRouter.Trending)
			r.Mount("/repositories", reposRouter.Routes())
			r.Mount("/stats", statsRouter.Routes())
			r.Mount("/taxonomy", taxonomyRouter.Routes())
		})

		// Search serves anonymous and signed-in callers alike; the caller
		// identity only partitions the result cache.
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.RateLimit(limiter, "search"))
			r.Mount("/search", searchRouter.Routes())
		})

		// Per-user surfaces. The key check runs before anything reads
		// the request body.
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.RequireKey(auth))
			r.Use(apimiddleware.RateLimit(limiter, "user"))
			r.Get("/feed", feedRouter.Feed)
			r.Mount("/issues", issuesRouter.Routes())
			r.Mount("/recommendations", eventsRouter.Routes())
		})
	})

	router.Get("/healthz", a.healthz)

	// MCP endpoint, key-protected, mounted without timeout middleware.
	// MCP streams responses and manages its own session state via
	// response headers, which is incompatible with chi's Timeout
	// middleware wrapping the ResponseWriter.
	mcpSrv := internalmcp.NewServer(c.Search, c.Issues, "1.0.0", a.logger)
	httpHandler := server.NewStreamableHTTPServer(mcpSrv.MCPServer())
	router.Group(func(r chi.Router) {
		r.Use(apimiddleware.RequireKey(auth))
		r.Mount("/mcp", httpHandler)
	})
}

// healthz reports liveness. The probe asks the embedding service for a
// full-dimension vector, so a dead provider flips readiness without
// killing the process.
func (a *APIServer) healthz(w http.ResponseWriter, r *http.Request) {
	if !a.client.Healthy(r.Context()) {
		apimiddleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.server = &server

	if a.routerCalled && a.router != nil {
		server.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(server.Router())
	}

	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom
// servers and tests.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
