// Package github adapts the GitHub REST API to the forge contract:
// repository discovery for the scout and paginated issue harvesting for
// the gatherer.
package github

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"
)

// perPage is the page size for every listing call. GitHub caps it at 100.
const perPage = 100

// issueBuffer is the harvest channel capacity, sized so one page can be
// queued while the consumer works through the previous one.
const issueBuffer = perPage

// Forge talks to the GitHub API on behalf of the ingestion pipeline.
// Implements domain/service.Forge.
type Forge struct {
	client *github.Client
	logger *slog.Logger
}

// New creates a Forge backed by the public GitHub API. An empty token
// yields an unauthenticated client, which GitHub rate-limits far more
// aggressively.
func New(token string, logger *slog.Logger) *Forge {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		))
	}
	return NewWithClient(github.NewClient(httpClient), logger)
}

// NewWithClient creates a Forge over an existing GitHub client. Tests use
// this to point the client at a fixture server.
func NewWithClient(client *github.Client, logger *slog.Logger) *Forge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forge{
		client: client,
		logger: logger,
	}
}
