package github

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v74/github"
	"github.com/stretchr/testify/require"

	"github.com/gimlabs/gim/domain/issue"
)

func newTestForge(t *testing.T, handler http.Handler) *Forge {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(server.Client())
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWithClient(client, logger)
}

func testRepo() issue.Repository {
	return issue.NewRepository("R_go", "acme/gadget", "Go", []string{"cli"}, 4200)
}

// drainHarvest consumes the producer to completion. A closed empty error
// channel reads as nil.
func drainHarvest(t *testing.T, issues <-chan issue.PendingIssue, errs <-chan error) ([]issue.PendingIssue, error) {
	t.Helper()
	var out []issue.PendingIssue
	for pi := range issues {
		out = append(out, pi)
	}
	return out, <-errs
}

func issueJSON(nodeID string) string {
	return fmt.Sprintf(`{"node_id": %q, "title": "Config file ignored", "body": "The config file is ignored when the path has spaces.", "state": "open", "html_url": "https://github.com/acme/gadget/issues/7", "created_at": "2025-06-01T08:30:00Z"}`, nodeID)
}
