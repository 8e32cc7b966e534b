package github

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/scoring"
)

func TestForge_HarvestIssuesStreamsAndFilters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/gadget/issues", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "open", q.Get("state"))
		assert.Equal(t, "created", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("direction"))
		assert.Equal(t, "100", q.Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"node_id": "I_1", "title": "Data race in worker pool", "body": "Running with -race reports a goroutine deadlock.\n\n~~~go\nwg.Wait()\n~~~", "state": "open", "html_url": "https://github.com/acme/gadget/issues/41", "created_at": "2025-06-02T09:00:00Z", "labels": [{"name": "bug"}, {"name": "help wanted"}]},
			{"node_id": "PR_1", "title": "Fix the race", "body": "Joins the workers before returning from the pool.", "state": "open", "html_url": "https://github.com/acme/gadget/pull/42", "created_at": "2025-06-02T10:00:00Z", "pull_request": {"url": "https://api.github.com/repos/acme/gadget/pulls/42"}},
			{"node_id": "I_2", "title": "Broken", "body": "+1", "state": "open", "html_url": "https://github.com/acme/gadget/issues/40", "created_at": "2025-06-01T12:00:00Z"},
			{"node_id": "I_3", "title": "Config file ignored", "body": "### Steps to reproduce\n\nSet the config path and run the server twice.", "state": "open", "html_url": "https://github.com/acme/gadget/issues/39", "created_at": "2025-06-01T08:30:00Z"}
		]`)
	})

	forge := newTestForge(t, mux)

	issues, errs := forge.HarvestIssues(context.Background(), testRepo(), 100)
	got, err := drainHarvest(t, issues, errs)
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "I_1", first.NodeID())
	assert.Equal(t, "R_go", first.RepoID())
	assert.Equal(t, "Data race in worker pool", first.Title())
	assert.Equal(t, "Running with -race reports a goroutine deadlock.\n\n~~~go\nwg.Wait()\n~~~", first.BodyText())
	assert.Equal(t, []string{"bug", "help wanted"}, first.Labels())
	assert.Equal(t, issue.StateOpen, first.State())
	assert.Equal(t, "https://github.com/acme/gadget/issues/41", first.HTMLURL())
	assert.WithinDuration(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), first.GitHubCreatedAt(), 0)
	assert.True(t, first.Components().HasCode())
	assert.False(t, first.Components().HasTemplateHeaders())
	assert.InDelta(t, 0.9, first.Components().TechStackWeight(), 1e-9)
	assert.Equal(t, scoring.ContentHash("I_1", first.Title(), first.BodyText()), first.ContentHash())
	assert.Equal(t, issue.PendingStatusPending, first.Status())

	second := got[1]
	assert.Equal(t, "I_3", second.NodeID())
	assert.True(t, second.Components().HasTemplateHeaders())
	assert.False(t, second.Components().HasCode())
	assert.Empty(t, second.Labels())
}

func TestForge_HarvestIssuesPaginates(t *testing.T) {
	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/gadget/issues", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprintf(w, `[%s]`, issueJSON("I_2"))
			return
		}
		w.Header().Set("Link", `<https://api.github.com/repos/acme/gadget/issues?page=2>; rel="next"`)
		fmt.Fprintf(w, `[%s]`, issueJSON("I_1"))
	})

	forge := newTestForge(t, mux)

	issues, errs := forge.HarvestIssues(context.Background(), testRepo(), 100)
	got, err := drainHarvest(t, issues, errs)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "I_1", got[0].NodeID())
	assert.Equal(t, "I_2", got[1].NodeID())
	assert.Equal(t, int32(2), requests.Load())
}

func TestForge_HarvestIssuesCapsAtMaxIssues(t *testing.T) {
	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/gadget/issues", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Link", `<https://api.github.com/repos/acme/gadget/issues?page=2>; rel="next"`)
		fmt.Fprintf(w, `[%s, %s, %s]`, issueJSON("I_1"), issueJSON("I_2"), issueJSON("I_3"))
	})

	forge := newTestForge(t, mux)

	issues, errs := forge.HarvestIssues(context.Background(), testRepo(), 2)
	got, err := drainHarvest(t, issues, errs)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "I_1", got[0].NodeID())
	assert.Equal(t, "I_2", got[1].NodeID())
	assert.Equal(t, int32(1), requests.Load())
}

func TestForge_HarvestIssuesJunkCountsAgainstCap(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/gadget/issues", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// The newest row is junk; it is dropped but still consumes budget.
		fmt.Fprintf(w, `[
			{"node_id": "I_0", "title": "Broken", "body": "+1", "state": "open", "html_url": "https://github.com/acme/gadget/issues/8", "created_at": "2025-06-03T00:00:00Z"},
			%s, %s]`, issueJSON("I_1"), issueJSON("I_2"))
	})

	forge := newTestForge(t, mux)

	issues, errs := forge.HarvestIssues(context.Background(), testRepo(), 2)
	got, err := drainHarvest(t, issues, errs)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "I_1", got[0].NodeID())
}

func TestForge_HarvestIssuesListError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/gadget/issues", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "server error"}`, http.StatusInternalServerError)
	})

	forge := newTestForge(t, mux)

	issues, errs := forge.HarvestIssues(context.Background(), testRepo(), 10)
	got, err := drainHarvest(t, issues, errs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list issues acme/gadget")
	assert.Empty(t, got)
}

func TestForge_HarvestIssuesMalformedRepoName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	forge := newTestForge(t, mux)

	repo := issue.NewRepository("R_x", "gadget", "Go", nil, 100)
	issues, errs := forge.HarvestIssues(context.Background(), repo, 10)
	got, err := drainHarvest(t, issues, errs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed repository name")
	assert.Empty(t, got)
}
