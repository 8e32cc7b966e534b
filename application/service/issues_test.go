package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/scoring"
	"github.com/gimlabs/gim/domain/search"
)

// embeddedIssue builds a corpus issue that already carries a vector.
func embeddedIssue(nodeID string) issue.Issue {
	iss := issue.NewIssue(nodeID, "R_alpha", "deadlock under load", "repro attached",
		[]string{"bug"}, issue.StateOpen, "https://github.com/octo/alpha/issues/9",
		time.Now().UTC(), scoring.NewQComponents(true, false, 0.7))
	return iss.WithEmbedding(rawVec(1), time.Now().UTC())
}

type issuesFixture struct {
	issues  *fakeIssueStore
	items   *fakeItemStore
	vectors *fakeVectorStore
	closed  *atomic.Bool
}

func newIssuesFixture() *issuesFixture {
	return &issuesFixture{
		issues:  newFakeIssueStore(),
		items:   &fakeItemStore{rows: make(map[string]search.Item)},
		vectors: &fakeVectorStore{},
		closed:  &atomic.Bool{},
	}
}

func (fx *issuesFixture) service() *Issues {
	return NewIssues(fx.issues, fx.items, fx.vectors, fx.closed, nil)
}

func TestIssuesDetail(t *testing.T) {
	fx := newIssuesFixture()
	fx.items.rows["n-1"] = testItem("n-1")

	item, err := fx.service().Detail(context.Background(), "n-1")
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if item.NodeID() != "n-1" {
		t.Errorf("NodeID() = %q, want n-1", item.NodeID())
	}
}

func TestIssuesDetail_UnknownIsNotFound(t *testing.T) {
	fx := newIssuesFixture()

	_, err := fx.service().Detail(context.Background(), "n-missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Detail() error = %v, want ErrNotFound", err)
	}

	if _, err := fx.service().Detail(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Detail(blank) error = %v, want ErrInvalidInput", err)
	}
}

func TestIssuesSimilar_ExcludesSelfAndPreservesRank(t *testing.T) {
	fx := newIssuesFixture()
	self := embeddedIssue("n-self")
	fx.issues.findOne = &self
	fx.vectors.results = []search.Result{
		search.NewResult("n-self", 0.99),
		search.NewResult("n-2", 0.91),
		search.NewResult("n-3", 0.88),
	}
	fx.items.rows["n-2"] = testItem("n-2")
	fx.items.rows["n-3"] = testItem("n-3")

	items, err := fx.service().Similar(context.Background(), "n-self", 10)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].NodeID() != "n-2" || items[1].NodeID() != "n-3" {
		t.Errorf("order = [%s %s], want [n-2 n-3]", items[0].NodeID(), items[1].NodeID())
	}
}

func TestIssuesSimilar_RespectsLimit(t *testing.T) {
	fx := newIssuesFixture()
	self := embeddedIssue("n-self")
	fx.issues.findOne = &self
	fx.vectors.results = []search.Result{
		search.NewResult("n-2", 0.91),
		search.NewResult("n-3", 0.88),
		search.NewResult("n-4", 0.75),
	}
	fx.items.rows["n-2"] = testItem("n-2")
	fx.items.rows["n-3"] = testItem("n-3")
	fx.items.rows["n-4"] = testItem("n-4")

	items, err := fx.service().Similar(context.Background(), "n-self", 2)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want the requested limit", len(items))
	}
}

func TestIssuesSimilar_NoEmbeddingMeansNoNeighborhood(t *testing.T) {
	fx := newIssuesFixture()
	bare := issue.NewIssue("n-bare", "R_alpha", "title", "body", nil,
		issue.StateOpen, "https://github.com/octo/alpha/issues/1",
		time.Now().UTC(), scoring.NewQComponents(false, false, 0))
	fx.issues.findOne = &bare

	items, err := fx.service().Similar(context.Background(), "n-bare", 10)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len(items) = %d, want 0 for an unembedded issue", len(items))
	}
	if fx.vectors.calls != 0 {
		t.Error("no vector search may run without a source embedding")
	}
}

func TestIssuesSimilar_UnknownIsNotFound(t *testing.T) {
	fx := newIssuesFixture()

	_, err := fx.service().Similar(context.Background(), "n-missing", 10)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Similar() error = %v, want ErrNotFound", err)
	}
}

func TestIssues_Closed(t *testing.T) {
	fx := newIssuesFixture()
	fx.closed.Store(true)

	if _, err := fx.service().Detail(context.Background(), "n-1"); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Detail() error = %v, want ErrClientClosed", err)
	}
	if _, err := fx.service().Similar(context.Background(), "n-1", 5); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Similar() error = %v, want ErrClientClosed", err)
	}
}
