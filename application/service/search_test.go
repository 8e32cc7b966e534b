package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gimlabs/gim/domain/event"
	"github.com/gimlabs/gim/domain/repository"
	"github.com/gimlabs/gim/domain/search"
)

// fakeLexicalStore implements search.LexicalStore for testing.
type fakeLexicalStore struct {
	results []search.Result
	err     error
	calls   int
}

func (f *fakeLexicalStore) Search(_ context.Context, _ ...repository.Option) ([]search.Result, error) {
	f.calls++
	return f.results, f.err
}

// fakeVectorStore implements search.VectorStore for testing.
type fakeVectorStore struct {
	results []search.Result
	err     error
	calls   int
}

func (f *fakeVectorStore) Search(_ context.Context, _ ...repository.Option) ([]search.Result, error) {
	f.calls++
	return f.results, f.err
}

// fakeItemStore implements search.ItemStore for testing. Rows come back in
// whatever order the map yields so order restoration is actually exercised.
type fakeItemStore struct {
	rows map[string]search.Item
	err  error
}

func (f *fakeItemStore) FindItems(_ context.Context, nodeIDs []string) ([]search.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	items := make([]search.Item, 0, len(nodeIDs))
	for _, row := range f.rows {
		items = append(items, row)
	}
	return items, nil
}

// fakeQueryEmbedder implements search.Embedder for testing.
type fakeQueryEmbedder struct {
	vec   []float64
	err   error
	calls int
}

func (f *fakeQueryEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

// fakeCandidateCache implements search.CandidateCache for testing.
type fakeCandidateCache struct {
	entries  map[string]search.Candidates
	getErr   error
	setErr   error
	setCalls int
}

func newFakeCandidateCache() *fakeCandidateCache {
	return &fakeCandidateCache{entries: make(map[string]search.Candidates)}
}

func (f *fakeCandidateCache) Get(_ context.Context, key string) (search.Candidates, bool, error) {
	if f.getErr != nil {
		return search.Candidates{}, false, f.getErr
	}
	c, ok := f.entries[key]
	return c, ok, nil
}

func (f *fakeCandidateCache) Set(_ context.Context, key string, c search.Candidates) error {
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = c
	return nil
}

// fakeSearchContextStore implements search.ContextStore for testing.
type fakeSearchContextStore struct {
	saved   map[string]search.Context
	saveErr error
	findErr error
}

func newFakeSearchContextStore() *fakeSearchContextStore {
	return &fakeSearchContextStore{saved: make(map[string]search.Context)}
}

func (f *fakeSearchContextStore) Save(_ context.Context, searchID string, sc search.Context) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[searchID] = sc
	return nil
}

func (f *fakeSearchContextStore) Find(_ context.Context, searchID string) (search.Context, error) {
	if f.findErr != nil {
		return search.Context{}, f.findErr
	}
	sc, ok := f.saved[searchID]
	if !ok {
		return search.Context{}, search.ErrContextNotFound
	}
	return sc, nil
}

// fakeInteractionStore implements event.InteractionStore for testing.
type fakeInteractionStore struct {
	rows []event.SearchInteraction
	err  error
}

func (f *fakeInteractionStore) Insert(_ context.Context, in event.SearchInteraction) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, in)
	return nil
}

func testItem(nodeID string) search.Item {
	return search.NewItem(nodeID, "title "+nodeID, "body", "https://github.com/o/r/issues/1",
		[]string{"bug"}, 0.8, "o/r", "Go", time.Now(), 0)
}

type searchFixture struct {
	lexical      *fakeLexicalStore
	vectors      *fakeVectorStore
	items        *fakeItemStore
	embedder     *fakeQueryEmbedder
	cache        *fakeCandidateCache
	contexts     *fakeSearchContextStore
	interactions *fakeInteractionStore
	closed       *atomic.Bool
}

func newSearchFixture() *searchFixture {
	return &searchFixture{
		lexical:      &fakeLexicalStore{},
		vectors:      &fakeVectorStore{},
		items:        &fakeItemStore{rows: make(map[string]search.Item)},
		embedder:     &fakeQueryEmbedder{vec: []float64{0.1, 0.2}},
		cache:        newFakeCandidateCache(),
		contexts:     newFakeSearchContextStore(),
		interactions: &fakeInteractionStore{},
		closed:       &atomic.Bool{},
	}
}

func (fx *searchFixture) service() *Search {
	return NewSearch(fx.lexical, fx.vectors, fx.items, fx.embedder,
		fx.cache, fx.contexts, fx.interactions, fx.closed, nil)
}

func TestSearch_Query_FusesBothPathsAndRestoresOrder(t *testing.T) {
	fx := newSearchFixture()
	// Lexical serves A then B; vector serves B then C. B scores
	// 1/61 + 1/62, A scores 1/61, C scores 1/62, so the fused order
	// must be B, A, C regardless of what order hydration returns rows.
	fx.lexical.results = []search.Result{
		search.NewResult("A", 0.9),
		search.NewResult("B", 0.5),
	}
	fx.vectors.results = []search.Result{
		search.NewResult("B", 0.8),
		search.NewResult("C", 0.7),
	}
	for _, id := range []string{"A", "B", "C"} {
		fx.items.rows[id] = testItem(id)
	}

	q := search.NewQuery("implement raft consensus protocol", search.NewFilters())
	page, err := fx.service().Query(context.Background(), q)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	items := page.Items()
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for i, want := range []string{"B", "A", "C"} {
		if items[i].NodeID() != want {
			t.Errorf("position %d: got %s, want %s", i, items[i].NodeID(), want)
		}
	}
	if items[0].RRFScore() <= items[1].RRFScore() {
		t.Error("fused score must decrease down the page")
	}
	if page.Total() != 3 {
		t.Errorf("total = %d, want 3", page.Total())
	}
	if page.IsCapped() {
		t.Error("nothing hit the candidate limit")
	}
	if page.SearchID() == "" {
		t.Error("search ID missing")
	}
	if len(fx.contexts.saved) != 1 {
		t.Fatalf("expected one saved context, got %d", len(fx.contexts.saved))
	}
	sctx := fx.contexts.saved[page.SearchID()]
	if sctx.ResultCount() != 3 {
		t.Errorf("context result count = %d, want 3", sctx.ResultCount())
	}
}

func TestSearch_Query_RepeatHitsCandidateCache(t *testing.T) {
	fx := newSearchFixture()
	fx.lexical.results = []search.Result{search.NewResult("A", 1)}
	fx.items.rows["A"] = testItem("A")

	q := search.NewQuery("implement raft consensus protocol", search.NewFilters())
	svc := fx.service()

	if _, err := svc.Query(context.Background(), q); err != nil {
		t.Fatalf("first query: %v", err)
	}
	if _, err := svc.Query(context.Background(), q); err != nil {
		t.Fatalf("second query: %v", err)
	}

	if fx.lexical.calls != 1 {
		t.Errorf("lexical store hit %d times, want 1 (second query must come from cache)", fx.lexical.calls)
	}
	if fx.cache.setCalls != 1 {
		t.Errorf("cache written %d times, want 1", fx.cache.setCalls)
	}
}

func TestSearch_Query_BlankTextRejected(t *testing.T) {
	fx := newSearchFixture()
	svc := fx.service()

	for _, text := range []string{"", "   "} {
		_, err := svc.Query(context.Background(), search.NewQuery(text, search.NewFilters()))
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("text %q: got %v, want ErrInvalidInput", text, err)
		}
	}
}

func TestSearch_Query_ShortQuerySkipsVectorPath(t *testing.T) {
	fx := newSearchFixture()
	fx.lexical.results = []search.Result{search.NewResult("A", 1)}
	fx.items.rows["A"] = testItem("A")

	q := search.NewQuery("rust segfault", search.NewFilters())
	if _, err := fx.service().Query(context.Background(), q); err != nil {
		t.Fatalf("Query: %v", err)
	}

	if fx.embedder.calls != 0 {
		t.Error("two-token query must not be embedded")
	}
	if fx.vectors.calls != 0 {
		t.Error("two-token query must not reach the vector store")
	}
}

func TestSearch_Query_EmbedFailureDegradesToLexical(t *testing.T) {
	fx := newSearchFixture()
	fx.embedder.err = errors.New("model unavailable")
	fx.lexical.results = []search.Result{search.NewResult("A", 1)}
	fx.items.rows["A"] = testItem("A")

	q := search.NewQuery("implement raft consensus protocol", search.NewFilters())
	page, err := fx.service().Query(context.Background(), q)
	if err != nil {
		t.Fatalf("embedding failure must not fail the search: %v", err)
	}
	if len(page.Items()) != 1 {
		t.Fatalf("got %d items, want the lexical result", len(page.Items()))
	}
	if fx.vectors.calls != 0 {
		t.Error("vector store must be skipped when the query cannot be embedded")
	}
}

func TestSearch_Query_CapFlagsLowerBoundTotal(t *testing.T) {
	fx := newSearchFixture()
	results := make([]search.Result, search.CandidateLimit)
	for i := range results {
		id := "node-" + string(rune('a'+i%26)) + string(rune('a'+(i/26)%26))
		results[i] = search.NewResult(id, float64(search.CandidateLimit-i))
	}
	fx.lexical.results = results

	q := search.NewQuery("implement raft consensus protocol", search.NewFilters())
	page, err := fx.service().Query(context.Background(), q)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !page.IsCapped() {
		t.Error("a full stage-1 list must mark the total as capped")
	}
}

func TestSearch_Query_Closed(t *testing.T) {
	fx := newSearchFixture()
	fx.closed.Store(true)

	_, err := fx.service().Query(context.Background(), search.NewQuery("anything at all", search.NewFilters()))
	if !errors.Is(err, ErrClientClosed) {
		t.Errorf("got %v, want ErrClientClosed", err)
	}
}

func TestSearch_Interact_ValidatesPositionAgainstServedPage(t *testing.T) {
	fx := newSearchFixture()
	// 30 results were found but only 20 served on the page.
	fx.contexts.saved["s-1"] = search.NewContext("query", search.NewFilters(), 30, 1, 20)
	svc := fx.service()

	for pos := 0; pos < 20; pos++ {
		if err := svc.Interact(context.Background(), "u-1", "s-1", "node", pos); err != nil {
			t.Fatalf("position %d: %v", pos, err)
		}
	}
	if len(fx.interactions.rows) != 20 {
		t.Errorf("persisted %d interactions, want 20", len(fx.interactions.rows))
	}

	for _, pos := range []int{-1, 20, 25} {
		err := svc.Interact(context.Background(), "u-1", "s-1", "node", pos)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("position %d: got %v, want ErrInvalidInput", pos, err)
		}
	}
	if len(fx.interactions.rows) != 20 {
		t.Error("rejected positions must not be persisted")
	}
}

func TestSearch_Interact_ExpiredContext(t *testing.T) {
	fx := newSearchFixture()
	svc := fx.service()

	err := svc.Interact(context.Background(), "u-1", "gone", "node", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}

	fx.contexts.findErr = errors.New("redis down")
	err = svc.Interact(context.Background(), "u-1", "s-1", "node", 0)
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Errorf("got %v, want ErrDependencyUnavailable", err)
	}
}

func TestSearch_Interact_InsertFailureIsBestEffort(t *testing.T) {
	fx := newSearchFixture()
	fx.contexts.saved["s-1"] = search.NewContext("query", search.NewFilters(), 10, 1, 20)
	fx.interactions.err = errors.New("analytics table gone")

	if err := fx.service().Interact(context.Background(), "u-1", "s-1", "node", 0); err != nil {
		t.Errorf("telemetry failure must not surface: %v", err)
	}
}
