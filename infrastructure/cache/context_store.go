package cache

import (
	"context"
	"errors"
	"time"

	"github.com/gimlabs/gim/domain/event"
	"github.com/gimlabs/gim/domain/search"
)

const (
	searchContextPrefix = "gim:search:ctx:"
	batchContextPrefix  = "gim:reco:batch:"
)

type searchContextPayload struct {
	Query       string   `json:"query"`
	Languages   []string `json:"languages,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Repos       []string `json:"repos,omitempty"`
	ResultCount int      `json:"result_count"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
}

// SearchContextStore implements search.ContextStore on Redis. Contexts live
// for the configured TTL; an interact call after expiry sees not-found.
type SearchContextStore struct {
	client *Client
	ttl    time.Duration
}

// NewSearchContextStore creates a new SearchContextStore.
func NewSearchContextStore(client *Client, ttl time.Duration) *SearchContextStore {
	return &SearchContextStore{client: client, ttl: ttl}
}

// Save caches the context under the minted search ID.
func (s *SearchContextStore) Save(ctx context.Context, searchID string, sc search.Context) error {
	payload := searchContextPayload{
		Query:       sc.Query(),
		Languages:   sc.Filters().Languages(),
		Labels:      sc.Filters().Labels(),
		Repos:       sc.Filters().Repos(),
		ResultCount: sc.ResultCount(),
		Page:        sc.Page(),
		PageSize:    sc.PageSize(),
	}
	return s.client.SetJSON(ctx, searchContextPrefix+searchID, payload, s.ttl)
}

// Find loads a context by search ID.
func (s *SearchContextStore) Find(ctx context.Context, searchID string) (search.Context, error) {
	var payload searchContextPayload
	err := s.client.GetJSON(ctx, searchContextPrefix+searchID, &payload)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return search.Context{}, search.ErrContextNotFound
		}
		return search.Context{}, err
	}
	filters := search.NewFilters(
		search.WithLanguages(payload.Languages),
		search.WithLabels(payload.Labels),
		search.WithRepos(payload.Repos),
	)
	return search.NewContext(payload.Query, filters, payload.ResultCount, payload.Page, payload.PageSize), nil
}

type batchContextPayload struct {
	BatchID        string    `json:"batch_id"`
	IssueNodeIDs   []string  `json:"issue_node_ids"`
	Page           int       `json:"page"`
	PageSize       int       `json:"page_size"`
	IsPersonalized bool      `json:"is_personalized"`
	ServedAt       time.Time `json:"served_at"`
}

// BatchContextStore implements event.ContextStore on Redis. The cached
// served order is what event submissions are validated against.
type BatchContextStore struct {
	client *Client
	ttl    time.Duration
}

// NewBatchContextStore creates a new BatchContextStore.
func NewBatchContextStore(client *Client, ttl time.Duration) *BatchContextStore {
	return &BatchContextStore{client: client, ttl: ttl}
}

// Save caches the batch context under its batch ID.
func (s *BatchContextStore) Save(ctx context.Context, bc event.BatchContext) error {
	payload := batchContextPayload{
		BatchID:        bc.BatchID(),
		IssueNodeIDs:   bc.IssueNodeIDs(),
		Page:           bc.Page(),
		PageSize:       bc.PageSize(),
		IsPersonalized: bc.IsPersonalized(),
		ServedAt:       bc.ServedAt(),
	}
	return s.client.SetJSON(ctx, batchContextPrefix+bc.BatchID(), payload, s.ttl)
}

// Find loads a batch context by batch ID.
func (s *BatchContextStore) Find(ctx context.Context, batchID string) (event.BatchContext, error) {
	var payload batchContextPayload
	err := s.client.GetJSON(ctx, batchContextPrefix+batchID, &payload)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return event.BatchContext{}, event.ErrContextNotFound
		}
		return event.BatchContext{}, err
	}
	return event.NewBatchContext(
		payload.BatchID,
		payload.IssueNodeIDs,
		payload.Page,
		payload.PageSize,
		payload.IsPersonalized,
		payload.ServedAt,
	), nil
}
