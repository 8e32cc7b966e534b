package cache

import (
	"context"
	"errors"
	"time"

	"github.com/gimlabs/gim/domain/search"
)

type fusionResultPayload struct {
	ID             string    `json:"id"`
	Score          float64   `json:"score"`
	BestRank       int       `json:"best_rank"`
	OriginalScores []float64 `json:"original_scores,omitempty"`
}

type candidatesPayload struct {
	Results  []fusionResultPayload `json:"results"`
	IsCapped bool                  `json:"is_capped"`
}

// CandidateCache implements search.CandidateCache on Redis. Keys arrive
// fully derived from search.CacheKey, so this store adds no prefix of its
// own.
type CandidateCache struct {
	client *Client
	ttl    time.Duration
}

// NewCandidateCache creates a new CandidateCache.
func NewCandidateCache(client *Client, ttl time.Duration) *CandidateCache {
	return &CandidateCache{client: client, ttl: ttl}
}

// Get loads a cached candidate set.
func (c *CandidateCache) Get(ctx context.Context, key string) (search.Candidates, bool, error) {
	var payload candidatesPayload
	err := c.client.GetJSON(ctx, key, &payload)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return search.Candidates{}, false, nil
		}
		return search.Candidates{}, false, err
	}
	results := make([]search.FusionResult, len(payload.Results))
	for i, r := range payload.Results {
		results[i] = search.NewFusionResult(r.ID, r.Score, r.BestRank, r.OriginalScores)
	}
	return search.NewCandidates(results, payload.IsCapped), true, nil
}

// Set stores a candidate set for the configured TTL.
func (c *CandidateCache) Set(ctx context.Context, key string, candidates search.Candidates) error {
	results := candidates.Results()
	payload := candidatesPayload{
		Results:  make([]fusionResultPayload, len(results)),
		IsCapped: candidates.IsCapped(),
	}
	for i, r := range results {
		payload.Results[i] = fusionResultPayload{
			ID:             r.ID(),
			Score:          r.Score(),
			BestRank:       r.BestRank(),
			OriginalScores: r.OriginalScores(),
		}
	}
	return c.client.SetJSON(ctx, key, payload, c.ttl)
}
