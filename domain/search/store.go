package search

import (
	"context"

	"github.com/gimlabs/gim/domain/repository"
)

// Embedder converts text into embedding vectors. A nil vector in the output
// marks a text the upstream could not embed.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// LexicalStore runs the full-text subquery. Query text is passed via
// WithQuery, filters via WithFilters, and the candidate cap via
// repository.WithLimit.
type LexicalStore interface {
	Search(ctx context.Context, options ...repository.Option) ([]Result, error)
}

// VectorStore runs the similarity subquery. The query embedding is passed
// via WithEmbedding; only open issues with a stored embedding participate.
type VectorStore interface {
	Search(ctx context.Context, options ...repository.Option) ([]Result, error)
}

// ItemStore enriches fused candidates into presentation rows. Results come
// back in arbitrary order; callers restore stage-1 order.
type ItemStore interface {
	FindItems(ctx context.Context, nodeIDs []string) ([]Item, error)
}

// ContextStore persists the per-response Context under its minted search ID
// so a later interact call can validate the clicked position. Find returns
// ErrContextNotFound once the context expires.
type ContextStore interface {
	Save(ctx context.Context, searchID string, sc Context) error
	Find(ctx context.Context, searchID string) (Context, error)
}

// CandidateCache holds fused stage-1 candidate sets keyed by CacheKey, so
// repeat queries inside the TTL skip both subqueries and fusion. A miss is
// ordinary control flow: Get reports it with ok=false and a nil error.
type CandidateCache interface {
	Get(ctx context.Context, key string) (Candidates, bool, error)
	Set(ctx context.Context, key string, candidates Candidates) error
}
