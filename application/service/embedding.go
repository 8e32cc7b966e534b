package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/domain/vector"
	"github.com/gimlabs/gim/infrastructure/provider"
	"github.com/gimlabs/gim/internal/config"
)

// Source embedding retry policy. Profile sources are worth a few attempts
// because a nil vector there degrades the whole feed to trending.
const (
	sourceEmbedRetries = 2 // attempts = retries + 1
	sourceEmbedBase    = time.Second
	sourceEmbedFactor  = 2.0
	embeddingProbeText = "embedding health probe"
)

// errNoVector marks a call that succeeded at the transport level but
// produced no usable vector.
var errNoVector = errors.New("embedding yielded no vector")

// ProviderFactory builds the embedding provider on first use. Lazy
// construction means a process that never embeds never dials upstream.
type ProviderFactory func() (provider.Embedder, error)

// Embedding issues unit-norm vectors for queries, issues and profile
// sources. One instance serves the whole process; the provider behind it
// is initialized on first use and released exactly once by Close.
type Embedding struct {
	factory ProviderFactory
	budget  search.TokenBudget
	logger  *slog.Logger

	mu       sync.Mutex
	provider provider.Embedder
	closed   bool
}

// NewEmbedding creates the process-wide embedding service. batchSize caps
// texts per upstream call; values below one fall back to the endpoint
// default. Batches additionally stay under a character budget so a run of
// long issue bodies cannot blow the model's token limit.
func NewEmbedding(factory ProviderFactory, batchSize int, logger *slog.Logger) *Embedding {
	if batchSize < 1 {
		batchSize = config.DefaultEndpointMaxBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedding{
		factory: factory,
		budget:  search.DefaultTokenBudget().WithMaxBatchSize(batchSize),
		logger:  logger,
	}
}

// ready returns the provider, constructing it under the lock on first use.
func (s *Embedding) ready() (provider.Embedder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClientClosed
	}
	if s.provider != nil {
		return s.provider, nil
	}
	p, err := s.factory()
	if err != nil {
		return nil, fmt.Errorf("initialize embedding provider: %w", err)
	}
	s.provider = p
	s.logger.Debug("embedding provider initialized", slog.Int("batch_size", s.budget.MaxBatchSize()))
	return p, nil
}

// Embed returns one vector per input text, batching upstream calls under
// the token budget; over-long texts are truncated before they go out. A
// nil entry marks a text the provider could not embed; a failed batch
// yields nil entries for its texts rather than failing the call. The only
// hard errors are a closed client, a provider that cannot be constructed,
// and a cancelled context.
func (s *Embedding) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	p, err := s.ready()
	if err != nil {
		return nil, err
	}

	out := make([][]float64, len(texts))
	start := 0
	for _, batch := range s.budget.Batches(texts) {
		resp, err := p.Embed(ctx, provider.NewEmbeddingRequest(batch))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Error("embedding batch failed",
				slog.Int("batch_start", start),
				slog.Int("batch_size", len(batch)),
				slog.String("error", err.Error()))
			start += len(batch)
			continue
		}
		for i, vec := range resp.Embeddings() {
			if start+i >= len(out) {
				break
			}
			out[start+i] = s.sanitize(vec)
		}
		start += len(batch)
	}
	return out, nil
}

// EmbedOne embeds a single text. Nil means the text could not be embedded;
// callers treat nil as "skip", never as a reason to fail a request.
func (s *Embedding) EmbedOne(ctx context.Context, text string) []float64 {
	vecs, err := s.Embed(ctx, []string{text})
	if err != nil || len(vecs) != 1 {
		return nil
	}
	return vecs[0]
}

// EmbedWithRetry embeds a single text under exponential backoff. Meant for
// profile source vectors where a transient upstream failure should not
// leave the user on the trending fallback until the next recompute. Final
// failure logs and returns nil.
func (s *Embedding) EmbedWithRetry(ctx context.Context, text string) []float64 {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = sourceEmbedBase
	policy.Multiplier = sourceEmbedFactor

	var vec []float64
	operation := func() error {
		vecs, err := s.Embed(ctx, []string{text})
		if err != nil {
			if errors.Is(err, ErrClientClosed) {
				return backoff.Permanent(err)
			}
			return err
		}
		if len(vecs) != 1 || vecs[0] == nil {
			return errNoVector
		}
		vec = vecs[0]
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, sourceEmbedRetries), ctx))
	if err != nil {
		s.logger.Error("source embedding failed after retries", slog.String("error", err.Error()))
		return nil
	}
	return vec
}

// Healthy reports whether the provider can produce a corpus-dimension
// vector right now. Used by readiness checks.
func (s *Embedding) Healthy(ctx context.Context) bool {
	vecs, err := s.Embed(ctx, []string{embeddingProbeText})
	return err == nil && len(vecs) == 1 && vecs[0] != nil
}

// AssertDim validates an externally sourced vector against the corpus
// dimension.
func (s *Embedding) AssertDim(vec []float64) error {
	return vector.Validate(vec)
}

// Close releases the provider. Safe to call more than once; embedding
// calls after Close return ErrClientClosed.
func (s *Embedding) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.provider == nil {
		return nil
	}
	p := s.provider
	s.provider = nil
	if err := p.Close(); err != nil {
		return fmt.Errorf("close embedding provider: %w", err)
	}
	return nil
}

// sanitize normalizes an upstream vector and enforces the corpus
// dimension. Anything unusable becomes nil.
func (s *Embedding) sanitize(vec []float64) []float64 {
	if vec == nil {
		return nil
	}
	normalized := vector.Normalize(vec)
	if normalized == nil {
		return nil
	}
	if err := vector.Validate(normalized); err != nil {
		s.logger.Warn("discarding malformed embedding",
			slog.Int("got_dim", len(vec)),
			slog.Int("want_dim", vector.Dim))
		return nil
	}
	return normalized
}

var _ search.Embedder = (*Embedding)(nil)
