package provider

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/gimlabs/gim/domain/vector"
)

// LocalProvider generates deterministic embeddings by hash projection. The
// same text always maps to the same unit vector, so search and dedup behave
// consistently across runs without a network endpoint. Vectors carry no
// semantic signal; this provider exists for development and tests.
type LocalProvider struct {
	dimensions int
}

// NewLocalProvider creates a local embedding provider. A non-positive
// dimension falls back to the engine default.
func NewLocalProvider(dimensions int) *LocalProvider {
	if dimensions <= 0 {
		dimensions = vector.Dim
	}
	return &LocalProvider{dimensions: dimensions}
}

// Embed generates one hash-projected vector per text.
func (p *LocalProvider) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	embeddings := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return EmbeddingResponse{}, err
		}
		embeddings[i] = p.project(text)
	}
	return NewEmbeddingResponse(embeddings, NewUsage(0, 0)), nil
}

// project expands the text's SHA-256 digest into a unit vector. Each digest
// yields eight float components; the digest is re-hashed whenever more are
// needed.
func (p *LocalProvider) project(text string) []float64 {
	out := make([]float64, p.dimensions)
	block := sha256.Sum256([]byte(text))
	for i := 0; i < p.dimensions; i++ {
		if i > 0 && i%8 == 0 {
			block = sha256.Sum256(block[:])
		}
		off := (i % 8) * 4
		u := binary.BigEndian.Uint32(block[off : off+4])
		out[i] = float64(u)/math.MaxUint32*2 - 1
	}
	if normalized := vector.Normalize(out); normalized != nil {
		return normalized
	}
	return out
}

// Close is a no-op for the local provider.
func (p *LocalProvider) Close() error {
	return nil
}

// Ensure LocalProvider implements the interface.
var _ Embedder = (*LocalProvider)(nil)
