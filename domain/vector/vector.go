// Package vector provides the fixed-dimension embedding math shared by the
// search engine, the feed ranker and profile composition.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// Dim is the embedding dimension of the issue corpus. Profile vectors share
// the same dimension.
const Dim = 768

// ErrDimensionMismatch indicates a vector of the wrong length.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// ErrNotFinite indicates a vector containing NaN or Inf components.
var ErrNotFinite = errors.New("vector contains non-finite components")

// Validate checks that v has exactly Dim finite components. Nil is valid:
// it represents an absent embedding.
func Validate(v []float64) error {
	if v == nil {
		return nil
	}
	return ValidateDim(v, Dim)
}

// ValidateDim checks that v has exactly dim finite components.
func ValidateDim(v []float64, dim int) error {
	if len(v) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), dim)
	}
	for i, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: component %d", ErrNotFinite, i)
		}
	}
	return nil
}

// Norm returns the L2 norm of v.
func Norm(v []float64) float64 {
	var sum float64
	for _, f := range v {
		sum += f * f
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-norm copy of v. Zero or nil vectors return nil
// since they have no direction.
func Normalize(v []float64) []float64 {
	n := Norm(v)
	if n == 0 {
		return nil
	}
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = f / n
	}
	return out
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// WeightedSum normalizes each input vector, sums them under the given
// weights and returns the L2-normalized result. Inputs and weights must
// pair up; nil inputs are not allowed here, callers filter absent sources
// first. Returns nil when the weighted sum has no direction.
func WeightedSum(vectors [][]float64, weights []float64) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, nil
	}
	if len(vectors) != len(weights) {
		return nil, fmt.Errorf("weighted sum: %d vectors, %d weights", len(vectors), len(weights))
	}
	dim := len(vectors[0])
	sum := make([]float64, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d components, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		unit := Normalize(v)
		if unit == nil {
			continue
		}
		for j, f := range unit {
			sum[j] += weights[i] * f
		}
	}
	return Normalize(sum), nil
}
