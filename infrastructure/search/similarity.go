package search

import (
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical).
// Returns 0 if either vector has zero magnitude or dimensions differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// SimilarityMatch holds an issue node ID and its similarity score.
type SimilarityMatch struct {
	nodeID     string
	similarity float64
}

// NewSimilarityMatch creates a new SimilarityMatch.
func NewSimilarityMatch(nodeID string, similarity float64) SimilarityMatch {
	return SimilarityMatch{nodeID: nodeID, similarity: similarity}
}

// NodeID returns the issue node ID.
func (m SimilarityMatch) NodeID() string { return m.nodeID }

// Similarity returns the similarity score.
func (m SimilarityMatch) Similarity() float64 { return m.similarity }

// StoredVector holds an issue embedding loaded for in-memory scoring.
type StoredVector struct {
	nodeID    string
	embedding []float64
}

// NewStoredVector creates a new StoredVector.
func NewStoredVector(nodeID string, embedding []float64) StoredVector {
	vec := make([]float64, len(embedding))
	copy(vec, embedding)
	return StoredVector{nodeID: nodeID, embedding: vec}
}

// NodeID returns the issue node ID.
func (v StoredVector) NodeID() string { return v.nodeID }

// Embedding returns the embedding vector (copy).
func (v StoredVector) Embedding() []float64 {
	result := make([]float64, len(v.embedding))
	copy(result, v.embedding)
	return result
}

// TopKSimilar finds the top-k vectors most similar to the query, sorted by
// similarity descending with node ID breaking ties so results are stable.
func TopKSimilar(query []float64, vectors []StoredVector, k int) []SimilarityMatch {
	if len(vectors) == 0 || k <= 0 {
		return []SimilarityMatch{}
	}

	matches := make([]SimilarityMatch, 0, len(vectors))
	for _, v := range vectors {
		matches = append(matches, NewSimilarityMatch(v.nodeID, CosineSimilarity(query, v.embedding)))
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].similarity != matches[j].similarity {
			return matches[i].similarity > matches[j].similarity
		}
		return matches[i].nodeID < matches[j].nodeID
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}
