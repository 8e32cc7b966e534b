package search

import "sort"

// Fusion combines ranked result lists using Reciprocal Rank Fusion.
type Fusion struct {
	k float64 // RRF constant (typically 60)
}

// NewFusion creates a Fusion with the default RRF constant.
func NewFusion() Fusion {
	return Fusion{k: 60.0}
}

// NewFusionWithK creates a Fusion with a custom RRF constant.
func NewFusionWithK(k float64) Fusion {
	if k <= 0 {
		k = 60.0
	}
	return Fusion{k: k}
}

// Fuse combines ranked lists. Each input list must be sorted best-first;
// a document at 1-based rank r in a list contributes 1/(k+r). Documents
// are ordered by fused score descending, ties broken by the smaller rank
// the document achieved in any list, then by ID ascending so the fused
// order is fully deterministic.
func (f Fusion) Fuse(lists ...[]Result) []FusionResult {
	if len(lists) == 0 {
		return []FusionResult{}
	}

	scores := make(map[string]float64)
	bestRank := make(map[string]int)
	originals := make(map[string][]float64)

	for listIdx, list := range lists {
		for i, res := range list {
			rank := i + 1
			id := res.NodeID()

			scores[id] += 1.0 / (f.k + float64(rank))
			if prev, seen := bestRank[id]; !seen || rank < prev {
				bestRank[id] = rank
			}
			if _, seen := originals[id]; !seen {
				originals[id] = make([]float64, len(lists))
			}
			originals[id][listIdx] = res.Score()
		}
	}

	results := make([]FusionResult, 0, len(scores))
	for id, score := range scores {
		results = append(results, NewFusionResult(id, score, bestRank[id], originals[id]))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score() != results[j].Score() {
			return results[i].Score() > results[j].Score()
		}
		if results[i].BestRank() != results[j].BestRank() {
			return results[i].BestRank() < results[j].BestRank()
		}
		return results[i].ID() < results[j].ID()
	})

	return results
}

// FuseTopK combines ranked lists and keeps the best topK documents.
func (f Fusion) FuseTopK(topK int, lists ...[]Result) []FusionResult {
	results := f.Fuse(lists...)

	if topK <= 0 || topK >= len(results) {
		return results
	}

	return results[:topK]
}

// K returns the RRF constant.
func (f Fusion) K() float64 {
	return f.k
}
