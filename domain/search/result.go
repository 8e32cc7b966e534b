package search

import (
	"strings"
	"time"
)

// Result is one row of a stage-1 subquery: a node ID with the subquery's
// native score (text rank for lexical, similarity for vector).
type Result struct {
	nodeID string
	score  float64
}

// NewResult creates a Result.
func NewResult(nodeID string, score float64) Result {
	return Result{nodeID: nodeID, score: score}
}

// NodeID returns the issue node ID.
func (r Result) NodeID() string { return r.nodeID }

// Score returns the subquery's native score.
func (r Result) Score() float64 { return r.score }

// FusionResult is one fused candidate with its RRF score.
type FusionResult struct {
	id             string
	score          float64
	bestRank       int
	originalScores []float64
}

// NewFusionResult creates a FusionResult.
func NewFusionResult(id string, score float64, bestRank int, originalScores []float64) FusionResult {
	scores := make([]float64, len(originalScores))
	copy(scores, originalScores)
	return FusionResult{
		id:             id,
		score:          score,
		bestRank:       bestRank,
		originalScores: scores,
	}
}

// ID returns the issue node ID.
func (f FusionResult) ID() string { return f.id }

// Score returns the fused RRF score.
func (f FusionResult) Score() float64 { return f.score }

// BestRank returns the best 1-based rank the document achieved in any
// contributing list.
func (f FusionResult) BestRank() int { return f.bestRank }

// OriginalScores returns the native score from each contributing list.
func (f FusionResult) OriginalScores() []float64 {
	scores := make([]float64, len(f.originalScores))
	copy(scores, f.originalScores)
	return scores
}

// Candidates is the ordered stage-1 output.
type Candidates struct {
	results  []FusionResult
	isCapped bool
}

// NewCandidates creates a Candidates set. isCapped marks that at least one
// subquery hit CandidateLimit, so the total is a lower bound.
func NewCandidates(results []FusionResult, isCapped bool) Candidates {
	cp := make([]FusionResult, len(results))
	copy(cp, results)
	return Candidates{results: cp, isCapped: isCapped}
}

// Len returns the number of fused candidates.
func (c Candidates) Len() int { return len(c.results) }

// IsCapped reports whether a subquery hit the candidate limit.
func (c Candidates) IsCapped() bool { return c.isCapped }

// Results returns all fused candidates in rank order.
func (c Candidates) Results() []FusionResult {
	cp := make([]FusionResult, len(c.results))
	copy(cp, c.results)
	return cp
}

// Page returns the candidates in [offset, offset+limit), bounds-safe.
func (c Candidates) Page(offset, limit int) []FusionResult {
	if offset < 0 || offset >= len(c.results) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(c.results) {
		end = len(c.results)
	}
	page := make([]FusionResult, end-offset)
	copy(page, c.results[offset:end])
	return page
}

// IDs returns all candidate node IDs in rank order.
func (c Candidates) IDs() []string {
	ids := make([]string, len(c.results))
	for i, r := range c.results {
		ids[i] = r.ID()
	}
	return ids
}

// Item is a stage-2 result row: the candidate joined to its repository and
// projected for presentation. Stage 2 preserves stage-1 order exactly.
type Item struct {
	nodeID          string
	title           string
	bodyPreview     string
	htmlURL         string
	labels          []string
	qScore          float64
	repoName        string
	primaryLanguage string
	githubCreatedAt time.Time
	rrfScore        float64
}

// NewItem creates an Item from an enrichment row. The body is truncated to
// BodyPreviewRunes here so previews are uniform across surfaces.
func NewItem(
	nodeID string,
	title string,
	body string,
	htmlURL string,
	labels []string,
	qScore float64,
	repoName string,
	primaryLanguage string,
	githubCreatedAt time.Time,
	rrfScore float64,
) Item {
	lb := make([]string, len(labels))
	copy(lb, labels)
	return Item{
		nodeID:          nodeID,
		title:           title,
		bodyPreview:     TruncatePreview(body),
		htmlURL:         htmlURL,
		labels:          lb,
		qScore:          qScore,
		repoName:        repoName,
		primaryLanguage: primaryLanguage,
		githubCreatedAt: githubCreatedAt,
		rrfScore:        rrfScore,
	}
}

// WithRRFScore returns a copy carrying the stage-1 fused score.
func (i Item) WithRRFScore(score float64) Item {
	i.rrfScore = score
	return i
}

// NodeID returns the issue node ID.
func (i Item) NodeID() string { return i.nodeID }

// Title returns the issue title.
func (i Item) Title() string { return i.title }

// BodyPreview returns the truncated body text.
func (i Item) BodyPreview() string { return i.bodyPreview }

// HTMLURL returns the issue's GitHub URL.
func (i Item) HTMLURL() string { return i.htmlURL }

// Labels returns the issue labels in source order.
func (i Item) Labels() []string {
	lb := make([]string, len(i.labels))
	copy(lb, i.labels)
	return lb
}

// QScore returns the issue's quality score.
func (i Item) QScore() float64 { return i.qScore }

// RepoName returns the repository full name.
func (i Item) RepoName() string { return i.repoName }

// PrimaryLanguage returns the repository's primary language.
func (i Item) PrimaryLanguage() string { return i.primaryLanguage }

// GitHubCreatedAt returns the issue's creation time at the source.
func (i Item) GitHubCreatedAt() time.Time { return i.githubCreatedAt }

// RRFScore returns the stage-1 fused score carried onto the item.
func (i Item) RRFScore() float64 { return i.rrfScore }

// TruncatePreview caps text at BodyPreviewRunes runes, appending an
// ellipsis when something was cut.
func TruncatePreview(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= BodyPreviewRunes {
		return text
	}
	return string(runes[:BodyPreviewRunes]) + "…"
}
