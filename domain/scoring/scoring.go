// Package scoring implements the quality gate for harvested issues: the
// Q-score components, the survival score used by the janitor, the freshness
// decay shared with feed ranking, and the junk filter. Everything here is a
// pure function of issue content so scores never drift unless content does.
package scoring

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/gimlabs/gim/domain/taxonomy"
)

const (
	// Q-score component weights. They sum to 1 so the weighted sum is
	// already in [0,1]; the clamp guards future weight changes.
	WeightHasCode         = 0.35
	WeightTemplateHeaders = 0.25
	WeightTechStack       = 0.40

	// FreshnessHalfLifeDays halves an issue's freshness every week.
	FreshnessHalfLifeDays = 7.0

	// FreshnessFloor keeps old issues rankable in the feed.
	FreshnessFloor = 0.2

	// minBodyRunes is the shortest body that is not junk.
	minBodyRunes = 20

	// techStackSaturation is the matched-keyword weight sum that maps to
	// a tech_stack_weight of 1.0.
	techStackSaturation = 3.0

	// nonLatinJunkRatio is the letter fraction above which a body counts
	// as non-English.
	nonLatinJunkRatio = 0.5
)

// templateHeaders are normalized header phrases recognized from common
// issue templates.
var templateHeaders = []string{
	"steps to reproduce",
	"to reproduce",
	"expected behavior",
	"expected behaviour",
	"actual behavior",
	"actual behaviour",
	"current behavior",
	"current behaviour",
	"describe the bug",
	"what happened",
	"reproduction",
	"environment",
	"additional context",
	"proposed solution",
	"possible solution",
}

// boilerplatePhrases are bodies that carry no information on their own.
var boilerplatePhrases = map[string]struct{}{
	"no description provided": {},
	"no description":          {},
	"see title":               {},
	"same as title":           {},
	"as title":                {},
	"n/a":                     {},
	"none":                    {},
	"todo":                    {},
	"wip":                     {},
	"+1":                      {},
	"placeholder":             {},
}

// QComponents holds the content-derived inputs to the Q-score.
type QComponents struct {
	hasCode            bool
	hasTemplateHeaders bool
	techStackWeight    float64
}

// ComputeComponents evaluates all Q-score components for one issue.
// language may be any spelling; it is normalized before the keyword lookup.
func ComputeComponents(language, title, body string) QComponents {
	lang, _ := taxonomy.NormalizeLanguage(language)
	return QComponents{
		hasCode:            HasCode(body),
		hasTemplateHeaders: HasTemplateHeaders(body),
		techStackWeight:    TechStackWeight(lang, title, body),
	}
}

// NewQComponents builds components from already-known values, as when
// rehydrating a staged issue.
func NewQComponents(hasCode, hasTemplateHeaders bool, techStackWeight float64) QComponents {
	return QComponents{
		hasCode:            hasCode,
		hasTemplateHeaders: hasTemplateHeaders,
		techStackWeight:    clamp01(techStackWeight),
	}
}

// HasCode reports whether the issue body contains code.
func (c QComponents) HasCode() bool { return c.hasCode }

// HasTemplateHeaders reports whether the body follows an issue template.
func (c QComponents) HasTemplateHeaders() bool { return c.hasTemplateHeaders }

// TechStackWeight returns the keyword-overlap weight in [0,1].
func (c QComponents) TechStackWeight() float64 { return c.techStackWeight }

// Score returns the Q-score: the weighted component sum clamped to [0,1].
func (c QComponents) Score() float64 {
	score := c.techStackWeight * WeightTechStack
	if c.hasCode {
		score += WeightHasCode
	}
	if c.hasTemplateHeaders {
		score += WeightTemplateHeaders
	}
	return clamp01(score)
}

// HasCode reports whether body contains a fenced code block or an inline
// code span.
func HasCode(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			return true
		}
		if hasInlineCodeSpan(trimmed) {
			return true
		}
	}
	return false
}

// hasInlineCodeSpan reports whether line holds `text` with non-empty text.
func hasInlineCodeSpan(line string) bool {
	open := strings.IndexByte(line, '`')
	for open >= 0 && open < len(line)-1 {
		rest := line[open+1:]
		closing := strings.IndexByte(rest, '`')
		if closing < 0 {
			return false
		}
		if strings.TrimSpace(rest[:closing]) != "" {
			return true
		}
		next := strings.IndexByte(rest[closing+1:], '`')
		if next < 0 {
			return false
		}
		open = open + 1 + closing + 1 + next
	}
	return false
}

// HasTemplateHeaders reports whether body contains at least one markdown
// header recognized from common issue templates. Both "## Header" and
// "**Header**" forms count.
func HasTemplateHeaders(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		text, ok := headerText(strings.TrimSpace(line))
		if !ok {
			continue
		}
		text = strings.ToLower(strings.TrimRight(text, ":? "))
		for _, h := range templateHeaders {
			if strings.Contains(text, h) {
				return true
			}
		}
	}
	return false
}

// headerText extracts the text of a markdown header line.
func headerText(line string) (string, bool) {
	if rest, ok := strings.CutPrefix(line, "#"); ok {
		return strings.TrimLeft(rest, "# "), true
	}
	if inner, ok := strings.CutPrefix(line, "**"); ok {
		if inner, ok = strings.CutSuffix(inner, "**"); ok && inner != "" {
			return inner, true
		}
	}
	return "", false
}

// TechStackWeight computes the weighted overlap of the issue's tokens with
// the keyword table for language, saturating to 1.0. Unknown languages use
// the language-agnostic table.
func TechStackWeight(language, title, body string) float64 {
	tokens := taxonomy.TokenSet(title + " " + body)
	var sum float64
	for token := range tokens {
		sum += taxonomy.KeywordWeight(language, token)
	}
	return clamp01(sum / techStackSaturation)
}

// FreshnessDecay returns 1 for non-positive ages and otherwise the
// exponential decay 2^(-ageDays/halfLifeDays), floored at floor.
func FreshnessDecay(ageDays, halfLifeDays, floor float64) float64 {
	if ageDays <= 0 {
		return 1.0
	}
	if halfLifeDays <= 0 {
		halfLifeDays = FreshnessHalfLifeDays
	}
	return math.Max(floor, math.Exp2(-ageDays/halfLifeDays))
}

// SurvivalScore discounts qScore by freshness since ingestedAt, with no
// floor so abandoned issues decay toward zero and become prunable.
func SurvivalScore(qScore float64, ingestedAt, now time.Time) float64 {
	age := AgeDays(ingestedAt, now)
	return clamp01(clamp01(qScore) * FreshnessDecay(age, FreshnessHalfLifeDays, 0))
}

// AgeDays returns the fractional days elapsed from t to now.
func AgeDays(t, now time.Time) float64 {
	return now.Sub(t).Hours() / 24
}

// IsJunk reports whether the body is too empty, boilerplate, or dominated
// by non-Latin script to be worth staging.
func IsJunk(body string) bool {
	trimmed := strings.TrimSpace(body)
	if len([]rune(trimmed)) < minBodyRunes {
		return true
	}
	normalized := strings.ToLower(strings.TrimRight(trimmed, ".!, "))
	if _, ok := boilerplatePhrases[normalized]; ok {
		return true
	}
	return nonLatinDominated(trimmed)
}

// nonLatinDominated reports whether most letters in s fall outside the
// Latin script.
func nonLatinDominated(s string) bool {
	var letters, nonLatin int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if !unicode.Is(unicode.Latin, r) {
			nonLatin++
		}
	}
	if letters < minBodyRunes {
		return false
	}
	return float64(nonLatin)/float64(letters) > nonLatinJunkRatio
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
