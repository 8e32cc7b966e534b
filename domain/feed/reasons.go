package feed

import (
	"sort"
	"strings"

	"github.com/gimlabs/gim/domain/taxonomy"
)

// DefaultReasonCount is how many why-this entities a personalized item
// carries unless the caller asks for more.
const DefaultReasonCount = 3

// Match weights, strongest signal first. A label match means a maintainer
// tagged the issue with something the user cares about; a token match only
// means the text mentions it.
const (
	labelMatchWeight    = 3.0
	languageMatchWeight = 2.5
	topicMatchWeight    = 2.0
	tokenMatchWeight    = 1.0
)

// ProfileEntities is the whitelisted profile surface the explainer reads.
// Anything carrying these lists can explain a feed, not just a stored
// profile.
type ProfileEntities interface {
	PreferredLanguages() []string
	GitHubLanguages() []string
	IntentStackAreas() []string
	ResumeSkills() []string
	ResumeJobTitles() []string
	PreferredTopics() []string
	GitHubTopics() []string
}

// CollectEntities flattens the whitelisted lists into one slice,
// deduplicating case-insensitively and keeping the first spelling seen.
func CollectEntities(p ProfileEntities) []string {
	seen := make(map[string]struct{})
	var entities []string
	for _, list := range [][]string{
		p.PreferredLanguages(),
		p.GitHubLanguages(),
		p.IntentStackAreas(),
		p.ResumeSkills(),
		p.ResumeJobTitles(),
		p.PreferredTopics(),
		p.GitHubTopics(),
	} {
		for _, entity := range list {
			entity = strings.TrimSpace(entity)
			if entity == "" {
				continue
			}
			key := strings.ToLower(entity)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			entities = append(entities, entity)
		}
	}
	return entities
}

// Explain scores every entity against one item and returns the top-k
// matchers, score descending with the entity (case-folded) breaking ties.
// Weights accumulate when an entity matches on several signals; entities
// that match nothing are not reasons.
func Explain(item Item, entities []string, k int) []string {
	if k <= 0 {
		k = DefaultReasonCount
	}

	lang, _ := taxonomy.NormalizeLanguage(item.PrimaryLanguage())
	labels := foldSet(item.Labels())
	topics := foldSet(item.RepoTopics())
	tokens := taxonomy.TokenSet(item.Title() + " " + item.BodyPreview())

	type match struct {
		entity string
		score  float64
	}
	var matches []match
	for _, entity := range entities {
		folded := strings.ToLower(strings.TrimSpace(entity))
		if folded == "" {
			continue
		}

		var score float64
		if _, ok := labels[folded]; ok {
			score += labelMatchWeight
		}
		if entityLang, _ := taxonomy.NormalizeLanguage(entity); lang != "" && entityLang == lang {
			score += languageMatchWeight
		}
		if _, ok := topics[folded]; ok {
			score += topicMatchWeight
		}
		if _, ok := tokens[folded]; ok {
			score += tokenMatchWeight
		} else if taxonomy.KeywordWeight(lang, folded) > 0 {
			score += tokenMatchWeight
		}

		if score > 0 {
			matches = append(matches, match{entity: entity, score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return strings.ToLower(matches[i].entity) < strings.ToLower(matches[j].entity)
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	reasons := make([]string, len(matches))
	for i, m := range matches {
		reasons[i] = m.entity
	}
	return reasons
}

func foldSet(in []string) map[string]struct{} {
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		set[strings.ToLower(s)] = struct{}{}
	}
	return set
}
