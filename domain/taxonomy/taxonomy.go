// Package taxonomy holds the language and stack-area whitelists shared by
// profile validation, filter predicates and the quality gate, plus the
// normalization helpers that keep user input, GitHub metadata and keyword
// tables in one vocabulary.
package taxonomy

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// languages is the canonical language whitelist, sorted.
var languages = []string{
	"c",
	"cpp",
	"csharp",
	"dart",
	"elixir",
	"go",
	"haskell",
	"java",
	"javascript",
	"kotlin",
	"php",
	"python",
	"ruby",
	"rust",
	"scala",
	"shell",
	"swift",
	"typescript",
}

// languageAliases maps common spellings to canonical names.
var languageAliases = map[string]string{
	"golang":  "go",
	"js":      "javascript",
	"node":    "javascript",
	"nodejs":  "javascript",
	"ts":      "typescript",
	"py":      "python",
	"rb":      "ruby",
	"rs":      "rust",
	"c#":      "csharp",
	"cs":      "csharp",
	"c++":     "cpp",
	"bash":    "shell",
	"sh":      "shell",
	"zsh":     "shell",
	"kt":      "kotlin",
	"objc":    "swift",
	"hs":      "haskell",
}

// stackAreas is the canonical stack-area whitelist, sorted.
var stackAreas = []string{
	"backend",
	"data-engineering",
	"devops",
	"embedded",
	"frontend",
	"fullstack",
	"machine-learning",
	"mobile",
	"security",
	"testing",
}

// experienceLevels is the canonical experience-level whitelist.
var experienceLevels = []string{
	"beginner",
	"intermediate",
	"advanced",
}

// ErrUnknownLanguage indicates a language outside the whitelist.
var ErrUnknownLanguage = errors.New("unknown language")

// ErrUnknownStackArea indicates a stack area outside the whitelist.
var ErrUnknownStackArea = errors.New("unknown stack area")

// ErrUnknownExperienceLevel indicates an experience level outside the whitelist.
var ErrUnknownExperienceLevel = errors.New("unknown experience level")

// Languages returns the language whitelist in sorted order.
func Languages() []string {
	result := make([]string, len(languages))
	copy(result, languages)
	return result
}

// StackAreas returns the stack-area whitelist in sorted order.
func StackAreas() []string {
	result := make([]string, len(stackAreas))
	copy(result, stackAreas)
	return result
}

// ExperienceLevels returns the experience-level whitelist.
func ExperienceLevels() []string {
	result := make([]string, len(experienceLevels))
	copy(result, experienceLevels)
	return result
}

// NormalizeLanguage lowercases a language name and resolves aliases.
// The second return is false when the result is not on the whitelist.
func NormalizeLanguage(s string) (string, bool) {
	lang := strings.ToLower(strings.TrimSpace(s))
	if canonical, ok := languageAliases[lang]; ok {
		lang = canonical
	}
	return lang, slices.Contains(languages, lang)
}

// ValidateLanguage returns the canonical language or an error.
func ValidateLanguage(s string) (string, error) {
	lang, ok := NormalizeLanguage(s)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownLanguage, s)
	}
	return lang, nil
}

// ValidateStackArea returns the canonical stack area or an error.
func ValidateStackArea(s string) (string, error) {
	area := NormalizeTopic(s)
	if !slices.Contains(stackAreas, area) {
		return "", fmt.Errorf("%w: %s", ErrUnknownStackArea, s)
	}
	return area, nil
}

// ValidateExperienceLevel returns the canonical level or an error.
func ValidateExperienceLevel(s string) (string, error) {
	level := strings.ToLower(strings.TrimSpace(s))
	if !slices.Contains(experienceLevels, level) {
		return "", fmt.Errorf("%w: %s", ErrUnknownExperienceLevel, s)
	}
	return level, nil
}

// NormalizeTopic lowercases a topic or label and collapses interior
// whitespace and underscores to hyphens, matching GitHub topic form.
func NormalizeTopic(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '_'
	})
	return strings.Join(fields, "-")
}

// NormalizeTopics normalizes a list of topics, dropping empties and
// duplicates while preserving first-seen order.
func NormalizeTopics(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		n := NormalizeTopic(t)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Tokenize splits text into lowercase tokens. Letters, digits and the
// characters +, # and - remain inside a token so that "c++", "c#" and
// "type-safety" survive as single tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
		switch r {
		case '+', '#', '-':
			return false
		}
		return true
	})
}

// TokenSet returns the distinct tokens of text as a membership set.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
