package search

import (
	"sort"
	"strings"
)

// Filters restricts search and trending queries. Lists OR within themselves
// and AND across each other.
type Filters struct {
	languages []string
	labels    []string
	repos     []string
}

// FiltersOption is a functional option for Filters.
type FiltersOption func(*Filters)

// WithLanguages filters by repository primary language, case-insensitive.
func WithLanguages(languages []string) FiltersOption {
	return func(f *Filters) {
		f.languages = copyNonEmpty(languages)
	}
}

// WithLabels filters by issue label overlap.
func WithLabels(labels []string) FiltersOption {
	return func(f *Filters) {
		f.labels = copyNonEmpty(labels)
	}
}

// WithRepos filters by repository full name ("owner/name").
func WithRepos(repos []string) FiltersOption {
	return func(f *Filters) {
		f.repos = copyNonEmpty(repos)
	}
}

// NewFilters creates a Filters with options.
func NewFilters(opts ...FiltersOption) Filters {
	f := Filters{}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Languages returns the language filter list.
func (f Filters) Languages() []string { return copySlice(f.languages) }

// Labels returns the label filter list.
func (f Filters) Labels() []string { return copySlice(f.labels) }

// Repos returns the repository filter list.
func (f Filters) Repos() []string { return copySlice(f.repos) }

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return len(f.languages) == 0 && len(f.labels) == 0 && len(f.repos) == 0
}

// Canonical returns a deterministic encoding of the filters with each list
// lowercased and sorted, for cache keys and context snapshots.
func (f Filters) Canonical() string {
	var b strings.Builder
	b.WriteString("languages=")
	b.WriteString(canonicalList(f.languages))
	b.WriteString(";labels=")
	b.WriteString(canonicalList(f.labels))
	b.WriteString(";repos=")
	b.WriteString(canonicalList(f.repos))
	return b.String()
}

func canonicalList(in []string) string {
	if len(in) == 0 {
		return ""
	}
	sorted := make([]string, len(in))
	for i, s := range in {
		sorted[i] = strings.ToLower(s)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func copySlice(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
