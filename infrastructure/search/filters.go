// Package search implements the retrieval stores over the issue corpus:
// the lexical and vector stage-1 subqueries, the stage-2 enrichment join
// and the feed ranking queries, each with a PostgreSQL and a SQLite form.
package search

import (
	"strings"

	"github.com/gimlabs/gim/domain/search"
	"gorm.io/gorm"
)

// Filter predicates shared by the stage-1 subqueries and the trending feed.
// Lists OR internally and AND across lists. Labels and topics are stored as
// JSON arrays, so overlap is an EXISTS over the unpacked elements; the
// unpacking function differs per dialect.
const (
	pgLabelsOverlap = `EXISTS (
		SELECT 1 FROM jsonb_array_elements_text(ingestion_issues.labels) AS label(value)
		WHERE label.value IN ?)`

	sqliteLabelsOverlap = `EXISTS (
		SELECT 1 FROM json_each(ingestion_issues.labels)
		WHERE json_each.value IN ?)`

	pgTopicsOverlap = `EXISTS (
		SELECT 1 FROM jsonb_array_elements_text(ingestion_repositories.topics) AS topic(value)
		WHERE LOWER(topic.value) IN ?)`

	sqliteTopicsOverlap = `EXISTS (
		SELECT 1 FROM json_each(ingestion_repositories.topics)
		WHERE LOWER(json_each.value) IN ?)`

	repoJoin = `JOIN ingestion_repositories ON ingestion_repositories.node_id = ingestion_issues.repo_id`
)

// applySearchFilters adds the repository join and WHERE clauses for search
// filters. Language matching is case-folded; labels match exactly as the
// source spells them.
func applySearchFilters(db *gorm.DB, filters search.Filters) *gorm.DB {
	if filters.IsEmpty() {
		return db
	}
	if needsRepoJoin(filters) {
		db = db.Joins(repoJoin)
	}
	return applyFilterPredicates(db, filters)
}

// needsRepoJoin reports whether the filters reference repository columns.
func needsRepoJoin(filters search.Filters) bool {
	return len(filters.Languages()) > 0 || len(filters.Repos()) > 0
}

// applyFilterPredicates adds the filter WHERE clauses. The repository join
// must already be present when needsRepoJoin says so; feed queries carry
// it for their projection anyway.
func applyFilterPredicates(db *gorm.DB, filters search.Filters) *gorm.DB {
	if langs := filters.Languages(); len(langs) > 0 {
		db = db.Where("LOWER(ingestion_repositories.primary_language) IN ?", lowerAll(langs))
	}
	if repos := filters.Repos(); len(repos) > 0 {
		db = db.Where("ingestion_repositories.full_name IN ?", repos)
	}
	if labels := filters.Labels(); len(labels) > 0 {
		db = db.Where(labelsOverlapSQL(db), labels)
	}
	return db
}

func labelsOverlapSQL(db *gorm.DB) string {
	if db.Name() == "sqlite" {
		return sqliteLabelsOverlap
	}
	return pgLabelsOverlap
}

func topicsOverlapSQL(db *gorm.DB) string {
	if db.Name() == "sqlite" {
		return sqliteTopicsOverlap
	}
	return pgTopicsOverlap
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
