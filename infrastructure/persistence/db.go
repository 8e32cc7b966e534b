// Package persistence provides database storage implementations.
package persistence

import (
	"fmt"
	"strings"

	"github.com/gimlabs/gim/internal/database"
	"gorm.io/gorm"
)

// AutoMigrate runs GORM auto migration for all models, plus the raw DDL
// GORM cannot express: the pgvector extension, the generated lexical
// column, and the ANN index.
func AutoMigrate(db database.Database) error {
	if db.IsPostgres() {
		if err := db.GORM().Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error; err != nil {
			return fmt.Errorf("create vector extension: %w", err)
		}
	}

	if err := db.GORM().AutoMigrate(allModels()...); err != nil {
		return err
	}
	return postMigrate(db)
}

// postMigrate adds the PostgreSQL-only search structures. The lexical
// column is generated from title and body so it can never drift from the
// row content; SQLite deployments fall back to token matching at query
// time and need none of this.
func postMigrate(db database.Database) error {
	if !db.IsPostgres() {
		return nil
	}

	gdb := db.GORM()
	stmts := []string{
		`ALTER TABLE ingestion_issues ADD COLUMN IF NOT EXISTS lexeme tsvector
			GENERATED ALWAYS AS (
				to_tsvector('english', coalesce(title,'') || ' ' || coalesce(body_text,''))
			) STORED`,
		`CREATE INDEX IF NOT EXISTS idx_ingestion_issues_lexeme
			ON ingestion_issues USING GIN (lexeme)`,
		`CREATE INDEX IF NOT EXISTS idx_ingestion_issues_embedding
			ON ingestion_issues USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	}
	for _, stmt := range stmts {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("post migrate: %w", err)
		}
	}
	return nil
}

// allModels returns every GORM model that AutoMigrate manages.
func allModels() []interface{} {
	return []interface{}{
		&RepoModel{},
		&IssueModel{},
		&PendingIssueModel{},
		&SearchInteractionModel{},
		&RecommendationEventModel{},
		&UserProfileModel{},
		&TaskModel{},
	}
}

// ValidateSchema verifies every GORM model field has a corresponding column
// in the database. Returns an error listing any missing columns.
func ValidateSchema(db database.Database) error {
	gdb := db.GORM()
	migrator := gdb.Migrator()

	var missing []string
	for _, model := range allModels() {
		stmt := &gorm.Statement{DB: gdb}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("parse model schema: %w", err)
		}

		columnTypes, err := migrator.ColumnTypes(model)
		if err != nil {
			return fmt.Errorf("get column types for %s: %w", stmt.Table, err)
		}

		actual := make(map[string]bool, len(columnTypes))
		for _, ct := range columnTypes {
			actual[ct.Name()] = true
		}

		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" || field.DBName == "-" {
				continue
			}
			if !actual[field.DBName] {
				missing = append(missing, stmt.Table+"."+field.DBName)
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("schema validation failed, missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
