package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gimlabs/gim/domain/vector"
	"github.com/gimlabs/gim/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList stores []string as JSON text. Overlap filters unpack it with
// jsonb_array_elements_text on PostgreSQL and json_each on SQLite.
type StringList []string

// Scan implements sql.Scanner.
func (s *StringList) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	return json.Unmarshal(data, s)
}

// Value implements driver.Valuer. Nil serializes as an empty list so the
// JSON unpacking functions never see SQL NULL.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	out, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(out), nil
}

// GormDBDataType picks the JSON column type per dialect.
func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "json"
}

// JSONMap stores map[string]any as JSON text.
type JSONMap map[string]any

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}
	return json.Unmarshal(data, m)
}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(out), nil
}

// GormDataType names the schema-level type. Valuer inference cannot cover
// this type because the zero map values to NULL, so migration needs the
// explicit declaration.
func (JSONMap) GormDataType() string {
	return "json"
}

// GormDBDataType picks the JSON column type per dialect.
func (JSONMap) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "json"
}

// EmbeddingColumn is a dense vector column: pgvector on PostgreSQL, JSON
// text on SQLite. The pgvector literal "[1,2,3]" is itself valid JSON, so
// one scanner serves both dialects. Use a pointer field for nullability.
type EmbeddingColumn struct {
	database.Vector
}

// NewEmbeddingColumn wraps a vector for storage. Nil input returns nil so
// the column lands as SQL NULL.
func NewEmbeddingColumn(floats []float64) *EmbeddingColumn {
	if floats == nil {
		return nil
	}
	return &EmbeddingColumn{Vector: database.NewVector(floats)}
}

// GormDBDataType picks the vector column type per dialect.
func (EmbeddingColumn) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return fmt.Sprintf("vector(%d)", vector.Dim)
	}
	return "json"
}

// FloatsOrNil unwraps a nullable embedding column, nil when the column was
// NULL.
func (e *EmbeddingColumn) FloatsOrNil() []float64 {
	if e == nil {
		return nil
	}
	return e.Floats()
}

// RepoModel is the GORM model for harvested repositories.
type RepoModel struct {
	NodeID            string     `gorm:"column:node_id;primaryKey"`
	FullName          string     `gorm:"column:full_name;uniqueIndex"`
	PrimaryLanguage   string     `gorm:"column:primary_language;index"`
	Topics            StringList `gorm:"column:topics"`
	StargazerCount    int        `gorm:"column:stargazer_count"`
	IssueVelocityWeek float64    `gorm:"column:issue_velocity_week"`
	ShardHour         int        `gorm:"column:shard_hour;index"`
	LastScrapedAt     *time.Time `gorm:"column:last_scraped_at"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (RepoModel) TableName() string { return "ingestion_repositories" }

// IssueModel is the GORM model for the main issue table. The lexical
// tsvector column is a generated PostgreSQL column managed by postMigrate,
// deliberately absent from the model.
type IssueModel struct {
	NodeID             string           `gorm:"column:node_id;primaryKey"`
	RepoID             string           `gorm:"column:repo_id;index"`
	Title              string           `gorm:"column:title"`
	BodyText           string           `gorm:"column:body_text;type:text"`
	Labels             StringList       `gorm:"column:labels"`
	State              string           `gorm:"column:state;index;index:idx_issues_state_survival,priority:1"`
	HTMLURL            string           `gorm:"column:html_url"`
	HasCode            bool             `gorm:"column:has_code"`
	HasTemplateHeaders bool             `gorm:"column:has_template_headers"`
	TechStackWeight    float64          `gorm:"column:tech_stack_weight"`
	QScore             float64          `gorm:"column:q_score;index"`
	SurvivalScore      float64          `gorm:"column:survival_score;index:idx_issues_state_survival,priority:2"`
	ContentHash        string           `gorm:"column:content_hash"`
	Embedding          *EmbeddingColumn `gorm:"column:embedding"`
	GitHubCreatedAt    time.Time        `gorm:"column:github_created_at;index"`
	IngestedAt         *time.Time       `gorm:"column:ingested_at"`
	CreatedAt          time.Time        `gorm:"column:created_at"`
	UpdatedAt          time.Time        `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (IssueModel) TableName() string { return "ingestion_issues" }

// PendingIssueModel is the GORM model for the embedding staging table.
type PendingIssueModel struct {
	ID                 int64      `gorm:"column:id;primaryKey;autoIncrement"`
	NodeID             string     `gorm:"column:node_id;uniqueIndex"`
	RepoID             string     `gorm:"column:repo_id;index"`
	Title              string     `gorm:"column:title"`
	BodyText           string     `gorm:"column:body_text;type:text"`
	Labels             StringList `gorm:"column:labels"`
	State              string     `gorm:"column:state"`
	HTMLURL            string     `gorm:"column:html_url"`
	HasCode            bool       `gorm:"column:has_code"`
	HasTemplateHeaders bool       `gorm:"column:has_template_headers"`
	TechStackWeight    float64    `gorm:"column:tech_stack_weight"`
	ContentHash        string     `gorm:"column:content_hash"`
	Status             string     `gorm:"column:status;index"`
	Attempts           int        `gorm:"column:attempts"`
	GitHubCreatedAt    time.Time  `gorm:"column:github_created_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;index"`
}

// TableName returns the table name.
func (PendingIssueModel) TableName() string { return "staging_pending_issues" }

// SearchInteractionModel is the GORM model for search click telemetry.
type SearchInteractionModel struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID          string     `gorm:"column:user_id;index"`
	SearchID        string     `gorm:"column:search_id;index"`
	Query           string     `gorm:"column:query"`
	FilterLanguages StringList `gorm:"column:filter_languages"`
	FilterLabels    StringList `gorm:"column:filter_labels"`
	FilterRepos     StringList `gorm:"column:filter_repos"`
	ResultCount     int        `gorm:"column:result_count"`
	NodeID          string     `gorm:"column:node_id"`
	Position        int        `gorm:"column:position"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
}

// TableName returns the table name.
func (SearchInteractionModel) TableName() string { return "analytics_search_interactions" }

// RecommendationEventModel is the GORM model for impression/click events.
// The event ID primary key makes queue redelivery idempotent.
type RecommendationEventModel struct {
	EventID        string    `gorm:"column:event_id;primaryKey"`
	BatchID        string    `gorm:"column:batch_id;index"`
	UserID         string    `gorm:"column:user_id;index"`
	IssueNodeID    string    `gorm:"column:issue_node_id"`
	Position       int       `gorm:"column:position"`
	Surface        string    `gorm:"column:surface"`
	EventType      string    `gorm:"column:event_type;index"`
	IsPersonalized bool      `gorm:"column:is_personalized"`
	Metadata       JSONMap   `gorm:"column:metadata"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (RecommendationEventModel) TableName() string { return "analytics_recommendation_events" }

// UserProfileModel is the GORM model for user profiles.
type UserProfileModel struct {
	UserID             string           `gorm:"column:user_id;primaryKey"`
	IntentText         string           `gorm:"column:intent_text"`
	IntentStackAreas   StringList       `gorm:"column:intent_stack_areas"`
	IntentLanguages    StringList       `gorm:"column:intent_languages"`
	ResumeSkills       StringList       `gorm:"column:resume_skills"`
	ResumeJobTitles    StringList       `gorm:"column:resume_job_titles"`
	GitHubUsername     string           `gorm:"column:github_username"`
	GitHubLanguages    StringList       `gorm:"column:github_languages"`
	GitHubTopics       StringList       `gorm:"column:github_topics"`
	PreferredLanguages StringList       `gorm:"column:preferred_languages"`
	PreferredTopics    StringList       `gorm:"column:preferred_topics"`
	MinHeatThreshold   float64          `gorm:"column:min_heat_threshold"`
	IntentVector       *EmbeddingColumn `gorm:"column:intent_vector"`
	ResumeVector       *EmbeddingColumn `gorm:"column:resume_vector"`
	GitHubVector       *EmbeddingColumn `gorm:"column:github_vector"`
	CombinedVector     *EmbeddingColumn `gorm:"column:combined_vector"`
	OnboardingStatus   string           `gorm:"column:onboarding_status"`
	IsCalculating      bool             `gorm:"column:is_calculating"`
	CreatedAt          time.Time        `gorm:"column:created_at"`
	UpdatedAt          time.Time        `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (UserProfileModel) TableName() string { return "user_profiles" }

// TaskModel is the GORM model for the task queue.
type TaskModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DedupKey  string    `gorm:"column:dedup_key;uniqueIndex"`
	Operation string    `gorm:"column:operation;index"`
	Priority  int       `gorm:"column:priority;index"`
	Payload   string    `gorm:"column:payload;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (TaskModel) TableName() string { return "tasks" }
