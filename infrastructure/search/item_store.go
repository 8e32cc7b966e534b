package search

import (
	"context"
	"fmt"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/infrastructure/persistence"
	"github.com/gimlabs/gim/internal/database"
)

// itemColumns is the stage-2 projection: the issue joined to its repository.
const itemColumns = `ingestion_issues.node_id, ingestion_issues.title,
	ingestion_issues.body_text, ingestion_issues.html_url,
	ingestion_issues.labels, ingestion_issues.q_score,
	ingestion_issues.github_created_at,
	ingestion_repositories.full_name, ingestion_repositories.primary_language`

// ItemRow scans one enrichment row.
type ItemRow struct {
	NodeID          string                 `gorm:"column:node_id"`
	Title           string                 `gorm:"column:title"`
	BodyText        string                 `gorm:"column:body_text"`
	HTMLURL         string                 `gorm:"column:html_url"`
	Labels          persistence.StringList `gorm:"column:labels"`
	QScore          float64                `gorm:"column:q_score"`
	GitHubCreatedAt time.Time              `gorm:"column:github_created_at"`
	FullName        string                 `gorm:"column:full_name"`
	PrimaryLanguage string                 `gorm:"column:primary_language"`
}

func (r ItemRow) toItem() search.Item {
	return search.NewItem(
		r.NodeID,
		r.Title,
		r.BodyText,
		r.HTMLURL,
		r.Labels,
		r.QScore,
		r.FullName,
		r.PrimaryLanguage,
		r.GitHubCreatedAt,
		0,
	)
}

// ItemStore implements search.ItemStore: the stage-2 enrichment join.
type ItemStore struct {
	db database.Database
}

// NewItemStore creates a new ItemStore.
func NewItemStore(db database.Database) ItemStore {
	return ItemStore{db: db}
}

// FindItems loads the presentation rows for the given node IDs. Only open
// issues hydrate; a row that closed between candidate generation and
// enrichment silently drops out. Rows come back in database order; callers
// restore stage-1 order and attach the fused score themselves.
func (s ItemStore) FindItems(ctx context.Context, nodeIDs []string) ([]search.Item, error) {
	if len(nodeIDs) == 0 {
		return []search.Item{}, nil
	}

	var rows []ItemRow
	err := s.db.Session(ctx).
		Table("ingestion_issues").
		Select(itemColumns).
		Joins(repoJoin).
		Where("ingestion_issues.node_id IN ?", nodeIDs).
		Where("ingestion_issues.state = ?", string(issue.StateOpen)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}

	items := make([]search.Item, len(rows))
	for i, row := range rows {
		items[i] = row.toItem()
	}
	return items, nil
}
