package search

import (
	"context"
	"testing"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/scoring"
	"github.com/gimlabs/gim/infrastructure/persistence"
	"github.com/gimlabs/gim/internal/database"
	"github.com/stretchr/testify/require"
)

const testIssueURL = "https://github.com/acme/gadget/issues/1"

// seedRepo inserts one repository row for join-dependent queries.
func seedRepo(t *testing.T, db database.Database, nodeID, fullName, language string, topics []string) {
	t.Helper()
	store := persistence.NewRepoStore(db)
	require.NoError(t, store.UpsertAll(context.Background(), []issue.Repository{
		issue.NewRepository(nodeID, fullName, language, topics, 250),
	}))
}

// seedIssue upserts one issue row.
func seedIssue(t *testing.T, db database.Database, iss issue.Issue) {
	t.Helper()
	require.NoError(t, persistence.NewIssueStore(db).Upsert(context.Background(), iss))
}

// openIssue builds an open issue with a q-score of 0.8, comfortably above
// the default heat floor.
func openIssue(nodeID, repoID, title, body string, labels []string, created time.Time) issue.Issue {
	return issue.NewIssue(
		nodeID,
		repoID,
		title,
		body,
		labels,
		issue.StateOpen,
		testIssueURL,
		created,
		scoring.NewQComponents(true, true, 0.5),
	)
}
