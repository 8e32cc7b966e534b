package broker

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/internal/config"
	"github.com/redis/go-redis/v9"
)

func newTestStreams(t *testing.T) (*Streams, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFromRedis(rdb, logger), mr
}

// testBrokerConfig keeps pulls from blocking noticeably when a test drains
// an empty topic.
func testBrokerConfig() config.BrokerConfig {
	return config.NewBrokerConfig().WithBlockTimeout(10 * time.Millisecond)
}

func testIssueMessage(nodeID, contentHash string) issue.IssueMessage {
	return issue.IssueMessage{
		NodeID:             nodeID,
		RepoID:             "R_1",
		Title:              "Panic on empty config",
		BodyText:           "```\npanic: nil pointer\n```",
		Labels:             []string{"bug"},
		State:              issue.StateOpen,
		HTMLURL:            "https://github.com/acme/gadget/issues/7",
		GitHubCreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		HasCode:            true,
		HasTemplateHeaders: false,
		TechStackWeight:    0.5,
		ContentHash:        contentHash,
	}
}
