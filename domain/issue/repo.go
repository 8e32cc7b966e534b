package issue

import (
	"hash/crc32"
	"time"
)

// ShardCount partitions repositories across the hours of a day. Each
// repository lands in exactly one shard, so a collector run per UTC hour
// visits every repository exactly once per day.
const ShardCount = 24

// Repository is a source repository tracked for issue harvesting.
type Repository struct {
	nodeID            string
	fullName          string
	primaryLanguage   string
	topics            []string
	stargazerCount    int
	issueVelocityWeek float64
	lastScrapedAt     time.Time
}

// NewRepository creates a repository as discovered by the scout.
func NewRepository(nodeID, fullName, primaryLanguage string, topics []string, stargazerCount int) Repository {
	tp := make([]string, len(topics))
	copy(tp, topics)
	return Repository{
		nodeID:          nodeID,
		fullName:        fullName,
		primaryLanguage: primaryLanguage,
		topics:          tp,
		stargazerCount:  stargazerCount,
	}
}

// ReconstructRepository recreates a repository from persistence.
func ReconstructRepository(
	nodeID string,
	fullName string,
	primaryLanguage string,
	topics []string,
	stargazerCount int,
	issueVelocityWeek float64,
	lastScrapedAt time.Time,
) Repository {
	tp := make([]string, len(topics))
	copy(tp, topics)
	return Repository{
		nodeID:            nodeID,
		fullName:          fullName,
		primaryLanguage:   primaryLanguage,
		topics:            tp,
		stargazerCount:    stargazerCount,
		issueVelocityWeek: issueVelocityWeek,
		lastScrapedAt:     lastScrapedAt,
	}
}

// WithScrapedAt returns a copy stamped with the given scrape time.
func (r Repository) WithScrapedAt(t time.Time) Repository {
	r.lastScrapedAt = t
	return r
}

// WithIssueVelocity returns a copy with the weekly issue velocity.
func (r Repository) WithIssueVelocity(perWeek float64) Repository {
	r.issueVelocityWeek = perWeek
	return r
}

// NodeID returns the source node ID, the primary key.
func (r Repository) NodeID() string { return r.nodeID }

// FullName returns "owner/name".
func (r Repository) FullName() string { return r.fullName }

// PrimaryLanguage returns the repository's dominant language.
func (r Repository) PrimaryLanguage() string { return r.primaryLanguage }

// Topics returns the repository topics.
func (r Repository) Topics() []string {
	tp := make([]string, len(r.topics))
	copy(tp, r.topics)
	return tp
}

// StargazerCount returns the star count at last discovery.
func (r Repository) StargazerCount() int { return r.stargazerCount }

// IssueVelocityWeek returns issues opened per week, smoothed.
func (r Repository) IssueVelocityWeek() float64 { return r.issueVelocityWeek }

// LastScrapedAt returns the last harvest time, zero if never harvested.
func (r Repository) LastScrapedAt() time.Time { return r.lastScrapedAt }

// ShardHour returns the UTC hour in which this repository is harvested.
func (r Repository) ShardHour() int {
	return ShardHourOf(r.nodeID)
}

// InShard reports whether the repository belongs to the given UTC hour.
func (r Repository) InShard(hour int) bool {
	return r.ShardHour() == hour
}

// ShardHourOf maps a node ID onto its harvest hour.
func ShardHourOf(nodeID string) int {
	return int(crc32.ChecksumIEEE([]byte(nodeID)) % ShardCount)
}
