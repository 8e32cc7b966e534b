package repository

import "time"

// WithNodeID filters by the "node_id" column.
func WithNodeID(nodeID string) Option {
	return WithCondition("node_id", nodeID)
}

// WithNodeIDIn filters by the "node_id" column using IN.
func WithNodeIDIn(nodeIDs []string) Option {
	return WithConditionIn("node_id", nodeIDs)
}

// WithRepoID filters by the "repo_id" column.
func WithRepoID(repoID string) Option {
	return WithCondition("repo_id", repoID)
}

// WithRepoIDIn filters by the "repo_id" column using IN.
func WithRepoIDIn(repoIDs []string) Option {
	return WithConditionIn("repo_id", repoIDs)
}

// WithState filters by the "state" column.
func WithState(state string) Option {
	return WithCondition("state", state)
}

// WithStatus filters by the "status" column.
func WithStatus(status string) Option {
	return WithCondition("status", status)
}

// WithUserID filters by the "user_id" column.
func WithUserID(userID string) Option {
	return WithCondition("user_id", userID)
}

// WithFullName filters by the "full_name" column.
func WithFullName(fullName string) Option {
	return WithCondition("full_name", fullName)
}

// WithFullNameIn filters by the "full_name" column using IN.
func WithFullNameIn(fullNames []string) Option {
	return WithConditionIn("full_name", fullNames)
}

// WithContentHash filters by the "content_hash" column.
func WithContentHash(hash string) Option {
	return WithCondition("content_hash", hash)
}

// WithEventID filters by the "event_id" column.
func WithEventID(eventID string) Option {
	return WithCondition("event_id", eventID)
}

// WithScrapedBefore filters repositories last scraped before the given time
// (or never scraped).
func WithScrapedBefore(t time.Time) Option {
	return WithWhere("last_scraped_at IS NULL OR last_scraped_at < ?", t)
}

// WithUpdatedBefore filters rows whose "updated_at" precedes the given time.
func WithUpdatedBefore(t time.Time) Option {
	return WithWhere("updated_at < ?", t)
}
