// Package broker implements the ingestion fan-out on Redis Streams: one
// topic for discovered repositories, one for harvested issues. Both are
// read through consumer groups with explicit acks; unacked deliveries are
// reclaimed once idle, and messages that exhaust their delivery budget move
// to a dead-letter stream with their payload intact.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stream names. The dead-letter stream for each topic appends deadSuffix.
const (
	RepoStream  = "gim:stream:repos"
	IssueStream = "gim:stream:issues"

	deadSuffix  = ":dead"
	dedupPrefix = "gim:stream:dedup:"

	// publishDedupTTL suppresses republished content hashes for one shard
	// cycle. Consumer idempotency covers the cycle boundary.
	publishDedupTTL = 24 * time.Hour

	// redeliveryIdle is how long a delivery must sit unacked before
	// another consumer may reclaim it.
	redeliveryIdle = 30 * time.Second

	// maxStreamLen bounds topic growth; trimming is approximate.
	maxStreamLen = 100_000

	sweepBatch = 256
)

// Streams owns the Redis connection shared by the publisher and the
// consumers.
type Streams struct {
	rdb    redis.UniversalClient
	logger *slog.Logger
}

// New connects to the Redis URL and verifies the connection.
func New(ctx context.Context, redisURL string, logger *slog.Logger) (*Streams, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewFromRedis(rdb, logger), nil
}

// NewFromRedis wraps an existing connection. Tests use this with miniredis.
func NewFromRedis(rdb redis.UniversalClient, logger *slog.Logger) *Streams {
	if logger == nil {
		logger = slog.Default()
	}
	return &Streams{rdb: rdb, logger: logger}
}

// Ping verifies the connection, for readiness checks.
func (s *Streams) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Streams) Close() error {
	return s.rdb.Close()
}
