package cache

import (
	"context"
	"errors"
	"time"

	"github.com/gimlabs/gim/domain/issue"
)

// statsKey is the single cache slot for the platform snapshot.
const statsKey = "gim:stats"

// StatsCache implements issue.StatsCache on Redis.
type StatsCache struct {
	client *Client
	ttl    time.Duration
}

// NewStatsCache creates a new StatsCache.
func NewStatsCache(client *Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// Get loads the cached snapshot.
func (c *StatsCache) Get(ctx context.Context) (issue.Stats, bool, error) {
	var stats issue.Stats
	err := c.client.GetJSON(ctx, statsKey, &stats)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return issue.Stats{}, false, nil
		}
		return issue.Stats{}, false, err
	}
	return stats, true, nil
}

// Set stores the snapshot for the configured TTL.
func (c *StatsCache) Set(ctx context.Context, stats issue.Stats) error {
	return c.client.SetJSON(ctx, statsKey, stats, c.ttl)
}
