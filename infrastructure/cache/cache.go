// Package cache provides the Redis-backed short-TTL adapters: search and
// batch context stores, the stage-1 candidate cache, event dedup, the event
// flush queue, and the request rate limiter. One Client is shared by all of
// them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss marks a key that is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Client wraps the shared Redis connection behind the handful of shapes the
// adapters need: JSON get/set with TTL, SETNX, and list push/pop.
type Client struct {
	rdb redis.UniversalClient
}

// New connects to the Redis URL and verifies the connection before handing
// the client out.
func New(ctx context.Context, redisURL string) (*Client, error) {
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
	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing connection. Tests use this with miniredis.
func NewFromRedis(rdb redis.UniversalClient) *Client {
	return &Client{rdb: rdb}
}

// GetJSON loads the value at key and decodes it into target. Absent keys
// return ErrCacheMiss.
func (c *Client) GetJSON(ctx context.Context, key string, target any) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes value and stores it at key for ttl.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// SetNX stores value at key for ttl only if the key does not already
// exist. It reports whether the key was created.
func (c *Client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	created, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache setnx %s: %w", key, err)
	}
	return created, nil
}

// RPush appends values to the tail of the list at key.
func (c *Client) RPush(ctx context.Context, key string, values ...any) error {
	if len(values) == 0 {
		return nil
	}
	if err := c.rdb.RPush(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("cache rpush %s: %w", key, err)
	}
	return nil
}

// LPopCount removes and returns up to count values from the head of the
// list at key, oldest first. A drained list returns an empty result.
func (c *Client) LPopCount(ctx context.Context, key string, count int) ([]string, error) {
	vals, err := c.rdb.LPopCount(ctx, key, count).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache lpop %s: %w", key, err)
	}
	return vals, nil
}

// Delete removes keys. Missing keys are not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Ping verifies the connection, for readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
