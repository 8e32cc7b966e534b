package cache

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ratelimitPrefix = "gim:ratelimit:"

	// localBucketCap bounds the fallback map when the cache is down and
	// every key is forced in-process.
	localBucketCap = 10000
	localBucketAge = 3 * time.Minute
)

type bucketState struct {
	Tokens   float64   `json:"tokens"`
	Refilled time.Time `json:"refilled"`
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a token bucket shared across instances through Redis,
// keyed by compound request key (client IP plus flow). Bucket state is
// read-modify-write, which can overcount under heavy concurrency on one
// key; limiting stays best effort. When the cache is unreachable the
// limiter degrades to per-key in-process buckets so traffic is still
// bounded.
type RateLimiter struct {
	client    *Client
	perMinute int
	perSecond float64
	burst     int
	logger    *slog.Logger

	mu    sync.Mutex
	local map[string]*localBucket
}

// NewRateLimiter creates a limiter allowing perMinute sustained requests
// per key with the given burst capacity.
func NewRateLimiter(client *Client, perMinute, burst int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		client:    client,
		perMinute: perMinute,
		perSecond: float64(perMinute) / 60.0,
		burst:     burst,
		logger:    logger,
		local:     make(map[string]*localBucket),
	}
}

// Allow spends one token from the bucket for key.
func (r *RateLimiter) Allow(ctx context.Context, key string) bool {
	allowed, err := r.allowShared(ctx, key)
	if err != nil {
		r.logger.Warn("rate limiter falling back to in-process buckets",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return r.allowLocal(key)
	}
	return allowed
}

// RetryAfter returns how long a drained bucket takes to accrue one token,
// rounded up to whole seconds for the Retry-After header.
func (r *RateLimiter) RetryAfter() time.Duration {
	seconds := (60 + r.perMinute - 1) / r.perMinute
	return time.Duration(seconds) * time.Second
}

func (r *RateLimiter) allowShared(ctx context.Context, key string) (bool, error) {
	cacheKey := ratelimitPrefix + key
	now := time.Now().UTC()

	var state bucketState
	err := r.client.GetJSON(ctx, cacheKey, &state)
	switch {
	case errors.Is(err, ErrCacheMiss):
		state = bucketState{Tokens: float64(r.burst), Refilled: now}
	case err != nil:
		return false, err
	default:
		elapsed := now.Sub(state.Refilled).Seconds()
		if elapsed > 0 {
			state.Tokens = math.Min(float64(r.burst), state.Tokens+elapsed*r.perSecond)
		}
		state.Refilled = now
	}

	allowed := state.Tokens >= 1
	if allowed {
		state.Tokens--
	}
	if err := r.client.SetJSON(ctx, cacheKey, state, r.bucketTTL()); err != nil {
		return false, err
	}
	return allowed, nil
}

// bucketTTL keeps idle buckets alive just long enough to refill fully, so
// abandoned keys expire on their own.
func (r *RateLimiter) bucketTTL() time.Duration {
	refill := time.Duration(float64(r.burst) / r.perSecond * float64(time.Second))
	if refill < time.Minute {
		return time.Minute
	}
	return refill
}

func (r *RateLimiter) allowLocal(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	b, ok := r.local[key]
	if !ok {
		if len(r.local) >= localBucketCap {
			r.evictStaleLocked(now)
		}
		b = &localBucket{limiter: rate.NewLimiter(rate.Limit(r.perSecond), r.burst)}
		r.local[key] = b
	}
	b.lastSeen = now
	return b.limiter.Allow()
}

// evictStaleLocked drops buckets idle past localBucketAge. If every bucket
// is busy the map is cleared outright; re-admitting active keys at full
// burst beats unbounded growth while the cache is down.
func (r *RateLimiter) evictStaleLocked(now time.Time) {
	for key, b := range r.local {
		if now.Sub(b.lastSeen) > localBucketAge {
			delete(r.local, key)
		}
	}
	if len(r.local) >= localBucketCap {
		r.local = make(map[string]*localBucket)
	}
}
