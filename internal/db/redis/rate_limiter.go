// Package redis provides Redis database connectivity and operations.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"norelock.dev/mixtape/backend/internal/utils"
)

const (
	// RateLimitKeyPrefix is the prefix for rate limit keys
	RateLimitKeyPrefix = "ratelimit"
)

// RateLimiter implements sliding-window rate limiting backed by Redis sorted
// sets, shared across all server instances.
type RateLimiter struct {
	client *Client
	logger *utils.Logger
}

// RateLimit defines a rate limit constraint
type RateLimit struct {
	// Key is the identifier for this rate limit
	Key string

	// MaxRequests is the maximum number of requests allowed in the time window
	MaxRequests int

	// Window is the time window for rate limiting
	Window time.Duration
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	// Allowed indicates whether the request is allowed
	Allowed bool

	// Remaining is the number of requests remaining in the current window
	Remaining int

	// RetryAfter is the time after which the client should retry (if rate limited)
	RetryAfter time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{
		client: client,
		logger: client.Logger(),
	}
}

// Allow checks if a request is allowed under the rate limit and records it
// when it is.
func (rl *RateLimiter) Allow(ctx context.Context, rateLimit RateLimit, identifier string) (*RateLimitResult, error) {
	rateLimitKey := formatRateLimitKey(rateLimit.Key, identifier)

	now := time.Now()
	windowStart := now.Add(-rateLimit.Window)
	windowStartMs := windowStart.UnixNano() / int64(time.Millisecond)

	pipe := rl.client.Pipeline()

	// Drop entries older than the window, then count what is left
	pipe.ZRemRangeByScore(ctx, rateLimitKey, "0", strconv.FormatInt(windowStartMs, 10))
	countCmd := pipe.ZCard(ctx, rateLimitKey)
	oldestCmd := pipe.ZRange(ctx, rateLimitKey, 0, 0)

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		rl.logger.Error("Failed to execute rate limit pipeline", err, "key", rateLimitKey)
		return nil, err
	}

	count, err := countCmd.Result()
	if err != nil && err != redis.Nil {
		rl.logger.Error("Failed to get rate limit count", err, "key", rateLimitKey)
		return nil, err
	}

	allowed := count < int64(rateLimit.MaxRequests)
	remaining := max(rateLimit.MaxRequests-int(count), 0)

	var retryAfter time.Duration
	if !allowed {
		retryAfter = rateLimit.Window

		// The oldest entry expiring opens the next slot
		if oldest, err := oldestCmd.Result(); err == nil && len(oldest) > 0 {
			if oldestMs, err := strconv.ParseInt(oldest[0], 10, 64); err == nil {
				oldestTime := time.Unix(0, oldestMs*int64(time.Millisecond))
				retryAfter = oldestTime.Add(rateLimit.Window).Sub(now)
			}
		}
	} else {
		nowMs := now.UnixNano() / int64(time.Millisecond)
		err = rl.client.Client().ZAdd(ctx, rateLimitKey, &redis.Z{
			Score:  float64(nowMs),
			Member: strconv.FormatInt(nowMs, 10),
		}).Err()
		if err != nil {
			rl.logger.Error("Failed to add entry to rate limit", err, "key", rateLimitKey)
		}

		if err := rl.client.Expire(ctx, rateLimitKey, rateLimit.Window*2); err != nil {
			rl.logger.Error("Failed to set expiry on rate limit key", err, "key", rateLimitKey)
		}
	}

	return &RateLimitResult{
		Allowed:    allowed,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}

// Reset clears the recorded requests for an identifier.
func (rl *RateLimiter) Reset(ctx context.Context, rateLimit RateLimit, identifier string) error {
	rateLimitKey := formatRateLimitKey(rateLimit.Key, identifier)

	if err := rl.client.Del(ctx, rateLimitKey); err != nil {
		rl.logger.Error("Failed to reset rate limit", err, "key", rateLimitKey)
		return err
	}

	rl.logger.Debug("Reset rate limit", "key", rateLimitKey)
	return nil
}

// formatRateLimitKey formats a key for rate limiting
func formatRateLimitKey(key, identifier string) string {
	return FormatKey(RateLimitKeyPrefix, fmt.Sprintf("%s:%s", key, identifier))
}
