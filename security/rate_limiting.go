package security

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles redemption attempts with a fixed window
// counter in Redis, keyed by the authenticated actor (falling back to
// the client IP). It protects against ticket-code guessing and POS
// double-taps, not against the double-redemption race; that is closed
// by the conditional decrement.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// RedeemLimit returns a route middleware for the redeem endpoints.
func (r *RateLimiter) RedeemLimit() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		key := "ip:" + e.RealIP()
		if e.Auth != nil {
			key = "actor:" + e.Auth.Id
		}

		allowed, err := r.allow(e.Request.Context(), key)
		if err != nil {
			// Redis being down must not block redemptions.
			return e.Next()
		}
		if !allowed {
			return apis.NewApiError(429, "Too many redemption attempts. Please wait a moment.", nil)
		}

		return e.Next()
	}
}

func (r *RateLimiter) allow(ctx context.Context, key string) (bool, error) {
	counterKey := fmt.Sprintf("ratelimit:redeem:%s", key)

	count, err := r.redis.Incr(ctx, counterKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		r.redis.Expire(ctx, counterKey, r.window)
	}

	return count <= int64(r.limit), nil
}
