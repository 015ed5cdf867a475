package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const counterTTL = 48 * time.Hour

// DailyCounter keeps a per-store count of redemptions for the current
// day in Redis, bucketed by the store's local calendar day so it lines
// up with the ledger's "today" view. It is advisory (dashboards and
// metrics); the ledger remains the source of truth.
type DailyCounter struct {
	Redis     *redis.Client
	locations func(storeID string) *time.Location
}

func NewDailyCounter(redisClient *redis.Client, locations func(storeID string) *time.Location) *DailyCounter {
	return &DailyCounter{Redis: redisClient, locations: locations}
}

func (c *DailyCounter) Incr(ctx context.Context, storeID string, day time.Time) error {
	key := StoreDayKey(storeID, day, c.location(storeID))

	count, err := c.Redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("incr store counter %s: %w", key, err)
	}
	if count == 1 {
		c.Redis.Expire(ctx, key, counterTTL)
	}
	return nil
}

func (c *DailyCounter) Count(ctx context.Context, storeID string, day time.Time) (int64, error) {
	count, err := c.Redis.Get(ctx, StoreDayKey(storeID, day, c.location(storeID))).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read store counter: %w", err)
	}
	return count, nil
}

func (c *DailyCounter) location(storeID string) *time.Location {
	if c.locations == nil {
		return time.UTC
	}
	return c.locations(storeID)
}

func StoreDayKey(storeID string, day time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("redemptions:store:%s:%s", storeID, day.In(loc).Format("2006-01-02"))
}
