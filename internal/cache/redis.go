package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fitweek/planner/internal/domain"
)

// RedisCache is a Redis-backed PlanCache. One JSON blob per user, refreshed
// on every write with a TTL so stale entries age out on their own.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(addr string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func planKey(userID string) string {
	return fmt.Sprintf("user:%s:active_plan", userID)
}

// Get returns the cached plan for the user, or ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context, userID string) (*domain.WeeklyPlan, error) {
	result := c.client.Get(ctx, planKey(userID))
	if result.Err() == redis.Nil {
		return nil, ErrCacheMiss
	}
	if result.Err() != nil {
		return nil, result.Err()
	}

	var plan domain.WeeklyPlan
	if err := json.Unmarshal([]byte(result.Val()), &plan); err != nil {
		// A corrupt entry behaves like a miss; the remote copy will backfill.
		return nil, ErrCacheMiss
	}
	return &plan, nil
}

// Set serializes the plan and stores it under the user's key.
func (c *RedisCache) Set(ctx context.Context, userID string, plan *domain.WeeklyPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, planKey(userID), data, c.ttl).Err()
}

// Delete removes the user's cached plan.
func (c *RedisCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, planKey(userID)).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
