// Package cache holds the per-user local copy of the active plan. Reads are
// served from here first; the remote store is the durable source of truth.
// Cache failures are never fatal to the caller.
package cache

import (
	"context"
	"errors"
	"sync"

	"fitweek/planner/internal/domain"
)

// ErrCacheMiss is returned when no plan is cached for the user.
var ErrCacheMiss = errors.New("plan not in cache")

// PlanCache stores one serialized active plan blob per user.
type PlanCache interface {
	// Get returns the cached plan, or ErrCacheMiss.
	Get(ctx context.Context, userID string) (*domain.WeeklyPlan, error)
	Set(ctx context.Context, userID string, plan *domain.WeeklyPlan) error
	Delete(ctx context.Context, userID string) error
}

// MemoryCache is a process-local PlanCache. Used in tests and as a fallback
// when no Redis address is configured.
type MemoryCache struct {
	mu    sync.RWMutex
	plans map[string]domain.WeeklyPlan
}

// NewMemoryCache creates an empty in-memory plan cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{plans: make(map[string]domain.WeeklyPlan)}
}

// Get returns a copy of the cached plan for the user.
func (c *MemoryCache) Get(ctx context.Context, userID string) (*domain.WeeklyPlan, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	plan, ok := c.plans[userID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &plan, nil
}

// Set stores the plan for the user.
func (c *MemoryCache) Set(ctx context.Context, userID string, plan *domain.WeeklyPlan) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[userID] = *plan
	return nil
}

// Delete removes the user's cached plan.
func (c *MemoryCache) Delete(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.plans, userID)
	return nil
}
