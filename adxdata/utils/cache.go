package utils

import (
	"context"
	"sync"
	"time"
)

// Cached is a single value with an expiry, guarded by a reader/writer lock. Refreshing
// happens lazily through GetOrRefresh with double-checked locking, so any number of
// concurrent readers over a stale window trigger exactly one refresh. A failed refresh is
// never cached.
type Cached[T any] struct {
	mu            sync.RWMutex
	value         T
	lastUpdated   time.Time
	refreshPeriod time.Duration

	now func() time.Time
}

func NewCached[T any](refreshPeriod time.Duration) *Cached[T] {
	return &Cached[T]{
		refreshPeriod: refreshPeriod,
		now:           time.Now,
	}
}

// Get returns the current value. Callers are expected to have checked IsExpired.
func (c *Cached[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// IsExpired reports whether the value is stale. A value that was never set is stale.
func (c *Cached[T]) IsExpired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isExpiredLocked()
}

func (c *Cached[T]) isExpiredLocked() bool {
	return c.now().Sub(c.lastUpdated) >= c.refreshPeriod
}

// Update sets the value and resets its age.
func (c *Cached[T]) Update(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.lastUpdated = c.now()
}

// GetOrRefresh returns the cached value, refreshing it first when stale. The writer lock
// is held across the refresh call, which serializes concurrent refreshes: the losers of
// the lock race observe the fresh value and return without refreshing again.
func (c *Cached[T]) GetOrRefresh(ctx context.Context, refresh func(context.Context) (T, error)) (T, error) {
	c.mu.RLock()
	if !c.isExpiredLocked() {
		v := c.value
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isExpiredLocked() {
		return c.value, nil
	}

	v, err := refresh(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.value = v
	c.lastUpdated = c.now()
	return v, nil
}
