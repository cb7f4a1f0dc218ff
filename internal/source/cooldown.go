package source

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Cooldown enforces a minimum delay between successive calls to the same
// source. The clock is shared: two workers fetching different definitions
// from one source still wait on that source's single limiter. Different
// sources never block each other.
type Cooldown struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	interval time.Duration
}

// NewCooldown creates a shared per-source cooldown with the given minimum
// interval between calls. A non-positive interval disables waiting.
func NewCooldown(interval time.Duration) *Cooldown {
	return &Cooldown{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Wait blocks until the named source may be called again, or until ctx is
// cancelled.
func (c *Cooldown) Wait(ctx context.Context, sourceName string) error {
	if c.interval <= 0 {
		return nil
	}
	return c.limiter(sourceName).Wait(ctx)
}

func (c *Cooldown) limiter(sourceName string) *rate.Limiter {
	c.mu.RLock()
	lim, ok := c.limiters[sourceName]
	c.mu.RUnlock()
	if ok {
		return lim
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the write lock
	if lim, ok := c.limiters[sourceName]; ok {
		return lim
	}

	// Burst 1: the first call proceeds immediately, every later call
	// waits out the full interval.
	lim = rate.NewLimiter(rate.Every(c.interval), 1)
	c.limiters[sourceName] = lim
	return lim
}
