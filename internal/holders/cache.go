package holders

import (
	"sync"
	"time"
)

// resultCache is a TTL cache for analysis results keyed by mint and limit.
// The clock is injectable so tests do not need wall-clock sleeps.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	signal    *RiskSignal
	expiresAt time.Time
}

func newResultCache(now func() time.Time) *resultCache {
	if now == nil {
		now = time.Now
	}
	return &resultCache{
		entries: make(map[string]cacheEntry),
		now:     now,
	}
}

func (c *resultCache) get(key string) (*RiskSignal, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.signal, true
}

func (c *resultCache) put(key string, signal *RiskSignal, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Drop expired entries opportunistically to bound growth.
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	c.entries[key] = cacheEntry{signal: signal, expiresAt: now.Add(ttl)}
}
