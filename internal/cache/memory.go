package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero = no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// sweepInterval bounds how often writes scan the map for expired entries.
const sweepInterval = time.Minute

// MemoryCache is a process-local Cache. Expired entries are dropped when
// read and by a sweep that runs on writes at most once per sweepInterval.
type MemoryCache struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Ping(_ context.Context) error { return nil }

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	// Copy so callers can't mutate a stored entry through their slice.
	v := make([]byte, len(value))
	copy(v, value)

	entry := memoryEntry{value: v}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.sweepLocked(c.now())
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if now := c.now(); entry.expired(now) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have replaced the entry.
		if cur, ok := c.entries[key]; ok && cur.expired(now) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	v := make([]byte, len(entry.value))
	copy(v, entry.value)
	return v, true, nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) IncrWithExpiry(_ context.Context, key string, expiry time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)

	var n int64
	var expiresAt time.Time
	if entry, ok := c.entries[key]; ok && !entry.expired(now) {
		parsed, err := strconv.ParseInt(string(entry.value), 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
		expiresAt = entry.expiresAt
	}
	n++

	// The window starts at the first increment; later increments keep its expiry.
	if expiresAt.IsZero() && expiry > 0 {
		expiresAt = now.Add(expiry)
	}
	c.entries[key] = memoryEntry{value: []byte(strconv.FormatInt(n, 10)), expiresAt: expiresAt}
	return n, nil
}

// sweepLocked removes expired entries. Callers hold the write lock.
func (c *MemoryCache) sweepLocked(now time.Time) {
	if now.Sub(c.lastSweep) < sweepInterval {
		return
	}
	c.lastSweep = now
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
