package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lborres/silid/core"
)

const (
	DefaultTTL     = 30 * time.Second
	DefaultMaxSize = 500
)

var _ core.CacheWithStats = (*InMemoryCache)(nil)

// InMemoryCache keeps verified sessions for a short TTL so repeated requests
// with the same token skip the session lookup. Entries never outlive the
// session they were built from.
type InMemoryCache struct {
	entries map[string]*cachedRecord // key: token hash
	mu      sync.RWMutex
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	// counters
	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	evictions int64
}

type cachedRecord struct {
	data     *core.SessionData
	cachedAt time.Time
}

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache(c core.CacheConfig) *InMemoryCache {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultMaxSize
	}

	return &InMemoryCache{
		entries: make(map[string]*cachedRecord),
		ttl:     c.TTL,
		maxSize: c.MaxSize,
		now:     time.Now,
	}
}

// SetClock replaces the time source. It must be called before the cache is shared.
func (c *InMemoryCache) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// Get retrieves a live session from cache
func (c *InMemoryCache) Get(tokenHash string) (*core.SessionData, error) {
	now := c.now()

	c.mu.RLock()
	record, exists := c.entries[tokenHash]
	c.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil, core.ErrCacheNotFound
	}

	if now.Sub(record.cachedAt) > c.ttl || record.data.Session.Expired(now) {
		atomic.AddInt64(&c.misses, 1)
		c.mu.Lock()
		// only drop the record we looked at; a concurrent Set may have replaced it
		if current, ok := c.entries[tokenHash]; ok && current == record {
			delete(c.entries, tokenHash)
		}
		c.mu.Unlock()
		return nil, core.ErrCacheNotFound
	}

	atomic.AddInt64(&c.hits, 1)
	return record.data, nil
}

// Set stores a session in cache, evicting the oldest entry when full
func (c *InMemoryCache) Set(tokenHash string, data *core.SessionData) error {
	if data == nil || data.Session == nil || data.Identity == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, replacing := c.entries[tokenHash]; !replacing && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}

	c.entries[tokenHash] = &cachedRecord{
		data:     data,
		cachedAt: c.now(),
	}

	atomic.AddInt64(&c.sets, 1)
	return nil
}

func (c *InMemoryCache) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, r := range c.entries {
		if !found || r.cachedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, r.cachedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
		atomic.AddInt64(&c.evictions, 1)
	}
}

// Delete removes a session from cache
func (c *InMemoryCache) Delete(tokenHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, existed := c.entries[tokenHash]; existed {
		delete(c.entries, tokenHash)
		atomic.AddInt64(&c.deletes, 1)
	}
	return nil
}

// Clear removes all sessions from cache
func (c *InMemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cachedRecord)
	return nil
}

// Len returns the number of cached sessions
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics
func (c *InMemoryCache) Stats() core.CacheStats {
	return core.CacheStats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Sets:      atomic.LoadInt64(&c.sets),
		Deletes:   atomic.LoadInt64(&c.deletes),
		Evictions: atomic.LoadInt64(&c.evictions),
		Size:      c.Len(),
		TTL:       c.ttl,
	}
}
