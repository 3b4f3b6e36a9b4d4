package cache

import (
	"context"
	"sync"
	"time"

	"github.com/grocerygrid/backend/internal/domain"
)

const sweepInterval = 10 * time.Minute

// entry is one cached source document
type entry struct {
	doc     []byte
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expires)
}

// MemoryCache keeps source documents in process memory until their TTL runs
// out. Stored and returned documents are copies.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates an empty cache and starts its expiry sweeper
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go c.sweep(sweepInterval)
	return c
}

func (c *MemoryCache) lookup(key string) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.expired(time.Now()) {
		return entry{}, false
	}
	return e, true
}

// Get returns a copy of the document stored under key
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	e, ok := c.lookup(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return append([]byte(nil), e.doc...), nil
}

// Set stores a copy of doc under key for ttl
func (c *MemoryCache) Set(ctx context.Context, key string, doc []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = entry{
		doc:     append([]byte(nil), doc...),
		expires: time.Now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

// Delete removes key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Exists reports whether key holds a live document
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.lookup(key)
	return ok, nil
}

func (c *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.removeExpiredAt(now)
		}
	}
}

func (c *MemoryCache) removeExpiredAt(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

// Size returns the number of stored entries, expired ones included
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}
