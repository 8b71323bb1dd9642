// internal/app/system/catalogcache/catalogcache.go
// Package catalogcache is a small in-process cache for the public site's
// read-only content lists. Admin saves and deletes invalidate the touched
// collection; signing out purges everything so a fresh session never sees
// stale content.
package catalogcache

import (
	"sync"
	"time"
)

// TTL bounds staleness for public pages even when no admin write occurs,
// covering writes from another process.
const TTL = 5 * time.Minute

type entry struct {
	value   any
	expires time.Time
}

// Cache is a keyed cache with per-entry expiry. Keys are collection names.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or ok=false if absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expires) {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key with the default TTL.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expires: c.now().Add(TTL)}
	c.mu.Unlock()
}

// Invalidate drops the entry for key, if any.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of entries, counting expired ones not yet evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
