package search

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rubiojr/estatedesk/pkg/core"
)

// DefaultCacheTTL is how long a cached entity list stays valid.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	records  []core.Record
	storedAt time.Time
}

// Cache is a check-then-store cache of per-entity fetch results keyed on
// (entity type, query, filter signature). Entries are never evicted
// proactively; an expired entry is treated as absent when read and removed
// by Sweep.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// CacheStats is reported after a sweep.
type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// NewCache creates a cache with the given TTL (DefaultCacheTTL when <= 0).
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// TTL returns the validity window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// CacheKey builds the composite key. Filters are sorted so the signature
// does not depend on map iteration order.
func CacheKey(entity core.EntityType, query string, filters map[string]string) string {
	var b strings.Builder
	b.WriteString(string(entity))
	b.WriteByte('|')
	b.WriteString(strings.TrimSpace(query))
	b.WriteByte('|')

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(filters[k])
	}
	return b.String()
}

// Get returns the cached records for key when present and younger than TTL.
func (c *Cache) Get(key string) ([]core.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return entry.records, true
}

// Set stores records under key, stamped with the current time.
func (c *Cache) Set(key string, records []core.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{records: records, storedAt: c.now()}
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked()
}

func (c *Cache) sweepLocked() int {
	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats sweeps expired entries, then reports size and sorted keys.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return CacheStats{Size: len(keys), Keys: keys}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
