package venue

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a concurrent-safe TTL cache for venue lookup results with an LRU
// capacity cap. Keys are a pure function of the query: identical queries
// always collide within the TTL, so a generation run never pays for the
// same lookup twice. Entries are never mutated in place, only replaced.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

type cacheEntry struct {
	results    []Candidate
	insertedAt time.Time
}

// CacheStats reports cache performance for a stats snapshot.
type CacheStats struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// NewCache creates a venue result cache with the given capacity and TTL.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// cacheKey derives the key: lat/lng rounded to 3 decimals (~110 m), radius,
// and the sorted type list. Sorting makes the key order-insensitive in types.
func cacheKey(lat, lng float64, radiusMeters int, types []string) string {
	sorted := make([]string, len(types))
	copy(sorted, types)
	sort.Strings(sorted)
	return fmt.Sprintf("%.3f,%.3f:%d:%s", lat, lng, radiusMeters, strings.Join(sorted, ","))
}

// Get returns cached results for a query, or (nil, false) on miss or
// expiration. Every call increments exactly one of the hit/miss counters.
func (c *Cache) Get(lat, lng float64, radiusMeters int, types []string) ([]Candidate, bool) {
	key := cacheKey(lat, lng, radiusMeters, types)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	if time.Since(entry.insertedAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses.Add(1)
		return nil, false
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	return entry.results, true
}

// Set stores lookup results, evicting the oldest entry if at capacity.
// Storing an empty result list is valid: a location with no venues nearby
// should not be re-queried on every run.
func (c *Cache) Set(lat, lng float64, radiusMeters int, types []string, results []Candidate) {
	key := cacheKey(lat, lng, radiusMeters, types)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = &cacheEntry{results: results, insertedAt: time.Now()}
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = &cacheEntry{results: results, insertedAt: time.Now()}
	c.order = append(c.order, key)
}

// Stats returns a point-in-time view of cache performance.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries: entries,
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate,
	}
}

func (c *Cache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
