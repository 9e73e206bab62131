package venue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_GetSet(t *testing.T) {
	cache := NewCache(100, time.Hour)

	_, ok := cache.Get(40.7128, -74.0060, 1500, []string{"convention_center"})
	assert.False(t, ok)

	results := []Candidate{{ID: "p1", Name: "Expo Hall"}}
	cache.Set(40.7128, -74.0060, 1500, []string{"convention_center"}, results)

	got, ok := cache.Get(40.7128, -74.0060, 1500, []string{"convention_center"})
	assert.True(t, ok)
	assert.Equal(t, results, got)
}

func TestCache_KeyRoundsCoordinates(t *testing.T) {
	cache := NewCache(100, time.Hour)
	cache.Set(40.71281, -74.00601, 1500, []string{"hotel"}, []Candidate{{ID: "p1"}})

	// ~1m away: rounds to the same 3-decimal key.
	_, ok := cache.Get(40.71279, -74.00599, 1500, []string{"hotel"})
	assert.True(t, ok)

	// Different radius is a different key.
	_, ok = cache.Get(40.71281, -74.00601, 2000, []string{"hotel"})
	assert.False(t, ok)
}

func TestCache_KeyIgnoresTypeOrder(t *testing.T) {
	cache := NewCache(100, time.Hour)
	cache.Set(40.7128, -74.0060, 1500, []string{"hotel", "convention_center"}, []Candidate{{ID: "p1"}})

	_, ok := cache.Get(40.7128, -74.0060, 1500, []string{"convention_center", "hotel"})
	assert.True(t, ok)
}

func TestCache_TTLExpiration(t *testing.T) {
	cache := NewCache(100, 30*time.Millisecond)
	cache.Set(40.7128, -74.0060, 1500, nil, []Candidate{{ID: "p1"}})

	_, ok := cache.Get(40.7128, -74.0060, 1500, nil)
	assert.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = cache.Get(40.7128, -74.0060, 1500, nil)
	assert.False(t, ok)
}

func TestCache_CountsHitsAndMisses(t *testing.T) {
	cache := NewCache(100, time.Hour)

	cache.Get(1, 1, 500, nil)
	cache.Set(1, 1, 500, nil, []Candidate{{ID: "p1"}})
	cache.Get(1, 1, 500, nil)
	cache.Get(1, 1, 500, nil)

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 0.001)
	assert.Equal(t, 1, stats.Entries)
}

func TestCache_EmptyResultsAreCached(t *testing.T) {
	cache := NewCache(100, time.Hour)
	cache.Set(1, 1, 500, nil, []Candidate{})

	got, ok := cache.Get(1, 1, 500, nil)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	cache := NewCache(2, time.Hour)

	cache.Set(1, 1, 500, nil, []Candidate{{ID: "a"}})
	cache.Set(2, 2, 500, nil, []Candidate{{ID: "b"}})
	cache.Set(3, 3, 500, nil, []Candidate{{ID: "c"}})

	_, ok := cache.Get(1, 1, 500, nil)
	assert.False(t, ok)
	_, ok = cache.Get(2, 2, 500, nil)
	assert.True(t, ok)
	_, ok = cache.Get(3, 3, 500, nil)
	assert.True(t, ok)
}
