// Package grouping derives candidate contact groups: by company, by event
// (explicit metadata, venue lookups, spatial clusters), by location, and by
// submission time, then merges overlapping candidates into a deduplicated
// set. This is the core of automatic group generation.
package grouping

import (
	"sync/atomic"

	"github.com/tapdeck/groupgen/internal/venue"
)

// Stats accumulates counters for one generation run. Lookup workers update
// it concurrently, so every field is atomic; the owning orchestrator reads
// it only after all workers finish. Never shared across runs.
type Stats struct {
	companyGroups  atomic.Int64
	eventGroups    atomic.Int64
	locationGroups atomic.Int64
	temporalGroups atomic.Int64

	mergesPerformed atomic.Int64
	externalCalls   atomic.Int64
	venuesFound     atomic.Int64
	lookupFailures  atomic.Int64
}

// Snapshot is the read-only view of a completed run's statistics.
type Snapshot struct {
	CompanyGroups  int64 `json:"company_groups"`
	EventGroups    int64 `json:"event_groups"`
	LocationGroups int64 `json:"location_groups"`
	TemporalGroups int64 `json:"temporal_groups"`

	MergesPerformed int64 `json:"merges_performed"`
	ExternalCalls   int64 `json:"external_calls"`
	VenuesFound     int64 `json:"venues_found"`
	LookupFailures  int64 `json:"lookup_failures"`

	Cache venue.CacheStats `json:"cache"`
}

// NewStats creates an empty accumulator for one run.
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) addGroups(t groupSource, n int) {
	switch t {
	case sourceCompany:
		s.companyGroups.Add(int64(n))
	case sourceEvent:
		s.eventGroups.Add(int64(n))
	case sourceLocation:
		s.locationGroups.Add(int64(n))
	case sourceTemporal:
		s.temporalGroups.Add(int64(n))
	}
}

// AddExternalCall records one call to the venue lookup service.
func (s *Stats) AddExternalCall() { s.externalCalls.Add(1) }

// AddVenuesFound records qualifying venues discovered by a lookup.
func (s *Stats) AddVenuesFound(n int) { s.venuesFound.Add(int64(n)) }

// AddLookupFailure records a per-location lookup failure. Failures never
// abort a run, but they must stay visible for observability.
func (s *Stats) AddLookupFailure() { s.lookupFailures.Add(1) }

// AddMerge records one candidate merged into an accepted group.
func (s *Stats) AddMerge() { s.mergesPerformed.Add(1) }

// SnapshotWith returns the final counters plus the cache's view.
func (s *Stats) SnapshotWith(cache venue.CacheStats) Snapshot {
	return Snapshot{
		CompanyGroups:   s.companyGroups.Load(),
		EventGroups:     s.eventGroups.Load(),
		LocationGroups:  s.locationGroups.Load(),
		TemporalGroups:  s.temporalGroups.Load(),
		MergesPerformed: s.mergesPerformed.Load(),
		ExternalCalls:   s.externalCalls.Load(),
		VenuesFound:     s.venuesFound.Load(),
		LookupFailures:  s.lookupFailures.Load(),
		Cache:           cache,
	}
}

// GroupsCreated is the total across all strategies before merging.
func (s Snapshot) GroupsCreated() int64 {
	return s.CompanyGroups + s.EventGroups + s.LocationGroups + s.TemporalGroups
}

type groupSource int

const (
	sourceCompany groupSource = iota
	sourceEvent
	sourceLocation
	sourceTemporal
)
