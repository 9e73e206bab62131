package grouping

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/tapdeck/groupgen/internal/cluster"
	"github.com/tapdeck/groupgen/internal/model"
	"github.com/tapdeck/groupgen/internal/venue"
)

// Orchestrator is the top-level entry point for one generation run: it
// executes the enabled strategies, merges overlapping candidates, and
// reports run statistics. Strategy passes run in a fixed order because the
// merge step is order-sensitive.
type Orchestrator struct {
	detector *EventDetector
	cache    *venue.Cache
	radius   *venue.RadiusSelector
}

// NewOrchestrator wires the orchestrator. The cache reference is only used
// for the stats snapshot; the detector owns cache access.
func NewOrchestrator(detector *EventDetector, cache *venue.Cache, radius *venue.RadiusSelector) *Orchestrator {
	return &Orchestrator{detector: detector, cache: cache, radius: radius}
}

// Generate derives the deduplicated group set for a contact list. Lookup
// failures and cancellation degrade the result instead of failing it: a
// partial group list is returned with the stats reflecting what happened.
// Only invalid options produce an error.
func (o *Orchestrator) Generate(ctx context.Context, contacts []model.Contact, opts model.GenerationOptions) ([]model.GroupCandidate, Snapshot, error) {
	opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, Snapshot{}, err
	}

	log := zap.L().With(zap.Int("contacts", len(contacts)))
	stats := NewStats()
	var candidates []model.GroupCandidate

	if opts.GroupByCompany {
		groups := GroupByCompany(contacts, opts.MinGroupSize)
		stats.addGroups(sourceCompany, len(groups))
		candidates = append(candidates, groups...)
	}

	if opts.GroupByEvents {
		groups := o.detector.Detect(ctx, contacts, opts.MinGroupSize, opts.EnhancedEventDetection, stats)
		candidates = append(candidates, groups...)
	}

	temporal := temporalGroups(contacts, opts.MinGroupSize)
	stats.addGroups(sourceTemporal, len(temporal))
	candidates = append(candidates, temporal...)

	if opts.GroupByLocation {
		groups := o.locationGroups(contacts, opts.MinGroupSize)
		stats.addGroups(sourceLocation, len(groups))
		candidates = append(candidates, groups...)
	}

	merged := Merge(candidates, stats)

	// Highest-confidence groups first; stable so same-confidence groups
	// keep strategy order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence.Rank() > merged[j].Confidence.Rank()
	})
	if len(merged) > opts.MaxGroups {
		merged = merged[:opts.MaxGroups]
	}

	snapshot := stats.SnapshotWith(o.cache.Stats())
	log.Info("group generation complete",
		zap.Int("groups", len(merged)),
		zap.Int64("candidates", snapshot.GroupsCreated()),
		zap.Int64("merges", snapshot.MergesPerformed),
		zap.Int64("external_calls", snapshot.ExternalCalls),
		zap.Int64("lookup_failures", snapshot.LookupFailures),
		zap.Float64("cache_hit_rate", snapshot.Cache.HitRate),
	)

	return merged, snapshot, nil
}

// temporalGroups converts same-day submission runs into group candidates.
func temporalGroups(contacts []model.Contact, minSize int) []model.GroupCandidate {
	runs := cluster.Temporal(contacts, cluster.DefaultGap, minSize)

	var groups []model.GroupCandidate
	for _, run := range runs {
		start := run.Start.UTC()
		groups = append(groups, model.GroupCandidate{
			Name:            fmt.Sprintf("%s Cohort", start.Format("Jan 2, 2006")),
			Type:            model.GroupTypeTemporal,
			ContactIDs:      run.IDs(),
			Confidence:      temporalConfidence(len(run.Contacts)),
			Reason:          fmt.Sprintf("%d contacts added within %s on %s", len(run.Contacts), run.Span().Round(time.Second), start.Format("Jan 2")),
			DiscoveryMethod: "temporal_cluster",
			Time:            &model.TimeData{Start: run.Start, End: run.End},
		})
	}
	return groups
}

// locationGroups runs the pure proximity pass, naming groups after a
// recognizable city when one is near.
func (o *Orchestrator) locationGroups(contacts []model.Contact, minSize int) []model.GroupCandidate {
	clusters := cluster.Proximity(contacts, cluster.DefaultProximityThresholdDegrees, minSize)

	var groups []model.GroupCandidate
	for i, cl := range clusters {
		center := cl.Center()

		name := fmt.Sprintf("Nearby Group %d", i+1)
		if city, ok := o.radius.NearestCity(center); ok {
			name = fmt.Sprintf("%s Area", city.Name)
		}

		groups = append(groups, model.GroupCandidate{
			Name:            name,
			Type:            model.GroupTypeLocation,
			ContactIDs:      cl.IDs(),
			Confidence:      locationConfidence(len(cl.Contacts)),
			Reason:          fmt.Sprintf("%d contacts within ~500 m of each other", len(cl.Contacts)),
			DiscoveryMethod: "proximity_cluster",
			Location: &model.LocationData{
				Center:       center,
				RadiusMeters: 500,
			},
		})
	}
	return groups
}

func temporalConfidence(size int) model.Confidence {
	if size > 4 {
		return model.ConfidenceMedium
	}
	return model.ConfidenceLow
}

func locationConfidence(size int) model.Confidence {
	switch {
	case size > 5:
		return model.ConfidenceHigh
	case size >= 3:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
