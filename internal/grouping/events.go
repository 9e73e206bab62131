package grouping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tapdeck/groupgen/internal/cluster"
	"github.com/tapdeck/groupgen/internal/model"
	"github.com/tapdeck/groupgen/internal/resilience"
	"github.com/tapdeck/groupgen/internal/venue"
	"github.com/tapdeck/groupgen/pkg/places"
)

// DetectorConfig tunes the venue-lookup pass.
type DetectorConfig struct {
	// BatchSize is how many locations are grouped per batch.
	BatchSize int

	// MaxConcurrent caps in-flight lookups inside a batch.
	MaxConcurrent int

	// RequestInterval is the minimum spacing between lookup requests.
	// A throttle for the external service, not a correctness requirement.
	RequestInterval time.Duration

	// InterBatchDelay pauses between batches.
	InterBatchDelay time.Duration

	// VenueTypes are the place types requested from nearby search.
	VenueTypes []string

	// MaxResults caps results per lookup call.
	MaxResults int

	// SearchProfile selects the base search radius.
	SearchProfile string

	// TextFallbackMin triggers the text-search fallback when nearby search
	// yielded fewer qualifying venues.
	TextFallbackMin int
}

// DefaultDetectorConfig returns the standard lookup tuning.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		BatchSize:       3,
		MaxConcurrent:   3,
		RequestInterval: 100 * time.Millisecond,
		InterBatchDelay: 200 * time.Millisecond,
		VenueTypes: []string{
			"convention_center", "event_venue", "banquet_hall",
			"community_center", "hotel", "university",
		},
		MaxResults:      10,
		SearchProfile:   "event",
		TextFallbackMin: 2,
	}
}

func (c *DetectorConfig) applyDefaults() {
	def := DefaultDetectorConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = def.MaxConcurrent
	}
	if c.RequestInterval <= 0 {
		c.RequestInterval = def.RequestInterval
	}
	if c.InterBatchDelay < 0 {
		c.InterBatchDelay = def.InterBatchDelay
	}
	if len(c.VenueTypes) == 0 {
		c.VenueTypes = def.VenueTypes
	}
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	if c.SearchProfile == "" {
		c.SearchProfile = def.SearchProfile
	}
	if c.TextFallbackMin <= 0 {
		c.TextFallbackMin = def.TextFallbackMin
	}
}

// EventDetector discovers event groups three ways, in order: explicit event
// metadata, venue lookups around contact locations, and spatial clustering
// of contacts that share discovered venues.
type EventDetector struct {
	client  places.Client
	cache   *venue.Cache
	scorer  *venue.Scorer
	radius  *venue.RadiusSelector
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	limiter *rate.Limiter
	cfg     DetectorConfig
	now     func() time.Time
}

// NewEventDetector wires a detector. The cache is shared across runs; the
// breaker guards the lookup client.
func NewEventDetector(client places.Client, cache *venue.Cache, scorer *venue.Scorer, radius *venue.RadiusSelector, cfg DetectorConfig) *EventDetector {
	cfg.applyDefaults()
	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("venue_lookup")
	return &EventDetector{
		client:  client,
		cache:   cache,
		scorer:  scorer,
		radius:  radius,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitConfig{}),
		retry:   retryCfg,
		limiter: rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
		cfg:     cfg,
		now:     time.Now,
	}
}

// WithClock overrides the detector's clock for tests.
func (d *EventDetector) WithClock(now func() time.Time) *EventDetector {
	d.now = now
	return d
}

// Detect runs the event sub-strategies and concatenates their results.
// The venue-lookup and clustering passes only run when enhanced is set;
// the metadata pass is free and always runs. A canceled context stops new
// lookups but already-found groups are still returned.
func (d *EventDetector) Detect(ctx context.Context, contacts []model.Contact, minSize int, enhanced bool, stats *Stats) []model.GroupCandidate {
	groups := metadataGroups(contacts, minSize)

	if enhanced {
		venuesByContact := d.lookupVenues(ctx, contacts, stats)
		groups = append(groups, d.clusterGroups(contacts, venuesByContact, minSize)...)
	}

	stats.addGroups(sourceEvent, len(groups))
	return groups
}

// metadataGroups groups contacts carrying an explicit event name. The user
// told us the event; confidence is always high.
func metadataGroups(contacts []model.Contact, minSize int) []model.GroupCandidate {
	buckets := make(map[string][]string)
	var order []string

	for _, c := range contacts {
		if c.Event == nil {
			continue
		}
		name := strings.TrimSpace(c.Event.EventName)
		if name == "" {
			continue
		}
		if _, ok := buckets[name]; !ok {
			order = append(order, name)
		}
		buckets[name] = append(buckets[name], c.ID)
	}

	var groups []model.GroupCandidate
	for _, name := range order {
		ids := buckets[name]
		if len(ids) < minSize {
			continue
		}
		groups = append(groups, model.GroupCandidate{
			Name:            name,
			Type:            model.GroupTypeEvent,
			ContactIDs:      ids,
			Confidence:      model.ConfidenceHigh,
			Reason:          fmt.Sprintf("%d contacts tagged with event %q", len(ids), name),
			DiscoveryMethod: "event_metadata",
			Event:           &model.EventData{EventName: name},
		})
	}
	return groups
}

// lookupVenues finds qualifying venues around each located contact. It
// processes locations in fixed-size batches with bounded concurrency and
// an inter-batch pause. One bad location never aborts the batch: failures
// are logged, counted, and skipped.
func (d *EventDetector) lookupVenues(ctx context.Context, contacts []model.Contact, stats *Stats) map[string][]venue.Candidate {
	var located []model.Contact
	for _, c := range contacts {
		if c.HasLocation() {
			located = append(located, c)
		}
	}

	log := zap.L().With(zap.String("phase", "venue_lookup"))
	results := make([][]venue.Candidate, len(located))

	for start := 0; start < len(located); start += d.cfg.BatchSize {
		// Cancellation stops new batches; completed results are kept.
		if ctx.Err() != nil {
			log.Info("lookup canceled, returning partial results", zap.Int("processed", start))
			break
		}

		end := start + d.cfg.BatchSize
		if end > len(located) {
			end = len(located)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.cfg.MaxConcurrent)

		for i := start; i < end; i++ {
			g.Go(func() error {
				c := located[i]
				found, err := d.venuesForLocation(gctx, *c.Location, stats)
				if err != nil {
					stats.AddLookupFailure()
					log.Warn("venue lookup failed, skipping location",
						zap.String("contact_id", c.ID),
						zap.Error(err),
					)
					return nil
				}
				results[i] = found
				return nil
			})
		}
		g.Wait() //nolint:errcheck // workers never return errors

		if end < len(located) && d.cfg.InterBatchDelay > 0 {
			timer := time.NewTimer(d.cfg.InterBatchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}

	byContact := make(map[string][]venue.Candidate, len(located))
	for i, c := range located {
		if len(results[i]) > 0 {
			byContact[c.ID] = results[i]
		}
	}
	return byContact
}

// venuesForLocation resolves qualifying venues for one location: cache
// first, then nearby search, then the text-search fallback when nearby
// search found too few.
func (d *EventDetector) venuesForLocation(ctx context.Context, loc model.LatLng, stats *Stats) ([]venue.Candidate, error) {
	now := d.now()
	radiusM := d.radius.SearchRadius(d.cfg.SearchProfile, loc, now)

	if cached, ok := d.cache.Get(loc.Latitude, loc.Longitude, radiusM, d.cfg.VenueTypes); ok {
		return cached, nil
	}

	accepted, err := d.nearbyPass(ctx, loc, radiusM, stats)
	if err != nil {
		return nil, err
	}

	if len(accepted) < d.cfg.TextFallbackMin {
		fromText, err := d.textPass(ctx, loc, radiusM, now, stats)
		if err != nil {
			// Nearby results are still usable; the fallback is best-effort.
			zap.L().Debug("text search fallback failed", zap.Error(err))
		} else {
			accepted = dedupeByID(accepted, fromText)
		}
	}

	d.cache.Set(loc.Latitude, loc.Longitude, radiusM, d.cfg.VenueTypes, accepted)
	stats.AddVenuesFound(len(accepted))
	return accepted, nil
}

func (d *EventDetector) nearbyPass(ctx context.Context, loc model.LatLng, radiusM int, stats *Stats) ([]venue.Candidate, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	found, err := resilience.DoVal(ctx, d.retry, func(ctx context.Context) ([]places.Place, error) {
		return resilience.ExecuteVal(ctx, d.breaker, func(ctx context.Context) ([]places.Place, error) {
			stats.AddExternalCall()
			return d.client.SearchNearby(ctx, places.NearbyRequest{
				Latitude:      loc.Latitude,
				Longitude:     loc.Longitude,
				RadiusMeters:  radiusM,
				IncludedTypes: d.cfg.VenueTypes,
				MaxResults:    d.cfg.MaxResults,
				Rank:          places.RankByPopularity,
			})
		})
	})
	if err != nil {
		return nil, err
	}

	return d.scoreAndFilter(found, venue.MethodNearbySearch), nil
}

func (d *EventDetector) textPass(ctx context.Context, loc model.LatLng, radiusM int, now time.Time, stats *Stats) ([]venue.Candidate, error) {
	city, hasCity := d.radius.NearestCity(loc)
	queries := venue.ContextQueries(city, hasCity, now)

	var accepted []venue.Candidate
	for _, query := range queries {
		if err := d.limiter.Wait(ctx); err != nil {
			return accepted, err
		}

		found, err := resilience.DoVal(ctx, d.retry, func(ctx context.Context) ([]places.Place, error) {
			return resilience.ExecuteVal(ctx, d.breaker, func(ctx context.Context) ([]places.Place, error) {
				stats.AddExternalCall()
				return d.client.SearchText(ctx, places.TextRequest{
					Query:        query,
					Latitude:     loc.Latitude,
					Longitude:    loc.Longitude,
					RadiusMeters: radiusM,
					MaxResults:   d.cfg.MaxResults,
				})
			})
		})
		if err != nil {
			return accepted, err
		}

		accepted = dedupeByID(accepted, d.scoreAndFilter(found, venue.MethodTextSearch))
	}
	return accepted, nil
}

// scoreAndFilter converts API places to candidates, scores them, and keeps
// those above the method's acceptance threshold.
func (d *EventDetector) scoreAndFilter(found []places.Place, method venue.DiscoveryMethod) []venue.Candidate {
	var accepted []venue.Candidate
	for _, p := range found {
		cand := venue.Candidate{
			ID:              p.ID,
			Name:            p.DisplayName.Text,
			Location:        model.LatLng{Latitude: p.Location.Latitude, Longitude: p.Location.Longitude},
			Types:           p.Types,
			Rating:          p.Rating,
			UserRatingCount: p.UserRatingCount,
			BusinessStatus:  p.BusinessStatus,
			Address:         p.FormattedAddress,
			DiscoveryMethod: method,
		}
		cand.EventScore = d.scorer.Score(cand, method)
		if d.scorer.Accept(cand.EventScore, method) {
			accepted = append(accepted, cand)
		}
	}
	return accepted
}

// clusterGroups runs proximity clustering over contacts that have at least
// one qualifying venue, producing one event group per cluster anchored on
// the highest-scored venue among its members.
func (d *EventDetector) clusterGroups(contacts []model.Contact, venuesByContact map[string][]venue.Candidate, minSize int) []model.GroupCandidate {
	var withVenues []model.Contact
	for _, c := range contacts {
		if len(venuesByContact[c.ID]) > 0 {
			withVenues = append(withVenues, c)
		}
	}

	clusters := cluster.Proximity(withVenues, cluster.DefaultProximityThresholdDegrees, minSize)

	var groups []model.GroupCandidate
	for _, cl := range clusters {
		var primary venue.Candidate
		var scoreSum float64
		for _, member := range cl.Contacts {
			best := bestVenue(venuesByContact[member.ID])
			scoreSum += best.EventScore
			if best.EventScore > primary.EventScore {
				primary = best
			}
		}
		avg := scoreSum / float64(len(cl.Contacts))

		groups = append(groups, model.GroupCandidate{
			Name:            fmt.Sprintf("Event at %s", primary.Name),
			Type:            model.GroupTypeEvent,
			ContactIDs:      cl.IDs(),
			Confidence:      venue.Confidence(avg),
			Reason:          fmt.Sprintf("%d contacts met near %s", len(cl.Contacts), primary.Name),
			DiscoveryMethod: "venue_cluster",
			Event: &model.EventData{
				PrimaryVenue: primary.Name,
				VenueScore:   primary.EventScore,
			},
		})
	}
	return groups
}

func bestVenue(candidates []venue.Candidate) venue.Candidate {
	var best venue.Candidate
	for _, c := range candidates {
		if c.EventScore >= best.EventScore {
			best = c
		}
	}
	return best
}

// dedupeByID appends candidates from extra whose IDs are not already present.
func dedupeByID(base, extra []venue.Candidate) []venue.Candidate {
	seen := make(map[string]bool, len(base))
	for _, c := range base {
		seen[c.ID] = true
	}
	for _, c := range extra {
		if !seen[c.ID] {
			seen[c.ID] = true
			base = append(base, c)
		}
	}
	return base
}
