package venue

import (
	"strings"
	"time"
)

// Scorer computes the event score of a venue candidate: a heuristic [0,1]
// likelihood that the venue hosted or is hosting an event worth grouping
// contacts around. Stateless apart from the injected clock.
type Scorer struct {
	cfg ScoringConfig
	now func() time.Time
}

// NewScorer creates a Scorer over the given tables.
func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg, now: time.Now}
}

// WithClock overrides the scorer's clock. Tests use this to pin the
// temporal-relevance signal.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Score returns the weighted event score for a candidate, clamped to [0,1].
func (s *Scorer) Score(c Candidate, method DiscoveryMethod) float64 {
	w := s.cfg.Weights

	total := w.TypeRelevance*s.typeRelevance(c.Types) +
		w.NameKeywords*s.nameKeywordMatch(c.Name) +
		w.Quality*s.qualitySignal(c) +
		w.Temporal*s.temporalRelevance(s.now()) +
		w.Method*methodBonus(method)

	return clamp01(total)
}

// Accept reports whether a scored candidate clears the acceptance threshold
// for its discovery method.
func (s *Scorer) Accept(score float64, method DiscoveryMethod) bool {
	if method == MethodTextSearch {
		return score > s.cfg.AcceptText
	}
	return score > s.cfg.AcceptNearby
}

// typeRelevance takes the maximum priority across the candidate's types and
// normalizes it to [0,1]. Unknown types contribute nothing.
func (s *Scorer) typeRelevance(types []string) float64 {
	best := 0
	for _, t := range types {
		if p := s.cfg.TypePriority[t]; p > best {
			best = p
		}
	}
	return float64(best) / 10.0
}

// nameKeywordMatch counts event keyword occurrences in the lower-cased name.
// Two or more matches saturate the signal.
func (s *Scorer) nameKeywordMatch(name string) float64 {
	lower := strings.ToLower(name)
	count := 0
	for _, kw := range s.cfg.EventKeywords {
		count += strings.Count(lower, kw)
	}
	return clamp01(float64(count) / 2.0)
}

// qualitySignal combines business status, rating and review volume.
func (s *Scorer) qualitySignal(c Candidate) float64 {
	signal := 0.0
	if c.BusinessStatus == BusinessStatusOperational {
		signal += 0.3
	}
	if c.Rating >= 3.5 {
		signal += 0.4 * (c.Rating / 5.0)
	}
	if c.UserRatingCount >= 20 {
		frac := float64(c.UserRatingCount) / 500.0
		if frac > 1 {
			frac = 1
		}
		signal += 0.3 * frac
	}
	return clamp01(signal)
}

func (s *Scorer) temporalRelevance(at time.Time) float64 {
	if m, ok := s.cfg.HourMultipliers[at.Hour()]; ok {
		return m
	}
	return s.cfg.OffHoursMultiplier
}

// methodBonus favors text-search hits: the query already filtered for
// event-shaped venues.
func methodBonus(method DiscoveryMethod) float64 {
	if method == MethodTextSearch {
		return 0.8
	}
	return 0.5
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
