// Package venue scores venue candidates returned by the places lookup and
// caches lookup results. Scoring is a weighted heuristic over static tables;
// the tables are data so they can be tuned without touching the scorer.
package venue

import "github.com/tapdeck/groupgen/internal/model"

// DiscoveryMethod records which lookup path produced a candidate.
type DiscoveryMethod string

const (
	MethodNearbySearch DiscoveryMethod = "nearby_search"
	MethodTextSearch   DiscoveryMethod = "text_search"
)

// BusinessStatusOperational is the places API value for an open business.
const BusinessStatusOperational = "OPERATIONAL"

// Candidate is a place returned by an external lookup, not yet confirmed as
// event-worthy. Rating, UserRatingCount and BusinessStatus are optional;
// zero values mean the service omitted them.
type Candidate struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Location        model.LatLng    `json:"location"`
	Types           []string        `json:"types"`
	Rating          float64         `json:"rating,omitempty"`
	UserRatingCount int             `json:"user_rating_count,omitempty"`
	BusinessStatus  string          `json:"business_status,omitempty"`
	Address         string          `json:"formatted_address,omitempty"`
	DiscoveryMethod DiscoveryMethod `json:"discovery_method"`
	EventScore      float64         `json:"event_score"`
}

// Confidence maps an event score to the coarse label used on groups.
func Confidence(score float64) model.Confidence {
	switch {
	case score > 0.7:
		return model.ConfidenceHigh
	case score > 0.4:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
