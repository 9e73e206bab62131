package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// GroupType discriminates the payload carried by a GroupCandidate.
type GroupType string

const (
	GroupTypeCompany  GroupType = "company"
	GroupTypeLocation GroupType = "location"
	GroupTypeEvent    GroupType = "event"
	GroupTypeTemporal GroupType = "temporal"
)

// Rank orders group types for merge conflict resolution: an event group
// beats a company group beats a location or temporal group.
func (t GroupType) Rank() int {
	switch t {
	case GroupTypeEvent:
		return 3
	case GroupTypeCompany:
		return 2
	default:
		return 1
	}
}

// Confidence is a coarse reliability label for a group or venue.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidence labels: high=3, medium=2, low=1.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	default:
		return 1
	}
}

// Max returns the higher of two confidence labels.
func (c Confidence) Max(other Confidence) Confidence {
	if other.Rank() > c.Rank() {
		return other
	}
	return c
}

// CompanyData is the payload for company groups.
type CompanyData struct {
	CompanyName string `json:"company_name"`
}

// LocationData is the payload for location groups.
type LocationData struct {
	Center       LatLng  `json:"center"`
	RadiusMeters float64 `json:"radius_meters"`
}

// EventData is the payload for event groups.
type EventData struct {
	EventName    string  `json:"event_name,omitempty"`
	PrimaryVenue string  `json:"primary_venue,omitempty"`
	VenueScore   float64 `json:"venue_score,omitempty"`
}

// TimeData is the payload for temporal groups.
type TimeData struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// GroupCandidate is one candidate grouping produced by a strategy. Exactly
// one payload field (matching Type) is non-nil; the others stay nil.
// ContactIDs is never empty and contains no duplicates.
type GroupCandidate struct {
	ID              string     `json:"id,omitempty"`
	Name            string     `json:"name"`
	Type            GroupType  `json:"type"`
	ContactIDs      []string   `json:"contact_ids"`
	Confidence      Confidence `json:"confidence"`
	Reason          string     `json:"reason"`
	DiscoveryMethod string     `json:"discovery_method,omitempty"`

	Company  *CompanyData  `json:"company_data,omitempty"`
	Location *LocationData `json:"location_data,omitempty"`
	Event    *EventData    `json:"event_data,omitempty"`
	Time     *TimeData     `json:"time_data,omitempty"`
}

// ErrInvalidOptions marks a rejected GenerationOptions value. Callers map
// it to a 400 response.
var ErrInvalidOptions = eris.New("model: invalid generation options")

// GenerationOptions control which strategies an orchestration run executes.
type GenerationOptions struct {
	GroupByCompany         bool `json:"group_by_company"`
	GroupByLocation        bool `json:"group_by_location"`
	GroupByEvents          bool `json:"group_by_events"`
	MinGroupSize           int  `json:"min_group_size"`
	MaxGroups              int  `json:"max_groups"`
	EnhancedEventDetection bool `json:"enhanced_event_detection"`
}

// DefaultGenerationOptions enables all strategies with the standard sizes.
func DefaultGenerationOptions() GenerationOptions {
	return GenerationOptions{
		GroupByCompany:  true,
		GroupByLocation: true,
		GroupByEvents:   true,
		MinGroupSize:    2,
		MaxGroups:       50,
	}
}

// Normalize fills unset numeric options with defaults.
func (o *GenerationOptions) Normalize() {
	if o.MinGroupSize == 0 {
		o.MinGroupSize = 2
	}
	if o.MaxGroups == 0 {
		o.MaxGroups = 50
	}
}

// Validate rejects malformed options before any processing starts.
func (o GenerationOptions) Validate() error {
	if o.MinGroupSize < 1 {
		return eris.Wrapf(ErrInvalidOptions, "min_group_size must be >= 1, got %d", o.MinGroupSize)
	}
	if o.MaxGroups < 1 {
		return eris.Wrapf(ErrInvalidOptions, "max_groups must be >= 1, got %d", o.MaxGroups)
	}
	return nil
}
