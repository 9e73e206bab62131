package venue

import (
	"time"

	"github.com/tapdeck/groupgen/internal/geo"
	"github.com/tapdeck/groupgen/internal/model"
)

const (
	// MinSearchRadius and MaxSearchRadius clamp the computed radius. Below
	// 300 m the places API returns almost nothing useful; above 8 km the
	// results stop being attributable to one venue.
	MinSearchRadius = 300
	MaxSearchRadius = 8000

	// cityMatchKm is how close a point must be to a known city center to
	// pick up that city's multiplier and name.
	cityMatchKm = 25.0
)

// City is a recognizable metro with a density-derived radius multiplier.
// Dense cities search tighter; sprawling ones search wider.
type City struct {
	Name       string       `yaml:"name"`
	Center     model.LatLng `yaml:"center"`
	Multiplier float64      `yaml:"multiplier"`
}

// RadiusConfig holds the tables behind search radius selection.
type RadiusConfig struct {
	// BaseRadius maps a search profile to its base radius in meters.
	BaseRadius map[string]float64 `yaml:"base_radius"`

	DefaultRadius float64 `yaml:"default_radius"`

	Cities []City `yaml:"cities"`

	// WeekendMultiplier widens weekend searches: weekend events cluster
	// around fewer, larger venues.
	WeekendMultiplier float64 `yaml:"weekend_multiplier"`

	// EveningMultiplier widens searches after business hours.
	EveningMultiplier float64 `yaml:"evening_multiplier"`

	// SummerMultiplier widens June-August searches (outdoor events).
	SummerMultiplier float64 `yaml:"summer_multiplier"`
}

// DefaultRadiusConfig returns the built-in radius tables.
func DefaultRadiusConfig() RadiusConfig {
	return RadiusConfig{
		BaseRadius: map[string]float64{
			"conference": 3000,
			"event":      2000,
			"business":   1000,
			"social":     800,
		},
		DefaultRadius: 1500,
		Cities: []City{
			{Name: "New York", Center: model.LatLng{Latitude: 40.7128, Longitude: -74.0060}, Multiplier: 0.6},
			{Name: "San Francisco", Center: model.LatLng{Latitude: 37.7749, Longitude: -122.4194}, Multiplier: 0.7},
			{Name: "Chicago", Center: model.LatLng{Latitude: 41.8781, Longitude: -87.6298}, Multiplier: 0.8},
			{Name: "Los Angeles", Center: model.LatLng{Latitude: 34.0522, Longitude: -118.2437}, Multiplier: 1.3},
			{Name: "Houston", Center: model.LatLng{Latitude: 29.7604, Longitude: -95.3698}, Multiplier: 1.4},
			{Name: "London", Center: model.LatLng{Latitude: 51.5074, Longitude: -0.1278}, Multiplier: 0.7},
			{Name: "Tokyo", Center: model.LatLng{Latitude: 35.6762, Longitude: 139.6503}, Multiplier: 0.6},
			{Name: "Berlin", Center: model.LatLng{Latitude: 52.5200, Longitude: 13.4050}, Multiplier: 0.9},
		},
		WeekendMultiplier: 1.25,
		EveningMultiplier: 1.15,
		SummerMultiplier:  1.2,
	}
}

// RadiusSelector computes context-aware search radii.
type RadiusSelector struct {
	cfg RadiusConfig
}

// NewRadiusSelector creates a selector over the given tables.
func NewRadiusSelector(cfg RadiusConfig) *RadiusSelector {
	return &RadiusSelector{cfg: cfg}
}

// NearestCity returns the known city whose center is within range of the
// point, or false when the location is not near any recognizable metro.
func (r *RadiusSelector) NearestCity(loc model.LatLng) (City, bool) {
	var best City
	bestKm := cityMatchKm
	found := false
	for _, city := range r.cfg.Cities {
		km := geo.DistanceKm(loc.Latitude, loc.Longitude, city.Center.Latitude, city.Center.Longitude)
		if km <= bestKm {
			best = city
			bestKm = km
			found = true
		}
	}
	return best, found
}

// SearchRadius returns the lookup radius in meters for a search profile at
// a given location and time: base radius per profile, adjusted by city
// density and by when the search happens, clamped to [300, 8000].
func (r *RadiusSelector) SearchRadius(profile string, loc model.LatLng, at time.Time) int {
	radius, ok := r.cfg.BaseRadius[profile]
	if !ok {
		radius = r.cfg.DefaultRadius
	}

	if city, ok := r.NearestCity(loc); ok {
		radius *= city.Multiplier
	}

	switch at.Weekday() {
	case time.Saturday, time.Sunday:
		radius *= r.cfg.WeekendMultiplier
	}
	if h := at.Hour(); h >= 18 || h < 6 {
		radius *= r.cfg.EveningMultiplier
	}
	switch at.Month() {
	case time.June, time.July, time.August:
		radius *= r.cfg.SummerMultiplier
	}

	if radius < MinSearchRadius {
		radius = MinSearchRadius
	}
	if radius > MaxSearchRadius {
		radius = MaxSearchRadius
	}
	return int(radius)
}
