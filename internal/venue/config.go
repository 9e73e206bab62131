package venue

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Weights are the per-signal contributions to the event score. They should
// sum to 1.0; Score clamps the total either way.
type Weights struct {
	TypeRelevance float64 `yaml:"type_relevance"`
	NameKeywords  float64 `yaml:"name_keywords"`
	Quality       float64 `yaml:"quality"`
	Temporal      float64 `yaml:"temporal"`
	Method        float64 `yaml:"method"`
}

// ScoringConfig holds the data-driven tables behind the venue scorer.
type ScoringConfig struct {
	Weights Weights `yaml:"weights"`

	// TypePriority maps a places type to an event-likelihood priority, 1-10.
	// Unknown types score zero.
	TypePriority map[string]int `yaml:"type_priority"`

	// EventKeywords are matched against the lower-cased venue name.
	EventKeywords []string `yaml:"event_keywords"`

	// HourMultipliers maps hour-of-day (0-23) to a temporal relevance
	// multiplier in [0,1]. Missing hours fall back to OffHoursMultiplier.
	HourMultipliers    map[int]float64 `yaml:"hour_multipliers"`
	OffHoursMultiplier float64         `yaml:"off_hours_multiplier"`

	// Acceptance thresholds per discovery method. Text-search results need
	// a higher bar: the query itself already biases toward event venues.
	AcceptNearby float64 `yaml:"accept_nearby"`
	AcceptText   float64 `yaml:"accept_text"`
}

// DefaultScoringConfig returns the built-in tables.
func DefaultScoringConfig() ScoringConfig {
	hours := make(map[int]float64, 24)
	for h := 8; h <= 18; h++ {
		hours[h] = 1.0
	}
	for h := 19; h <= 22; h++ {
		hours[h] = 0.8
	}
	hours[6] = 0.5
	hours[7] = 0.7
	hours[23] = 0.4

	return ScoringConfig{
		Weights: Weights{
			TypeRelevance: 0.40,
			NameKeywords:  0.25,
			Quality:       0.20,
			Temporal:      0.10,
			Method:        0.05,
		},
		TypePriority: map[string]int{
			"convention_center":       10,
			"event_venue":             9,
			"banquet_hall":            8,
			"stadium":                 8,
			"performing_arts_theater": 7,
			"concert_hall":            7,
			"community_center":        6,
			"university":              6,
			"hotel":                   5,
			"museum":                  5,
			"art_gallery":             4,
			"restaurant":              3,
			"bar":                     3,
			"night_club":              3,
			"cafe":                    2,
			"corporate_office":        2,
			"coworking_space":         2,
			"visitor_center":          1,
		},
		EventKeywords: []string{
			"conference", "convention", "expo", "center", "hall", "arena",
		},
		HourMultipliers:    hours,
		OffHoursMultiplier: 0.3,
		AcceptNearby:       0.3,
		AcceptText:         0.4,
	}
}

// LoadScoringConfig reads scoring tables from a YAML file, filling any
// omitted section from the defaults.
func LoadScoringConfig(path string) (ScoringConfig, error) {
	cfg := DefaultScoringConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "venue: read scoring config %s", path)
	}

	var loaded ScoringConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return cfg, eris.Wrapf(err, "venue: parse scoring config %s", path)
	}

	if loaded.Weights != (Weights{}) {
		cfg.Weights = loaded.Weights
	}
	if len(loaded.TypePriority) > 0 {
		cfg.TypePriority = loaded.TypePriority
	}
	if len(loaded.EventKeywords) > 0 {
		cfg.EventKeywords = loaded.EventKeywords
	}
	if len(loaded.HourMultipliers) > 0 {
		cfg.HourMultipliers = loaded.HourMultipliers
	}
	if loaded.OffHoursMultiplier > 0 {
		cfg.OffHoursMultiplier = loaded.OffHoursMultiplier
	}
	if loaded.AcceptNearby > 0 {
		cfg.AcceptNearby = loaded.AcceptNearby
	}
	if loaded.AcceptText > 0 {
		cfg.AcceptText = loaded.AcceptText
	}

	return cfg, nil
}
