package venue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tapdeck/groupgen/internal/model"
)

// businessHours pins the clock to a weekday mid-morning so the temporal
// signal is at its maximum.
func businessHours() time.Time {
	return time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)
}

func lateNight() time.Time {
	return time.Date(2025, 3, 11, 3, 0, 0, 0, time.UTC)
}

func TestScore_ConventionCenterScoresHigh(t *testing.T) {
	s := NewScorer(DefaultScoringConfig()).WithClock(businessHours)

	c := Candidate{
		Name:            "City Convention Center",
		Types:           []string{"convention_center"},
		Rating:          4.5,
		UserRatingCount: 200,
		BusinessStatus:  BusinessStatusOperational,
	}

	score := s.Score(c, MethodNearbySearch)
	assert.Greater(t, score, 0.7)
	assert.Equal(t, model.ConfidenceHigh, Confidence(score))
}

func TestScore_AlwaysBounded(t *testing.T) {
	s := NewScorer(DefaultScoringConfig()).WithClock(businessHours)

	tests := []struct {
		name string
		c    Candidate
	}{
		{"empty candidate", Candidate{}},
		{"unknown types", Candidate{Name: "x", Types: []string{"zoo", "aquarium"}}},
		{"keyword heavy name", Candidate{
			Name:  "Conference Convention Expo Center Hall Arena",
			Types: []string{"convention_center", "event_venue"},
		}},
		{"maxed quality", Candidate{
			Name:            "Grand Convention Hall",
			Types:           []string{"convention_center"},
			Rating:          5.0,
			UserRatingCount: 10000,
			BusinessStatus:  BusinessStatusOperational,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, method := range []DiscoveryMethod{MethodNearbySearch, MethodTextSearch} {
				score := s.Score(tt.c, method)
				assert.GreaterOrEqual(t, score, 0.0)
				assert.LessOrEqual(t, score, 1.0)
			}
		})
	}
}

func TestScore_TypeRelevanceTakesMax(t *testing.T) {
	s := NewScorer(DefaultScoringConfig()).WithClock(businessHours)

	cafe := s.Score(Candidate{Name: "spot", Types: []string{"cafe"}}, MethodNearbySearch)
	both := s.Score(Candidate{Name: "spot", Types: []string{"cafe", "convention_center"}}, MethodNearbySearch)
	assert.Greater(t, both, cafe)
}

func TestScore_QualityIgnoresLowRatingAndThinReviews(t *testing.T) {
	s := NewScorer(DefaultScoringConfig()).WithClock(businessHours)

	weak := Candidate{Name: "spot", Types: []string{"hotel"}, Rating: 2.0, UserRatingCount: 5}
	strong := Candidate{Name: "spot", Types: []string{"hotel"}, Rating: 4.8, UserRatingCount: 600}
	assert.Greater(t, s.Score(strong, MethodNearbySearch), s.Score(weak, MethodNearbySearch))
}

func TestScore_LateNightScoresLowerThanBusinessHours(t *testing.T) {
	c := Candidate{Name: "Expo Hall", Types: []string{"event_venue"}}

	day := NewScorer(DefaultScoringConfig()).WithClock(businessHours).Score(c, MethodNearbySearch)
	night := NewScorer(DefaultScoringConfig()).WithClock(lateNight).Score(c, MethodNearbySearch)
	assert.Greater(t, day, night)
}

func TestScore_TextSearchBonus(t *testing.T) {
	c := Candidate{Name: "Expo Hall", Types: []string{"event_venue"}}
	s := NewScorer(DefaultScoringConfig()).WithClock(businessHours)

	assert.Greater(t, s.Score(c, MethodTextSearch), s.Score(c, MethodNearbySearch))
}

func TestAccept_ThresholdPerMethod(t *testing.T) {
	s := NewScorer(DefaultScoringConfig())

	assert.True(t, s.Accept(0.35, MethodNearbySearch))
	assert.False(t, s.Accept(0.35, MethodTextSearch))
	assert.True(t, s.Accept(0.45, MethodTextSearch))
	assert.False(t, s.Accept(0.3, MethodNearbySearch))
}

func TestConfidence_Bands(t *testing.T) {
	assert.Equal(t, model.ConfidenceHigh, Confidence(0.71))
	assert.Equal(t, model.ConfidenceMedium, Confidence(0.7))
	assert.Equal(t, model.ConfidenceMedium, Confidence(0.41))
	assert.Equal(t, model.ConfidenceLow, Confidence(0.4))
	assert.Equal(t, model.ConfidenceLow, Confidence(0.0))
}
