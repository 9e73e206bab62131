package venue

import (
	"fmt"
	"time"
)

// ContextQueries generates the natural-language queries used by the
// text-search fallback when nearby search found too few qualifying venues.
// Queries are time- and city-aware when a recognizable city is known.
func ContextQueries(city City, hasCity bool, at time.Time) []string {
	if !hasCity {
		return []string{
			"conference and convention centers nearby",
			"event venues and exhibition halls nearby",
		}
	}

	queries := []string{
		fmt.Sprintf("conferences and conventions in %s", city.Name),
		fmt.Sprintf("event venues and exhibition halls in %s", city.Name),
	}

	switch at.Weekday() {
	case time.Saturday, time.Sunday:
		queries = append(queries, fmt.Sprintf("festivals and expos in %s this weekend", city.Name))
	default:
		queries = append(queries, fmt.Sprintf("business networking events in %s", city.Name))
	}

	return queries
}
