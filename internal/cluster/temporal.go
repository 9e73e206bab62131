package cluster

import (
	"sort"
	"time"

	"github.com/tapdeck/groupgen/internal/model"
)

// DefaultGap is the maximum gap between consecutive submissions inside one
// temporal run. Two contacts scanned four hours apart on the same day are
// separate occasions.
const DefaultGap = 3 * time.Hour

// TimeCluster is a same-day run of contacts with bounded gaps between
// consecutive submissions.
type TimeCluster struct {
	Contacts []model.Contact
	Start    time.Time
	End      time.Time
}

// IDs returns the member contact IDs in submission order.
func (c TimeCluster) IDs() []string {
	ids := make([]string, len(c.Contacts))
	for i, contact := range c.Contacts {
		ids[i] = contact.ID
	}
	return ids
}

// Span returns the elapsed time between the first and last submission.
func (c TimeCluster) Span() time.Duration {
	return c.End.Sub(c.Start)
}

// Temporal buckets contacts by calendar date of submission (UTC), sorts each
// bucket by timestamp, and splits it into runs wherever the gap between
// consecutive contacts exceeds gap. Runs smaller than minSize are dropped.
func Temporal(contacts []model.Contact, gap time.Duration, minSize int) []TimeCluster {
	if gap <= 0 {
		gap = DefaultGap
	}
	if minSize < 2 {
		minSize = 2
	}

	byDay := make(map[string][]model.Contact)
	for _, c := range contacts {
		if c.SubmittedAt.IsZero() {
			continue
		}
		day := c.SubmittedAt.UTC().Format("2006-01-02")
		byDay[day] = append(byDay[day], c)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	var clusters []TimeCluster
	for _, day := range days {
		bucket := byDay[day]
		sort.Slice(bucket, func(i, j int) bool {
			return bucket[i].SubmittedAt.Before(bucket[j].SubmittedAt)
		})

		run := []model.Contact{bucket[0]}
		for _, c := range bucket[1:] {
			prev := run[len(run)-1]
			if c.SubmittedAt.Sub(prev.SubmittedAt) <= gap {
				run = append(run, c)
				continue
			}
			clusters = appendRun(clusters, run, minSize)
			run = []model.Contact{c}
		}
		clusters = appendRun(clusters, run, minSize)
	}

	return clusters
}

func appendRun(clusters []TimeCluster, run []model.Contact, minSize int) []TimeCluster {
	if len(run) < minSize {
		return clusters
	}
	return append(clusters, TimeCluster{
		Contacts: run,
		Start:    run[0].SubmittedAt,
		End:      run[len(run)-1].SubmittedAt,
	})
}
