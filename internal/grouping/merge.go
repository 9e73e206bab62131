package grouping

import (
	"github.com/tapdeck/groupgen/internal/model"
)

// mergeOverlapThreshold is the overlap ratio above which two candidate
// groups are considered the same grouping seen by different strategies.
const mergeOverlapThreshold = 0.70

// Merge deduplicates candidate groups across strategies. Candidates are
// processed in input order against the running list of accepted groups:
// when the overlap ratio (intersection over the smaller contact set)
// exceeds the threshold, the candidate folds into the accepted group —
// contact IDs are unioned (never dropped), the higher-priority side keeps
// the name/type/payload, confidence takes the max, and reasons concatenate.
// Greedy and first-match: a candidate is never re-evaluated against groups
// accepted after it, so input order matters.
func Merge(candidates []model.GroupCandidate, stats *Stats) []model.GroupCandidate {
	var accepted []model.GroupCandidate

	for _, cand := range candidates {
		if len(cand.ContactIDs) == 0 {
			continue
		}

		merged := false
		for i := range accepted {
			if overlapRatio(cand.ContactIDs, accepted[i].ContactIDs) > mergeOverlapThreshold {
				accepted[i] = mergeInto(accepted[i], cand)
				if stats != nil {
					stats.AddMerge()
				}
				merged = true
				break
			}
		}
		if !merged {
			accepted = append(accepted, cand)
		}
	}

	return accepted
}

// overlapRatio returns |a ∩ b| / min(|a|, |b|).
func overlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	inter := 0
	for _, id := range b {
		if set[id] {
			inter++
		}
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(inter) / float64(smaller)
}

// mergeInto folds candidate cand into accepted group g.
func mergeInto(g, cand model.GroupCandidate) model.GroupCandidate {
	better := g
	if priority(cand) > priority(g) {
		better = cand
	}

	result := better
	result.ContactIDs = unionIDs(g.ContactIDs, cand.ContactIDs)
	result.Confidence = g.Confidence.Max(cand.Confidence)
	result.Reason = g.Reason
	if cand.Reason != "" && cand.Reason != g.Reason {
		if result.Reason != "" {
			result.Reason += "; "
		}
		result.Reason += cand.Reason
	}
	return result
}

// priority ranks a group for name/type conflict resolution: confidence
// dominates, group type breaks ties (event > company > location/temporal).
func priority(g model.GroupCandidate) int {
	return g.Confidence.Rank()*10 + g.Type.Rank()
}

// unionIDs returns a ∪ b preserving a's order, then b's unseen IDs.
func unionIDs(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
