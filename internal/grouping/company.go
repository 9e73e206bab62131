package grouping

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tapdeck/groupgen/internal/model"
)

// companyNormalizer strips diacritics so "Café Müller GmbH" and
// "Cafe Muller GmbH" land in the same group.
var companyNormalizer = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeCompany derives the grouping key for a company string: trim,
// strip diacritics, lowercase, drop everything but letters, digits and
// single spaces. Idempotent: normalizing a normalized key is a no-op.
func NormalizeCompany(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}

	folded, _, err := transform.String(companyNormalizer, trimmed)
	if err != nil {
		folded = trimmed
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace && b.Len() > 0:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// GroupByCompany groups contacts sharing a normalized company name. The
// first-seen original casing becomes the display name; the group is named
// "{display} Team". Groups below minSize are dropped.
func GroupByCompany(contacts []model.Contact, minSize int) []model.GroupCandidate {
	if minSize < 2 {
		minSize = 2
	}

	type bucket struct {
		display string
		ids     []string
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, c := range contacts {
		key := NormalizeCompany(c.Company)
		if key == "" {
			continue
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{display: strings.TrimSpace(c.Company)}
			buckets[key] = b
			order = append(order, key)
		}
		b.ids = append(b.ids, c.ID)
	}

	var groups []model.GroupCandidate
	for _, key := range order {
		b := buckets[key]
		if len(b.ids) < minSize {
			continue
		}
		groups = append(groups, model.GroupCandidate{
			Name:            b.display + " Team",
			Type:            model.GroupTypeCompany,
			ContactIDs:      b.ids,
			Confidence:      companyConfidence(len(b.ids)),
			Reason:          fmt.Sprintf("%d contacts share the company %q", len(b.ids), b.display),
			DiscoveryMethod: "company_match",
			Company:         &model.CompanyData{CompanyName: b.display},
		})
	}
	return groups
}

// companyConfidence: more than 5 members is a strong signal, 3-5 moderate,
// a pair is weak.
func companyConfidence(size int) model.Confidence {
	switch {
	case size > 5:
		return model.ConfidenceHigh
	case size >= 3:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
