package normalize

import (
	"strings"

	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/textnorm"
)

const maxKeywords = 8

// BackfillKeywords cleans engine keywords, or derives a list from the
// candidate and the civic terms when the engine gave none.
func BackfillKeywords(given []string, c models.Candidate, pol *policy.Policy) []string {
	out := dedupeKeywords(given)
	if len(out) > 0 {
		return out
	}
	derived := []string{textnorm.CollapseSpaces(c.Name)}
	if b := strings.TrimSpace(c.BallotNumber); b != "" {
		derived = append(derived, "número "+b)
	}
	if c.Office != "" {
		derived = append(derived, strings.ToLower(c.Office))
	}
	derived = append(derived, regionLabel(c))
	derived = append(derived, pol.CivicTerms...)
	return dedupeKeywords(derived)
}

// ImageKeywords keeps engine hints, else falls back to platform axes.
func ImageKeywords(given []string, topic string, c models.Candidate) []string {
	if out := dedupeKeywords(given); len(out) > 0 {
		return out
	}
	var out []string
	if topic = strings.TrimSpace(topic); topic != "" {
		out = append(out, topic)
	}
	out = append(out, PlatformAxes(c.Platform, 2)...)
	return dedupeKeywords(out)
}

func dedupeKeywords(in []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, k := range in {
		k = textnorm.CollapseSpaces(strings.Trim(k, " #,.;"))
		key := textnorm.Fold(k)
		if k == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, k)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}
