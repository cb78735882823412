package news

import (
	"sort"
	"strings"
	"time"

	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/textnorm"
)

// recencyBucket rewards fresh items; undated or week-old items score zero.
func recencyBucket(now, published time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	age := now.Sub(published)
	switch {
	case age < 0:
		return 5
	case age < 6*time.Hour:
		return 5
	case age < 24*time.Hour:
		return 4
	case age < 48*time.Hour:
		return 3
	case age < 72*time.Hour:
		return 2
	case age < 7*24*time.Hour:
		return 1
	default:
		return 0
	}
}

// score sets Classification and Score on item.
func score(item *Signal, pol *policy.Policy, queryTerms []string, now time.Time) {
	text := item.Title + " " + item.Summary
	severity := textnorm.CountTerms(text, pol.Severity.Keywords)
	virality := textnorm.CountTerms(text, pol.Virality.Keywords)
	overlap := textnorm.CountTerms(text, queryTerms)

	switch {
	case severity > 0:
		item.Classification = ClassGrave
	case virality > 0:
		item.Classification = ClassViral
	default:
		item.Classification = ClassGeneral
	}
	item.Score = recencyBucket(now, item.PublishedAt) +
		float64(severity*pol.Severity.Weight) +
		float64(virality*pol.Virality.Weight) +
		float64(overlap)
}

// bucketRank orders classifications: grave before viral before general,
// except in viral mode where viral comes first.
func bucketRank(mode Mode, class string) int {
	if mode == ModeViral {
		switch class {
		case ClassViral:
			return 0
		case ClassGrave:
			return 1
		}
		return 2
	}
	switch class {
	case ClassGrave:
		return 0
	case ClassViral:
		return 1
	}
	return 2
}

// rank orders items by bucket preference for mode, then score, then
// recency, then URL so the order is total.
func rank(items []Signal, mode Mode) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ra, rb := bucketRank(mode, a.Classification), bucketRank(mode, b.Classification); ra != rb {
			return ra < rb
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.URL < b.URL
	})
}

// queryTerms turns region and topic phrases into overlap terms.
func queryTerms(region string, topics []string) []string {
	var terms []string
	for _, w := range textnorm.Words(region) {
		if len([]rune(w)) > 2 {
			terms = append(terms, strings.ToLower(w))
		}
	}
	return append(terms, topics...)
}
