// Package normalize turns a raw engine output into a publishable article:
// neutral headline, candidate-bearing subtitle, alignment paragraph,
// complete channel variants, SEO keywords and a bounded word count.
//
// Every "random" choice here goes through Pick, a pure hash of the run
// seed, so identical inputs always produce identical articles.
package normalize

import (
	"hash/fnv"
	"strings"
	"time"
)

// Pick maps seed onto [0, n). It returns 0 when n <= 0.
func Pick(seed string, n int) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return int(h.Sum64() % uint64(n))
}

// RunSeed builds the per-run seed from the candidate, the chosen signal and
// the calendar day.
func RunSeed(candidateID, signalURL string, day time.Time) string {
	return strings.Join([]string{candidateID, signalURL, day.UTC().Format("2006-01-02")}, "|")
}

func fill(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
