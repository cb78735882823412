package engine

import (
	"strings"

	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/textnorm"
)

const spanishMarks = "áéíóúñü¿¡"

// SpanishScore weighs Spanish function words and accented letters against
// English function words, normalized by token count.
func SpanishScore(text string, lang policy.Language) float64 {
	tokens := textnorm.Words(strings.ToLower(text))
	if len(tokens) == 0 {
		return 0
	}
	es := toSet(lang.SpanishWords)
	en := toSet(lang.EnglishWords)
	var esHits, enHits int
	for _, tok := range tokens {
		if es[tok] {
			esHits++
		}
		if en[tok] {
			enHits++
		}
	}
	marks := 0
	for _, r := range strings.ToLower(text) {
		if strings.ContainsRune(spanishMarks, r) {
			marks++
		}
	}
	return (float64(esHits-enHits) + lang.AccentWeight*float64(marks)) / float64(len(tokens))
}

// IsSpanish applies the policy threshold.
func IsSpanish(text string, lang policy.Language) bool {
	return SpanishScore(text, lang) >= lang.MinSpanishScore
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}
