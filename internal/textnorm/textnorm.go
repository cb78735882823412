// Package textnorm holds the small text helpers shared by ranking,
// normalization and slug generation.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics ("Corrupción" -> "corrupcion").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Words splits s on anything that is not a letter or digit.
func Words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// WordCount counts whitespace-separated tokens that carry at least one
// letter or digit, so markdown markers and bullets are not counted.
func WordCount(s string) int {
	n := 0
	for _, f := range strings.Fields(s) {
		if strings.IndexFunc(f, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0 {
			n++
		}
	}
	return n
}

// CollapseSpaces trims s and squeezes internal whitespace runs to one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ContainsTerm reports whether folded text contains term as a whole-word
// phrase. Both arguments are folded first.
func ContainsTerm(text, term string) bool {
	text = " " + strings.Join(Words(Fold(text)), " ") + " "
	term = strings.Join(Words(Fold(term)), " ")
	if term == "" {
		return false
	}
	return strings.Contains(text, " "+term+" ")
}

// CountTerms returns how many of terms appear in text.
func CountTerms(text string, terms []string) int {
	folded := " " + strings.Join(Words(Fold(text)), " ") + " "
	n := 0
	for _, term := range terms {
		t := strings.Join(Words(Fold(term)), " ")
		if t != "" && strings.Contains(folded, " "+t+" ") {
			n++
		}
	}
	return n
}

// Truncate cuts s to at most limit runes at a word boundary, adding an
// ellipsis when anything was dropped.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	cut := string(r[:limit-1])
	if idx := strings.LastIndexAny(cut, " \n\t"); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \n\t,;:.-") + "…"
}
