package normalize

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/textnorm"
)

var (
	ErrTooShort = errors.New("article below minimum word count")
	ErrTooLong  = errors.New("article cannot be trimmed to maximum word count")
)

// FitWordWindow trims sentences from the end of the body until the article
// fits the policy window. The first paragraph, headings, the citation line
// and the protected paragraph are never touched.
func FitWordWindow(text, protected string, pol *policy.Policy) (string, int, error) {
	paragraphs := splitParagraphs(text)
	count := textnorm.WordCount(strings.Join(paragraphs, "\n\n"))

	for count > pol.WordWindow.Max {
		idx := lastTrimmable(paragraphs, protected, pol)
		if idx < 0 {
			return text, count, fmt.Errorf("%w: %d words", ErrTooLong, count)
		}
		sentences := splitSentences(paragraphs[idx])
		if len(sentences) <= 1 {
			paragraphs = append(paragraphs[:idx], paragraphs[idx+1:]...)
		} else {
			paragraphs[idx] = strings.TrimSpace(strings.Join(sentences[:len(sentences)-1], ""))
		}
		count = textnorm.WordCount(strings.Join(paragraphs, "\n\n"))
	}

	out := strings.Join(paragraphs, "\n\n")
	if count < pol.WordWindow.Min {
		return out, count, fmt.Errorf("%w: %d words", ErrTooShort, count)
	}
	return out, count, nil
}

func lastTrimmable(paragraphs []string, protected string, pol *policy.Policy) int {
	for i := len(paragraphs) - 1; i > 0; i-- {
		p := paragraphs[i]
		if isHeading(p) || isCitation(p, pol) || (protected != "" && p == protected) {
			continue
		}
		return i
	}
	return -1
}

// splitSentences cuts after terminal punctuation followed by whitespace,
// keeping the punctuation and trailing space with each sentence.
func splitSentences(p string) []string {
	var out []string
	r := []rune(p)
	start := 0
	for i := 0; i < len(r); i++ {
		if !strings.ContainsRune(".!?…", r[i]) {
			continue
		}
		j := i + 1
		for j < len(r) && strings.ContainsRune(".!?…\"'”»)", r[j]) {
			j++
		}
		if j < len(r) && !unicode.IsSpace(r[j]) {
			continue
		}
		for j < len(r) && unicode.IsSpace(r[j]) {
			j++
		}
		out = append(out, string(r[start:j]))
		start = j
		i = j - 1
	}
	if start < len(r) {
		out = append(out, string(r[start:]))
	}
	return out
}
