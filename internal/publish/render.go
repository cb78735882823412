package publish

import (
	"regexp"
	"strings"

	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/textnorm"
)

var (
	htmlComment    = regexp.MustCompile(`(?s)<!--.*?-->`)
	blankLineRunes = regexp.MustCompile(`\n{3,}`)
)

// PublicText removes internal meta lines (editor notes, keyword dumps,
// prompt echoes) from an article before it goes public.
func PublicText(text string, pol *policy.Policy) string {
	text = htmlComment.ReplaceAllString(text, "")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isMetaLine(line, pol) {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}
	out := strings.Join(kept, "\n")
	out = blankLineRunes.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func isMetaLine(line string, pol *policy.Policy) bool {
	l := textnorm.Fold(strings.Trim(strings.TrimSpace(line), "*_>"))
	l = strings.TrimSpace(l)
	if l == "" {
		return false
	}
	for _, prefix := range pol.MetaLinePrefixes {
		if strings.HasPrefix(l, textnorm.Fold(prefix)) {
			return true
		}
	}
	return false
}
