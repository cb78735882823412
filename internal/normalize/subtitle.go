package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/textnorm"
)

const (
	minHeadingAxisRunes  = 12
	maxHeadingAxisRunes  = 90
	minSentenceAxisRunes = 20
	maxSentenceAxisRunes = 140

	defaultAxis = "las propuestas de su programa"
)

var (
	bulletPrefix  = regexp.MustCompile(`^(?:[-*•·]|\d+[.)])\s+`)
	sentenceSplit = regexp.MustCompile(`[.!?…]+(?:\s+|$)`)
)

// PlatformAxes returns up to n programmatic axes from the platform text:
// headings and bullets of qualifying length first, then leading sentences.
func PlatformAxes(platform string, n int) []string {
	var axes []string
	seen := map[string]bool{}
	add := func(s string) bool {
		s = cleanAxis(s)
		key := textnorm.Fold(s)
		if s == "" || seen[key] {
			return false
		}
		seen[key] = true
		axes = append(axes, s)
		return len(axes) >= n
	}

	for _, line := range strings.Split(platform, "\n") {
		line = strings.TrimSpace(line)
		isHeading := strings.HasPrefix(line, "#")
		isBullet := bulletPrefix.MatchString(line)
		if !isHeading && !isBullet {
			continue
		}
		text := strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimLeft(line, "# "), ""))
		text = strings.Trim(text, "*_ ")
		if l := utf8.RuneCountInString(text); l >= minHeadingAxisRunes && l <= maxHeadingAxisRunes {
			if add(text) {
				return axes
			}
		}
	}

	body := textnorm.CollapseSpaces(strings.NewReplacer("#", " ", "*", " ", "•", " ").Replace(platform))
	for _, sentence := range sentenceSplit.Split(body, -1) {
		sentence = strings.TrimSpace(sentence)
		if l := utf8.RuneCountInString(sentence); l >= minSentenceAxisRunes && l <= maxSentenceAxisRunes {
			if add(sentence) {
				return axes
			}
		}
	}
	return axes
}

// cleanAxis trims punctuation and lowercases the first letter unless the
// word is an acronym.
func cleanAxis(s string) string {
	s = strings.Trim(textnorm.CollapseSpaces(s), " .,;:!?-–—")
	r := []rune(s)
	if len(r) == 0 {
		return ""
	}
	if len(r) > 1 && unicode.IsUpper(r[1]) {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// BuildSubtitle composes the candidate-bearing subtitle. The connector is
// chosen from axis text and run seed so reruns vary across days but not
// within identical inputs.
func BuildSubtitle(c models.Candidate, seed string, pol *policy.Policy) string {
	axis := defaultAxis
	if axes := PlatformAxes(c.Platform, 1); len(axes) > 0 {
		axis = axes[0]
	}
	connector := pol.SubtitleConnectors[Pick(axis+"|"+seed, len(pol.SubtitleConnectors))]
	office := strings.TrimSpace(c.Office)
	if office == "" {
		office = "un cargo de elección popular"
	}
	values := map[string]string{
		"name":      textnorm.CollapseSpaces(c.Name),
		"office":    office,
		"region":    regionLabel(c),
		"ballot":    strings.TrimSpace(c.BallotNumber),
		"connector": connector,
		"axis":      axis,
	}
	if values["ballot"] == "" {
		return fill("{name}, candidato a {office} por {region}, {connector} {axis}", values)
	}
	tpl := pol.SubtitleTemplates[Pick(seed+"|subtitle", len(pol.SubtitleTemplates))]
	return fill(tpl, values)
}
