package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/textnorm"
)

// nameParticles are connectors inside compound names that would strip
// ordinary words from a headline.
var nameParticles = map[string]bool{
	"de": true, "del": true, "la": true, "las": true, "los": true,
	"y": true, "e": true, "san": true, "da": true,
}

var (
	emptyBrackets = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
	spaceBeforeP  = regexp.MustCompile(`\s+([,.;:!?])`)
	repeatedPunct = regexp.MustCompile(`([,;:])\s*[,;:]+`)
)

// SanitizeHeadline removes the candidate's name and ballot number from the
// headline. When too little is left it substitutes a generic regional one.
func SanitizeHeadline(headline string, c models.Candidate, seed string, pol *policy.Policy) string {
	h := textnorm.CollapseSpaces(strings.Trim(strings.TrimSpace(headline), "#*\"“”"))

	for _, term := range nameTerms(c.Name) {
		h = removeTerm(h, term)
	}
	if ballot := strings.TrimSpace(c.BallotNumber); ballot != "" {
		h = ballotPattern(ballot).ReplaceAllString(h, "$1$2")
	}
	h = tidy(h)

	if utf8.RuneCountInString(h) < pol.MinHeadlineRunes || mentionsCandidate(h, c) {
		return GenericHeadline(c, seed, pol)
	}
	return h
}

// GenericHeadline picks a candidate-neutral regional headline.
func GenericHeadline(c models.Candidate, seed string, pol *policy.Policy) string {
	tpl := pol.GenericHeadlines[Pick(seed+"|headline", len(pol.GenericHeadlines))]
	return fill(tpl, map[string]string{"region": regionLabel(c)})
}

// nameTerms is the full name followed by each given name and surname,
// short ones included, skipping connecting particles and initials.
func nameTerms(name string) []string {
	name = textnorm.CollapseSpaces(name)
	if name == "" {
		return nil
	}
	terms := []string{name}
	for _, tok := range strings.Fields(name) {
		tok = strings.Trim(tok, ".,")
		if utf8.RuneCountInString(tok) < 2 || nameParticles[textnorm.Fold(tok)] {
			continue
		}
		terms = append(terms, tok)
	}
	return terms
}

// removeTerm deletes whole-word occurrences of term, ignoring case and accents.
func removeTerm(s, term string) string {
	for _, variant := range uniqueStrings(term, textnorm.Fold(term)) {
		re := regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(variant) + `($|[^\p{L}\p{N}])`)
		for re.MatchString(s) {
			s = re.ReplaceAllString(s, "$1$2")
		}
	}
	return s
}

func ballotPattern(ballot string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])(?:(?:n[úu]mero|no\.|n[°º]|tarjet[óo]n|#)\s*)?` +
		regexp.QuoteMeta(ballot) + `($|[^\p{L}\p{N}])`)
}

func tidy(s string) string {
	s = emptyBrackets.ReplaceAllString(s, "")
	s = repeatedPunct.ReplaceAllString(s, "$1")
	s = spaceBeforeP.ReplaceAllString(s, "$1")
	s = textnorm.CollapseSpaces(s)
	return strings.Trim(s, " ,;:-–—|")
}

func mentionsCandidate(s string, c models.Candidate) bool {
	for _, term := range nameTerms(c.Name) {
		if textnorm.ContainsTerm(s, term) {
			return true
		}
	}
	if b := strings.TrimSpace(c.BallotNumber); b != "" && textnorm.ContainsTerm(s, b) {
		return true
	}
	return false
}

func regionLabel(c models.Candidate) string {
	if c.IsNational() || strings.TrimSpace(c.Region) == "" {
		return "Colombia"
	}
	return c.Region
}

func uniqueStrings(values ...string) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range values {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
