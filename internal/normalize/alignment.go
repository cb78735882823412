package normalize

import (
	"regexp"
	"strings"

	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/textnorm"
)

var (
	boldSpan       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
)

// Alignment is the outcome of InjectAlignment.
type Alignment struct {
	Text      string
	Paragraph string
	Injected  bool
}

// BoldMention renders the candidate mention used in alignment paragraphs.
func BoldMention(c models.Candidate) string {
	return "**" + plainMention(c) + "**"
}

func plainMention(c models.Candidate) string {
	name := textnorm.CollapseSpaces(c.Name)
	if b := strings.TrimSpace(c.BallotNumber); b != "" {
		return name + " (número " + b + ")"
	}
	return name
}

// hasBoldMention reports whether a bold span names the candidate and, when
// one exists, the ballot number.
func hasBoldMention(text string, c models.Candidate) bool {
	for _, m := range boldSpan.FindAllStringSubmatch(text, -1) {
		span := m[1]
		if !textnorm.ContainsTerm(span, c.Name) {
			continue
		}
		if b := strings.TrimSpace(c.BallotNumber); b != "" && !textnorm.ContainsTerm(span, b) {
			continue
		}
		return true
	}
	return false
}

func hasTieCue(text string, pol *policy.Policy) bool {
	return textnorm.CountTerms(text, pol.AlignmentCues) > 0
}

// InjectAlignment makes sure the article carries both a bold candidate
// mention and a sentence tying the news to the platform, adding only the
// part that is missing.
func InjectAlignment(text string, c models.Candidate, topic, seed string, pol *policy.Policy) Alignment {
	bold := hasBoldMention(text, c)
	tie := hasTieCue(text, pol)
	if bold && tie {
		return Alignment{Text: text}
	}

	var paragraph string
	if !tie {
		mention := BoldMention(c)
		if bold {
			mention = plainMention(c)
		}
		axes := PlatformAxes(c.Platform, 2)
		axesText := "sus propuestas"
		if len(axes) > 0 {
			axesText = strings.Join(axes, " y ")
		}
		if strings.TrimSpace(topic) == "" {
			topic = "los retos de " + regionLabel(c)
		}
		tpl := pol.AlignmentTemplates[Pick(seed+"|alignment", len(pol.AlignmentTemplates))]
		paragraph = fill(tpl, map[string]string{"axes": axesText, "mention": mention, "topic": topic})
	} else {
		tpl := pol.MentionTemplates[Pick(seed+"|mention", len(pol.MentionTemplates))]
		paragraph = fill(tpl, map[string]string{"mention": BoldMention(c)})
	}

	paragraphs := splitParagraphs(text)
	at := insertionPoint(paragraphs, pol)
	out := make([]string, 0, len(paragraphs)+1)
	out = append(out, paragraphs[:at]...)
	out = append(out, paragraph)
	out = append(out, paragraphs[at:]...)
	return Alignment{Text: strings.Join(out, "\n\n"), Paragraph: paragraph, Injected: true}
}

// insertionPoint is the end of the "how this fits" section when there is
// one, else the citation line, else the end of the article.
func insertionPoint(paragraphs []string, pol *policy.Policy) int {
	for i, p := range paragraphs {
		if !isHeading(p) || textnorm.CountTerms(firstLine(p), pol.FitSectionHeadings) == 0 {
			continue
		}
		for j := i + 1; j < len(paragraphs); j++ {
			if isHeading(paragraphs[j]) || isCitation(paragraphs[j], pol) {
				return j
			}
		}
		return len(paragraphs)
	}
	for i, p := range paragraphs {
		if isCitation(p, pol) {
			return i
		}
	}
	return len(paragraphs)
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(strings.TrimSpace(text), -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstLine(p string) string {
	if i := strings.IndexByte(p, '\n'); i >= 0 {
		return p[:i]
	}
	return p
}

func isHeading(p string) bool {
	line := strings.TrimSpace(firstLine(p))
	if strings.HasPrefix(line, "#") {
		return true
	}
	// a paragraph that is only a bold line reads as a heading
	return strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && !strings.Contains(p, "\n") && len(line) < 120
}

func isCitation(p string, pol *policy.Policy) bool {
	line := textnorm.Fold(strings.Trim(strings.TrimSpace(firstLine(p)), "*_ "))
	for _, prefix := range pol.CitationPrefixes {
		if strings.HasPrefix(line, textnorm.Fold(prefix)) {
			return true
		}
	}
	return false
}
