// Package policy holds the editorial policy data: keyword catalogs, safety
// patterns, thresholds and text templates. The values are hand-tuned and
// swappable through a YAML file without code changes.
package policy

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"
)

//go:embed default.yaml
var defaultYAML []byte

// Catalog is a weighted keyword list.
type Catalog struct {
	Weight   int      `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

// Language holds the Spanish-detection heuristic thresholds.
type Language struct {
	MinSpanishScore float64  `yaml:"min_spanish_score"`
	AccentWeight    float64  `yaml:"accent_weight"`
	SpanishWords    []string `yaml:"spanish_words"`
	EnglishWords    []string `yaml:"english_words"`
}

// WordWindow bounds the long-form word count.
type WordWindow struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Policy is the parsed policy document plus its compiled patterns.
type Policy struct {
	Severity           Catalog        `yaml:"severity"`
	Virality           Catalog        `yaml:"virality"`
	DeniedDomains      []string       `yaml:"denied_domains"`
	SafetyPatterns     []string       `yaml:"safety_patterns"`
	ImageDenyPatterns  []string       `yaml:"image_deny_patterns"`
	Language           Language       `yaml:"language"`
	WordWindow         WordWindow     `yaml:"word_window"`
	ChannelBudgets     map[string]int `yaml:"channel_budgets"`
	MinHeadlineRunes   int            `yaml:"min_headline_runes"`
	GenericHeadlines   []string       `yaml:"generic_headlines"`
	SubtitleTemplates  []string       `yaml:"subtitle_templates"`
	SubtitleConnectors []string       `yaml:"subtitle_connectors"`
	AlignmentCues      []string       `yaml:"alignment_cues"`
	AlignmentTemplates []string       `yaml:"alignment_templates"`
	MentionTemplates   []string       `yaml:"mention_templates"`
	MetaLinePrefixes   []string       `yaml:"meta_line_prefixes"`
	CitationPrefixes   []string       `yaml:"citation_prefixes"`
	FitSectionHeadings []string       `yaml:"fit_section_headings"`
	CivicTerms         []string       `yaml:"civic_terms"`
	NationalQuery      string         `yaml:"national_query"`
	SearchTopicTerms   int            `yaml:"search_topic_terms"`

	safety    []*regexp.Regexp
	imageDeny []*regexp.Regexp
}

// Default returns the embedded policy. It panics only if the embedded
// document is broken, which is a build defect.
func Default() *Policy {
	p, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("policy: embedded default is invalid: %v", err))
	}
	return p
}

// Load reads a policy file, or returns the embedded default when path is empty.
func Load(path string) (*Policy, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a policy document.
func Parse(raw []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Policy) compile() error {
	p.safety = p.safety[:0]
	for _, expr := range p.SafetyPatterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("compile safety pattern %q: %w", expr, err)
		}
		p.safety = append(p.safety, re)
	}
	p.imageDeny = p.imageDeny[:0]
	for _, expr := range p.ImageDenyPatterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("compile image deny pattern %q: %w", expr, err)
		}
		p.imageDeny = append(p.imageDeny, re)
	}
	return nil
}

func (p *Policy) validate() error {
	if p.WordWindow.Min <= 0 || p.WordWindow.Max < p.WordWindow.Min {
		return fmt.Errorf("policy: invalid word window %d-%d", p.WordWindow.Min, p.WordWindow.Max)
	}
	if len(p.safety) == 0 {
		return fmt.Errorf("policy: at least one safety pattern is required")
	}
	if len(p.GenericHeadlines) == 0 || len(p.SubtitleTemplates) == 0 || len(p.SubtitleConnectors) == 0 {
		return fmt.Errorf("policy: headline and subtitle catalogs must not be empty")
	}
	if len(p.AlignmentTemplates) == 0 || len(p.MentionTemplates) == 0 {
		return fmt.Errorf("policy: alignment catalogs must not be empty")
	}
	return nil
}

// SafetyViolation returns the first safety pattern matching text, or "".
func (p *Policy) SafetyViolation(text string) string {
	for _, re := range p.safety {
		if loc := re.FindStringIndex(text); loc != nil {
			return re.String()
		}
	}
	return ""
}

// ImageDenied reports whether any of the given strings (title, url) hits a
// deny pattern for logos, icons, scans and non-raster formats.
func (p *Policy) ImageDenied(values ...string) bool {
	for _, v := range values {
		for _, re := range p.imageDeny {
			if re.MatchString(v) {
				return true
			}
		}
	}
	return false
}

// DomainDenied reports whether host equals or is a subdomain of a denied domain.
func (p *Policy) DomainDenied(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, d := range p.DeniedDomains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Budget returns the character budget for a channel, or 0 when unbounded.
func (p *Policy) Budget(channel string) int {
	return p.ChannelBudgets[channel]
}
