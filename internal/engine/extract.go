package engine

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/textnorm"
)

// Extraction methods, recorded in diagnostics.
const (
	ExtractJSON     = "json"
	ExtractFenced   = "fenced_json"
	ExtractEmbedded = "embedded_json"
	ExtractPlain    = "plain_text"
)

// channel aliases some providers use for the short-form variants.
var variantAliases = map[string]string{
	"net_a":     models.ChannelMicroBlog,
	"twitter":   models.ChannelMicroBlog,
	"x":         models.ChannelMicroBlog,
	"net_b":     models.ChannelSocialFeed,
	"facebook":  models.ChannelSocialFeed,
	"longform":  models.ChannelLongForm,
	"long-form": models.ChannelLongForm,
	"reddit":    models.ChannelForum,
}

// Extract recovers an Output from a raw response: strict JSON, then
// fenced JSON, then the largest balanced object, then plain text.
// budget gives the per-channel character cap for the plain-text path.
func Extract(raw string, budget func(channel string) int) (Output, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Output{}, "", ErrEmptyResponse
	}
	if out, ok := decode(raw); ok {
		return out, ExtractJSON, nil
	}
	if inner, ok := stripFences(raw); ok {
		if out, ok := decode(inner); ok {
			return out, ExtractFenced, nil
		}
	}
	for _, candidate := range balancedObjects(raw) {
		if out, ok := decode(candidate); ok {
			return out, ExtractEmbedded, nil
		}
	}
	return synthesize(raw, budget), ExtractPlain, nil
}

// decode accepts any JSON object and coerces loosely typed fields:
// numbers become strings, keyword lists may arrive as one delimited string.
func decode(s string) (Output, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(s), &fields); err != nil || fields == nil {
		return Output{}, false
	}
	out := Output{
		Headline:        scalarText(fields["headline"]),
		Sentiment:       scalarText(fields["sentiment"]),
		SEOKeywords:     textList(fields["seo_keywords"]),
		MasterEditorial: scalarText(fields["master_editorial"]),
		ImageKeywords:   textList(fields["image_keywords"]),
	}
	variants := map[string]string{}
	if m, ok := fields["platform_variants"].(map[string]any); ok {
		for k, v := range m {
			variants[k] = scalarText(v)
		}
	}
	out.PlatformVariants = canonicalVariants(variants)
	if out.LongForm() == "" {
		return Output{}, false
	}
	return out, true
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func textList(v any) []string {
	var parts []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			parts = append(parts, scalarText(item))
		}
	case string:
		parts = strings.FieldsFunc(t, func(r rune) bool {
			return r == ',' || r == ';' || r == '\n'
		})
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func canonicalVariants(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := strings.ToLower(strings.TrimSpace(k))
		if alias, ok := variantAliases[key]; ok {
			key = alias
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, taken := out[key]; !taken {
			out[key] = v
		}
	}
	return out
}

// stripFences returns the body of the first ``` fenced block.
func stripFences(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	body := s[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.Contains(body[:nl], "{") {
		body = body[nl+1:]
	}
	end := strings.Index(body, "```")
	if end < 0 {
		return strings.TrimSpace(body), true
	}
	return strings.TrimSpace(body[:end]), true
}

// balancedObjects lists every balanced {...} substring, largest first.
// Braces inside JSON strings are ignored.
func balancedObjects(s string) []string {
	var found []string
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}
		if end := matchBrace(s, start); end > start {
			found = append(found, s[start:end+1])
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return len(found[i]) > len(found[j]) })
	return found
}

func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// synthesize treats raw as a bare article.
func synthesize(raw string, budget func(string) int) Output {
	if inner, ok := stripFences(raw); ok && inner != "" {
		raw = inner
	}
	title := ""
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#*> "))
		line = strings.TrimRight(line, "*")
		if line != "" {
			title = line
			break
		}
	}
	variants := map[string]string{models.ChannelLongForm: raw}
	for _, ch := range models.Channels {
		if ch == models.ChannelLongForm {
			continue
		}
		if b := budget(ch); b > 0 {
			variants[ch] = textnorm.Truncate(flatten(raw), b)
		}
	}
	return Output{
		Headline:         title,
		MasterEditorial:  raw,
		PlatformVariants: variants,
	}
}

// flatten drops markdown markers and joins lines for short channels.
func flatten(s string) string {
	r := strings.NewReplacer("**", "", "__", "", "#", "")
	return textnorm.CollapseSpaces(r.Replace(s))
}
