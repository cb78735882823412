package normalize

import (
	"strings"

	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/textnorm"
)

var markdownMarks = strings.NewReplacer("**", "", "__", "", "# ", "", "#", "", "> ", "")

// CompleteVariants guarantees every channel has text within its budget.
// Missing channels are derived from the long-form article.
func CompleteVariants(given map[string]string, longForm string, pol *policy.Policy) models.Variants {
	out := make(models.Variants, len(models.Channels))
	out[models.ChannelLongForm] = longForm
	flat := Flatten(longForm)
	for _, ch := range models.Channels {
		if ch == models.ChannelLongForm {
			continue
		}
		text := strings.TrimSpace(given[ch])
		if text == "" {
			text = flat
		}
		out[ch] = textnorm.Truncate(text, pol.Budget(ch))
	}
	return out
}

// Flatten strips markdown and joins paragraphs for short channels.
func Flatten(s string) string {
	return textnorm.CollapseSpaces(markdownMarks.Replace(s))
}
