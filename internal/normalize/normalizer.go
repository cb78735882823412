package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creatorstation/editorial/internal/engine"
	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/policy"
)

var ErrOutOfBounds = errors.New("content out of bounds")

// Input is one engine output plus the run context it is normalized against.
type Input struct {
	Candidate models.Candidate
	Output    engine.Output
	Topic     string
	SourceURL string
	Seed      string
}

// Article is the normalized, persistable content.
type Article struct {
	Headline          string
	Subtitle          string
	LongForm          string
	Variants          models.Variants
	SEOKeywords       []string
	ImageKeywords     []string
	Sentiment         string
	AlignmentInjected bool
	WordCount         int
}

type Normalizer struct {
	policy *policy.Policy
}

func New(pol *policy.Policy) *Normalizer {
	return &Normalizer{policy: pol}
}

func (n *Normalizer) Normalize(in Input) (*Article, error) {
	long := strings.TrimSpace(in.Output.LongForm())
	if long == "" {
		return nil, fmt.Errorf("%w: empty long-form text", ErrOutOfBounds)
	}
	long = n.ensureCitation(long, in.SourceURL)

	aligned := InjectAlignment(long, in.Candidate, in.Topic, in.Seed, n.policy)
	long, words, err := FitWordWindow(aligned.Text, aligned.Paragraph, n.policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutOfBounds, err)
	}

	headline := in.Output.Headline
	if strings.TrimSpace(headline) == "" {
		headline = firstLine(long)
	}

	return &Article{
		Headline:          SanitizeHeadline(headline, in.Candidate, in.Seed, n.policy),
		Subtitle:          BuildSubtitle(in.Candidate, in.Seed, n.policy),
		LongForm:          long,
		Variants:          CompleteVariants(in.Output.PlatformVariants, long, n.policy),
		SEOKeywords:       BackfillKeywords(in.Output.SEOKeywords, in.Candidate, n.policy),
		ImageKeywords:     ImageKeywords(in.Output.ImageKeywords, in.Topic, in.Candidate),
		Sentiment:         strings.TrimSpace(in.Output.Sentiment),
		AlignmentInjected: aligned.Injected,
		WordCount:         words,
	}, nil
}

// ensureCitation appends a source line when the article cites nothing.
func (n *Normalizer) ensureCitation(long, sourceURL string) string {
	if strings.TrimSpace(sourceURL) == "" {
		return long
	}
	for _, p := range splitParagraphs(long) {
		if isCitation(p, n.policy) {
			return long
		}
	}
	return long + "\n\nFuente: " + sourceURL
}
