// Package imagery resolves the image that accompanies a draft: a freely
// licensed photo, else a synthesized one kept in object storage, else a
// deterministic placeholder. Resolve never fails.
package imagery

import (
	"context"
	"strings"

	"github.com/creatorstation/editorial/internal/engine"
	"github.com/creatorstation/editorial/internal/metrics"
	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	TierLicensed    = "licensed"
	TierSynthesized = "synthesized"
	TierPlaceholder = "placeholder"
)

// Request describes one image lookup.
type Request struct {
	CandidateID string
	Keywords    []string
	Region      string
	Seed        string
	Avoid       *store.AvoidList
}

// Result is always a usable http(s) URL plus attribution.
type Result struct {
	URL         string
	Attribution models.ImageAttribution
}

type Cascade struct {
	licensed        *CommonsSearch
	synth           *Synthesizer
	placeholderBase string
	logger          *logrus.Logger
}

// NewCascade wires the tiers; a nil tier is skipped.
func NewCascade(licensed *CommonsSearch, synth *Synthesizer, placeholderBase string, logger *logrus.Logger) *Cascade {
	return &Cascade{licensed: licensed, synth: synth, placeholderBase: placeholderBase, logger: logger}
}

func (c *Cascade) Resolve(ctx context.Context, req Request) Result {
	avoid := req.Avoid
	if avoid == nil {
		avoid = store.NewAvoidList()
	}
	log := c.logger.WithFields(logrus.Fields{"candidate_id": req.CandidateID})

	if c.licensed != nil {
		for _, q := range licensedQueries(req.Keywords, req.Region) {
			hit, err := c.licensed.Search(ctx, q, avoid)
			if err != nil {
				log.WithField("query", q).WithError(err).Warn("licensed image search failed")
				continue
			}
			if hit != nil {
				log.WithFields(logrus.Fields{"tier": TierLicensed, "url": hit.URL}).Info("image resolved")
				metrics.ImageTiers.WithLabelValues(TierLicensed).Inc()
				return Result{URL: hit.URL, Attribution: hit.Attribution}
			}
		}
	}

	if c.synth != nil {
		url, attr, err := c.synth.Synthesize(ctx, req.CandidateID, engine.ImagePrompt(req.Keywords, req.Region))
		if err == nil {
			log.WithFields(logrus.Fields{"tier": TierSynthesized, "url": url}).Info("image resolved")
			metrics.ImageTiers.WithLabelValues(TierSynthesized).Inc()
			return Result{URL: url, Attribution: attr}
		}
		log.WithError(err).Warn("image synthesis tier failed")
	}

	url := Placeholder(c.placeholderBase, req.CandidateID, req.Seed, avoid)
	log.WithFields(logrus.Fields{"tier": TierPlaceholder, "url": url}).Info("image resolved")
	metrics.ImageTiers.WithLabelValues(TierPlaceholder).Inc()
	return Result{URL: url, Attribution: models.ImageAttribution{
		Tier:   TierPlaceholder,
		Source: "placeholder",
	}}
}

// licensedQueries goes from the article's own keywords to generic regional
// street photography.
func licensedQueries(keywords []string, region string) []string {
	region = strings.TrimSpace(region)
	if region == "" {
		region = "Colombia"
	}
	var queries []string
	if kw := strings.TrimSpace(strings.Join(firstN(keywords, 3), " ")); kw != "" {
		queries = append(queries, kw+" "+region)
	}
	queries = append(queries, region+" photo", region+" street people photo")
	return queries
}

func firstN(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
