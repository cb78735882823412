// Package editorial runs one editorial cycle for a candidate: news
// selection, dual-engine generation, normalization, image resolution, draft
// persistence and the publish gate.
package editorial

import (
	"context"
	"errors"
	"time"

	"github.com/creatorstation/editorial/internal/engine"
	"github.com/creatorstation/editorial/internal/imagery"
	"github.com/creatorstation/editorial/internal/metrics"
	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/news"
	"github.com/creatorstation/editorial/internal/normalize"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/publish"
	"github.com/creatorstation/editorial/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	TriggerHTTP      = "http"
	TriggerScheduler = "scheduler"
)

type Selector interface {
	Select(ctx context.Context, req news.Request) news.Selection
}

type Generator interface {
	Generate(ctx context.Context, in engine.PromptInput) (*engine.Result, error)
}

type ImageResolver interface {
	Resolve(ctx context.Context, req imagery.Request) imagery.Result
}

type Publisher interface {
	Publish(ctx context.Context, req publish.Request) (*publish.Outcome, error)
}

// RunRequest is one invocation of the pipeline.
type RunRequest struct {
	RequestID   string
	CandidateID string
	MaxItems    int
	Mode        news.Mode
	Inclination string
	Style       string
	Notes       string
	Links       []string
	Trigger     string
}

// RunResult describes a persisted draft.
type RunResult struct {
	DraftID           string
	SourceEngine      string
	ArbitrationReason string
	ArticleFound      bool
	Published         bool
	PostURL           string
	ImageURL          string
}

type Pipeline struct {
	store      store.Store
	selector   Selector
	generator  Generator
	normalizer *normalize.Normalizer
	images     ImageResolver
	publisher  Publisher
	policy     *policy.Policy
	avoid      store.AvoidWindow
	logger     *logrus.Logger
	now        func() time.Time
}

func NewPipeline(st store.Store, selector Selector, generator Generator, images ImageResolver, publisher Publisher, pol *policy.Policy, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		store:      st,
		selector:   selector,
		generator:  generator,
		normalizer: normalize.New(pol),
		images:     images,
		publisher:  publisher,
		policy:     pol,
		avoid:      store.DefaultAvoidWindow(),
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one cycle. Any returned error is a *Failure; no draft is
// left behind when it is.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Trigger == "" {
		req.Trigger = TriggerHTTP
	}
	start := p.now()
	res, err := p.run(ctx, req)

	outcome := "ok"
	if err != nil {
		outcome = asFailure(err).Code
	}
	metrics.Runs.WithLabelValues(outcome).Inc()
	metrics.RunDuration.WithLabelValues(req.Trigger).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, asFailure(err)
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, req RunRequest) (*RunResult, error) {
	log := p.logger.WithFields(logrus.Fields{
		"request_id":   req.RequestID,
		"candidate_id": req.CandidateID,
		"trigger":      req.Trigger,
	})

	candidate, err := p.store.GetCandidate(ctx, req.CandidateID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fail(CodeCandidateNotFound, "candidate not found", nil)
	}
	if err != nil {
		return nil, fail(CodePersistenceFailed, "candidate lookup failed", err)
	}

	settings, err := p.store.GetSettings(ctx)
	if err != nil {
		log.WithError(err).Warn("settings unavailable, publish gate stays closed")
		settings = store.Settings{}
	}

	avoid, err := p.store.RecentURLs(ctx, candidate.ID, p.avoid)
	if err != nil {
		log.WithError(err).Warn("avoid-list unavailable, continuing without it")
		avoid = store.NewAvoidList()
	}

	selection := p.selector.Select(ctx, news.Request{
		Candidate: *candidate,
		Mode:      req.Mode,
		MaxItems:  req.MaxItems,
		Links:     req.Links,
		Exclude:   avoid,
	})
	primary := selection.Primary()

	gen, err := p.generator.Generate(ctx, p.promptInput(*candidate, req, selection))
	if err != nil {
		log.WithError(err).Warn("generation failed")
		return nil, err
	}
	log = log.WithField("engine", gen.Engine)

	var topic, sourceURL string
	if primary != nil {
		topic, sourceURL = primary.Title, primary.URL
	}
	seed := normalize.RunSeed(candidate.ID, sourceURL, p.now())

	article, err := p.normalizer.Normalize(normalize.Input{
		Candidate: *candidate,
		Output:    gen.Output,
		Topic:     topic,
		SourceURL: sourceURL,
		Seed:      seed,
	})
	if err != nil {
		log.WithError(err).Warn("normalized article out of bounds")
		return nil, &Failure{Code: CodeOutOfBounds, Message: err.Error(), Engines: gen.Diagnostics, Err: err}
	}

	image := p.images.Resolve(ctx, imagery.Request{
		CandidateID: candidate.ID,
		Keywords:    article.ImageKeywords,
		Region:      candidate.Region,
		Seed:        seed,
		Avoid:       avoid,
	})

	meta := models.DraftMetadata{
		RequestID:         req.RequestID,
		SourceEngine:      gen.Engine,
		ArbitrationReason: gen.Reason,
		Corrected:         gen.Corrected,
		Engines:           gen.Diagnostics,
		Image:             image.Attribution,
		Headline:          article.Headline,
		Subtitle:          article.Subtitle,
		Sentiment:         article.Sentiment,
		SEOKeywords:       article.SEOKeywords,
		AlignmentInjected: article.AlignmentInjected,
		WordCount:         article.WordCount,
		NewsMode:          string(req.Mode),
	}
	if primary != nil {
		meta.Signal = primary.Ref()
	}
	draft := &models.Draft{
		ID:            uuid.NewString(),
		CandidateID:   candidate.ID,
		ContentType:   models.ContentTypeEditorial,
		Topic:         topic,
		GeneratedText: article.LongForm,
		Variants:      datatypes.NewJSONType(article.Variants),
		Metadata:      datatypes.NewJSONType(meta),
		ImageKeywords: datatypes.NewJSONType(article.ImageKeywords),
		ImageURL:      image.URL,
		SourceURL:     sourceURL,
		Status:        models.DraftStatusPendingReview,
	}
	if err := p.store.CreateDraft(ctx, draft); err != nil {
		log.WithError(err).Error("draft insert failed")
		return nil, &Failure{Code: CodePersistenceFailed, Message: "draft insert failed", Engines: gen.Diagnostics, Err: err}
	}

	if _, err := p.store.GetDraft(ctx, draft.ID); err != nil {
		log.WithFields(logrus.Fields{"assertion": "draft_visible", "draft_id": draft.ID}).WithError(err).
			Error("draft not visible after insert")
		return nil, &Failure{Code: CodeAssertionFailed, Message: "draft not visible after insert", Engines: gen.Diagnostics, Err: err}
	}
	log = log.WithField("draft_id", draft.ID)
	log.WithFields(logrus.Fields{"tier": image.Attribution.Tier, "words": article.WordCount}).Info("draft persisted")

	out := &RunResult{
		DraftID:           draft.ID,
		SourceEngine:      gen.Engine,
		ArbitrationReason: gen.Reason,
		ArticleFound:      selection.Found(),
		ImageURL:          image.URL,
	}

	if !publish.GateOpen(settings, *candidate) {
		log.WithFields(logrus.Fields{
			"kill_switch":  settings.AutoPublishEnabled,
			"auto_publish": candidate.AutoPublish,
		}).Info("publish gate closed")
		return out, nil
	}
	outcome, err := p.publisher.Publish(ctx, publish.Request{
		RequestID: req.RequestID,
		Candidate: *candidate,
		DraftID:   draft.ID,
		Title:     article.Headline,
		Subtitle:  article.Subtitle,
		Body:      article.LongForm,
		Variants:  article.Variants,
		ImageURL:  image.URL,
		SourceURL: sourceURL,
	})
	if err != nil {
		log.WithError(err).Error("publish failed, draft kept for review")
		return out, nil
	}
	out.Published = true
	out.PostURL = outcome.URL
	return out, nil
}

func (p *Pipeline) promptInput(c models.Candidate, req RunRequest, sel news.Selection) engine.PromptInput {
	in := engine.PromptInput{
		Candidate:   c,
		Inclination: req.Inclination,
		Style:       req.Style,
		Notes:       req.Notes,
		WordMin:     p.policy.WordWindow.Min,
		WordMax:     p.policy.WordWindow.Max,
		Budgets:     p.policy.ChannelBudgets,
	}
	for i, sig := range sel.Signals {
		brief := engine.SignalBrief{
			Title:       sig.Title,
			URL:         sig.URL,
			Source:      sig.SourceName,
			Summary:     sig.Summary,
			Origin:      sig.Origin,
			PublishedAt: sig.PublishedAt,
		}
		if i == 0 {
			in.Primary = &brief
			continue
		}
		in.Background = append(in.Background, brief)
	}
	return in
}
