package news

import (
	"context"
	"strings"
	"time"

	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/store"
	"github.com/creatorstation/editorial/pkg/web"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxItems = 3
	MaxItems        = 5
)

// Catalog is the slice of the datastore the selector reads.
type Catalog interface {
	ListFeedSources(ctx context.Context, region string) ([]models.FeedSource, error)
	LatestPublishedPost(ctx context.Context, candidateID string) (*models.PublishedPost, error)
}

// Request is one selection.
type Request struct {
	Candidate models.Candidate
	Mode      Mode
	MaxItems  int
	Links     []string
	Exclude   *store.AvoidList
}

type SelectorOptions struct {
	SearchURL   string
	SearchLang  string
	SiteBaseURL string
	Client      *resty.Client
	Now         func() time.Time
}

// Selector ranks signals from operator links, licensed feeds and news search.
type Selector struct {
	catalog     Catalog
	policy      *policy.Policy
	logger      *logrus.Logger
	client      *resty.Client
	feeds       *FeedReader
	searchURL   string
	searchLang  string
	siteBaseURL string
	now         func() time.Time
}

func NewSelector(catalog Catalog, pol *policy.Policy, logger *logrus.Logger, opts SelectorOptions) *Selector {
	client := opts.Client
	if client == nil {
		client = resty.New().SetTimeout(feedFetchTimeout)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Selector{
		catalog:     catalog,
		policy:      pol,
		logger:      logger,
		client:      client,
		feeds:       NewFeedReader(client),
		searchURL:   strings.TrimSpace(opts.SearchURL),
		searchLang:  opts.SearchLang,
		siteBaseURL: strings.TrimRight(opts.SiteBaseURL, "/"),
		now:         now,
	}
}

// Select never fails: every upstream problem degrades towards no-signal mode.
func (s *Selector) Select(ctx context.Context, req Request) Selection {
	maxItems := req.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if maxItems > MaxItems {
		maxItems = MaxItems
	}
	exclude := req.Exclude
	if exclude == nil {
		exclude = store.NewAvoidList()
	}
	region := req.Candidate.Region
	if req.Candidate.IsNational() {
		region = ""
	}

	seen := map[string]bool{}
	usable := func(sig Signal) bool {
		key := web.NormalizeURL(sig.URL)
		if key == "" || seen[key] || !web.IsHTTPURL(sig.URL) {
			return false
		}
		if s.policy.DomainDenied(web.Host(sig.URL)) || exclude.HasSource(sig.URL) {
			return false
		}
		return true
	}

	if picked := s.operatorLinks(ctx, req.Links, usable); len(picked) > 0 {
		if len(picked) > maxItems {
			picked = picked[:maxItems]
		}
		s.logger.WithFields(logrus.Fields{"candidate_id": req.Candidate.ID, "signals": len(picked)}).Info("using operator links")
		return Selection{Signals: picked}
	}

	topics := s.topicTerms(req.Mode)
	terms := queryTerms(region, topics)

	var feedItems, searchItems []Signal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sources, err := s.catalog.ListFeedSources(gctx, region)
		if err != nil {
			s.logger.WithError(err).Warn("list feed sources failed")
			return nil
		}
		feedItems = s.fetchFeeds(gctx, sources)
		return nil
	})
	g.Go(func() error {
		searchItems = s.searchCascade(gctx, region, topics, usable)
		return nil
	})
	_ = g.Wait()

	now := s.now()
	var pool []Signal
	for _, it := range append(feedItems, searchItems...) {
		if !usable(it) {
			continue
		}
		seen[web.NormalizeURL(it.URL)] = true
		score(&it, s.policy, terms, now)
		pool = append(pool, it)
	}

	if len(pool) > 0 {
		rank(pool, req.Mode)
		if len(pool) > maxItems {
			pool = pool[:maxItems]
		}
		s.logger.WithFields(logrus.Fields{
			"candidate_id":   req.Candidate.ID,
			"signal_url":     pool[0].URL,
			"classification": pool[0].Classification,
			"score":          pool[0].Score,
		}).Info("news signal selected")
		return Selection{Signals: pool}
	}

	if sig := s.reframe(ctx, req.Candidate.ID, usable); sig != nil {
		return Selection{Signals: []Signal{*sig}}
	}
	s.logger.WithFields(logrus.Fields{"candidate_id": req.Candidate.ID}).Info("no news signal, continuing on platform themes")
	return Selection{}
}

// topicTerms picks the leading catalog keywords for the mode.
func (s *Selector) topicTerms(mode Mode) []string {
	catalog := s.policy.Severity.Keywords
	if mode == ModeViral {
		catalog = s.policy.Virality.Keywords
	}
	n := s.policy.SearchTopicTerms
	if n <= 0 || n > len(catalog) {
		n = len(catalog)
	}
	return slices.Clone(catalog[:n])
}

func (s *Selector) reframe(ctx context.Context, candidateID string, usable func(Signal) bool) *Signal {
	post, err := s.catalog.LatestPublishedPost(ctx, candidateID)
	if err != nil {
		s.logger.WithError(err).Warn("latest published post lookup failed")
		return nil
	}
	if post == nil {
		return nil
	}
	link := post.SourceURL
	if link == "" && s.siteBaseURL != "" {
		link = s.siteBaseURL + "/" + post.Slug
	}
	sig := Signal{
		Title:          post.Title,
		URL:            link,
		SourceName:     "publicación previa",
		Summary:        post.Subtitle,
		PublishedAt:    post.PublishedAt,
		Classification: ClassGeneral,
		Origin:         OriginReframe,
	}
	if !usable(sig) {
		return nil
	}
	return &sig
}
