package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Store is the datastore surface the publish step needs.
type Store interface {
	SlugChecker
	PublishDraft(ctx context.Context, draftID string, post *models.PublishedPost) error
	ListApprovedDestinations(ctx context.Context, candidateID string) ([]models.SocialDestination, error)
}

// Request is a verified draft ready to go public.
type Request struct {
	RequestID string
	Candidate models.Candidate
	DraftID   string
	Title     string
	Subtitle  string
	Body      string
	Variants  models.Variants
	ImageURL  string
	SourceURL string
}

// Outcome describes a successful publish.
type Outcome struct {
	PostID         string
	Slug           string
	URL            string
	DispatchQueued bool
}

type Publisher struct {
	store      Store
	dispatcher *Dispatcher
	policy     *policy.Policy
	siteBase   string
	logger     *logrus.Logger
	now        func() time.Time
}

func NewPublisher(store Store, dispatcher *Dispatcher, pol *policy.Policy, siteBase string, logger *logrus.Logger) *Publisher {
	return &Publisher{
		store:      store,
		dispatcher: dispatcher,
		policy:     pol,
		siteBase:   strings.TrimRight(siteBase, "/"),
		logger:     logger,
		now:        time.Now,
	}
}

// Publish inserts the public post and back-links the draft in one
// transaction, then queues the social fan-out. Fan-out problems are logged
// and never undo the publish.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Outcome, error) {
	now := p.now()
	slug, err := UniqueSlug(ctx, p.store, req.Title, now)
	if err != nil {
		return nil, fmt.Errorf("slug: %w", err)
	}

	var media []string
	if req.ImageURL != "" {
		media = append(media, req.ImageURL)
	}
	post := &models.PublishedPost{
		ID:          uuid.NewString(),
		CandidateID: req.Candidate.ID,
		DraftID:     req.DraftID,
		Slug:        slug,
		Title:       req.Title,
		Subtitle:    req.Subtitle,
		Body:        PublicText(req.Body, p.policy),
		MediaURLs:   datatypes.NewJSONType(media),
		SourceURL:   req.SourceURL,
		Status:      models.PostStatusPublished,
		PublishedAt: now,
	}
	if err := p.store.PublishDraft(ctx, req.DraftID, post); err != nil {
		return nil, fmt.Errorf("publish draft: %w", err)
	}

	out := &Outcome{PostID: post.ID, Slug: slug, URL: p.siteBase + "/" + slug}
	log := p.logger.WithFields(logrus.Fields{
		"request_id":   req.RequestID,
		"candidate_id": req.Candidate.ID,
		"post_id":      post.ID,
		"slug":         slug,
	})
	log.Info("draft published")

	if !p.dispatcher.Enabled() {
		log.Debug("no dispatch webhook configured")
		return out, nil
	}
	rows, err := p.store.ListApprovedDestinations(ctx, req.Candidate.ID)
	if err != nil {
		log.WithError(err).Warn("destinations unavailable, skipping dispatch")
		return out, nil
	}
	routes := BuildRoutes(rows)
	if len(routes) == 0 {
		log.Info("no approved destinations, skipping dispatch")
		return out, nil
	}

	channels := make(map[string]string, len(req.Variants))
	for ch, text := range req.Variants {
		channels[ch] = PublicText(text, p.policy)
	}
	out.DispatchQueued = p.dispatcher.Submit(Payload{
		RequestID:   req.RequestID,
		CandidateID: req.Candidate.ID,
		DraftID:     req.DraftID,
		PostID:      post.ID,
		Slug:        slug,
		URL:         out.URL,
		Title:       req.Title,
		Subtitle:    req.Subtitle,
		ImageURL:    req.ImageURL,
		Channels:    channels,
		Routes:      routes,
	})
	return out, nil
}
