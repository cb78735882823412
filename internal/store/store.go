// Package store is the editorial engine's narrow view of the relational
// datastore: candidate profiles, feed sources, drafts, posts, destinations
// and runtime settings.
package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/pkg/web"
)

var ErrNotFound = errors.New("store: not found")

// Settings is the per-invocation snapshot of global runtime flags.
type Settings struct {
	AutoPublishEnabled bool
	JitterWindow       time.Duration
}

const defaultJitterMinutes = 90

// SettingsFromRows builds Settings from key/value rows. The kill-switch
// stays closed unless explicitly enabled.
func SettingsFromRows(rows []models.Setting) Settings {
	s := Settings{JitterWindow: defaultJitterMinutes * time.Minute}
	for _, row := range rows {
		value := strings.TrimSpace(row.Value)
		switch row.Key {
		case models.SettingAutoPublishEnabled:
			enabled, err := strconv.ParseBool(value)
			s.AutoPublishEnabled = err == nil && enabled
		case models.SettingJitterMinutes:
			if minutes, err := strconv.Atoi(value); err == nil && minutes >= 0 {
				s.JitterWindow = time.Duration(minutes) * time.Minute
			}
		}
	}
	return s
}

// AvoidWindow bounds the avoid-list lookback.
type AvoidWindow struct {
	PerCandidate int
	Global       int
	GlobalMaxAge time.Duration
}

func DefaultAvoidWindow() AvoidWindow {
	return AvoidWindow{PerCandidate: 30, Global: 200, GlobalMaxAge: 14 * 24 * time.Hour}
}

// AvoidList holds recently used source and image URLs, normalized.
type AvoidList struct {
	sources map[string]struct{}
	images  map[string]struct{}
}

func NewAvoidList() *AvoidList {
	return &AvoidList{sources: map[string]struct{}{}, images: map[string]struct{}{}}
}

func (a *AvoidList) AddSource(u string) {
	if n := web.NormalizeURL(u); n != "" {
		a.sources[n] = struct{}{}
	}
}

func (a *AvoidList) AddImage(u string) {
	if n := web.NormalizeURL(u); n != "" {
		a.images[n] = struct{}{}
	}
}

func (a *AvoidList) HasSource(u string) bool {
	_, ok := a.sources[web.NormalizeURL(u)]
	return ok
}

func (a *AvoidList) HasImage(u string) bool {
	_, ok := a.images[web.NormalizeURL(u)]
	return ok
}

func (a *AvoidList) Len() (sources, images int) {
	return len(a.sources), len(a.images)
}

// Store is everything the editorial pipeline reads from or writes to the
// relational datastore.
type Store interface {
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
	ListAutoBlogCandidates(ctx context.Context) ([]models.Candidate, error)
	ListFeedSources(ctx context.Context, region string) ([]models.FeedSource, error)
	LatestPublishedPost(ctx context.Context, candidateID string) (*models.PublishedPost, error)
	RecentURLs(ctx context.Context, candidateID string, window AvoidWindow) (*AvoidList, error)

	CreateDraft(ctx context.Context, draft *models.Draft) error
	GetDraft(ctx context.Context, id string) (*models.Draft, error)
	PublishDraft(ctx context.Context, draftID string, post *models.PublishedPost) error
	SlugExists(ctx context.Context, slug string) (bool, error)

	ListApprovedDestinations(ctx context.Context, candidateID string) ([]models.SocialDestination, error)
	GetSettings(ctx context.Context) (Settings, error)
}
