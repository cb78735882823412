package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/creatorstation/editorial/internal/models"
)

// Memory is an in-process Store used by tests and local dry runs.
type Memory struct {
	mu sync.RWMutex

	candidates   map[string]models.Candidate
	feedSources  []models.FeedSource
	drafts       []models.Draft
	posts        []models.PublishedPost
	destinations []models.SocialDestination
	settings     []models.Setting

	// CreateDraftErr, when set, is returned by CreateDraft.
	CreateDraftErr error
	// HideDrafts makes GetDraft miss freshly written rows.
	HideDrafts bool
	// PublishErr, when set, is returned by PublishDraft.
	PublishErr error
}

func NewMemory() *Memory {
	return &Memory{candidates: make(map[string]models.Candidate)}
}

func (m *Memory) PutCandidate(c models.Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[c.ID] = c
}

func (m *Memory) PutFeedSource(f models.FeedSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedSources = append(m.feedSources, f)
}

func (m *Memory) PutDestination(d models.SocialDestination) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destinations = append(m.destinations, d)
}

func (m *Memory) PutPost(p models.PublishedPost) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, p)
}

func (m *Memory) SetSetting(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.settings {
		if m.settings[i].Key == key {
			m.settings[i].Value = value
			return
		}
	}
	m.settings = append(m.settings, models.Setting{Key: key, Value: value})
}

// Drafts returns a copy of every stored draft, oldest first.
func (m *Memory) Drafts() []models.Draft {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Draft(nil), m.drafts...)
}

// Posts returns a copy of every stored post, oldest first.
func (m *Memory) Posts() []models.PublishedPost {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.PublishedPost(nil), m.posts...)
}

func (m *Memory) GetCandidate(_ context.Context, id string) (*models.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) ListAutoBlogCandidates(_ context.Context) ([]models.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Candidate
	for _, c := range m.candidates {
		if c.AutoBlog {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) ListFeedSources(_ context.Context, region string) ([]models.FeedSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.FeedSource
	for _, f := range m.feedSources {
		if !f.LicenseConfirmed || !f.Active {
			continue
		}
		if f.Region != "" && !strings.EqualFold(f.Region, region) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (m *Memory) LatestPublishedPost(_ context.Context, candidateID string) (*models.PublishedPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.PublishedPost
	for i := range m.posts {
		p := m.posts[i]
		if p.CandidateID != candidateID || p.Status != models.PostStatusPublished {
			continue
		}
		if latest == nil || p.PublishedAt.After(latest.PublishedAt) {
			latest = &p
		}
	}
	return latest, nil
}

func (m *Memory) RecentURLs(_ context.Context, candidateID string, window AvoidWindow) (*AvoidList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	avoid := NewAvoidList()

	own := 0
	global := 0
	cutoff := time.Now().Add(-window.GlobalMaxAge)
	for i := len(m.drafts) - 1; i >= 0; i-- {
		d := m.drafts[i]
		if d.CandidateID == candidateID && own < window.PerCandidate {
			own++
			avoid.AddSource(d.SourceURL)
			avoid.AddImage(d.ImageURL)
		}
		if global < window.Global && d.CreatedAt.After(cutoff) {
			global++
			avoid.AddSource(d.SourceURL)
			avoid.AddImage(d.ImageURL)
		}
	}
	return avoid, nil
}

func (m *Memory) CreateDraft(_ context.Context, draft *models.Draft) error {
	if m.CreateDraftErr != nil {
		return m.CreateDraftErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now
	m.drafts = append(m.drafts, *draft)
	return nil
}

func (m *Memory) GetDraft(_ context.Context, id string) (*models.Draft, error) {
	if m.HideDrafts {
		return nil, ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.drafts {
		if m.drafts[i].ID == id {
			d := m.drafts[i]
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) PublishDraft(_ context.Context, draftID string, post *models.PublishedPost) error {
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.drafts {
		if m.drafts[i].ID == draftID {
			id := post.ID
			m.drafts[i].PublishedPostID = &id
			m.posts = append(m.posts, *post)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.posts {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ListApprovedDestinations(_ context.Context, candidateID string) ([]models.SocialDestination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.SocialDestination
	for _, d := range m.destinations {
		if d.CandidateID == candidateID && d.Active && strings.EqualFold(d.AuthorizationStatus, models.AuthorizationApproved) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) GetSettings(_ context.Context) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return SettingsFromRows(m.settings), nil
}
