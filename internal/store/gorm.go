package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creatorstation/editorial/internal/models"
	"gorm.io/gorm"
)

// Gorm is the postgres-backed Store.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	var c models.Candidate
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return &c, nil
}

func (s *Gorm) ListAutoBlogCandidates(ctx context.Context) ([]models.Candidate, error) {
	var out []models.Candidate
	err := s.db.WithContext(ctx).
		Where("auto_blog = ?", true).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list auto-blog candidates: %w", err)
	}
	return out, nil
}

// ListFeedSources returns license-confirmed, active sources for the region
// plus national sources (empty region).
func (s *Gorm) ListFeedSources(ctx context.Context, region string) ([]models.FeedSource, error) {
	var out []models.FeedSource
	q := s.db.WithContext(ctx).
		Where("license_confirmed = ? AND active = ?", true, true)
	if region != "" {
		q = q.Where("region = ? OR region = '' OR region IS NULL", region)
	} else {
		q = q.Where("region = '' OR region IS NULL")
	}
	if err := q.Order("priority desc, name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list feed sources: %w", err)
	}
	return out, nil
}

func (s *Gorm) LatestPublishedPost(ctx context.Context, candidateID string) (*models.PublishedPost, error) {
	var p models.PublishedPost
	err := s.db.WithContext(ctx).
		Where("candidate_id = ? AND status = ?", candidateID, models.PostStatusPublished).
		Order("published_at desc").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest published post: %w", err)
	}
	return &p, nil
}

type urlRow struct {
	SourceURL string
	ImageURL  string
}

func (s *Gorm) RecentURLs(ctx context.Context, candidateID string, window AvoidWindow) (*AvoidList, error) {
	avoid := NewAvoidList()

	var own []urlRow
	err := s.db.WithContext(ctx).
		Model(&models.Draft{}).
		Select("source_url, image_url").
		Where("candidate_id = ?", candidateID).
		Order("created_at desc").
		Limit(window.PerCandidate).
		Scan(&own).Error
	if err != nil {
		return nil, fmt.Errorf("recent candidate urls: %w", err)
	}

	var global []urlRow
	err = s.db.WithContext(ctx).
		Model(&models.Draft{}).
		Select("source_url, image_url").
		Where("created_at >= ?", time.Now().Add(-window.GlobalMaxAge)).
		Order("created_at desc").
		Limit(window.Global).
		Scan(&global).Error
	if err != nil {
		return nil, fmt.Errorf("recent global urls: %w", err)
	}

	for _, row := range append(own, global...) {
		avoid.AddSource(row.SourceURL)
		avoid.AddImage(row.ImageURL)
	}
	return avoid, nil
}

func (s *Gorm) CreateDraft(ctx context.Context, draft *models.Draft) error {
	if err := s.db.WithContext(ctx).Create(draft).Error; err != nil {
		return fmt.Errorf("create draft: %w", err)
	}
	return nil
}

func (s *Gorm) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	var d models.Draft
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return &d, nil
}

// PublishDraft inserts the post and back-links the draft in one transaction.
func (s *Gorm) PublishDraft(ctx context.Context, draftID string, post *models.PublishedPost) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("create published post: %w", err)
		}
		res := tx.Model(&models.Draft{}).
			Where("id = ?", draftID).
			Update("published_post_id", post.ID)
		if res.Error != nil {
			return fmt.Errorf("link draft to post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Gorm) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.PublishedPost{}).
		Where("slug = ?", slug).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return count > 0, nil
}

func (s *Gorm) ListApprovedDestinations(ctx context.Context, candidateID string) ([]models.SocialDestination, error) {
	var out []models.SocialDestination
	err := s.db.WithContext(ctx).
		Where("candidate_id = ? AND lower(authorization_status) = ? AND active = ?", candidateID, models.AuthorizationApproved, true).
		Order("network, target_id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	return out, nil
}

func (s *Gorm) GetSettings(ctx context.Context) (Settings, error) {
	var rows []models.Setting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return SettingsFromRows(rows), nil
}
