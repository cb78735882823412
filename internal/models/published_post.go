package models

import (
	"time"

	"gorm.io/datatypes"
)

const PostStatusPublished = "published"

// PublishedPost represents the published_posts table. Title never carries
// the candidate's name or ballot number; Subtitle does.
type PublishedPost struct {
	ID          string                       `gorm:"primaryKey;type:uuid" json:"id"`
	CandidateID string                       `gorm:"column:candidate_id;type:uuid;index;not null" json:"candidate_id"`
	DraftID     string                       `gorm:"column:draft_id;type:uuid" json:"draft_id"`
	Slug        string                       `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Title       string                       `gorm:"column:title;not null" json:"title"`
	Subtitle    string                       `gorm:"column:subtitle" json:"subtitle"`
	Body        string                       `gorm:"column:body;type:text" json:"body"`
	MediaURLs   datatypes.JSONType[[]string] `gorm:"column:media_urls" json:"media_urls"`
	SourceURL   string                       `gorm:"column:source_url" json:"source_url"`
	Status      string                       `gorm:"column:status" json:"status"`
	PublishedAt time.Time                    `gorm:"column:published_at;index" json:"published_at"`
	CreatedAt   time.Time                    `json:"created_at"`
}

func (PublishedPost) TableName() string { return "published_posts" }
