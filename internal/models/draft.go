package models

import (
	"time"

	"gorm.io/datatypes"
)

// Channel names for draft variants.
const (
	ChannelLongForm     = "long_form"
	ChannelMicroBlog    = "micro_blog"
	ChannelSocialFeed   = "social_feed"
	ChannelForum        = "forum"
	ChannelBroadcast    = "broadcast"
	ChannelPhotoCaption = "photo_caption"
)

// Channels lists every variant a persisted draft must carry, primary first.
var Channels = []string{
	ChannelLongForm,
	ChannelMicroBlog,
	ChannelSocialFeed,
	ChannelForum,
	ChannelBroadcast,
	ChannelPhotoCaption,
}

const (
	DraftStatusPendingReview = "pending_review"

	ContentTypeEditorial = "editorial_article"
)

// Variants maps a channel name to its text.
type Variants map[string]string

// ImageAttribution travels with the chosen image for compliance rendering.
type ImageAttribution struct {
	Tier     string `json:"tier"`
	Source   string `json:"source"`
	License  string `json:"license,omitempty"`
	Author   string `json:"author,omitempty"`
	PageURL  string `json:"page_url,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// SignalRef records the news signal a draft was built from.
type SignalRef struct {
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	SourceName     string     `json:"source_name"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	Classification string     `json:"classification"`
	Origin         string     `json:"origin"`
	Score          float64    `json:"score"`
}

// EngineDiagnostic is the per-backend outcome of one generation round.
type EngineDiagnostic struct {
	Engine     string `json:"engine"`
	Configured bool   `json:"configured"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	Extraction string `json:"extraction,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// DraftMetadata is the provenance blob stored with every draft.
type DraftMetadata struct {
	RequestID         string             `json:"request_id"`
	SourceEngine      string             `json:"source_engine"`
	ArbitrationReason string             `json:"arbitration_reason"`
	Corrected         bool               `json:"corrected"`
	Engines           []EngineDiagnostic `json:"engines"`
	Image             ImageAttribution   `json:"image"`
	Signal            *SignalRef         `json:"signal,omitempty"`
	Headline          string             `json:"headline"`
	Subtitle          string             `json:"subtitle"`
	Sentiment         string             `json:"sentiment,omitempty"`
	SEOKeywords       []string           `json:"seo_keywords"`
	AlignmentInjected bool               `json:"alignment_injected"`
	WordCount         int                `json:"word_count"`
	NewsMode          string             `json:"news_mode"`
}

// Draft represents the editorial_drafts table.
type Draft struct {
	ID              string                            `gorm:"primaryKey;type:uuid" json:"id"`
	CandidateID     string                            `gorm:"column:candidate_id;type:uuid;index;not null" json:"candidate_id"`
	ContentType     string                            `gorm:"column:content_type" json:"content_type"`
	Topic           string                            `gorm:"column:topic" json:"topic"`
	GeneratedText   string                            `gorm:"column:generated_text;type:text;not null" json:"generated_text"`
	Variants        datatypes.JSONType[Variants]      `gorm:"column:variants" json:"variants"`
	Metadata        datatypes.JSONType[DraftMetadata] `gorm:"column:metadata" json:"metadata"`
	ImageKeywords   datatypes.JSONType[[]string]      `gorm:"column:image_keywords" json:"image_keywords"`
	ImageURL        string                            `gorm:"column:image_url;not null" json:"image_url"`
	SourceURL       string                            `gorm:"column:source_url;index" json:"source_url"`
	Status          string                            `gorm:"column:status;default:pending_review" json:"status"`
	PublishedPostID *string                           `gorm:"column:published_post_id;type:uuid" json:"published_post_id,omitempty"`
	CreatedAt       time.Time                         `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time                         `json:"updated_at"`
}

func (Draft) TableName() string { return "editorial_drafts" }
