package models

import "time"

// FeedSource represents the news_feed_sources table. Only rows with
// LicenseConfirmed and Active are eligible for signal selection.
type FeedSource struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name             string    `gorm:"column:name" json:"name"`
	URL              string    `gorm:"column:url;not null" json:"url"`
	Region           string    `gorm:"column:region;index" json:"region"`
	LicenseConfirmed bool      `gorm:"column:license_confirmed;default:false" json:"license_confirmed"`
	Active           bool      `gorm:"column:active;default:true" json:"active"`
	Priority         int       `gorm:"column:priority;default:0" json:"priority"`
	CreatedAt        time.Time `json:"created_at"`
}

func (FeedSource) TableName() string { return "news_feed_sources" }
