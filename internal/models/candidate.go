package models

import "time"

// Office scopes.
const (
	ScopeNational = "national"
	ScopeRegional = "regional"
)

// Candidate represents the candidates table. It is owned by the admin
// surface; the editorial engine only reads it.
type Candidate struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Office       string    `gorm:"column:office" json:"office"`
	Scope        string    `gorm:"column:scope;default:regional" json:"scope"`
	Region       string    `gorm:"column:region" json:"region"`
	BallotNumber string    `gorm:"column:ballot_number" json:"ballot_number"`
	Biography    string    `gorm:"column:biography;type:text" json:"biography"`
	Platform     string    `gorm:"column:platform;type:text" json:"platform"`
	AutoPublish  bool      `gorm:"column:auto_publish;default:false" json:"auto_publish"`
	AutoBlog     bool      `gorm:"column:auto_blog;default:false" json:"auto_blog"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Candidate) TableName() string { return "candidates" }

// IsNational reports whether the candidate runs for a national office.
func (c Candidate) IsNational() bool {
	return c.Scope == ScopeNational
}
