package models

import "time"

const AuthorizationApproved = "approved"

// SocialDestination represents the social_destinations table. Rows are
// provisioned by the OAuth flow; the engine only reads approved, active ones.
type SocialDestination struct {
	ID                  string    `gorm:"primaryKey;type:uuid" json:"id"`
	CandidateID         string    `gorm:"column:candidate_id;type:uuid;index" json:"candidate_id"`
	Network             string    `gorm:"column:network" json:"network"`
	Scope               string    `gorm:"column:scope" json:"scope"`
	TargetID            string    `gorm:"column:target_id" json:"target_id"`
	CredentialRef       string    `gorm:"column:credential_ref" json:"credential_ref"`
	AuthorizationStatus string    `gorm:"column:authorization_status" json:"authorization_status"`
	Active              bool      `gorm:"column:active" json:"active"`
	CreatedAt           time.Time `json:"created_at"`
}

func (SocialDestination) TableName() string { return "social_destinations" }
