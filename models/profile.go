package models

import "time"

// ProfileDocID is the fixed key of the singleton profile row.
const ProfileDocID = "profile_main"

// ProfileSettings is the public profile shown on the site. A single row,
// mutated with last-write-wins merge semantics and no further invariants.
type ProfileSettings struct {
	ID          string    `gorm:"primaryKey;size:32" json:"-"`
	DisplayName string    `gorm:"size:128" json:"display_name"`
	Bio         string    `gorm:"type:text" json:"bio"`
	AvatarURL   string    `gorm:"size:512" json:"avatar_url"`
	CoverURL    string    `gorm:"size:512" json:"cover_url"`
	TiktokURL   string    `gorm:"size:512" json:"tiktok_url,omitempty"`
	Email       string    `gorm:"size:255" json:"email,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
