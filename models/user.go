package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a community member. Passwords are stored as bcrypt hashes only.
// Email is always stored lower-cased so the unique index is case-insensitive.
// Dependent rows (posts, comments, likes) declare their cascading foreign keys
// on their own side; a has-many here would suppress those constraints.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Nickname     string    `gorm:"size:64;not null;uniqueIndex" json:"nickname"`
	ProfileImage *string   `gorm:"size:512" json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// Author is the public slice of a user embedded in post and comment payloads.
type Author struct {
	ID           uint    `json:"id"`
	Nickname     string  `json:"nickname"`
	ProfileImage *string `json:"profile_image"`
}

// AuthorOf projects a user onto its public author fields.
func AuthorOf(u User) Author {
	return Author{ID: u.ID, Nickname: u.Nickname, ProfileImage: u.ProfileImage}
}
