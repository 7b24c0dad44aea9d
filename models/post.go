package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a forum post created by a user.
// LikeCount and CommentCount are computed by the query that loads the post and
// are never written back.
type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	ImageURL     *string   `gorm:"size:512" json:"image_url"`
	Views        int64     `gorm:"not null;default:0" json:"views"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	User         User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Author       *Author   `gorm:"-" json:"author,omitempty"`
	LikeCount    int64     `gorm:"->;-:migration" json:"like_count"`
	CommentCount int64     `gorm:"->;-:migration" json:"comment_count"`
}

// AfterFind exposes the preloaded owner as a public author.
func (p *Post) AfterFind(tx *gorm.DB) error {
	if p.User.ID != 0 {
		a := AuthorOf(p.User)
		p.Author = &a
	}
	return nil
}
