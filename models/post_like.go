package models

import "time"

// PostLike is one member of a post's like set. The composite key keeps at most
// one row per (user, post) pair.
type PostLike struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// LikeState is the outcome of toggling a like.
type LikeState struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// All lists every persisted model in dependency order for migrations.
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &Comment{}, &PostLike{}}
}
