package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yanni/community/models"
)

// CommentStore manages comments within a session.
type CommentStore struct {
	tx *gorm.DB
}

// Create adds a comment by ownerID to the post.
func (s *CommentStore) Create(postID, ownerID uint, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ValidationError("content is required")
	}
	if err := requirePost(s.tx, postID); err != nil {
		return nil, err
	}
	if err := requireUser(s.tx, ownerID); err != nil {
		return nil, err
	}
	comment := models.Comment{PostID: postID, UserID: ownerID, Content: content}
	if err := s.tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
		return nil, wrap("create comment", err)
	}
	return s.Get(comment.ID)
}

// ListForPost returns the comments of a post oldest first.
func (s *CommentStore) ListForPost(postID uint) ([]models.Comment, error) {
	if err := requirePost(s.tx, postID); err != nil {
		return nil, err
	}
	comments := make([]models.Comment, 0)
	err := s.tx.Preload("User").Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, wrap("list comments", err)
	}
	return comments, nil
}

// Get returns a single comment.
func (s *CommentStore) Get(id uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.tx.Preload("User").Where("id = ?", id).Take(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("comment")
	}
	if err != nil {
		return nil, wrap("get comment", err)
	}
	return &comment, nil
}

// Update replaces the content of a comment owned by actorID.
func (s *CommentStore) Update(id, actorID uint, content string) (*models.Comment, error) {
	comment, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := RequireOwner(actorID, comment.UserID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ValidationError("content is required")
	}
	if err := s.tx.Model(&models.Comment{ID: id}).Update("content", content).Error; err != nil {
		return nil, wrap("update comment", err)
	}
	return s.Get(id)
}

// Delete removes a comment owned by actorID.
func (s *CommentStore) Delete(id, actorID uint) error {
	comment, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := RequireOwner(actorID, comment.UserID); err != nil {
		return err
	}
	return wrap("delete comment", s.tx.Delete(&models.Comment{}, id).Error)
}
