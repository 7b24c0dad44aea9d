package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yanni/community/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PostStore manages posts and their like sets within a session.
type PostStore struct {
	tx *gorm.DB
}

// withCounts selects the derived like and comment counts alongside each post.
func withCounts(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, " +
		"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) AS like_count, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count")
}

func paginate(offset, limit int) func(*gorm.DB) *gorm.DB {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(offset).Limit(limit)
	}
}

// Create stores a new post owned by ownerID.
func (s *PostStore) Create(ownerID uint, title, content string, image *string) (*models.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ValidationError("title is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, ValidationError("content is required")
	}
	image, err := normalizeImage(image)
	if err != nil {
		return nil, err
	}
	if err := requireUser(s.tx, ownerID); err != nil {
		return nil, err
	}
	post := models.Post{UserID: ownerID, Title: title, Content: content, ImageURL: image}
	if err := s.tx.Omit(clause.Associations).Create(&post).Error; err != nil {
		return nil, wrap("create post", err)
	}
	return s.Find(post.ID)
}

// Get returns a post and counts the fetch as one view.
func (s *PostStore) Get(id uint) (*models.Post, error) {
	res := s.tx.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return nil, wrap("count view", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFoundError("post")
	}
	return s.Find(id)
}

// Find returns a post without touching its view count.
func (s *PostStore) Find(id uint) (*models.Post, error) {
	var post models.Post
	err := s.tx.Model(&models.Post{}).Scopes(withCounts).Preload("User").
		Where("posts.id = ?", id).Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("post")
	}
	if err != nil {
		return nil, wrap("find post", err)
	}
	return &post, nil
}

// List returns posts newest first.
func (s *PostStore) List(offset, limit int) ([]models.Post, error) {
	return s.list(s.tx, offset, limit)
}

// ListByAuthor returns the posts of one user newest first.
func (s *PostStore) ListByAuthor(userID uint, offset, limit int) ([]models.Post, error) {
	if err := requireUser(s.tx, userID); err != nil {
		return nil, err
	}
	return s.list(s.tx.Where("posts.user_id = ?", userID), offset, limit)
}

func (s *PostStore) list(db *gorm.DB, offset, limit int) ([]models.Post, error) {
	posts := make([]models.Post, 0)
	err := db.Model(&models.Post{}).Scopes(withCounts, paginate(offset, limit)).Preload("User").
		Order("posts.created_at DESC").Order("posts.id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, wrap("list posts", err)
	}
	return posts, nil
}

// Replace overwrites title and content of a post owned by actorID.
func (s *PostStore) Replace(id, actorID uint, title, content string) (*models.Post, error) {
	return s.Patch(id, actorID, PostPatch{Title: Set(title), Content: Set(content)})
}

// Patch applies the fields present in patch. An empty patch changes nothing,
// not even updated_at.
func (s *PostStore) Patch(id, actorID uint, patch PostPatch) (*models.Post, error) {
	post, err := s.Find(id)
	if err != nil {
		return nil, err
	}
	if err := RequireOwner(actorID, post.UserID); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return post, nil
	}

	values := map[string]interface{}{}
	if patch.Title.Present {
		title := strings.TrimSpace(patch.Title.Value)
		if title == "" {
			return nil, ValidationError("title is required")
		}
		values["title"] = title
	}
	if patch.Content.Present {
		if strings.TrimSpace(patch.Content.Value) == "" {
			return nil, ValidationError("content is required")
		}
		values["content"] = patch.Content.Value
	}
	if patch.ImageURL.Present {
		image, err := normalizeImage(patch.ImageURL.Value)
		if err != nil {
			return nil, err
		}
		values["image_url"] = image
	}

	if err := s.tx.Model(&models.Post{ID: id}).Updates(values).Error; err != nil {
		return nil, wrap("update post", err)
	}
	return s.Find(id)
}

// Delete removes a post owned by actorID along with its comments and likes.
func (s *PostStore) Delete(id, actorID uint) error {
	post, err := s.Find(id)
	if err != nil {
		return err
	}
	if err := RequireOwner(actorID, post.UserID); err != nil {
		return err
	}
	if err := s.tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
		return wrap("delete likes", err)
	}
	if err := s.tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return wrap("delete comments", err)
	}
	return wrap("delete post", s.tx.Delete(&models.Post{}, id).Error)
}

// ToggleLike adds the like when absent and removes it when present.
func (s *PostStore) ToggleLike(id, userID uint) (models.LikeState, error) {
	if err := requirePost(s.tx, id); err != nil {
		return models.LikeState{}, err
	}
	if err := requireUser(s.tx, userID); err != nil {
		return models.LikeState{}, err
	}

	var state models.LikeState
	res := s.tx.Where("user_id = ? AND post_id = ?", userID, id).Delete(&models.PostLike{})
	if res.Error != nil {
		return state, wrap("unlike post", res.Error)
	}
	if res.RowsAffected == 0 {
		like := models.PostLike{UserID: userID, PostID: id}
		err := s.tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error
		if err != nil {
			return state, wrap("like post", err)
		}
		state.Liked = true
	}
	if err := s.tx.Model(&models.PostLike{}).Where("post_id = ?", id).Count(&state.LikeCount).Error; err != nil {
		return state, wrap("count likes", err)
	}
	return state, nil
}

// IsLiked reports whether userID currently likes the post.
func (s *PostStore) IsLiked(id, userID uint) (bool, error) {
	if err := requirePost(s.tx, id); err != nil {
		return false, err
	}
	var n int64
	err := s.tx.Model(&models.PostLike{}).Where("user_id = ? AND post_id = ?", userID, id).Count(&n).Error
	if err != nil {
		return false, wrap("check like", err)
	}
	return n > 0, nil
}

// Count returns the number of posts.
func (s *PostStore) Count() (int64, error) {
	var n int64
	if err := s.tx.Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, wrap("count posts", err)
	}
	return n, nil
}

func requirePost(db *gorm.DB, id uint) error {
	return requireRow(db, &models.Post{}, id, "post")
}

func requireUser(db *gorm.DB, id uint) error {
	return requireRow(db, &models.User{}, id, "user")
}

func requireRow(db *gorm.DB, model interface{}, id uint, what string) error {
	var n int64
	if err := db.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return wrap("check "+what, err)
	}
	if n == 0 {
		return NotFoundError(what)
	}
	return nil
}
