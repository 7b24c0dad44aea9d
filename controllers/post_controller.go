package controllers

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/yanni/community/models"
	"github.com/yanni/community/services"
	"github.com/yanni/community/store"
	"github.com/yanni/community/utils"
)

// maxTitleRunes bounds post titles at the HTTP boundary.
const maxTitleRunes = 26

// PostController manages posts and likes.
type PostController struct {
	manager    *store.Manager
	dispatcher *services.Dispatcher
}

// NewPostController creates a PostController. dispatcher may be nil to
// disable AI comments.
func NewPostController(manager *store.Manager, dispatcher *services.Dispatcher) *PostController {
	return &PostController{manager: manager, dispatcher: dispatcher}
}

// CreatePost stores a post for the caller and schedules its AI comment.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req struct {
		Title    string  `json:"title" binding:"required"`
		Content  string  `json:"content" binding:"required"`
		ImageURL *string `json:"image_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 20, "invalid request payload")
		return
	}
	title, ok := cleanTitle(ctx, req.Title)
	if !ok {
		return
	}

	post, err := p.post(ctx, func(s *store.Session) (*models.Post, error) {
		return s.Posts().Create(userID, title, utils.Sanitize(req.Content), req.ImageURL)
	})
	if err != nil {
		fail(ctx, err, 22)
		return
	}
	// Only reached after commit, so the job always sees the post.
	p.dispatcher.Dispatch(post.ID, post.Title, post.Content)
	utils.Created(ctx, gin.H{"post": post})
}

// ListPosts returns a page of posts, newest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	offset, limit := parsePagination(ctx)
	var posts []models.Post
	err := p.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		var err error
		posts, err = s.Posts().List(offset, limit)
		return err
	})
	if err != nil {
		fail(ctx, err, 23)
		return
	}
	utils.Page(ctx, posts, utils.Pagination{Offset: offset, Limit: limit, Count: len(posts)})
}

// ListUserPosts returns a page of one user's posts.
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	userID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	offset, limit := parsePagination(ctx)
	var posts []models.Post
	err := p.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		var err error
		posts, err = s.Posts().ListByAuthor(userID, offset, limit)
		return err
	})
	if err != nil {
		fail(ctx, err, 24)
		return
	}
	utils.Page(ctx, posts, utils.Pagination{Offset: offset, Limit: limit, Count: len(posts)})
}

// GetPost returns a post and counts a view.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	post, err := p.post(ctx, func(s *store.Session) (*models.Post, error) {
		return s.Posts().Get(postID)
	})
	if err != nil {
		fail(ctx, err, 25)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// ReplacePost overwrites title and content.
func (p *PostController) ReplacePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 26, "invalid request payload")
		return
	}
	title, ok := cleanTitle(ctx, req.Title)
	if !ok {
		return
	}
	post, err := p.post(ctx, func(s *store.Session) (*models.Post, error) {
		return s.Posts().Replace(postID, userID, title, utils.Sanitize(req.Content))
	})
	if err != nil {
		fail(ctx, err, 27)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// PatchPost changes only the fields present in the body. A field sent as
// null is present; image_url null clears the image.
func (p *PostController) PatchPost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var raw map[string]json.RawMessage
	if err := ctx.ShouldBindJSON(&raw); err != nil {
		badRequest(ctx, 28, "invalid request payload")
		return
	}

	var patch store.PostPatch
	if v, ok := raw["title"]; ok {
		var title string
		if err := json.Unmarshal(v, &title); err != nil {
			badRequest(ctx, 28, "title must be a string")
			return
		}
		if title, ok = cleanTitle(ctx, title); !ok {
			return
		}
		patch.Title = store.Set(title)
	}
	if v, ok := raw["content"]; ok {
		var content string
		if err := json.Unmarshal(v, &content); err != nil {
			badRequest(ctx, 28, "content must be a string")
			return
		}
		patch.Content = store.Set(utils.Sanitize(content))
	}
	if v, ok := raw["image_url"]; ok {
		var image *string
		if err := json.Unmarshal(v, &image); err != nil {
			badRequest(ctx, 28, "image_url must be a string or null")
			return
		}
		patch.ImageURL = store.Set(image)
	}

	post, err := p.post(ctx, func(s *store.Session) (*models.Post, error) {
		return s.Posts().Patch(postID, userID, patch)
	})
	if err != nil {
		fail(ctx, err, 29)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post with its comments and likes.
func (p *PostController) DeletePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	err := p.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		return s.Posts().Delete(postID, userID)
	})
	if err != nil {
		fail(ctx, err, 30)
		return
	}
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// ToggleLike flips the caller's like on a post.
func (p *PostController) ToggleLike(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var state models.LikeState
	err := p.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		var err error
		state, err = s.Posts().ToggleLike(postID, userID)
		return err
	})
	if err != nil {
		fail(ctx, err, 31)
		return
	}
	utils.Success(ctx, state)
}

// IsLiked reports whether the caller likes a post.
func (p *PostController) IsLiked(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var liked bool
	err := p.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		var err error
		liked, err = s.Posts().IsLiked(postID, userID)
		return err
	})
	if err != nil {
		fail(ctx, err, 32)
		return
	}
	utils.Success(ctx, gin.H{"liked": liked})
}

func (p *PostController) post(ctx *gin.Context, fn func(*store.Session) (*models.Post, error)) (*models.Post, error) {
	var post *models.Post
	err := p.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		var err error
		post, err = fn(s)
		return err
	})
	return post, err
}

// cleanTitle checks the title as the caller typed it, then strips markup.
func cleanTitle(ctx *gin.Context, title string) (string, bool) {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) > maxTitleRunes {
		badRequest(ctx, 21, "title must be at most 26 characters")
		return "", false
	}
	title = utils.SanitizeText(title)
	if title == "" {
		badRequest(ctx, 21, "title cannot be empty")
		return "", false
	}
	return title, true
}
