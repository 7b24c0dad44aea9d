package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/yanni/community/models"
	"github.com/yanni/community/store"
	"github.com/yanni/community/utils"
)

// CommentController manages comments under posts.
type CommentController struct {
	manager *store.Manager
}

func NewCommentController(manager *store.Manager) *CommentController {
	return &CommentController{manager: manager}
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

// ListComments returns a post's comments oldest first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var comments []models.Comment
	err := c.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		var err error
		comments, err = s.Comments().ListForPost(postID)
		return err
	})
	if err != nil {
		fail(ctx, err, 40)
		return
	}
	utils.Success(ctx, gin.H{"items": comments})
}

// CreateComment adds the caller's comment to a post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 41, "invalid request payload")
		return
	}
	comment, err := c.comment(ctx, func(s *store.Session) (*models.Comment, error) {
		return s.Comments().Create(postID, userID, utils.SanitizeText(req.Content))
	})
	if err != nil {
		fail(ctx, err, 42)
		return
	}
	utils.Created(ctx, gin.H{"comment": comment})
}

// GetComment returns one comment.
func (c *CommentController) GetComment(ctx *gin.Context) {
	commentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	comment, err := c.comment(ctx, func(s *store.Session) (*models.Comment, error) {
		return s.Comments().Get(commentID)
	})
	if err != nil {
		fail(ctx, err, 43)
		return
	}
	utils.Success(ctx, gin.H{"comment": comment})
}

// UpdateComment replaces the content of the caller's comment.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	commentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 44, "invalid request payload")
		return
	}
	comment, err := c.comment(ctx, func(s *store.Session) (*models.Comment, error) {
		return s.Comments().Update(commentID, userID, utils.SanitizeText(req.Content))
	})
	if err != nil {
		fail(ctx, err, 45)
		return
	}
	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment removes the caller's comment.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	commentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	err := c.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		return s.Comments().Delete(commentID, userID)
	})
	if err != nil {
		fail(ctx, err, 46)
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

func (c *CommentController) comment(ctx *gin.Context, fn func(*store.Session) (*models.Comment, error)) (*models.Comment, error) {
	var comment *models.Comment
	err := c.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		var err error
		comment, err = fn(s)
		return err
	})
	return comment, err
}
