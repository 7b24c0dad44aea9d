package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yanni/community/auth"
	"github.com/yanni/community/middleware"
	"github.com/yanni/community/models"
	"github.com/yanni/community/store"
	"github.com/yanni/community/utils"
)

// AuthController handles account lifecycle and public profiles.
type AuthController struct {
	manager *store.Manager
	guard   *auth.Guard
}

// NewAuthController creates an AuthController.
func NewAuthController(manager *store.Manager, guard *auth.Guard) *AuthController {
	return &AuthController{manager: manager, guard: guard}
}

// Register creates a local account.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email           string  `json:"email"`
		Password        string  `json:"password"`
		PasswordConfirm string  `json:"password_confirm"`
		Nickname        string  `json:"nickname"`
		ProfileImage    *string `json:"profile_image"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 1, "invalid request payload")
		return
	}

	var user *models.User
	err := a.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		var err error
		user, err = s.Users().Register(store.Registration{
			Email:           req.Email,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
			Nickname:        req.Nickname,
			ProfileImage:    req.ProfileImage,
		})
		return err
	})
	if err != nil {
		fail(ctx, err, 2)
		return
	}
	utils.Created(ctx, gin.H{"user": user})
}

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 3, "invalid request payload")
		return
	}

	var (
		token string
		user  *models.User
	)
	err := a.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		var err error
		token, user, err = s.Users().Authenticate(req.Email, req.Password)
		return err
	})
	if err != nil {
		fail(ctx, err, 6)
		return
	}
	utils.Success(ctx, gin.H{
		"token":      token,
		"token_type": "bearer",
		"user":       user,
	})
}

// Logout revokes the presented token until it expires.
func (a *AuthController) Logout(ctx *gin.Context) {
	id, ok := middleware.CurrentIdentity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "unauthorized")
		return
	}
	if err := a.guard.Revoke(ctx.Request.Context(), id); err != nil {
		utils.Logger.Error("revoke token failed", zap.Uint("user_id", id.UserID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to log out")
		return
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's own record.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	a.respondUser(ctx, 7, func(s *store.Session) (*models.User, error) {
		return s.Users().Get(userID)
	})
}

// UpdateNickname changes the caller's nickname.
func (a *AuthController) UpdateNickname(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req struct {
		Nickname string `json:"nickname"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 8, "invalid request payload")
		return
	}
	a.respondUser(ctx, 9, func(s *store.Session) (*models.User, error) {
		return s.Users().UpdateNickname(userID, req.Nickname)
	})
}

// ChangePassword replaces the caller's password.
func (a *AuthController) ChangePassword(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req struct {
		CurrentPassword    string `json:"current_password" binding:"required"`
		NewPassword        string `json:"new_password"`
		NewPasswordConfirm string `json:"new_password_confirm"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 10, "invalid request payload")
		return
	}
	err := a.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		return s.Users().ChangePassword(userID, req.CurrentPassword, req.NewPassword, req.NewPasswordConfirm)
	})
	if err != nil {
		fail(ctx, err, 11)
		return
	}
	utils.Success(ctx, gin.H{"message": "password updated"})
}

// UpdateProfileImage sets or clears the caller's profile image.
func (a *AuthController) UpdateProfileImage(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req struct {
		ProfileImage *string `json:"profile_image"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 12, "invalid request payload")
		return
	}
	a.respondUser(ctx, 13, func(s *store.Session) (*models.User, error) {
		return s.Users().UpdateProfileImage(userID, req.ProfileImage)
	})
}

// Withdraw deletes the caller's account with everything they authored.
func (a *AuthController) Withdraw(ctx *gin.Context) {
	id, ok := middleware.CurrentIdentity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	err := a.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		return s.Users().Withdraw(id.UserID)
	})
	if err != nil {
		fail(ctx, err, 14)
		return
	}
	if err := a.guard.Revoke(ctx.Request.Context(), id); err != nil {
		utils.Logger.Warn("revoke token after withdrawal failed", zap.Error(err))
	}
	ctx.Status(http.StatusNoContent)
}

// GetUserPublic returns the public profile of any user.
func (a *AuthController) GetUserPublic(ctx *gin.Context) {
	userID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var user *models.User
	err := a.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		var err error
		user, err = s.Users().Get(userID)
		return err
	})
	if err != nil {
		fail(ctx, err, 15)
		return
	}
	utils.Success(ctx, gin.H{
		"user": gin.H{
			"id":            user.ID,
			"nickname":      user.Nickname,
			"profile_image": user.ProfileImage,
			"created_at":    user.CreatedAt,
		},
	})
}

func (a *AuthController) respondUser(ctx *gin.Context, site int, fn func(*store.Session) (*models.User, error)) {
	var user *models.User
	err := a.manager.Run(ctx.Request.Context(), func(s *store.Session) error {
		var err error
		user, err = fn(s)
		return err
	})
	if err != nil {
		fail(ctx, err, site)
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}
