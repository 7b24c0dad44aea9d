package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanni/community/auth"
	"github.com/yanni/community/config"
	"github.com/yanni/community/controllers"
	"github.com/yanni/community/middleware"
	"github.com/yanni/community/services"
	"github.com/yanni/community/store"
	"github.com/yanni/community/utils"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config     config.AppConfig
	Manager    *store.Manager
	Guard      *auth.Guard
	Dispatcher *services.Dispatcher
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file when configured
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg); err == nil {
			accessLog = gl
		} else {
			utils.Logger.Warn("gin access log disabled", zap.Error(err))
		}
	}
	r.Use(utils.GinLogger(accessLog), utils.GinRecovery(accessLog, true))
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authController := controllers.NewAuthController(d.Manager, d.Guard)
	postController := controllers.NewPostController(d.Manager, d.Dispatcher)
	commentController := controllers.NewCommentController(d.Manager)
	statsController := controllers.NewStatsController(d.Manager)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	authRequired := middleware.AuthRequired(d.Guard)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(limiter.Middleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", authRequired, authController.Logout)
	authGroup.GET("/me", authRequired, authController.Me)
	authGroup.PATCH("/me/nickname", authRequired, authController.UpdateNickname)
	authGroup.PATCH("/me/password", authRequired, authController.ChangePassword)
	authGroup.PATCH("/me/profile-image", authRequired, authController.UpdateProfileImage)
	authGroup.DELETE("/me", authRequired, authController.Withdraw)

	// Public reads
	api.GET("/stats", statsController.GetStats)
	api.GET("/users/:id", authController.GetUserPublic)
	api.GET("/users/:id/posts", postController.ListUserPosts)
	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/posts/:id/comments", commentController.ListComments)
	api.GET("/comments/:id", commentController.GetComment)

	protected := api.Group("")
	protected.Use(authRequired, limiter.Middleware())
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.ReplacePost)
	protected.PATCH("/posts/:id", postController.PatchPost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/like", postController.ToggleLike)
	protected.DELETE("/posts/:id/like", postController.ToggleLike)
	protected.GET("/posts/:id/is-liked", postController.IsLiked)
	protected.POST("/posts/:id/comments", commentController.CreateComment)
	protected.PUT("/comments/:id", commentController.UpdateComment)
	protected.DELETE("/comments/:id", commentController.DeleteComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
