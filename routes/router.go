package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/linkup-social/linkup/config"
	"github.com/linkup-social/linkup/controllers"
	"github.com/linkup-social/linkup/middleware"
	"github.com/linkup-social/linkup/services"
	"github.com/linkup-social/linkup/storage"
	"github.com/linkup-social/linkup/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, store storage.ObjectStore) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
		r.Use(ginzap.RecoveryWithZap(gl, true))
	} else {
		utils.Sugar.Warnf("access log disabled: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(middleware.RequestID())
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Metrics())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.MetricsHandler())

	userService := services.NewUserService(db)
	socialService := services.NewSocialService(db)
	postService := services.NewPostService(db, store)

	authController := controllers.NewAuthController(userService, socialService)
	postController := controllers.NewPostController(postService, services.NewFeedService(db), services.NewEngagementService(db), services.NewTrendingService(db))
	socialController := controllers.NewSocialController(socialService)
	mediaController := controllers.NewMediaController(store, cfg.MediaMaxBytes, cfg.PublicBaseURL)
	statsController := controllers.NewStatsController(db)
	configController := controllers.NewConfigController()

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware())

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit("auth", cfg.AuthRateLimitPerMinute))
	authGroup.POST("/signup", authController.Signup)
	authGroup.POST("/signin", authController.Signin)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	postsGroup := api.Group("/posts")
	postsGroup.GET("", middleware.AuthOptional(), postController.ListPosts)
	postsGroup.GET("/trending/hashtags", postController.TrendingHashtags)
	postsGroup.GET("/:id", middleware.AuthOptional(), postController.GetPost)
	postsGroup.GET("/:id/comments", postController.ListComments)
	postsGroup.GET("/:id/stats", statsController.GetPostStats)

	protectedPosts := postsGroup.Group("")
	protectedPosts.Use(middleware.AuthRequired())
	protectedPosts.POST("", middleware.RateLimit("post", cfg.PostRateLimitPerMinute), postController.CreatePost)
	protectedPosts.PATCH("/:id", postController.UpdatePost)
	protectedPosts.DELETE("/:id", postController.DeletePost)
	protectedPosts.POST("/:id/comments", middleware.RateLimit("post", cfg.PostRateLimitPerMinute), postController.CreateComment)
	protectedPosts.POST("/:id/like", middleware.RateLimit("social", cfg.SocialRateLimitPerMinute), postController.LikePost)
	protectedPosts.DELETE("/:id/like", middleware.RateLimit("social", cfg.SocialRateLimitPerMinute), postController.UnlikePost)

	api.DELETE("/comments/:commentId", middleware.AuthRequired(), postController.DeleteComment)

	usersGroup := api.Group("/users")
	usersGroup.GET("/search", middleware.AuthOptional(), socialController.SearchUsers)
	usersGroup.GET("/suggested", middleware.AuthRequired(), socialController.SuggestedUsers)
	usersGroup.GET("/:userId", middleware.AuthOptional(), socialController.GetUser)
	usersGroup.GET("/:userId/followers", socialController.Followers)
	usersGroup.GET("/:userId/following", socialController.Following)
	usersGroup.POST("/:userId/follow", middleware.AuthRequired(), middleware.RateLimit("social", cfg.SocialRateLimitPerMinute), socialController.Follow)
	usersGroup.DELETE("/:userId/follow", middleware.AuthRequired(), middleware.RateLimit("social", cfg.SocialRateLimitPerMinute), socialController.Unfollow)

	mediaGroup := api.Group("/media")
	mediaGroup.GET("/file/*key", mediaController.Serve)
	mediaGroup.DELETE("/file/*key", middleware.AuthRequired(), mediaController.Delete)
	mediaGroup.POST("/upload", middleware.AuthRequired(), middleware.RateLimit("media", cfg.MediaRateLimitPerMinute), mediaController.Upload)
	mediaGroup.POST("/upload-multiple", middleware.AuthRequired(), middleware.RateLimit("media", cfg.MediaRateLimitPerMinute), mediaController.UploadMultiple)

	api.GET("/stats", statsController.GetStats)
	api.GET("/config/client", configController.GetClientConfig)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, controllers.CodeNotFound, "route not found")
	})

	return r
}
