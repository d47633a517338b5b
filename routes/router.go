package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tans1/anonymous-feedback-backend/config"
	"github.com/tans1/anonymous-feedback-backend/controllers"
	"github.com/tans1/anonymous-feedback-backend/googleauth"
	"github.com/tans1/anonymous-feedback-backend/middleware"
	"github.com/tans1/anonymous-feedback-backend/utils"
)

// Deps carries the process-lifetime collaborators handlers depend on.
type Deps struct {
	Tokens *utils.TokenService
	Google googleauth.Verifier
	Mailer *utils.Mailer
	Cache  *utils.Cache
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, deps Deps) *gin.Engine {
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
	r.Use(utils.GinLogger())
	r.Use(utils.GinRecovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	authController := controllers.NewAuthController(db, deps.Tokens, deps.Google)
	postController := controllers.NewPostController(db, deps.Cache)
	commentController := controllers.NewCommentController(db, deps.Cache, deps.Mailer)

	authRequired := middleware.AuthRequired(deps.Tokens)
	optionalAuth := middleware.OptionalAuth(deps.Tokens)
	rateLimited := middleware.RateLimitMiddleware(cfg.RateLimitPerMinute)

	r.GET("/", func(ctx *gin.Context) {
		ctx.String(200, "Hello world")
	})
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/google/webhook", rateLimited, authController.GoogleWebhook)
	r.POST("/post/", authRequired, postController.CreatePost)
	r.GET("/user/post/", authRequired, postController.ListUserPosts)
	r.GET("/post/:id", optionalAuth, postController.GetPost)
	r.POST("/comment", rateLimited, optionalAuth, commentController.CreateComment)
	r.GET("/validate/token/", authRequired, authController.ValidateToken)

	return r
}
