package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tans1/anonymous-feedback-backend/apperror"
	"github.com/tans1/anonymous-feedback-backend/middleware"
	"github.com/tans1/anonymous-feedback-backend/models"
	"github.com/tans1/anonymous-feedback-backend/repos"
	"github.com/tans1/anonymous-feedback-backend/utils"
)

// PostController manages post creation and the author/anonymous read paths.
type PostController struct {
	posts *repos.PostRepo
	cache *utils.Cache
}

// NewPostController creates a PostController.
func NewPostController(db *gorm.DB, cache *utils.Cache) *PostController {
	return &PostController{posts: repos.NewPostRepo(db), cache: cache}
}

func userPostsCacheKey(userID string) string {
	return "cache:user:" + userID + ":posts"
}

// CreatePost creates a post for the authenticated user and returns the
// user's full post list with comment counts, newest first.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: No token provided"})
		return
	}

	var req struct {
		Title   string `json:"title" binding:"required,min=1"`
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	post := models.Post{
		UserID:  userID,
		Title:   utils.Sanitize(strings.TrimSpace(req.Title)),
		Content: utils.Sanitize(req.Content),
	}
	if err := p.posts.Create(&post); err != nil {
		utils.Sugar.Errorw("creating post", "error", err, "user_id", userID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating post"})
		return
	}

	p.cache.Invalidate(userPostsCacheKey(userID))

	rows, err := p.posts.ListByAuthor(userID, true)
	if err != nil {
		utils.Sugar.Errorw("listing posts after create", "error", err, "user_id", userID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating post"})
		return
	}

	ctx.JSON(http.StatusOK, postListJSON(rows))
}

// ListUserPosts returns the authenticated user's posts with comment counts.
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: No token provided"})
		return
	}

	cacheKey := userPostsCacheKey(userID)
	if b, hit := p.cache.GetBytes(cacheKey); hit {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	rows, err := p.posts.ListByAuthor(userID, false)
	if err != nil {
		utils.Sugar.Errorw("listing user posts", "error", err, "user_id", userID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching user posts"})
		return
	}

	payload := postListJSON(rows)
	if b, err := json.Marshal(payload); err == nil {
		p.cache.SetBytes(cacheKey, b, 0)
	}
	ctx.JSON(http.StatusOK, payload)
}

// GetPost returns a post with its author and comments. A valid bearer token
// grants the owner view with every comment; anonymous callers only see
// comments matching the fingerprint derived from their query seed.
func (p *PostController) GetPost(ctx *gin.Context) {
	id := ctx.Param("id")

	var filter *int64
	if _, authed := middleware.UserID(ctx); !authed {
		fp := utils.DeriveFingerprint(utils.ParseFingerprintSeed(ctx.Query("user_fingerprint")))
		filter = &fp
	}

	post, err := p.posts.GetByID(id, filter)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		utils.Sugar.Errorw("fetching post", "error", err, "post_id", id)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching post"})
		return
	}

	ctx.JSON(http.StatusOK, postDetailJSON(post))
}
