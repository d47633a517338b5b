package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tans1/anonymous-feedback-backend/apperror"
	"github.com/tans1/anonymous-feedback-backend/middleware"
	"github.com/tans1/anonymous-feedback-backend/repos"
	"github.com/tans1/anonymous-feedback-backend/utils"
)

// CommentController attaches comments to posts. Comment creation requires no
// authentication; anonymity is a feature, not a gap.
type CommentController struct {
	posts    *repos.PostRepo
	comments *repos.CommentRepo
	cache    *utils.Cache
	mailer   *utils.Mailer
}

// NewCommentController creates a CommentController.
func NewCommentController(db *gorm.DB, cache *utils.Cache, mailer *utils.Mailer) *CommentController {
	return &CommentController{
		posts:    repos.NewPostRepo(db),
		comments: repos.NewCommentRepo(db),
		cache:    cache,
		mailer:   mailer,
	}
}

// CreateComment stores a comment under the derived fingerprint, notifies the
// post author by mail, and returns the parent post. Authenticated callers get
// every comment back; anonymous callers only their own fingerprint's.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content         string `json:"content" binding:"required"`
		UserFingerprint string `json:"user_fingerprint"`
		PostID          string `json:"postId" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	fingerprint := utils.DeriveFingerprint(utils.ParseFingerprintSeed(req.UserFingerprint))
	content := utils.Sanitize(req.Content)

	if _, err := c.comments.CreateForPost(req.PostID, content, fingerprint); err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		utils.Sugar.Errorw("creating comment", "error", err, "post_id", req.PostID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating comment"})
		return
	}

	var filter *int64
	if _, authed := middleware.UserID(ctx); !authed {
		filter = &fingerprint
	}

	post, err := c.posts.GetByID(req.PostID, filter)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		utils.Sugar.Errorw("reloading post after comment", "error", err, "post_id", req.PostID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating comment"})
		return
	}

	// Best-effort notification; never blocks the response, failures are
	// logged and discarded.
	if c.mailer.Enabled() {
		go func(to, title, comment string) {
			if err := c.mailer.SendCommentNotification(to, title, comment); err != nil {
				utils.Sugar.Errorw("sending comment notification", "error", err, "to", to)
			}
		}(post.User.Email, post.Title, content)
	}

	c.cache.Invalidate(userPostsCacheKey(post.UserID))

	ctx.JSON(http.StatusCreated, postDetailJSON(post))
}
