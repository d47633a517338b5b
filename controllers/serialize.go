package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tans1/anonymous-feedback-backend/models"
	"github.com/tans1/anonymous-feedback-backend/repos"
)

// Fingerprints are stored as integers but always serialized as strings so
// javascript clients never hit precision loss on large values.

func commentJSON(c models.Comment) gin.H {
	return gin.H{
		"id":               c.ID,
		"post_id":          c.PostID,
		"content":          c.Content,
		"user_fingerprint": strconv.FormatInt(c.Fingerprint, 10),
		"created_at":       c.CreatedAt,
	}
}

func userJSON(u models.User) gin.H {
	return gin.H{
		"id":               u.ID,
		"email":            u.Email,
		"user_fingerprint": strconv.FormatInt(u.Fingerprint, 10),
		"created_at":       u.CreatedAt,
	}
}

// postDetailJSON renders a post with its (already filtered) comments and
// author, the shape returned by GET /post/:id and POST /comment.
func postDetailJSON(p *models.Post) gin.H {
	comments := make([]gin.H, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, commentJSON(c))
	}
	return gin.H{
		"id":         p.ID,
		"user_id":    p.UserID,
		"title":      p.Title,
		"content":    p.Content,
		"created_at": p.CreatedAt,
		"comments":   comments,
		"created_by": userJSON(p.User),
	}
}

// postListJSON renders the author's post listing with comment counts.
func postListJSON(rows []repos.PostWithCount) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":            row.ID,
			"user_id":       row.UserID,
			"title":         row.Title,
			"content":       row.Content,
			"created_at":    row.CreatedAt,
			"commentsCount": row.CommentsCount,
		})
	}
	return out
}
