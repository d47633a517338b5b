package repos

import (
	"gorm.io/gorm"

	"github.com/tans1/anonymous-feedback-backend/apperror"
	"github.com/tans1/anonymous-feedback-backend/models"
)

// CommentRepo writes comments scoped to an existing post.
type CommentRepo struct {
	db *gorm.DB
}

// NewCommentRepo creates a CommentRepo bound to the given database handle.
func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// CreateForPost inserts a comment carrying the already-derived fingerprint.
// The parent post is checked inside the same transaction, so a comment can
// never be persisted against a post that does not exist; the caller still
// observes NotFound for an absent post.
func (r *CommentRepo) CreateForPost(postID, content string, fingerprint int64) (*models.Comment, error) {
	comment := models.Comment{
		PostID:      postID,
		Content:     content,
		Fingerprint: fingerprint,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
			return apperror.Wrap(apperror.StorageError, "failed to check post", err)
		}
		if count == 0 {
			return apperror.New(apperror.NotFound, "post not found")
		}
		if err := tx.Create(&comment).Error; err != nil {
			return apperror.Wrap(apperror.StorageError, "failed to create comment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListForPost returns a post's comments newest first, optionally restricted
// to one fingerprint.
func (r *CommentRepo) ListForPost(postID string, fingerprint *int64) ([]models.Comment, error) {
	q := r.db.Where("post_id = ?", postID)
	if fingerprint != nil {
		q = q.Where("user_fingerprint = ?", *fingerprint)
	}

	var comments []models.Comment
	if err := q.Order("created_at DESC").Find(&comments).Error; err != nil {
		return nil, apperror.Wrap(apperror.StorageError, "failed to list comments", err)
	}
	return comments, nil
}
