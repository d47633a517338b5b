package repos

import (
	"gorm.io/gorm"

	"github.com/tans1/anonymous-feedback-backend/apperror"
	"github.com/tans1/anonymous-feedback-backend/models"
)

// PostWithCount is a post row joined with its aggregate comment count.
type PostWithCount struct {
	models.Post
	CommentsCount int64 `gorm:"column:comments_count" json:"commentsCount"`
}

// PostRepo reads and writes posts.
type PostRepo struct {
	db *gorm.DB
}

// NewPostRepo creates a PostRepo bound to the given database handle.
func NewPostRepo(db *gorm.DB) *PostRepo {
	return &PostRepo{db: db}
}

// Create inserts a new post for its author.
func (r *PostRepo) Create(post *models.Post) error {
	if err := r.db.Create(post).Error; err != nil {
		return apperror.Wrap(apperror.StorageError, "failed to create post", err)
	}
	return nil
}

// ListByAuthor returns the author's posts with their comment counts.
// newestFirst orders by creation time descending; otherwise storage order is
// returned as-is.
func (r *PostRepo) ListByAuthor(userID string, newestFirst bool) ([]PostWithCount, error) {
	q := r.db.Model(&models.Post{}).
		Select("posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count").
		Where("posts.user_id = ?", userID)
	if newestFirst {
		q = q.Order("posts.created_at DESC")
	}

	var rows []PostWithCount
	if err := q.Find(&rows).Error; err != nil {
		return nil, apperror.Wrap(apperror.StorageError, "failed to list posts", err)
	}
	return rows, nil
}

// GetByID loads a post with its author and comments, newest comment first.
// A nil fingerprint yields the owner view with every comment; otherwise only
// comments matching the derived fingerprint are included.
func (r *PostRepo) GetByID(id string, fingerprint *int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.Preload("User").First(&post, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.New(apperror.NotFound, "post not found")
		}
		return nil, apperror.Wrap(apperror.StorageError, "failed to load post", err)
	}

	q := r.db.Where("post_id = ?", id)
	if fingerprint != nil {
		q = q.Where("user_fingerprint = ?", *fingerprint)
	}
	if err := q.Order("created_at DESC").Find(&post.Comments).Error; err != nil {
		return nil, apperror.Wrap(apperror.StorageError, "failed to load comments", err)
	}
	return &post, nil
}
