package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is attached to a post by an anonymous or authenticated visitor.
// Fingerprint holds the salted value derived from the client seed; comment
// authors are not otherwise identified.
type Comment struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	PostID      string    `gorm:"size:36;index;not null" json:"post_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Fingerprint int64     `gorm:"column:user_fingerprint;index;not null" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
