package repos

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tans1/anonymous-feedback-backend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user, err := NewUserRepo(db).FindOrCreate(email, 42)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, userID, title string) *models.Post {
	t.Helper()
	post := &models.Post{UserID: userID, Title: title, Content: "content"}
	if err := NewPostRepo(db).Create(post); err != nil {
		t.Fatalf("create test post: %v", err)
	}
	return post
}
