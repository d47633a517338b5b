package repos

import (
	"testing"
	"time"

	"github.com/tans1/anonymous-feedback-backend/apperror"
	"github.com/tans1/anonymous-feedback-backend/models"
	"github.com/tans1/anonymous-feedback-backend/utils"
)

func TestCreateForPostMissingPostPersistsNothing(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepo(db)

	_, err := repo.CreateForPost("missing-post", "hello", utils.DeriveFingerprint(7))
	if !apperror.IsKind(err, apperror.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Comment{}).Count(&count).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if count != 0 {
		t.Fatalf("no comment may be persisted for a missing post, got %d rows", count)
	}
}

func TestCreateForPostStoresDerivedFingerprint(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice@example.com")
	post := createTestPost(t, db, user.ID, "t")

	repo := NewCommentRepo(db)
	comment, err := repo.CreateForPost(post.ID, "nice", utils.DeriveFingerprint(7))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if comment.Fingerprint != 1000000014 {
		t.Fatalf("fingerprint = %d, want 1000000014", comment.Fingerprint)
	}
	if comment.ID == "" {
		t.Fatalf("expected an opaque id to be assigned")
	}
}

func TestListForPostOrderingAndFilter(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice@example.com")
	post := createTestPost(t, db, user.ID, "t")

	f1 := utils.DeriveFingerprint(7)
	f2 := utils.DeriveFingerprint(8)
	base := time.Now().Add(-time.Hour)
	seed := []models.Comment{
		{PostID: post.ID, Content: "first", Fingerprint: f1, CreatedAt: base},
		{PostID: post.ID, Content: "second", Fingerprint: f2, CreatedAt: base.Add(time.Minute)},
		{PostID: post.ID, Content: "third", Fingerprint: f1, CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed comment: %v", err)
		}
	}

	repo := NewCommentRepo(db)

	all, err := repo.ListForPost(post.ID, nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(all))
	}
	if all[0].Content != "third" || all[2].Content != "first" {
		t.Fatalf("expected newest first, got %q ... %q", all[0].Content, all[2].Content)
	}

	mine, err := repo.ListForPost(post.ID, &f1)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 comments for f1, got %d", len(mine))
	}
	for _, c := range mine {
		if c.Fingerprint != f1 {
			t.Fatalf("filter leaked fingerprint %d", c.Fingerprint)
		}
	}
}
