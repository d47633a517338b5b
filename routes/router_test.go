package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tans1/anonymous-feedback-backend/googleauth"
	"github.com/tans1/anonymous-feedback-backend/models"
	"github.com/tans1/anonymous-feedback-backend/utils"
)

type fakeGoogle struct {
	email   string
	subject string
}

func (f fakeGoogle) VerifyCredential(_ context.Context, credential string) (*googleauth.Identity, error) {
	if credential == "bad" {
		return nil, fmt.Errorf("%w: signature mismatch", googleauth.ErrInvalidCredential)
	}
	return &googleauth.Identity{Email: f.email, Subject: f.subject}, nil
}

func setupTestRouter(t *testing.T) (*gin.Engine, *utils.TokenService) {
	t.Helper()
	t.Setenv("GIN_MODE", "test")

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens := utils.NewTokenService("test-secret", 0)
	r := SetupRouter(db, Deps{
		Tokens: tokens,
		Google: fakeGoogle{email: "owner@example.com", subject: "g-123"},
		Mailer: nil, // mail is best-effort and disabled in tests
		Cache:  utils.NewCacheWithClient(client),
	})
	return r, tokens
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func asObject(t *testing.T, v any) map[string]any {
	t.Helper()
	obj, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected JSON object, got %T", v)
	}
	return obj
}

func asArray(t *testing.T, v any) []any {
	t.Helper()
	arr, ok := v.([]any)
	if !ok {
		t.Fatalf("expected JSON array, got %T", v)
	}
	return arr
}

func TestGoogleWebhook(t *testing.T) {
	r, tokens := setupTestRouter(t)

	t.Run("missing credential", func(t *testing.T) {
		w, body := doJSON(t, r, http.MethodPost, "/google/webhook", "", gin.H{"user_fingerprint": "42"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if asObject(t, body)["error"] != "No credential provided" {
			t.Fatalf("body = %v", body)
		}
	})

	t.Run("invalid google token", func(t *testing.T) {
		w, _ := doJSON(t, r, http.MethodPost, "/google/webhook", "", gin.H{"credential": "bad", "user_fingerprint": "42"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})

	t.Run("idempotent on email", func(t *testing.T) {
		w1, body1 := doJSON(t, r, http.MethodPost, "/google/webhook", "", gin.H{"credential": "ok", "user_fingerprint": "42"})
		w2, body2 := doJSON(t, r, http.MethodPost, "/google/webhook", "", gin.H{"credential": "ok", "user_fingerprint": "43"})
		if w1.Code != http.StatusOK || w2.Code != http.StatusOK {
			t.Fatalf("statuses = %d, %d", w1.Code, w2.Code)
		}
		token1, _ := asObject(t, body1)["token"].(string)
		token2, _ := asObject(t, body2)["token"].(string)
		if token1 == "" || token2 == "" {
			t.Fatalf("expected tokens in both responses")
		}

		user1, valid := tokens.Verify(token1)
		if !valid {
			t.Fatalf("token1 must verify")
		}
		user2, valid := tokens.Verify(token2)
		if !valid {
			t.Fatalf("token2 must verify")
		}
		if user1 != user2 {
			t.Fatalf("same email produced different users: %q vs %q", user1, user2)
		}
	})
}

func TestAnonymousFeedbackFlow(t *testing.T) {
	r, _ := setupTestRouter(t)

	// Sign in with fingerprint seed 42.
	w, body := doJSON(t, r, http.MethodPost, "/google/webhook", "", gin.H{"credential": "ok", "user_fingerprint": "42"})
	if w.Code != http.StatusOK {
		t.Fatalf("webhook status = %d", w.Code)
	}
	ownerToken, _ := asObject(t, body)["token"].(string)
	if ownerToken == "" {
		t.Fatalf("no token issued")
	}

	// Creating a post requires a session token.
	w, _ = doJSON(t, r, http.MethodPost, "/post/", "", gin.H{"title": "t", "content": "c"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create status = %d, want 401", w.Code)
	}

	w, body = doJSON(t, r, http.MethodPost, "/post/", ownerToken, gin.H{"title": "t", "content": "c"})
	if w.Code != http.StatusOK {
		t.Fatalf("create post status = %d (body %v)", w.Code, body)
	}
	posts := asArray(t, body)
	if len(posts) != 1 {
		t.Fatalf("expected the rejected create to persist nothing; list has %d posts", len(posts))
	}
	created := asObject(t, posts[0])
	if created["title"] != "t" || created["commentsCount"] != float64(0) {
		t.Fatalf("created post = %v", created)
	}
	postID, _ := created["id"].(string)
	if postID == "" {
		t.Fatalf("post id missing")
	}

	// Anonymous comment with seed 7, no token.
	w, body = doJSON(t, r, http.MethodPost, "/comment", "", gin.H{"postId": postID, "content": "nice", "user_fingerprint": "7"})
	if w.Code != http.StatusCreated {
		t.Fatalf("comment status = %d (body %v)", w.Code, body)
	}
	comments := asArray(t, asObject(t, body)["comments"])
	if len(comments) != 1 {
		t.Fatalf("commenter view = %d comments, want only its own", len(comments))
	}
	if fp := asObject(t, comments[0])["user_fingerprint"]; fp != "1000000014" {
		t.Fatalf("user_fingerprint = %v, want \"1000000014\"", fp)
	}

	// Second anonymous commenter with a different seed sees only itself.
	w, body = doJSON(t, r, http.MethodPost, "/comment", "", gin.H{"postId": postID, "content": "meh", "user_fingerprint": "8"})
	if w.Code != http.StatusCreated {
		t.Fatalf("second comment status = %d", w.Code)
	}
	if got := asArray(t, asObject(t, body)["comments"]); len(got) != 1 {
		t.Fatalf("second commenter sees %d comments, want 1", len(got))
	}

	// Anonymous read with seed 7 sees exactly its own comment.
	w, body = doJSON(t, r, http.MethodGet, "/post/"+postID+"?user_fingerprint=7", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anon read status = %d", w.Code)
	}
	anonView := asArray(t, asObject(t, body)["comments"])
	if len(anonView) != 1 {
		t.Fatalf("anon view = %d comments, want 1", len(anonView))
	}
	if asObject(t, anonView[0])["content"] != "nice" {
		t.Fatalf("anon view comment = %v", anonView[0])
	}

	// Owner view exposes every comment and the author.
	w, body = doJSON(t, r, http.MethodGet, "/post/"+postID, ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("owner read status = %d", w.Code)
	}
	detail := asObject(t, body)
	if got := asArray(t, detail["comments"]); len(got) != 2 {
		t.Fatalf("owner view = %d comments, want 2", len(got))
	}
	if asObject(t, detail["created_by"])["email"] != "owner@example.com" {
		t.Fatalf("created_by = %v", detail["created_by"])
	}

	// The cached post listing was invalidated by the comments.
	w, body = doJSON(t, r, http.MethodGet, "/user/post/", ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	listed := asObject(t, asArray(t, body)[0])
	if listed["commentsCount"] != float64(2) {
		t.Fatalf("commentsCount = %v, want 2", listed["commentsCount"])
	}

	// Listing twice returns the cached bytes unchanged.
	w2, body2 := doJSON(t, r, http.MethodGet, "/user/post/", ownerToken, nil)
	if w2.Code != http.StatusOK {
		t.Fatalf("cached list status = %d", w2.Code)
	}
	if fmt.Sprint(body2) != fmt.Sprint(body) {
		t.Fatalf("cached listing diverged: %v vs %v", body2, body)
	}
}

func TestRootAndHealth(t *testing.T) {
	r, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "Hello world" {
		t.Fatalf("root = %d %q", w.Code, w.Body.String())
	}

	w, body := doJSON(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || asObject(t, body)["status"] != "ok" {
		t.Fatalf("health = %d %v", w.Code, body)
	}
}

func TestNotFoundAndValidate(t *testing.T) {
	r, _ := setupTestRouter(t)

	w, body := doJSON(t, r, http.MethodPost, "/google/webhook", "", gin.H{"credential": "ok", "user_fingerprint": "42"})
	if w.Code != http.StatusOK {
		t.Fatalf("webhook status = %d", w.Code)
	}
	token, _ := asObject(t, body)["token"].(string)

	w, _ = doJSON(t, r, http.MethodGet, "/post/does-not-exist", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing post status = %d, want 404", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/comment", "", gin.H{"postId": "does-not-exist", "content": "x", "user_fingerprint": "7"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("comment on missing post status = %d, want 404", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/validate/token/", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("validate status = %d, want 200", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodGet, "/validate/token/", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("validate without token status = %d, want 401", w.Code)
	}
}
