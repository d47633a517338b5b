package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tans1/anonymous-feedback-backend/utils"
)

func newAuthProbe(tokens *utils.TokenService, required bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var guard gin.HandlerFunc
	if required {
		guard = AuthRequired(tokens)
	} else {
		guard = OptionalAuth(tokens)
	}
	r.GET("/probe", guard, func(ctx *gin.Context) {
		userID, ok := UserID(ctx)
		ctx.JSON(http.StatusOK, gin.H{"user_id": userID, "authed": ok})
	})
	return r
}

func probe(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	tokens := utils.NewTokenService("test-secret", 0)
	r := newAuthProbe(tokens, true)

	token, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := probe(r, tc.header); w.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.status, w.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := utils.NewTokenService("test-secret", 0)
	r := newAuthProbe(tokens, false)

	if w := probe(r, ""); w.Code != http.StatusOK {
		t.Fatalf("anonymous request must pass, got %d", w.Code)
	}
	if w := probe(r, "Bearer garbage"); w.Code != http.StatusOK {
		t.Fatalf("invalid token must still pass, got %d", w.Code)
	}

	token, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	w := probe(r, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token must pass, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, `"user_id":"user-1"`) {
		t.Fatalf("identity not recorded: %s", body)
	}
}
