package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tans1/anonymous-feedback-backend/utils"
)

// ContextUserIDKey is the key used to store the authenticated user ID in the
// Gin context.
const ContextUserIDKey = "user_id"

// AuthRequired ensures the request carries a valid bearer session token.
func AuthRequired(tokens *utils.TokenService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: No token provided"})
			return
		}

		userID, valid := tokens.Verify(token)
		if !valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: Token"})
			return
		}

		ctx.Set(ContextUserIDKey, userID)
		ctx.Next()
	}
}

// OptionalAuth records the caller's identity when a valid bearer token is
// present but never rejects the request. Endpoints serving anonymous clients
// use it to switch between owner view and fingerprint-filtered view.
func OptionalAuth(tokens *utils.TokenService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token, ok := bearerToken(ctx); ok {
			if userID, valid := tokens.Verify(token); valid {
				ctx.Set(ContextUserIDKey, userID)
			}
		}
		ctx.Next()
	}
}

// UserID returns the authenticated user ID stored by the auth middleware.
func UserID(ctx *gin.Context) (string, bool) {
	v, exists := ctx.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok && userID != ""
}

func bearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
