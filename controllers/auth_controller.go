package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tans1/anonymous-feedback-backend/googleauth"
	"github.com/tans1/anonymous-feedback-backend/repos"
	"github.com/tans1/anonymous-feedback-backend/utils"
)

// AuthController bootstraps sessions from Google credentials and validates
// existing session tokens.
type AuthController struct {
	users  *repos.UserRepo
	tokens *utils.TokenService
	google googleauth.Verifier
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, tokens *utils.TokenService, google googleauth.Verifier) *AuthController {
	return &AuthController{
		users:  repos.NewUserRepo(db),
		tokens: tokens,
		google: google,
	}
}

// GoogleWebhook exchanges a Google ID token for a session token, creating the
// user on first sign-in. Idempotent on the verified email.
func (a *AuthController) GoogleWebhook(ctx *gin.Context) {
	var req struct {
		Credential      string `json:"credential"`
		UserFingerprint string `json:"user_fingerprint"`
	}
	_ = ctx.ShouldBindJSON(&req)

	if req.Credential == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No credential provided"})
		return
	}

	identity, err := a.google.VerifyCredential(ctx.Request.Context(), req.Credential)
	if err != nil {
		if errors.Is(err, googleauth.ErrInvalidCredential) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		utils.Sugar.Errorw("verifying google credential", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify token"})
		return
	}

	seed := utils.ParseFingerprintSeed(req.UserFingerprint)
	user, err := a.users.FindOrCreate(identity.Email, seed)
	if err != nil {
		utils.Sugar.Errorw("persisting user", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify token"})
		return
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		utils.Sugar.Errorw("issuing session token", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify token"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

// ValidateToken confirms the bearer token is still valid. The heavy lifting
// happens in the auth middleware; reaching here means the token verified.
func (a *AuthController) ValidateToken(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "Valid token"})
}
