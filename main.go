package main

import (
	"github.com/tans1/anonymous-feedback-backend/config"
	"github.com/tans1/anonymous-feedback-backend/googleauth"
	"github.com/tans1/anonymous-feedback-backend/models"
	"github.com/tans1/anonymous-feedback-backend/routes"
	"github.com/tans1/anonymous-feedback-backend/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	if cfg.JWTSecret == "" {
		utils.Sugar.Fatal("JWT_KEY must be set in environment variables")
	}

	db := config.InitDatabase(&models.User{}, &models.Post{}, &models.Comment{})

	deps := routes.Deps{
		Tokens: utils.NewTokenService(cfg.JWTSecret, utils.SessionTokenTTL),
		Google: googleauth.NewVerifier(googleauth.Config{ClientID: cfg.GoogleClientID}),
		Mailer: utils.NewMailer(cfg),
		Cache:  utils.NewCache(cfg),
	}

	r := routes.SetupRouter(db, deps)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}

	// Drain process-lifetime clients before exiting 0.
	if err := deps.Cache.Close(); err != nil {
		utils.Sugar.Warnf("closing redis client: %v", err)
	}
	if err := config.CloseDatabase(db); err != nil {
		utils.Sugar.Errorf("closing database: %v", err)
	} else {
		utils.Sugar.Info("database connection drained")
	}
}
