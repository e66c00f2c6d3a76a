package main

import (
	"github.com/gin-gonic/gin"

	"github.com/PKartavkin/slack-bot/internal/config"
	"github.com/PKartavkin/slack-bot/internal/middleware"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	// Health check
	r.GET("/health", svc.health.CheckHealth)

	// Slack events, behind a per-IP flood guard
	eventsLimiter := middleware.NewRateLimiter(cfg.RateLimit.EndpointRPS, cfg.RateLimit.EndpointBurst)
	events := r.Group("", eventsLimiter.Middleware())
	{
		events.POST("/slack/events", svc.slackHandler.Events)
	}

	// Admin API
	passwordHash, err := middleware.HashPassword(cfg.Admin.Password)
	if err != nil {
		logger.Fatalf("Failed to hash admin password: %v", err)
	}
	admin := r.Group("/api/admin", middleware.BasicAuth(cfg.Admin.Username, passwordHash))
	{
		admin.GET("/orgs", svc.adminHandler.ListOrgs)
	}
}
