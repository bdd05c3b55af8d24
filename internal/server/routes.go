// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"codeberg.org/oliverandrich/godfactor/internal/config"
	"codeberg.org/oliverandrich/godfactor/internal/handlers"
	"github.com/labstack/echo/v4"
)

type routeDeps struct {
	cfg     *config.Config
	handler *handlers.Handlers
	auth    *handlers.AuthHandlers
}

func setupRoutes(e *echo.Echo, d routeDeps) {
	h := d.handler

	e.GET("/health", h.Health)

	api := e.Group("/api")

	// Auth
	limited := rateLimit(d.cfg.Auth.RateLimit)
	api.POST("/auth/signup", d.auth.Signup, limited)
	api.POST("/auth/login", d.auth.Login, limited)
	api.POST("/auth/logout", d.auth.Logout)
	api.GET("/auth/status", d.auth.Status, requireAuth())

	// Public reads
	api.GET("/devotionals/today", h.TodayDevotional)
	api.GET("/devotionals", h.ListDevotionals)
	api.GET("/posts", h.ListPosts)
	api.GET("/posts/:id/responses", h.PostResponses)
	api.GET("/prayers", h.ListPrayers)
	api.GET("/testimonies/approved", h.ListApprovedTestimonies)

	// Authenticated writes. Middleware is attached per route: group
	// middleware would also claim unknown paths under /api.
	authed := requireAuth()
	api.POST("/posts", h.CreatePost, authed)
	api.POST("/posts/:id/respond", h.Respond, authed)
	api.POST("/prayers", h.CreatePrayer, authed)
	api.POST("/prayers/:id/pray", h.Pray, authed)
	api.POST("/testimonies", h.CreateTestimony, authed)

	// Admin
	adminOnly := requireAdmin()
	api.POST("/devotionals", h.CreateDevotional, authed, adminOnly)
	api.GET("/admin/testimonies/pending", h.PendingTestimonies, authed, adminOnly)
	api.POST("/admin/testimonies/:id/approve", h.ApproveTestimony, authed, adminOnly)
	api.POST("/admin/testimonies/:id/reject", h.RejectTestimony, authed, adminOnly)
}
