// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the JSON API.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"codeberg.org/oliverandrich/godfactor/internal/repository"
	"codeberg.org/oliverandrich/godfactor/internal/services/ledger"
	"codeberg.org/oliverandrich/godfactor/internal/services/moderation"
	"github.com/labstack/echo/v4"
)

// List sizes.
const (
	devotionalListLimit  = 30
	postListLimit        = 50
	prayerListLimit      = 20
	testimonyListLimit   = 20
	recentReactionsLimit = 20
)

// Handlers contains the content, interaction and moderation handlers.
type Handlers struct {
	repo       *repository.Repository
	ledger     *ledger.Service
	moderation *moderation.Service
	now        func() time.Time
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, ledgerSvc *ledger.Service, moderationSvc *moderation.Service) *Handlers {
	return &Handlers{
		repo:       repo,
		ledger:     ledgerSvc,
		moderation: moderationSvc,
		now:        time.Now,
	}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	if h.repo != nil {
		if err := h.repo.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// MessageResponse is returned by actions without a resource to show.
type MessageResponse struct {
	Message string `json:"message"`
}

// idParam parses the :id path parameter. Malformed IDs are reported as
// not found.
func idParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNotFound
	}
	return id, nil
}
