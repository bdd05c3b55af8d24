// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/godfactor/internal/auth"
	"codeberg.org/oliverandrich/godfactor/internal/i18n"
	"codeberg.org/oliverandrich/godfactor/internal/models"
	"github.com/labstack/echo/v4"
)

// PendingTestimonies returns the moderation queue.
func (h *Handlers) PendingTestimonies(c echo.Context) error {
	pending, err := h.moderation.ListPending(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pending)
}

// ApproveResponse confirms an approval.
type ApproveResponse struct {
	Message   string            `json:"message"`
	Testimony *models.Testimony `json:"testimony"`
}

// ApproveTestimony publishes a pending testimony.
func (h *Handlers) ApproveTestimony(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	admin := auth.GetUser(c.Request().Context())
	testimony, err := h.moderation.Approve(c.Request().Context(), id, admin.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ApproveResponse{
		Message:   i18n.T(c.Request().Context(), "moderation.approved"),
		Testimony: testimony,
	})
}

// RejectRequest is the optional request body for a rejection.
type RejectRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// RejectTestimony deletes a pending testimony.
func (h *Handlers) RejectTestimony(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req RejectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	admin := auth.GetUser(c.Request().Context())
	if err := h.moderation.Reject(c.Request().Context(), id, admin.ID, req.Reason); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: i18n.T(c.Request().Context(), "moderation.rejected"),
	})
}
