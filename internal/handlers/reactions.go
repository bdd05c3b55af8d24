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

// RespondRequest is the request body for responding to a post.
type RespondRequest struct {
	ResponseType string `json:"response_type" validate:"required"`
}

// RespondResponse confirms a recorded post response.
type RespondResponse struct {
	Message      string              `json:"message"`
	ResponseType models.ReactionKind `json:"response_type"`
}

// Respond records the authenticated user's response to a post.
func (h *Handlers) Respond(c echo.Context) error {
	postID, err := idParam(c)
	if err != nil {
		return err
	}

	var req RespondRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user := auth.GetUser(c.Request().Context())
	kind, err := h.ledger.RespondToPost(c.Request().Context(), postID, user.ID, models.ReactionKind(req.ResponseType))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, RespondResponse{
		Message:      i18n.T(c.Request().Context(), "reaction.recorded"),
		ResponseType: kind,
	})
}

// PrayResponse carries the prayer counter after a registration.
type PrayResponse struct {
	Message  string `json:"message"`
	NewCount int64  `json:"new_count"`
}

// Pray registers the authenticated user as praying for a request.
func (h *Handlers) Pray(c echo.Context) error {
	prayerID, err := idParam(c)
	if err != nil {
		return err
	}

	user := auth.GetUser(c.Request().Context())
	count, err := h.ledger.Pray(c.Request().Context(), prayerID, user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PrayResponse{
		Message:  i18n.T(c.Request().Context(), "prayer.recorded"),
		NewCount: count,
	})
}

// PostResponsesResponse summarizes the responses to a post.
type PostResponsesResponse struct {
	Counts map[models.ReactionKind]int64 `json:"counts"`
	Recent []models.Reaction             `json:"recent"`
}

// PostResponses returns response counts per kind and the latest responses.
func (h *Handlers) PostResponses(c echo.Context) error {
	postID, err := idParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if _, err := h.repo.GetPostByID(ctx, postID); err != nil {
		return err
	}

	counts, err := h.ledger.CountReactions(ctx, models.SubjectPost, postID)
	if err != nil {
		return err
	}
	for _, kind := range models.PostReactionKinds {
		if _, ok := counts[kind]; !ok {
			counts[kind] = 0
		}
	}

	recent, err := h.ledger.ListRecentReactions(ctx, models.SubjectPost, postID, recentReactionsLimit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PostResponsesResponse{Counts: counts, Recent: recent})
}
