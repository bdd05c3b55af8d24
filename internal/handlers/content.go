// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/godfactor/internal/auth"
	"codeberg.org/oliverandrich/godfactor/internal/models"
	"github.com/labstack/echo/v4"
)

// TodayDevotional returns today's devotional, or the most recent one.
func (h *Handlers) TodayDevotional(c echo.Context) error {
	today := h.now().UTC().Format(models.DateLayout)
	d, err := h.repo.GetDevotionalForDate(c.Request().Context(), today)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// ListDevotionals returns the latest devotionals.
func (h *Handlers) ListDevotionals(c echo.Context) error {
	list, err := h.repo.ListDevotionals(c.Request().Context(), devotionalListLimit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// DevotionalRequest is the request body for creating a devotional.
type DevotionalRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Scripture  string `json:"scripture" validate:"required,max=500"`
	Reflection string `json:"reflection" validate:"required"`
	Prayer     string `json:"prayer" validate:"required"`
	ActionStep string `json:"action_step" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
}

// CreateDevotional stores a devotional. Admin only.
func (h *Handlers) CreateDevotional(c echo.Context) error {
	var req DevotionalRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	d, err := h.repo.CreateDevotional(c.Request().Context(), &models.Devotional{
		Title:      strings.TrimSpace(req.Title),
		Scripture:  strings.TrimSpace(req.Scripture),
		Reflection: req.Reflection,
		Prayer:     req.Prayer,
		ActionStep: req.ActionStep,
		Date:       req.Date,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// ListPosts returns the newest posts. Authors of anonymous posts are hidden.
func (h *Handlers) ListPosts(c echo.Context) error {
	posts, err := h.repo.ListRecentPosts(c.Request().Context(), postListLimit)
	if err != nil {
		return err
	}
	for i := range posts {
		if posts[i].Anonymous {
			posts[i].UserID = 0
			posts[i].UserName = ""
		}
	}
	return c.JSON(http.StatusOK, posts)
}

// PostRequest is the request body for creating a post.
type PostRequest struct {
	Content   string `json:"content" validate:"required,max=500"`
	Anonymous bool   `json:"anonymous"`
}

// CreatePost stores a post by the authenticated user.
func (h *Handlers) CreatePost(c echo.Context) error {
	var req PostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return blankField("content")
	}

	user := auth.GetUser(c.Request().Context())
	post, err := h.repo.CreatePost(c.Request().Context(), user.ID, content, req.Anonymous)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// ListPrayers returns the newest unanswered prayer requests.
func (h *Handlers) ListPrayers(c echo.Context) error {
	prayers, err := h.repo.ListOpenPrayers(c.Request().Context(), prayerListLimit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prayers)
}

// PrayerRequest is the request body for creating a prayer request.
type PrayerRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// CreatePrayer stores a prayer request by the authenticated user.
func (h *Handlers) CreatePrayer(c echo.Context) error {
	var req PrayerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return blankField("content")
	}

	user := auth.GetUser(c.Request().Context())
	prayer, err := h.repo.CreatePrayer(c.Request().Context(), user.ID, content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prayer)
}

// ListApprovedTestimonies returns the latest approved testimonies.
func (h *Handlers) ListApprovedTestimonies(c echo.Context) error {
	testimonies, err := h.repo.ListApprovedTestimonies(c.Request().Context(), testimonyListLimit)
	if err != nil {
		return err
	}
	for i := range testimonies {
		if testimonies[i].Anonymous {
			testimonies[i].UserID = 0
			testimonies[i].UserName = ""
		}
		testimonies[i].ApprovedBy = nil
	}
	return c.JSON(http.StatusOK, testimonies)
}

// TestimonyRequest is the request body for submitting a testimony.
type TestimonyRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	Content   string `json:"content" validate:"required,max=5000"`
	Category  string `json:"category" validate:"required,testimony_category"`
	Anonymous bool   `json:"anonymous"`
}

// CreateTestimony submits a testimony for moderation.
func (h *Handlers) CreateTestimony(c echo.Context) error {
	var req TestimonyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	title, content := strings.TrimSpace(req.Title), strings.TrimSpace(req.Content)
	if title == "" {
		return blankField("title")
	}
	if content == "" {
		return blankField("content")
	}

	user := auth.GetUser(c.Request().Context())
	testimony, err := h.repo.CreateTestimony(c.Request().Context(), &models.Testimony{
		UserID:    user.ID,
		Title:     title,
		Content:   content,
		Category:  models.Category(req.Category),
		Anonymous: req.Anonymous,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, testimony)
}

func blankField(name string) *APIError {
	return &APIError{
		Status:    http.StatusBadRequest,
		Code:      CodeValidation,
		MessageID: "error.validation",
		Fields:    map[string]string{name: "required"},
	}
}
