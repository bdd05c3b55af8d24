// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/godfactor/internal/auth"
	"codeberg.org/oliverandrich/godfactor/internal/i18n"
	"codeberg.org/oliverandrich/godfactor/internal/models"
	authsvc "codeberg.org/oliverandrich/godfactor/internal/services/auth"
	"codeberg.org/oliverandrich/godfactor/internal/services/session"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for authentication.
type AuthHandlers struct {
	auth     *authsvc.Service
	sessions *session.Manager
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(authService *authsvc.Service, sessions *session.Manager) *AuthHandlers {
	return &AuthHandlers{
		auth:     authService,
		sessions: sessions,
	}
}

// SignupRequest is the request body for creating an account.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Signup creates a believer account and starts a session.
func (h *AuthHandlers) Signup(c echo.Context) error {
	var req SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return blankField("name")
	}

	user, err := h.auth.Register(c.Request().Context(), name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return h.startSession(c, user)
}

// Login authenticates with email and password and starts a session.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return h.startSession(c, user)
}

func (h *AuthHandlers) startSession(c echo.Context, user *models.User) error {
	cookie, err := h.sessions.Create(user.ID)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, user)
}

// Logout clears the session cookie. Tokens are stateless, so there is
// nothing to revoke on the server.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	return c.JSON(http.StatusOK, MessageResponse{
		Message: i18n.T(c.Request().Context(), "auth.logged_out"),
	})
}

// Status returns the authenticated user.
func (h *AuthHandlers) Status(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, user)
}
