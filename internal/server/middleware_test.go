// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/oliverandrich/godfactor/internal/auth"
	"codeberg.org/oliverandrich/godfactor/internal/config"
	"codeberg.org/oliverandrich/godfactor/internal/handlers"
	"codeberg.org/oliverandrich/godfactor/internal/i18n"
	"codeberg.org/oliverandrich/godfactor/internal/models"
	authsvc "codeberg.org/oliverandrich/godfactor/internal/services/auth"
	"codeberg.org/oliverandrich/godfactor/internal/services/session"
	"codeberg.org/oliverandrich/godfactor/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessions(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(&config.SessionConfig{
		CookieName: "session_token",
		MaxAge:     2592000,
		Secret:     "middleware-test-secret",
	})
	require.NoError(t, err)
	return m
}

// whoami echoes the user resolved by loadUser.
func whoami(c echo.Context) error {
	if user := auth.GetUser(c.Request().Context()); user != nil {
		return c.String(http.StatusOK, user.Name)
	}
	return c.String(http.StatusOK, "anonymous")
}

func TestI18nMiddleware(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "en"},
		{"de-DE,de;q=0.9", "de"},
		{"en-US", "en"},
		{"fr-FR", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			e := echo.New()
			e.Use(i18nMiddleware())
			e.GET("/", func(c echo.Context) error {
				return c.String(http.StatusOK, i18n.GetLocale(c.Request().Context()))
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Language", tt.header)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestLoadUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	sessions := newSessions(t)
	users := authsvc.NewService(repo, &config.AuthConfig{MinPasswordLength: 6})

	valid, err := sessions.Issue(user.ID)
	require.NoError(t, err)
	unknown, err := sessions.Issue(9999)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"no cookie", "", "anonymous"},
		{"valid token", valid, "Ann"},
		{"garbage token", "not-a-token", "anonymous"},
		{"unknown user", unknown, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(loadUser(sessions, users))
			e.GET("/", whoami)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.AddCookie(sessions.Cookie(tt.token))
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestLoadUser_StoreFailure(t *testing.T) {
	db, repo := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	sessions := newSessions(t)
	users := authsvc.NewService(repo, &config.AuthConfig{MinPasswordLength: 6})
	token, err := sessions.Issue(user.ID)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	e := echo.New()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler
	e.Use(loadUser(sessions, users))
	e.GET("/public", whoami)
	e.GET("/private", whoami, requireAuth())

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.AddCookie(sessions.Cookie(token))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(sessions.Cookie(token))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func runGuard(t *testing.T, user *models.User, mw ...echo.MiddlewareFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if user != nil {
		req = req.WithContext(auth.WithUser(context.Background(), user))
	}
	c := e.NewContext(req, httptest.NewRecorder())

	h := whoami
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h(c)
}

func TestRequireAuth(t *testing.T) {
	err := runGuard(t, nil, requireAuth())
	assert.ErrorIs(t, err, handlers.ErrUnauthenticated)

	err = runGuard(t, &models.User{ID: 1, Name: "Ann", Role: models.RoleBeliever}, requireAuth())
	assert.NoError(t, err)
}

func TestRequireAdmin(t *testing.T) {
	believer := &models.User{ID: 1, Role: models.RoleBeliever}
	admin := &models.User{ID: 2, Role: models.RoleAdmin}

	assert.ErrorIs(t, runGuard(t, nil, requireAuth(), requireAdmin()), handlers.ErrUnauthenticated)
	assert.ErrorIs(t, runGuard(t, believer, requireAuth(), requireAdmin()), handlers.ErrForbidden)
	assert.NoError(t, runGuard(t, admin, requireAuth(), requireAdmin()))
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler
	e.POST("/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, rateLimit(0.001))

	codes := make([]int, 0, rateLimitBurst+1)
	for range rateLimitBurst + 1 {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	for _, code := range codes[:rateLimitBurst] {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, http.StatusTooManyRequests, codes[rateLimitBurst])

	// Other clients are unaffected.
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	e := echo.New()
	e.POST("/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, rateLimit(0))

	for range rateLimitBurst * 3 {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestNewLogHandler(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(newLogHandler(&buf, "info", "json"))

		logger.Debug("hidden")
		logger.Info("prayer_registered", "prayer_id", 7)

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `"msg":"prayer_registered"`)
		assert.Contains(t, buf.String(), `"prayer_id":7`)
	})

	t.Run("text with debug level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(newLogHandler(&buf, "debug", "text"))

		logger.Debug("session_invalid")

		assert.Contains(t, buf.String(), "session_invalid")
	})

	t.Run("error level drops warnings", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(newLogHandler(&buf, "error", "json"))

		logger.Warn("rate_limited")
		logger.Error("request_failed", "error", errors.New("boom"))

		assert.NotContains(t, buf.String(), "rate_limited")
		assert.Contains(t, buf.String(), "request_failed")
	})
}
