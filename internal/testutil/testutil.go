// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"codeberg.org/oliverandrich/godfactor/internal/database"
	"codeberg.org/oliverandrich/godfactor/internal/models"
	"codeberg.org/oliverandrich/godfactor/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the password of every fixture user.
const TestPassword = "secret1"

// TestPasswordHash returns a bcrypt hash of TestPassword at the minimum cost.
var TestPasswordHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
})

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	return openTestDB(t, ":memory:")
}

// NewFileTestDB creates a SQLite database in a temp directory. Unlike the
// in-memory variant it allows several open connections, which concurrency
// tests need.
func NewFileTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	return openTestDB(t, filepath.Join(t.TempDir(), "test.db"))
}

func openTestDB(t *testing.T, dsn string) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, repository.New(db)
}

// NewTestUser creates a believer with a fixed password hash.
func NewTestUser(t *testing.T, repo *repository.Repository, name, email string) *models.User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), name, email, TestPasswordHash(), models.RoleBeliever)
	require.NoError(t, err)
	return user
}

// NewTestAdmin creates an admin with a fixed password hash.
func NewTestAdmin(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), "Admin", email, TestPasswordHash(), models.RoleAdmin)
	require.NoError(t, err)
	return user
}

// NewTestPost creates a post authored by userID.
func NewTestPost(t *testing.T, repo *repository.Repository, userID int64, content string) *models.Post {
	t.Helper()
	post, err := repo.CreatePost(context.Background(), userID, content, false)
	require.NoError(t, err)
	return post
}

// NewTestPrayer creates a prayer request authored by userID.
func NewTestPrayer(t *testing.T, repo *repository.Repository, userID int64, content string) *models.Prayer {
	t.Helper()
	prayer, err := repo.CreatePrayer(context.Background(), userID, content)
	require.NoError(t, err)
	return prayer
}

// NewTestTestimony creates a pending testimony authored by userID.
func NewTestTestimony(t *testing.T, repo *repository.Repository, userID int64, title string) *models.Testimony {
	t.Helper()
	testimony, err := repo.CreateTestimony(context.Background(), &models.Testimony{
		UserID:   userID,
		Title:    title,
		Content:  "God is good.",
		Category: models.CategoryPeace,
	})
	require.NoError(t, err)
	return testimony
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
