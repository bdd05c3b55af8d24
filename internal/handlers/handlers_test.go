// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/godfactor/internal/auth"
	"codeberg.org/oliverandrich/godfactor/internal/handlers"
	"codeberg.org/oliverandrich/godfactor/internal/models"
	"codeberg.org/oliverandrich/godfactor/internal/repository"
	"codeberg.org/oliverandrich/godfactor/internal/services/ledger"
	"codeberg.org/oliverandrich/godfactor/internal/services/moderation"
	"codeberg.org/oliverandrich/godfactor/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandlers(t *testing.T) (*handlers.Handlers, *repository.Repository) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	return handlers.New(repo, ledger.NewService(repo), moderation.NewService(repo)), repo
}

// newContext builds a handler context, optionally authenticated and with an
// :id path parameter.
func newContext(e *echo.Echo, method, path string, body io.Reader, user *models.User, id int64) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := testutil.NewEchoContext(e, method, path, body)
	if user != nil {
		c.SetRequest(c.Request().WithContext(auth.WithUser(c.Request().Context(), user)))
	}
	if id != 0 {
		c.SetParamNames("id")
		c.SetParamValues(fmt.Sprint(id))
	}
	return c, rec
}

func TestHealthHandler(t *testing.T) {
	h, _ := newTestHandlers(t)
	e := newTestEcho()

	c, rec := newContext(e, http.MethodGet, "/health", nil, nil, 0)
	require.NoError(t, h.Health(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	db, repo := testutil.NewTestDB(t)
	h := handlers.New(repo, ledger.NewService(repo), moderation.NewService(repo))
	require.NoError(t, db.Close())
	e := newTestEcho()

	c, rec := newContext(e, http.MethodGet, "/health", nil, nil, 0)
	require.NoError(t, h.Health(c))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreatePost(t *testing.T) {
	h, repo := newTestHandlers(t)
	user := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	e := newTestEcho()

	c, rec := newContext(e, http.MethodPost, "/api/posts",
		strings.NewReader(`{"content":"  He is risen  "}`), user, 0)
	require.NoError(t, h.CreatePost(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Equal(t, "He is risen", post.Content)
	assert.Equal(t, user.ID, post.UserID)
}

func TestCreatePost_Invalid(t *testing.T) {
	h, repo := newTestHandlers(t)
	user := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	e := newTestEcho()

	tests := []struct {
		name string
		body string
	}{
		{"empty", `{"content":""}`},
		{"whitespace", `{"content":"   "}`},
		{"too long", fmt.Sprintf(`{"content":%q}`, strings.Repeat("x", 501))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(e, http.MethodPost, "/api/posts", strings.NewReader(tt.body), user, 0)

			err := h.CreatePost(c)
			require.Error(t, err)
			e.HTTPErrorHandler(err, c)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"content"`)
		})
	}

	posts, err := repo.ListRecentPosts(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestListPosts_HidesAnonymousAuthors(t *testing.T) {
	h, repo := newTestHandlers(t)
	user := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	_, err := repo.CreatePost(context.Background(), user.ID, "secret", true)
	require.NoError(t, err)
	testutil.NewTestPost(t, repo, user.ID, "public")
	e := newTestEcho()

	c, rec := newContext(e, http.MethodGet, "/api/posts", nil, nil, 0)
	require.NoError(t, h.ListPosts(c))

	var posts []models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	require.Len(t, posts, 2)
	for _, p := range posts {
		if p.Anonymous {
			assert.Zero(t, p.UserID)
			assert.Empty(t, p.UserName)
		} else {
			assert.Equal(t, "Ann", p.UserName)
		}
	}
}

func TestCreatePrayer(t *testing.T) {
	h, repo := newTestHandlers(t)
	user := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	e := newTestEcho()

	c, rec := newContext(e, http.MethodPost, "/api/prayers",
		strings.NewReader(`{"content":"Healing for my mother"}`), user, 0)
	require.NoError(t, h.CreatePrayer(c))

	var prayer models.Prayer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prayer))
	assert.Equal(t, int64(0), prayer.PrayerCount)
	assert.False(t, prayer.Answered)

	c, rec = newContext(e, http.MethodGet, "/api/prayers", nil, nil, 0)
	require.NoError(t, h.ListPrayers(c))
	assert.Contains(t, rec.Body.String(), "Healing for my mother")
}

func TestCreateTestimony(t *testing.T) {
	h, repo := newTestHandlers(t)
	user := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	e := newTestEcho()

	c, rec := newContext(e, http.MethodPost, "/api/testimonies",
		strings.NewReader(`{"title":"Provision","content":"Rent was paid","category":"provision","anonymous":true}`), user, 0)
	require.NoError(t, h.CreateTestimony(c))

	var testimony models.Testimony
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &testimony))
	assert.Equal(t, models.StatePending, testimony.ApprovalState)
	assert.Equal(t, models.CategoryProvision, testimony.Category)
	assert.True(t, testimony.Anonymous)

	// Pending testimonies are not public.
	c, rec = newContext(e, http.MethodGet, "/api/testimonies/approved", nil, nil, 0)
	require.NoError(t, h.ListApprovedTestimonies(c))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateTestimony_InvalidCategory(t *testing.T) {
	h, repo := newTestHandlers(t)
	user := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	e := newTestEcho()

	c, rec := newContext(e, http.MethodPost, "/api/testimonies",
		strings.NewReader(`{"title":"t","content":"c","category":"luck"}`), user, 0)
	err := h.CreateTestimony(c)
	require.Error(t, err)
	e.HTTPErrorHandler(err, c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"category":"testimony_category"`)
}

func TestListApprovedTestimonies_Redacts(t *testing.T) {
	h, repo := newTestHandlers(t)
	user := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	admin := testutil.NewTestAdmin(t, repo, "admin@x.com")
	ctx := context.Background()
	anon, err := repo.CreateTestimony(ctx, &models.Testimony{
		UserID: user.ID, Title: "Quiet", Content: "c", Category: models.CategoryPeace, Anonymous: true,
	})
	require.NoError(t, err)
	_, err = moderation.NewService(repo).Approve(ctx, anon.ID, admin.ID)
	require.NoError(t, err)
	e := newTestEcho()

	c, rec := newContext(e, http.MethodGet, "/api/testimonies/approved", nil, nil, 0)
	require.NoError(t, h.ListApprovedTestimonies(c))

	var list []models.Testimony
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Zero(t, list[0].UserID)
	assert.Empty(t, list[0].UserName)
	assert.Nil(t, list[0].ApprovedBy)
	assert.NotNil(t, list[0].ApprovedAt)
}

func TestDevotionalHandlers(t *testing.T) {
	h, _ := newTestHandlers(t)
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	e := newTestEcho()

	c, _ := newContext(e, http.MethodGet, "/api/devotionals/today", nil, nil, 0)
	assert.ErrorIs(t, h.TodayDevotional(c), repository.ErrNotFound)

	body := `{"title":"Hope","scripture":"Romans 15:13","reflection":"r","prayer":"p","action_step":"a","date":"2024-12-24"}`
	c, rec := newContext(e, http.MethodPost, "/api/devotionals", strings.NewReader(body), admin, 0)
	require.NoError(t, h.CreateDevotional(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = newContext(e, http.MethodPost, "/api/devotionals", strings.NewReader(body), admin, 0)
	assert.ErrorIs(t, h.CreateDevotional(c), repository.ErrDuplicate)

	c, rec = newContext(e, http.MethodGet, "/api/devotionals/today", nil, nil, 0)
	require.NoError(t, h.TodayDevotional(c))
	assert.Contains(t, rec.Body.String(), `"title":"Hope"`)

	c, rec = newContext(e, http.MethodGet, "/api/devotionals", nil, nil, 0)
	require.NoError(t, h.ListDevotionals(c))
	var list []models.Devotional
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestRespond(t *testing.T) {
	h, repo := newTestHandlers(t)
	user := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	post := testutil.NewTestPost(t, repo, user.ID, "Pray for me")
	e := newTestEcho()

	c, rec := newContext(e, http.MethodPost, "/api/posts/:id/respond",
		strings.NewReader(`{"response_type":"amen"}`), user, post.ID)
	require.NoError(t, h.Respond(c))

	var resp handlers.RespondResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.KindAmen, resp.ResponseType)
	assert.NotEmpty(t, resp.Message)

	c, _ = newContext(e, http.MethodPost, "/api/posts/:id/respond",
		strings.NewReader(`{"response_type":"thankyou"}`), user, post.ID)
	assert.ErrorIs(t, h.Respond(c), ledger.ErrDuplicateInteraction)
}

func TestRespond_BadID(t *testing.T) {
	h, repo := newTestHandlers(t)
	user := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	e := newTestEcho()

	c, _ := newContext(e, http.MethodPost, "/api/posts/:id/respond",
		strings.NewReader(`{"response_type":"amen"}`), user, 0)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	assert.ErrorIs(t, h.Respond(c), handlers.ErrNotFound)
}

func TestPrayHandler(t *testing.T) {
	h, repo := newTestHandlers(t)
	author := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	other := testutil.NewTestUser(t, repo, "Bob", "bob@x.com")
	prayer := testutil.NewTestPrayer(t, repo, author.ID, "Peace")
	e := newTestEcho()

	for i, user := range []*models.User{author, other} {
		c, rec := newContext(e, http.MethodPost, "/api/prayers/:id/pray", nil, user, prayer.ID)
		require.NoError(t, h.Pray(c))

		var resp handlers.PrayResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(i+1), resp.NewCount)
	}
}

func TestPostResponses(t *testing.T) {
	h, repo := newTestHandlers(t)
	ann := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	bob := testutil.NewTestUser(t, repo, "Bob", "bob@x.com")
	post := testutil.NewTestPost(t, repo, ann.ID, "Thanks")
	ledgerSvc := ledger.NewService(repo)
	ctx := context.Background()
	_, err := ledgerSvc.RespondToPost(ctx, post.ID, ann.ID, models.KindAmen)
	require.NoError(t, err)
	_, err = ledgerSvc.RespondToPost(ctx, post.ID, bob.ID, models.KindAmen)
	require.NoError(t, err)
	e := newTestEcho()

	c, rec := newContext(e, http.MethodGet, "/api/posts/:id/responses", nil, nil, post.ID)
	require.NoError(t, h.PostResponses(c))

	var resp handlers.PostResponsesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Counts[models.KindAmen])
	assert.Equal(t, int64(0), resp.Counts[models.KindPraying])
	assert.Equal(t, int64(0), resp.Counts[models.KindThankYou])
	assert.Len(t, resp.Recent, 2)

	c, _ = newContext(e, http.MethodGet, "/api/posts/:id/responses", nil, nil, 999)
	assert.ErrorIs(t, h.PostResponses(c), repository.ErrNotFound)
}

func TestModerationHandlers(t *testing.T) {
	h, repo := newTestHandlers(t)
	author := testutil.NewTestUser(t, repo, "Ann", "ann@x.com")
	admin := testutil.NewTestAdmin(t, repo, "admin@x.com")
	first := testutil.NewTestTestimony(t, repo, author.ID, "First")
	second := testutil.NewTestTestimony(t, repo, author.ID, "Second")
	e := newTestEcho()

	c, rec := newContext(e, http.MethodGet, "/api/admin/testimonies/pending", nil, admin, 0)
	require.NoError(t, h.PendingTestimonies(c))
	var pending []models.Testimony
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	assert.Len(t, pending, 2)

	c, rec = newContext(e, http.MethodPost, "/api/admin/testimonies/:id/approve", nil, admin, first.ID)
	require.NoError(t, h.ApproveTestimony(c))
	var approved handlers.ApproveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approved))
	assert.Equal(t, models.StateApproved, approved.Testimony.ApprovalState)
	require.NotNil(t, approved.Testimony.ApprovedBy)
	assert.Equal(t, admin.ID, *approved.Testimony.ApprovedBy)

	c, _ = newContext(e, http.MethodPost, "/api/admin/testimonies/:id/approve", nil, admin, first.ID)
	assert.ErrorIs(t, h.ApproveTestimony(c), moderation.ErrInvalidTransition)

	c, rec = newContext(e, http.MethodPost, "/api/admin/testimonies/:id/reject",
		strings.NewReader(`{"reason":"duplicate"}`), admin, second.ID)
	require.NoError(t, h.RejectTestimony(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err := repo.GetTestimonyByID(context.Background(), second.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
