package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"sitehub/internal/config"
	"sitehub/internal/database"
	"sitehub/internal/mail"
	"sitehub/internal/models"
	"sitehub/internal/service"
	"sitehub/internal/tokens"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mailbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *mailbox) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

var linkPattern = regexp.MustCompile(`http://sitehub\.test(/[a-z-]+/[A-Za-z0-9_-]+/[A-Za-z0-9_.-]+/)`)

// lastLink returns the site path of the link in the most recent mail.
func (m *mailbox) lastLink(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail was sent")
	match := linkPattern.FindStringSubmatch(m.sent[len(m.sent)-1].Body)
	require.Len(t, match, 2, "no link in mail body")
	return match[1]
}

type testEnv struct {
	srv  *Server
	app  *fiber.App
	mail *mailbox
}

func newTestEnv(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Env:          "test",
		JWTSecret:    "test_secret",
		SiteURL:      "http://sitehub.test",
		DBDriver:     database.DriverSQLite,
		DBSQLitePath: filepath.Join(dir, "server.db"),
		UploadDir:    filepath.Join(dir, "media"),
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	box := &mailbox{}
	srv.mailer = box
	srv.initServices()

	return &testEnv{srv: srv, app: srv.NewApp(), mail: box}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(t, req)
}

func (e *testEnv) doForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req)
}

// createUser stores an active account directly and returns a session token for it.
func (e *testEnv) createUser(t *testing.T, username string, staff bool) (*models.User, string) {
	t.Helper()
	hash, err := service.HashPassword("s3cret-pass")
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
		IsActive: true,
		IsStaff:  staff,
	}
	require.NoError(t, e.srv.userRepo.Create(context.Background(), user))
	token, _, err := e.srv.signer.IssueSession(user, tokens.SessionTTL)
	require.NoError(t, err)
	return user, token
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "disabled", body.Checks["redis"])
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/about/", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestContactSubmission(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	t.Run("valid form is stored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/contact/", strings.NewReader(url.Values{
			"name":    {"Ann"},
			"email":   {"a@b.com"},
			"message": {"Hello there"},
		}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		resp := env.do(t, req)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var res service.ContactResult
		decode(t, resp, &res)
		assert.True(t, res.Success)
		assert.NotEmpty(t, res.Message)
	})

	t.Run("missing message writes nothing", func(t *testing.T) {
		before, err := env.srv.contactRepo.Count(ctx)
		require.NoError(t, err)

		resp := env.doJSON(t, http.MethodPost, "/contact/", map[string]string{
			"name":  "Ann",
			"email": "a@b.com",
		}, "")
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var res service.ContactResult
		decode(t, resp, &res)
		assert.False(t, res.Success)
		assert.Contains(t, res.Errors, "message")

		after, err := env.srv.contactRepo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("unparseable body keeps the contact shape", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/contact/", strings.NewReader(`{"name": "Ann",`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		resp := env.do(t, req)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var raw map[string]any
		decode(t, resp, &raw)
		assert.Equal(t, false, raw["success"])
		assert.NotContains(t, raw, "code")
		errs, ok := raw["errors"].(map[string]any)
		require.True(t, ok, "errors object missing: %v", raw)
		assert.Contains(t, errs, models.NonFieldKey)
	})
}

func TestContactSubmissionsRequireStaff(t *testing.T) {
	env := newTestEnv(t, nil)
	_, userToken := env.createUser(t, "plainuser", false)
	_, staffToken := env.createUser(t, "staffer", true)

	resp := env.doJSON(t, http.MethodGet, "/api/contact", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.doJSON(t, http.MethodGet, "/api/contact", nil, userToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.doJSON(t, http.MethodGet, "/api/contact?page_size=500", nil, staffToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page models.Page[models.ContactSubmission]
	decode(t, resp, &page)
	assert.Equal(t, maxSubmissionPageSize, page.Size)
	assert.Empty(t, page.Items)
}

func TestAccountLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	env := newTestEnv(t, rdb)

	resp := env.doJSON(t, http.MethodPost, "/accounts/register/", map[string]string{
		"username":  "alice",
		"email":     "alice@example.com",
		"password1": "s3cret-pass",
		"password2": "s3cret-pass",
	}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	login := map[string]string{"username": "alice", "password": "s3cret-pass"}
	resp = env.doJSON(t, http.MethodPost, "/accounts/login/", login, "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "inactive accounts cannot log in")

	resp = env.doJSON(t, http.MethodGet, env.mail.lastLink(t), nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPost, "/accounts/login/", login, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var session struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, resp, &session)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, "alice", session.User.Username)

	resp = env.doJSON(t, http.MethodPut, "/api/profile", map[string]string{"bio": "Hi"}, session.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var view service.ProfileView
	decode(t, resp, &view)
	assert.Equal(t, "Hi", view.Profile.Bio)

	resp = env.doJSON(t, http.MethodPost, "/accounts/logout/", nil, session.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.doJSON(t, http.MethodGet, "/api/profile", nil, session.Token)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "revoked sessions are refused")
}

func TestActivationLinkRejectsGarbage(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/activate/zzz/not-a-token/", nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "invalid or has expired")
}

func TestLoginPage(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "bobby", false)

	t.Run("bad credentials show the form again", func(t *testing.T) {
		resp := env.doForm(t, "/accounts/login/", url.Values{"username": {"bobby"}, "password": {"wrong"}})
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		body := bodyString(t, resp)
		assert.Contains(t, body, "Invalid username or password")
		assert.Contains(t, body, `value="bobby"`)
	})

	t.Run("success sets the cookie and follows next", func(t *testing.T) {
		resp := env.doForm(t, "/accounts/login/?next=/store/", url.Values{"username": {"bobby"}, "password": {"s3cret-pass"}})
		require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/store/", resp.Header.Get("Location"))
		assert.Contains(t, resp.Header.Get("Set-Cookie"), sessionCookie+"=")
	})

	t.Run("offsite next is ignored", func(t *testing.T) {
		resp := env.doForm(t, "/accounts/login/?next=//evil.example", url.Values{"username": {"bobby"}, "password": {"s3cret-pass"}})
		require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/profile/", resp.Header.Get("Location"))
	})
}

func TestProfilePageRedirectsAnonymous(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/profile/", nil))
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/accounts/login/?next=%2Fprofile%2F", resp.Header.Get("Location"))

	_, token := env.createUser(t, "carla", false)
	req := httptest.NewRequest(http.MethodGet, "/profile/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	resp = env.do(t, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "carla")
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "dave", false)

	resp := env.doForm(t, "/request-reset-password/", url.Values{"email": {"dave@example.com"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	link := env.mail.lastLink(t)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, link, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.doForm(t, link, url.Values{"new_password": {"short"}, "confirm_new_password": {"short"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.doForm(t, link, url.Values{"new_password": {"n3w-password"}, "confirm_new_password": {"n3w-password"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.doForm(t, link, url.Values{"new_password": {"n3w-password"}, "confirm_new_password": {"n3w-password"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "reset links work once")

	resp = env.doJSON(t, http.MethodPost, "/accounts/login/", map[string]string{"username": "dave", "password": "n3w-password"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestEmailChangeFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	user, token := env.createUser(t, "erin", false)

	resp := env.doJSON(t, http.MethodPost, "/change-email/", map[string]string{
		"new_email":     "erin@new.example",
		"confirm_email": "erin@other.example",
	}, token)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPost, "/change-email/", map[string]string{
		"new_email":     "erin@new.example",
		"confirm_email": "erin@new.example",
	}, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.doJSON(t, http.MethodGet, env.mail.lastLink(t), nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	updated, err := env.srv.userRepo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "erin@new.example", updated.Email)
}

func TestBlogEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	_, userToken := env.createUser(t, "reader", false)
	_, staffToken := env.createUser(t, "editor", true)

	post := map[string]any{"title": "Hello World", "content": "First post", "status": "published"}

	resp := env.doJSON(t, http.MethodPost, "/api/blogs", post, userToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPost, "/api/blogs", post, staffToken)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created models.Blog
	decode(t, resp, &created)
	assert.Equal(t, "hello-world", created.Slug)

	resp = env.doJSON(t, http.MethodPost, "/api/blogs", post, staffToken)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = env.doJSON(t, http.MethodGet, "/api/blogs?search=FIRST", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listing service.BlogListing
	decode(t, resp, &listing)
	require.Len(t, listing.Page.Items, 1)
	assert.Equal(t, "Hello World", listing.Page.Items[0].Title)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/blogs/hello-world/", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "Hello World")

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/blogs/missing/", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.doJSON(t, http.MethodDelete, "/api/blogs/abc", nil, staffToken)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCategoryEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	_, staffToken := env.createUser(t, "editor", true)

	resp := env.doJSON(t, http.MethodPost, "/api/categories", map[string]string{"name": "Go Tips"}, staffToken)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var category models.Category
	decode(t, resp, &category)
	assert.Equal(t, "go-tips", category.Slug)

	resp = env.doJSON(t, http.MethodGet, "/api/categories", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var categories []models.Category
	decode(t, resp, &categories)
	assert.Len(t, categories, 1)
}

func TestStoreEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	_, staffToken := env.createUser(t, "manager", true)

	resp := env.doJSON(t, http.MethodPost, "/api/products", map[string]string{
		"title":         "Blue Mug",
		"category":      "Kitchen",
		"marked_price":  "12.00",
		"selling_price": "9.50",
	}, staffToken)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.doJSON(t, http.MethodGet, "/api/products/blue-mug", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var product models.Product
	decode(t, resp, &product)
	assert.Equal(t, "Blue Mug", product.Title)

	resp = env.doJSON(t, http.MethodGet, "/api/products/categories", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var categories []string
	decode(t, resp, &categories)
	assert.Equal(t, []string{"Kitchen"}, categories)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/store/?category=Kitchen", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "Blue Mug")

	resp = env.doJSON(t, http.MethodPost, "/api/store/register", map[string]string{
		"username":  "carol",
		"email":     "carol@example.com",
		"password":  "s3cret-pass",
		"full_name": "Carol C",
	}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var account struct {
		Token string `json:"token"`
	}
	decode(t, resp, &account)
	require.NotEmpty(t, account.Token)

	resp = env.doJSON(t, http.MethodPost, "/api/store/checkout", map[string]string{
		"ordered_by":       "Carol",
		"shipping_address": "1 Main St",
		"mobile":           "5551234",
	}, account.Token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var order models.Order
	decode(t, resp, &order)

	resp = env.doJSON(t, http.MethodGet, "/api/store/orders", nil, account.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var orders models.Page[models.Order]
	decode(t, resp, &orders)
	assert.EqualValues(t, 1, orders.TotalCount)

	// Staff accounts have no customer record.
	resp = env.doJSON(t, http.MethodGet, "/api/store/orders", nil, staffToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.doJSON(t, http.MethodGet, "/api/store/orders/"+strconv.FormatUint(uint64(order.ID), 10), nil, account.Token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUnknownPageRendersNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
