package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/fbscheduler/configs"
	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/internal/service"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type postSvc struct {
	service.PostService
	mock.Mock
}

func (m *postSvc) Publish(ctx context.Context, req *transfer.PublishPost) (*service.PublishOutcome, error) {
	args := m.Called(ctx, req)
	o, _ := args.Get(0).(*service.PublishOutcome)
	return o, args.Error(1)
}

func (m *postSvc) Schedule(ctx context.Context, req *transfer.SchedulePost) (*models.Post, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*models.Post)
	return p, args.Error(1)
}

func (m *postSvc) Remove(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type pageSvc struct {
	service.PageService
	mock.Mock
}

func (m *pageSvc) GetPages(ctx context.Context, sessionID *int64, refresh bool) (*transfer.PageListing, error) {
	args := m.Called(ctx, sessionID, refresh)
	l, _ := args.Get(0).(*transfer.PageListing)
	return l, args.Error(1)
}

type sessionSvc struct {
	service.SessionService
	mock.Mock
}

func (m *sessionSvc) StartLogin(ctx context.Context, identity, secret string, waitSeconds int) (*models.LoginTask, error) {
	args := m.Called(ctx, identity, secret, waitSeconds)
	t, _ := args.Get(0).(*models.LoginTask)
	return t, args.Error(1)
}

type settingsSvc struct {
	service.SettingsService
	mock.Mock
}

func (m *settingsSvc) GetAPIURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *settingsSvc) UpdateAPIURL(ctx context.Context, value string) error {
	return m.Called(ctx, value).Error(0)
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func postApp(posts *postSvc) *fiber.App {
	app := fiber.New()
	h := NewPostHandler(posts)
	app.Post("/api/posts/publish", h.PublishPost)
	app.Post("/api/posts/schedule", h.SchedulePost)
	app.Delete("/api/posts/:id", h.RemovePost)
	return app
}

func TestPublishPublished(t *testing.T) {
	posts := &postSvc{}
	fbID := "999"
	posts.On("Publish", mock.Anything, mock.Anything).Return(&service.PublishOutcome{
		Post: &models.Post{ID: 1, Status: models.PostStatusPublished, FBPostID: &fbID},
	}, nil)

	code, body := call(t, postApp(posts), http.MethodPost, "/api/posts/publish", fiber.Map{"page_id": "P", "comment": "Hello"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusOK, body["status"])
	assert.Equal(t, "999", body["post"].(map[string]any)["fb_post_id"])
}

func TestPublishSessionExpired(t *testing.T) {
	posts := &postSvc{}
	posts.On("Publish", mock.Anything, mock.Anything).Return(&service.PublishOutcome{
		Post:   &models.Post{ID: 1, Status: models.PostStatusPending},
		Result: service.OutcomeAuth,
	}, nil)

	code, body := call(t, postApp(posts), http.MethodPost, "/api/posts/publish", fiber.Map{"page_id": "P"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusError, body["status"])
	assert.Equal(t, CodeSessionExpired, body["code"])
}

func TestPublishFailed(t *testing.T) {
	posts := &postSvc{}
	posts.On("Publish", mock.Anything, mock.Anything).Return(&service.PublishOutcome{
		Post:    &models.Post{ID: 1, Status: models.PostStatusFailed},
		Result:  service.OutcomeUpstream,
		Message: "internal",
	}, nil)

	code, body := call(t, postApp(posts), http.MethodPost, "/api/posts/publish", fiber.Map{"page_id": "P"})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "internal", body["message"])
}

func TestPublishErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrPublishInProgress, http.StatusConflict},
		{service.ErrSessionNotFound, http.StatusNotFound},
		{service.ErrConfiguration, http.StatusBadRequest},
		{service.ErrCritical, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		posts := &postSvc{}
		posts.On("Publish", mock.Anything, mock.Anything).Return(nil, tc.err)

		code, body := call(t, postApp(posts), http.MethodPost, "/api/posts/publish", fiber.Map{"page_id": "P"})
		assert.Equal(t, tc.code, code, tc.err.Error())
		assert.Equal(t, StatusError, body["status"])
	}
}

func TestPublishRequiresPage(t *testing.T) {
	posts := &postSvc{}

	code, body := call(t, postApp(posts), http.MethodPost, "/api/posts/publish", fiber.Map{"comment": "Hello"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "pageid")
	posts.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestScheduleDeadSession(t *testing.T) {
	posts := &postSvc{}
	posts.On("Schedule", mock.Anything, mock.Anything).Return(nil, service.ErrSessionExpired)

	code, body := call(t, postApp(posts), http.MethodPost, "/api/posts/schedule", fiber.Map{
		"page_id":      "P",
		"scheduled_at": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, CodeSessionExpired, body["code"])
}

func TestRemoveNotRemovable(t *testing.T) {
	posts := &postSvc{}
	posts.On("Remove", mock.Anything, int64(3)).Return(service.ErrPostNotRemovable)

	code, _ := call(t, postApp(posts), http.MethodDelete, "/api/posts/3", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestGetPagesCachedStatus(t *testing.T) {
	pages := &pageSvc{}
	pages.On("GetPages", mock.Anything, mock.MatchedBy(func(id *int64) bool { return id != nil && *id == 2 }), false).
		Return(&transfer.PageListing{SessionID: 2, Cached: true, Pages: []*models.Page{{ID: "123", IsSelected: true}}}, nil)

	app := fiber.New()
	app.Get("/api/pages", NewPageHandler(pages).GetPages)

	code, body := call(t, app, http.MethodGet, "/api/pages?session_id=2", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusCached, body["status"])
	assert.Len(t, body["pages"], 1)
}

func TestLoginReturnsProcessing(t *testing.T) {
	sessions := &sessionSvc{}
	sessions.On("StartLogin", mock.Anything, "ana@example.com", "pw", 120).
		Return(&models.LoginTask{ID: "t-1", Status: models.LoginTaskPending}, nil)

	app := fiber.New()
	app.Post("/api/sessions/login", NewSessionHandler(sessions, &postSvc{}, 120).Login)

	code, body := call(t, app, http.MethodPost, "/api/sessions/login", fiber.Map{"user": "ana@example.com", "pass": "pw"})
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, StatusProcessing, body["status"])
	assert.Equal(t, "t-1", body["task"].(map[string]any)["id"])
}

func TestLoginRequiresCredentials(t *testing.T) {
	app := fiber.New()
	app.Post("/api/sessions/login", NewSessionHandler(&sessionSvc{}, &postSvc{}, 120).Login)

	code, _ := call(t, app, http.MethodPost, "/api/sessions/login", fiber.Map{"email": "ana"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSettingsRoundTrip(t *testing.T) {
	settings := &settingsSvc{}
	settings.On("UpdateAPIURL", mock.Anything, "http://fb:8000/").Return(nil)
	settings.On("GetAPIURL", mock.Anything).Return("http://fb:8000", nil)

	app := fiber.New()
	h := NewSettingsHandler(settings)
	app.Get("/api/settings", h.GetSettings)
	app.Post("/api/settings", h.UpdateSettings)

	code, body := call(t, app, http.MethodPost, "/api/settings", fiber.Map{"fb_api_url": "http://fb:8000/"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "http://fb:8000", body["fb_api_url"])

	code, _ = call(t, app, http.MethodPost, "/api/settings", fiber.Map{"fb_api_url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDashboardLogin(t *testing.T) {
	app := fiber.New()
	app.Post("/auth/login", NewAuthHandler(config.Config{SecretKey: "k", CookieName: "tok", DashboardPassword: "open"}).Login)

	code, _ := call(t, app, http.MethodPost, "/auth/login", fiber.Map{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	b, _ := json.Marshal(fiber.Map{"password": "open"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var found bool
	for _, c := range resp.Cookies() {
		found = found || (c.Name == "tok" && c.Value != "")
	}
	assert.True(t, found)
}

func TestDashboardLoginBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open"), bcrypt.MinCost)
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/auth/login", NewAuthHandler(config.Config{SecretKey: "k", CookieName: "tok", DashboardPassword: string(hash)}).Login)

	code, _ := call(t, app, http.MethodPost, "/auth/login", fiber.Map{"password": "open"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, app, http.MethodPost, "/auth/login", fiber.Map{"password": string(hash)})
	assert.Equal(t, http.StatusUnauthorized, code)
}
