package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codecrew/internal/cache"
	"codecrew/internal/config"
	"codecrew/internal/middleware"
	"codecrew/internal/models"
	"codecrew/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
	rdb *redis.Client
	cfg *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                 "test",
		Port:                "0",
		JWTSecret:           "test-access-secret-0123456789abcdef",
		JWTRefreshSecret:    "test-refresh-secret-0123456789abcdef",
		JWTExpiresIn:        "1h",
		JWTRefreshExpiresIn: "7d",
		FrontendURL:         "http://localhost:5173",
	}
}

// newTestServer builds the full app over sqlite and miniredis.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache.SetClient(rdb)

	cfg := testConfig()
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testServer{srv: srv, app: srv.NewApp(), db: db, mr: mr, rdb: rdb, cfg: cfg}
}

// token signs an access token for user.
func (ts *testServer) token(t *testing.T, user *models.User) string {
	t.Helper()
	tok, err := middleware.SignToken(ts.cfg.JWTSecret, middleware.AccessToken, user.ID, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a request with an optional JSON body and bearer token.
func (ts *testServer) do(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestNewServerWithDeps_RequiresDatabase(t *testing.T) {
	_, err := NewServerWithDeps(testConfig(), nil, nil)
	assert.Error(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	root := decode[map[string]any](t, resp)
	assert.Equal(t, "CodeCrew API - Developer Community Platform", root["message"])
	assert.Equal(t, apiVersion, root["version"])

	resp = ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]any](t, resp)["status"])

	resp = ts.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	ready := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", ready["status"])
}

func TestReadinessCheck_RedisDown(t *testing.T) {
	ts := newTestServer(t)
	ts.mr.Close()

	resp := ts.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	services := body["services"].(map[string]any)
	assert.Equal(t, "healthy", services["database"])
	assert.Equal(t, "unhealthy", services["redis"])
}

func TestReadinessCheck_NoRedis(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	srv, err := NewServerWithDeps(testConfig(), db, nil)
	require.NoError(t, err)

	resp, err := srv.NewApp().Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", decode[models.ErrorResponse](t, resp).Error)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		env        string
		err        error
		wantStatus int
		wantError  string
	}{
		{"fiber error keeps status", "test", fiber.NewError(fiber.StatusTeapot, "short and stout"), fiber.StatusTeapot, "short and stout"},
		{"app error maps code", "test", models.NewNotFoundError("Problem"), fiber.StatusNotFound, "Problem not found"},
		{"raw error in development", "development", errors.New("boom"), fiber.StatusInternalServerError, "boom"},
		{"raw error hidden in production", "production", errors.New("boom"), fiber.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Env = tt.env
			s := &Server{config: cfg}
			app := fiber.New(fiber.Config{ErrorHandler: s.ErrorHandler})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantError, decode[models.ErrorResponse](t, resp).Error)
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := ts.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
