package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codecrew/internal/models"
	"codecrew/internal/service"
	"codecrew/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	signup := map[string]string{"name": "Dana", "email": "Dana@Example.com", "password": "password123"}
	resp := ts.do(t, http.MethodPost, "/api/auth/signup", signup, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[service.AuthResult](t, resp)
	assert.Equal(t, "dana@example.com", created.User.Email)
	assert.Equal(t, []models.Role{models.RoleUser}, created.User.Roles)
	assert.NotEmpty(t, created.AccessToken)
	assert.NotEmpty(t, created.RefreshToken)

	t.Run("duplicate email", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/auth/signup", signup, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Email already registered", decode[models.ErrorResponse](t, resp).Error)
	})

	t.Run("login", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "dana@example.com", "password": "password123"}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, created.User.ID, decode[service.AuthResult](t, resp).User.ID)
	})

	t.Run("login wrong password", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "dana@example.com", "password": "nope-nope"}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid credentials", decode[models.ErrorResponse](t, resp).Error)
	})

	t.Run("me", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/auth/me", nil, created.AccessToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		me := decode[map[string]any](t, resp)
		assert.Equal(t, "Dana", me["name"])
	})

	t.Run("me without token", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/auth/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "No token provided", decode[models.ErrorResponse](t, resp).Error)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/auth/me", nil, created.RefreshToken)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("refresh", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/auth/refresh",
			map[string]string{"refreshToken": created.RefreshToken}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		access := decode[map[string]string](t, resp)["accessToken"]
		require.NotEmpty(t, access)

		resp = ts.do(t, http.MethodGet, "/api/auth/me", nil, access)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("refresh with garbage", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": "x.y.z"}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestSignup_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"email": "a@b.co", "password": "password123"}},
		{"bad email", map[string]string{"name": "A", "email": "not-an-email", "password": "password123"}},
		{"short password", map[string]string{"name": "A", "email": "a@b.co", "password": "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/auth/signup", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, resp).Code)
		})
	}
}

func TestSignup_MalformedBody(t *testing.T) {
	ts := newTestServer(t)

	httpReq := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader("{not json"))
	httpReq.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := ts.app.Test(httpReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request body", decode[models.ErrorResponse](t, resp).Error)
}

func TestAuthRequired_DeletedUser(t *testing.T) {
	ts := newTestServer(t)
	u := testutil.CreateUser(t, ts.db, "ghost")
	tok := ts.token(t, u)
	require.NoError(t, ts.db.Delete(&models.User{}, u.ID).Error)

	resp := ts.do(t, http.MethodGet, "/api/auth/me", nil, tok)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGoogleLogin_NotConfigured(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/auth/google", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/auth/google/callback?code=abc&state=xyz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGoogleLogin_Redirects(t *testing.T) {
	ts := newTestServer(t)
	ts.cfg.GoogleClientID = "client-id"
	ts.cfg.GoogleClientSecret = "client-secret"
	ts.cfg.GoogleCallbackURL = "http://localhost:5000/api/auth/google/callback"
	srv, err := NewServerWithDeps(ts.cfg, ts.db, ts.rdb)
	require.NoError(t, err)
	app := srv.NewApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/google", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "accounts.google.com")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=abc&state=unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173/login?error=oauth_failed", resp.Header.Get("Location"))
}

