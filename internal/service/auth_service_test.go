package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"codecrew/internal/middleware"
	"codecrew/internal/models"
	"codecrew/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_Signup(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	res, err := env.auth.Signup(ctx, SignupInput{Name: " Ada ", Email: " ADA@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", res.User.Name)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, []models.Role{models.RoleUser}, res.User.Roles)

	claims, err := middleware.ParseToken(env.cfg.JWTSecret, middleware.AccessToken, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	_, err = middleware.ParseToken(env.cfg.JWTRefreshSecret, middleware.RefreshToken, res.RefreshToken)
	require.NoError(t, err)

	stored := testutil.Reload[models.User](t, env.db, res.User.ID)
	require.True(t, stored.HasPassword())
	cost, err := bcrypt.Cost([]byte(*stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)

	_, err = env.auth.Signup(ctx, SignupInput{Name: "Ada again", Email: "ada@example.com", Password: "secret1"})
	assertAppError(t, err, models.CodeConflict, "Email already registered")
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.User{}, ""))
}

func TestAuthService_SignupValidation(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		name    string
		in      SignupInput
		message string
	}{
		{"missing name", SignupInput{Email: "a@b.co", Password: "secret1"}, "Name is required"},
		{"bad email", SignupInput{Name: "A", Email: "nope", Password: "secret1"}, "Valid email is required"},
		{"short password", SignupInput{Name: "A", Email: "a@b.co", Password: "12345"}, "Password must be at least 6 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Signup(context.Background(), tt.in)
			assertAppError(t, err, models.CodeValidation, tt.message)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	user := testutil.CreateUser(t, env.db, "grace")
	oauthOnly := &models.User{Name: "Google Only", Email: "g@example.com"}
	require.NoError(t, env.db.Create(oauthOnly).Error)

	res, err := env.auth.Login(ctx, LoginInput{Email: user.Email, Password: testutil.TestPassword})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	for _, in := range []LoginInput{
		{Email: user.Email, Password: "wrong-password"},
		{Email: "ghost@example.com", Password: testutil.TestPassword},
		{Email: oauthOnly.Email, Password: testutil.TestPassword},
	} {
		_, err := env.auth.Login(ctx, in)
		assertAppError(t, err, models.CodeUnauthorized, "Invalid credentials")
	}

	_, err = env.auth.Login(ctx, LoginInput{Email: user.Email})
	assertValidationError(t, err)
}

func TestAuthService_Refresh(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	user := testutil.CreateUser(t, env.db, "linus")

	refresh, err := middleware.SignToken(env.cfg.JWTRefreshSecret, middleware.RefreshToken, user.ID, time.Hour)
	require.NoError(t, err)
	access, err := env.auth.Refresh(ctx, refresh)
	require.NoError(t, err)
	claims, err := middleware.ParseToken(env.cfg.JWTSecret, middleware.AccessToken, access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, err = env.auth.Refresh(ctx, "")
	assertAppError(t, err, models.CodeValidation, "Refresh token required")

	wrongKind, err := middleware.SignToken(env.cfg.JWTSecret, middleware.AccessToken, user.ID, time.Hour)
	require.NoError(t, err)
	_, err = env.auth.Refresh(ctx, wrongKind)
	assertAppError(t, err, models.CodeUnauthorized, "Invalid or expired refresh token")

	ghost, err := middleware.SignToken(env.cfg.JWTRefreshSecret, middleware.RefreshToken, 9999, time.Hour)
	require.NoError(t, err)
	_, err = env.auth.Refresh(ctx, ghost)
	assertAppError(t, err, models.CodeUnauthorized, "Invalid or expired refresh token")
}

func TestAuthService_Me(t *testing.T) {
	env := newTestEnv(t, "")
	user := testutil.CreateUser(t, env.db, "margaret")

	me, err := env.auth.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, me.Email)
	assert.Empty(t, me.Interests)

	_, err = env.auth.Me(context.Background(), 4040)
	assertAppError(t, err, models.CodeNotFound, "User not found")
}

func TestAuthService_GoogleNotConfigured(t *testing.T) {
	env := newTestEnv(t, "")
	cfg := testConfig()
	cfg.GoogleClientID = ""
	svc := NewAuthService(nil, env.rdb, cfg)

	assert.False(t, svc.GoogleEnabled())
	_, err := svc.GoogleAuthURL(context.Background())
	assertAppError(t, err, models.CodeUnavailable, "Google OAuth not configured")
	_, err = svc.GoogleCallback(context.Background(), "state", "code")
	assertAppError(t, err, models.CodeUnavailable, "Google OAuth not configured")
}

func TestAuthService_GoogleFlow(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	svc := env.auth

	profile := &GoogleProfile{ID: "g-1", Email: "New.User@Gmail.com", Name: "New User", Picture: "https://img.example/p.png"}
	svc.fetchProfile = func(_ context.Context, code string) (*GoogleProfile, error) {
		if code != "good-code" {
			return nil, errors.New("bad code")
		}
		return profile, nil
	}

	consent, err := svc.GoogleAuthURL(ctx)
	require.NoError(t, err)
	u, err := url.Parse(consent)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Contains(t, u.Query().Get("scope"), "email")
	assert.True(t, env.mr.Exists(oauthStatePrefix+state))
	assert.Equal(t, oauthStateTTL, env.mr.TTL(oauthStatePrefix+state))

	res, err := svc.GoogleCallback(ctx, state, "good-code")
	require.NoError(t, err)
	created := testutil.Reload[models.User](t, env.db, res.User.ID)
	assert.Equal(t, "new.user@gmail.com", created.Email)
	assert.Equal(t, profile.Picture, created.AvatarURL)
	assert.False(t, created.HasPassword())
	assert.True(t, created.HasProvider("google"))

	// The state is single use.
	_, err = svc.GoogleCallback(ctx, state, "good-code")
	assertAppError(t, err, models.CodeUnauthorized, "")

	consent, err = svc.GoogleAuthURL(ctx)
	require.NoError(t, err)
	u, _ = url.Parse(consent)
	_, err = svc.GoogleCallback(ctx, u.Query().Get("state"), "bad-code")
	assertAppError(t, err, models.CodeUnauthorized, "")
}

func TestAuthService_GoogleLinksExistingAccount(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	existing := testutil.CreateUser(t, env.db, "linked")

	svc := NewAuthService(env.auth.users, nil, env.cfg)
	svc.fetchProfile = func(context.Context, string) (*GoogleProfile, error) {
		return &GoogleProfile{ID: "g-2", Email: existing.Email, Name: "Whatever"}, nil
	}

	res, err := svc.GoogleCallback(ctx, "unverifiable-without-redis", "code")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, res.User.ID)

	reloaded := testutil.Reload[models.User](t, env.db, existing.ID)
	assert.True(t, reloaded.HasProvider("google"))
	assert.True(t, reloaded.HasPassword())
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.User{}, ""))
}
