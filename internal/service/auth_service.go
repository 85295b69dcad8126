package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codecrew/internal/config"
	"codecrew/internal/middleware"
	"codecrew/internal/models"
	"codecrew/internal/observability"
	"codecrew/internal/repository"
	"codecrew/internal/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/datatypes"
)

const (
	bcryptCost = 10

	oauthStateTTL    = 10 * time.Minute
	oauthStatePrefix = "oauth:state:"
	googleProvider   = "google"
	googleUserInfo   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// ErrGoogleNotConfigured is returned by the Google flow without credentials.
var ErrGoogleNotConfigured = models.NewUnavailableError("Google OAuth not configured")

// AuthResult is returned by signup, login and the OAuth callback.
type AuthResult struct {
	User         models.AuthUser `json:"user"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleProfile is the subset of the userinfo response the callback uses.
type GoogleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type AuthService struct {
	users         repository.UserRepository
	rdb           *redis.Client
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	oauth         *oauth2.Config

	// fetchProfile exchanges an authorization code for the Google profile.
	fetchProfile func(ctx context.Context, code string) (*GoogleProfile, error)
}

func NewAuthService(users repository.UserRepository, rdb *redis.Client, cfg *config.Config) *AuthService {
	s := &AuthService{
		users:         users,
		rdb:           rdb,
		accessSecret:  cfg.JWTSecret,
		refreshSecret: cfg.JWTRefreshSecret,
		accessTTL:     cfg.AccessTokenTTL(),
		refreshTTL:    cfg.RefreshTokenTTL(),
	}
	if cfg.GoogleOAuthEnabled() {
		s.oauth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		}
		s.fetchProfile = s.exchangeGoogleCode
	}
	return s
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.NewValidationError("Name is required")
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError("Valid email is required")
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	email := validation.NormalizeEmail(in.Email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		observability.AuthEvents.WithLabelValues("signup", "duplicate").Inc()
		return nil, models.NewConflictError("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("hash password: %w", err))
	}
	hashed := string(hash)

	user := &models.User{Name: name, Email: email, PasswordHash: &hashed}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	observability.AuthEvents.WithLabelValues("signup", "success").Inc()
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError("Valid email is required")
	}
	if in.Password == "" {
		return nil, models.NewValidationError("Password is required")
	}

	invalid := models.NewUnauthorizedError("Invalid credentials")
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.HasPassword() {
		observability.AuthEvents.WithLabelValues("login", "failure").Inc()
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(in.Password)); err != nil {
		observability.AuthEvents.WithLabelValues("login", "failure").Inc()
		return nil, invalid
	}
	observability.AuthEvents.WithLabelValues("login", "success").Inc()
	return s.issue(user)
}

// Refresh trades a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", models.NewValidationError("Refresh token required")
	}
	invalid := models.NewUnauthorizedError("Invalid or expired refresh token")

	claims, err := middleware.ParseToken(s.refreshSecret, middleware.RefreshToken, refreshToken)
	if err != nil {
		observability.AuthEvents.WithLabelValues("refresh", "failure").Inc()
		return "", invalid
	}
	if _, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return "", invalid
		}
		return "", err
	}

	access, err := middleware.SignToken(s.accessSecret, middleware.AccessToken, claims.UserID, s.accessTTL)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	observability.AuthEvents.WithLabelValues("refresh", "success").Inc()
	return access, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.Me, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	me := user.ToMe()
	return &me, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	access, err := middleware.SignToken(s.accessSecret, middleware.AccessToken, user.ID, s.accessTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	refresh, err := middleware.SignToken(s.refreshSecret, middleware.RefreshToken, user.ID, s.refreshTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{User: user.ToAuthUser(), AccessToken: access, RefreshToken: refresh}, nil
}

// GoogleEnabled reports whether the Google flow can run.
func (s *AuthService) GoogleEnabled() bool {
	return s.fetchProfile != nil
}

// GoogleAuthURL returns the consent URL with a fresh state value.
func (s *AuthService) GoogleAuthURL(ctx context.Context) (string, error) {
	if s.oauth == nil {
		return "", ErrGoogleNotConfigured
	}
	state := uuid.NewString()
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, oauthStatePrefix+state, "1", oauthStateTTL).Err(); err != nil {
			slog.WarnContext(ctx, "failed to store oauth state", slog.String("error", err.Error()))
		}
	}
	return s.oauth.AuthCodeURL(state), nil
}

// checkState consumes a stored state. Without a reachable Redis the state
// cannot be verified and is accepted.
func (s *AuthService) checkState(ctx context.Context, state string) error {
	if s.rdb == nil {
		return nil
	}
	_, err := s.rdb.GetDel(ctx, oauthStatePrefix+state).Result()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return errors.New("unknown oauth state")
	default:
		slog.WarnContext(ctx, "oauth state check skipped", slog.String("error", err.Error()))
		return nil
	}
}

// GoogleCallback completes the flow: it finds or creates the user by email and
// links the Google identity.
func (s *AuthService) GoogleCallback(ctx context.Context, state, code string) (*AuthResult, error) {
	if !s.GoogleEnabled() {
		return nil, ErrGoogleNotConfigured
	}
	if code == "" {
		return nil, models.NewValidationError("Authorization code required")
	}
	if err := s.checkState(ctx, state); err != nil {
		observability.AuthEvents.WithLabelValues("oauth", "failure").Inc()
		return nil, models.NewUnauthorizedError(err.Error())
	}

	profile, err := s.fetchProfile(ctx, code)
	if err != nil {
		observability.AuthEvents.WithLabelValues("oauth", "failure").Inc()
		return nil, models.NewUnauthorizedError(fmt.Sprintf("google exchange failed: %v", err))
	}
	if err := validation.ValidateEmail(profile.Email); err != nil {
		return nil, models.NewUnauthorizedError("Google account has no usable email")
	}
	email := validation.NormalizeEmail(profile.Email)
	link := models.OAuthProvider{Provider: googleProvider, ID: profile.ID}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if !user.HasProvider(googleProvider) {
			if err := s.users.AddProvider(ctx, user.ID, link); err != nil {
				return nil, err
			}
		}
	} else {
		name := strings.TrimSpace(profile.Name)
		if name == "" {
			name = strings.Split(email, "@")[0]
		}
		user = &models.User{
			Name:           name,
			Email:          email,
			AvatarURL:      profile.Picture,
			OAuthProviders: datatypes.JSONSlice[models.OAuthProvider]{link},
			Roles:          datatypes.JSONSlice[models.Role]{models.RoleUser},
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	observability.AuthEvents.WithLabelValues("oauth", "success").Inc()
	return s.issue(user)
}

func (s *AuthService) exchangeGoogleCode(ctx context.Context, code string) (*GoogleProfile, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfo, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &profile, nil
}
