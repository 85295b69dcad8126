package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"codecrew/internal/cache"
	"codecrew/internal/config"
	"codecrew/internal/featureflags"
	"codecrew/internal/models"
	"codecrew/internal/notifications"
	"codecrew/internal/repository"
	"codecrew/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (p *recordingPublisher) Publish(_ context.Context, eventType notifications.EventType, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, notifications.Event{Type: eventType, Payload: payload})
	return nil
}

func (p *recordingPublisher) types() []notifications.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notifications.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) last() notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type testEnv struct {
	db     *gorm.DB
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	events *recordingPublisher
	cfg    *config.Config

	auth           *AuthService
	problems       *ProblemService
	answers        *AnswerService
	comments       *CommentService
	interactions   *InteractionService
	users          *UserService
	admin          *AdminService
	classification *ClassificationService
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-access-secret-0123456789abcdef",
		JWTRefreshSecret:    "test-refresh-secret-0123456789abcdef",
		JWTExpiresIn:        "1h",
		JWTRefreshExpiresIn: "7d",
		GoogleClientID:      "client-id",
		GoogleClientSecret:  "client-secret",
		GoogleCallbackURL:   "http://localhost:5000/api/auth/google/callback",
	}
}

// newTestEnv wires every service over a fresh sqlite DB and miniredis.
func newTestEnv(t *testing.T, flagConfig string) *testEnv {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache.SetClient(rdb)

	flags := featureflags.NewManager(flagConfig)
	events := &recordingPublisher{}
	realtime := NewRealtime(events, flags)
	cfg := testConfig()

	users := repository.NewUserRepository(db)
	problems := repository.NewProblemRepository(db)
	answers := repository.NewAnswerRepository(db)
	comments := repository.NewCommentRepository(db)
	interactions := repository.NewInteractionRepository(db)
	classification := repository.NewClassificationRepository(db)
	analytics := repository.NewAnalyticsRepository(db)

	problemService := NewProblemService(problems, answers, comments, interactions, users, classification, rdb, flags, realtime)
	return &testEnv{
		db:             db,
		mr:             mr,
		rdb:            rdb,
		events:         events,
		cfg:            cfg,
		auth:           NewAuthService(users, rdb, cfg),
		problems:       problemService,
		answers:        NewAnswerService(problems, answers, interactions, users, realtime),
		comments:       NewCommentService(comments, problems, answers, users),
		interactions:   NewInteractionService(interactions, answers, realtime),
		users:          NewUserService(users, problems, answers, interactions, classification),
		admin:          NewAdminService(problems, analytics, problemService),
		classification: NewClassificationService(classification, rdb),
	}
}

// assertAppError asserts that err is an AppError with the given code and message.
func assertAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation, "")
}
