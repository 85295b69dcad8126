// Package server contains the HTTP and WebSocket handlers of the CodeCrew API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "codecrew/docs" // swagger docs
	"codecrew/internal/bootstrap"
	"codecrew/internal/config"
	"codecrew/internal/featureflags"
	"codecrew/internal/middleware"
	"codecrew/internal/models"
	"codecrew/internal/notifications"
	"codecrew/internal/repository"
	"codecrew/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	apiVersion = "1.0.0"
	bodyLimit  = 10 * 1024 * 1024
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo     repository.UserRepository
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	authService           *service.AuthService
	classificationService *service.ClassificationService
	problemService        *service.ProblemService
	answerService         *service.AnswerService
	commentService        *service.CommentService
	interactionService    *service.InteractionService
	userService           *service.UserService
	adminService          *service.AdminService
}

// NewServer connects to the database and Redis and builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, fmt.Errorf("runtime init failed: %w", err)
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, realtime and rate limiting then degrade.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("config and database are required")
	}
	models.ExposeErrorDetails = !cfg.IsProduction()

	userRepo := repository.NewUserRepository(db)
	problemRepo := repository.NewProblemRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	classificationRepo := repository.NewClassificationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("codecrew-api"),
		userRepo:       userRepo,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	var publisher service.Publisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
		publisher = s.notifier
	}
	realtime := service.NewRealtime(publisher, s.featureFlags)

	s.authService = service.NewAuthService(userRepo, redisClient, cfg)
	s.classificationService = service.NewClassificationService(classificationRepo, redisClient)
	s.problemService = service.NewProblemService(problemRepo, answerRepo, commentRepo, interactionRepo, userRepo, classificationRepo, redisClient, s.featureFlags, realtime)
	s.answerService = service.NewAnswerService(problemRepo, answerRepo, interactionRepo, userRepo, realtime)
	s.commentService = service.NewCommentService(commentRepo, problemRepo, answerRepo, userRepo)
	s.interactionService = service.NewInteractionService(interactionRepo, answerRepo, realtime)
	s.userService = service.NewUserService(userRepo, problemRepo, answerRepo, interactionRepo, classificationRepo)
	s.adminService = service.NewAdminService(problemRepo, analyticsRepo, s.problemService)

	return s, nil
}

// NewApp builds a Fiber app with the server's error handler, middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "CodeCrew API",
		BodyLimit:    bodyLimit,
		ErrorHandler: s.ErrorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// ErrorHandler is the last stop for errors returned by handlers.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return models.RespondWithAppError(c, err)
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	message := "Internal server error"
	if !s.config.IsProduction() {
		message = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error: message,
		Code:  models.CodeInternal,
	})
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.CORSOrigins(),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

func (s *Server) window() time.Duration {
	minutes := s.config.RateLimitWindowMinutes
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Root)
	app.Get("/health", s.Health)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", middleware.RateLimit(s.redis, middleware.Limit{
		Name:    "api",
		Max:     orDefault(s.config.RateLimitAPIMax, 100),
		Window:  s.window(),
		Message: "Too many requests from this IP, please try again later.",
	}))
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "CodeCrew API Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	authLimit := middleware.RateLimit(s.redis, middleware.Limit{
		Name:    "auth",
		Max:     orDefault(s.config.RateLimitAuthMax, 5),
		Window:  s.window(),
		Policy:  middleware.FailClosed,
		Message: "Too many authentication attempts, please try again later.",
	})
	contentLimit := middleware.RateLimit(s.redis, middleware.Limit{
		Name:    "content",
		Max:     orDefault(s.config.RateLimitContentPerHour, 10),
		Window:  time.Hour,
		Message: "Too many posts created, please try again later.",
	})
	voteLimit := middleware.RateLimit(s.redis, middleware.Limit{
		Name:    "vote",
		Max:     orDefault(s.config.RateLimitVotePerMinute, 30),
		Window:  time.Minute,
		Message: "Too many votes, please slow down.",
	})

	authRequired := middleware.AuthRequired(s.config.JWTSecret, s.userRepo)
	optionalAuth := middleware.OptionalAuth(s.config.JWTSecret, s.userRepo)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", authLimit, s.Signup)
	auth.Post("/login", authLimit, s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Get("/me", authRequired, s.Me)
	auth.Get("/google", s.GoogleLogin)
	auth.Get("/google/callback", s.GoogleCallback)

	// Classification tree
	api.Get("/domains", s.GetDomains)
	api.Get("/domains/:id/subdomains", s.GetSubdomains)
	api.Get("/subdomains/:id/categories", s.GetCategories)
	api.Get("/categories/:id/techstacks", s.GetTechStacks)
	api.Get("/techstacks/:id/languages", s.GetLanguages)
	api.Get("/languages/:id/topics", s.GetTopics)
	api.Get("/hierarchy", s.GetHierarchy)

	// Problems: specific paths before /:id
	problems := api.Group("/problems")
	problems.Get("/", optionalAuth, s.ListProblems)
	problems.Get("/major", s.GetMajorProblems)
	problems.Get("/class/:type/:id", s.GetProblemsByClassification)
	problems.Post("/vote", authRequired, voteLimit, s.Vote)
	problems.Post("/bookmark", authRequired, s.ToggleBookmark)
	problems.Post("/comment", authRequired, contentLimit, s.CreateComment)
	problems.Post("/", authRequired, contentLimit, s.CreateProblem)
	problems.Post("/:problemId/answers/:answerId/accept", authRequired, s.AcceptAnswer)
	problems.Post("/:id/answers", authRequired, contentLimit, s.CreateAnswer)
	problems.Post("/:id/solve", authRequired, s.MarkSolved)
	problems.Get("/:id", optionalAuth, s.GetProblem)
	problems.Patch("/:id", authRequired, s.UpdateProblem)
	problems.Delete("/:id", authRequired, s.DeleteProblem)

	// Users
	users := api.Group("/users")
	users.Get("/:id/problems", s.GetUserProblems)
	users.Get("/:id/answers", s.GetUserAnswers)
	users.Get("/:id/bookmarks", authRequired, s.GetUserBookmarks)
	users.Get("/:id", s.GetUserProfile)
	users.Patch("/:id", authRequired, s.UpdateUserProfile)

	// Admin
	admin := api.Group("/admin", authRequired, middleware.RequireRoles(models.RoleAdmin, models.RoleModerator))
	admin.Patch("/problems/:id/canonical", s.SetCanonical)
	admin.Get("/moderation", s.GetModerationQueue)
	admin.Delete("/problems/:id", s.AdminDeleteProblem)
	admin.Get("/analytics", s.GetAnalytics)
	admin.Get("/feature-flags", s.GetFeatureFlags)

	// Realtime
	api.Post("/ws/ticket", authRequired, s.IssueWSTicket)
	api.Get("/ws", s.wsAuth(authRequired), s.WebsocketUpgrade, s.WebsocketHandler())

	app.Use(s.NotFound)
}

// NotFound answers every unmatched route.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "Route not found"})
}

// Start starts the server and blocks until it stops listening.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				slog.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	slog.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			slog.Error("error shutting down hub", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			slog.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			slog.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	slog.Info("server shutdown complete")
	return nil
}
