package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Root describes the API.
// @Summary API index
// @Tags health
// @Produce json
// @Success 200 {object} object{message=string,version=string,endpoints=object}
// @Router / [get]
func (s *Server) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "CodeCrew API - Developer Community Platform",
		"version": apiVersion,
		"endpoints": fiber.Map{
			"auth":           "/api/auth",
			"classification": "/api/domains",
			"hierarchy":      "/api/hierarchy",
			"problems":       "/api/problems",
			"users":          "/api/users",
			"admin":          "/api/admin",
			"websocket":      "/api/ws",
			"docs":           "/api/swagger/index.html",
		},
	})
}

// Health is the lightweight status probe.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string}
// @Router /health [get]
func (s *Server) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and Redis. Either failing answers 503.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}
