package server

import (
	"errors"
	"log/slog"
	"net/url"

	"codecrew/internal/middleware"
	"codecrew/internal/models"
	"codecrew/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new account with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignupInput true "Signup request"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.authService.Signup(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Login request"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// Refresh handles POST /api/auth/refresh
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{refreshToken=string} true "Refresh token"
// @Success 200 {object} object{accessToken=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	access, err := s.authService.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"accessToken": access})
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Me
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	me, err := s.authService.Me(c.UserContext(), viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(me)
}

// GoogleLogin handles GET /api/auth/google
// @Summary Start Google sign-in
// @Tags auth
// @Success 302
// @Failure 503 {object} models.ErrorResponse
// @Router /auth/google [get]
func (s *Server) GoogleLogin(c *fiber.Ctx) error {
	authURL, err := s.authService.GoogleAuthURL(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Redirect(authURL, fiber.StatusFound)
}

// GoogleCallback handles GET /api/auth/google/callback
// @Summary Finish Google sign-in
// @Description Redirects to the frontend with the issued tokens
// @Tags auth
// @Param state query string true "OAuth state"
// @Param code query string true "Authorization code"
// @Success 302
// @Failure 503 {object} models.ErrorResponse
// @Router /auth/google/callback [get]
func (s *Server) GoogleCallback(c *fiber.Ctx) error {
	if !s.authService.GoogleEnabled() {
		return models.RespondWithAppError(c, service.ErrGoogleNotConfigured)
	}

	result, err := s.authService.GoogleCallback(c.UserContext(), c.Query("state"), c.Query("code"))
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "google oauth failed", slog.String("error", err.Error()))
		if errors.Is(err, service.ErrGoogleNotConfigured) {
			return models.RespondWithAppError(c, err)
		}
		return c.Redirect(s.config.FrontendURL+"/login?error=oauth_failed", fiber.StatusFound)
	}

	q := url.Values{}
	q.Set("accessToken", result.AccessToken)
	q.Set("refreshToken", result.RefreshToken)
	return c.Redirect(s.config.FrontendURL+"/auth/callback?"+q.Encode(), fiber.StatusFound)
}
