package server

import (
	"codecrew/internal/models"
	"codecrew/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id
// @Summary Public profile with stats
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.PublicProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.userService.Profile(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// UpdateUserProfile handles PATCH /api/users/:id
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body service.UpdateProfileInput true "Fields to change"
// @Success 200 {object} models.Me
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{id} [patch]
func (s *Server) UpdateUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateProfileInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.ActorID = viewerID(c)
	req.UserID = id

	me, err := s.userService.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(me)
}

// GetUserProblems handles GET /api/users/:id/problems
// @Summary Problems posted by a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Param limit query int false "Max results" default(10)
// @Success 200 {array} models.Problem
// @Router /users/{id}/problems [get]
func (s *Server) GetUserProblems(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	problems, err := s.userService.Problems(c.UserContext(), id, c.QueryInt("limit", 0))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if problems == nil {
		problems = []models.Problem{}
	}
	return c.JSON(problems)
}

// GetUserAnswers handles GET /api/users/:id/answers
// @Summary Answers given by a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Param limit query int false "Max results" default(10)
// @Success 200 {array} models.Answer
// @Router /users/{id}/answers [get]
func (s *Server) GetUserAnswers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	answers, err := s.userService.Answers(c.UserContext(), id, c.QueryInt("limit", 0))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if answers == nil {
		answers = []models.Answer{}
	}
	return c.JSON(answers)
}

// GetUserBookmarks handles GET /api/users/:id/bookmarks
// @Summary Own bookmarks with resolved targets
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {array} models.Bookmark
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{id}/bookmarks [get]
func (s *Server) GetUserBookmarks(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	bookmarks, err := s.userService.Bookmarks(c.UserContext(), viewerID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if bookmarks == nil {
		bookmarks = []models.Bookmark{}
	}
	return c.JSON(bookmarks)
}
