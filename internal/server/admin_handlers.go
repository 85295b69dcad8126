package server

import (
	"codecrew/internal/middleware"
	"codecrew/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SetCanonical handles PATCH /api/admin/problems/:id/canonical
// @Summary Mark or unmark a problem as canonical
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Problem ID"
// @Param request body object{canonical=bool} true "Canonical flag"
// @Success 200 {object} object{message=string,problem=models.Problem}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/problems/{id}/canonical [patch]
func (s *Server) SetCanonical(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	// Decoded loosely so a non-boolean gets a field-specific message.
	var req struct {
		Canonical any `json:"canonical"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	var canonical *bool
	if v, ok := req.Canonical.(bool); ok {
		canonical = &v
	}

	problem, err := s.adminService.SetCanonical(c.UserContext(), id, canonical)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	message := "Problem unmarked as canonical"
	if problem.Canonical {
		message = "Problem marked as canonical"
	}
	return c.JSON(fiber.Map{"message": message, "problem": problem})
}

// GetModerationQueue handles GET /api/admin/moderation
// @Summary Severe popular problems awaiting a canonical decision
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{problems=[]models.Problem}
// @Router /admin/moderation [get]
func (s *Server) GetModerationQueue(c *fiber.Ctx) error {
	problems, err := s.adminService.ModerationQueue(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if problems == nil {
		problems = []models.Problem{}
	}
	return c.JSON(fiber.Map{"problems": problems})
}

// AdminDeleteProblem handles DELETE /api/admin/problems/:id
// @Summary Delete any problem (admin only)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Problem ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/problems/{id} [delete]
func (s *Server) AdminDeleteProblem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.adminService.DeleteProblem(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Problem deleted successfully"})
}

// GetAnalytics handles GET /api/admin/analytics
// @Summary Platform analytics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Analytics
// @Router /admin/analytics [get]
func (s *Server) GetAnalytics(c *fiber.Ctx) error {
	summary, err := s.adminService.Analytics(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(summary)
}

// GetFeatureFlags handles GET /api/admin/feature-flags
// @Summary Configured feature flags evaluated for the caller
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{flags=[]featureflags.Status}
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"flags": s.featureFlags.List(viewerID(c))})
}
