package server

import (
	"context"

	"codecrew/internal/models"

	"github.com/gofiber/fiber/v2"
)

// children answers with the nodes under the parent named by the :id param.
func children[T any](s *Server, c *fiber.Ctx, load func(context.Context, uint) ([]T, error)) error {
	parentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	nodes, err := load(c.UserContext(), parentID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if nodes == nil {
		nodes = []T{}
	}
	return c.JSON(nodes)
}

// GetDomains handles GET /api/domains
// @Summary List domains
// @Tags classification
// @Produce json
// @Success 200 {array} models.Domain
// @Router /domains [get]
func (s *Server) GetDomains(c *fiber.Ctx) error {
	domains, err := s.classificationService.Domains(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if domains == nil {
		domains = []models.Domain{}
	}
	return c.JSON(domains)
}

// GetSubdomains handles GET /api/domains/:id/subdomains
// @Summary List subdomains of a domain
// @Tags classification
// @Produce json
// @Param id path int true "Domain ID"
// @Success 200 {array} models.Subdomain
// @Router /domains/{id}/subdomains [get]
func (s *Server) GetSubdomains(c *fiber.Ctx) error {
	return children(s, c, s.classificationService.Subdomains)
}

// GetCategories handles GET /api/subdomains/:id/categories
// @Summary List categories of a subdomain
// @Tags classification
// @Produce json
// @Param id path int true "Subdomain ID"
// @Success 200 {array} models.Category
// @Router /subdomains/{id}/categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	return children(s, c, s.classificationService.Categories)
}

// GetTechStacks handles GET /api/categories/:id/techstacks
// @Summary List tech stacks of a category
// @Tags classification
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {array} models.TechStack
// @Router /categories/{id}/techstacks [get]
func (s *Server) GetTechStacks(c *fiber.Ctx) error {
	return children(s, c, s.classificationService.TechStacks)
}

// GetLanguages handles GET /api/techstacks/:id/languages
// @Summary List languages of a tech stack
// @Tags classification
// @Produce json
// @Param id path int true "Tech stack ID"
// @Success 200 {array} models.Language
// @Router /techstacks/{id}/languages [get]
func (s *Server) GetLanguages(c *fiber.Ctx) error {
	return children(s, c, s.classificationService.Languages)
}

// GetTopics handles GET /api/languages/:id/topics
// @Summary List topics of a language
// @Tags classification
// @Produce json
// @Param id path int true "Language ID"
// @Success 200 {array} models.Topic
// @Router /languages/{id}/topics [get]
func (s *Server) GetTopics(c *fiber.Ctx) error {
	return children(s, c, s.classificationService.Topics)
}

// GetHierarchy handles GET /api/hierarchy
// @Summary Whole classification tree
// @Tags classification
// @Produce json
// @Success 200 {object} models.Hierarchy
// @Router /hierarchy [get]
func (s *Server) GetHierarchy(c *fiber.Ctx) error {
	h, err := s.classificationService.Hierarchy(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(h)
}
