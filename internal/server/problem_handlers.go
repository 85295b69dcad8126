package server

import (
	"codecrew/internal/middleware"
	"codecrew/internal/models"
	"codecrew/internal/service"

	"github.com/gofiber/fiber/v2"
)

func listInput(c *fiber.Ctx) service.ListProblemsInput {
	return service.ListProblemsInput{
		Classification: models.ClassificationIDs{
			DomainID:    queryUint(c, "domainId"),
			SubdomainID: queryUint(c, "subdomainId"),
			CategoryID:  queryUint(c, "categoryId"),
			TechStackID: queryUint(c, "techStackId"),
			LanguageID:  queryUint(c, "languageId"),
			TopicID:     queryUint(c, "topicId"),
		},
		Severity:   c.Query("severity"),
		Difficulty: c.Query("difficulty"),
		Canonical:  c.Query("canonical"),
		Solved:     c.Query("solved"),
		Search:     c.Query("search"),
		Sort:       c.Query("sort"),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 20),
	}
}

// ListProblems handles GET /api/problems
// @Summary List problems
// @Description Filter by classification, severity, difficulty, canonical, solved and search
// @Tags problems
// @Produce json
// @Param domainId query int false "Domain ID"
// @Param subdomainId query int false "Subdomain ID"
// @Param categoryId query int false "Category ID"
// @Param techStackId query int false "Tech stack ID"
// @Param languageId query int false "Language ID"
// @Param topicId query int false "Topic ID"
// @Param severity query string false "LOW, MEDIUM, HIGH or CRITICAL"
// @Param difficulty query string false "BEGINNER, INTERMEDIATE or ADVANCED"
// @Param canonical query bool false "Only canonical problems"
// @Param solved query bool false "Solved state"
// @Param search query string false "Search text"
// @Param sort query string false "newest, oldest, popular or views"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} models.ProblemPage
// @Failure 400 {object} models.ErrorResponse
// @Router /problems [get]
func (s *Server) ListProblems(c *fiber.Ctx) error {
	page, err := s.problemService.List(c.UserContext(), listInput(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetMajorProblems handles GET /api/problems/major
// @Summary Canonical problems grouped by severity
// @Tags problems
// @Produce json
// @Param limit query int false "Max problems" default(100)
// @Success 200 {object} service.MajorProblems
// @Router /problems/major [get]
func (s *Server) GetMajorProblems(c *fiber.Ctx) error {
	major, err := s.problemService.Major(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(major)
}

// GetProblemsByClassification handles GET /api/problems/class/:type/:id
// @Summary Problems under a classification node
// @Tags problems
// @Produce json
// @Param type path string true "domain, subdomain, category, techstack, language or topic"
// @Param id path int true "Node ID"
// @Success 200 {object} models.ProblemPage
// @Failure 400 {object} models.ErrorResponse
// @Router /problems/class/{type}/{id} [get]
func (s *Server) GetProblemsByClassification(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.problemService.ByClassification(c.UserContext(), c.Params("type"), id, listInput(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetProblem handles GET /api/problems/:id
// @Summary Problem detail
// @Description Counts a view and returns the problem with answers, comments and the caller's vote
// @Tags problems
// @Produce json
// @Param id path int true "Problem ID"
// @Success 200 {object} models.ProblemDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /problems/{id} [get]
func (s *Server) GetProblem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.problemService.Get(c.UserContext(), id, viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(detail)
}

// CreateProblem handles POST /api/problems
// @Summary Create a problem
// @Tags problems
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateProblemInput true "Problem"
// @Success 201 {object} models.Problem
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /problems [post]
func (s *Server) CreateProblem(c *fiber.Ctx) error {
	var req service.CreateProblemInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = viewerID(c)

	problem, err := s.problemService.Create(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(problem)
}

// UpdateProblem handles PATCH /api/problems/:id
// @Summary Update a problem
// @Tags problems
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Problem ID"
// @Param request body service.UpdateProblemInput true "Fields to change"
// @Success 200 {object} models.Problem
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /problems/{id} [patch]
func (s *Server) UpdateProblem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateProblemInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = middleware.CurrentUser(c)
	req.ProblemID = id

	problem, err := s.problemService.Update(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(problem)
}

// DeleteProblem handles DELETE /api/problems/:id
// @Summary Delete a problem with its answers, comments, votes and bookmarks
// @Tags problems
// @Produce json
// @Security BearerAuth
// @Param id path int true "Problem ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /problems/{id} [delete]
func (s *Server) DeleteProblem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.problemService.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Problem and associated data deleted successfully"})
}

// MarkSolved handles POST /api/problems/:id/solve
// @Summary Mark a problem as solved
// @Tags problems
// @Produce json
// @Security BearerAuth
// @Param id path int true "Problem ID"
// @Success 200 {object} object{message=string,problem=models.Problem}
// @Failure 403 {object} models.ErrorResponse
// @Router /problems/{id}/solve [post]
func (s *Server) MarkSolved(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	problem, err := s.problemService.MarkSolved(c.UserContext(), viewerID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Problem marked as solved", "problem": problem})
}

// CreateAnswer handles POST /api/problems/:id/answers
// @Summary Answer a problem
// @Tags answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Problem ID"
// @Param request body service.CreateAnswerInput true "Answer"
// @Success 201 {object} models.Answer
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /problems/{id}/answers [post]
func (s *Server) CreateAnswer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.CreateAnswerInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = viewerID(c)
	req.ProblemID = id

	answer, err := s.answerService.Create(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(answer)
}

// CreateComment handles POST /api/problems/comment
// @Summary Comment on a problem or answer
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateCommentInput true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /problems/comment [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req service.CreateCommentInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = viewerID(c)

	comment, err := s.commentService.Create(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
