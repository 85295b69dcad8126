package server

import (
	"codecrew/internal/models"
	"codecrew/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Vote handles POST /api/problems/vote
// @Summary Toggle a vote
// @Description Same value removes the vote, the opposite value flips it
// @Tags interactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.VoteInput true "Vote"
// @Success 200 {object} object{message=string,voted=bool,value=int}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /problems/vote [post]
func (s *Server) Vote(c *fiber.Ctx) error {
	var req service.VoteInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = viewerID(c)

	result, err := s.interactionService.Vote(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	resp := fiber.Map{"message": result.Message(), "voted": result.Voted()}
	if result.Voted() {
		resp["value"] = result.Value
	}
	return c.JSON(resp)
}

// ToggleBookmark handles POST /api/problems/bookmark
// @Summary Toggle a bookmark
// @Tags interactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.BookmarkInput true "Bookmark"
// @Success 200 {object} object{message=string,bookmarked=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /problems/bookmark [post]
func (s *Server) ToggleBookmark(c *fiber.Ctx) error {
	var req service.BookmarkInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = viewerID(c)

	bookmarked, err := s.interactionService.ToggleBookmark(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	message := "Bookmark removed"
	if bookmarked {
		message = "Bookmarked"
	}
	return c.JSON(fiber.Map{"message": message, "bookmarked": bookmarked})
}

// AcceptAnswer handles POST /api/problems/:problemId/answers/:answerId/accept
// @Summary Accept an answer
// @Tags answers
// @Produce json
// @Security BearerAuth
// @Param problemId path int true "Problem ID"
// @Param answerId path int true "Answer ID"
// @Success 200 {object} object{message=string,answer=models.Answer}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /problems/{problemId}/answers/{answerId}/accept [post]
func (s *Server) AcceptAnswer(c *fiber.Ctx) error {
	problemID, err := s.parseID(c, "problemId")
	if err != nil {
		return nil
	}
	answerID, err := s.parseID(c, "answerId")
	if err != nil {
		return nil
	}

	answer, err := s.answerService.Accept(c.UserContext(), viewerID(c), problemID, answerID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Answer accepted", "answer": answer})
}
