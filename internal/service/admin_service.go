package service

import (
	"context"

	"codecrew/internal/models"
	"codecrew/internal/repository"
)

const moderationQueueLimit = 50

type AdminService struct {
	problems  repository.ProblemRepository
	analytics repository.AnalyticsRepository
	content   *ProblemService
}

func NewAdminService(problems repository.ProblemRepository, analytics repository.AnalyticsRepository, content *ProblemService) *AdminService {
	return &AdminService{problems: problems, analytics: analytics, content: content}
}

// SetCanonical marks or unmarks a problem. A nil value means the request had
// no boolean.
func (s *AdminService) SetCanonical(ctx context.Context, problemID uint, canonical *bool) (*models.Problem, error) {
	if canonical == nil {
		return nil, models.NewValidationError("canonical must be a boolean")
	}
	if _, err := s.problems.GetByID(ctx, problemID); err != nil {
		return nil, err
	}
	problem, err := s.problems.Update(ctx, problemID, map[string]any{"canonical": *canonical})
	if err != nil {
		return nil, err
	}
	if err := s.content.attachAuthor(ctx, problem); err != nil {
		return nil, err
	}
	return problem, nil
}

// ModerationQueue lists severe, popular, non-canonical problems with author emails.
func (s *AdminService) ModerationQueue(ctx context.Context) ([]models.Problem, error) {
	problems, err := s.problems.ModerationQueue(ctx, moderationQueueLimit)
	if err != nil {
		return nil, err
	}
	if err := s.content.attachProblemAuthors(ctx, problems, true); err != nil {
		return nil, err
	}
	return problems, nil
}

// DeleteProblem runs the cascade delete. Moderators may not delete.
func (s *AdminService) DeleteProblem(ctx context.Context, actor *models.User, problemID uint) error {
	if actor == nil || !actor.HasRole(models.RoleAdmin) {
		return models.NewForbiddenError("Insufficient permissions")
	}
	if _, err := s.problems.GetByID(ctx, problemID); err != nil {
		return err
	}
	return s.content.deleteCascade(ctx, problemID)
}

func (s *AdminService) Analytics(ctx context.Context) (*models.Analytics, error) {
	return s.analytics.Summary(ctx)
}
