package service

import (
	"context"
	"errors"
	"strings"

	"codecrew/internal/cache"
	"codecrew/internal/models"
	"codecrew/internal/notifications"
	"codecrew/internal/observability"
	"codecrew/internal/repository"
)

type AnswerService struct {
	problems     repository.ProblemRepository
	answers      repository.AnswerRepository
	interactions repository.InteractionRepository
	users        repository.UserRepository
	events       *Realtime
}

type CreateAnswerInput struct {
	UserID          uint   `json:"-"`
	ProblemID       uint   `json:"-"`
	ContentMarkdown string `json:"contentMarkdown"`
}

func NewAnswerService(
	problems repository.ProblemRepository,
	answers repository.AnswerRepository,
	interactions repository.InteractionRepository,
	users repository.UserRepository,
	events *Realtime,
) *AnswerService {
	return &AnswerService{
		problems:     problems,
		answers:      answers,
		interactions: interactions,
		users:        users,
		events:       events,
	}
}

func (s *AnswerService) Create(ctx context.Context, in CreateAnswerInput) (*models.Answer, error) {
	if strings.TrimSpace(in.ContentMarkdown) == "" {
		return nil, models.NewValidationError("Answer content is required")
	}
	if _, err := s.problems.GetByID(ctx, in.ProblemID); err != nil {
		return nil, err
	}

	answer := &models.Answer{
		ProblemID:       in.ProblemID,
		CreatedByID:     in.UserID,
		ContentMarkdown: in.ContentMarkdown,
	}
	if err := s.answers.Create(ctx, answer); err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("answer").Inc()
	cache.InvalidateProblem(ctx, in.ProblemID)

	authors, err := s.users.Summaries(ctx, []uint{in.UserID}, false)
	if err != nil {
		return nil, err
	}
	answer.CreatedBy = authors[in.UserID]

	s.events.Emit(ctx, notifications.EventAnswerCreated, map[string]any{
		"problemId": in.ProblemID,
		"answerId":  answer.ID,
	})
	return answer, nil
}

// Accept marks answerID as the problem's accepted answer, clearing any other.
func (s *AnswerService) Accept(ctx context.Context, actorID, problemID, answerID uint) (*models.Answer, error) {
	problem, err := s.problems.GetByID(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if problem.CreatedByID != actorID {
		return nil, models.NewForbiddenError("Only the problem creator can accept answers")
	}

	answer, err := s.interactions.AcceptAnswer(ctx, problemID, answerID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateProblem(ctx, problemID)

	authors, err := s.users.Summaries(ctx, []uint{answer.CreatedByID}, false)
	if err != nil {
		return nil, err
	}
	answer.CreatedBy = authors[answer.CreatedByID]

	s.events.Emit(ctx, notifications.EventAnswerAccepted, map[string]any{
		"problemId": problemID,
		"answerId":  answer.ID,
	})
	return answer, nil
}
