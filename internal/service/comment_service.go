package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"codecrew/internal/cache"
	"codecrew/internal/models"
	"codecrew/internal/observability"
	"codecrew/internal/repository"
)

type CommentService struct {
	comments repository.CommentRepository
	problems repository.ProblemRepository
	answers  repository.AnswerRepository
	users    repository.UserRepository
}

type CreateCommentInput struct {
	UserID     uint              `json:"-"`
	ParentType models.TargetType `json:"parentType"`
	ParentID   uint              `json:"parentId"`
	Content    string            `json:"content"`
}

func NewCommentService(
	comments repository.CommentRepository,
	problems repository.ProblemRepository,
	answers repository.AnswerRepository,
	users repository.UserRepository,
) *CommentService {
	return &CommentService{comments: comments, problems: problems, answers: answers, users: users}
}

func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if !in.ParentType.Commentable() {
		return nil, models.NewValidationError("Invalid parent type")
	}
	if in.ParentID == 0 {
		return nil, models.NewValidationError("Parent ID is required")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return nil, models.NewValidationError("Comment must be at most 1000 characters")
	}

	// The thread cache is keyed by problem, so resolve it from the parent.
	problemID := in.ParentID
	if in.ParentType == models.TargetAnswer {
		answer, err := s.answers.GetByID(ctx, in.ParentID)
		if err != nil {
			return nil, err
		}
		problemID = answer.ProblemID
	} else if _, err := s.problems.GetByID(ctx, in.ParentID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ParentType:  in.ParentType,
		ParentID:    in.ParentID,
		CreatedByID: in.UserID,
		Content:     content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("comment").Inc()
	cache.InvalidateProblem(ctx, problemID)

	authors, err := s.users.Summaries(ctx, []uint{in.UserID}, false)
	if err != nil {
		return nil, err
	}
	comment.CreatedBy = authors[in.UserID]
	return comment, nil
}
