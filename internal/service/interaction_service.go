package service

import (
	"context"

	"codecrew/internal/cache"
	"codecrew/internal/models"
	"codecrew/internal/notifications"
	"codecrew/internal/observability"
	"codecrew/internal/repository"
)

type InteractionService struct {
	interactions repository.InteractionRepository
	answers      repository.AnswerRepository
	events       *Realtime
}

type VoteInput struct {
	UserID     uint              `json:"-"`
	TargetType models.TargetType `json:"targetType"`
	TargetID   uint              `json:"targetId"`
	Value      int               `json:"value"`
}

type BookmarkInput struct {
	UserID     uint              `json:"-"`
	TargetType models.TargetType `json:"targetType"`
	TargetID   uint              `json:"targetId"`
}

func NewInteractionService(
	interactions repository.InteractionRepository,
	answers repository.AnswerRepository,
	events *Realtime,
) *InteractionService {
	return &InteractionService{interactions: interactions, answers: answers, events: events}
}

// Vote toggles the caller's vote on a target.
func (s *InteractionService) Vote(ctx context.Context, in VoteInput) (*models.VoteResult, error) {
	if !in.TargetType.Votable() {
		return nil, models.NewValidationError("Invalid target type")
	}
	if in.TargetID == 0 {
		return nil, models.NewValidationError("Target ID is required")
	}
	if in.Value != 1 && in.Value != -1 {
		return nil, models.NewValidationError("Vote value must be 1 or -1")
	}

	result, err := s.interactions.Vote(ctx, in.UserID, in.TargetType, in.TargetID, in.Value)
	if err != nil {
		observability.VotesTotal.WithLabelValues(string(in.TargetType), "error").Inc()
		return nil, err
	}
	observability.VotesTotal.WithLabelValues(string(in.TargetType), string(result.Outcome)).Inc()

	// Cached threads carry answer counters.
	if in.TargetType == models.TargetAnswer {
		if answer, err := s.answers.GetByID(ctx, in.TargetID); err == nil {
			cache.InvalidateProblem(ctx, answer.ProblemID)
		}
	}

	s.events.Emit(ctx, notifications.EventVoteChanged, map[string]any{
		"targetType": in.TargetType,
		"targetId":   in.TargetID,
		"upvotes":    result.Upvotes,
		"downvotes":  result.Downvotes,
	})
	return result, nil
}

// ToggleBookmark reports whether the target is bookmarked after the call.
func (s *InteractionService) ToggleBookmark(ctx context.Context, in BookmarkInput) (bool, error) {
	if !in.TargetType.Bookmarkable() {
		return false, models.NewValidationError("Invalid target type")
	}
	if in.TargetID == 0 {
		return false, models.NewValidationError("Target ID is required")
	}
	return s.interactions.ToggleBookmark(ctx, in.UserID, in.TargetType, in.TargetID)
}
