package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"codecrew/internal/models"
	"codecrew/internal/repository"
	"codecrew/internal/validation"

	"gorm.io/datatypes"
)

const (
	maxBioLen           = 500
	defaultProfileLimit = 10
)

type UserService struct {
	users          repository.UserRepository
	problems       repository.ProblemRepository
	answers        repository.AnswerRepository
	interactions   repository.InteractionRepository
	classification repository.ClassificationRepository
}

// UpdateProfileInput is a partial profile update. Nil fields are left unchanged.
type UpdateProfileInput struct {
	ActorID   uint    `json:"-"`
	UserID    uint    `json:"-"`
	Name      *string `json:"name"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatarUrl"`
	Interests *[]uint `json:"interests"`
}

func NewUserService(
	users repository.UserRepository,
	problems repository.ProblemRepository,
	answers repository.AnswerRepository,
	interactions repository.InteractionRepository,
	classification repository.ClassificationRepository,
) *UserService {
	return &UserService{
		users:          users,
		problems:       problems,
		answers:        answers,
		interactions:   interactions,
		classification: classification,
	}
}

// Profile returns the public view of a user with contribution stats.
func (s *UserService) Profile(ctx context.Context, userID uint) (*models.PublicProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.users.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.PublicProfile{
		ID:        user.ID,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Roles:     user.Roles,
		Bio:       user.Bio,
		Interests: user.Interests,
		CreatedAt: user.CreatedAt,
		Stats:     *stats,
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Me, error) {
	if in.ActorID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own profile")
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, models.NewValidationError("Name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio must be under 500 characters")
		}
		updates["bio"] = *in.Bio
	}
	if in.AvatarURL != nil {
		avatar := strings.TrimSpace(*in.AvatarURL)
		if avatar != "" && validation.ValidateHTTPURL(avatar) != nil {
			return nil, models.NewValidationError("Avatar must be a valid URL")
		}
		updates["avatar_url"] = avatar
	}
	if in.Interests != nil {
		found, err := s.classification.ExistingDomainIDs(ctx, *in.Interests)
		if err != nil {
			return nil, err
		}
		if len(found) != len(uniqueIDs(*in.Interests)) {
			return nil, models.NewValidationError("Interests must be existing domains")
		}
		updates["interests"] = datatypes.JSONSlice[uint](uniqueIDs(*in.Interests))
	}

	if len(updates) > 0 {
		if err := s.users.Update(ctx, in.UserID, updates); err != nil {
			return nil, err
		}
	}
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	me := user.ToMe()
	return &me, nil
}

func (s *UserService) Problems(ctx context.Context, userID uint, limit int) ([]models.Problem, error) {
	if limit < 1 || limit > maxPageLimit {
		limit = defaultProfileLimit
	}
	problems, err := s.problems.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	authors, err := s.users.Summaries(ctx, []uint{userID}, false)
	if err != nil {
		return nil, err
	}
	for i := range problems {
		problems[i].CreatedBy = authors[userID]
	}
	return problems, nil
}

func (s *UserService) Answers(ctx context.Context, userID uint, limit int) ([]models.Answer, error) {
	if limit < 1 || limit > maxPageLimit {
		limit = defaultProfileLimit
	}
	return s.answers.ListByUser(ctx, userID, limit)
}

func (s *UserService) Bookmarks(ctx context.Context, actorID, userID uint) ([]models.Bookmark, error) {
	if actorID != userID {
		return nil, models.NewForbiddenError("You can only view your own bookmarks")
	}
	return s.interactions.ListBookmarks(ctx, userID)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
