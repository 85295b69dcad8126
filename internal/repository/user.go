// Package repository implements the data access layer on top of GORM.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codecrew/internal/models"
	"codecrew/internal/observability"

	"github.com/ecodeclub/ekit/slice"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByEmail returns (nil, nil) when no account uses email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uint, updates map[string]any) error
	SetRoles(ctx context.Context, id uint, roles []models.Role) error
	AddProvider(ctx context.Context, id uint, provider models.OAuthProvider) error
	Summaries(ctx context.Context, ids []uint, withEmail bool) (map[uint]*models.UserSummary, error)
	Stats(ctx context.Context, id uint) (*models.UserStats, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User")
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if IsUniqueViolation(err) {
			return models.NewConflictError("Email already registered")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"user_id": user.ID})
	return nil
}

func (r *userRepository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User")
	}
	return nil
}

func (r *userRepository) SetRoles(ctx context.Context, id uint, roles []models.Role) error {
	return r.Update(ctx, id, map[string]any{"roles": datatypes.JSONSlice[models.Role](roles)})
}

// AddProvider links provider to the user unless a link for the same provider exists.
func (r *userRepository) AddProvider(ctx context.Context, id uint, provider models.OAuthProvider) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := forUpdate(tx).First(&user, id).Error; err != nil {
			return err
		}
		if user.HasProvider(provider.Provider) {
			return nil
		}
		providers := append(user.OAuthProviders, provider)
		return tx.Model(&user).Update("oauth_providers", providers).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("User")
	}
	if err != nil {
		return models.NewInternalError(fmt.Errorf("add oauth provider: %w", err))
	}
	r.log.LogUpdate(ctx, map[string]any{"user_id": id, "provider": provider.Provider})
	return nil
}

// Summaries loads author summaries keyed by user id. Unknown ids are absent.
func (r *userRepository) Summaries(ctx context.Context, ids []uint, withEmail bool) (map[uint]*models.UserSummary, error) {
	if len(ids) == 0 {
		return map[uint]*models.UserSummary{}, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).
		Select("id", "name", "avatar_url", "email").
		Where("id IN ?", uniqueIDs(ids)).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	summaries := slice.Map(users, func(_ int, u models.User) *models.UserSummary {
		s := &models.UserSummary{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
		if withEmail {
			s.Email = u.Email
		}
		return s
	})
	return slice.ToMap(summaries, func(s *models.UserSummary) uint { return s.ID }), nil
}

// Stats computes contribution counters with one query per counter, in parallel.
func (r *userRepository) Stats(ctx context.Context, id uint) (*models.UserStats, error) {
	var stats models.UserStats
	var problemUpvotes, answerUpvotes int64

	g, gctx := errgroup.WithContext(ctx)
	db := r.db.WithContext(gctx)
	g.Go(func() error {
		return db.Model(&models.Problem{}).Where("created_by = ?", id).Count(&stats.ProblemsPosted).Error
	})
	g.Go(func() error {
		return db.Model(&models.Answer{}).Where("created_by = ?", id).Count(&stats.AnswersGiven).Error
	})
	g.Go(func() error {
		return db.Model(&models.Answer{}).Where("created_by = ? AND accepted = ?", id, true).Count(&stats.AcceptedAnswers).Error
	})
	g.Go(func() error {
		return db.Model(&models.Problem{}).Where("created_by = ?", id).
			Select("COALESCE(SUM(upvotes), 0)").Scan(&problemUpvotes).Error
	})
	g.Go(func() error {
		return db.Model(&models.Answer{}).Where("created_by = ?", id).
			Select("COALESCE(SUM(upvotes), 0)").Scan(&answerUpvotes).Error
	})
	if err := g.Wait(); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("user stats: %w", err))
	}

	stats.UpvotesReceived = problemUpvotes + answerUpvotes
	return &stats, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
