package repository

import (
	"context"
	"errors"
	"fmt"

	"codecrew/internal/models"
	"codecrew/internal/observability"

	"github.com/ecodeclub/ekit/slice"
	"gorm.io/gorm"
)

// targetTables maps a polymorphic target to its table.
var targetTables = map[models.TargetType]string{
	models.TargetProblem: "problems",
	models.TargetAnswer:  "answers",
	models.TargetComment: "comments",
}

// counterTables lists the targets that carry upvotes/downvotes columns.
// Comments are votable but keep no counters.
var counterTables = map[models.TargetType]string{
	models.TargetProblem: "problems",
	models.TargetAnswer:  "answers",
}

// InteractionRepository implements votes, bookmarks and answer acceptance.
// Every mutating method runs in a single transaction.
type InteractionRepository interface {
	Vote(ctx context.Context, userID uint, targetType models.TargetType, targetID uint, value int) (*models.VoteResult, error)
	ToggleBookmark(ctx context.Context, userID uint, targetType models.TargetType, targetID uint) (bool, error)
	AcceptAnswer(ctx context.Context, problemID, answerID uint) (*models.Answer, error)
	// UserVote returns the caller's vote value on a target, or nil.
	UserVote(ctx context.Context, userID uint, targetType models.TargetType, targetID uint) (*int, error)
	IsBookmarked(ctx context.Context, userID uint, targetType models.TargetType, targetID uint) (bool, error)
	// ListBookmarks returns the user's bookmarks, newest first, with targets resolved.
	ListBookmarks(ctx context.Context, userID uint) ([]models.Bookmark, error)
}

type interactionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewInteractionRepository returns an InteractionRepository backed by db.
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db, log: observability.NewRepoLogger("votes")}
}

// lockTarget verifies the target exists. Counter-bearing rows are locked
// FOR UPDATE on postgres so concurrent toggles on one target serialize.
func lockTarget(tx *gorm.DB, targetType models.TargetType, targetID uint) error {
	table, ok := targetTables[targetType]
	if !ok {
		return models.NewValidationError("Invalid target type")
	}
	q := tx.Table(table).Select("id").Where("id = ?", targetID)
	if _, counted := counterTables[targetType]; counted {
		q = forUpdate(q)
	}
	var row struct{ ID uint }
	if err := q.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError(string(targetType))
		}
		return err
	}
	return nil
}

// adjustCounters applies relative deltas so concurrent writers never lose updates.
func adjustCounters(tx *gorm.DB, targetType models.TargetType, targetID uint, up, down int) error {
	table, ok := counterTables[targetType]
	if !ok {
		return nil
	}
	updates := map[string]any{}
	if up != 0 {
		updates["upvotes"] = gorm.Expr("upvotes + ?", up)
	}
	if down != 0 {
		updates["downvotes"] = gorm.Expr("downvotes + ?", down)
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.Table(table).Where("id = ?", targetID).UpdateColumns(updates).Error
}

// deltas returns the (upvotes, downvotes) change for adding sign*value.
func deltas(value, sign int) (int, int) {
	if value > 0 {
		return sign, 0
	}
	return 0, sign
}

func (r *interactionRepository) Vote(ctx context.Context, userID uint, targetType models.TargetType, targetID uint, value int) (*models.VoteResult, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "Vote", "votes")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	result := &models.VoteResult{}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTarget(tx, targetType, targetID); err != nil {
			return err
		}

		var existing models.Vote
		err := forUpdate(tx).
			Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
			Take(&existing).Error

		var up, down int
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := &models.Vote{UserID: userID, TargetType: targetType, TargetID: targetID, Value: value}
			if err := tx.Create(vote).Error; err != nil {
				return err
			}
			result.Outcome, result.Value = models.VoteRecorded, value
			up, down = deltas(value, 1)
		case err != nil:
			return err
		case existing.Value == value:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			result.Outcome = models.VoteRemoved
			up, down = deltas(value, -1)
		default:
			if err := tx.Model(&existing).Update("value", value).Error; err != nil {
				return err
			}
			result.Outcome, result.Value = models.VoteChanged, value
			addUp, addDown := deltas(value, 1)
			subUp, subDown := deltas(existing.Value, -1)
			up, down = addUp+subUp, addDown+subDown
		}

		if err := adjustCounters(tx, targetType, targetID, up, down); err != nil {
			return err
		}
		if table, ok := counterTables[targetType]; ok {
			var counts struct{ Upvotes, Downvotes int }
			if err := tx.Table(table).Select("upvotes", "downvotes").Where("id = ?", targetID).Scan(&counts).Error; err != nil {
				return err
			}
			result.Upvotes, result.Downvotes = counts.Upvotes, counts.Downvotes
		}
		return nil
	})

	var appErr *models.AppError
	switch {
	case err == nil:
		r.log.LogUpdate(ctx, map[string]any{
			"user_id": userID, "target_type": targetType, "target_id": targetID, "outcome": result.Outcome,
		})
		return result, nil
	case errors.As(err, &appErr):
		return nil, appErr
	case IsUniqueViolation(err):
		return nil, models.NewConflictError("Vote was changed concurrently, please retry")
	default:
		r.log.LogError(ctx, err, "vote")
		return nil, models.NewInternalError(fmt.Errorf("vote toggle: %w", err))
	}
}

func (r *interactionRepository) ToggleBookmark(ctx context.Context, userID uint, targetType models.TargetType, targetID uint) (bool, error) {
	bookmarked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Bookmark
		err := forUpdate(tx).
			Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
			Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := lockTarget(tx, targetType, targetID); err != nil {
				return err
			}
			bookmarked = true
			return tx.Create(&models.Bookmark{UserID: userID, TargetType: targetType, TargetID: targetID}).Error
		case err != nil:
			return err
		default:
			return tx.Delete(&existing).Error
		}
	})

	var appErr *models.AppError
	switch {
	case err == nil:
		return bookmarked, nil
	case errors.As(err, &appErr):
		return false, appErr
	case IsUniqueViolation(err):
		return false, models.NewConflictError("Bookmark was changed concurrently, please retry")
	default:
		return false, models.NewInternalError(fmt.Errorf("bookmark toggle: %w", err))
	}
}

// AcceptAnswer clears every accepted flag on the problem and sets the chosen
// answer. The problem row lock serializes concurrent accepts.
func (r *interactionRepository) AcceptAnswer(ctx context.Context, problemID, answerID uint) (*models.Answer, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "AcceptAnswer", "answers")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var answer models.Answer
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var problem models.Problem
		if err := forUpdate(tx).Select("id").First(&problem, problemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Problem")
			}
			return err
		}
		if err := tx.Where("id = ? AND problem_id = ?", answerID, problemID).Take(&answer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Answer")
			}
			return err
		}
		if err := tx.Model(&models.Answer{}).
			Where("problem_id = ? AND accepted = ?", problemID, true).
			Update("accepted", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&answer).Update("accepted", true).Error; err != nil {
			return err
		}
		return nil
	})

	var appErr *models.AppError
	switch {
	case err == nil:
		r.log.LogUpdate(ctx, map[string]any{"problem_id": problemID, "accepted_answer_id": answerID})
		return &answer, nil
	case errors.As(err, &appErr):
		return nil, appErr
	default:
		r.log.LogError(ctx, err, "accept_answer")
		return nil, models.NewInternalError(fmt.Errorf("accept answer: %w", err))
	}
}

func (r *interactionRepository) UserVote(ctx context.Context, userID uint, targetType models.TargetType, targetID uint) (*int, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
		Take(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &vote.Value, nil
}

func (r *interactionRepository) IsBookmarked(ctx context.Context, userID uint, targetType models.TargetType, targetID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Bookmark{}).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *interactionRepository) ListBookmarks(ctx context.Context, userID uint) ([]models.Bookmark, error) {
	bookmarks := make([]models.Bookmark, 0)
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&bookmarks).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	idsOf := func(t models.TargetType) []uint {
		var ids []uint
		for _, b := range bookmarks {
			if b.TargetType == t {
				ids = append(ids, b.TargetID)
			}
		}
		return ids
	}

	var problems []models.Problem
	if ids := idsOf(models.TargetProblem); len(ids) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", uniqueIDs(ids)).Find(&problems).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	var answers []models.Answer
	if ids := idsOf(models.TargetAnswer); len(ids) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", uniqueIDs(ids)).Find(&answers).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	problemByID := slice.ToMap(problems, func(p models.Problem) uint { return p.ID })
	answerByID := slice.ToMap(answers, func(a models.Answer) uint { return a.ID })
	for i := range bookmarks {
		switch bookmarks[i].TargetType {
		case models.TargetProblem:
			if p, ok := problemByID[bookmarks[i].TargetID]; ok {
				bookmarks[i].Problem = &p
			}
		case models.TargetAnswer:
			if a, ok := answerByID[bookmarks[i].TargetID]; ok {
				bookmarks[i].Answer = &a
			}
		}
	}
	return bookmarks, nil
}
