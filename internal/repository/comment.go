package repository

import (
	"context"

	"codecrew/internal/models"
	"codecrew/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	// ListForThread returns comments on the problem and on its answers, oldest first.
	ListForThread(ctx context.Context, problemID uint) ([]models.Comment, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository returns a CommentRepository backed by db.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{
		"comment_id":  comment.ID,
		"parent_type": comment.ParentType,
		"parent_id":   comment.ParentID,
	})
	return nil
}

func (r *commentRepository) ListForThread(ctx context.Context, problemID uint) ([]models.Comment, error) {
	db := r.db.WithContext(ctx)
	answerIDs := db.Model(&models.Answer{}).Select("id").Where("problem_id = ?", problemID)

	comments := make([]models.Comment, 0)
	err := db.
		Where("(parent_type = ? AND parent_id = ?) OR (parent_type = ? AND parent_id IN (?))",
			models.TargetProblem, problemID, models.TargetAnswer, answerIDs).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}
