package repository

import (
	"context"
	"errors"

	"codecrew/internal/models"
	"codecrew/internal/observability"

	"github.com/ecodeclub/ekit/slice"
	"gorm.io/gorm"
)

// AnswerRepository defines persistence operations for answers.
type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	GetByID(ctx context.Context, id uint) (*models.Answer, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Answer, error)
	// ListByProblem orders accepted first, then by upvotes, then oldest first.
	ListByProblem(ctx context.Context, problemID uint) ([]models.Answer, error)
	// ListByUser returns the newest answers of userID with their problem reference.
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Answer, error)
}

type answerRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewAnswerRepository returns an AnswerRepository backed by db.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db, log: observability.NewRepoLogger("answers")}
}

func (r *answerRepository) Create(ctx context.Context, answer *models.Answer) error {
	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"answer_id": answer.ID, "problem_id": answer.ProblemID})
	return nil
}

func (r *answerRepository) GetByID(ctx context.Context, id uint) (*models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).First(&answer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Answer")
		}
		return nil, models.NewInternalError(err)
	}
	return &answer, nil
}

func (r *answerRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Answer, error) {
	answers := make([]models.Answer, 0, len(ids))
	if len(ids) == 0 {
		return answers, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", uniqueIDs(ids)).Find(&answers).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return answers, nil
}

func (r *answerRepository) ListByProblem(ctx context.Context, problemID uint) ([]models.Answer, error) {
	answers := make([]models.Answer, 0)
	err := r.db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		Order("accepted DESC, upvotes DESC, created_at ASC, id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return answers, nil
}

func (r *answerRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Answer, error) {
	answers := make([]models.Answer, 0)
	err := r.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&answers).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(answers) == 0 {
		return answers, nil
	}

	var refs []models.ProblemRef
	problemIDs := slice.Map(answers, func(_ int, a models.Answer) uint { return a.ProblemID })
	if err := r.db.WithContext(ctx).Model(&models.Problem{}).
		Select("id", "title").
		Where("id IN ?", uniqueIDs(problemIDs)).
		Scan(&refs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	byID := slice.ToMap(refs, func(p models.ProblemRef) uint { return p.ID })
	for i := range answers {
		if ref, ok := byID[answers[i].ProblemID]; ok {
			answers[i].Problem = &ref
		}
	}
	return answers, nil
}
