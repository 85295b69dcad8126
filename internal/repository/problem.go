package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codecrew/internal/models"
	"codecrew/internal/observability"

	"gorm.io/gorm"
)

// ProblemSort selects the ORDER BY of a problem listing.
type ProblemSort string

const (
	SortNewest  ProblemSort = "newest"
	SortOldest  ProblemSort = "oldest"
	SortPopular ProblemSort = "popular"
	SortViews   ProblemSort = "views"
	// SortCanonical puts canonical problems first, then the most upvoted.
	SortCanonical ProblemSort = "canonical"
)

// ProblemFilter narrows a problem listing. Zero values mean "no filter".
type ProblemFilter struct {
	Classification models.ClassificationIDs
	Severity       models.Severity
	Difficulty     models.Difficulty
	CanonicalOnly  bool
	Solved         *bool
	Search         string
	Sort           ProblemSort
	Limit          int
	Offset         int
}

// ProblemRepository defines persistence operations for problems.
type ProblemRepository interface {
	List(ctx context.Context, f ProblemFilter) ([]models.Problem, int64, error)
	Major(ctx context.Context, limit int) ([]models.Problem, error)
	ModerationQueue(ctx context.Context, limit int) ([]models.Problem, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Problem, error)
	GetByID(ctx context.Context, id uint) (*models.Problem, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Problem, error)
	// IncrementViews bumps view_count atomically and returns the fresh row.
	IncrementViews(ctx context.Context, id uint) (*models.Problem, error)
	Create(ctx context.Context, problem *models.Problem) error
	Update(ctx context.Context, id uint, updates map[string]any) (*models.Problem, error)
	// DeleteCascade removes the problem and everything hanging off it in one transaction.
	DeleteCascade(ctx context.Context, id uint) error
}

type problemRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewProblemRepository returns a ProblemRepository backed by db.
func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db, log: observability.NewRepoLogger("problems")}
}

func (r *problemRepository) filtered(ctx context.Context, f ProblemFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Problem{})

	ids := f.Classification
	for _, c := range []struct {
		column string
		id     *uint
	}{
		{"domain_id", ids.DomainID},
		{"subdomain_id", ids.SubdomainID},
		{"category_id", ids.CategoryID},
		{"tech_stack_id", ids.TechStackID},
		{"language_id", ids.LanguageID},
		{"topic_id", ids.TopicID},
	} {
		if c.id != nil {
			q = q.Where(c.column+" = ?", *c.id)
		}
	}

	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.Difficulty != "" {
		q = q.Where("difficulty = ?", f.Difficulty)
	}
	if f.CanonicalOnly {
		q = q.Where("canonical = ?", true)
	}
	if f.Solved != nil {
		q = q.Where("solved = ?", *f.Solved)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		op := ilike(r.db)
		pattern := containsPattern(term)
		q = q.Where(
			fmt.Sprintf(`(title %[1]s ? ESCAPE '\' OR description_markdown %[1]s ? ESCAPE '\' OR CAST(tags AS TEXT) %[1]s ? ESCAPE '\')`, op),
			pattern, pattern, pattern,
		)
	}
	// Reusable for both Count and Find.
	return q.Session(&gorm.Session{})
}

func orderFor(sort ProblemSort) string {
	switch sort {
	case SortPopular:
		return "upvotes DESC, created_at DESC"
	case SortViews:
		return "view_count DESC, created_at DESC"
	case SortOldest:
		return "created_at ASC, id ASC"
	case SortCanonical:
		return "canonical DESC, upvotes DESC, created_at DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

func (r *problemRepository) List(ctx context.Context, f ProblemFilter) ([]models.Problem, int64, error) {
	defer observability.TrackQuery("list", "problems")()

	q := r.filtered(ctx, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	problems := make([]models.Problem, 0)
	find := q.Order(orderFor(f.Sort)).Offset(f.Offset)
	if f.Limit > 0 {
		find = find.Limit(f.Limit)
	}
	if err := find.Find(&problems).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return problems, total, nil
}

func (r *problemRepository) Major(ctx context.Context, limit int) ([]models.Problem, error) {
	problems := make([]models.Problem, 0)
	err := r.db.WithContext(ctx).
		Where("canonical = ?", true).
		Order("upvotes DESC, view_count DESC").
		Limit(limit).
		Find(&problems).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return problems, nil
}

// ModerationQueue lists popular severe problems that no one has marked canonical yet.
func (r *problemRepository) ModerationQueue(ctx context.Context, limit int) ([]models.Problem, error) {
	problems := make([]models.Problem, 0)
	err := r.db.WithContext(ctx).
		Where("severity IN ?", []models.Severity{models.SeverityCritical, models.SeverityHigh}).
		Where("canonical = ?", false).
		Where("upvotes >= ?", 10).
		Order("upvotes DESC").
		Limit(limit).
		Find(&problems).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return problems, nil
}

func (r *problemRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Problem, error) {
	problems := make([]models.Problem, 0)
	err := r.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&problems).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return problems, nil
}

func (r *problemRepository) GetByID(ctx context.Context, id uint) (*models.Problem, error) {
	var problem models.Problem
	if err := r.db.WithContext(ctx).First(&problem, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Problem")
		}
		return nil, models.NewInternalError(err)
	}
	return &problem, nil
}

func (r *problemRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Problem, error) {
	problems := make([]models.Problem, 0, len(ids))
	if len(ids) == 0 {
		return problems, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", uniqueIDs(ids)).Find(&problems).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return problems, nil
}

func (r *problemRepository) IncrementViews(ctx context.Context, id uint) (*models.Problem, error) {
	res := r.db.WithContext(ctx).Model(&models.Problem{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Problem")
	}
	return r.GetByID(ctx, id)
}

func (r *problemRepository) Create(ctx context.Context, problem *models.Problem) error {
	if err := r.db.WithContext(ctx).Create(problem).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"problem_id": problem.ID, "created_by": problem.CreatedByID})
	return nil
}

func (r *problemRepository) Update(ctx context.Context, id uint, updates map[string]any) (*models.Problem, error) {
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Problem{ID: id}).Updates(updates)
		if res.Error != nil {
			r.log.LogError(ctx, res.Error, "update")
			return nil, models.NewInternalError(res.Error)
		}
		r.log.LogUpdate(ctx, map[string]any{"problem_id": id, "fields": len(updates)})
	}
	return r.GetByID(ctx, id)
}

func (r *problemRepository) DeleteCascade(ctx context.Context, id uint) error {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "DeleteCascade", "problems")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var problem models.Problem
		if err := forUpdate(tx).Select("id").First(&problem, id).Error; err != nil {
			return err
		}

		var answerIDs []uint
		if err := tx.Model(&models.Answer{}).Where("problem_id = ?", id).Pluck("id", &answerIDs).Error; err != nil {
			return err
		}

		parents := newTargetSet("parent_type", "parent_id")
		parents.add(models.TargetProblem, id)
		parents.add(models.TargetAnswer, answerIDs...)
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where(parents.clause()).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}

		targets := newTargetSet("target_type", "target_id")
		targets.add(models.TargetProblem, id)
		targets.add(models.TargetAnswer, answerIDs...)
		if err := tx.Where(targets.clause()).Delete(&models.Bookmark{}).Error; err != nil {
			return fmt.Errorf("delete bookmarks: %w", err)
		}

		targets.add(models.TargetComment, commentIDs...)
		if err := tx.Where(targets.clause()).Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("delete votes: %w", err)
		}

		if len(commentIDs) > 0 {
			if err := tx.Where("id IN ?", commentIDs).Delete(&models.Comment{}).Error; err != nil {
				return fmt.Errorf("delete comments: %w", err)
			}
		}
		if err := tx.Where("problem_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		if err := tx.Delete(&models.Problem{}, id).Error; err != nil {
			return fmt.Errorf("delete problem: %w", err)
		}
		return nil
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("Problem")
	}
	if err != nil {
		r.log.LogError(ctx, err, "delete_cascade")
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]any{"problem_id": id})
	return nil
}

// targetSet builds "(type = ? AND id IN ?) OR ..." over a polymorphic reference.
type targetSet struct {
	typeColumn string
	idColumn   string
	parts      []string
	args       []any
}

func newTargetSet(typeColumn, idColumn string) *targetSet {
	return &targetSet{typeColumn: typeColumn, idColumn: idColumn}
}

func (s *targetSet) add(t models.TargetType, ids ...uint) {
	if len(ids) == 0 {
		return
	}
	s.parts = append(s.parts, fmt.Sprintf("(%s = ? AND %s IN ?)", s.typeColumn, s.idColumn))
	s.args = append(s.args, t, ids)
}

// clause returns the condition as a gorm.Expr for Where.
func (s *targetSet) clause() any {
	return gorm.Expr(strings.Join(s.parts, " OR "), s.args...)
}
