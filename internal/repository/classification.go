package repository

import (
	"context"
	"fmt"

	"codecrew/internal/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ClassificationRepository reads the six-level classification tree.
type ClassificationRepository interface {
	Domains(ctx context.Context) ([]models.Domain, error)
	Subdomains(ctx context.Context, domainID uint) ([]models.Subdomain, error)
	Categories(ctx context.Context, subdomainID uint) ([]models.Category, error)
	TechStacks(ctx context.Context, categoryID uint) ([]models.TechStack, error)
	Languages(ctx context.Context, techStackID uint) ([]models.Language, error)
	Topics(ctx context.Context, languageID uint) ([]models.Topic, error)
	Hierarchy(ctx context.Context) (*models.Hierarchy, error)
	// ExistingDomainIDs returns the subset of ids naming real domains.
	ExistingDomainIDs(ctx context.Context, ids []uint) ([]uint, error)
	// Exists reports whether id names a row of level.
	Exists(ctx context.Context, level models.ClassLevel, id uint) (bool, error)
}

type classificationRepository struct {
	db *gorm.DB
}

// NewClassificationRepository returns a ClassificationRepository backed by db.
func NewClassificationRepository(db *gorm.DB) ClassificationRepository {
	return &classificationRepository{db: db}
}

// children lists rows of T under parentColumn = parentID, sorted by name.
func children[T any](ctx context.Context, db *gorm.DB, parentColumn string, parentID uint) ([]T, error) {
	out := make([]T, 0)
	q := db.WithContext(ctx).Order("name ASC")
	if parentColumn != "" {
		q = q.Where(parentColumn+" = ?", parentID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *classificationRepository) Domains(ctx context.Context) ([]models.Domain, error) {
	return children[models.Domain](ctx, r.db, "", 0)
}

func (r *classificationRepository) Subdomains(ctx context.Context, domainID uint) ([]models.Subdomain, error) {
	return children[models.Subdomain](ctx, r.db, "domain_id", domainID)
}

func (r *classificationRepository) Categories(ctx context.Context, subdomainID uint) ([]models.Category, error) {
	return children[models.Category](ctx, r.db, "subdomain_id", subdomainID)
}

func (r *classificationRepository) TechStacks(ctx context.Context, categoryID uint) ([]models.TechStack, error) {
	return children[models.TechStack](ctx, r.db, "category_id", categoryID)
}

func (r *classificationRepository) Languages(ctx context.Context, techStackID uint) ([]models.Language, error) {
	return children[models.Language](ctx, r.db, "tech_stack_id", techStackID)
}

func (r *classificationRepository) Topics(ctx context.Context, languageID uint) ([]models.Topic, error) {
	return children[models.Topic](ctx, r.db, "language_id", languageID)
}

// Hierarchy loads every level concurrently.
func (r *classificationRepository) Hierarchy(ctx context.Context) (*models.Hierarchy, error) {
	h := &models.Hierarchy{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { h.Domains, err = children[models.Domain](gctx, r.db, "", 0); return })
	g.Go(func() (err error) { h.Subdomains, err = children[models.Subdomain](gctx, r.db, "", 0); return })
	g.Go(func() (err error) { h.Categories, err = children[models.Category](gctx, r.db, "", 0); return })
	g.Go(func() (err error) { h.TechStacks, err = children[models.TechStack](gctx, r.db, "", 0); return })
	g.Go(func() (err error) { h.Languages, err = children[models.Language](gctx, r.db, "", 0); return })
	g.Go(func() (err error) { h.Topics, err = children[models.Topic](gctx, r.db, "", 0); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load hierarchy: %w", err)
	}
	return h, nil
}

func (r *classificationRepository) ExistingDomainIDs(ctx context.Context, ids []uint) ([]uint, error) {
	found := make([]uint, 0, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	if err := r.db.WithContext(ctx).Model(&models.Domain{}).
		Where("id IN ?", uniqueIDs(ids)).
		Pluck("id", &found).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return found, nil
}

func (r *classificationRepository) Exists(ctx context.Context, level models.ClassLevel, id uint) (bool, error) {
	table := level.Table()
	if table == "" {
		return false, fmt.Errorf("unknown classification level %q", level)
	}
	var n int64
	if err := r.db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}
