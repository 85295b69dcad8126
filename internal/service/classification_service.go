package service

import (
	"context"

	"codecrew/internal/cache"
	"codecrew/internal/models"
	"codecrew/internal/repository"

	"github.com/redis/go-redis/v9"
)

// ClassificationService serves the read-only classification tree.
type ClassificationService struct {
	repo repository.ClassificationRepository
	rdb  *redis.Client
}

func NewClassificationService(repo repository.ClassificationRepository, rdb *redis.Client) *ClassificationService {
	return &ClassificationService{repo: repo, rdb: rdb}
}

func (s *ClassificationService) Domains(ctx context.Context) ([]models.Domain, error) {
	return s.repo.Domains(ctx)
}

func (s *ClassificationService) Subdomains(ctx context.Context, domainID uint) ([]models.Subdomain, error) {
	return s.repo.Subdomains(ctx, domainID)
}

func (s *ClassificationService) Categories(ctx context.Context, subdomainID uint) ([]models.Category, error) {
	return s.repo.Categories(ctx, subdomainID)
}

func (s *ClassificationService) TechStacks(ctx context.Context, categoryID uint) ([]models.TechStack, error) {
	return s.repo.TechStacks(ctx, categoryID)
}

func (s *ClassificationService) Languages(ctx context.Context, techStackID uint) ([]models.Language, error) {
	return s.repo.Languages(ctx, techStackID)
}

func (s *ClassificationService) Topics(ctx context.Context, languageID uint) ([]models.Topic, error) {
	return s.repo.Topics(ctx, languageID)
}

// Hierarchy returns the whole tree, cached for an hour.
func (s *ClassificationService) Hierarchy(ctx context.Context) (*models.Hierarchy, error) {
	return cache.Aside(ctx, s.rdb, "hierarchy", cache.HierarchyKey, cache.HierarchyTTL, s.repo.Hierarchy)
}
