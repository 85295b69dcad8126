package repository

import (
	"context"
	"fmt"
	"math"

	"codecrew/internal/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// AnalyticsRepository computes the admin dashboard aggregates.
type AnalyticsRepository interface {
	Summary(ctx context.Context) (*models.Analytics, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository returns an AnalyticsRepository backed by db.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// Summary runs every aggregate concurrently.
func (r *analyticsRepository) Summary(ctx context.Context) (*models.Analytics, error) {
	out := &models.Analytics{
		SeverityStats:   make([]models.SeverityStat, 0),
		DifficultyStats: make([]models.DifficultyStat, 0),
	}

	g, gctx := errgroup.WithContext(ctx)
	db := r.db.WithContext(gctx)
	count := func(model any, dst *int64, where ...any) func() error {
		return func() error {
			q := db.Model(model)
			if len(where) > 0 {
				q = q.Where(where[0], where[1:]...)
			}
			return q.Count(dst).Error
		}
	}

	g.Go(count(&models.Problem{}, &out.TotalProblems))
	g.Go(count(&models.Problem{}, &out.SolvedProblems, "solved = ?", true))
	g.Go(count(&models.Problem{}, &out.CanonicalProblems, "canonical = ?", true))
	g.Go(count(&models.User{}, &out.TotalUsers))
	g.Go(count(&models.Answer{}, &out.TotalAnswers))
	g.Go(count(&models.Vote{}, &out.TotalVotes))
	g.Go(func() error {
		return db.Model(&models.Problem{}).
			Select("severity AS id, COUNT(*) AS count, AVG(CAST(upvotes AS FLOAT)) AS avg_upvotes, AVG(CAST(view_count AS FLOAT)) AS avg_views").
			Group("severity").
			Order("COUNT(*) DESC").
			Scan(&out.SeverityStats).Error
	})
	g.Go(func() error {
		return db.Model(&models.Problem{}).
			Select("difficulty AS id, COUNT(*) AS count, AVG(CAST(upvotes AS FLOAT)) AS avg_upvotes").
			Group("difficulty").
			Order("COUNT(*) DESC").
			Scan(&out.DifficultyStats).Error
	})

	if err := g.Wait(); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("analytics: %w", err))
	}

	out.SolveRate = solveRate(out.SolvedProblems, out.TotalProblems)
	return out, nil
}

// solveRate is solved/total as a percentage rounded to two decimals.
func solveRate(solved, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(solved)/float64(total)*10000) / 100
}

