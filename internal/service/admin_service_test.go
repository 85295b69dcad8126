package service

import (
	"context"
	"testing"

	"codecrew/internal/cache"
	"codecrew/internal/models"
	"codecrew/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_SetCanonical(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	p := testutil.CreateProblem(t, env.db, owner.ID)

	_, err := env.admin.SetCanonical(ctx, p.ID, nil)
	assertAppError(t, err, models.CodeValidation, "canonical must be a boolean")

	_, err = env.admin.SetCanonical(ctx, 404, ptr(true))
	assertAppError(t, err, models.CodeNotFound, "Problem not found")

	updated, err := env.admin.SetCanonical(ctx, p.ID, ptr(true))
	require.NoError(t, err)
	assert.True(t, updated.Canonical)
	assert.Equal(t, "owner", updated.CreatedBy.Name)

	updated, err = env.admin.SetCanonical(ctx, p.ID, ptr(false))
	require.NoError(t, err)
	assert.False(t, updated.Canonical)
}

func TestAdminService_ModerationQueue(t *testing.T) {
	env := newTestEnv(t, "")
	owner := testutil.CreateUser(t, env.db, "owner")
	hot := testutil.CreateProblem(t, env.db, owner.ID, func(p *models.Problem) {
		p.Severity = models.SeverityCritical
		p.Upvotes = 12
	})
	testutil.CreateProblem(t, env.db, owner.ID, func(p *models.Problem) {
		p.Severity = models.SeverityLow
		p.Upvotes = 50
	})
	testutil.CreateProblem(t, env.db, owner.ID, func(p *models.Problem) {
		p.Severity = models.SeverityHigh
		p.Upvotes = 40
		p.Canonical = true
	})

	queue, err := env.admin.ModerationQueue(context.Background())
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, hot.ID, queue[0].ID)
	assert.Equal(t, owner.Email, queue[0].CreatedBy.Email)
}

func TestAdminService_DeleteProblem(t *testing.T) {
	env := newTestEnv(t, "problem_cache=on")
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	mod := testutil.CreateUser(t, env.db, "mod", models.RoleModerator)
	admin := testutil.CreateUser(t, env.db, "admin", models.RoleAdmin)
	p := testutil.CreateProblem(t, env.db, owner.ID)
	require.NoError(t, env.mr.Set(cache.ProblemKey(p.ID), "{}"))

	err := env.admin.DeleteProblem(ctx, mod, p.ID)
	assertAppError(t, err, models.CodeForbidden, "Insufficient permissions")

	err = env.admin.DeleteProblem(ctx, admin, 404)
	assertAppError(t, err, models.CodeNotFound, "Problem not found")

	require.NoError(t, env.admin.DeleteProblem(ctx, admin, p.ID))
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &models.Problem{}, ""))
	assert.False(t, env.mr.Exists(cache.ProblemKey(p.ID)))
}

func TestAdminService_Analytics(t *testing.T) {
	env := newTestEnv(t, "")
	owner := testutil.CreateUser(t, env.db, "owner")
	testutil.CreateProblem(t, env.db, owner.ID, func(p *models.Problem) { p.Solved = true })
	testutil.CreateProblem(t, env.db, owner.ID)

	stats, err := env.admin.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalProblems)
	assert.Equal(t, int64(1), stats.SolvedProblems)
	assert.InDelta(t, 50.0, stats.SolveRate, 0.001)
	assert.Equal(t, int64(1), stats.TotalUsers)
}

func TestClassificationService_HierarchyIsCached(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	require.NoError(t, env.db.Create(&models.Domain{Name: "Web", Slug: "web"}).Error)

	first, err := env.classification.Hierarchy(ctx)
	require.NoError(t, err)
	require.Len(t, first.Domains, 1)
	assert.True(t, env.mr.Exists(cache.HierarchyKey))

	require.NoError(t, env.db.Create(&models.Domain{Name: "Mobile", Slug: "mobile"}).Error)
	cached, err := env.classification.Hierarchy(ctx)
	require.NoError(t, err)
	assert.Len(t, cached.Domains, 1)

	domains, err := env.classification.Domains(ctx)
	require.NoError(t, err)
	assert.Len(t, domains, 2)

	cache.InvalidateHierarchy(ctx)
	fresh, err := env.classification.Hierarchy(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh.Domains, 2)
}
