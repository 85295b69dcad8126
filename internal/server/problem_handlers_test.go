package server

import (
	"fmt"
	"net/http"
	"testing"

	"codecrew/internal/models"
	"codecrew/internal/service"
	"codecrew/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemLifecycle(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, "owner")
	other := testutil.CreateUser(t, ts.db, "other")
	ownerTok, otherTok := ts.token(t, owner), ts.token(t, other)

	resp := ts.do(t, http.MethodPost, "/api/problems", map[string]any{
		"title":               "Goroutine leak in worker pool",
		"descriptionMarkdown": "Workers never exit after ctx cancel.",
		"severity":            "HIGH",
		"difficulty":          "INTERMEDIATE",
		"tags":                []string{"Go", "concurrency", "go"},
		"resources":           []map[string]string{{"type": "link", "url": "https://go.dev/blog/pipelines"}},
	}, ownerTok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Problem](t, resp)
	assert.Equal(t, owner.ID, created.CreatedByID)
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, "owner", created.CreatedBy.Name)
	path := fmt.Sprintf("/api/problems/%d", created.ID)

	t.Run("create requires auth", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/problems", map[string]any{"title": "x"}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("create validates", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/problems", map[string]any{
			"title": "t", "descriptionMarkdown": "d", "severity": "SEVERE", "difficulty": "BEGINNER",
		}, ownerTok)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid severity", decode[models.ErrorResponse](t, resp).Error)
	})

	t.Run("list and search", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/problems?search=goroutine&severity=HIGH", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[models.ProblemPage](t, resp)
		require.Len(t, page.Problems, 1)
		assert.Equal(t, created.ID, page.Problems[0].ID)
		assert.EqualValues(t, 1, page.Pagination.Total)

		resp = ts.do(t, http.MethodGet, "/api/problems?search=nothing-matches", nil, "")
		assert.Empty(t, decode[models.ProblemPage](t, resp).Problems)
	})

	t.Run("get detail", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, path, nil, otherTok)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		detail := decode[models.ProblemDetail](t, resp)
		assert.Equal(t, created.Title, detail.Problem.Title)
		assert.Nil(t, detail.UserVote)
		assert.False(t, detail.Bookmarked)
	})

	t.Run("get invalid id", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/problems/abc", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid ID", decode[models.ErrorResponse](t, resp).Error)
	})

	t.Run("get missing", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/problems/9999", nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Problem not found", decode[models.ErrorResponse](t, resp).Error)
	})

	t.Run("update by stranger is forbidden", func(t *testing.T) {
		resp := ts.do(t, http.MethodPatch, path, map[string]any{"title": "hijacked"}, otherTok)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("owner update ignores canonical", func(t *testing.T) {
		resp := ts.do(t, http.MethodPatch, path, map[string]any{"title": "Goroutine leak on shutdown", "canonical": true}, ownerTok)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		updated := decode[models.Problem](t, resp)
		assert.Equal(t, "Goroutine leak on shutdown", updated.Title)
		assert.False(t, updated.Canonical)
	})

	t.Run("answer, comment and accept", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, path+"/answers", map[string]string{"contentMarkdown": "Close the jobs channel."}, otherTok)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		answer := decode[models.Answer](t, resp)
		assert.Equal(t, created.ID, answer.ProblemID)

		resp = ts.do(t, http.MethodPost, "/api/problems/comment", map[string]any{
			"parentType": "Answer", "parentId": answer.ID, "content": "Also drain it.",
		}, ownerTok)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		acceptPath := fmt.Sprintf("%s/answers/%d/accept", path, answer.ID)
		resp = ts.do(t, http.MethodPost, acceptPath, nil, otherTok)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = ts.do(t, http.MethodPost, acceptPath, nil, ownerTok)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		accepted := decode[map[string]any](t, resp)
		assert.Equal(t, "Answer accepted", accepted["message"])
		author := accepted["answer"].(map[string]any)["createdBy"].(map[string]any)
		assert.EqualValues(t, answer.CreatedByID, author["id"])
		assert.True(t, testutil.Reload[models.Answer](t, ts.db, answer.ID).Accepted)

		resp = ts.do(t, http.MethodGet, path, nil, "")
		detail := decode[models.ProblemDetail](t, resp)
		require.Len(t, detail.Answers, 1)
		assert.True(t, detail.Answers[0].Accepted)
		assert.Len(t, detail.Comments, 1)
	})

	t.Run("accept with bad answer id", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, path+"/answers/zero/accept", nil, ownerTok)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid answer ID", decode[models.ErrorResponse](t, resp).Error)
	})

	t.Run("mark solved", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, path+"/solve", nil, otherTok)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = ts.do(t, http.MethodPost, path+"/solve", nil, ownerTok)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, testutil.Reload[models.Problem](t, ts.db, created.ID).Solved)
	})

	t.Run("delete", func(t *testing.T) {
		resp := ts.do(t, http.MethodDelete, path, nil, otherTok)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = ts.do(t, http.MethodDelete, path, nil, ownerTok)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Problem and associated data deleted successfully", decode[map[string]any](t, resp)["message"])
		assert.EqualValues(t, 0, testutil.Count(t, ts.db, &models.Problem{}, "id = ?", created.ID))
		assert.EqualValues(t, 0, testutil.Count(t, ts.db, &models.Answer{}, "problem_id = ?", created.ID))

		resp = ts.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCreateProblem_UnknownClassification(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, "owner")

	resp := ts.do(t, http.MethodPost, "/api/problems", map[string]any{
		"title":               "Hydration mismatch",
		"descriptionMarkdown": "Server and client markup differ.",
		"severity":            "LOW",
		"difficulty":          "BEGINNER",
		"domainId":            999999,
	}, ts.token(t, owner))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Unknown domain", decode[models.ErrorResponse](t, resp).Error)
}

func TestGetProblemsByClassification(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, "owner")
	domain := models.Domain{Name: "Web Development", Slug: "web-development"}
	require.NoError(t, ts.db.Create(&domain).Error)
	testutil.CreateProblem(t, ts.db, owner.ID, func(p *models.Problem) { p.DomainID = &domain.ID })
	testutil.CreateProblem(t, ts.db, owner.ID)

	resp := ts.do(t, http.MethodGet, fmt.Sprintf("/api/problems/class/domain/%d", domain.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[models.ProblemPage](t, resp).Problems, 1)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/problems/class/planet/%d", domain.ID), nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid classification type", decode[models.ErrorResponse](t, resp).Error)
}

func TestGetMajorProblems(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, "owner")
	testutil.CreateProblem(t, ts.db, owner.ID, func(p *models.Problem) {
		p.Canonical = true
		p.Severity = models.SeverityCritical
	})
	testutil.CreateProblem(t, ts.db, owner.ID, func(p *models.Problem) { p.Severity = models.SeverityCritical })

	resp := ts.do(t, http.MethodGet, "/api/problems/major", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	major := decode[service.MajorProblems](t, resp)
	assert.Len(t, major.Problems, 1)
	assert.Len(t, major.Grouped.Critical, 1)
	assert.Empty(t, major.Grouped.Low)
}
