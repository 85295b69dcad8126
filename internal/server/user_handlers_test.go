package server

import (
	"fmt"
	"net/http"
	"testing"

	"codecrew/internal/models"
	"codecrew/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProfile(t *testing.T) {
	ts := newTestServer(t)
	u := testutil.CreateUser(t, ts.db, "erin")
	helper := testutil.CreateUser(t, ts.db, "frank")
	p := testutil.CreateProblem(t, ts.db, u.ID)
	testutil.CreateAnswer(t, ts.db, p.ID, helper.ID)

	resp := ts.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", u.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw := decode[map[string]any](t, resp)
	assert.Equal(t, "erin", raw["name"])
	assert.NotContains(t, raw, "email")
	assert.NotContains(t, raw, "passwordHash")

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", u.ID), nil, "")
	profile := decode[models.PublicProfile](t, resp)
	assert.EqualValues(t, 1, profile.Stats.ProblemsPosted)

	resp = ts.do(t, http.MethodGet, "/api/users/424242", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/problems", u.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Problem](t, resp), 1)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/answers", helper.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	answers := decode[[]models.Answer](t, resp)
	require.Len(t, answers, 1)
	require.NotNil(t, answers[0].Problem)
	assert.Equal(t, p.ID, answers[0].Problem.ID)
}

func TestUpdateUserProfile(t *testing.T) {
	ts := newTestServer(t)
	u := testutil.CreateUser(t, ts.db, "gina")
	other := testutil.CreateUser(t, ts.db, "hank")
	path := fmt.Sprintf("/api/users/%d", u.ID)

	resp := ts.do(t, http.MethodPatch, path, map[string]any{"bio": "Go and Postgres"}, ts.token(t, other))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You can only update your own profile", decode[models.ErrorResponse](t, resp).Error)

	resp = ts.do(t, http.MethodPatch, path, map[string]any{"name": "  "}, ts.token(t, u))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPatch, path, map[string]any{"bio": "Go and Postgres"}, ts.token(t, u))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Go and Postgres", testutil.Reload[models.User](t, ts.db, u.ID).Bio)

	resp = ts.do(t, http.MethodPatch, path, map[string]any{"bio": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
