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

func TestVote_Toggle(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, "owner")
	voter := testutil.CreateUser(t, ts.db, "voter")
	p := testutil.CreateProblem(t, ts.db, owner.ID)
	tok := ts.token(t, voter)

	vote := func(value int) map[string]any {
		resp := ts.do(t, http.MethodPost, "/api/problems/vote",
			map[string]any{"targetType": "Problem", "targetId": p.ID, "value": value}, tok)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[map[string]any](t, resp)
	}

	body := vote(1)
	assert.Equal(t, "Vote recorded", body["message"])
	assert.Equal(t, true, body["voted"])
	assert.EqualValues(t, 1, body["value"])
	assert.Equal(t, 1, testutil.Reload[models.Problem](t, ts.db, p.ID).Upvotes)

	body = vote(-1)
	assert.Equal(t, "Vote changed", body["message"])
	reloaded := testutil.Reload[models.Problem](t, ts.db, p.ID)
	assert.Equal(t, 0, reloaded.Upvotes)
	assert.Equal(t, 1, reloaded.Downvotes)

	body = vote(-1)
	assert.Equal(t, "Vote removed", body["message"])
	assert.Equal(t, false, body["voted"])
	assert.NotContains(t, body, "value")
	assert.EqualValues(t, 0, testutil.Count(t, ts.db, &models.Vote{}, "user_id = ?", voter.ID))

	resp := ts.do(t, http.MethodGet, fmt.Sprintf("/api/problems/%d", p.ID), nil, tok)
	assert.Nil(t, decode[models.ProblemDetail](t, resp).UserVote)
}

func TestVote_Validation(t *testing.T) {
	ts := newTestServer(t)
	voter := testutil.CreateUser(t, ts.db, "voter")
	tok := ts.token(t, voter)

	tests := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{"bad type", map[string]any{"targetType": "User", "targetId": 1, "value": 1}, "Invalid target type"},
		{"bad value", map[string]any{"targetType": "Problem", "targetId": 1, "value": 2}, "Vote value must be 1 or -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/problems/vote", tt.body, tok)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.message, decode[models.ErrorResponse](t, resp).Error)
		})
	}

	resp := ts.do(t, http.MethodPost, "/api/problems/vote",
		map[string]any{"targetType": "Problem", "targetId": 1, "value": 1}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestToggleBookmark(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, "owner")
	reader := testutil.CreateUser(t, ts.db, "reader")
	p := testutil.CreateProblem(t, ts.db, owner.ID)
	tok := ts.token(t, reader)
	req := map[string]any{"targetType": "Problem", "targetId": p.ID}

	resp := ts.do(t, http.MethodPost, "/api/problems/bookmark", req, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "Bookmarked", body["message"])
	assert.Equal(t, true, body["bookmarked"])

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/bookmarks", reader.ID), nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bookmarks := decode[[]models.Bookmark](t, resp)
	require.Len(t, bookmarks, 1)
	require.NotNil(t, bookmarks[0].Problem)
	assert.Equal(t, p.ID, bookmarks[0].Problem.ID)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/bookmarks", reader.ID), nil, ts.token(t, owner))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/problems/bookmark", req, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode[map[string]any](t, resp)
	assert.Equal(t, "Bookmark removed", body["message"])
	assert.Equal(t, false, body["bookmarked"])

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/bookmarks", reader.ID), nil, tok)
	assert.Empty(t, decode[[]models.Bookmark](t, resp))
}
