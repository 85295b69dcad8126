package service

import (
	"context"
	"strings"
	"testing"

	"codecrew/internal/models"
	"codecrew/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Profile(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	user := testutil.CreateUser(t, env.db, "profiled")
	p := testutil.CreateProblem(t, env.db, user.ID, func(p *models.Problem) { p.Upvotes = 3 })
	testutil.CreateAnswer(t, env.db, p.ID, user.ID)

	profile, err := env.users.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "profiled", profile.Name)
	assert.Equal(t, int64(1), profile.Stats.ProblemsPosted)
	assert.Equal(t, int64(1), profile.Stats.AnswersGiven)
	assert.Equal(t, int64(3), profile.Stats.UpvotesReceived)

	_, err = env.users.Profile(ctx, 404)
	assertAppError(t, err, models.CodeNotFound, "User not found")
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	user := testutil.CreateUser(t, env.db, "editor")
	other := testutil.CreateUser(t, env.db, "other")
	domain := models.Domain{Name: "Web", Slug: "web"}
	require.NoError(t, env.db.Create(&domain).Error)

	_, err := env.users.UpdateProfile(ctx, UpdateProfileInput{ActorID: other.ID, UserID: user.ID, Name: ptr("x")})
	assertAppError(t, err, models.CodeForbidden, "You can only update your own profile")

	invalid := []struct {
		name    string
		in      UpdateProfileInput
		message string
	}{
		{"blank name", UpdateProfileInput{Name: ptr(" ")}, "Name cannot be empty"},
		{"long bio", UpdateProfileInput{Bio: ptr(strings.Repeat("b", 501))}, "Bio must be under 500 characters"},
		{"bad avatar", UpdateProfileInput{AvatarURL: ptr("not a url")}, "Avatar must be a valid URL"},
		{"unknown interest", UpdateProfileInput{Interests: &[]uint{domain.ID, 999}}, "Interests must be existing domains"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.ActorID, tt.in.UserID = user.ID, user.ID
			_, err := env.users.UpdateProfile(ctx, tt.in)
			assertAppError(t, err, models.CodeValidation, tt.message)
		})
	}

	me, err := env.users.UpdateProfile(ctx, UpdateProfileInput{
		ActorID:   user.ID,
		UserID:    user.ID,
		Name:      ptr(" New Name "),
		Bio:       ptr("Gopher"),
		AvatarURL: ptr("https://img.example/a.png"),
		Interests: &[]uint{domain.ID, domain.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", me.Name)
	assert.Equal(t, "Gopher", me.Bio)
	assert.Equal(t, "https://img.example/a.png", me.AvatarURL)
	assert.Equal(t, []uint{domain.ID}, me.Interests)
	assert.Equal(t, user.Email, me.Email)
}

func TestUserService_ContentAndBookmarks(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	user := testutil.CreateUser(t, env.db, "collector")
	other := testutil.CreateUser(t, env.db, "other")
	for i := 0; i < 12; i++ {
		testutil.CreateProblem(t, env.db, user.ID)
	}
	p := testutil.CreateProblem(t, env.db, other.ID)
	testutil.CreateAnswer(t, env.db, p.ID, user.ID)

	problems, err := env.users.Problems(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, problems, 10)
	assert.Equal(t, "collector", problems[0].CreatedBy.Name)

	answers, err := env.users.Answers(ctx, user.ID, 5)
	require.NoError(t, err)
	assert.Len(t, answers, 1)

	_, err = env.interactions.ToggleBookmark(ctx, BookmarkInput{UserID: user.ID, TargetType: models.TargetProblem, TargetID: p.ID})
	require.NoError(t, err)
	bookmarks, err := env.users.Bookmarks(ctx, user.ID, user.ID)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, p.ID, bookmarks[0].TargetID)

	_, err = env.users.Bookmarks(ctx, other.ID, user.ID)
	assertAppError(t, err, models.CodeForbidden, "You can only view your own bookmarks")
}
