package seed

import (
	"context"
	"testing"

	"codecrew/internal/models"
	"codecrew/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoad_EmbeddedData(t *testing.T) {
	data, err := Load()
	require.NoError(t, err)

	assert.Len(t, data.Users, 3)
	assert.Len(t, data.Domains, 3)
	assert.Len(t, data.Problems, 10)
	assert.Equal(t, "admin@studenthub.com", data.Users[0].Email)
	assert.Equal(t, []string{"user", "admin"}, data.Users[0].Roles)
}

func TestNode_SlugOrDefault(t *testing.T) {
	assert.Equal(t, "vuejs", Node{Name: "Vue.js", Slug: "vuejs"}.SlugOrDefault())
	assert.Equal(t, "ui-css", Node{Name: "UI & CSS"}.SlugOrDefault())
}

func TestRun_LoadsFixedData(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	summary, err := Run(ctx, db, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Users)
	assert.Equal(t, 10, summary.Problems)

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@studenthub.com").First(&admin).Error)
	assert.True(t, admin.HasRole(models.RoleAdmin))
	require.NotNil(t, admin.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*admin.PasswordHash), []byte("admin123")))

	assert.EqualValues(t, 3, testutil.Count(t, db, &models.Domain{}, ""))
	assert.EqualValues(t, 6, testutil.Count(t, db, &models.Problem{}, "canonical = ?", true))

	var generics models.Problem
	require.NoError(t, db.Where("title = ?", "TypeScript Generic Constraints").First(&generics).Error)
	require.NotNil(t, generics.LanguageID)
	require.NotNil(t, generics.TopicID)
	var lang models.Language
	require.NoError(t, db.First(&lang, *generics.LanguageID).Error)
	assert.Equal(t, "typescript", lang.Slug)
	assert.Equal(t, []string{"typescript", "generics", "type-safety"}, []string(generics.Tags))
}

func TestRun_Idempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	_, err := Run(ctx, db, Options{})
	require.NoError(t, err)
	summary, err := Run(ctx, db, Options{})
	require.NoError(t, err)

	assert.Zero(t, summary.Users)
	assert.Zero(t, summary.Classifications)
	assert.Zero(t, summary.Problems)
	assert.EqualValues(t, 3, testutil.Count(t, db, &models.User{}, ""))
	assert.EqualValues(t, 10, testutil.Count(t, db, &models.Problem{}, ""))
}

func TestRun_CleanAndFake(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "stale")
	testutil.CreateProblem(t, db, owner.ID)

	summary, err := Run(ctx, db, Options{Clean: true, FakeUsers: 4, FakeProblems: 6})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.FakeUsers)
	assert.Equal(t, 6, summary.FakeProblems)

	assert.EqualValues(t, 0, testutil.Count(t, db, &models.User{}, "id = ?", owner.ID))
	assert.EqualValues(t, 7, testutil.Count(t, db, &models.User{}, ""))
	assert.EqualValues(t, 16, testutil.Count(t, db, &models.Problem{}, ""))
	assert.EqualValues(t, 6, testutil.Count(t, db, &models.Answer{}, ""))
}

func TestTreeIndex_ResolveUnknownPath(t *testing.T) {
	idx := treeIndex{"web-development": 1}
	_, err := idx.resolve(ProblemPath{Domain: "web-development", Subdomain: "nope"})
	assert.Error(t, err)

	ids, err := idx.resolve(ProblemPath{Domain: "web-development"})
	require.NoError(t, err)
	require.NotNil(t, ids.DomainID)
	assert.Equal(t, uint(1), *ids.DomainID)
	assert.Nil(t, ids.SubdomainID)
}
