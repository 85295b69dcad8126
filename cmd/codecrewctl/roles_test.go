package main

import (
	"context"
	"testing"

	"codecrew/internal/models"
	"codecrew/internal/repository"
	"codecrew/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeRole(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "carol")
	require.NoError(t, db.Model(u).Update("email", "carol@example.com").Error)

	t.Run("grant is case-insensitive on email and idempotent", func(t *testing.T) {
		roles, err := changeRole(ctx, users, "Carol@Example.com", models.RoleModerator, true)
		require.NoError(t, err)
		assert.Equal(t, []models.Role{models.RoleUser, models.RoleModerator}, roles)

		roles, err = changeRole(ctx, users, "carol@example.com", models.RoleModerator, true)
		require.NoError(t, err)
		assert.Len(t, roles, 2)

		reloaded := testutil.Reload[models.User](t, db, u.ID)
		assert.True(t, reloaded.HasRole(models.RoleModerator))
	})

	t.Run("revoke", func(t *testing.T) {
		roles, err := changeRole(ctx, users, "carol@example.com", models.RoleModerator, false)
		require.NoError(t, err)
		assert.Equal(t, []models.Role{models.RoleUser}, roles)
		assert.False(t, testutil.Reload[models.User](t, db, u.ID).HasRole(models.RoleModerator))
	})

	t.Run("user role is permanent", func(t *testing.T) {
		_, err := changeRole(ctx, users, "carol@example.com", models.RoleUser, false)
		assert.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := changeRole(ctx, users, "carol@example.com", models.Role("owner"), true)
		assert.ErrorContains(t, err, "unknown role")
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := changeRole(ctx, users, "nobody@example.com", models.RoleAdmin, true)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeNotFound, appErr.Code)
	})
}
