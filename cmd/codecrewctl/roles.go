package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"codecrew/internal/models"
	"codecrew/internal/repository"
	"codecrew/internal/validation"

	"github.com/spf13/cobra"
)

func rolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Grant or revoke user roles",
	}
	cmd.AddCommand(roleChangeCmd("grant", true), roleChangeCmd("revoke", false))
	return cmd
}

func roleChangeCmd(use string, grant bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email> <role>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a role (user, moderator, admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer closeDB(db)

			roles, err := changeRole(cmd.Context(), repository.NewUserRepository(db), args[0], models.Role(args[1]), grant)
			if err != nil {
				return err
			}
			fmt.Printf("%s now has roles: %v\n", args[0], roles)
			return nil
		},
	}
}

// changeRole adds or removes role for the user with email and returns the resulting role set.
// The base user role cannot be revoked.
func changeRole(ctx context.Context, users repository.UserRepository, email string, role models.Role, grant bool) ([]models.Role, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if !grant && role == models.RoleUser {
		return nil, fmt.Errorf("the %q role cannot be revoked", models.RoleUser)
	}

	user, err := users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User")
	}

	roles := slices.Clone([]models.Role(user.Roles))
	switch {
	case grant && !slices.Contains(roles, role):
		roles = append(roles, role)
	case !grant:
		roles = slices.DeleteFunc(roles, func(r models.Role) bool { return r == role })
	}
	if !slices.Contains(roles, models.RoleUser) {
		roles = append([]models.Role{models.RoleUser}, roles...)
	}

	if err := users.SetRoles(ctx, user.ID, roles); err != nil {
		return nil, err
	}
	return roles, nil
}
