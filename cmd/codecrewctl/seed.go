package main

import (
	"errors"
	"fmt"

	"codecrew/internal/database"
	"codecrew/internal/seed"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var (
		opts  seed.Options
		force bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, the classification tree and sample problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if cfg.IsProduction() && !force {
				return errors.New("refusing to seed a production database without --force")
			}
			if opts.FakeUsers < 0 || opts.FakeProblems < 0 {
				return errors.New("fake counts must not be negative")
			}

			if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}

			summary, err := seed.Run(cmd.Context(), db, opts)
			if err != nil {
				return err
			}

			fmt.Printf("Users:           %d\n", summary.Users)
			fmt.Printf("Classifications: %d\n", summary.Classifications)
			fmt.Printf("Problems:        %d\n", summary.Problems)
			if summary.FakeUsers > 0 || summary.FakeProblems > 0 {
				fmt.Printf("Fake users:      %d\n", summary.FakeUsers)
				fmt.Printf("Fake problems:   %d\n", summary.FakeProblems)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "delete existing content before seeding")
	cmd.Flags().IntVar(&opts.FakeUsers, "fake-users", 0, "number of generated users to add")
	cmd.Flags().IntVar(&opts.FakeProblems, "fake-problems", 0, "number of generated problems to add")
	cmd.Flags().BoolVar(&force, "force", false, "allow seeding when APP_ENV is production")

	return cmd
}
