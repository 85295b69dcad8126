package main

import (
	"fmt"
	"strconv"

	"codecrew/internal/database"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(migrateUpCmd(), migrateDownCmd(), migrateStatusCmd(), migrateAutoCmd())
	return cmd
}

func migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}
			fmt.Println("Migrations applied")
			return nil
		},
	}
}

func migrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down <version>",
		Short: "Revert one applied migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}

			_, db, err := connect()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Printf("Rolled back migration %d\n", version)
			return nil
		},
	}
}

func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the schema policy and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer closeDB(db)

			status, err := database.GetSchemaStatus(cmd.Context(), db, cfg)
			if err != nil {
				return err
			}

			fmt.Printf("Mode:         %s\n", status.Mode)
			fmt.Printf("Environment:  %s\n", status.Environment)
			fmt.Printf("Driver:       %s\n", status.Driver)
			fmt.Printf("SQL:          %t\n", status.WillRunSQL)
			fmt.Printf("AutoMigrate:  %t\n", status.WillRunAutoMigrate)
			if status.WillRunSQL {
				fmt.Printf("Applied:      %v\n", status.AppliedVersions)
				if len(status.PendingMigrations) == 0 {
					fmt.Println("Pending:      none")
				}
				for _, m := range status.PendingMigrations {
					fmt.Printf("Pending:      %s\n", m.String())
				}
			}
			return nil
		},
	}
}

func migrateAutoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auto",
		Short: "Run GORM AutoMigrate for every persistent model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer closeDB(db)

			cfg.DBSchemaMode = database.SchemaModeAuto
			if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
				return fmt.Errorf("auto migrate failed: %w", err)
			}
			fmt.Println("AutoMigrate completed")
			return nil
		},
	}
}
