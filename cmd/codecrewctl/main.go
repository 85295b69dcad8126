// Command codecrewctl runs maintenance tasks against the CodeCrew database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codecrew/internal/config"
	"codecrew/internal/database"
	"codecrew/internal/middleware"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:           "codecrewctl",
		Short:         "CodeCrew database and account maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(rolesCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// connect loads configuration and opens the database without touching the schema.
func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	level := os.Getenv("LOG_LEVEL")
	if verbose {
		level = "debug"
	}
	middleware.ConfigureLogger(cfg.Env, level, os.Stderr)

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
