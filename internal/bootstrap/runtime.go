// Package bootstrap wires the database and Redis shared by the server and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"codecrew/internal/cache"
	"codecrew/internal/config"
	"codecrew/internal/database"
	"codecrew/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipSchema leaves the schema untouched, for commands that manage it themselves.
	SkipSchema bool
	// Seed loads the demo data after the schema is in place.
	Seed bool
}

// InitRuntime connects to the database and Redis, applies the schema policy
// and optionally seeds. The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: !opts.SkipSchema})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.Seed {
		if cfg.IsProduction() {
			slog.Warn("skipping demo seed in production")
		} else if _, err := seed.Run(context.Background(), db, seed.Options{}); err != nil {
			return nil, nil, fmt.Errorf("seed failed: %w", err)
		}
	}

	return db, r, nil
}
