package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"codecrew/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Aside returns the value cached under key, or calls load and caches its
// result for ttl. Redis failures degrade to calling load; they never fail the
// read. name labels the lookup metrics.
func Aside[T any](ctx context.Context, rdb *redis.Client, name, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if rdb == nil {
		return load(ctx)
	}

	raw, err := rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if uerr := json.Unmarshal(raw, &v); uerr == nil {
			observability.CacheLookups.WithLabelValues(name, "hit").Inc()
			return v, nil
		}
		// Stale encoding from an older release; fall through and overwrite.
		observability.CacheLookups.WithLabelValues(name, "error").Inc()
	case errors.Is(err, redis.Nil):
		observability.CacheLookups.WithLabelValues(name, "miss").Inc()
	default:
		observability.CacheLookups.WithLabelValues(name, "error").Inc()
		slog.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if encoded, merr := json.Marshal(v); merr == nil {
		if serr := rdb.Set(ctx, key, encoded, ttl).Err(); serr != nil {
			slog.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", serr.Error()))
		}
	}
	return v, nil
}
