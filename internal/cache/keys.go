package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	HierarchyKey     = "classification:hierarchy"
	ProblemKeyPrefix = "problem:%d"
)

const (
	HierarchyTTL = time.Hour
	ProblemTTL   = 5 * time.Minute
)

func ProblemKey(problemID uint) string {
	return fmt.Sprintf(ProblemKeyPrefix, problemID)
}

// Invalidate deletes keys. It is a no-op without Redis.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateHierarchy(ctx context.Context) {
	Invalidate(ctx, HierarchyKey)
}

func InvalidateProblem(ctx context.Context, problemID uint) {
	Invalidate(ctx, ProblemKey(problemID))
}
