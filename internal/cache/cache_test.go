package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})
	return mr, rdb
}

func TestAside_LoadsOnceThenHits(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (payload, error) {
		calls++
		return payload{Name: "tree", Count: calls}, nil
	}

	first, err := Aside(ctx, rdb, "test", HierarchyKey, HierarchyTTL, load)
	require.NoError(t, err)
	second, err := Aside(ctx, rdb, "test", HierarchyKey, HierarchyTTL, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(HierarchyKey))
	assert.Equal(t, time.Hour, mr.TTL(HierarchyKey))
}

func TestAside_LoadErrorNotCached(t *testing.T) {
	mr, rdb := setupRedis(t)

	_, err := Aside(context.Background(), rdb, "test", ProblemKey(1), ProblemTTL, func(context.Context) (payload, error) {
		return payload{}, errors.New("db down")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists(ProblemKey(1)))
}

func TestAside_NilClientAlwaysLoads(t *testing.T) {
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := Aside(context.Background(), nil, "test", "k", time.Minute, func(context.Context) (int, error) {
			calls++
			return calls, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestAside_RedisDownFallsBack(t *testing.T) {
	mr, rdb := setupRedis(t)
	mr.Close()

	v, err := Aside(context.Background(), rdb, "test", "k", time.Minute, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestInvalidate(t *testing.T) {
	mr, _ := setupRedis(t)
	require.NoError(t, mr.Set(HierarchyKey, "x"))
	require.NoError(t, mr.Set(ProblemKey(9), "y"))

	InvalidateHierarchy(context.Background())
	InvalidateProblem(context.Background(), 9)

	assert.False(t, mr.Exists(HierarchyKey))
	assert.False(t, mr.Exists(ProblemKey(9)))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "problem:12", ProblemKey(12))
}
