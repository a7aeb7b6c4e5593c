package cachemanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadThroughCache_MissCallsLoaderAndCaches(t *testing.T) {
	backing := NewInMemoryCacheManager[string, string]("rt", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	rt := NewReadThroughCache(backing, func(ctx context.Context, name string) (string, error) {
		calls++
		return "resolved:" + name, nil
	}, false)

	got, err := rt.Get(context.Background(), "user", "user", DefaultExpiration)
	require.NoError(t, err)
	require.Equal(t, "resolved:user", got)
	require.Equal(t, 1, calls)

	// Second read is served from the cache.
	got, err = rt.Get(context.Background(), "user", "user", DefaultExpiration)
	require.NoError(t, err)
	require.Equal(t, "resolved:user", got)
	require.Equal(t, 1, calls)
}

func TestReadThroughCache_SkipCacheAlwaysCallsLoader(t *testing.T) {
	backing := NewInMemoryCacheManager[string, string]("rt", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	rt := NewReadThroughCache(backing, func(ctx context.Context, name string) (string, error) {
		calls++
		return name, nil
	}, true)

	_, err := rt.Get(context.Background(), "user", "user", DefaultExpiration)
	require.NoError(t, err)
	_, err = rt.Get(context.Background(), "user", "user", DefaultExpiration)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
