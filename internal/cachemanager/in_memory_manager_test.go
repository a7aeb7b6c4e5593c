package cachemanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewInMemoryCacheManager(t *testing.T) {
	require.NotPanics(t, func() {
		NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)
	})
}

type exampleComponent struct {
	Name string
	Type string
}

func TestInMemoryCacheManager_GetExistingValue_StructType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, exampleComponent]("component-cache", DefaultExpiration, DefaultCleanupInterval)
	example := exampleComponent{Name: "user", Type: "schema"}
	cache.Set(context.Background(), "component:user", example, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "component:user")
	require.True(t, ok)
	require.Equal(t, example, got)
}

func TestInMemoryCacheManager_GetWithNoExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("component-cache", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "missing")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWithExistingInvalidValueType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("component-cache", DefaultExpiration, DefaultCleanupInterval)

	cache.cache.Set("component:user", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "component:user")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_DeleteRemovesKeys(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("component-cache", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "a", "1", DefaultExpiration)
	cache.Set(context.Background(), "b", "2", DefaultExpiration)

	require.NoError(t, cache.Delete(context.Background(), "a", "b"))

	_, ok := cache.Get(context.Background(), "a")
	require.False(t, ok)
}

func TestInMemoryCacheManager_FlushEmptiesCache(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("component-cache", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "a", "1", DefaultExpiration)

	require.NoError(t, cache.Flush(context.Background()))

	_, ok := cache.Get(context.Background(), "a")
	require.False(t, ok)
}
