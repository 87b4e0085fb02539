package prefetch_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/burrow/internal/adapters/prefetch"
)

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	// The parent directories do not exist yet; OpenCache creates them.
	path := filepath.Join(t.TempDir(), ".burrow", "cache", "prefetch.db")

	cache, err := prefetch.OpenCache(ctx, path)
	require.NoError(t, err)
	defer cache.Close()

	url := "https://registry.npmjs.org/lodash/-/lodash-4.17.21.tgz"

	got, err := cache.Get(ctx, url)
	require.NoError(t, err)
	assert.Empty(t, got, "unknown url reads as absent")

	require.NoError(t, cache.Put(ctx, url, "lodash", "sha256-first"))
	got, err = cache.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "sha256-first", got)

	// A second put for the same url replaces the hash.
	require.NoError(t, cache.Put(ctx, url, "lodash", "sha256-second"))
	got, err = cache.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "sha256-second", got)
}

func TestCache_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefetch.db")

	cache, err := prefetch.OpenCache(ctx, path)
	require.NoError(t, err)
	require.NoError(t, cache.Put(ctx, "https://example.com/a.tgz", "a", "sha256-aaa"))
	require.NoError(t, cache.Close())

	reopened, err := prefetch.OpenCache(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "https://example.com/a.tgz")
	require.NoError(t, err)
	assert.Equal(t, "sha256-aaa", got)
}
