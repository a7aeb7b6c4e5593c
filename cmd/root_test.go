package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/strand/internal/config"
)

const testDefs = `
components:
  - name: user
    type: schema
    definition:
      properties:
        id: string
        email: string
      required: [id]
systems:
  - name: shop
    components:
      schema:
        - ref: user
          required: true
`

// writeTestDefs creates a definition directory and points the global config
// at it, restoring the previous config when the test ends.
func writeTestDefs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "defs.yaml"), []byte(testDefs), 0o600))

	prev := cfg
	cfg = config.Defaults()
	cfg.ComponentDirs = []string{dir}
	t.Cleanup(func() { cfg = prev })
	return dir
}

func TestNewRuntime_RegistersDefinitions(t *testing.T) {
	writeTestDefs(t)

	ctx := context.Background()
	rt, err := newRuntime(ctx)
	require.NoError(t, err)
	defer rt.close(ctx)

	got, ok := rt.compiler.Registry().GetComponent("user")
	require.True(t, ok)
	require.NotEmpty(t, got.SourcePath)

	_, ok = rt.bundle.System("shop")
	require.True(t, ok)
}

func TestNewRuntime_CompilesThroughBundledPlugins(t *testing.T) {
	writeTestDefs(t)

	ctx := context.Background()
	rt, err := newRuntime(ctx)
	require.NoError(t, err)
	defer rt.close(ctx)

	code, err := rt.compiler.CompileComponent(ctx, "user")
	require.NoError(t, err)
	require.Contains(t, code, "email")

	result, err := rt.compiler.ValidateComponent(ctx, "user")
	require.NoError(t, err)
	require.True(t, result.IsValid)
}

func TestNewRuntime_RejectsInvalidConfig(t *testing.T) {
	prev := cfg
	cfg = config.Defaults()
	cfg.Cache.MaxEntries = -1
	t.Cleanup(func() { cfg = prev })

	_, err := newRuntime(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid configuration")
}

func TestNewRuntime_FailsOnBrokenDefinition(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"),
		[]byte("components:\n  - type: schema\n"), 0o600))

	prev := cfg
	cfg = config.Defaults()
	cfg.ComponentDirs = []string{dir}
	t.Cleanup(func() { cfg = prev })

	_, err := newRuntime(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "name is required")
}
