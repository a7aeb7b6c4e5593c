package definition

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/strand/internal/component"
)

const userYAML = `
components:
  - name: user
    type: schema
    description: User record
    tags: [core]
    definition:
      properties:
        id: string
        email: string
      required: [id]
    related:
      - ref: order
        relationship: referenced-by
systems:
  - name: shop
    components:
      schema:
        - ref: user
          required: true
        - ref: order
`

func TestParse_ComponentsAndSystems(t *testing.T) {
	bundle, err := Parse([]byte(userYAML), "defs/user.yaml")
	require.NoError(t, err)

	require.Len(t, bundle.Components, 1)
	user := bundle.Components[0]
	require.Equal(t, "user", user.Name)
	require.Equal(t, component.TypeSchema, user.Type)
	require.Equal(t, "defs/user.yaml", user.SourcePath)
	require.True(t, user.HasTag("core"))
	require.Equal(t, []component.RelatedRef{{Ref: "order", Relationship: "referenced-by"}}, user.Related)

	props, ok := user.Definition["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, props, "email")

	shop, ok := bundle.System("shop")
	require.True(t, ok)
	refs := shop.Components[component.TypeSchema]
	require.Len(t, refs, 2)
	require.True(t, refs[0].Required)
	require.False(t, refs[1].Required)
}

func TestParse_RejectsMissingName(t *testing.T) {
	_, err := Parse([]byte("components:\n  - type: schema\n"), "bad.yaml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "name is required")
}

func TestParse_RejectsUnknownType(t *testing.T) {
	_, err := Parse([]byte("components:\n  - name: x\n    type: widget\n"), "bad.yaml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown type")
}

func TestParse_RejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("components: [\n"), "broken.yaml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken.yaml")
}

func TestLoadDir_MergesAllDefinitionFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"defs/user.yaml":   {Data: []byte("components:\n  - name: user\n    type: schema\n")},
		"defs/order.yml":   {Data: []byte("components:\n  - name: order\n    type: schema\n")},
		"defs/notes.txt":   {Data: []byte("not a definition")},
		"defs/sub/sys.yml": {Data: []byte("systems:\n  - name: shop\n")},
	}

	bundle, err := LoadDir(fsys, "defs")
	require.NoError(t, err)
	require.Len(t, bundle.Components, 2)
	require.Len(t, bundle.Systems, 1)
}

func TestLoadFile_ReadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.yaml")
	require.NoError(t, os.WriteFile(path, []byte(userYAML), 0o600))

	bundle, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, bundle.Components, 1)
	require.Equal(t, path, bundle.Components[0].SourcePath)
}

func TestSystem_NotFound(t *testing.T) {
	_, ok := Bundle{}.System("ghost")
	require.False(t, ok)
}
