package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/strand/internal/component"
)

func schemaComponent(name string, tags ...string) component.Component {
	return component.Component{
		Name: name,
		Type: component.TypeSchema,
		Tags: tags,
		Definition: map[string]any{
			"properties": map[string]any{"id": "string"},
		},
	}
}

func TestRegistry_RegisterRoundTrip(t *testing.T) {
	r := New()

	c := schemaComponent("user", "core")
	require.NoError(t, r.Register(c))

	got, ok := r.GetComponent("user")
	require.True(t, ok)
	require.Equal(t, c, got)
}

func TestRegistry_RegisterOverwritesExistingName(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(schemaComponent("user")))
	updated := schemaComponent("user")
	updated.Description = "second registration wins"
	require.NoError(t, r.Register(updated))

	got, ok := r.GetComponent("user")
	require.True(t, ok)
	require.Equal(t, "second registration wins", got.Description)
	require.Equal(t, 1, r.Len())
}

func TestRegistry_RemoveMakesComponentUnreachable(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(schemaComponent("user")))

	require.True(t, r.Remove("user"))
	_, ok := r.GetComponent("user")
	require.False(t, ok)

	require.False(t, r.Remove("user"))
}

func TestRegistry_FindComponentsByType(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(schemaComponent("user")))
	require.NoError(t, r.Register(component.Component{Name: "create-user", Type: component.TypeCommand}))

	results, err := r.FindComponents(Criteria{Type: component.TypeCommand})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "create-user", results[0].Name)
}

func TestRegistry_FindComponentsByAnyTag(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(schemaComponent("user", "core", "auth")))
	require.NoError(t, r.Register(schemaComponent("order", "billing")))
	require.NoError(t, r.Register(schemaComponent("audit")))

	results, err := r.FindComponents(Criteria{Tags: []string{"auth", "billing"}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "order", results[0].Name)
	require.Equal(t, "user", results[1].Name)
}

func TestRegistry_FindComponentsByNamePattern(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(schemaComponent("user")))
	require.NoError(t, r.Register(schemaComponent("user-profile")))
	require.NoError(t, r.Register(schemaComponent("order")))

	results, err := r.FindComponents(Criteria{NamePattern: "^user"})
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestRegistry_FindComponentsRejectsBadPattern(t *testing.T) {
	r := New()

	_, err := r.FindComponents(Criteria{NamePattern: "("})
	require.Error(t, err)
}

func TestRegistry_FindComponentsConjunctive(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(schemaComponent("user", "core")))
	require.NoError(t, r.Register(schemaComponent("user-profile", "core")))
	require.NoError(t, r.Register(component.Component{Name: "user-created", Type: component.TypeEvent, Tags: []string{"core"}}))

	results, err := r.FindComponents(Criteria{
		Type:        component.TypeSchema,
		Tags:        []string{"core"},
		NamePattern: "^user",
		Predicate: func(c component.Component) bool {
			return !strings.Contains(c.Name, "profile")
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "user", results[0].Name)
}

func TestRegistry_ListSortedByName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(schemaComponent("zeta")))
	require.NoError(t, r.Register(schemaComponent("alpha")))
	require.NoError(t, r.Register(schemaComponent("mid")))

	names := make([]string, 0, 3)
	for _, c := range r.List() {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}
