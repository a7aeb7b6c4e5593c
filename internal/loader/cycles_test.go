package loader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectCircularDependencies_SimpleCycle(t *testing.T) {
	l, _, _ := newTestLoader(t,
		schema("a", rel("b")),
		schema("b", rel("c")),
		schema("c", rel("a")),
	)

	cycles := l.DetectCircularDependencies("a")
	require.Len(t, cycles, 1)
	require.Equal(t, []string{"a", "b", "c", "a"}, cycles[0])
	require.True(t, l.HasCircularDependencies("a"))
}

func TestDetectCircularDependencies_SelfReference(t *testing.T) {
	l, _, _ := newTestLoader(t, schema("a", rel("a")))

	cycles := l.DetectCircularDependencies("a")
	require.Len(t, cycles, 1)
	require.Equal(t, []string{"a", "a"}, cycles[0])
}

func TestDetectCircularDependencies_DiamondIsNotACycle(t *testing.T) {
	l, _, _ := newTestLoader(t,
		schema("a", rel("b"), rel("c")),
		schema("b", rel("d")),
		schema("c", rel("d")),
		schema("d"),
	)

	require.Empty(t, l.DetectCircularDependencies("a"))
	require.False(t, l.HasCircularDependencies("a"))
}

func TestDetectCircularDependencies_InnerCycle(t *testing.T) {
	l, _, _ := newTestLoader(t,
		schema("a", rel("b")),
		schema("b", rel("c")),
		schema("c", rel("b")),
	)

	cycles := l.DetectCircularDependencies("a")
	require.Len(t, cycles, 1)
	require.Equal(t, []string{"b", "c", "b"}, cycles[0])
}

func TestDetectCircularDependencies_MultipleDistinctCycles(t *testing.T) {
	l, _, _ := newTestLoader(t,
		schema("a", rel("b"), rel("c")),
		schema("b", rel("a")),
		schema("c", rel("a")),
	)

	cycles := l.DetectCircularDependencies("a")
	require.Len(t, cycles, 2)
	require.Equal(t, []string{"a", "b", "a"}, cycles[0])
	require.Equal(t, []string{"a", "c", "a"}, cycles[1])
}

func TestDetectCircularDependencies_UnregisteredReferencesIgnored(t *testing.T) {
	l, _, _ := newTestLoader(t, schema("a", rel("ghost")))

	require.Empty(t, l.DetectCircularDependencies("a"))
}

func TestDetectCircularDependencies_NoRelations(t *testing.T) {
	l, _, _ := newTestLoader(t, schema("a"))

	require.Empty(t, l.DetectCircularDependencies("a"))
}
