package order

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/typegen/model"
)

func named(id, base string) *model.Struct {
	if base == "" {
		return model.NewStruct(id, nil)
	}
	return model.NewStruct(id, model.Named(base))
}

func collectionOf(id, item string) *model.Struct {
	return model.NewStruct(id, model.Collection(model.Named(item)))
}

func identifiers(structs []*model.Struct) []string {
	ids := make([]string, len(structs))
	for i, s := range structs {
		ids[i] = s.Identifier
	}
	return ids
}

func positions(structs []*model.Struct) map[string]int {
	pos := make(map[string]int, len(structs))
	for i, s := range structs {
		pos[s.Identifier] = i
	}
	return pos
}

func TestReverseDiscoveryOrder(t *testing.T) {
	out, err := Linearize("bpy.types", []*model.Struct{
		named("Leaf", "Derived"),
		named("Derived", "Base"),
		named("Base", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Derived", "Leaf"}, identifiers(out))
}

func TestDiscoveryOrderTieBreak(t *testing.T) {
	out, err := Linearize("bpy.types", []*model.Struct{
		named("Mesh", "ID"),
		named("Scene", ""),
		named("Object", "ID"),
		collectionOf("BlendDataObjects", "Object"),
		named("ID", ""),
		named("Camera", "ID"),
	})
	require.NoError(t, err)
	// Level by level, each level in discovery order
	assert.Equal(t, []string{"Scene", "ID", "Mesh", "Object", "Camera", "BlendDataObjects"}, identifiers(out))
}

func TestSelfBaseAndPendingCollection(t *testing.T) {
	out, err := Linearize("bpy.types", []*model.Struct{
		named("Struct", "Struct"),
		model.NewStruct("Pending", model.PendingCollection("Nowhere")),
		model.NewStruct("Untyped", model.Collection(model.Any)),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Struct", "Pending", "Untyped"}, identifiers(out))
}

func TestCycleIsFatal(t *testing.T) {
	_, err := Linearize("bpy.types", []*model.Struct{
		named("Root", ""),
		named("A", "B"),
		named("B", "A"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsDependencyError(err))

	var depErr *DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, []string{"A", "B"}, depErr.Pending)
	assert.Empty(t, depErr.Missing)
	assert.Contains(t, err.Error(), "A, B")
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestDanglingIsFatal(t *testing.T) {
	_, err := Linearize("bpy.types", []*model.Struct{
		named("Object", "ID"),
		collectionOf("Objects", "Object"),
	})
	require.Error(t, err)

	var depErr *DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, []string{"Object", "Objects"}, depErr.Pending)
	assert.Equal(t, []string{"ID"}, depErr.Missing)
}

func TestModule(t *testing.T) {
	m := model.NewModule("bpy.types")
	require.NoError(t, m.Push(named("Object", "ID")))
	require.NoError(t, m.Push(named("ID", "")))

	out, err := Module(m)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Object"}, identifiers(out))

	empty, err := Module(model.NewModule("empty"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// Random forests always order every base and item before its dependents.
func TestDependenciesPrecedeDependents(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		n := 2 + rng.Intn(40)
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("S%d", i)
		}
		// Struct i may only depend on a lower index, so the graph is acyclic
		structs := make([]*model.Struct, n)
		for i := range structs {
			switch {
			case i == 0 || rng.Intn(3) == 0:
				structs[i] = named(ids[i], "")
			case rng.Intn(2) == 0:
				structs[i] = named(ids[i], ids[rng.Intn(i)])
			default:
				structs[i] = collectionOf(ids[i], ids[rng.Intn(i)])
			}
		}
		rng.Shuffle(n, func(i, j int) { structs[i], structs[j] = structs[j], structs[i] })

		out, err := Linearize("random", structs)
		require.NoError(t, err)
		require.Len(t, out, n)

		pos := positions(out)
		for _, s := range structs {
			if dep := Dependency(s); dep != "" {
				assert.Less(t, pos[dep], pos[s.Identifier], "%s must follow %s", s.Identifier, dep)
			}
		}
	}
}
