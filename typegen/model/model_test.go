package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/stubgen/errors"
)

func TestTypeRefKeys(t *testing.T) {
	assert.Equal(t, "str", Primitive("str").Key())
	assert.Equal(t, "Object", Named("Object").Key())
	assert.Equal(t, "Collection[Object]", Collection(Named("Object")).Key())
	assert.Equal(t, "Collection[?Object]", PendingCollection("Object").Key())
	assert.Equal(t, "Union[int, float]", Union(Primitive("int"), Primitive("float")).Key())
	assert.Equal(t, "Any", Any.Key())
	assert.Equal(t, KindNone, NoType.Kind())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Named("ID"), Named("ID")))
	assert.False(t, Equal(Named("ID"), Primitive("ID")))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(Named("ID"), nil))
	assert.True(t, Equal(Collection(Named("Object")), Collection(Named("Object"))))
}

func TestStructBaseName(t *testing.T) {
	assert.Equal(t, "", NewStruct("ID", nil).BaseName())
	assert.Equal(t, "ID", NewStruct("Object", Named("ID")).BaseName())
	assert.Equal(t, "Object", NewStruct("BlendDataObjects", Collection(Named("Object"))).BaseName())
	assert.Equal(t, "", NewStruct("Pending", PendingCollection("Object")).BaseName())
}

func TestModulePush(t *testing.T) {
	m := NewModule("bpy.types")
	require.NoError(t, m.Push(NewStruct("ID", nil)))
	require.NoError(t, m.Push(NewStruct("Object", Named("ID"))))

	err := m.Push(NewStruct("ID", nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateStruct))

	assert.Equal(t, 2, m.Len())
	s, ok := m.Lookup("Object")
	require.True(t, ok)
	assert.Equal(t, "bpy.types", s.Module())

	other := NewModule("bpy.other")
	assert.Error(t, other.Push(s))

	var zero Module
	assert.NoError(t, zero.Push(NewStruct("Loose", nil)))
}

func TestRetype(t *testing.T) {
	s := NewStruct("Object", nil)
	s.Properties = []Property{{Name: "children", Type: Any, Default: "None"}}

	require.NoError(t, s.Retype("children", Collection(Named("Object"))))
	p, ok := s.Property("children")
	require.True(t, ok)
	assert.Equal(t, "Collection[Object]", p.Type.Key())
	assert.Empty(t, p.Default)

	err := s.Retype("missing", Any)
	assert.True(t, errors.IsNotFoundError(err))
}
