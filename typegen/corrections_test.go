package typegen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/host"
	"github.com/teranos/stubgen/typegen/ingest"
	"github.com/teranos/stubgen/typegen/model"
)

func ingestedModel(t *testing.T) *Model {
	t.Helper()
	b := ingest.NewBuilder(false)
	res, err := b.Build(context.Background(), host.NewSnapshotProvider(stubSnapshot()))
	require.NoError(t, err)
	return NewModel(res, b.Engine())
}

func TestParseExpr(t *testing.T) {
	m := ingestedModel(t)

	tests := []struct {
		expr string
		kind model.Kind
		want string
	}{
		{"float", model.KindPrimitive, "float"},
		{" str ", model.KindPrimitive, "str"},
		{"Any", model.KindAny, "Any"},
		{"None", model.KindNone, "None"},
		{"Object", model.KindNamed, "Object"},
		{"Collection[Object]", model.KindCollection, "Collection[Object]"},
		{"Union[int, float]", model.KindUnion, "Union[int, float]"},
		{"Union[int, Collection[ID]]", model.KindUnion, "Union[int, Collection[ID]]"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := m.ParseExpr(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind())
			assert.Equal(t, tt.want, FormatExpr(got))
		})
	}
}

func TestParseExprShares(t *testing.T) {
	m := ingestedModel(t)

	a, err := m.ParseExpr("Collection[Object]")
	require.NoError(t, err)
	b, err := m.ParseExpr("Collection[Object]")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestParseExprRejectsMalformed(t *testing.T) {
	m := ingestedModel(t)
	for _, expr := range []string{"", "Collection[]", "Union[int,]", "Union[int, Collection[ID]", "List[int]", "a, b"} {
		_, err := m.ParseExpr(expr)
		assert.Error(t, err, expr)
	}
}

func TestRetypeAndTypeOf(t *testing.T) {
	m := ingestedModel(t)

	got, err := m.TypeOf("Object", "pass_index")
	require.NoError(t, err)
	assert.Equal(t, "int", got)

	require.NoError(t, m.Retype("Object", "pass_index", "Union[int, float]"))
	got, err = m.TypeOf("Object", "pass_index")
	require.NoError(t, err)
	assert.Equal(t, "Union[int, float]", got)

	assert.True(t, errors.IsNotFoundError(m.Retype("Missing", "x", "int")))
	assert.True(t, errors.IsNotFoundError(m.Retype("Object", "missing", "int")))
	_, err = m.TypeOf("Object", "missing")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestApply(t *testing.T) {
	m := ingestedModel(t)

	applied, err := m.Apply([]Correction{
		{Struct: "Context", Property: "selected_objects", Type: "Collection[Object]"},
		{Struct: "SpaceView3D", Property: "region_3d", Type: "RegionView3D"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	_, err = m.Apply([]Correction{{Struct: "Object", Property: "location", Type: "Union[int"}})
	assert.Error(t, err)
}

func TestStructsSorted(t *testing.T) {
	m := ingestedModel(t)
	assert.Equal(t, []string{"Context", "ID", "Macro", "Object", "Operator"}, m.Structs())

	s, ok := m.Lookup("Macro")
	require.True(t, ok)
	assert.Equal(t, "bpy.types.ops", s.Module())
}
