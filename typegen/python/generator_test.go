package python

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/stubgen/typegen/model"
)

// =============================================================================
// Type expressions
// =============================================================================

func TestTypeExpr(t *testing.T) {
	tests := []struct {
		name string
		ref  model.TypeRef
		want string
	}{
		{"primitive", model.Primitive("float"), "float"},
		{"named is quoted", model.Named("Object"), "'Object'"},
		{"collection", model.Collection(model.Named("Object")), "'bpy_prop_collection[Object]'"},
		{"untyped collection", model.Collection(model.Any), "'bpy_prop_collection[Any]'"},
		{"union", model.Union(model.Primitive("int"), model.Primitive("float")), "Union[int, float]"},
		{"any", model.Any, "Any"},
		{"no type", model.NoType, "None"},
		{"nil", nil, "Any"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeExpr(tt.ref))
		})
	}

	assert.Equal(t, "bpy_prop_collection[Object]", BaseExpr(model.Collection(model.Named("Object"))))
	assert.Equal(t, "ID", BaseExpr(model.Named("ID")))
}

// =============================================================================
// Signatures
// =============================================================================

func TestSignature(t *testing.T) {
	float := model.Primitive("float")

	tests := []struct {
		name string
		fn   model.Function
		want string
	}{
		{
			name: "method without returns",
			fn:   model.Function{Name: "update", IsMethod: true},
			want: "    def update(self) -> None: ... # noqa",
		},
		{
			name: "function with one return",
			fn: model.Function{Name: "lerp", Params: []model.Parameter{
				{Name: "x", Type: float}, {Name: "y", Type: float},
			}, Returns: []model.TypeRef{model.Named("Vector")}},
			want: "def lerp(x: float, y: float) -> 'Vector': ... # noqa",
		},
		{
			name: "several returns become a tuple",
			fn: model.Function{Name: "decompose", IsMethod: true,
				Returns: []model.TypeRef{model.Named("Vector"), float}},
			want: "    def decompose(self) -> Tuple['Vector', float]: ... # noqa",
		},
		{
			name: "defaults, varargs and keywords",
			fn: model.Function{Name: "new", IsMethod: true, Params: []model.Parameter{
				{Name: "*args"},
				{Name: "from", Type: model.Primitive("str")},
				{Name: "type", Type: model.Primitive("str"), Default: "'MESH'"},
			}},
			want: "    def new(self, *args, from_: str, type: str = 'MESH') -> None: ... # noqa",
		},
		{
			name: "property factory",
			fn: model.Function{Name: "FloatProperty", Params: []model.Parameter{{Name: "**kw"}},
				Returns: []model.TypeRef{model.Any}},
			want: "def FloatProperty(**kw) -> Any: ... # noqa",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Signature(tt.fn))
		})
	}
}

// =============================================================================
// Structs and modules
// =============================================================================

func TestRenderStruct(t *testing.T) {
	s := model.NewStruct("Object", model.Named("ID"))
	s.Properties = []model.Property{
		{Name: "location", Type: model.Named("Vector"), Default: "(0.0, 0.0, 0.0)"},
		{Name: "children", Type: model.Collection(model.Named("Object"))},
	}
	s.Methods = []model.Function{{Name: "select_get", IsMethod: true, Returns: []model.TypeRef{model.Primitive("bool")}}}

	want := "class Object(ID):\n" +
		"    location: 'Vector'\n" +
		"    children: 'bpy_prop_collection[Object]'\n" +
		"    def select_get(self) -> bool: ... # noqa\n"
	assert.Equal(t, want, RenderStruct(s, nil))

	skipped := "class Object(ID):\n" +
		"    children: 'bpy_prop_collection[Object]'\n" +
		"    def select_get(self) -> bool: ... # noqa\n"
	assert.Equal(t, skipped, RenderStruct(s, map[string]bool{"location": true}))

	assert.Equal(t, "class Empty:\n    pass\n", RenderStruct(model.NewStruct("Empty", nil), nil))

	engine := model.NewStruct("RenderEngine", nil)
	engine.Properties = []model.Property{{Name: "render", Type: model.Named("RenderSettings")}}
	assert.Equal(t, "class RenderEngine:\n    pass\n",
		RenderStruct(engine, DefaultOptions().skipFor("RenderEngine")))
}

func TestRenderModule(t *testing.T) {
	id := model.NewStruct("ID", nil)
	engine := model.NewStruct("RenderEngine", nil)
	engine.Properties = []model.Property{
		{Name: "render", Type: model.Named("RenderSettings")},
		{Name: "is_preview", Type: model.Primitive("bool")},
	}

	got := RenderModule("bpy.types", []*model.Struct{id, engine}, DefaultOptions())

	want := structHeader + "\n\n" +
		CollectionPrelude + "\n" +
		"class ID:\n    pass\n\n\n" +
		"class RenderEngine:\n    is_preview: bool\n\n\n" +
		"VIEW3D_MT_object: List[Any]\n"
	assert.Equal(t, want, got)

	other := RenderModule("bpy.types.ops", []*model.Struct{id}, DefaultOptions())
	assert.Equal(t, structHeader+"\n\n\nclass ID:\n    pass\n\n\n", other)
}

func TestRenderStandalone(t *testing.T) {
	vector := model.NewStruct("Vector", nil)
	vector.Methods = []model.Function{{Name: "__init__", IsMethod: true,
		Params: []model.Parameter{{Name: "seq", Type: model.Named("sequence of numbers")}}}}

	m := &model.Standalone{
		Name:    "mathutils",
		Classes: []*model.Struct{vector},
		Functions: []model.Function{{Name: "register_class",
			Params: []model.Parameter{{Name: "klass", Type: model.Any}}}},
	}
	want := standaloneHeader + "\n" +
		"class Vector:\n    def __init__(self, seq: 'sequence of numbers') -> None: ... # noqa\n\n\n" +
		"def register_class(klass: Any) -> None: ... # noqa\n"
	assert.Equal(t, want, RenderStandalone(m))

	ops := &model.Standalone{Name: "bpy.ops", Operators: []string{"helper"}, Submodules: []string{"mesh", "object"}}
	wantOps := standaloneHeader + "from mathutils import Vector\n\n" +
		"def helper(*args, **kw): ... # noqa\n" +
		"from . import mesh\n" +
		"from . import object\n"
	assert.Equal(t, wantOps, RenderStandalone(ops))
}

func TestRenderIndex(t *testing.T) {
	got := RenderIndex([]string{"types", "utils", "ops"},
		[]model.Singleton{{Name: "data", Type: "BlendData"}}, ContextOverride)

	want := "from . import types, utils, ops\n" +
		"data: types.BlendData\n" +
		"\n" +
		"class Context(types.Context):\n" +
		"    selected_objects: types.bpy_prop_collection[types.Object]\n" +
		"context: Context\n"
	assert.Equal(t, want, got)
}

// =============================================================================
// Writer
// =============================================================================

func TestModulePathAndChildren(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "bpy", "types", "__init__.pyi"), ModulePath("out", "bpy.types"))
	assert.Equal(t, filepath.Join("out", "mathutils", "__init__.pyi"), ModulePath("out", "mathutils"))

	assert.Equal(t, []string{"types", "ops"},
		Children("bpy", "bpy.types", "bpy.ops.mesh", "mathutils", "bpy.ops", "bpy"))
	assert.Empty(t, Children("bpy", "mathutils"))
}

func TestWriterOverwritesAndIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, DefaultOptions())

	m := model.NewModule("bpy.types")
	require.NoError(t, m.Push(model.NewStruct("ID", nil)))

	path := ModulePath(dir, "bpy.types")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	written, err := w.WriteModule(m, m.Structs())
	require.NoError(t, err)
	assert.Equal(t, path, written)
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(first), "stale")

	_, err = w.WriteModule(m, m.Structs())
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	index, err := w.WriteIndex("bpy", []string{"types"}, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bpy", "__init__.pyi"), index)

	sub, err := w.WriteStandalone(&model.Standalone{Name: "bpy.ops.mesh"})
	require.NoError(t, err)
	assert.FileExists(t, sub)
}
