package typegen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/host"
	"github.com/teranos/stubgen/typegen/order"
	"github.com/teranos/stubgen/typegen/python"
)

func stubSnapshot() *host.Snapshot {
	return &host.Snapshot{
		HostVersion: "v2.93.0",
		Structs: []host.StructInfo{
			{
				Identifier: "Object",
				Base:       "ID",
				Module:     "bpy.types",
				Properties: []host.PropertyInfo{
					{Identifier: "location", Type: "float", ArrayLength: 3},
					{Identifier: "pass_index", Type: "int"},
				},
			},
			{Identifier: "ID", Module: "bpy.types"},
			{
				Identifier: "Context",
				Module:     "bpy.types",
				Properties: []host.PropertyInfo{
					{Identifier: "selected_objects", Type: "pointer"},
					{Identifier: "active_object", Type: "pointer"},
				},
			},
			{Identifier: "Operator", Module: "bpy.types.ops"},
			{Identifier: "Macro", Base: "Operator", Module: "bpy.types.ops"},
		},
		Modules: []host.ModuleInfo{{
			Name:     "bpy.utils",
			Routines: []host.RoutineInfo{{Name: "register_class", Doc: "Register a class."}},
		}},
		Singletons: []host.SingletonInfo{{Name: "data", Type: "BlendData"}},
	}
}

func generate(t *testing.T, cfg Config, opts ...Option) *Result {
	t.Helper()
	res, err := NewGenerator(cfg, opts...).Generate(context.Background(),
		host.NewSnapshotProvider(stubSnapshot()), "")
	require.NoError(t, err)
	return res
}

func read(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

// =============================================================================
// Pipeline
// =============================================================================

func TestGenerateWritesModulesAndIndex(t *testing.T) {
	dir := t.TempDir()
	res := generate(t, DefaultConfig(dir))

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{
		python.ModulePath(dir, "bpy.types"),
		python.ModulePath(dir, "bpy.types.ops"),
		python.ModulePath(dir, "bpy.utils"),
		python.ModulePath(dir, "bpy"),
	}, res.Files)
	assert.Equal(t, map[string]int{"bpy.types": 3, "bpy.types.ops": 2}, res.Modules)
	assert.Equal(t, 5, res.StructCount())
	assert.Equal(t, 2, res.Corrections)
	assert.Empty(t, res.Unrecognized)

	index := read(t, python.ModulePath(dir, "bpy"))
	assert.Equal(t, "from . import types, utils\ndata: types.BlendData\n\n"+python.ContextOverride, index)
}

func TestGenerateOrdersBaseBeforeDerived(t *testing.T) {
	dir := t.TempDir()
	generate(t, DefaultConfig(dir))

	types := read(t, python.ModulePath(dir, "bpy.types"))
	id := strings.Index(types, "class ID:")
	object := strings.Index(types, "class Object(ID):")
	require.NotEqual(t, -1, id)
	require.NotEqual(t, -1, object)
	assert.Less(t, id, object)
	assert.Contains(t, types, "    location: 'Vector'\n")
	assert.Contains(t, types, "VIEW3D_MT_object: List[Any]\n")

	ops := read(t, python.ModulePath(dir, "bpy.types.ops"))
	assert.Less(t, strings.Index(ops, "class Operator:"), strings.Index(ops, "class Macro(Operator):"))
}

func TestGenerateAppliesCorrections(t *testing.T) {
	dir := t.TempDir()
	generate(t, DefaultConfig(dir))

	types := read(t, python.ModulePath(dir, "bpy.types"))
	assert.Contains(t, types, "    selected_objects: 'bpy_prop_collection[Object]'\n")
	assert.Contains(t, types, "    active_object: 'Object'\n")
}

func TestGenerateWithoutCorrections(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.Corrections = []Correction{}
	res := generate(t, cfg)

	assert.Zero(t, res.Corrections)
	assert.Contains(t, read(t, python.ModulePath(dir, "bpy.types")), "    selected_objects: Any\n")
}

func TestGenerateRunsCorrectionScript(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(t.TempDir(), "fix.risor")
	require.NoError(t, os.WriteFile(scriptPath, []byte(`retype("Object", "pass_index", "float")`), 0644))

	cfg := DefaultConfig(dir)
	cfg.CorrectionsScript = scriptPath
	generate(t, cfg)

	assert.Contains(t, read(t, python.ModulePath(dir, "bpy.types")), "    pass_index: float\n")
}

func TestGenerateFailingScriptAborts(t *testing.T) {
	scriptPath := filepath.Join(t.TempDir(), "fix.risor")
	require.NoError(t, os.WriteFile(scriptPath, []byte(`retype("Nope", "x", "float")`), 0644))

	cfg := DefaultConfig(t.TempDir())
	cfg.CorrectionsScript = scriptPath
	_, err := NewGenerator(cfg).Generate(context.Background(), host.NewSnapshotProvider(stubSnapshot()), "")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestGenerateIsByteIdentical(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	generate(t, DefaultConfig(first))
	generate(t, DefaultConfig(second))

	cmp, err := CompareDirectories(first, second)
	require.NoError(t, err)
	assert.True(t, cmp.UpToDate)
}

func TestGenerateWithWorkersMatchesSequential(t *testing.T) {
	sequential, parallel := t.TempDir(), t.TempDir()
	generate(t, DefaultConfig(sequential))

	cfg := DefaultConfig(parallel)
	cfg.Workers = 4
	res := generate(t, cfg)
	assert.Equal(t, python.ModulePath(parallel, "bpy.types"), res.Files[0])

	cmp, err := CompareDirectories(parallel, sequential)
	require.NoError(t, err)
	assert.True(t, cmp.UpToDate)
}

func TestGenerateCycleIsFatal(t *testing.T) {
	snap := &host.Snapshot{Structs: []host.StructInfo{
		{Identifier: "A", Base: "B", Module: "bpy.types"},
		{Identifier: "B", Base: "A", Module: "bpy.types"},
	}}
	dir := t.TempDir()

	_, err := NewGenerator(DefaultConfig(dir)).Generate(context.Background(), host.NewSnapshotProvider(snap), "")
	require.Error(t, err)
	assert.True(t, errors.IsDependencyError(err))

	var depErr *order.DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, []string{"A", "B"}, depErr.Pending)
	assert.NoFileExists(t, python.ModulePath(dir, "bpy.types"))
}

func TestGenerateCycleKeepsEarlierModules(t *testing.T) {
	snap := &host.Snapshot{Structs: []host.StructInfo{
		{Identifier: "First", Module: "m.a"},
		{Identifier: "A", Base: "B", Module: "m.b"},
		{Identifier: "B", Base: "A", Module: "m.b"},
		{Identifier: "Third", Module: "m.c"},
		{Identifier: "Fourth", Module: "m.d"},
	}}

	for _, workers := range []int{1, 4} {
		dir := t.TempDir()
		cfg := DefaultConfig(dir)
		cfg.Workers = workers

		_, err := NewGenerator(cfg).Generate(context.Background(), host.NewSnapshotProvider(snap), "")
		require.Error(t, err, "workers=%d", workers)
		assert.True(t, errors.IsDependencyError(err))

		assert.FileExists(t, python.ModulePath(dir, "m.a"), "workers=%d", workers)
		assert.NoFileExists(t, python.ModulePath(dir, "m.b"), "workers=%d", workers)
		assert.NoFileExists(t, python.ModulePath(dir, "m.c"), "workers=%d", workers)
		assert.NoFileExists(t, python.ModulePath(dir, "m.d"), "workers=%d", workers)
	}
}

func TestGenerateWithLint(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.Lint = true
	res := generate(t, cfg)
	assert.Empty(t, res.Issues)
}

func TestGenerateRecordsRun(t *testing.T) {
	store, err := host.OpenStore(filepath.Join(t.TempDir(), "stubgen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	snapID, err := store.ImportSnapshot(ctx, stubSnapshot(), "test")
	require.NoError(t, err)
	p, err := store.Provider(ctx, snapID)
	require.NoError(t, err)

	res, err := NewGenerator(DefaultConfig(t.TempDir()), WithStore(store)).Generate(ctx, p, snapID)
	require.NoError(t, err)

	runs, err := store.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, snapID, runs[0].SnapshotID)
	assert.Equal(t, host.RunSucceeded, runs[0].Status)
	assert.Equal(t, len(res.Files), runs[0].Files)
	assert.NotNil(t, runs[0].FinishedAt)
}

// =============================================================================
// Check
// =============================================================================

func TestCheckUpToDateAfterGenerate(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(DefaultConfig(dir))
	p := host.NewSnapshotProvider(stubSnapshot())

	_, err := g.Generate(context.Background(), p, "")
	require.NoError(t, err)

	res, err := g.Check(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, res.UpToDate)
}

func TestCheckReportsDrift(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(DefaultConfig(dir))
	p := host.NewSnapshotProvider(stubSnapshot())
	_, err := g.Generate(context.Background(), p, "")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(python.ModulePath(dir, "bpy.types"), []byte("edited\n"), 0644))
	require.NoError(t, os.Remove(python.ModulePath(dir, "bpy.utils")))
	stale := python.ModulePath(dir, "bpy.app")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644))

	res, err := g.Check(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, res.UpToDate)
	assert.Equal(t, []string{filepath.Join("bpy", "types", "__init__.pyi")}, res.Differences)
	assert.Equal(t, []string{filepath.Join("bpy", "utils", "__init__.pyi")}, res.Missing)
	assert.Equal(t, []string{filepath.Join("bpy", "app", "__init__.pyi")}, res.Stale)
}

func TestCompareDirectoriesMissingExisting(t *testing.T) {
	generated := t.TempDir()
	path := python.ModulePath(generated, "mathutils")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("class Vector: ...\n"), 0644))

	res, err := CompareDirectories(generated, filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.False(t, res.UpToDate)
	assert.Equal(t, []string{filepath.Join("mathutils", "__init__.pyi")}, res.Missing)
}
