package host

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/stubgen/errors"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		HostVersion: "v2.93.0",
		Structs: []StructInfo{
			{Identifier: "ID", Module: "bpy.types"},
			{
				Identifier: "Object",
				Base:       "ID",
				Module:     "bpy.types",
				Properties: []PropertyInfo{
					{Identifier: "location", Type: "float", ArrayLength: 3},
					{Identifier: "mode", Type: "enum", EnumItems: []EnumItem{{Label: "Object", Value: "OBJECT"}}},
				},
			},
			{
				Identifier:  "BlendDataObjects",
				Module:      "bpy.types",
				Description: "Collection of objects",
				Functions: []FunctionInfo{{
					Identifier: "new",
					Args:       []PropertyInfo{{Identifier: "name", Type: "string"}},
					Returns:    []PropertyInfo{{Identifier: "object", Type: "pointer", FixedType: "Object"}},
				}},
				References: []string{"BlendData.objects"},
			},
		},
		Modules: []ModuleInfo{{
			Name:     "bpy.props",
			Routines: []RoutineInfo{{Name: "FloatProperty"}},
		}},
		Singletons: []SingletonInfo{{Name: "data", Type: "BlendData"}},
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("a/b.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("b.YML"))
	assert.Equal(t, FormatTOML, FormatFromPath("b.toml"))
	assert.Equal(t, FormatJSON, FormatFromPath("b.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("snapshot"))
}

func TestWriteAndLoadEveryFormat(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bpy.json", "bpy.yaml", "bpy.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", name)
			require.NoError(t, WriteSnapshot(path, testSnapshot()))

			loaded, err := LoadSnapshot(path)
			require.NoError(t, err)
			assert.Equal(t, testSnapshot(), loaded)
		})
	}
}

func TestDecodeRejectsInvalidSnapshots(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"structs": [`},
		{"missing identifier", `{"structs": [{"module": "bpy.types"}]}`},
		{"missing module", `{"structs": [{"identifier": "Object"}]}`},
		{"duplicate", `{"structs": [{"identifier": "A", "module": "m"}, {"identifier": "A", "module": "m"}]}`},
		{"bad singleton", `{"structs": [], "singletons": [{"name": "data"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tt.data), FormatJSON)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidSnapshot))
		})
	}

	// Same identifier in two modules is allowed
	_, err := DecodeSnapshot([]byte(`{"structs": [{"identifier": "A", "module": "m"}, {"identifier": "A", "module": "n"}]}`), FormatJSON)
	assert.NoError(t, err)

	_, err = DecodeSnapshot([]byte(`{}`), Format("xml"))
	assert.Error(t, err)
}

func TestSnapshotProvider(t *testing.T) {
	p := NewSnapshotProvider(testSnapshot())
	ctx := context.Background()

	structs, err := p.Structs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ID", structs[0].Identifier)

	modules, err := p.Modules(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bpy.props", modules[0].Name)

	singletons, err := p.Singletons(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BlendData", singletons[0].Type)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.Structs(canceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFunctionStructured(t *testing.T) {
	assert.False(t, FunctionInfo{Identifier: "f", Doc: "doc"}.Structured())
	assert.True(t, FunctionInfo{Args: []PropertyInfo{{Identifier: "x"}}}.Structured())
	assert.True(t, FunctionInfo{Returns: []PropertyInfo{{Identifier: "r"}}}.Structured())
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bpy.yaml")
	require.NoError(t, WriteSnapshot(path, testSnapshot()))

	src, err := Fetch(context.Background(), path, FetchOptions{}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer src.Cleanup()

	assert.False(t, src.Remote)
	assert.Equal(t, path, src.Path)

	snap, err := src.Load()
	require.NoError(t, err)
	assert.Equal(t, "v2.93.0", snap.HostVersion)

	src.Cleanup()
	_, err = os.Stat(path)
	assert.NoError(t, err, "cleanup must not remove local files")
}

func TestFetchMissingLocalFile(t *testing.T) {
	_, err := Fetch(context.Background(), filepath.Join(t.TempDir(), "absent.json"), FetchOptions{}, zaptest.NewLogger(t).Sugar())
	assert.Error(t, err)
}

func TestSnapshotName(t *testing.T) {
	assert.Equal(t, "bpy.yaml", snapshotName("https://example.com/dumps/bpy.yaml"))
	assert.Equal(t, "bpy-2.93.json", snapshotName("git::https://example.com/dumps/bpy-2.93.json"))
	assert.Equal(t, "snapshot.json", snapshotName("https://example.com/dumps/latest"))
	assert.Equal(t, "https---example.com-a.json", sanitize("https://example.com/a.json"))
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := EncodeSnapshot(testSnapshot(), FormatJSON)
		require.NoError(t, err)
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	src, err := Fetch(context.Background(), srv.URL+"/dumps/bpy.json", FetchOptions{Timeout: 5 * time.Second}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.True(t, src.Remote)
	assert.Equal(t, "bpy.json", filepath.Base(src.Path))

	snap, err := src.Load()
	require.NoError(t, err)
	assert.Equal(t, "v2.93.0", snap.HostVersion)

	dir := filepath.Dir(src.Path)
	src.Cleanup()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestFetchHTTPBlocksPrivate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.URL+"/bpy.json", FetchOptions{BlockPrivate: true}, zaptest.NewLogger(t).Sugar())
	assert.Error(t, err)
}
