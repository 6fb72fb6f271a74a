package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/stubgen/errors"
)

type fakeTarget struct {
	types map[string]string
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{types: map[string]string{
		"RenderSettings.fps_base": "int",
		"Object.name":             "Any",
		"Mesh.name":               "Any",
	}}
}

func (f *fakeTarget) Retype(structID, property, typeExpr string) error {
	key := structID + "." + property
	if _, ok := f.types[key]; !ok {
		return errors.NewNotFoundError("property %s", key)
	}
	f.types[key] = typeExpr
	return nil
}

func (f *fakeTarget) TypeOf(structID, property string) (string, error) {
	t, ok := f.types[structID+"."+property]
	if !ok {
		return "", errors.NewNotFoundError("property %s.%s", structID, property)
	}
	return t, nil
}

func (f *fakeTarget) Structs() []string {
	return []string{"Mesh", "Object", "RenderSettings"}
}

func TestRunRetypes(t *testing.T) {
	target := newFakeTarget()
	r := NewRunner(target, zaptest.NewLogger(t).Sugar())

	src := `
retype("RenderSettings", "fps_base", "float")
for _, s := range structs() {
    if s != "RenderSettings" {
        retype(s, "name", "str")
    }
}
log("done")
`
	require.NoError(t, r.Run(context.Background(), "inline", src))
	assert.Equal(t, "float", target.types["RenderSettings.fps_base"])
	assert.Equal(t, "str", target.types["Object.name"])
	assert.Equal(t, "str", target.types["Mesh.name"])
}

func TestRunTypeOf(t *testing.T) {
	target := newFakeTarget()
	r := NewRunner(target, zaptest.NewLogger(t).Sugar())

	src := `retype("Object", "name", type_of("RenderSettings", "fps_base"))`
	require.NoError(t, r.Run(context.Background(), "inline", src))
	assert.Equal(t, "int", target.types["Object.name"])
}

func TestRunReportsModelErrors(t *testing.T) {
	r := NewRunner(newFakeTarget(), zaptest.NewLogger(t).Sugar())

	err := r.Run(context.Background(), "inline", `retype("Missing", "prop", "float")`)
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
	assert.Contains(t, err.Error(), "correction script inline")
}

func TestRunSyntaxError(t *testing.T) {
	r := NewRunner(newFakeTarget(), zaptest.NewLogger(t).Sugar())
	assert.Error(t, r.Run(context.Background(), "broken", `retype("Object", `))
}

func TestLoadFile(t *testing.T) {
	target := newFakeTarget()
	r := NewRunner(target, zaptest.NewLogger(t).Sugar())

	path := filepath.Join(t.TempDir(), "fix.risor")
	require.NoError(t, os.WriteFile(path, []byte(`retype("Mesh", "name", "str")`), 0644))
	require.NoError(t, r.LoadFile(context.Background(), path))
	assert.Equal(t, "str", target.types["Mesh.name"])

	assert.Error(t, r.LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.risor")))
}
