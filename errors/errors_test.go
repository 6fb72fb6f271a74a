package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	original := New("original")
	wrapped := Wrapf(original, "module %s", "bpy.types")

	assert.Contains(t, wrapped.Error(), "module bpy.types")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestWithHint(t *testing.T) {
	err := WithHint(New("error"), "check the snapshot")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "check the snapshot", hints[0])
}

func TestSentinelMarking(t *testing.T) {
	err := NewNotFoundError("struct %s", "Object")
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, "struct Object", err.Error())

	err = Wrap(err, "lookup")
	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsDependencyError(err))

	snap := NewInvalidSnapshotError("struct %q has no identifier", "")
	assert.True(t, Is(snap, ErrInvalidSnapshot))
	assert.False(t, IsNotFoundError(snap))
}

func TestDependencyError(t *testing.T) {
	err := Wrapf(ErrUnresolvableDependencies, "pending: %v", []string{"A", "B"})
	assert.True(t, IsDependencyError(err))
	assert.False(t, IsDependencyError(nil))
}
