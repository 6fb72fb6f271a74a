package display

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "list"}
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func TestShouldOutputJSON(t *testing.T) {
	t.Setenv(OutputEnv, "")
	assert.False(t, ShouldOutputJSON(newCmd()))
	assert.False(t, ShouldOutputJSON(nil))

	cmd := newCmd()
	require.NoError(t, cmd.Flags().Set("json", "true"))
	assert.True(t, ShouldOutputJSON(cmd))

	t.Setenv(OutputEnv, "json")
	assert.True(t, ShouldOutputJSON(newCmd()))
	assert.True(t, ShouldOutputJSON(&cobra.Command{Use: "bare"}))

	cmd = newCmd()
	require.NoError(t, cmd.Flags().Set("json", "false"))
	assert.False(t, ShouldOutputJSON(cmd), "explicit flag overrides the environment")
}

func TestMarshalJSON(t *testing.T) {
	data, err := MarshalJSON(map[string]int{"structs": 3})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"structs\": 3\n}", string(data))
}
