package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	tagged := Info{Version: "v0.3.0", CommitHash: "0123456789abcdef", BuildTime: "2026-01-02"}
	assert.Equal(t, "stubgen v0.3.0 (commit 0123456, built 2026-01-02)", tagged.String())

	dev := Info{Version: "dev", CommitHash: "abc", BuildTime: "unknown"}
	assert.Equal(t, "stubgen dev (commit abc, built unknown)", dev.String())
	assert.Equal(t, "abc", dev.Short())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
	assert.NotEmpty(t, info.CommitHash)
}
