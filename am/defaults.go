package am

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Build defaults
const (
	DefaultRepository     = "https://github.com/blender/blender.git"
	DefaultGenerator      = "Ninja"
	DefaultConfigureFlags = "-DCMAKE_BUILD_TYPE=Release -DWITH_INTERNATIONAL=OFF -DWITH_INPUT_NDOF=OFF " +
		"-DWITH_CYCLES=OFF -DWITH_OPENVDB=OFF -DWITH_LIBMV=OFF -DWITH_MEM_JEMALLOC=OFF"
	DefaultBPYFlags = "-DWITH_PYTHON_INSTALL=OFF -DWITH_PYTHON_INSTALL_NUMPY=OFF -DWITH_PYTHON_MODULE=ON"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Generation defaults
	v.SetDefault("generate.output_dir", "stubs")
	v.SetDefault("generate.root", "bpy")
	v.SetDefault("generate.strict", false)
	v.SetDefault("generate.workers", 1)
	v.SetDefault("generate.lint", false)

	// Host defaults
	v.SetDefault("host.source", "snapshot.json")
	v.SetDefault("host.timeout_seconds", 120)
	v.SetDefault("host.block_private_networks", false)

	// Build defaults
	v.SetDefault("build.repository", DefaultRepository)
	v.SetDefault("build.work_dir", "work")
	v.SetDefault("build.versions", ">= 2.93")
	v.SetDefault("build.configure_flags", DefaultConfigureFlags)
	v.SetDefault("build.bpy_flags", DefaultBPYFlags)
	v.SetDefault("build.generator", DefaultGenerator)
	v.SetDefault("build.jobs", 0)

	// Store and MCP defaults
	v.SetDefault("store.path", "stubgen.db")
	v.SetDefault("mcp.name", "stubgen")
}

// BindEnvVars binds settings that have conventional variable names
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("store.path", "STUBGEN_DB_PATH")
	v.BindEnv("generate.output_dir", "STUBGEN_OUT")
}

// ConfigDir returns ~/.stubgen
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".stubgen")
}

// GetStorePath returns the configured store path
func (c *Config) GetStorePath() string {
	if c.Store.Path == "" {
		return "stubgen.db" // Fallback default
	}
	return c.Store.Path
}

// GetWorkers returns the generation worker count, at least 1
func (c *Config) GetWorkers() int {
	if c.Generate.Workers < 1 {
		return 1
	}
	return c.Generate.Workers
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Generate: {OutputDir: %s, Workers: %d}, Host: {Source: %s}, Store: %s}",
		c.Generate.OutputDir, c.Generate.Workers, c.Host.Source, c.Store.Path)
}
