// Package am loads stubgen configuration: TOML files merged system, user,
// then project, with STUBGEN_* environment variables on top.
package am

// Config represents the stubgen configuration
type Config struct {
	Generate GenerateConfig `mapstructure:"generate"`
	Host     HostConfig     `mapstructure:"host"`
	Build    BuildConfig    `mapstructure:"build"`
	Store    StoreConfig    `mapstructure:"store"`
	MCP      MCPConfig      `mapstructure:"mcp"`
}

// GenerateConfig configures stub generation
type GenerateConfig struct {
	OutputDir string `mapstructure:"output_dir"` // Root of the written stub tree
	Root      string `mapstructure:"root"`       // Package that receives the singleton index (default: bpy)
	Snapshot  string `mapstructure:"snapshot"`   // Stored snapshot id, or "latest"; empty uses host.source
	Strict    bool   `mapstructure:"strict"`     // Warn on unrecognized phrases and dropped doc fragments
	Workers   int    `mapstructure:"workers"`    // Concurrent module writers (default: 1)
	Lint      bool   `mapstructure:"lint"`       // Parse every written stub afterwards

	CorrectionsScript string             `mapstructure:"corrections_script"` // Risor script run after the correction table
	Corrections       []CorrectionConfig `mapstructure:"corrections"`        // Replaces the built-in table when set
}

// CorrectionConfig overrides the type of one property
type CorrectionConfig struct {
	Struct   string `mapstructure:"struct" toml:"struct"`
	Property string `mapstructure:"property" toml:"property"`
	Type     string `mapstructure:"type" toml:"type"`
}

// HostConfig locates the reflection snapshot
type HostConfig struct {
	Source         string `mapstructure:"source"`                 // Path or go-getter URL of a snapshot file
	CacheDir       string `mapstructure:"cache_dir"`              // Where remote snapshots are downloaded (empty = temp dir)
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`        // Per-request limit for HTTP downloads (0 = none)
	BlockPrivate   bool   `mapstructure:"block_private_networks"` // Refuse HTTP downloads from loopback and private ranges
}

// BuildConfig configures the host build pipeline
type BuildConfig struct {
	Repository     string   `mapstructure:"repository"`      // Host source repository
	WorkDir        string   `mapstructure:"work_dir"`        // Checkouts and build trees live here
	Versions       string   `mapstructure:"versions"`        // Semver constraint over repository tags (e.g. ">= 2.93, < 3.0")
	Tags           []string `mapstructure:"tags"`            // Explicit tags; overrides Versions when set
	ConfigureFlags string   `mapstructure:"configure_flags"` // Shell-quoted cmake cache flags
	BPYFlags       string   `mapstructure:"bpy_flags"`       // Shell-quoted flags that build the Python module
	Generator      string   `mapstructure:"generator"`       // cmake generator (default: Ninja)
	Jobs           int      `mapstructure:"jobs"`            // Parallel compile jobs (0 = logical CPU count)
}

// StoreConfig configures the SQLite snapshot and run store
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// MCPConfig configures the model lookup server
type MCPConfig struct {
	Name string `mapstructure:"name"` // Server name advertised to clients
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
