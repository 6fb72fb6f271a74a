package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/stubgen/errors"
)

const (
	// ConfigFileName is the file looked up in every configuration location
	ConfigFileName = "am.toml"
	// SystemConfigPath is the lowest-precedence configuration file
	SystemConfigPath = "/etc/stubgen/am.toml"
	// EnvPrefix prefixes every environment override
	EnvPrefix = "STUBGEN"
)

var (
	globalConfig  *Config
	viperInstance *viper.Viper

	// ConfigSources records where each effective setting came from during
	// the last load
	ConfigSources = map[string]SourceInfo{}
)

// Load reads the stubgen configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	globalConfig = &config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// Defaults only; no environment binding for an explicit file
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}

	return &config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)
	sources := make(map[string]SourceInfo)
	markSettingsFromSource(v.AllSettings(), "", SourceDefault, "", sources)

	// system -> user -> project; env vars are resolved by viper on read
	mergeConfigFiles(v, configPaths(), sources)

	ConfigSources = sources
	viperInstance = v
	return v
}

// ConfigFile pairs a candidate config path with its precedence level
type ConfigFile struct {
	Path   string
	Source ConfigSource
}

// configPaths lists candidate files, lowest precedence first
func configPaths() []ConfigFile {
	paths := []ConfigFile{{Path: SystemConfigPath, Source: SourceSystem}}
	if dir := ConfigDir(); dir != "" {
		paths = append(paths, ConfigFile{Path: filepath.Join(dir, ConfigFileName), Source: SourceUser})
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, ConfigFile{Path: project, Source: SourceProject})
	}
	return paths
}

// ConfigFiles returns the config files that exist, lowest precedence first
func ConfigFiles() []ConfigFile {
	var out []ConfigFile
	for _, f := range configPaths() {
		if _, err := os.Stat(f.Path); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// findProjectConfig searches for am.toml by walking up from the working
// directory. Returns "" when none is found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// mergeConfigFiles merges each existing file into v in order, recording
// the source of every key it sets
func mergeConfigFiles(v *viper.Viper, files []ConfigFile, sources map[string]SourceInfo) {
	for _, f := range files {
		if _, err := os.Stat(f.Path); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(f.Path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		// nested tables merge key by key; env still wins over file values
		settings := tempViper.AllSettings()
		if err := v.MergeConfigMap(settings); err != nil {
			continue
		}
		markSettingsFromSource(settings, "", f.Source, f.Path, sources)
	}
}

// markSettingsFromSource records source for every leaf key in settings
func markSettingsFromSource(settings map[string]interface{}, prefix string, source ConfigSource, path string, sourceMap map[string]SourceInfo) {
	for key, value := range settings {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			markSettingsFromSource(nested, fullKey, source, path, sourceMap)
			continue
		}
		sourceMap[fullKey] = SourceInfo{Source: source, Path: path}
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return initViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return initViper().GetString(key)
}

// GetBool returns a configuration value as bool using dot notation
func GetBool(key string) bool {
	return initViper().GetBool(key)
}

// GetInt returns a configuration value as int using dot notation
func GetInt(key string) int {
	return initViper().GetInt(key)
}
