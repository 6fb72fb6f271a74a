package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/stubgen/am"
	"github.com/teranos/stubgen/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage stubgen configuration",
	Long: `Display and manage stubgen configuration settings.

Configuration sources (later overrides earlier):
1. Built-in defaults
2. System config (/etc/stubgen/am.toml)
3. User config (~/.stubgen/am.toml)
4. Project config (am.toml, searched upwards from the working directory)
5. Environment variables (STUBGEN_* prefix)
6. Command line flags

Examples:
  stubgen am show                       # Show current configuration
  stubgen am show --format json         # Show configuration in JSON format
  stubgen am get generate.output_dir    # Get specific config value
  stubgen am set generate.workers 4     # Persist a value in ~/.stubgen/am.toml
  stubgen am validate                   # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., generate.output_dir, build.jobs)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a configuration value",
	Long: `Write a value into the user config (~/.stubgen/am.toml), or into the
given file with --file. Integers and booleans are stored typed. The
previous file is kept as a rotated .back1 backup.`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where each setting comes from",
	RunE:  runAmWhere,
}

var (
	configFormat string
	setFile      string
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amSetCmd.Flags().StringVar(&setFile, "file", "", "Config file to write (default: ~/.stubgen/am.toml)")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	var data []byte
	switch configFormat {
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(cfg)
	case "toml":
		data, err = toml.Marshal(cfg)
	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to marshal config to %s", configFormat)
	}
	if configFormat != "json" {
		fmt.Println("# stubgen configuration")
	}
	fmt.Print(string(data))
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !am.GetViper().IsSet(key) {
		return errors.NewNotFoundError("configuration key %q not found", key)
	}
	fmt.Println(am.Get(key))
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path := setFile
	if path == "" {
		path = am.UserConfigPath()
		if path == "" {
			return errors.New("cannot determine home directory; pass --file")
		}
	}
	if err := am.Persist(path, args[0], parseValue(args[1])); err != nil {
		return err
	}

	cfg, err := am.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.WithHint(err, fmt.Sprintf("the value was written to %s; fix or restore %s.back1", path, path))
	}
	fmt.Printf("✓ %s = %s (%s)\n", args[0], args[1], path)
	return nil
}

// parseValue keeps integers and booleans typed in the TOML file.
func parseValue(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	fmt.Println("✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return err
	}

	fmt.Println("Configuration cascade (later overrides earlier):")
	fmt.Println("  1. [DEFAULT]  Built-in defaults")
	fmt.Printf("  2. [SYSTEM]   %s\n", am.SystemConfigPath)
	fmt.Println("  3. [USER]     ~/.stubgen/am.toml")
	fmt.Println("  4. [PROJECT]  ./am.toml (searches up directories)")
	fmt.Printf("  5. [ENV]      %s_* environment variables\n", am.EnvPrefix)
	fmt.Println()

	if len(intro.Files) == 0 {
		fmt.Println("No config files found; using defaults")
	} else {
		fmt.Println("Files merged:")
		for _, f := range intro.Files {
			fmt.Printf("  %s\n", f)
		}
	}

	fmt.Println("\nActive configuration:")
	for _, s := range intro.Settings {
		value := fmt.Sprintf("%v", s.Value)
		if len(value) > 50 {
			value = value[:47] + "..."
		}
		fmt.Printf("  %-32s = %-50s [%s: %s]\n", s.Key, value, s.Source, s.SourcePath)
	}
	return nil
}
