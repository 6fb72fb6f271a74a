package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/stubgen/cmd/stubgen/commands"
	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/logger"
)

var rootCmd = &cobra.Command{
	Use:   "stubgen",
	Short: "stubgen - Python type stubs for the Blender bpy API",
	Long: `stubgen - Python type stubs for the Blender bpy API.

stubgen reads a reflection snapshot of the host's bpy API and writes .pyi
stubs that editors and type checkers understand.

Available commands:
  generate - Write stubs for a snapshot
  check    - Compare committed stubs with a fresh generation
  lint     - Report syntax errors in a stub tree
  watch    - Regenerate on snapshot or configuration changes
  build    - Build the host Python module per release
  snapshot - Manage stored reflection snapshots
  mcp      - Serve struct and type lookups over MCP
  am       - Manage configuration

Examples:
  stubgen snapshot import dumps/bpy-2.93.json
  stubgen generate --snapshot latest
  stubgen check`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		logger.SetVerbosity(verbosity)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.LintCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.BuildCmd)
	rootCmd.AddCommand(commands.SnapshotCmd)
	rootCmd.AddCommand(commands.MCPCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
