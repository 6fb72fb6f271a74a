package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/stubgen/mcpserver"
	"github.com/teranos/stubgen/version"
)

// MCPCmd serves model lookups over the Model Context Protocol
var MCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve struct and type lookups over MCP (stdio)",
	Long: `Start a Model Context Protocol server on stdio. Tools look up struct
declarations, property types and unrecognized phrases of the configured
snapshot, and list stored snapshots and generate runs.

Logs go to stderr; use --json-logs when a client captures them.`,
	RunE: runMCP,
}

func init() {
	MCPCmd.Flags().StringVarP(&genSource, "source", "s", "", "Snapshot file or URL (default: host.source)")
	MCPCmd.Flags().StringVar(&genSnapshot, "snapshot", "", "Stored snapshot id, or \"latest\"")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("source") {
		cfg.Host.Source = genSource
		cfg.Generate.Snapshot = ""
	}
	if cmd.Flags().Changed("snapshot") {
		cfg.Generate.Snapshot = genSnapshot
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	in, err := resolveInput(cmd.Context(), cfg, store)
	if err != nil {
		return err
	}
	defer in.Close()

	srv := mcpserver.New(mcpserver.Config{
		Name:        cfg.MCP.Name,
		Version:     version.Get().Version,
		Strict:      cfg.Generate.Strict,
		Corrections: corrections(cfg.Generate.Corrections),
	}, in.Provider, store)
	return srv.Serve()
}
