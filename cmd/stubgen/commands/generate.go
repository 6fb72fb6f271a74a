package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/stubgen/am"
	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/host"
	"github.com/teranos/stubgen/typegen"
)

var (
	genOutput   string
	genSource   string
	genSnapshot string
	genWorkers  int
	genStrict   bool
	genLint     bool
	genNoStore  bool
)

// GenerateCmd writes the stub tree for a snapshot
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate Python type stubs from a reflection snapshot",
	Long: `Generate .pyi stubs for the host API from a reflection snapshot.

The snapshot comes from host.source (a file path or any go-getter URL), or
from the snapshot store when --snapshot is given. Every run is recorded in
the store unless --no-store is set.

Examples:
  stubgen generate                                # Use am.toml settings
  stubgen generate --source dumps/bpy-2.93.json   # Explicit snapshot file
  stubgen generate --snapshot latest -o typings   # Newest stored snapshot
  stubgen generate --workers 4 --lint             # Parallel write, then lint`,
	RunE: runGenerate,
}

func init() {
	addGenerateFlags(GenerateCmd)
	GenerateCmd.Flags().BoolVar(&genNoStore, "no-store", false, "Do not record the run in the snapshot store")
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output directory (default: generate.output_dir)")
	cmd.Flags().StringVarP(&genSource, "source", "s", "", "Snapshot file or URL (default: host.source)")
	cmd.Flags().StringVar(&genSnapshot, "snapshot", "", "Stored snapshot id, or \"latest\"")
	cmd.Flags().IntVarP(&genWorkers, "workers", "w", 0, "Concurrent module writers (default: generate.workers)")
	cmd.Flags().BoolVar(&genStrict, "strict", false, "Warn on unrecognized type phrases")
	cmd.Flags().BoolVar(&genLint, "lint", false, "Parse every written stub afterwards")
}

// applyGenerateFlags lets explicitly set flags override the configuration.
func applyGenerateFlags(cmd *cobra.Command, cfg *am.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Generate.OutputDir = genOutput
	}
	if flags.Changed("source") {
		cfg.Host.Source = genSource
		cfg.Generate.Snapshot = ""
	}
	if flags.Changed("snapshot") {
		cfg.Generate.Snapshot = genSnapshot
	}
	if flags.Changed("workers") {
		cfg.Generate.Workers = genWorkers
	}
	if flags.Changed("strict") {
		cfg.Generate.Strict = genStrict
	}
	if flags.Changed("lint") {
		cfg.Generate.Lint = genLint
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyGenerateFlags(cmd, cfg)

	var store *host.Store
	if !genNoStore || cfg.Generate.Snapshot != "" {
		store, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	res, err := generateOnce(cmd.Context(), cfg, store)
	if err != nil {
		return err
	}
	printResult(res)
	if len(res.Issues) > 0 {
		return errors.Newf("%d syntax issue(s) in generated stubs", len(res.Issues))
	}
	return nil
}

// generateOnce resolves the snapshot and runs one generation. Runs are
// recorded when store is not nil and --no-store is unset.
func generateOnce(ctx context.Context, cfg *am.Config, store *host.Store) (*typegen.Result, error) {
	in, err := resolveInput(ctx, cfg, store)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var opts []typegen.Option
	if store != nil && !genNoStore {
		opts = append(opts, typegen.WithStore(store))
	}
	return typegen.NewGenerator(generatorConfig(cfg), opts...).Generate(ctx, in.Provider, in.SnapshotID)
}

func printResult(res *typegen.Result) {
	modules := make([]string, 0, len(res.Modules))
	for m := range res.Modules {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	data := pterm.TableData{{"Module", "Structs"}}
	for _, m := range modules {
		data = append(data, []string{m, fmt.Sprintf("%d", res.Modules[m])})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	pterm.Success.Printfln("Wrote %d files to %s in %s (%d structs, %d corrections)",
		len(res.Files), res.OutputDir, res.Duration.Round(time.Millisecond), res.StructCount(), res.Corrections)
	if n := len(res.Unrecognized); n > 0 {
		pterm.Warning.Printfln("%d unrecognized type phrase(s); run with --strict to list them", n)
	}
	for _, is := range res.Issues {
		pterm.Error.Printfln("%s:%d:%d %s %q", is.File, is.Line, is.Column, is.Kind, is.Text)
	}
}
