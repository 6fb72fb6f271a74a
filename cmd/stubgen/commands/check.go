package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/host"
	"github.com/teranos/stubgen/typegen"
)

// CheckCmd checks whether the committed stubs match a fresh generation
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check if generated stubs are up to date",
	Long: `Generate stubs into a temporary directory and compare them with the
stubs in the output directory. Nothing is written and the run is not recorded.

Exit codes:
  0 - Stubs are up to date
  1 - Stubs are out of date, or the check failed

Examples:
  stubgen check                       # Compare against generate.output_dir
  stubgen check -o typings            # Compare against another tree`,
	RunE: runCheck,
}

func init() {
	addGenerateFlags(CheckCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyGenerateFlags(cmd, cfg)

	var store *host.Store
	if cfg.Generate.Snapshot != "" {
		if store, err = openStore(cfg); err != nil {
			return err
		}
		defer store.Close()
	}

	in, err := resolveInput(cmd.Context(), cfg, store)
	if err != nil {
		return err
	}
	defer in.Close()

	fmt.Println("Checking generated stubs...")
	result, err := typegen.NewGenerator(generatorConfig(cfg)).Check(cmd.Context(), in.Provider)
	if err != nil {
		return err
	}

	if result.UpToDate {
		fmt.Println("✓ Stubs are up to date")
		return nil
	}

	fmt.Println("✗ Stubs are out of date.")
	printFiles("Changed", result.Differences)
	printFiles("Missing", result.Missing)
	printFiles("Stale", result.Stale)
	return errors.WithHint(errors.New("stubs are out of date"), "run 'stubgen generate' to update")
}

func printFiles(label string, files []string) {
	if len(files) == 0 {
		return
	}
	fmt.Printf("\n%s files:\n", label)
	for _, f := range files {
		fmt.Printf("  - %s\n", f)
	}
}
