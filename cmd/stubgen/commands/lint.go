package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/typegen/lint"
)

// LintCmd parses a stub tree and reports syntax errors
var LintCmd = &cobra.Command{
	Use:   "lint [dir]",
	Short: "Report syntax errors in a stub tree",
	Long: `Parse every .pyi file below dir (default: generate.output_dir) with the
tree-sitter Python grammar and report syntax errors.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLint,
}

func runLint(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.Generate.OutputDir
	}

	issues, err := lint.Dir(cmd.Context(), dir)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		fmt.Printf("✓ No syntax errors in %s\n", dir)
		return nil
	}
	for _, is := range issues {
		fmt.Printf("%s:%d:%d: %s %q\n", is.File, is.Line, is.Column, is.Kind, is.Text)
	}
	return errors.Newf("%d syntax issue(s)", len(issues))
}
