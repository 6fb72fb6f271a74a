package commands

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/stubgen/build"
)

var (
	buildTags     []string
	buildVersions string
	buildJobs     int
	buildWorkDir  string
	buildDryRun   bool
)

// BuildCmd compiles the host as a Python module per version
var BuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the host Python module for each selected version",
	Long: `Clone the host repository, then check out, configure, compile and
install every selected tag. The first failing step stops the build.

Examples:
  stubgen build                              # build.versions from am.toml
  stubgen build --tags v2.93.0,v3.0.0        # Explicit tags
  stubgen build --versions "~2.93" -j 16     # Constraint and job count
  stubgen build --dry-run                    # Print the commands only`,
	RunE: runBuild,
}

func init() {
	BuildCmd.Flags().StringSliceVar(&buildTags, "tags", nil, "Tags to build (overrides --versions)")
	BuildCmd.Flags().StringVar(&buildVersions, "versions", "", "Semver constraint over repository tags")
	BuildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 0, "Parallel compile jobs (default: logical CPUs)")
	BuildCmd.Flags().StringVar(&buildWorkDir, "work-dir", "", "Checkout and build directory")
	BuildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Print the build commands without running them")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bc := build.Config{
		Repository:     cfg.Build.Repository,
		WorkDir:        cfg.Build.WorkDir,
		Versions:       cfg.Build.Versions,
		Tags:           cfg.Build.Tags,
		ConfigureFlags: cfg.Build.ConfigureFlags,
		BPYFlags:       cfg.Build.BPYFlags,
		Generator:      cfg.Build.Generator,
		Jobs:           cfg.Build.Jobs,
	}
	flags := cmd.Flags()
	if flags.Changed("tags") {
		bc.Tags = buildTags
	}
	if flags.Changed("versions") {
		bc.Versions = buildVersions
	}
	if flags.Changed("jobs") {
		bc.Jobs = buildJobs
	}
	if flags.Changed("work-dir") {
		bc.WorkDir = buildWorkDir
	}

	verbosity, _ := cmd.Flags().GetCount("verbose")
	pipeline := build.NewPipeline(bc, build.WithReporter(build.NewTerminalReporter(verbosity)))

	if buildDryRun {
		tags, err := pipeline.Versions(ctx)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			steps, err := pipeline.Steps(tag)
			if err != nil {
				return err
			}
			fmt.Printf("# %s\n", tag)
			for _, step := range steps {
				fmt.Printf("(cd %s && %s)\n", filepath.Join(bc.WorkDir, tag), step)
			}
		}
		return nil
	}

	results, err := pipeline.Run(ctx)
	for _, r := range results {
		pterm.Success.Printfln("%s installed to %s (%s)", r.Tag, r.InstallDir, r.Duration.Round(time.Second))
	}
	return err
}
