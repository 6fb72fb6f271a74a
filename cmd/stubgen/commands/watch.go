package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/stubgen/am"
	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/host"
	"github.com/teranos/stubgen/logger"
)

// WatchCmd regenerates stubs whenever the snapshot or configuration changes
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate stubs when the snapshot or configuration changes",
	Long: `Generate once, then watch the local snapshot file and every am.toml in
the configuration cascade, regenerating after each change settles.

Remote snapshot sources are fetched on every regeneration but not watched.
Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	addGenerateFlags(WatchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyGenerateFlags(cmd, cfg)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	regenerate := func(ctx context.Context, cfg *am.Config) error {
		res, err := generateOnce(ctx, cfg, store)
		if err != nil {
			pterm.Error.Printfln("generate failed: %v", err)
			return err
		}
		printResult(res)
		return nil
	}
	_ = regenerate(ctx, cfg)

	paths, err := watchPaths(ctx, cfg)
	if err != nil {
		return err
	}
	watcher, err := am.NewConfigWatcher(paths...)
	if err != nil {
		return err
	}
	watcher.OnReload(func(reloaded *am.Config) error {
		if err := reloaded.Validate(); err != nil {
			return errors.Wrap(err, "invalid configuration")
		}
		applyGenerateFlags(cmd, reloaded)
		return regenerate(ctx, reloaded)
	})
	am.SetGlobalWatcher(watcher)
	defer am.SetGlobalWatcher(nil)
	watcher.Start()
	defer watcher.Stop()

	logger.Infow("watching for changes", logger.FieldCount, len(paths), logger.FieldPath, paths)
	pterm.Info.Printfln("Watching %d file(s), Ctrl-C to stop", len(paths))
	<-ctx.Done()
	return nil
}

// watchPaths lists the existing config files and, for a local source, the
// snapshot file.
func watchPaths(ctx context.Context, cfg *am.Config) ([]string, error) {
	var paths []string
	for _, f := range am.ConfigFiles() {
		paths = append(paths, f.Path)
	}
	if cfg.Generate.Snapshot == "" {
		src, err := host.Fetch(ctx, cfg.Host.Source, fetchOptions(cfg), logger.ComponentLogger("host.fetch"))
		if err != nil {
			return nil, err
		}
		if !src.Remote {
			paths = append(paths, src.Path)
		}
		src.Cleanup()
	}
	if len(paths) == 0 {
		return nil, errors.WithHint(errors.New("nothing to watch"),
			"create an am.toml or point host.source at a local snapshot file")
	}
	return paths, nil
}
