package commands

import (
	"context"
	"time"

	"github.com/teranos/stubgen/am"
	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/host"
	"github.com/teranos/stubgen/logger"
	"github.com/teranos/stubgen/typegen"
)

// LatestSnapshot selects the newest stored snapshot.
const LatestSnapshot = "latest"

// loadConfig loads and validates the configuration cascade.
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// generatorConfig maps the generate section onto a generation run.
func generatorConfig(cfg *am.Config) typegen.Config {
	gc := typegen.DefaultConfig(cfg.Generate.OutputDir)
	if cfg.Generate.Root != "" {
		gc.Root = cfg.Generate.Root
	}
	gc.Strict = cfg.Generate.Strict
	gc.Workers = cfg.GetWorkers()
	gc.Lint = cfg.Generate.Lint
	gc.CorrectionsScript = cfg.Generate.CorrectionsScript
	gc.Corrections = corrections(cfg.Generate.Corrections)
	return gc
}

// corrections converts configured corrections. None configured keeps the
// built-in table.
func corrections(cc []am.CorrectionConfig) []typegen.Correction {
	if len(cc) == 0 {
		return nil
	}
	out := make([]typegen.Correction, len(cc))
	for i, c := range cc {
		out[i] = typegen.Correction{Struct: c.Struct, Property: c.Property, Type: c.Type}
	}
	return out
}

func fetchOptions(cfg *am.Config) host.FetchOptions {
	return host.FetchOptions{
		CacheDir:     cfg.Host.CacheDir,
		Timeout:      time.Duration(cfg.Host.TimeoutSeconds) * time.Second,
		BlockPrivate: cfg.Host.BlockPrivate,
	}
}

// openStore opens the configured snapshot store.
func openStore(cfg *am.Config) (*host.Store, error) {
	return host.OpenStore(cfg.GetStorePath())
}

// snapshotInput is what a command generates from.
type snapshotInput struct {
	Provider   host.Provider
	SnapshotID string
	// Path is the local snapshot file, empty for stored snapshots.
	Path    string
	Remote  bool
	cleanup func()
}

func (in *snapshotInput) Close() {
	if in.cleanup != nil {
		in.cleanup()
	}
}

// resolveInput selects the snapshot: a stored one when generate.snapshot is
// set, otherwise the file or URL in host.source.
func resolveInput(ctx context.Context, cfg *am.Config, store *host.Store) (*snapshotInput, error) {
	if id := cfg.Generate.Snapshot; id != "" {
		if store == nil {
			return nil, errors.New("generate.snapshot requires the snapshot store")
		}
		if id == LatestSnapshot {
			rec, err := store.Latest(ctx, "")
			if err != nil {
				return nil, errors.WithHint(err, "import one with 'stubgen snapshot import <source>'")
			}
			id = rec.ID
		}
		p, err := store.Provider(ctx, id)
		if err != nil {
			return nil, err
		}
		return &snapshotInput{Provider: p, SnapshotID: id}, nil
	}

	log := logger.ComponentLogger("host.fetch")
	src, err := host.Fetch(ctx, cfg.Host.Source, fetchOptions(cfg), log)
	if err != nil {
		return nil, errors.WithHint(err, "set host.source in am.toml or pass --source")
	}
	snap, err := src.Load()
	if err != nil {
		src.Cleanup()
		return nil, err
	}
	return &snapshotInput{
		Provider: host.NewSnapshotProvider(snap),
		Path:     src.Path,
		Remote:   src.Remote,
		cleanup:  src.Cleanup,
	}, nil
}
