// Package typegen generates Python type stubs for a host's reflection
// snapshot: ingest, correct, order, write, then optionally lint.
package typegen

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/stubgen/db"
	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/host"
	"github.com/teranos/stubgen/logger"
	"github.com/teranos/stubgen/typegen/ingest"
	"github.com/teranos/stubgen/typegen/lint"
	"github.com/teranos/stubgen/typegen/model"
	"github.com/teranos/stubgen/typegen/order"
	"github.com/teranos/stubgen/typegen/python"
	"github.com/teranos/stubgen/typegen/script"
)

// DefaultRoot is the package whose index binds the host singletons.
const DefaultRoot = "bpy"

// Config controls one generation run.
type Config struct {
	OutputDir string
	// Root names the package that receives the index file.
	Root string
	// Strict raises unrecognized phrases and dropped doc fragments to warnings.
	Strict bool
	// Workers > 1 writes struct modules concurrently.
	Workers int
	// Lint parses every written file afterwards.
	Lint bool
	// Corrections are applied before ordering. Nil means DefaultCorrections.
	Corrections []Correction
	// CorrectionsScript is a Risor script run after Corrections.
	CorrectionsScript string
	Options           python.Options
}

// DefaultConfig returns the configuration for a plain run into dir.
func DefaultConfig(dir string) Config {
	return Config{
		OutputDir: dir,
		Root:      DefaultRoot,
		Workers:   1,
		Options:   python.DefaultOptions(),
	}
}

// Generator runs the stub pipeline. Runs are recorded in the store when
// one is attached.
type Generator struct {
	cfg   Config
	store *host.Store
}

// Option configures a Generator.
type Option func(*Generator)

// WithStore records every run in s.
func WithStore(s *host.Store) Option {
	return func(g *Generator) {
		g.store = s
	}
}

// NewGenerator creates a generator.
func NewGenerator(cfg Config, opts ...Option) *Generator {
	if cfg.Root == "" {
		cfg.Root = DefaultRoot
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Corrections == nil {
		cfg.Corrections = DefaultCorrections
	}
	g := &Generator{cfg: cfg}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Config returns the effective configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate runs the pipeline over p. snapshotID links the run to a stored
// snapshot and may be empty. A module whose structs cannot be ordered
// aborts the run; files written before it stay on disk.
func (g *Generator) Generate(ctx context.Context, p host.Provider, snapshotID string) (res *Result, err error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logger.WithComponent(logger.WithRunID(ctx, runID), "typegen")
	log := logger.LoggerFromContext(ctx)

	res = &Result{
		RunID:     runID,
		OutputDir: g.cfg.OutputDir,
		Modules:   make(map[string]int),
	}

	if g.store != nil {
		if err := g.store.BeginRun(ctx, runID, snapshotID, g.cfg.OutputDir); err != nil {
			return nil, err
		}
		defer func() {
			if ferr := g.store.FinishRun(context.WithoutCancel(ctx), runID,
				len(res.Files), res.Unrecognized, err); ferr != nil {
				if db.IsDatabaseClosed(ferr) {
					log.Debugw("store closed before run was recorded", logger.FieldError, ferr)
					return
				}
				log.Warnw("failed to record run", logger.FieldError, ferr)
			}
		}()
	}

	builder := ingest.NewBuilder(g.cfg.Strict)
	built, err := builder.Build(ctx, p)
	if err != nil {
		return res, errors.Wrap(err, "failed to ingest snapshot")
	}
	res.Unrecognized = built.Unrecognized
	res.Enums = len(built.Enums)

	if err := g.correct(ctx, built, builder, res, log); err != nil {
		return res, err
	}

	writer := python.NewWriter(g.cfg.OutputDir, g.cfg.Options)
	if err := g.writeModules(ctx, writer, built.Modules, res); err != nil {
		return res, err
	}

	names := make([]string, 0, len(built.Modules)+len(built.Standalone))
	for _, m := range built.Modules {
		names = append(names, m.Name)
	}
	for _, m := range built.Standalone {
		if m.Name == g.cfg.Root {
			// The index owns the root file.
			continue
		}
		path, err := writer.WriteStandalone(m)
		if err != nil {
			return res, err
		}
		res.Files = append(res.Files, path)
		names = append(names, m.Name)
	}

	index, err := writer.WriteIndex(g.cfg.Root, python.Children(g.cfg.Root, names...), built.Singletons)
	if err != nil {
		return res, err
	}
	res.Files = append(res.Files, index)

	if g.cfg.Lint {
		issues, err := lint.Dir(ctx, g.cfg.OutputDir)
		if err != nil {
			return res, err
		}
		res.Issues = issues
		for _, is := range issues {
			log.Warnw("syntax issue in generated stub",
				logger.FieldFile, is.File, "line", is.Line, "text", is.Text)
		}
	}

	res.Duration = time.Since(start)
	log.Infow("generated stubs",
		logger.FieldCount, len(res.Files),
		"structs", res.StructCount(),
		"unrecognized", len(res.Unrecognized),
		logger.FieldDurationMS, res.Duration.Milliseconds())
	return res, nil
}

func (g *Generator) correct(ctx context.Context, built *ingest.Result, builder *ingest.Builder, res *Result, log *zap.SugaredLogger) error {
	m := NewModel(built, builder.Engine())
	applied, err := m.Apply(g.cfg.Corrections)
	if err != nil {
		return err
	}
	res.Corrections = applied

	if g.cfg.CorrectionsScript != "" {
		if err := script.NewRunner(m, log.Named("script")).LoadFile(ctx, g.cfg.CorrectionsScript); err != nil {
			return err
		}
	}
	return nil
}

type moduleOutput struct {
	ordered []*model.Struct
	path    string
	err     error
}

// writeModules orders and writes every struct module. A module that fails
// stops the run there: modules before it stay on disk, modules after it are
// not written, whatever the worker count.
func (g *Generator) writeModules(ctx context.Context, w *python.Writer, modules []*model.Module, res *Result) error {
	outputs := make([]moduleOutput, len(modules))

	// Ordering has no side effects, so every module is ordered before any
	// file is written and the first failure bounds the write.
	g.fanOut(len(modules), func(i int) bool {
		outputs[i].ordered, outputs[i].err = order.Module(modules[i])
		return true
	})
	limit := len(modules)
	for i := range outputs {
		if outputs[i].err != nil {
			limit = i
			break
		}
	}

	var failed atomic.Bool
	g.fanOut(limit, func(i int) bool {
		if failed.Load() {
			return false
		}
		if err := ctx.Err(); err != nil {
			outputs[i].err = err
			failed.Store(true)
			return false
		}
		outputs[i].path, outputs[i].err = w.WriteModule(modules[i], outputs[i].ordered)
		if outputs[i].err != nil {
			failed.Store(true)
			return false
		}
		return true
	})

	for i, out := range outputs {
		if out.err != nil {
			return errors.Wrapf(out.err, "module %s", modules[i].Name)
		}
		if out.path == "" {
			continue
		}
		res.Files = append(res.Files, out.path)
		res.Modules[modules[i].Name] = len(out.ordered)
	}
	return nil
}

// fanOut calls fn for 0..n-1, sequentially with one worker and on a worker
// pool otherwise. Sequential calls stop at the first fn returning false.
func (g *Generator) fanOut(n int, fn func(i int) bool) {
	if g.cfg.Workers == 1 || n < 2 {
		for i := 0; i < n; i++ {
			if !fn(i) {
				return
			}
		}
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for k := 0; k < g.cfg.Workers && k < n; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}
