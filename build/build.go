// Package build compiles the host as a Python module for every selected
// release, so reflection snapshots can be dumped per version.
//
// Each version runs checkout, configure, compile and install in order and
// stops at the first failing step:
//
//	cmake -S blender -B bpy -G Ninja <configure flags> <bpy flags>
//	cmake --build bpy -j N
//	cmake --install bpy --config Release --prefix <tag>/bpy_install
package build

import (
	"context"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/logger"
)

// Directory names below each tag directory.
const (
	BuildDir   = "bpy"
	InstallDir = "bpy_install"
)

// Config describes the builds to run.
type Config struct {
	Repository string
	WorkDir    string
	// Versions is a semver constraint over repository tags. Ignored when
	// Tags is set.
	Versions string
	Tags     []string
	// ConfigureFlags and BPYFlags are shell-quoted cmake arguments.
	ConfigureFlags string
	BPYFlags       string
	Generator      string
	// Jobs is the compile parallelism; zero means DefaultJobs.
	Jobs int
}

// VersionResult describes the build of one tag.
type VersionResult struct {
	Tag        string
	InstallDir string
	Duration   time.Duration
}

// Pipeline runs the build for every selected version.
type Pipeline struct {
	cfg      Config
	source   *Source
	runner   Runner
	reporter Reporter
	log      *zap.SugaredLogger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// NewPipeline creates a pipeline for cfg.
func NewPipeline(cfg Config, opts ...Option) *Pipeline {
	if cfg.Jobs <= 0 {
		cfg.Jobs = DefaultJobs()
	}
	if cfg.Generator == "" {
		cfg.Generator = "Ninja"
	}
	log := logger.ComponentLogger("build")
	p := &Pipeline{
		cfg:      cfg,
		source:   NewSource(cfg.Repository, cfg.WorkDir, log.Named("source")),
		runner:   ExecRunner{},
		reporter: NopReporter{},
		log:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Source returns the checkout manager.
func (p *Pipeline) Source() *Source {
	return p.source
}

// Versions resolves the tags to build: the configured list, or the
// repository tags matching the version constraint.
func (p *Pipeline) Versions(ctx context.Context) ([]string, error) {
	if len(p.cfg.Tags) > 0 {
		return p.cfg.Tags, nil
	}
	repo, err := p.source.Open(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := p.source.Tags(repo)
	if err != nil {
		return nil, err
	}
	selected, err := SelectVersions(tags, p.cfg.Versions)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, errors.WithHint(
			errors.NewNotFoundError("no tags match %q", p.cfg.Versions),
			"widen build.versions or list tags explicitly in build.tags")
	}
	return selected, nil
}

// Run builds every selected version in order and stops at the first
// failure. Results for the versions built before it are returned with the
// error.
func (p *Pipeline) Run(ctx context.Context) ([]VersionResult, error) {
	if _, err := p.source.Open(ctx); err != nil {
		return nil, err
	}
	tags, err := p.Versions(ctx)
	if err != nil {
		return nil, err
	}
	p.log.Infow("building versions", logger.FieldCount, len(tags), "tags", tags)

	var results []VersionResult
	for _, tag := range tags {
		res, err := p.BuildVersion(ctx, tag)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// BuildVersion checks out tag and runs its steps.
func (p *Pipeline) BuildVersion(ctx context.Context, tag string) (*VersionResult, error) {
	start := time.Now()
	log := p.log.With(logger.FieldVersion, tag)

	steps, err := p.Steps(tag)
	if err != nil {
		return nil, err
	}
	steps = append([]Step{&checkoutStep{source: p.source, tag: tag}}, steps...)
	p.reporter.VersionStarted(tag, len(steps))

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.reporter.StepStarted(tag, step.Name())
		stepStart := time.Now()
		err := step.Run(ctx)
		p.reporter.StepFinished(tag, step.Name(), time.Since(stepStart), err)
		if err != nil {
			log.Errorw("build step failed", logger.FieldStep, step.Name(), logger.FieldError, err)
			return nil, errors.Wrapf(err, "version %s", tag)
		}
		log.Debugw("build step done", logger.FieldStep, step.Name(),
			logger.FieldDurationMS, time.Since(stepStart).Milliseconds())
	}

	return &VersionResult{
		Tag:        tag,
		InstallDir: filepath.Join(p.cfg.WorkDir, tag, InstallDir),
		Duration:   time.Since(start),
	}, nil
}

// Steps returns the cmake steps for tag. They run in the tag directory.
func (p *Pipeline) Steps(tag string) ([]Step, error) {
	configureFlags, err := SplitFlags(p.cfg.ConfigureFlags)
	if err != nil {
		return nil, err
	}
	bpyFlags, err := SplitFlags(p.cfg.BPYFlags)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(p.cfg.WorkDir, tag)
	configure := []string{"cmake", "-S", MainCheckout, "-B", BuildDir, "-G", p.cfg.Generator}
	configure = append(configure, configureFlags...)
	configure = append(configure, bpyFlags...)

	return []Step{
		&CommandStep{StepName: "configure", Dir: dir, Argv: configure, Runner: p.runner},
		&CommandStep{StepName: "compile", Dir: dir, Runner: p.runner,
			Argv: []string{"cmake", "--build", BuildDir, "-j", strconv.Itoa(p.cfg.Jobs)}},
		&CommandStep{StepName: "install", Dir: dir, Runner: p.runner,
			Argv: []string{"cmake", "--install", BuildDir, "--config", "Release", "--prefix", InstallDir}},
	}, nil
}

type checkoutStep struct {
	source *Source
	tag    string
}

func (s *checkoutStep) Name() string { return "checkout" }

func (s *checkoutStep) Run(ctx context.Context) error {
	if _, err := s.source.Checkout(ctx, s.tag); err != nil {
		return errors.Mark(err, errors.ErrStepFailed)
	}
	return nil
}
