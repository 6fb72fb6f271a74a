package build

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/stubgen/errors"
)

// Step is one opaque stage of a version build.
type Step interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner executes a command line in a directory.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) error
}

// ExecRunner runs commands as child processes, streaming their combined
// output to Output (os.Stdout when nil).
type ExecRunner struct {
	Output io.Writer
}

// Run starts argv in dir and waits for it. A non-zero exit is reported as
// an *ExitError.
func (r ExecRunner) Run(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	out := r.Output
	if out == nil {
		out = os.Stdout
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: shellquote.Join(argv...), Code: exitErr.ExitCode()}
		}
		return errors.Wrapf(err, "failed to run %s", argv[0])
	}
	return nil
}

// ExitError reports a command that exited non-zero.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return "command exited with code " + strconv.Itoa(e.Code) + ": " + e.Command
}

// CommandStep runs one command line through a Runner.
type CommandStep struct {
	StepName string
	Dir      string
	Argv     []string
	Runner   Runner
}

// Name implements Step.
func (s *CommandStep) Name() string { return s.StepName }

// Run implements Step. Any failure is marked ErrStepFailed; a non-zero
// exit keeps its *ExitError reachable through errors.As.
func (s *CommandStep) Run(ctx context.Context) error {
	if err := s.Runner.Run(ctx, s.Dir, s.Argv); err != nil {
		return errors.Mark(errors.Wrapf(err, "step %s", s.StepName), errors.ErrStepFailed)
	}
	return nil
}

// String renders the command line.
func (s *CommandStep) String() string {
	return shellquote.Join(s.Argv...)
}

// SplitFlags parses a shell-quoted flag string. Empty input yields no flags.
func SplitFlags(flags string) ([]string, error) {
	if strings.TrimSpace(flags) == "" {
		return nil, nil
	}
	args, err := shellquote.Split(flags)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid flags %q", flags)
	}
	return args, nil
}
