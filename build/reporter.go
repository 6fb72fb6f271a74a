package build

import (
	"time"

	"github.com/pterm/pterm"
)

// Reporter receives pipeline progress.
type Reporter interface {
	VersionStarted(tag string, steps int)
	StepStarted(tag, step string)
	StepFinished(tag, step string, d time.Duration, err error)
}

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) VersionStarted(string, int) {}
func (NopReporter) StepStarted(string, string) {}
func (NopReporter) StepFinished(string, string, time.Duration, error) {}

// TerminalReporter prints progress to the terminal with pterm.
type TerminalReporter struct {
	verbosity int
}

// NewTerminalReporter creates a terminal reporter. Verbosity 1 and above
// also announces each step before it runs.
func NewTerminalReporter(verbosity int) *TerminalReporter {
	return &TerminalReporter{verbosity: verbosity}
}

// VersionStarted prints a section header for tag.
func (r *TerminalReporter) VersionStarted(tag string, steps int) {
	pterm.DefaultSection.Printfln("%s (%d steps)", tag, steps)
}

// StepStarted announces a step.
func (r *TerminalReporter) StepStarted(tag, step string) {
	if r.verbosity >= 1 {
		pterm.Info.Printfln("%s: %s", pterm.LightCyan(tag), step)
	}
}

// StepFinished prints the outcome of a step.
func (r *TerminalReporter) StepFinished(tag, step string, d time.Duration, err error) {
	if err != nil {
		pterm.Error.Printfln("%s: %s failed after %s: %v", tag, step, d.Round(time.Millisecond), err)
		return
	}
	pterm.Success.Printfln("%s: %s (%s)", tag, step, d.Round(time.Millisecond))
}
