package typegen

import (
	"time"

	"github.com/teranos/stubgen/typegen/lint"
)

// Result describes one generation run.
type Result struct {
	// RunID identifies the run in logs and in the run store.
	RunID string

	// OutputDir is the root every file was written below.
	OutputDir string

	// Files lists written files in emission order: struct modules, then
	// standalone modules, then the root index.
	Files []string

	// Modules maps each struct module to the number of structs it emitted.
	Modules map[string]int

	// Corrections counts applied built-in corrections.
	Corrections int

	// Unrecognized lists documentation phrases that were synthesized as
	// named types instead of matching a known phrase.
	Unrecognized []string

	// Enums counts enum descriptors collected during inference.
	Enums int

	// Issues holds syntax problems found by the lint pass, when enabled.
	Issues []lint.Issue

	Duration time.Duration
}

// StructCount totals the structs emitted across modules.
func (r *Result) StructCount() int {
	n := 0
	for _, c := range r.Modules {
		n += c
	}
	return n
}
