package pointer

import "errors"

// Sentinel errors, wrapped with fmt.Errorf("%w: ...", ...) at the call
// site rather than carried in a custom error type: the surrounding code
// never needs more than Is/As against these, and the teacher codebase
// takes the same plain-sentinel approach throughout its registry and
// resolution packages.
var (
	// ErrInvalidPolicy is returned by ParsePolicy for a string that doesn't
	// match any recognized context-sensitivity policy (spec.md §4.1).
	ErrInvalidPolicy = errors.New("pointer: invalid context policy")

	// ErrInvalidConfig is returned by Config.Validate for an out-of-range
	// or otherwise unusable option (spec.md §7).
	ErrInvalidConfig = errors.New("pointer: invalid configuration")

	// ErrNoEntryModule is returned when a World has no entry module to
	// start the analysis from.
	ErrNoEntryModule = errors.New("pointer: world has no entry module")

	// ErrIterationCapExceeded marks the safety-net abort of the solver's
	// fixpoint loop (spec.md §4.8, §7). The analysis still returns its
	// best-effort result; this is logged at WARNING, not surfaced as a
	// hard failure.
	ErrIterationCapExceeded = errors.New("pointer: solver iteration cap exceeded")
)
