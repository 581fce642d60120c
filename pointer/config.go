package pointer

import "fmt"

// Config holds every option the core recognizes (spec.md §6). Zero value
// is not valid; use DefaultConfig and override, then call Validate.
type Config struct {
	ContextPolicy string // parsed via ParsePolicy

	MaxIterations int // solver safety cap; must be > 0

	// MaxPointsToSize, when non-nil, widens any points-to set exceeding
	// this size to a single UnknownObject (spec.md §9's widening note).
	MaxPointsToSize *int

	Verbose  bool
	LogLevel string // DEBUG|INFO|WARNING|ERROR

	// BuildClassHierarchy and UseMROResolution are carried and defaulted
	// but not read by the analysis: the class hierarchy is always built and
	// attribute loads always walk the MRO, whatever their values.
	BuildClassHierarchy bool
	UseMROResolution    bool

	// MaxImportDepth is validated (it must be >= -1) but not read by the
	// analysis: imports are followed transitively whatever its value.
	MaxImportDepth int

	TrackUnknowns    bool
	LogUnknownDetails bool

	// EntryPoints is carried but not read: neither Analyze nor
	// CallGraphAnalyzer consults it.
	EntryPoints []string
}

// DefaultConfig returns the conservative default configuration: 0-cfa,
// a generous iteration cap, no widening, class hierarchy and MRO
// resolution on, unbounded import depth, unknown tracking on without
// verbose detail logging.
func DefaultConfig() Config {
	return Config{
		ContextPolicy:       "0-cfa",
		MaxIterations:       1_000_000,
		Verbose:             false,
		LogLevel:            "WARNING",
		BuildClassHierarchy: true,
		UseMROResolution:    true,
		MaxImportDepth:      -1,
		TrackUnknowns:       true,
		LogUnknownDetails:   false,
	}
}

// Validate fails fast on any out-of-range option (spec.md §7's
// configuration-error taxonomy), returning a wrapped ErrInvalidConfig.
func (c Config) Validate() error {
	if _, err := ParsePolicy(c.ContextPolicy); err != nil {
		return err
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be > 0, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	if c.MaxPointsToSize != nil && *c.MaxPointsToSize <= 0 {
		return fmt.Errorf("%w: max_points_to_size must be > 0 when set, got %d", ErrInvalidConfig, *c.MaxPointsToSize)
	}
	if c.MaxImportDepth < -1 {
		return fmt.Errorf("%w: max_import_depth must be >= -1, got %d", ErrInvalidConfig, c.MaxImportDepth)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Policy parses and returns the configured context-sensitivity policy.
// Validate must have already succeeded.
func (c Config) Policy() Policy {
	p, _ := ParsePolicy(c.ContextPolicy)
	return p
}

// Level parses and returns the configured log level. Validate must have
// already succeeded.
func (c Config) Level() LogLevel {
	l, _ := ParseLogLevel(c.LogLevel)
	return l
}
