package pointer

import "fmt"

// UnknownKind categorizes an unresolved-construct event (spec.md §4.10).
type UnknownKind int

const (
	CalleeEmpty UnknownKind = iota
	CalleeNonCallable
	FunctionNotInRegistry
	MissingDependencies
	DynamicAttribute
	FieldLoadEmpty
	ImportNotFound
	AllocContextFailure
	TranslationError
	MissingArgument
)

func (k UnknownKind) String() string {
	names := [...]string{
		"CALLEE_EMPTY", "CALLEE_NON_CALLABLE", "FUNCTION_NOT_IN_REGISTRY",
		"MISSING_DEPENDENCIES", "DYNAMIC_ATTRIBUTE", "FIELD_LOAD_EMPTY",
		"IMPORT_NOT_FOUND", "ALLOC_CONTEXT_FAILURE", "TRANSLATION_ERROR",
		"MISSING_ARGUMENT",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "UNKNOWN"
}

// UnknownEvent is one recorded unresolved-construct occurrence.
type UnknownEvent struct {
	Kind     UnknownKind
	Location string
	Message  string
	Context  *Context
}

// UnknownSummary is the aggregated view returned by Tracker.Summary:
// per-kind counts plus a capped list of details. Truncated is set when
// more events occurred than MaxDetails retained (a supplement beyond
// spec.md's base C12 description, since an unbounded detail list on a
// large program would defeat the tracker's own purpose as a diagnostic).
type UnknownSummary struct {
	Counts    map[UnknownKind]int
	Details   []UnknownEvent
	Truncated bool
}

// Tracker records unresolved events during solving (spec.md §4.10). A nil
// *Tracker is valid and silently discards records, so callers that set
// Config.TrackUnknowns = false can skip tracker allocation entirely.
type Tracker struct {
	counts      map[UnknownKind]int
	details     []UnknownEvent
	maxDetails  int
	truncated   bool
	logVerbose  bool
	logger      *Logger
}

// NewTracker returns a tracker retaining at most maxDetails event
// records (0 means unbounded). logVerbose mirrors Config.LogUnknownDetails:
// when set, each event is also logged at emission time (spec.md §4.10).
func NewTracker(maxDetails int, logVerbose bool, logger *Logger) *Tracker {
	return &Tracker{
		counts:     make(map[UnknownKind]int),
		maxDetails: maxDetails,
		logVerbose: logVerbose,
		logger:     logger,
	}
}

// Record adds an event to the tracker. t may be nil, in which case Record
// is a no-op: callers do not need to nil-check before calling.
func (t *Tracker) Record(kind UnknownKind, location, message string, ctx *Context) {
	if t == nil {
		return
	}
	t.counts[kind]++
	if t.maxDetails <= 0 || len(t.details) < t.maxDetails {
		t.details = append(t.details, UnknownEvent{Kind: kind, Location: location, Message: message, Context: ctx})
	} else {
		t.truncated = true
	}
	if t.logVerbose && t.logger != nil {
		t.logger.Warning(fmt.Sprintf("%s at %s: %s", kind, location, message))
	}
}

// Summary returns the aggregated counts and capped detail list.
func (t *Tracker) Summary() UnknownSummary {
	if t == nil {
		return UnknownSummary{Counts: map[UnknownKind]int{}}
	}
	counts := make(map[UnknownKind]int, len(t.counts))
	for k, v := range t.counts {
		counts[k] = v
	}
	return UnknownSummary{
		Counts:    counts,
		Details:   append([]UnknownEvent(nil), t.details...),
		Truncated: t.truncated,
	}
}

// Total returns the number of events recorded across all kinds.
func (t *Tracker) Total() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, c := range t.counts {
		n += c
	}
	return n
}
