package pointer

import "github.com/shivasurya/kcfa/ir"

// PointerAnalysis is the package's single entry point (spec.md §6):
// Analyze wires the translator, solver and state together, seeds
// translation from world's entry module, drains the solver to a fixpoint
// and hands back a read-only AnalysisResult.
type PointerAnalysis struct {
	cfg Config
}

// New validates cfg and returns a PointerAnalysis, or a wrapped
// ErrInvalidConfig (spec.md §7: configuration errors fail fast at
// construction).
func New(cfg Config) (*PointerAnalysis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PointerAnalysis{cfg: cfg}, nil
}

// AnalysisResult is the immutable handle Analyze returns: everything a
// caller needs lives behind Query(), so state itself never escapes this
// package.
type AnalysisResult struct {
	st *state
}

// Query returns the read-only view over the solved state (C14).
func (r *AnalysisResult) Query() *Query {
	return newQuery(r.st)
}

// Analyze runs the whole pipeline against world's entry module (spec.md
// §6's "PointerAnalysis.analyze(entry_module) -> AnalysisResult"): builds
// the per-analysis interners and solver-visible state, seeds translation of
// the entry module's top-level scope (module bodies are the only scope
// translateScope is ever called on directly; everything else is reached
// through a Call/ClassDef dispatch), then drains the solver to a fixpoint.
func (a *PointerAnalysis) Analyze(world ir.World) (*AnalysisResult, error) {
	entry := world.EntryModule()
	if entry == nil {
		return nil, ErrNoEntryModule
	}

	level := a.cfg.Level()
	if a.cfg.Verbose {
		level = LogDebug
	}
	logger := NewLogger(level)
	var tracker *Tracker
	if a.cfg.TrackUnknowns {
		tracker = NewTracker(0, a.cfg.LogUnknownDetails, logger)
	}

	maxPTS := 0
	if a.cfg.MaxPointsToSize != nil {
		maxPTS = *a.cfg.MaxPointsToSize
	}

	policy := a.cfg.Policy()
	st := newState(policy, maxPTS, tracker, logger)
	manager := NewManager()
	selector := NewSelector(policy)
	tr := newTranslator(st, world, a.cfg, manager)
	sv := newSolver(st, tr, selector, manager, a.cfg)

	entryCtx := EmptyContext(policy)
	entrySite := st.sites.alloc("module#"+entry.QualName(), AllocModule, entry)
	entryObj := st.objects.intern(&Object{Context: entryCtx, Alloc: entrySite, Kind: ObjModule})
	entryScope := st.scopes.intern(&Scope{
		IRScope:  entry,
		OwnerObj: entryObj,
		Ctx:      entryCtx,
		qualName: entry.QualName(),
	})
	entryScope.Module = entryScope

	tr.translateScope(entryScope)
	sv.run()

	logger.Info("analysis complete: %d objects, %d call edges, %d unknown events",
		len(st.objects.objects), len(st.callGraph.edges), tracker.Total())

	return &AnalysisResult{st: st}, nil
}
