package pointer

import (
	"github.com/shivasurya/kcfa/ir"
	lru "github.com/hashicorp/golang-lru/v2"
)

// translationCacheSize bounds the per-(ir.Scope, Context) translation
// memoization cache (spec.md §4.5). Eviction only costs a re-translation
// of that body under that context; every statement's static effects
// (AddEdge, growNode, objectInterner.intern) dedupe on replay, and
// addCapture guards the one non-idempotent side effect (growing a
// function object's captured-binding list), so re-entering translateScope
// for an evicted entry is wasted work, never a correctness hazard.
const translationCacheSize = 16384

// CallEdge is one resolved call-graph arc (spec.md §3).
type CallEdge struct {
	CallerScope *Scope
	Site        *CallSite
	CalleeScope *Scope
}

// CallGraph is the read-only call-graph view built up during solving
// (spec.md §6).
type CallGraph struct {
	edges []CallEdge
	nodes map[*Scope]bool
}

func newCallGraph() *CallGraph {
	return &CallGraph{nodes: make(map[*Scope]bool)}
}

func (g *CallGraph) addEdge(e CallEdge) {
	g.edges = append(g.edges, e)
	g.nodes[e.CallerScope] = true
	g.nodes[e.CalleeScope] = true
}

// Edges returns every call edge recorded.
func (g *CallGraph) Edges() []CallEdge { return append([]CallEdge(nil), g.edges...) }

// Nodes returns every scope that participates in at least one call edge.
func (g *CallGraph) Nodes() []*Scope {
	out := make([]*Scope, 0, len(g.nodes))
	for s := range g.nodes {
		out = append(out, s)
	}
	return out
}

// state bundles every mutable structure the solver owns (spec.md §3,
// §5): environment, heap, call graph, PFG, interners and the class
// hierarchy. Only the solver mutates it; the query layer reads it after
// solve_to_fixpoint returns.
type state struct {
	env  map[Node]PTS
	objects *objectInterner
	vars    *varInterner
	scopes  *scopeInterner
	sites   *siteInterner
	pfg     *PFG
	hier    *Hierarchy
	callGraph *CallGraph
	tracker *Tracker
	logger  *Logger

	// translated tracks which (ir.Scope, Context) pairs have already been
	// translated, per spec.md §4.5's "per scope, memoized" requirement.
	translated *lru.Cache[translationKey, bool]
	// dynamicConstraints indexes dynamic constraints by their trigger node.
	dynamicConstraints map[Node][]*Constraint
	// captured records, per function/method Object, the side table of
	// cell/global/nonlocal bindings captured at closure-creation time
	// (spec.md §3's "object -> captured {cell|global|nonlocal} variable
	// bindings").
	captured map[*Object][]capturedBinding

	// worklist holds every node whose points-to set has grown since the
	// solver last drained it (the dynamic worklist of spec.md §4.8).
	worklist []Node
	// pendingBases holds class allocations whose base-class variables
	// haven't been resolved into Hierarchy edges yet; the solver drains
	// this whenever a base variable's points-to set grows.
	pendingBases []pendingBaseEntry

	maxPointsToSize      int // 0 means unbounded
	unknownAllocCounter  int
}

// pendingBaseEntry is a class allocation awaiting base-class resolution
// (spec.md §4.3): baseVars are the variables holding each already-evaluated
// base expression, in declaration order.
type pendingBaseEntry struct {
	class    *Object
	baseVars []*ContextualVariable
}

type translationKey struct {
	irScope ir.Scope
	ctx     Context
}

type capturedBinding struct {
	name     string
	kind     VariableKind
	callerCV *ContextualVariable
}

func newState(policy Policy, maxPointsToSize int, tracker *Tracker, logger *Logger) *state {
	objects := newObjectInterner()
	translated, err := lru.New[translationKey, bool](translationCacheSize)
	if err != nil {
		// Only non-positive sizes make New fail; translationCacheSize is a
		// positive constant, so this can't happen.
		panic(err)
	}
	return &state{
		env:                make(map[Node]PTS),
		objects:            objects,
		vars:               newVarInterner(),
		scopes:              newScopeInterner(),
		sites:               newSiteInterner(),
		pfg:                 NewPFG(objects),
		hier:                NewHierarchy(),
		callGraph:           newCallGraph(),
		tracker:             tracker,
		logger:              logger,
		translated:          translated,
		dynamicConstraints:  make(map[Node][]*Constraint),
		captured:            make(map[*Object][]capturedBinding),
		maxPointsToSize:     maxPointsToSize,
	}
}

// ptsOf returns the current points-to set of node, or the empty set.
func (s *state) ptsOf(node Node) PTS {
	if node == nil {
		return EmptyPTS()
	}
	return s.env[node]
}

// ctxOfNode recovers the context a node's points-to set was computed under,
// for widen's diagnostics.
func ctxOfNode(n Node) Context {
	switch v := n.(type) {
	case *ContextualVariable:
		return v.Ctx
	case *FieldAccessNode:
		return v.Obj.Context
	default:
		return Context{}
	}
}

// growNode unions add into node's current points-to set, applying
// max_points_to_size widening, and pushes node onto the dynamic worklist
// when the set actually grew. Both the translator (initial allocations and
// copy propagation) and the solver (PFG delta propagation) call this as the
// single point of env mutation.
func (s *state) growNode(node Node, add PTS, location string) PTS {
	cur := s.env[node]
	merged := cur.Union(add)
	merged = s.widen(node, merged, location, ctxOfNode(node))
	s.env[node] = merged
	if merged.Len() != cur.Len() {
		s.worklist = append(s.worklist, node)
	}
	return merged
}

// registerDynamic indexes a dynamic constraint under its trigger node and
// schedules that node for (re-)processing, so the solver applies the
// constraint against whatever the trigger already points to as soon as it
// next drains the worklist (spec.md §4.8).
func (s *state) registerDynamic(c *Constraint) {
	s.registerTrigger(c.triggerVar(), c)
}

// registerTrigger indexes c under node directly, bypassing triggerVar. A
// handful of dynamic constraints depend on more than one variable (an
// unbound method call's explicit self argument may grow after its callee
// has already resolved); the translator registers those under every node
// whose growth should re-apply them.
func (s *state) registerTrigger(node Node, c *Constraint) {
	if node == nil {
		return
	}
	s.dynamicConstraints[node] = append(s.dynamicConstraints[node], c)
	s.worklist = append(s.worklist, node)
}

// widen applies the configured max_points_to_size cap (spec.md §9): a
// set that would exceed the cap collapses to a single UnknownObject and
// the cap crossing is recorded as a CALLEE_EMPTY-class unknown.
func (s *state) widen(node Node, next PTS, location string, ctx Context) PTS {
	if s.maxPointsToSize <= 0 || next.Len() <= s.maxPointsToSize {
		return next
	}
	s.unknownAllocCounter++
	site := &AllocSite{StmtID: "widened#", Kind: AllocUnknown}
	u := s.objects.intern(&Object{Context: ctx, Alloc: site, Kind: ObjUnknown})
	s.tracker.Record(CalleeEmpty, location, "points-to set exceeded max_points_to_size and was widened", &ctx)
	return EmptyPTS().Add(u)
}
