package pointer

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Query is the read-only view handed to callers once solve_to_fixpoint has
// returned (spec.md §5, §6, C14). Every method reads state directly; none
// of them ever mutate it, matching the "external read access happens only
// after the solver returns" boundary the rest of this package enforces by
// construction (state is never exported).
type Query struct {
	st *state
}

func newQuery(st *state) *Query {
	return &Query{st: st}
}

// PointsTo returns v's points-to set. A variable that was never translated
// (typo, dead code, a frontend-reported name the analysis never saw) simply
// reads back the empty set rather than erroring, consistent with the
// over-approximating/never-raises contract of spec.md §7.
func (q *Query) PointsTo(v *ContextualVariable) PTS {
	return q.st.ptsOf(v)
}

// Field returns the points-to set of (obj, f), the heap-field node if one
// was ever created, or the empty set otherwise.
func (q *Query) Field(obj *Object, f Field) PTS {
	if !q.st.vars.hasField(obj, f) {
		return EmptyPTS()
	}
	return q.st.ptsOf(q.st.vars.field(obj, f))
}

// MayAlias reports whether a and b's points-to sets share at least one
// abstract object (spec.md §6).
func (q *Query) MayAlias(a, b *ContextualVariable) bool {
	return !q.st.ptsOf(a).Intersection(q.st.ptsOf(b)).IsEmpty()
}

// CallGraph returns the resolved call graph accumulated during solving.
func (q *Query) CallGraph() *CallGraph {
	return q.st.callGraph
}

// Statistics returns a snapshot of size counters for the solved state,
// keyed the way spec.md §6 describes ("statistics() → map"): object/
// variable/field counts, call-graph size, and the unknown-event total.
func (q *Query) Statistics() map[string]int {
	return map[string]int{
		"objects":        len(q.st.objects.objects),
		"variables":      len(q.st.vars.vars),
		"fields":         len(q.st.vars.fields),
		"scopes":         len(q.st.scopes.scopes),
		"call_edges":     len(q.st.callGraph.edges),
		"call_nodes":     len(q.st.callGraph.nodes),
		"classes":        len(q.st.hier.bases),
		"unknown_events": q.st.tracker.Total(),
	}
}

// UnknownSummary returns the per-kind counts recorded by the tracker
// (spec.md §4.10, C12), keyed by the kind's string name so callers don't
// need this package's UnknownKind type to read the map.
func (q *Query) UnknownSummary() map[string]int {
	summary := q.st.tracker.Summary()
	out := make(map[string]int, len(summary.Counts))
	for k, v := range summary.Counts {
		out[k.String()] = v
	}
	return out
}

// UnknownDetails returns the tracker's capped detail list.
func (q *Query) UnknownDetails() []UnknownEvent {
	return q.st.tracker.Summary().Details
}

// Variable looks up the contextual variable for (scope, ctx, name, kind)
// if it was ever interned, without creating one — a convenience for CLI/
// test callers who only have the surface (scope, name) pair, not a
// *ContextualVariable handle.
func (q *Query) Variable(scope *Scope, ctx Context, name string, kind VariableKind) (*ContextualVariable, bool) {
	key := fmt.Sprintf("%s\x1f%s\x1f%d\x1f%s", scope.idKey, ctx.String(), kind, name)
	cv, ok := q.st.vars.vars[key]
	return cv, ok
}

// Report is the JSON-serializable summary of an analysis run: the pieces
// of a Query's output that have a natural flat shape, for CLI/file export
// (spec.md §6: "No bit-exact file formats are mandated; diagnostics/
// exports may be JSON"). Call graph edges and unknown events are reduced
// to human-readable strings rather than exporting Scope/Object pointers
// directly, since those carry unexported identity fields with no stable
// external representation.
type Report struct {
	Statistics     map[string]int `json:"statistics"`
	UnknownSummary map[string]int `json:"unknown_summary"`
	CallEdges      []string       `json:"call_edges"`
	UnknownEvents  []string       `json:"unknown_events"`
	Truncated      bool           `json:"unknown_events_truncated"`
}

// BuildReport assembles the exportable snapshot of q's current state.
func (q *Query) BuildReport() Report {
	cg := q.CallGraph()
	edges := make([]string, 0, len(cg.edges))
	for _, e := range cg.edges {
		callerName := "<entry>"
		if e.CallerScope != nil {
			callerName = e.CallerScope.qualName
		}
		edges = append(edges, fmt.Sprintf("%s -> %s @ %s", callerName, e.CalleeScope.qualName, e.Site.SiteID))
	}

	summary := q.st.tracker.Summary()
	details := make([]string, 0, len(summary.Details))
	for _, ev := range summary.Details {
		details = append(details, fmt.Sprintf("%s at %s: %s", ev.Kind, ev.Location, ev.Message))
	}

	return Report{
		Statistics:     q.Statistics(),
		UnknownSummary: q.UnknownSummary(),
		CallEdges:      edges,
		UnknownEvents:  details,
		Truncated:      summary.Truncated,
	}
}

// MarshalJSON encodes r via goccy/go-json, a faster encoding/json
// drop-in, matching the teacher's own output/graph packages' use of it
// instead of the standard library for every export path.
func (r Report) MarshalJSON() ([]byte, error) {
	type alias Report // avoid infinite recursion through MarshalJSON
	return json.Marshal(alias(r))
}

// -- call graph analysis --------------------------------------------------

// CallGraphAnalyzer answers reachability and structural questions over a
// solved CallGraph (spec.md §6's "CallGraphAnalyzer optionally provides
// reachability, unreachable-set, per-function in/out degree... and path
// enumeration").
type CallGraphAnalyzer struct {
	graph *CallGraph
	out   map[*Scope][]CallEdge
	in    map[*Scope][]CallEdge
}

// NewCallGraphAnalyzer indexes g's edges for repeated queries.
func NewCallGraphAnalyzer(g *CallGraph) *CallGraphAnalyzer {
	a := &CallGraphAnalyzer{
		graph: g,
		out:   make(map[*Scope][]CallEdge),
		in:    make(map[*Scope][]CallEdge),
	}
	for _, e := range g.edges {
		a.out[e.CallerScope] = append(a.out[e.CallerScope], e)
		a.in[e.CalleeScope] = append(a.in[e.CalleeScope], e)
	}
	return a
}

// Reachable returns every scope reachable from roots by following call
// edges forward, roots included.
func (a *CallGraphAnalyzer) Reachable(roots []*Scope) map[*Scope]bool {
	seen := make(map[*Scope]bool, len(roots))
	queue := append([]*Scope(nil), roots...)
	for _, r := range roots {
		seen[r] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range a.out[cur] {
			if !seen[e.CalleeScope] {
				seen[e.CalleeScope] = true
				queue = append(queue, e.CalleeScope)
			}
		}
	}
	return seen
}

// Unreachable returns every call-graph node not reachable from roots.
func (a *CallGraphAnalyzer) Unreachable(roots []*Scope) []*Scope {
	reachable := a.Reachable(roots)
	var out []*Scope
	for _, n := range a.graph.Nodes() {
		if !reachable[n] {
			out = append(out, n)
		}
	}
	return out
}

// InDegree and OutDegree report per-scope call-edge counts.
func (a *CallGraphAnalyzer) InDegree(s *Scope) int  { return len(a.in[s]) }
func (a *CallGraphAnalyzer) OutDegree(s *Scope) int { return len(a.out[s]) }

// Paths enumerates every simple path (no repeated node) from from to to,
// up to maxDepth edges. Small analyses only; a program with deep mutual
// recursion can have exponentially many simple paths, so callers pass a
// maxDepth that bounds the search rather than letting it run unattended.
func (a *CallGraphAnalyzer) Paths(from, to *Scope, maxDepth int) [][]CallEdge {
	var results [][]CallEdge
	visited := map[*Scope]bool{from: true}
	var walk func(cur *Scope, path []CallEdge)
	walk = func(cur *Scope, path []CallEdge) {
		if cur == to && len(path) > 0 {
			results = append(results, append([]CallEdge(nil), path...))
			return
		}
		if len(path) >= maxDepth {
			return
		}
		for _, e := range a.out[cur] {
			if visited[e.CalleeScope] {
				continue
			}
			visited[e.CalleeScope] = true
			walk(e.CalleeScope, append(path, e))
			visited[e.CalleeScope] = false
		}
	}
	walk(from, nil)
	return results
}
