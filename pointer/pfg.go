package pointer

// EdgeKind tags a PFG edge's propagation semantics (spec.md §4.6).
type EdgeKind int

const (
	// Normal propagates a points-to set delta unchanged.
	Normal EdgeKind = iota
	// Inherit rebinds class-role method objects to the edge's target
	// class; other objects pass through unchanged. Used for edges whose
	// target is a class's field-access node.
	Inherit
	// Instance rebinds instance-role method objects to the edge's source
	// instance; other objects pass through unchanged. Used for edges
	// whose target is an instance's field-access node.
	Instance
)

// Edge is one append-only PFG arc (spec.md §9: "represent edges as
// (source_id, target_id, kind) tuples").
type Edge struct {
	Source Node
	Target Node
	Kind   EdgeKind

	// RebindClass/RebindInstance carry the class or instance object an
	// Inherit/Instance edge rebinds method objects to.
	RebindClass    *Object
	RebindInstance *Object
}

// GuardNode admits only objects satisfying Filter from a Normal edge
// into it. Nothing in this package constructs one; the isinstance summary
// allocates a constant result instead.
type GuardNode struct {
	Inner  Node
	Filter func(*Object) bool
}

func (g *GuardNode) isNode() {}

// SelectorNode gives deterministic ordering over several incoming edges:
// only the edge registered at the lowest Index contributes; later edges
// at the same index are dropped. Nothing in this package constructs one;
// decorator chains union their results into the binding.
type SelectorNode struct {
	Inner Node
	// seenIndex tracks, per object, the lowest edge index that has already
	// delivered it, so re-delivery from a higher-index edge is dropped.
	seenIndex map[*Object]int
}

func (s *SelectorNode) isNode() {}

// NewSelectorNode returns a SelectorNode wrapping inner.
func NewSelectorNode(inner Node) *SelectorNode {
	return &SelectorNode{Inner: inner, seenIndex: make(map[*Object]int)}
}

// Admit reports whether an object arriving via the edge at position index
// should be forwarded to Inner, recording the winning index the first
// time an object is seen.
func (s *SelectorNode) Admit(o *Object, index int) bool {
	if prev, ok := s.seenIndex[o]; ok {
		return index < prev
	}
	s.seenIndex[o] = index
	return true
}

// PFG is the pointer flow graph: an append-only multigraph of pointer
// nodes keyed by identity, with typed edges (spec.md §4.6, §9). It holds
// the object interner so Inherit/Instance rebinding produces canonical,
// singleton-coherent objects (invariant 6) rather than fresh lookalikes.
type PFG struct {
	succs    map[Node][]*Edge
	preds    map[Node][]*Edge
	objects  *objectInterner
}

// NewPFG returns an empty pointer flow graph backed by objects for
// rebinding.
func NewPFG(objects *objectInterner) *PFG {
	return &PFG{succs: make(map[Node][]*Edge), preds: make(map[Node][]*Edge), objects: objects}
}

// AddEdge appends a new edge if an equivalent one (same source, target,
// kind and rebinding) doesn't already exist, and returns it either way.
// PFG edges are append-only per spec.md §9.
func (g *PFG) AddEdge(source, target Node, kind EdgeKind, rebindClass, rebindInstance *Object) *Edge {
	for _, e := range g.succs[source] {
		if e.Target == target && e.Kind == kind && e.RebindClass == rebindClass && e.RebindInstance == rebindInstance {
			return e
		}
	}
	e := &Edge{Source: source, Target: target, Kind: kind, RebindClass: rebindClass, RebindInstance: rebindInstance}
	g.succs[source] = append(g.succs[source], e)
	g.preds[target] = append(g.preds[target], e)
	return e
}

// Successors returns the edges leaving node.
func (g *PFG) Successors(node Node) []*Edge {
	return g.succs[node]
}

// Predecessors returns the edges entering node.
func (g *PFG) Predecessors(node Node) []*Edge {
	return g.preds[node]
}

// FlowThrough applies an edge's transform to a delta points-to set,
// producing the payload to enqueue at e.Target (spec.md §4.6). An empty
// result means nothing should be enqueued.
func (g *PFG) FlowThrough(e *Edge, delta PTS) PTS {
	switch e.Kind {
	case Normal:
		return flowNormalThroughWrapper(e.Target, delta)
	case Inherit:
		return g.rebindClassRole(delta, e.RebindClass)
	case Instance:
		return g.rebindInstanceRole(delta, e.RebindInstance)
	default:
		return EmptyPTS()
	}
}

// flowNormalThroughWrapper applies GuardNode/SelectorNode semantics when
// the target is a wrapper node; plain nodes pass delta through unchanged.
func flowNormalThroughWrapper(target Node, delta PTS) PTS {
	switch t := target.(type) {
	case *GuardNode:
		out := EmptyPTS()
		for _, o := range delta.Objects() {
			if t.Filter(o) {
				out = out.Add(o)
			}
		}
		return out
	case *SelectorNode:
		out := EmptyPTS()
		for _, o := range delta.Objects() {
			if t.Admit(o, 0) {
				out = out.Add(o)
			}
		}
		return out
	default:
		return delta
	}
}

// rebindClassRole implements the Inherit transform: class-role method
// objects are rebound to cls; everything else (including instance-role
// methods and non-method objects) passes through unchanged.
func (g *PFG) rebindClassRole(delta PTS, cls *Object) PTS {
	out := EmptyPTS()
	for _, o := range delta.Objects() {
		if o.Kind == ObjMethod && o.InstanceObj == nil {
			rebound := g.objects.intern(&Object{Context: o.Context, Alloc: o.Alloc, Kind: ObjMethod, ClassObj: cls})
			out = out.Add(rebound)
		} else {
			out = out.Add(o)
		}
	}
	return out
}

// rebindInstanceRole implements the Instance transform: instance-role
// delivery binds a class-role method to inst, producing a genuinely new
// instance-bound method object per invariant 5; everything else passes
// through unchanged.
func (g *PFG) rebindInstanceRole(delta PTS, inst *Object) PTS {
	out := EmptyPTS()
	for _, o := range delta.Objects() {
		if o.Kind == ObjMethod {
			rebound := g.objects.intern(&Object{Context: o.Context, Alloc: o.Alloc, Kind: ObjMethod, ClassObj: o.ClassObj, InstanceObj: inst})
			out = out.Add(rebound)
		} else {
			out = out.Add(o)
		}
	}
	return out
}
