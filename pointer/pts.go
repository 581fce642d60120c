package pointer

// PTS is a points-to set: an immutable-by-convention collection of
// abstract objects, partitioned internally into plain objects, class-level
// methods, and instance-level methods (spec.md §3). The PFG's
// Inherit/Instance edges (pfg.go) still iterate every member of the
// delivered set when rebinding method objects. All mutating-looking operations
// return a new PTS; callers that want in-place growth (the solver) assign
// the result back.
type PTS struct {
	plain           map[*Object]struct{}
	classMethods    map[*Object]struct{}
	instanceMethods map[*Object]struct{}
}

// EmptyPTS returns a new, empty points-to set.
func EmptyPTS() PTS {
	return PTS{}
}

func partitionOf(o *Object) int {
	if o.Kind != ObjMethod {
		return 0
	}
	if o.InstanceObj != nil {
		return 2
	}
	return 1
}

func (p PTS) cloneMaps() PTS {
	out := PTS{}
	if len(p.plain) > 0 {
		out.plain = make(map[*Object]struct{}, len(p.plain))
		for o := range p.plain {
			out.plain[o] = struct{}{}
		}
	}
	if len(p.classMethods) > 0 {
		out.classMethods = make(map[*Object]struct{}, len(p.classMethods))
		for o := range p.classMethods {
			out.classMethods[o] = struct{}{}
		}
	}
	if len(p.instanceMethods) > 0 {
		out.instanceMethods = make(map[*Object]struct{}, len(p.instanceMethods))
		for o := range p.instanceMethods {
			out.instanceMethods[o] = struct{}{}
		}
	}
	return out
}

func (p PTS) bucket(part int) map[*Object]struct{} {
	switch part {
	case 1:
		return p.classMethods
	case 2:
		return p.instanceMethods
	default:
		return p.plain
	}
}

func setBucket(p *PTS, part int, m map[*Object]struct{}) {
	switch part {
	case 1:
		p.classMethods = m
	case 2:
		p.instanceMethods = m
	default:
		p.plain = m
	}
}

// Add returns a PTS with o inserted.
func (p PTS) Add(o *Object) PTS {
	out := p.cloneMaps()
	part := partitionOf(o)
	m := out.bucket(part)
	if m == nil {
		m = make(map[*Object]struct{}, 1)
	}
	m[o] = struct{}{}
	setBucket(&out, part, m)
	return out
}

// Contains reports whether o is a member.
func (p PTS) Contains(o *Object) bool {
	_, ok := p.bucket(partitionOf(o))[o]
	return ok
}

// Len returns the total number of members across all partitions.
func (p PTS) Len() int {
	return len(p.plain) + len(p.classMethods) + len(p.instanceMethods)
}

// Objects returns every member, in no particular order.
func (p PTS) Objects() []*Object {
	out := make([]*Object, 0, p.Len())
	for o := range p.plain {
		out = append(out, o)
	}
	for o := range p.classMethods {
		out = append(out, o)
	}
	for o := range p.instanceMethods {
		out = append(out, o)
	}
	return out
}

// Union returns the set union of p and q.
func (p PTS) Union(q PTS) PTS {
	out := p.cloneMaps()
	for _, o := range q.Objects() {
		part := partitionOf(o)
		m := out.bucket(part)
		if m == nil {
			m = make(map[*Object]struct{}, 1)
		}
		m[o] = struct{}{}
		setBucket(&out, part, m)
	}
	return out
}

// Difference returns the members of p not present in q.
func (p PTS) Difference(q PTS) PTS {
	out := EmptyPTS()
	for _, o := range p.Objects() {
		if !q.Contains(o) {
			out = out.Add(o)
		}
	}
	return out
}

// Intersection returns the members present in both p and q.
func (p PTS) Intersection(q PTS) PTS {
	out := EmptyPTS()
	for _, o := range p.Objects() {
		if q.Contains(o) {
			out = out.Add(o)
		}
	}
	return out
}

// IsEmpty reports whether the set has no members.
func (p PTS) IsEmpty() bool {
	return p.Len() == 0
}
