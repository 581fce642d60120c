package pointer

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// mroCacheSize bounds the MRO cache (spec.md §4.3). A class's MRO is cheap
// to recompute from its bases, so an entry falling out of this bounded
// cache under a very large class hierarchy costs a recomputation, never a
// correctness problem.
const mroCacheSize = 4096

// Hierarchy maintains the class → bases / subclasses registry and the
// cached C3 linearization (MRO) over it (spec.md §4.3). It has no direct
// analogue in the teacher's call-graph packages (which never modeled
// multiple inheritance), so this file is grounded directly on spec.md
// §4.3's algorithm description and the C3 merge rule used by CPython's
// own method resolution order. The MRO cache itself is backed by
// golang-lru rather than a naive unbounded map, the way the teacher's
// builder/cache.go bounds its own per-scope caches.
type Hierarchy struct {
	bases      map[*Object][]*Object
	subclasses map[*Object][]*Object
	mro        *lru.Cache[*Object, []*Object] // cache, invalidated on any base change
	failed     map[*Object]string             // class -> diagnostic, set when MRO computation fell back
}

// NewHierarchy returns an empty class registry.
func NewHierarchy() *Hierarchy {
	mro, err := lru.New[*Object, []*Object](mroCacheSize)
	if err != nil {
		// Only non-positive sizes make New fail; mroCacheSize is a
		// positive constant, so this can't happen.
		panic(err)
	}
	return &Hierarchy{
		bases:      make(map[*Object][]*Object),
		subclasses: make(map[*Object][]*Object),
		mro:        mro,
		failed:     make(map[*Object]string),
	}
}

// AddClass registers class c with the given bases, or updates them if c is
// already known (invariant 3: invalidates the MRO cache for c and every
// transitive subclass).
func (h *Hierarchy) AddClass(c *Object, bases []*Object) {
	if _, known := h.bases[c]; !known {
		h.bases[c] = append([]*Object(nil), bases...)
		for _, b := range bases {
			h.subclasses[b] = append(h.subclasses[b], c)
		}
		h.invalidate(c)
		return
	}
	h.UpdateBases(c, bases)
}

// UpdateBases replaces c's base list, removing c from the old bases'
// subclass lists and adding it to the new ones, then invalidates caches.
func (h *Hierarchy) UpdateBases(c *Object, newBases []*Object) {
	old := h.bases[c]
	for _, b := range old {
		h.subclasses[b] = removeObject(h.subclasses[b], c)
	}
	h.bases[c] = append([]*Object(nil), newBases...)
	for _, b := range newBases {
		h.subclasses[b] = append(h.subclasses[b], c)
	}
	h.invalidate(c)
}

func removeObject(list []*Object, target *Object) []*Object {
	out := list[:0:0]
	for _, o := range list {
		if o != target {
			out = append(out, o)
		}
	}
	return out
}

// invalidate drops the MRO cache entry for c and every transitive
// subclass reachable from it.
func (h *Hierarchy) invalidate(c *Object) {
	seen := make(map[*Object]bool)
	var walk func(*Object)
	walk = func(o *Object) {
		if seen[o] {
			return
		}
		seen[o] = true
		h.mro.Remove(o)
		delete(h.failed, o)
		for _, sub := range h.subclasses[o] {
			walk(sub)
		}
	}
	walk(c)
}

// Bases returns the direct bases registered for c.
func (h *Hierarchy) Bases(c *Object) []*Object {
	return h.bases[c]
}

// GetMRO returns the cached C3 linearization of c, computing and caching
// it on first access. On a linearization failure it falls back to
// [c] ++ L(bases[0]) and records a diagnostic retrievable via
// MROFailure, per spec.md §7's MRO-error recovery.
func (h *Hierarchy) GetMRO(c *Object) []*Object {
	if cached, ok := h.mro.Get(c); ok {
		return cached
	}
	lists := make([][]*Object, 0, len(h.bases[c])+1)
	for _, b := range h.bases[c] {
		lists = append(lists, h.GetMRO(b))
	}
	lists = append(lists, append([]*Object(nil), h.bases[c]...))

	merged, err := c3Merge(lists)
	var result []*Object
	if err != nil {
		result = []*Object{c}
		if len(h.bases[c]) > 0 {
			result = append(result, h.GetMRO(h.bases[c][0])...)
		}
		h.failed[c] = fmt.Sprintf("C3 linearization failed for %s: %v; fell back to first-base order", c, err)
	} else {
		result = append([]*Object{c}, merged...)
	}
	h.mro.Add(c, result)
	return result
}

// MROFailure reports the recorded fallback diagnostic for c, if its MRO
// computation ever failed, and whether one exists.
func (h *Hierarchy) MROFailure(c *Object) (string, bool) {
	msg, ok := h.failed[c]
	return msg, ok
}

// PositionInMRO returns the index of current within its own MRO, or -1 if
// it does not appear (used by super() resolution, spec.md §4.9).
func (h *Hierarchy) PositionInMRO(current *Object) int {
	mro := h.GetMRO(current)
	for i, c := range mro {
		if c == current {
			return i
		}
	}
	return -1
}

var errMROInconsistent = fmt.Errorf("pointer: inconsistent base ordering")

// c3Merge implements the C3 merge step: repeatedly take the head of some
// list that doesn't appear in the tail of any other list.
func c3Merge(lists [][]*Object) ([]*Object, error) {
	seqs := make([][]*Object, 0, len(lists))
	for _, l := range lists {
		if len(l) > 0 {
			seqs = append(seqs, append([]*Object(nil), l...))
		}
	}

	var out []*Object
	for len(seqs) > 0 {
		var head *Object
		for _, s := range seqs {
			cand := s[0]
			if !inAnyTail(seqs, cand) {
				head = cand
				break
			}
		}
		if head == nil {
			return nil, errMROInconsistent
		}
		out = append(out, head)
		next := seqs[:0:0]
		for _, s := range seqs {
			if s[0] == head {
				s = s[1:]
			}
			if len(s) > 0 {
				next = append(next, s)
			}
		}
		seqs = next
	}
	return out, nil
}

func inAnyTail(seqs [][]*Object, o *Object) bool {
	for _, s := range seqs {
		for _, x := range s[1:] {
			if x == o {
				return true
			}
		}
	}
	return false
}
