package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClassObj(name string) *Object {
	return &Object{Kind: ObjClass, Alloc: &AllocSite{StmtID: name}}
}

func TestHierarchy_GetMRO_SingleInheritance(t *testing.T) {
	h := NewHierarchy()
	object := newClassObj("object")
	animal := newClassObj("Animal")
	dog := newClassObj("Dog")

	h.AddClass(object, nil)
	h.AddClass(animal, []*Object{object})
	h.AddClass(dog, []*Object{animal})

	mro := h.GetMRO(dog)
	require.Len(t, mro, 3)
	assert.Equal(t, []*Object{dog, animal, object}, mro)
}

func TestHierarchy_GetMRO_Diamond(t *testing.T) {
	// classic C3 diamond: D(B, C), B(A), C(A)
	h := NewHierarchy()
	a := newClassObj("A")
	b := newClassObj("B")
	c := newClassObj("C")
	d := newClassObj("D")

	h.AddClass(a, nil)
	h.AddClass(b, []*Object{a})
	h.AddClass(c, []*Object{a})
	h.AddClass(d, []*Object{b, c})

	mro := h.GetMRO(d)
	assert.Equal(t, []*Object{d, b, c, a}, mro)
}

func TestHierarchy_GetMRO_CachesResult(t *testing.T) {
	h := NewHierarchy()
	a := newClassObj("A")
	h.AddClass(a, nil)

	first := h.GetMRO(a)
	second := h.GetMRO(a)
	assert.Equal(t, first, second)
}

func TestHierarchy_UpdateBases_InvalidatesCache(t *testing.T) {
	h := NewHierarchy()
	a := newClassObj("A")
	b := newClassObj("B")
	c := newClassObj("C")

	h.AddClass(a, nil)
	h.AddClass(b, nil)
	h.AddClass(c, []*Object{a})

	mroBefore := h.GetMRO(c)
	assert.Equal(t, []*Object{c, a}, mroBefore)

	h.UpdateBases(c, []*Object{b})
	mroAfter := h.GetMRO(c)
	assert.Equal(t, []*Object{c, b}, mroAfter)
}

func TestHierarchy_UpdateBases_InvalidatesSubclassesToo(t *testing.T) {
	h := NewHierarchy()
	a := newClassObj("A")
	b := newClassObj("B")
	c := newClassObj("C")
	d := newClassObj("D") // subclass of C

	h.AddClass(a, nil)
	h.AddClass(b, nil)
	h.AddClass(c, []*Object{a})
	h.AddClass(d, []*Object{c})

	assert.Equal(t, []*Object{d, c, a}, h.GetMRO(d))

	h.UpdateBases(c, []*Object{b})
	assert.Equal(t, []*Object{d, c, b}, h.GetMRO(d))
}

func TestHierarchy_C3Merge_InconsistentOrderingErrors(t *testing.T) {
	a := newClassObj("A")
	b := newClassObj("B")
	// X(A, B), Y(B, A): merging X's and Y's orders is inconsistent. This
	// checks only the merge error that GetMRO's fallback is triggered by;
	// the fallback itself is not exercised here.
	_, err := c3Merge([][]*Object{{a, b}, {b, a}})
	assert.ErrorIs(t, err, errMROInconsistent)
}

func TestHierarchy_PositionInMRO(t *testing.T) {
	h := NewHierarchy()
	a := newClassObj("A")
	b := newClassObj("B")
	h.AddClass(a, nil)
	h.AddClass(b, []*Object{a})

	assert.Equal(t, 0, h.PositionInMRO(b))

	mro := h.GetMRO(b)
	idx := -1
	for i, c := range mro {
		if c == a {
			idx = i
		}
	}
	assert.Equal(t, 1, idx)
}

func TestHierarchy_Bases(t *testing.T) {
	h := NewHierarchy()
	a := newClassObj("A")
	b := newClassObj("B")
	h.AddClass(a, nil)
	h.AddClass(b, []*Object{a})

	assert.Equal(t, []*Object{a}, h.Bases(b))
	assert.Empty(t, h.Bases(a))
}
