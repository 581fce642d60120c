package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyPTS(t *testing.T) {
	p := EmptyPTS()
	assert.True(t, p.IsEmpty())
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Objects())
}

func TestPTS_AddAndContains(t *testing.T) {
	a := &Object{Kind: ObjConstant}
	b := &Object{Kind: ObjConstant}

	p := EmptyPTS().Add(a)
	assert.True(t, p.Contains(a))
	assert.False(t, p.Contains(b))
	assert.Equal(t, 1, p.Len())

	p = p.Add(b)
	assert.Equal(t, 2, p.Len())
	assert.True(t, p.Contains(a))
	assert.True(t, p.Contains(b))
}

func TestPTS_AddIsImmutable(t *testing.T) {
	a := &Object{Kind: ObjConstant}
	base := EmptyPTS()
	grown := base.Add(a)

	assert.True(t, base.IsEmpty(), "Add must not mutate the receiver")
	assert.False(t, grown.IsEmpty())
}

func TestPTS_PartitioningByMethodKind(t *testing.T) {
	plain := &Object{Kind: ObjConstant}
	classMethod := &Object{Kind: ObjMethod}
	instanceMethod := &Object{Kind: ObjMethod, InstanceObj: &Object{Kind: ObjInstance}}

	p := EmptyPTS().Add(plain).Add(classMethod).Add(instanceMethod)

	assert.Equal(t, 3, p.Len())
	assert.True(t, p.Contains(plain))
	assert.True(t, p.Contains(classMethod))
	assert.True(t, p.Contains(instanceMethod))
}

func TestPTS_Union(t *testing.T) {
	a := &Object{Kind: ObjConstant}
	b := &Object{Kind: ObjConstant}
	c := &Object{Kind: ObjConstant}

	p := EmptyPTS().Add(a).Add(b)
	q := EmptyPTS().Add(b).Add(c)

	u := p.Union(q)
	assert.Equal(t, 3, u.Len())
	for _, o := range []*Object{a, b, c} {
		assert.True(t, u.Contains(o))
	}
}

func TestPTS_Difference(t *testing.T) {
	a := &Object{Kind: ObjConstant}
	b := &Object{Kind: ObjConstant}
	c := &Object{Kind: ObjConstant}

	p := EmptyPTS().Add(a).Add(b)
	q := EmptyPTS().Add(b).Add(c)

	d := p.Difference(q)
	assert.Equal(t, 1, d.Len())
	assert.True(t, d.Contains(a))
	assert.False(t, d.Contains(b))
}

func TestPTS_Intersection(t *testing.T) {
	a := &Object{Kind: ObjConstant}
	b := &Object{Kind: ObjConstant}
	c := &Object{Kind: ObjConstant}

	p := EmptyPTS().Add(a).Add(b)
	q := EmptyPTS().Add(b).Add(c)

	i := p.Intersection(q)
	assert.Equal(t, 1, i.Len())
	assert.True(t, i.Contains(b))
}

func TestPTS_Objects_NoDuplicatesAcrossPartitions(t *testing.T) {
	objs := []*Object{
		{Kind: ObjConstant},
		{Kind: ObjMethod},
		{Kind: ObjMethod, InstanceObj: &Object{Kind: ObjInstance}},
	}
	p := EmptyPTS()
	for _, o := range objs {
		p = p.Add(o)
	}
	assert.ElementsMatch(t, objs, p.Objects())
}
