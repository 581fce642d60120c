package pointer

import "fmt"

// CallShape carries the inputs the selector needs to pick a callee context
// (spec.md §4.4): the call site, an optional receiver allocation identity
// (for object/hybrid sensitivity) and an optional receiver type name (for
// type sensitivity).
type CallShape struct {
	Site          *CallSite
	ReceiverAlloc *Object // the bound instance/class object, if any
	ReceiverType  string  // class qualname of the receiver, if known
	CalleeHint    string  // callee function/method name, used as a fallback key
}

// Selector implements the context-sensitivity policy table of spec.md
// §4.4: it never holds state of its own beyond the configured policy, so
// a single instance is shared by the whole analysis.
type Selector struct {
	policy Policy
}

// NewSelector returns a selector for the given policy.
func NewSelector(policy Policy) *Selector {
	return &Selector{policy: policy}
}

// SelectCallee computes the callee context for a call from callerCtx
// through shape, per the policy table in spec.md §4.4.
func (s *Selector) SelectCallee(callerCtx Context, shape CallShape) Context {
	switch s.policy.Kind {
	case PolicyInsensitive:
		return EmptyContext(s.policy)

	case PolicyCallString:
		return callerCtx.AppendCall(shape.Site.SiteID)

	case PolicyObject:
		item := objSensitivityKey(shape)
		return callerCtx.AppendObj(item)

	case PolicyType:
		item := shape.ReceiverType
		if item == "" {
			item = shape.CalleeHint
		}
		return callerCtx.AppendObj(item)

	case PolicyReceiver:
		if shape.ReceiverAlloc != nil {
			return callerCtx.AppendObj(shape.ReceiverAlloc.idKey)
		}
		return callerCtx

	case PolicyHybrid:
		out := callerCtx.AppendCall(shape.Site.SiteID)
		return out.AppendObj(objSensitivityKey(shape))

	default:
		return callerCtx
	}
}

// objSensitivityKey returns the receiver allocation's identity, or a
// proxy keyed on the call site when no receiver is available (spec.md
// §4.4's "(or proxy call:<site_id>)" fallback).
func objSensitivityKey(shape CallShape) string {
	if shape.ReceiverAlloc != nil {
		return shape.ReceiverAlloc.idKey
	}
	return fmt.Sprintf("call:%s", shape.Site.SiteID)
}

// SelectAllocContext computes the allocation context for a new object
// created under ctx at site (spec.md §4.4's select_alloc_context):
// object-sensitive and hybrid policies append the site identity; other
// policies return ctx unchanged.
func (s *Selector) SelectAllocContext(ctx Context, site *AllocSite) Context {
	switch s.policy.Kind {
	case PolicyObject, PolicyHybrid:
		return ctx.AppendObj(site.key())
	default:
		return ctx
	}
}
