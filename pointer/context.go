package pointer

import (
	"fmt"
	"strconv"
	"strings"
)

// PolicyKind selects which context-sensitivity discipline a Context
// follows (spec.md §4.1).
type PolicyKind int

const (
	PolicyInsensitive PolicyKind = iota
	PolicyCallString              // k-cfa
	PolicyObject                  // k-obj
	PolicyType                    // k-type
	PolicyReceiver                // k-rcv
	PolicyHybrid                  // {k_call}c{k_obj}o
)

// Policy fully describes a context-sensitivity configuration. K bounds the
// call-string/object/type/receiver chain; for PolicyHybrid, K bounds the
// call-string part and KObj bounds the object-sensitivity part.
type Policy struct {
	Kind PolicyKind
	K    int
	KObj int
}

// ParsePolicy parses the policy strings enumerated in spec.md §4.1:
// "{0..3}-cfa", "{1..3}-obj", "{1..3}-type", "{1..3}-rcv", "1c1o", "2c1o",
// "1c2o".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "1c1o":
		return Policy{Kind: PolicyHybrid, K: 1, KObj: 1}, nil
	case "2c1o":
		return Policy{Kind: PolicyHybrid, K: 2, KObj: 1}, nil
	case "1c2o":
		return Policy{Kind: PolicyHybrid, K: 1, KObj: 2}, nil
	}

	for _, suffix := range []struct {
		tag  string
		kind PolicyKind
	}{
		{"-cfa", PolicyCallString},
		{"-obj", PolicyObject},
		{"-type", PolicyType},
		{"-rcv", PolicyReceiver},
	} {
		if strings.HasSuffix(s, suffix.tag) {
			digits := strings.TrimSuffix(s, suffix.tag)
			k, err := strconv.Atoi(digits)
			if err != nil || k < 0 || k > 3 || (k == 0 && suffix.kind != PolicyCallString) {
				return Policy{}, fmt.Errorf("%w: invalid bound in %q", ErrInvalidPolicy, s)
			}
			if k == 0 {
				return Policy{Kind: PolicyInsensitive}, nil
			}
			return Policy{Kind: suffix.kind, K: k}, nil
		}
	}

	return Policy{}, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

const ctxSep = "\x1f"

// Context is a bounded summary of analysis history: a call-string part, an
// object/type/receiver-sensitivity part, or both (hybrid). It is a
// comparable value type so it can be used directly as a map key, and its
// zero value is the single empty (insensitive) context.
type Context struct {
	policy Policy
	call   string // rightmost K call-site ids, joined by ctxSep
	obj    string // rightmost KObj alloc-site/type keys, joined by ctxSep
}

// EmptyContext returns the empty context for a policy.
func EmptyContext(policy Policy) Context {
	return Context{policy: policy}
}

func boundFor(p Policy, forCall bool) int {
	switch p.Kind {
	case PolicyInsensitive:
		return 0
	case PolicyCallString:
		if forCall {
			return p.K
		}
		return 0
	case PolicyObject, PolicyType, PolicyReceiver:
		if forCall {
			return 0
		}
		return p.K
	case PolicyHybrid:
		if forCall {
			return p.K
		}
		return p.KObj
	default:
		return 0
	}
}

func appendBounded(existing, item string, bound int) string {
	if bound <= 0 {
		return existing
	}
	var items []string
	if existing != "" {
		items = strings.Split(existing, ctxSep)
	}
	items = append(items, item)
	if len(items) > bound {
		items = items[len(items)-bound:]
	}
	return strings.Join(items, ctxSep)
}

// AppendCall returns a new context with item pushed onto the call-string
// part, truncated to the policy's call bound. A no-op when the policy has
// no call-string component.
func (c Context) AppendCall(item string) Context {
	bound := boundFor(c.policy, true)
	if bound <= 0 {
		return c
	}
	return Context{policy: c.policy, call: appendBounded(c.call, item, bound), obj: c.obj}
}

// AppendObj returns a new context with item pushed onto the
// object/type/receiver-sensitivity part, truncated to the policy's object
// bound. A no-op when the policy has no such component.
func (c Context) AppendObj(item string) Context {
	bound := boundFor(c.policy, false)
	if bound <= 0 {
		return c
	}
	return Context{policy: c.policy, call: c.call, obj: appendBounded(c.obj, item, bound)}
}

// CallLen returns the number of entries in the call-string part.
func (c Context) CallLen() int {
	if c.call == "" {
		return 0
	}
	return len(strings.Split(c.call, ctxSep))
}

// ObjLen returns the number of entries in the object-sensitivity part.
func (c Context) ObjLen() int {
	if c.obj == "" {
		return 0
	}
	return len(strings.Split(c.obj, ctxSep))
}

// Policy reports the policy this context was built under.
func (c Context) Policy() Policy { return c.policy }

func (c Context) String() string {
	if c.call == "" && c.obj == "" {
		return "[]"
	}
	return fmt.Sprintf("[%s|%s]", c.call, c.obj)
}
