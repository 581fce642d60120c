package pointer

import "fmt"

// ObjectKind is the tag of the AbstractObject closed variant (spec.md §3,
// §9). The solver switches on this exhaustively; every new kind requires a
// matching case in apply_static's Alloc dispatch and in Call dispatch.
type ObjectKind int

const (
	ObjFunction ObjectKind = iota
	ObjMethod
	ObjClass
	ObjInstance
	ObjModule
	ObjConstant
	ObjList
	ObjTuple
	ObjDict
	ObjSet
	ObjBuiltinFunction
	ObjBuiltinMethod
	ObjSuper
	ObjCell
	ObjUnknown
)

func (k ObjectKind) String() string {
	names := [...]string{"function", "method", "class", "instance", "module", "constant",
		"list", "tuple", "dict", "set", "builtin_function", "builtin_method", "super", "cell", "unknown"}
	if int(k) < len(names) {
		return names[k]
	}
	return "invalid"
}

// Object is the tagged-variant abstract object: a context-qualified
// allocation site plus variant-specific payload (spec.md §3). Only the
// fields relevant to Kind are populated.
type Object struct {
	Context Context
	Alloc   *AllocSite
	Kind    ObjectKind

	// ObjMethod: ClassObj is always set (the class the method was defined
	// on, or rebound to by an Inherit edge); InstanceObj is set only once
	// the method has been delivered into an instance by an Instance edge
	// (spec.md §4.6, invariant 5).
	ClassObj    *Object
	InstanceObj *Object

	// ObjFunction / ObjMethod: DefiningModule is the module scope the def
	// statement lived in, threaded through so a call can give the callee
	// body's own Scope the right Module pointer for its own nested
	// global/nonlocal lookups.
	DefiningModule *Scope

	// ObjInstance
	InstanceClass *Object

	// ObjConstant
	ConstantValue interface{}

	// ObjBuiltinFunction / ObjBuiltinMethod
	BuiltinName     string
	BuiltinOwner    string // builtin type name the method was bound on, e.g. "list"
	BuiltinReceiver *Object // the specific receiver instance, for ObjBuiltinMethod

	// ObjSuper
	SuperCurrentClass *Object
	SuperInstance     *Object

	// ObjCell
	CellName string

	// identity returned by key(); computed once at construction since
	// Object is only ever handed out through the interner.
	idKey string
}

// key computes the interning identity for an object. Function/class/module
// etc. objects are identified by (context, alloc site) alone (invariant 6).
// Method and super objects additionally fold in their class/instance
// binding, because rebinding via an Inherit or Instance PFG edge produces
// a genuinely distinct representative (invariant 5) rather than mutating
// the original.
func (o *Object) key() string {
	base := fmt.Sprintf("%s\x1f%s\x1f%d", o.Context.String(), o.Alloc.key(), o.Kind)
	switch o.Kind {
	case ObjMethod:
		return fmt.Sprintf("%s\x1f%s\x1f%s", base, idOf(o.ClassObj), idOf(o.InstanceObj))
	case ObjSuper:
		return fmt.Sprintf("%s\x1f%s\x1f%s", base, idOf(o.SuperCurrentClass), idOf(o.SuperInstance))
	case ObjBuiltinMethod:
		return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%s", base, o.BuiltinOwner, o.BuiltinName, idOf(o.BuiltinReceiver))
	case ObjBuiltinFunction:
		return fmt.Sprintf("%s\x1f%s", base, o.BuiltinName)
	default:
		return base
	}
}

func idOf(o *Object) string {
	if o == nil {
		return "-"
	}
	return o.idKey
}

func (o *Object) String() string {
	if o == nil {
		return "<nil object>"
	}
	switch o.Kind {
	case ObjConstant:
		return fmt.Sprintf("const(%v)@%s", o.ConstantValue, o.Alloc.StmtID)
	case ObjBuiltinFunction:
		return fmt.Sprintf("builtin(%s)", o.BuiltinName)
	case ObjBuiltinMethod:
		return fmt.Sprintf("builtin_method(%s.%s)", o.BuiltinOwner, o.BuiltinName)
	default:
		return fmt.Sprintf("%s@%s%s", o.Kind, o.Alloc.StmtID, o.Context.String())
	}
}

// objectInterner guarantees singleton/summary coherence (invariant 6): at
// most one Object exists per identity key within the analysis.
type objectInterner struct {
	objects map[string]*Object
}

func newObjectInterner() *objectInterner {
	return &objectInterner{objects: make(map[string]*Object)}
}

// intern returns the canonical object for proto, constructing idKey first.
// Callers build proto with every identity-relevant field set, then hand it
// here instead of storing it directly.
func (oi *objectInterner) intern(proto *Object) *Object {
	proto.idKey = proto.key()
	if existing, ok := oi.objects[proto.idKey]; ok {
		return existing
	}
	oi.objects[proto.idKey] = proto
	return proto
}
