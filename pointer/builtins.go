package pointer

import "fmt"

// SummaryEnv is the narrow slice of solver state a builtin summary needs
// (spec.md §4.9): allocating a call-site-scoped result object, wiring PFG
// edges directly when the receiver is already a concrete object, and
// recording unknowns. The solver implements this; summaries never see
// the rest of the solver's internals. Grounded on the teacher's
// registry.BuiltinRegistry (graph/callgraph/registry/builtin.go), which
// likewise groups builtin-type knowledge behind a small lookup API
// rather than exposing its internal maps.
type SummaryEnv interface {
	// AllocNow immediately creates (or, for the same tag and non-nil
	// target, returns the existing) result object, propagates it into
	// target if target is non-nil, and returns it. With a nil target each
	// call allocates a fresh object.
	AllocNow(target Node, ctx Context, allocKind AllocKind, objKind ObjectKind, tag string) *Object
	FieldNode(obj *Object, f Field) *FieldAccessNode
	AddEdge(source, target Node, kind EdgeKind, rebindClass, rebindInstance *Object) *Edge
	Track(kind UnknownKind, location, message string, ctx *Context)
	Hierarchy() *Hierarchy
}

// SummaryCall carries a single builtin dispatch (spec.md §4.9). Receiver
// is the concrete bound object for method summaries (e.g. the specific
// list object `append` was looked up on); nil for free functions.
type SummaryCall struct {
	Target   *ContextualVariable
	Receiver *Object
	Args     []*ContextualVariable
	Kwargs   map[string]*ContextualVariable
	Site     *CallSite
	Ctx      Context
	Location string

	// EnclosingClass is the class object of the method scope the call
	// occurs in, if any. Used by implicit super() (spec.md §4.9).
	EnclosingClass *Object
	// EnclosingSelf is the first parameter of the enclosing method scope,
	// if any. Used by implicit super().
	EnclosingSelf *ContextualVariable
}

func (c SummaryCall) arg(i int) *ContextualVariable {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return nil
}

// Summary is a builtin's constraint template: it performs whatever
// immediate effects it can (allocation, direct PFG edges to a known
// receiver) and returns any additional dynamic constraints that must be
// re-evaluated as an argument variable's points-to set grows (spec.md
// §4.9: "a function (target, args, ctx) → [Constraint] plus direct state
// touches for PFG edges when needed").
type Summary func(env SummaryEnv, call SummaryCall) []*Constraint

// Manager registers and dispatches builtin summaries (spec.md §4.9,
// §4.10's "Method summaries are dispatched at Call time when the callee
// is a BuiltinMethodObject").
type Manager struct {
	functions map[string]Summary
	methods   map[string]map[string]Summary // owner type name -> method name -> summary
}

// NewManager returns a manager pre-populated with the representative
// summary table of spec.md §4.9.
func NewManager() *Manager {
	m := &Manager{functions: make(map[string]Summary), methods: make(map[string]map[string]Summary)}
	m.initContainerConstructors()
	m.initIteration()
	m.initIntrospection()
	m.initConservativeVoid()
	m.initSuper()
	m.initListMethods()
	m.initDictMethods()
	m.initSetMethods()
	m.initStringMethods()
	return m
}

// HasFunctionSummary reports whether name names a known free-function builtin.
func (m *Manager) HasFunctionSummary(name string) bool {
	_, ok := m.functions[name]
	return ok
}

// ApplyFunction dispatches a free-function builtin call.
func (m *Manager) ApplyFunction(env SummaryEnv, name string, call SummaryCall) []*Constraint {
	if s, ok := m.functions[name]; ok {
		return s(env, call)
	}
	return nil
}

// HasMethodSummary reports whether ownerType.name is a known builtin method.
func (m *Manager) HasMethodSummary(ownerType, name string) bool {
	tbl, ok := m.methods[ownerType]
	if !ok {
		return false
	}
	_, ok = tbl[name]
	return ok
}

// ApplyMethod dispatches a builtin method call.
func (m *Manager) ApplyMethod(env SummaryEnv, ownerType, name string, call SummaryCall) []*Constraint {
	if tbl, ok := m.methods[ownerType]; ok {
		if s, ok := tbl[name]; ok {
			return s(env, call)
		}
	}
	return nil
}

func (m *Manager) registerMethod(ownerType, name string, s Summary) {
	tbl, ok := m.methods[ownerType]
	if !ok {
		tbl = make(map[string]Summary)
		m.methods[ownerType] = tbl
	}
	tbl[name] = s
}

// BuiltinTypeName maps a container/constant ObjectKind to the type name
// used to key the method table (e.g. for resolving `xs.append` when xs
// is an ObjList). Classes and instances are resolved through the normal
// class-hierarchy path instead, never through this table.
func BuiltinTypeName(k ObjectKind) string {
	switch k {
	case ObjList:
		return "list"
	case ObjTuple:
		return "tuple"
	case ObjDict:
		return "dict"
	case ObjSet:
		return "set"
	case ObjConstant:
		return "str" // constants conservatively route through string methods
	default:
		return ""
	}
}

// -- container constructors --------------------------------------------

func (m *Manager) initContainerConstructors() {
	ctor := func(allocKind AllocKind, objKind ObjectKind, tag string) Summary {
		return func(env SummaryEnv, call SummaryCall) []*Constraint {
			result := env.AllocNow(call.Target, call.Ctx, allocKind, objKind, tag)
			if src := call.arg(0); src != nil {
				resultField := env.FieldNode(result, Elem())
				env.AddEdge(src, resultField, Normal, nil, nil)
			}
			return nil
		}
	}
	m.functions["list"] = ctor(AllocList, ObjList, "list()")
	m.functions["tuple"] = ctor(AllocTuple, ObjTuple, "tuple()")
	m.functions["set"] = ctor(AllocSet, ObjSet, "set()")
	m.functions["frozenset"] = ctor(AllocSet, ObjSet, "frozenset()")
	m.functions["dict"] = func(env SummaryEnv, call SummaryCall) []*Constraint {
		result := env.AllocNow(call.Target, call.Ctx, AllocDict, ObjDict, "dict()")
		if src := call.arg(0); src != nil {
			env.AddEdge(src, env.FieldNode(result, Value()), Normal, nil, nil)
		}
		return nil
	}
}

// -- iteration ------------------------------------------------------------

func (m *Manager) initIteration() {
	m.functions["iter"] = func(env SummaryEnv, call SummaryCall) []*Constraint {
		result := env.AllocNow(call.Target, call.Ctx, AllocObject, ObjList, "iter()")
		src := call.arg(0)
		if src == nil {
			return nil
		}
		// Load source.elem() into iterator.elem() every time source grows:
		// this must be dynamic because the argument's points-to set isn't
		// fully known at the moment `iter` is first called.
		return []*Constraint{{Kind: ConstraintLoad, Base: src, Field: Elem(), Target: env.FieldNode(result, Elem())}}
	}
	m.functions["next"] = func(env SummaryEnv, call SummaryCall) []*Constraint {
		src := call.arg(0)
		if src == nil || call.Target == nil {
			return nil
		}
		return []*Constraint{{Kind: ConstraintLoad, Base: src, Field: Elem(), Target: call.Target}}
	}
	m.functions["enumerate"] = m.functions["iter"]
	m.functions["reversed"] = m.functions["iter"]
	m.functions["map"] = func(env SummaryEnv, call SummaryCall) []*Constraint {
		env.AllocNow(call.Target, call.Ctx, AllocObject, ObjList, "map()")
		env.Track(TranslationError, call.Location, "map() result elements are not tracked through the mapped function", &call.Ctx)
		return nil
	}
	m.functions["filter"] = func(env SummaryEnv, call SummaryCall) []*Constraint {
		result := env.AllocNow(call.Target, call.Ctx, AllocObject, ObjList, "filter()")
		src := call.arg(1)
		if src == nil {
			return nil
		}
		return []*Constraint{{Kind: ConstraintLoad, Base: src, Field: Elem(), Target: env.FieldNode(result, Elem())}}
	}
	m.functions["sorted"] = func(env SummaryEnv, call SummaryCall) []*Constraint {
		result := env.AllocNow(call.Target, call.Ctx, AllocList, ObjList, "sorted()")
		src := call.arg(0)
		if src == nil {
			return nil
		}
		return []*Constraint{{Kind: ConstraintLoad, Base: src, Field: Elem(), Target: env.FieldNode(result, Elem())}}
	}
}

// -- introspection ---------------------------------------------------------

func (m *Manager) initIntrospection() {
	conservative := func(tag string) Summary {
		return func(env SummaryEnv, call SummaryCall) []*Constraint {
			env.AllocNow(call.Target, call.Ctx, AllocConstant, ObjConstant, tag)
			return nil
		}
	}
	m.functions["len"] = conservative("len()")
	m.functions["type"] = conservative("type()")
	m.functions["isinstance"] = conservative("isinstance()")
	m.functions["issubclass"] = conservative("issubclass()")
	m.functions["hash"] = conservative("hash()")
	m.functions["id"] = conservative("id()")
	m.functions["hex"] = conservative("hex()")
	m.functions["oct"] = conservative("oct()")
	m.functions["bin"] = conservative("bin()")
	m.functions["chr"] = conservative("chr()")
	m.functions["ord"] = conservative("ord()")
	m.functions["abs"] = conservative("abs()")
	m.functions["round"] = conservative("round()")
	m.functions["repr"] = conservative("repr()")
	m.functions["getattr"] = func(env SummaryEnv, call SummaryCall) []*Constraint {
		env.AllocNow(call.Target, call.Ctx, AllocConstant, ObjConstant, "getattr()")
		env.Track(DynamicAttribute, call.Location, "getattr() with a dynamically computed attribute name", &call.Ctx)
		return nil
	}
}

func (m *Manager) initConservativeVoid() {
	void := func(tag string) Summary {
		return func(env SummaryEnv, call SummaryCall) []*Constraint {
			if call.Target != nil {
				env.AllocNow(call.Target, call.Ctx, AllocConstant, ObjConstant, tag)
			}
			return nil
		}
	}
	for _, name := range []string{"print", "input", "open", "hasattr", "delattr", "setattr"} {
		m.functions[name] = void(name + "()")
	}
}

// -- super() ----------------------------------------------------------------

func (m *Manager) initSuper() {
	m.functions["super"] = func(env SummaryEnv, call SummaryCall) []*Constraint {
		if call.Target == nil {
			return nil
		}
		classVar := call.arg(0)
		instanceVar := call.arg(1)
		c := &Constraint{Kind: ConstraintSuperResolve, Target: call.Target, ClassVar: classVar, InstanceVar: instanceVar}
		if classVar == nil {
			c.Implicit = true
			c.ImplicitCls = call.EnclosingClass
			if instanceVar == nil {
				c.InstanceVar = call.EnclosingSelf
			}
		}
		return []*Constraint{c}
	}
}

// -- container methods -------------------------------------------------------

func flowInSelf(field Field) Summary {
	return func(env SummaryEnv, call SummaryCall) []*Constraint {
		src := call.arg(0)
		if src == nil || call.Receiver == nil {
			return nil
		}
		env.AddEdge(src, env.FieldNode(call.Receiver, field), Normal, nil, nil)
		return nil
	}
}

func flowOutSelf(field Field) Summary {
	return func(env SummaryEnv, call SummaryCall) []*Constraint {
		if call.Target == nil || call.Receiver == nil {
			return nil
		}
		env.AddEdge(env.FieldNode(call.Receiver, field), call.Target, Normal, nil, nil)
		return nil
	}
}

func noEffect(env SummaryEnv, call SummaryCall) []*Constraint { return nil }

func (m *Manager) initListMethods() {
	m.registerMethod("list", "append", flowInSelf(Elem()))
	m.registerMethod("list", "extend", flowInSelf(Elem()))
	m.registerMethod("list", "insert", func(env SummaryEnv, call SummaryCall) []*Constraint {
		src := call.arg(1)
		if src == nil || call.Receiver == nil {
			return nil
		}
		env.AddEdge(src, env.FieldNode(call.Receiver, Elem()), Normal, nil, nil)
		return nil
	})
	m.registerMethod("list", "pop", flowOutSelf(Elem()))
	m.registerMethod("list", "remove", noEffect)
	m.registerMethod("list", "clear", noEffect)
	m.registerMethod("list", "sort", noEffect)
	m.registerMethod("list", "reverse", noEffect)
	m.registerMethod("list", "index", func(env SummaryEnv, call SummaryCall) []*Constraint {
		if call.Target != nil {
			env.AllocNow(call.Target, call.Ctx, AllocConstant, ObjConstant, "list.index()")
		}
		return nil
	})
	m.registerMethod("list", "count", m.methods["list"]["index"])
	m.registerMethod("list", "copy", func(env SummaryEnv, call SummaryCall) []*Constraint {
		if call.Target == nil || call.Receiver == nil {
			return nil
		}
		result := env.AllocNow(call.Target, call.Ctx, AllocList, ObjList, "list.copy()")
		env.AddEdge(env.FieldNode(call.Receiver, Elem()), env.FieldNode(result, Elem()), Normal, nil, nil)
		return nil
	})
}

func (m *Manager) initDictMethods() {
	m.registerMethod("dict", "update", flowInSelf(Value()))
	m.registerMethod("dict", "setdefault", flowOutSelf(Value()))
	m.registerMethod("dict", "get", flowOutSelf(Value()))
	m.registerMethod("dict", "pop", flowOutSelf(Value()))
	m.registerMethod("dict", "popitem", flowOutSelf(Value()))
	m.registerMethod("dict", "clear", noEffect)
	m.registerMethod("dict", "copy", func(env SummaryEnv, call SummaryCall) []*Constraint {
		if call.Target == nil || call.Receiver == nil {
			return nil
		}
		result := env.AllocNow(call.Target, call.Ctx, AllocDict, ObjDict, "dict.copy()")
		env.AddEdge(env.FieldNode(call.Receiver, Value()), env.FieldNode(result, Value()), Normal, nil, nil)
		return nil
	})
	viewFromValues := func(tag string) Summary {
		return func(env SummaryEnv, call SummaryCall) []*Constraint {
			if call.Target == nil || call.Receiver == nil {
				return nil
			}
			result := env.AllocNow(call.Target, call.Ctx, AllocList, ObjList, tag)
			env.AddEdge(env.FieldNode(call.Receiver, Value()), env.FieldNode(result, Elem()), Normal, nil, nil)
			return nil
		}
	}
	m.registerMethod("dict", "values", viewFromValues("dict.values()"))
	m.registerMethod("dict", "items", viewFromValues("dict.items()"))
	m.registerMethod("dict", "keys", viewFromValues("dict.keys()"))
}

func (m *Manager) initSetMethods() {
	m.registerMethod("set", "add", flowInSelf(Elem()))
	m.registerMethod("set", "update", flowInSelf(Elem()))
	m.registerMethod("set", "remove", noEffect)
	m.registerMethod("set", "discard", noEffect)
	m.registerMethod("set", "clear", noEffect)
	m.registerMethod("set", "pop", flowOutSelf(Elem()))
	for _, name := range []string{"union", "intersection", "difference", "symmetric_difference"} {
		tag := fmt.Sprintf("set.%s()", name)
		m.registerMethod("set", name, func(env SummaryEnv, call SummaryCall) []*Constraint {
			if call.Target == nil || call.Receiver == nil {
				return nil
			}
			result := env.AllocNow(call.Target, call.Ctx, AllocSet, ObjSet, tag)
			env.AddEdge(env.FieldNode(call.Receiver, Elem()), env.FieldNode(result, Elem()), Normal, nil, nil)
			if src := call.arg(0); src != nil {
				env.AddEdge(src, env.FieldNode(result, Elem()), Normal, nil, nil)
			}
			return nil
		})
	}
}

func (m *Manager) initStringMethods() {
	conservativeStr := func(tag string) Summary {
		return func(env SummaryEnv, call SummaryCall) []*Constraint {
			if call.Target != nil {
				env.AllocNow(call.Target, call.Ctx, AllocConstant, ObjConstant, tag)
			}
			return nil
		}
	}
	for _, name := range []string{
		"capitalize", "casefold", "center", "format", "join", "lower",
		"lstrip", "replace", "rstrip", "strip", "title", "upper", "zfill",
	} {
		m.registerMethod("str", name, conservativeStr("str."+name+"()"))
	}
	for _, name := range []string{"startswith", "endswith", "isdigit", "isalpha", "isspace"} {
		m.registerMethod("str", name, conservativeStr("str."+name+"()"))
	}
	for _, name := range []string{"split", "rsplit", "splitlines"} {
		m.registerMethod("str", name, func(env SummaryEnv, call SummaryCall) []*Constraint {
			if call.Target != nil {
				env.AllocNow(call.Target, call.Ctx, AllocList, ObjList, "str.split()")
			}
			return nil
		})
	}
}
