package pointer

import "fmt"

// VariableKind classifies a Variable (spec.md §3).
type VariableKind int

const (
	VarLocal VariableKind = iota
	VarParameter
	VarGlobal
	VarNonlocal
	VarCell
	VarTemporary
)

// Variable is a name inside one scope's body, tagged with how it binds.
type Variable struct {
	Name string
	Kind VariableKind
}

// Scope is the analysis-time context identity of a function/class/module
// body: an IR scope handle, the context it was translated under, and
// (for non-module scopes) a parent. OwnerObj is the Object this scope's
// body belongs to (nil for the synthetic root before the entry module is
// allocated).
type Scope struct {
	IRScope  interface{} // ir.Scope; kept as interface{} to avoid import coupling in this file
	OwnerObj *Object
	Ctx      Context
	Parent   *Scope
	Module   *Scope

	// Params is the parameter-name list for a function/method body scope,
	// carried here (rather than re-read from the defining statement) so a
	// builtin dispatch can resolve the enclosing method's self/cls
	// parameter for implicit super() (spec.md §4.9).
	Params []string

	qualName string
	idKey    string
}

func (s *Scope) key() string {
	parentKey := "-"
	if s.Parent != nil {
		parentKey = s.Parent.idKey
	}
	return fmt.Sprintf("%s\x1f%s\x1f%s", s.qualName, s.Ctx.String(), parentKey)
}

// scopeInterner canonicalizes Scope identity per (ir_scope, context,
// owner/parent) so that contextual variables keyed by *Scope are stable.
type scopeInterner struct {
	scopes map[string]*Scope
}

func newScopeInterner() *scopeInterner {
	return &scopeInterner{scopes: make(map[string]*Scope)}
}

func (si *scopeInterner) intern(proto *Scope) *Scope {
	proto.idKey = proto.key()
	if existing, ok := si.scopes[proto.idKey]; ok {
		return existing
	}
	si.scopes[proto.idKey] = proto
	return proto
}

// ContextualVariable is (scope, context, variable): the unit the
// environment and the pointer flow graph are keyed by. It is always handed
// out through contextualVariableInterner so pointer identity is sufficient
// for equality (invariant 3 of spec.md §3).
type ContextualVariable struct {
	Scope *Scope
	Ctx   Context
	Var   Variable
}

func (cv *ContextualVariable) isNode() {}

func (cv *ContextualVariable) String() string {
	return fmt.Sprintf("%s/%s#%s", cv.Scope.qualName, cv.Var.Name, cv.Ctx.String())
}

// FieldAccessNode is a stable PFG vertex representing (object, field): a
// load/store target in the heap. Its points-to set lives in the same
// environment map as variables, keyed by this node's pointer identity.
type FieldAccessNode struct {
	Obj   *Object
	Field Field
}

func (fa *FieldAccessNode) isNode() {}

func (fa *FieldAccessNode) String() string {
	return fmt.Sprintf("%s%s", fa.Obj, fa.Field)
}

// Node is anything the environment can map to a points-to set: a
// contextual variable or a field-access node.
type Node interface {
	isNode()
}

// varInterner canonicalizes ContextualVariable and FieldAccessNode
// instances.
type varInterner struct {
	vars   map[string]*ContextualVariable
	fields map[string]*FieldAccessNode
}

func newVarInterner() *varInterner {
	return &varInterner{
		vars:   make(map[string]*ContextualVariable),
		fields: make(map[string]*FieldAccessNode),
	}
}

func (vi *varInterner) variable(scope *Scope, ctx Context, v Variable) *ContextualVariable {
	key := fmt.Sprintf("%s\x1f%s\x1f%d\x1f%s", scope.idKey, ctx.String(), v.Kind, v.Name)
	if existing, ok := vi.vars[key]; ok {
		return existing
	}
	cv := &ContextualVariable{Scope: scope, Ctx: ctx, Var: v}
	vi.vars[key] = cv
	return cv
}

func (vi *varInterner) field(obj *Object, f Field) *FieldAccessNode {
	key := fmt.Sprintf("%s\x1f%d\x1f%s\x1f%d", obj.idKey, f.Kind, f.Name, f.Index)
	if existing, ok := vi.fields[key]; ok {
		return existing
	}
	fa := &FieldAccessNode{Obj: obj, Field: f}
	vi.fields[key] = fa
	return fa
}

// hasField reports whether a field-access node for (obj, f) has ever been
// created, without creating one. Used by MRO attribute-lookup walks to ask
// "does this class define this name" without synthesizing an empty node
// for every ancestor it doesn't.
func (vi *varInterner) hasField(obj *Object, f Field) bool {
	key := fmt.Sprintf("%s\x1f%d\x1f%s\x1f%d", obj.idKey, f.Kind, f.Name, f.Index)
	_, ok := vi.fields[key]
	return ok
}
