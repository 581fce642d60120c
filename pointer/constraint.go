package pointer

// ConstraintKind tags the closed constraint variant (spec.md §4.7, §9).
// Copy, Alloc and Return are static: apply_static installs their PFG
// structure exactly once, unconditionally. Load, Store, Call, LoadSubscr,
// StoreSubscr and SuperResolve are dynamic: they are indexed under the
// variable whose points-to set growth can make them fire, and re-applied
// every time that variable's set grows (spec.md §4.8).
type ConstraintKind int

const (
	ConstraintCopy ConstraintKind = iota
	ConstraintAlloc
	ConstraintReturn
	ConstraintLoad
	ConstraintStore
	ConstraintLoadSubscr
	ConstraintStoreSubscr
	ConstraintCall
	ConstraintSuperResolve
)

// Constraint is the closed sum type of spec.md §4.7. Only the fields
// relevant to Kind are populated. Target/Source/Base are typed as
// Node rather than *ContextualVariable so a constraint can flow directly
// into a heap field-access node (e.g. a builtin summary's synthesized
// iterator), not only into a plain variable.
type Constraint struct {
	Kind ConstraintKind

	// ConstraintCopy
	Source Node
	Target Node

	// ConstraintAlloc
	Site *AllocSite

	// ConstraintReturn uses Source as the returned value and Target as the
	// enclosing scope's reserved $return variable.

	// ConstraintLoad / ConstraintStore
	Base  Node
	Field Field

	// ConstraintLoadSubscr / ConstraintStoreSubscr
	Index *ContextualVariable

	// ConstraintCall
	Callee      *ContextualVariable
	Args        []*ContextualVariable
	Kwargs      map[string]*ContextualVariable
	Site2       *CallSite // named Site2 to avoid colliding with Alloc's Site
	CallerScope *Scope    // the scope the call statement lives in; used to resolve implicit super()

	// ConstraintSuperResolve uses Target for the resolved SuperObject's
	// destination.
	ClassVar    *ContextualVariable // explicit class arg, nil if implicit
	InstanceVar *ContextualVariable // explicit or implicit instance arg
	ImplicitCls *Object             // resolved enclosing class, set when ClassVar == nil
	Implicit    bool
}

// triggerVar returns the node whose points-to-set growth dispatches this
// constraint, for the dynamic kinds. Static kinds return nil: they are
// queued once on the static queue instead.
func (c *Constraint) triggerVar() Node {
	switch c.Kind {
	case ConstraintLoad, ConstraintStore:
		return c.Base
	case ConstraintLoadSubscr, ConstraintStoreSubscr:
		return c.Index
	case ConstraintCall:
		return c.Callee
	case ConstraintSuperResolve:
		if c.ClassVar != nil {
			return c.ClassVar
		}
		return c.InstanceVar
	default:
		return nil
	}
}
