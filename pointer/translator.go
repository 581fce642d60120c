package pointer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shivasurya/kcfa/ir"
)

// translator walks one IR scope's statements on demand and emits
// constraints into the engine state (spec.md §4.5, C9). It never walks a
// scope eagerly: translateScope is called for the entry module (Analyze),
// for a function body when the solver binds a call to it (bindCall), for a
// class body (translateClassDef) and for an imported module
// (translateImport), and the per-(ir.Scope, Context) memoization in state.translated makes
// repeat calls a no-op.
type translator struct {
	st      *state
	world   ir.World
	cfg     Config
	manager *Manager
}

func newTranslator(st *state, world ir.World, cfg Config, manager *Manager) *translator {
	return &translator{st: st, world: world, cfg: cfg, manager: manager}
}

// seedBuiltinIfKnown unions a pre-bound ObjBuiltinFunction into v whenever
// name matches a registered builtin summary. Full lexical (LEGB) name
// resolution is out of scope here (ir.Scope's contract leaves lowering to
// the frontend, per the ir package comment in ir/statement.go); builtins are the one unqualified-name
// class this package must still resolve itself; everything else arrives
// pre-scoped through Copy/FreeVars/Globals/Nonlocals.
func (t *translator) seedBuiltinIfKnown(v *ContextualVariable, scope *Scope, name string) {
	if t.manager == nil || !t.manager.HasFunctionSummary(name) {
		return
	}
	site := t.st.sites.alloc("builtin#"+name, AllocBuiltin, nil)
	obj := t.st.objects.intern(&Object{Context: EmptyContext(scope.Ctx.Policy()), Alloc: site, Kind: ObjBuiltinFunction, BuiltinName: name})
	t.st.growNode(v, EmptyPTS().Add(obj), "builtin-seed")
}

// translateScope emits constraints for every statement of scope's body
// under scope.Ctx, unless that (ir scope, context) pair was already
// translated.
func (t *translator) translateScope(scope *Scope) {
	irScope := scope.IRScope.(ir.Scope)
	key := translationKey{irScope: irScope, ctx: scope.Ctx}
	if done, _ := t.st.translated.Get(key); done {
		return
	}
	t.st.translated.Add(key, true)

	for _, stmt := range safeStatements(t.st, irScope) {
		t.translateStatement(scope, stmt)
	}
}

// safeStatements recovers from a panicking frontend Statements() call,
// routing it to the unknown tracker as a TRANSLATION_ERROR rather than
// aborting the whole analysis (spec.md §7).
func safeStatements(st *state, irScope ir.Scope) (stmts []ir.Statement) {
	defer func() {
		if r := recover(); r != nil {
			st.tracker.Record(TranslationError, irScope.QualName(), fmt.Sprintf("panic translating scope body: %v", r), nil)
			stmts = nil
		}
	}()
	return irScope.Statements()
}

func (t *translator) variable(scope *Scope, name string, kind VariableKind) *ContextualVariable {
	return t.st.vars.variable(scope, scope.Ctx, Variable{Name: name, Kind: kind})
}

func (t *translator) returnVar(scope *Scope) *ContextualVariable {
	return t.variable(scope, "$return", VarTemporary)
}

// publishScopeMember mirrors a name bound at the top level of a class or
// module body into that owner object's attribute field, via an Inherit
// edge for classes (so method lookup sees rebinding through subclasses)
// or a plain Normal edge for modules. Scopes that aren't directly a
// class/module body are a no-op (spec.md §4.3, §4.5).
func (t *translator) publishScopeMember(scope *Scope, name string, value Node) {
	irScope := scope.IRScope.(ir.Scope)
	owner := scope.OwnerObj
	if owner == nil {
		return
	}
	switch irScope.Kind() {
	case ir.ScopeClass:
		fa := t.st.vars.field(owner, Attr(name))
		t.st.pfg.AddEdge(value, fa, Inherit, owner, nil)
		t.st.growNode(fa, t.st.ptsOf(value), name)
	case ir.ScopeModule:
		fa := t.st.vars.field(owner, Attr(name))
		t.st.pfg.AddEdge(value, fa, Normal, nil, nil)
		t.st.growNode(fa, t.st.ptsOf(value), name)
	}
}

func (t *translator) translateStatement(scope *Scope, stmt ir.Statement) {
	switch stmt.Kind {
	case ir.StmtCopy:
		t.translateCopy(scope, stmt)
	case ir.StmtConstant:
		t.translateConstant(scope, stmt)
	case ir.StmtContainer:
		t.translateContainer(scope, stmt)
	case ir.StmtLoadAttr:
		t.translateLoadAttr(scope, stmt)
	case ir.StmtStoreAttr:
		t.translateStoreAttr(scope, stmt)
	case ir.StmtLoadSubscr:
		t.translateLoadSubscr(scope, stmt)
	case ir.StmtStoreSubscr:
		t.translateStoreSubscr(scope, stmt)
	case ir.StmtCall:
		t.translateCall(scope, stmt)
	case ir.StmtReturn:
		t.translateReturn(scope, stmt)
	case ir.StmtFuncDef:
		t.translateFuncDef(scope, stmt)
	case ir.StmtClassDef:
		t.translateClassDef(scope, stmt)
	case ir.StmtImport:
		t.translateImport(scope, stmt)
	default:
		t.st.tracker.Record(TranslationError, stmt.ID, "unrecognized statement kind", nil)
	}
}

// translateCopy handles `x = y`, plus the class/module-body
// attribute-publishing side effect on Target (spec.md §4.5).
func (t *translator) translateCopy(scope *Scope, stmt ir.Statement) {
	src := t.variable(scope, stmt.Source, VarLocal)
	dst := t.variable(scope, stmt.Target, VarLocal)
	t.st.pfg.AddEdge(src, dst, Normal, nil, nil)
	t.st.growNode(dst, t.st.ptsOf(src), stmt.ID)
	t.publishScopeMember(scope, stmt.Target, dst)
}

func (t *translator) translateConstant(scope *Scope, stmt ir.Statement) {
	dst := t.variable(scope, stmt.Target, VarLocal)
	site := t.st.sites.alloc(stmt.ID, AllocConstant, nil)
	obj := t.st.objects.intern(&Object{Context: scope.Ctx, Alloc: site, Kind: ObjConstant, ConstantValue: stmt.ConstantValue})
	t.st.growNode(dst, EmptyPTS().Add(obj), stmt.ID)
	t.publishScopeMember(scope, stmt.Target, dst)
}

var containerKindMap = map[string]struct {
	alloc AllocKind
	obj   ObjectKind
}{
	"list":  {AllocList, ObjList},
	"tuple": {AllocTuple, ObjTuple},
	"dict":  {AllocDict, ObjDict},
	"set":   {AllocSet, ObjSet},
}

func (t *translator) translateContainer(scope *Scope, stmt ir.Statement) {
	dst := t.variable(scope, stmt.Target, VarLocal)
	kinds, ok := containerKindMap[stmt.ContainerKind]
	if !ok {
		t.st.tracker.Record(TranslationError, stmt.ID, fmt.Sprintf("unrecognized container kind %q", stmt.ContainerKind), nil)
		return
	}
	site := t.st.sites.alloc(stmt.ID, kinds.alloc, nil)
	obj := t.st.objects.intern(&Object{Context: scope.Ctx, Alloc: site, Kind: kinds.obj})
	t.st.growNode(dst, EmptyPTS().Add(obj), stmt.ID)

	for i, elemName := range stmt.Elements {
		if elemName == "" {
			continue
		}
		elemVar := t.variable(scope, elemName, VarLocal)
		var field Field
		if stmt.ContainerKind == "dict" {
			if i < len(stmt.Keys) && stmt.Keys[i] != "" {
				field = Key(stmt.Keys[i])
			} else {
				field = Value()
			}
		} else {
			field = Elem()
		}
		fa := t.st.vars.field(obj, field)
		t.st.pfg.AddEdge(elemVar, fa, Normal, nil, nil)
		t.st.growNode(fa, t.st.ptsOf(elemVar), stmt.ID)
	}
	t.publishScopeMember(scope, stmt.Target, dst)
}

func (t *translator) translateLoadAttr(scope *Scope, stmt ir.Statement) {
	base := t.variable(scope, stmt.Source, VarLocal)
	dst := t.variable(scope, stmt.Target, VarLocal)
	t.st.registerDynamic(&Constraint{Kind: ConstraintLoad, Base: base, Field: Attr(stmt.Attr), Target: dst})
}

// translateStoreAttr handles `Base.Attr = Source`. The IR's generic Target
// field carries the base object being written to, and Source the value, so
// this is the mirror image of translateLoadAttr's field usage.
func (t *translator) translateStoreAttr(scope *Scope, stmt ir.Statement) {
	base := t.variable(scope, stmt.Target, VarLocal)
	src := t.variable(scope, stmt.Source, VarLocal)
	t.st.registerDynamic(&Constraint{Kind: ConstraintStore, Base: base, Field: Attr(stmt.Attr), Source: src})
}

func (t *translator) translateLoadSubscr(scope *Scope, stmt ir.Statement) {
	base := t.variable(scope, stmt.Source, VarLocal)
	dst := t.variable(scope, stmt.Target, VarLocal)
	idx := t.variable(scope, stmt.Index, VarLocal)
	t.st.registerDynamic(&Constraint{Kind: ConstraintLoadSubscr, Base: base, Index: idx, Target: dst})
}

// translateStoreSubscr handles `Base[Index] = Source`, with Target again
// carrying the base object per the generic-field convention StoreAttr uses.
func (t *translator) translateStoreSubscr(scope *Scope, stmt ir.Statement) {
	base := t.variable(scope, stmt.Target, VarLocal)
	src := t.variable(scope, stmt.Source, VarLocal)
	idx := t.variable(scope, stmt.Index, VarLocal)
	t.st.registerDynamic(&Constraint{Kind: ConstraintStoreSubscr, Base: base, Index: idx, Source: src})
}

func (t *translator) translateCall(scope *Scope, stmt ir.Statement) {
	callee := t.variable(scope, stmt.Callee, VarLocal)
	t.seedBuiltinIfKnown(callee, scope, stmt.Callee)
	var target *ContextualVariable
	if stmt.Target != "" {
		target = t.variable(scope, stmt.Target, VarLocal)
	}
	args := make([]*ContextualVariable, 0, len(stmt.Args))
	kwargs := make(map[string]*ContextualVariable)
	for _, a := range stmt.Args {
		v := t.variable(scope, a.Var, VarLocal)
		if a.Keyword != "" {
			kwargs[a.Keyword] = v
		} else {
			args = append(args, v)
		}
	}
	site := t.st.sites.call(stmt.SiteID, scope.IRScope.(ir.Scope).QualName(), len(t.st.callGraph.edges))
	c := &Constraint{Kind: ConstraintCall, Callee: callee, Target: target, Args: args, Kwargs: kwargs, Site2: site, CallerScope: scope}
	t.st.registerDynamic(c)
	if len(args) > 0 {
		// An unbound method call's (Class.method(self, ...)) dispatch needs
		// self's points-to set, which may still grow after the callee
		// variable itself has already resolved.
		t.st.registerTrigger(args[0], c)
	}

	if stmt.IsMethod && target != nil {
		t.publishScopeMember(scope, stmt.Target, target)
	}
}

func (t *translator) translateReturn(scope *Scope, stmt ir.Statement) {
	src := t.variable(scope, stmt.Source, VarLocal)
	dst := t.returnVar(scope)
	t.st.pfg.AddEdge(src, dst, Normal, nil, nil)
	t.st.growNode(dst, t.st.ptsOf(src), stmt.ID)
}

func (t *translator) translateFuncDef(scope *Scope, stmt ir.Statement) {
	dst := t.variable(scope, stmt.Target, VarLocal)
	irScope := scope.IRScope.(ir.Scope)
	allocKind := AllocFunction
	kind := ObjFunction
	if irScope.Kind() == ir.ScopeClass {
		allocKind = AllocMethod
		kind = ObjMethod
	}
	site := t.st.sites.allocFunc(stmt.ID, allocKind, stmt.Body, stmt.Params)
	var classObj *Object
	if kind == ObjMethod {
		classObj = scope.OwnerObj
	}
	obj := t.st.objects.intern(&Object{Context: scope.Ctx, Alloc: site, Kind: kind, ClassObj: classObj, DefiningModule: scope.Module})
	t.st.growNode(dst, EmptyPTS().Add(obj), stmt.ID)

	// Lookups below use VarLocal, matching the kind every ordinary
	// Copy/Constant/etc. binding uses for the same name: a free/global/
	// nonlocal reference must resolve to the exact same contextual
	// variable the defining scope already binds it under, not a
	// same-named-but-differently-tagged lookalike.
	for _, free := range stmt.FreeVars {
		callerCV := t.variable(scope, free, VarLocal)
		t.addCapture(obj, capturedBinding{name: free, kind: VarCell, callerCV: callerCV})
	}
	for _, g := range stmt.Globals {
		callerCV := t.variable(scope.Module, g, VarLocal)
		t.addCapture(obj, capturedBinding{name: g, kind: VarGlobal, callerCV: callerCV})
	}
	for _, nl := range stmt.Nonlocals {
		callerCV := t.variable(scope, nl, VarLocal)
		t.addCapture(obj, capturedBinding{name: nl, kind: VarNonlocal, callerCV: callerCV})
	}

	t.publishScopeMember(scope, stmt.Target, dst)
	t.applyDecorators(scope, stmt, dst)
}

// applyDecorators unfolds stmt.Decorators, written top-to-bottom, into the
// left-associative call chain of spec.md §4.5:
//
//	dst = d_n(d_{n-1}(...d_1(dst)...))
//
// where d_1 is the decorator closest to the def (last in Decorators) and
// d_n is the first one written. The decorated result is unioned into dst
// alongside the raw function object translateFuncDef already bound there,
// never replacing it, so a decorator that returns its argument unchanged
// (or that this analysis fails to resolve) still leaves dst pointing at
// the original function.
func (t *translator) applyDecorators(scope *Scope, stmt ir.Statement, dst *ContextualVariable) {
	if len(stmt.Decorators) == 0 {
		return
	}
	irScope := scope.IRScope.(ir.Scope)
	current := dst
	for i := len(stmt.Decorators) - 1; i >= 0; i-- {
		decoratorVar, ok := t.resolveDecoratorExpr(scope, stmt, i, stmt.Decorators[i])
		if !ok {
			continue
		}
		site := t.st.sites.call(fmt.Sprintf("%s:decorator:%d", stmt.ID, i), irScope.QualName(), len(t.st.callGraph.edges))
		result := t.variable(scope, fmt.Sprintf("$dec%d$%s", i, stmt.ID), VarTemporary)
		c := &Constraint{Kind: ConstraintCall, Callee: decoratorVar, Target: result, Args: []*ContextualVariable{current}, Site2: site, CallerScope: scope}
		t.st.registerDynamic(c)
		t.st.registerTrigger(current, c)
		current = result
	}
	if current == dst {
		return
	}
	t.st.pfg.AddEdge(current, dst, Normal, nil, nil)
	t.st.growNode(dst, t.st.ptsOf(current), stmt.ID)
	t.publishScopeMember(scope, stmt.Target, dst)
}

// resolveDecoratorExpr classifies one decorator expression. A bare name or a
// dotted attribute chain (e.g. "registry.register") is the simple case and
// resolves to the variable/attribute it names. A call-shaped expression
// (contains "(") is conservatively skipped outright: no constraint is
// emitted and the chain's current value passes through unchanged. Any other
// complex expression still gets a placeholder unknown object so the chain
// keeps flowing.
func (t *translator) resolveDecoratorExpr(scope *Scope, stmt ir.Statement, index int, expr string) (*ContextualVariable, bool) {
	if strings.Contains(expr, "(") {
		t.st.tracker.Record(TranslationError, stmt.ID, fmt.Sprintf("complex decorator call skipped: %s", expr), nil)
		return nil, false
	}
	segments := strings.Split(expr, ".")
	if isSimpleDottedName(segments) {
		return t.resolveDottedName(scope, stmt, index, segments), true
	}
	t.st.tracker.Record(TranslationError, stmt.ID, fmt.Sprintf("complex decorator expression: %s", expr), nil)
	site := t.st.sites.alloc(fmt.Sprintf("%s:decorator:%d:unknown", stmt.ID, index), AllocUnknown, nil)
	obj := t.st.objects.intern(&Object{Context: scope.Ctx, Alloc: site, Kind: ObjUnknown})
	v := t.variable(scope, fmt.Sprintf("$decexpr%d$%s", index, stmt.ID), VarTemporary)
	t.st.growNode(v, EmptyPTS().Add(obj), stmt.ID)
	return v, true
}

// resolveDottedName resolves segments[0] as an ordinary local lookup, then
// chases any remaining segments as attribute loads off it.
func (t *translator) resolveDottedName(scope *Scope, stmt ir.Statement, index int, segments []string) *ContextualVariable {
	cur := t.variable(scope, segments[0], VarLocal)
	for i, attr := range segments[1:] {
		next := t.variable(scope, fmt.Sprintf("$decattr%d_%d$%s", index, i, stmt.ID), VarTemporary)
		t.st.registerDynamic(&Constraint{Kind: ConstraintLoad, Base: cur, Field: Attr(attr), Target: next})
		cur = next
	}
	return cur
}

// isSimpleDottedName reports whether every segment of a dotted decorator
// name is a plain identifier (letters, digits, underscore; not starting
// with a digit), i.e. the expression carries no call or subscript syntax.
func isSimpleDottedName(segments []string) bool {
	for _, s := range segments {
		if s == "" {
			return false
		}
		for i, r := range s {
			if r == '_' || unicode.IsLetter(r) {
				continue
			}
			if i > 0 && unicode.IsDigit(r) {
				continue
			}
			return false
		}
	}
	return true
}

// addCapture records cb for obj unless an identical binding is already
// present. Since funcObj is always the same interned object for repeated
// translations of the same FuncDef statement (objectInterner.intern
// dedupes), this keeps re-translation (e.g. after a memoization-cache
// eviction) from growing the capture list without bound.
func (t *translator) addCapture(obj *Object, cb capturedBinding) {
	for _, existing := range t.st.captured[obj] {
		if existing.name == cb.name && existing.kind == cb.kind && existing.callerCV == cb.callerCV {
			return
		}
	}
	t.st.captured[obj] = append(t.st.captured[obj], cb)
}

func (t *translator) translateClassDef(scope *Scope, stmt ir.Statement) {
	dst := t.variable(scope, stmt.Target, VarLocal)
	site := t.st.sites.alloc(stmt.ID, AllocClass, stmt.Body)
	obj := t.st.objects.intern(&Object{Context: scope.Ctx, Alloc: site, Kind: ObjClass})
	t.st.growNode(dst, EmptyPTS().Add(obj), stmt.ID)

	baseVars := make([]*ContextualVariable, 0, len(stmt.Bases))
	for _, b := range stmt.Bases {
		baseVars = append(baseVars, t.variable(scope, b, VarLocal))
	}
	t.st.hier.AddClass(obj, nil)
	t.st.pendingBases = append(t.st.pendingBases, pendingBaseEntry{class: obj, baseVars: baseVars})
	for _, bv := range baseVars {
		t.st.worklist = append(t.st.worklist, bv)
	}

	classScope := t.st.scopes.intern(&Scope{
		IRScope:  stmt.Body,
		OwnerObj: obj,
		Ctx:      scope.Ctx,
		Parent:   scope,
		Module:   scope.Module,
		qualName: stmt.Body.QualName(),
	})
	t.translateScope(classScope)
	t.publishScopeMember(scope, stmt.Target, dst)
}

func (t *translator) translateImport(scope *Scope, stmt ir.Statement) {
	graph := t.world.ModuleGraph()
	fromPackage := scope.IRScope.(ir.Scope).QualName()
	target, ok := graph.Resolve(fromPackage, stmt.ModuleName, stmt.Level)

	dst := t.variable(scope, stmt.Target, VarLocal)

	if !ok {
		site := t.st.sites.alloc(stmt.ID, AllocUnknown, nil)
		obj := t.st.objects.intern(&Object{Context: scope.Ctx, Alloc: site, Kind: ObjUnknown})
		t.st.growNode(dst, EmptyPTS().Add(obj), stmt.ID)
		t.st.tracker.Record(ImportNotFound, stmt.ID, fmt.Sprintf("module %q not found (level %d)", stmt.ModuleName, stmt.Level), nil)
		return
	}

	moduleCtx := EmptyContext(scope.Ctx.Policy())
	site := t.st.sites.alloc("module#"+target.QualName(), AllocModule, target)
	obj := t.st.objects.intern(&Object{Context: moduleCtx, Alloc: site, Kind: ObjModule})

	moduleScope := t.st.scopes.intern(&Scope{
		IRScope:  target,
		OwnerObj: obj,
		Ctx:      moduleCtx,
		qualName: target.QualName(),
	})
	moduleScope.Module = moduleScope
	t.translateScope(moduleScope)

	if stmt.FromName == "" {
		t.st.growNode(dst, EmptyPTS().Add(obj), stmt.ID)
		t.publishScopeMember(scope, stmt.Target, dst)
		return
	}

	fa := t.st.vars.field(obj, Attr(stmt.FromName))
	t.st.pfg.AddEdge(fa, dst, Normal, nil, nil)
	t.st.growNode(dst, t.st.ptsOf(fa), stmt.ID)
	t.publishScopeMember(scope, stmt.Target, dst)
}
