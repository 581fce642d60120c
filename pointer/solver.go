package pointer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/shivasurya/kcfa/ir"
)

// solver drains state's dynamic worklist to a fixpoint (spec.md §4.8): each
// node popped has its PFG successors re-walked and its indexed dynamic
// constraints re-applied against whatever it currently points to. Static
// constraints never appear here — the translator installs their PFG
// structure directly, once, as it lowers each statement.
//
// solver also implements SummaryEnv (builtins.go), so a Manager dispatch
// can allocate objects, wire edges and record unknowns through the same
// state the rest of the solver mutates.
type solver struct {
	st  *state
	tr  *translator
	sel *Selector
	mgr *Manager
	cfg Config

	// lastSeen is the delta-tracking baseline per spec.md §4.8: a node is
	// only reprocessed when its current points-to set has grown past what
	// was last observed here.
	lastSeen map[Node]PTS
}

func newSolver(st *state, tr *translator, sel *Selector, mgr *Manager, cfg Config) *solver {
	return &solver{st: st, tr: tr, sel: sel, mgr: mgr, cfg: cfg, lastSeen: make(map[Node]PTS)}
}

// run drains the worklist until it empties or MaxIterations trips. Hitting
// the cap is logged and the analysis still returns whatever it has
// computed so far (spec.md §7: the iteration cap is a safety net, not a
// hard failure).
func (s *solver) run() {
	iterations := 0
	for len(s.st.worklist) > 0 {
		if s.cfg.MaxIterations > 0 && iterations >= s.cfg.MaxIterations {
			s.st.logger.Warning("%v after %d iterations; returning best-effort result", ErrIterationCapExceeded, iterations)
			return
		}
		iterations++

		node := s.st.worklist[0]
		s.st.worklist = s.st.worklist[1:]
		s.processNode(node)
		s.drainPendingBases()
	}
}

// processNode re-propagates node's growth through the PFG and re-applies
// every dynamic constraint indexed under it. Both steps are idempotent
// with respect to already-delivered objects (AddEdge/growNode dedupe), so
// reprocessing a node that hasn't actually grown since lastSeen is simply
// skipped.
func (s *solver) processNode(node Node) {
	cur := s.st.ptsOf(node)
	prev := s.lastSeen[node]
	delta := cur.Difference(prev)
	if delta.IsEmpty() {
		return
	}
	s.lastSeen[node] = cur

	for _, e := range s.st.pfg.Successors(node) {
		out := s.st.pfg.FlowThrough(e, delta)
		if !out.IsEmpty() {
			s.st.growNode(e.Target, out, "pfg-propagation")
		}
	}

	for _, c := range s.st.dynamicConstraints[node] {
		s.applyConstraint(c)
	}
}

// drainPendingBases resolves every class allocation whose base-class
// variables have accumulated ObjClass members, wiring them into Hierarchy.
// Re-run every iteration; cheap given the small number of classes in a
// typical program, and idempotent since UpdateBases is only called when
// the resolved base list differs from the registered one.
func (s *solver) drainPendingBases() {
	for _, entry := range s.st.pendingBases {
		bases := make([]*Object, 0, len(entry.baseVars))
		seen := make(map[*Object]bool)
		for _, bv := range entry.baseVars {
			for _, o := range s.st.ptsOf(bv).Objects() {
				if o.Kind != ObjClass || seen[o] {
					continue
				}
				seen[o] = true
				bases = append(bases, o)
			}
		}
		if !sameObjects(s.st.hier.Bases(entry.class), bases) {
			s.st.hier.UpdateBases(entry.class, bases)
		}
	}
}

func sameObjects(a, b []*Object) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func locOf(c *Constraint) string {
	if c.Site2 != nil {
		return c.Site2.SiteID
	}
	return ""
}

func (s *solver) applyConstraint(c *Constraint) {
	switch c.Kind {
	case ConstraintLoad:
		s.applyLoad(c)
	case ConstraintStore:
		s.applyStore(c)
	case ConstraintLoadSubscr:
		s.applySubscrLoad(c)
	case ConstraintStoreSubscr:
		s.applySubscrStore(c)
	case ConstraintCall:
		s.applyCall(c)
	case ConstraintSuperResolve:
		s.applySuperResolve(c)
	}
}

// -- attribute load/store -----------------------------------------------

func (s *solver) applyLoad(c *Constraint) {
	loc := locOf(c)
	for _, o := range s.st.ptsOf(c.Base).Objects() {
		s.loadField(o, c.Field, c.Target, loc)
	}
}

func (s *solver) applyStore(c *Constraint) {
	for _, o := range s.st.ptsOf(c.Base).Objects() {
		fa := s.st.vars.field(o, c.Field)
		s.st.pfg.AddEdge(c.Source, fa, Normal, nil, nil)
		s.st.growNode(fa, s.st.ptsOf(c.Source), "store")
	}
}

// loadField dispatches a field read by the base object's kind: instances
// and classes resolve attributes through the MRO (spec.md §4.3), super
// objects delegate past the current class (spec.md §4.9), containers fall
// through to a synthesized builtin-method object when the field names one,
// and everything else is a plain field read.
func (s *solver) loadField(base *Object, field Field, target Node, location string) {
	switch {
	case base.Kind == ObjInstance && field.Kind == FieldAttr:
		s.loadInstanceAttr(base, field, target, location)
	case base.Kind == ObjClass && field.Kind == FieldAttr:
		s.loadClassAttr(base, field, target, location)
	case base.Kind == ObjSuper && field.Kind == FieldAttr:
		s.loadSuperAttr(base, field, target, location)
	case field.Kind == FieldAttr && BuiltinTypeName(base.Kind) != "" && s.mgr.HasMethodSummary(BuiltinTypeName(base.Kind), field.Name):
		s.loadBuiltinMethod(base, field.Name, target, location)
	default:
		fa := s.st.vars.field(base, field)
		s.st.pfg.AddEdge(fa, target, Normal, nil, nil)
		s.st.growNode(target, s.st.ptsOf(fa), location)
	}
}

// loadInstanceAttr unions the instance's own (possibly empty) field with
// the first MRO ancestor that ever had this attribute published, rebinding
// any class-role method found there to this instance (spec.md §4.3,
// invariant 5). Python resolves an attribute from the nearest class that
// defines it and stops there; a direct instance-level assignment always
// contributes regardless.
func (s *solver) loadInstanceAttr(inst *Object, field Field, target Node, location string) {
	directField := s.st.vars.field(inst, field)
	s.st.pfg.AddEdge(directField, target, Normal, nil, nil)
	s.st.growNode(target, s.st.ptsOf(directField), location)

	cls := inst.InstanceClass
	if cls == nil {
		return
	}
	for _, c3 := range s.st.hier.GetMRO(cls) {
		if !s.st.vars.hasField(c3, field) {
			continue
		}
		classField := s.st.vars.field(c3, field)
		s.st.pfg.AddEdge(classField, directField, Instance, nil, inst)
		s.st.growNode(directField, s.st.pfg.rebindInstanceRole(s.st.ptsOf(classField), inst), location)
		return
	}
	s.recordMROMiss(cls, field, location)
}

// loadClassAttr resolves an unbound class-level attribute access
// (`Class.attr`, including unbound method access) by walking the class's
// own MRO, which always starts with the class itself.
func (s *solver) loadClassAttr(cls *Object, field Field, target Node, location string) {
	for _, c3 := range s.st.hier.GetMRO(cls) {
		if !s.st.vars.hasField(c3, field) {
			continue
		}
		fa := s.st.vars.field(c3, field)
		s.st.pfg.AddEdge(fa, target, Normal, nil, nil)
		s.st.growNode(target, s.st.ptsOf(fa), location)
		return
	}
	s.recordMROMiss(cls, field, location)
}

// loadSuperAttr resolves an attribute through the MRO positions strictly
// after SuperCurrentClass, binding any method found either to
// SuperInstance (the common `super().method()` case) or, when no instance
// operand resolved (SuperInstance nil), re-rebinding it to the class.
func (s *solver) loadSuperAttr(sup *Object, field Field, target Node, location string) {
	cls := sup.SuperCurrentClass
	mro := s.st.hier.GetMRO(cls)
	pos := s.st.hier.PositionInMRO(cls)
	if pos < 0 {
		pos = 0
	}
	for _, c3 := range mro[pos+1:] {
		if !s.st.vars.hasField(c3, field) {
			continue
		}
		fa := s.st.vars.field(c3, field)
		if sup.SuperInstance != nil {
			s.st.pfg.AddEdge(fa, target, Instance, nil, sup.SuperInstance)
			s.st.growNode(target, s.st.pfg.rebindInstanceRole(s.st.ptsOf(fa), sup.SuperInstance), location)
		} else {
			s.st.pfg.AddEdge(fa, target, Inherit, c3, nil)
			s.st.growNode(target, s.st.pfg.rebindClassRole(s.st.ptsOf(fa), c3), location)
		}
		return
	}
	s.st.tracker.Record(DynamicAttribute, location, fmt.Sprintf("attribute %q not found past %s via super()", field.Name, cls), nil)
}

func (s *solver) loadBuiltinMethod(receiver *Object, name string, target Node, location string) {
	owner := BuiltinTypeName(receiver.Kind)
	site := s.st.sites.alloc(fmt.Sprintf("builtin-method#%s.%s#%s", owner, name, receiver.idKey), AllocBuiltin, nil)
	obj := s.st.objects.intern(&Object{Context: receiver.Context, Alloc: site, Kind: ObjBuiltinMethod, BuiltinName: name, BuiltinOwner: owner, BuiltinReceiver: receiver})
	if target != nil {
		s.st.growNode(target, EmptyPTS().Add(obj), location)
	}
}

func (s *solver) recordMROMiss(cls *Object, field Field, location string) {
	if msg, ok := s.st.hier.MROFailure(cls); ok {
		s.st.tracker.Record(AllocContextFailure, location, msg, nil)
		return
	}
	s.st.tracker.Record(DynamicAttribute, location, fmt.Sprintf("attribute %q not found on %s via MRO", field.Name, cls), nil)
}

// -- subscript load/store -------------------------------------------------

// subscrFields reports which heap fields a subscript operation should
// touch: a known constant-string key resolves to that Key() slot, anything
// else (including a wholly unresolved index) conservatively falls back to
// the shared Elem() slot (spec.md §4.2).
func (s *solver) subscrFields(idx *ContextualVariable) []Field {
	idxObjs := s.st.ptsOf(idx).Objects()
	var fields []Field
	sawNonConstant := len(idxObjs) == 0
	for _, o := range idxObjs {
		if o.Kind == ObjConstant {
			if key, ok := o.ConstantValue.(string); ok {
				fields = append(fields, Key(key))
				continue
			}
		}
		sawNonConstant = true
	}
	if sawNonConstant {
		fields = append(fields, Elem())
	}
	return fields
}

func (s *solver) applySubscrLoad(c *Constraint) {
	loc := locOf(c)
	baseObjs := s.st.ptsOf(c.Base).Objects()
	for _, field := range s.subscrFields(c.Index) {
		for _, o := range baseObjs {
			fa := s.st.vars.field(o, field)
			s.st.pfg.AddEdge(fa, c.Target, Normal, nil, nil)
			s.st.growNode(c.Target, s.st.ptsOf(fa), loc)
		}
	}
}

func (s *solver) applySubscrStore(c *Constraint) {
	baseObjs := s.st.ptsOf(c.Base).Objects()
	for _, field := range s.subscrFields(c.Index) {
		for _, o := range baseObjs {
			fa := s.st.vars.field(o, field)
			s.st.pfg.AddEdge(c.Source, fa, Normal, nil, nil)
			s.st.growNode(fa, s.st.ptsOf(c.Source), "storesubscr")
		}
	}
}

// -- calls ------------------------------------------------------------------

func (s *solver) applyCall(c *Constraint) {
	callees := s.st.ptsOf(c.Callee).Objects()
	for _, callee := range callees {
		s.dispatchCallee(c, callee)
	}
	if len(callees) == 0 {
		s.st.tracker.Record(CalleeEmpty, locOf(c), "call target has no resolved callee", nil)
	}
}

func (s *solver) dispatchCallee(c *Constraint, callee *Object) {
	loc := locOf(c)
	switch callee.Kind {
	case ObjFunction:
		s.invokeUserFunction(c, callee, nil, c.Args)

	case ObjMethod:
		if callee.InstanceObj != nil {
			s.invokeUserFunction(c, callee, callee.InstanceObj, c.Args)
			return
		}
		if len(c.Args) == 0 {
			s.st.tracker.Record(MissingArgument, loc, "unbound method call has no explicit self argument", nil)
			return
		}
		for _, selfObj := range s.st.ptsOf(c.Args[0]).Objects() {
			s.invokeUserFunction(c, callee, selfObj, c.Args[1:])
		}

	case ObjClass:
		s.instantiate(c, callee)

	case ObjBuiltinFunction:
		s.invokeBuiltinFunction(c, callee)

	case ObjBuiltinMethod:
		s.invokeBuiltinMethod(c, callee)

	case ObjSuper:
		s.st.tracker.Record(CalleeNonCallable, loc, "super object is not callable", nil)

	default:
		s.st.tracker.Record(CalleeNonCallable, loc, fmt.Sprintf("object of kind %s is not callable", callee.Kind), nil)
	}
}

// invokeUserFunction selects a callee context, then binds parameters and
// wires $return for funcObj's body under it (spec.md §4.4, §4.5).
func (s *solver) invokeUserFunction(c *Constraint, funcObj *Object, receiver *Object, explicitArgs []*ContextualVariable) {
	bodyScope, ok := funcObj.Alloc.FuncScope.(ir.Scope)
	if !ok || bodyScope == nil {
		s.st.tracker.Record(FunctionNotInRegistry, locOf(c), "function object has no translatable body", nil)
		return
	}
	shape := CallShape{Site: c.Site2, ReceiverAlloc: receiver, CalleeHint: funcObj.Alloc.StmtID}
	if funcObj.ClassObj != nil {
		shape.ReceiverType = funcObj.ClassObj.idKey
	}
	callerCtx := Context{}
	if c.CallerScope != nil {
		callerCtx = c.CallerScope.Ctx
	}
	calleeCtx := s.sel.SelectCallee(callerCtx, shape)
	s.bindCall(c, funcObj, funcObj.Alloc.Params, bodyScope, calleeCtx, receiver, explicitArgs)
}

// bindCall interns funcObj's body under calleeCtx, binds receiver/args/
// kwargs into its parameter variables, wires $return into c.Target,
// records the call-graph edge, threads captured cell/global/nonlocal
// bindings in, and (memoized) translates the body.
func (s *solver) bindCall(c *Constraint, funcObj *Object, params []string, bodyScope ir.Scope, calleeCtx Context, receiver *Object, explicitArgs []*ContextualVariable) {
	calleeScope := s.st.scopes.intern(&Scope{
		IRScope:  bodyScope,
		OwnerObj: funcObj.ClassObj,
		Ctx:      calleeCtx,
		Module:   funcObj.DefiningModule,
		Params:   params,
		qualName: bodyScope.QualName(),
	})

	argIdx := 0
	for i, pname := range params {
		paramVar := s.st.vars.variable(calleeScope, calleeCtx, Variable{Name: pname, Kind: VarLocal})
		if i == 0 && receiver != nil {
			s.st.growNode(paramVar, EmptyPTS().Add(receiver), "self-binding")
			continue
		}
		if kv, ok := c.Kwargs[pname]; ok {
			s.st.pfg.AddEdge(kv, paramVar, Normal, nil, nil)
			s.st.growNode(paramVar, s.st.ptsOf(kv), "kwarg-binding")
			continue
		}
		if argIdx < len(explicitArgs) {
			av := explicitArgs[argIdx]
			s.st.pfg.AddEdge(av, paramVar, Normal, nil, nil)
			s.st.growNode(paramVar, s.st.ptsOf(av), "arg-binding")
			argIdx++
			continue
		}
		s.st.tracker.Record(MissingArgument, locOf(c), fmt.Sprintf("no argument bound for parameter %q of %s", pname, bodyScope.QualName()), nil)
	}

	for _, cb := range s.st.captured[funcObj] {
		localVar := s.st.vars.variable(calleeScope, calleeCtx, Variable{Name: cb.name, Kind: VarLocal})
		s.st.pfg.AddEdge(cb.callerCV, localVar, Normal, nil, nil)
		s.st.growNode(localVar, s.st.ptsOf(cb.callerCV), "capture")
	}

	if c.Target != nil {
		retVar := s.st.vars.variable(calleeScope, calleeCtx, Variable{Name: "$return", Kind: VarTemporary})
		s.st.pfg.AddEdge(retVar, c.Target, Normal, nil, nil)
		s.st.growNode(c.Target, s.st.ptsOf(retVar), "return")
	}

	s.st.callGraph.addEdge(CallEdge{CallerScope: c.CallerScope, Site: c.Site2, CalleeScope: calleeScope})
	s.tr.translateScope(calleeScope)
}

// instantiate allocates a fresh instance (context chosen per
// select_alloc_context) and, if the class's MRO publishes an __init__,
// invokes every method object found there bound to the new instance
// (spec.md §4.3's constructor dispatch).
func (s *solver) instantiate(c *Constraint, classObj *Object) {
	loc := locOf(c)
	siteID := "new#" + loc
	allocCtx := s.sel.SelectAllocContext(callerCtxOf(c), &AllocSite{StmtID: siteID, Kind: AllocInstance})
	site := s.st.sites.alloc(siteID, AllocInstance, nil)
	inst := s.st.objects.intern(&Object{Context: allocCtx, Alloc: site, Kind: ObjInstance, InstanceClass: classObj})
	if c.Target != nil {
		s.st.growNode(c.Target, EmptyPTS().Add(inst), loc)
	}

	for _, c3 := range s.st.hier.GetMRO(classObj) {
		if !s.st.vars.hasField(c3, Attr("__init__")) {
			continue
		}
		initSrc := s.st.vars.field(c3, Attr("__init__"))
		// The implicit __init__ dispatch is a distinct call edge from the
		// `ClassName(...)` expression that triggered it, with no natural
		// textual site id of its own (unlike every other call site, which
		// gets one straight from the IR); uuid synthesizes one. Target is
		// dropped so __init__'s own return value (conventionally None,
		// but not specially modeled here) never flows into the
		// instantiation's result variable.
		initSite := s.st.sites.call(uuid.NewString(), classObj.Alloc.StmtID, 0)
		initCall := &Constraint{Kind: ConstraintCall, Args: c.Args, Kwargs: c.Kwargs, Site2: initSite, CallerScope: c.CallerScope}
		for _, initObj := range s.st.ptsOf(initSrc).Objects() {
			if initObj.Kind != ObjMethod {
				continue
			}
			bound := s.st.objects.intern(&Object{Context: initObj.Context, Alloc: initObj.Alloc, Kind: ObjMethod, ClassObj: initObj.ClassObj, InstanceObj: inst})
			s.invokeUserFunction(initCall, bound, inst, c.Args)
		}
		return
	}
}

func callerCtxOf(c *Constraint) Context {
	if c.CallerScope != nil {
		return c.CallerScope.Ctx
	}
	return Context{}
}

func (s *solver) invokeBuiltinFunction(c *Constraint, callee *Object) {
	loc := locOf(c)
	if !s.mgr.HasFunctionSummary(callee.BuiltinName) {
		s.st.tracker.Record(FunctionNotInRegistry, loc, fmt.Sprintf("no summary registered for builtin %q", callee.BuiltinName), nil)
		return
	}
	extra := s.mgr.ApplyFunction(s, callee.BuiltinName, s.summaryCallFor(c, nil))
	s.registerExtraConstraints(extra)
}

func (s *solver) invokeBuiltinMethod(c *Constraint, callee *Object) {
	loc := locOf(c)
	if !s.mgr.HasMethodSummary(callee.BuiltinOwner, callee.BuiltinName) {
		s.st.tracker.Record(FunctionNotInRegistry, loc, fmt.Sprintf("no summary registered for builtin method %s.%s", callee.BuiltinOwner, callee.BuiltinName), nil)
		return
	}
	extra := s.mgr.ApplyMethod(s, callee.BuiltinOwner, callee.BuiltinName, s.summaryCallFor(c, callee.BuiltinReceiver))
	s.registerExtraConstraints(extra)
}

func (s *solver) summaryCallFor(c *Constraint, receiver *Object) SummaryCall {
	var target *ContextualVariable
	if cv, ok := c.Target.(*ContextualVariable); ok {
		target = cv
	}
	sc := SummaryCall{
		Target:   target,
		Receiver: receiver,
		Args:     c.Args,
		Kwargs:   c.Kwargs,
		Site:     c.Site2,
		Ctx:      callerCtxOf(c),
		Location: locOf(c),
	}
	if c.CallerScope != nil {
		if irScope, ok := c.CallerScope.IRScope.(ir.Scope); ok && irScope.Kind() == ir.ScopeMethod {
			sc.EnclosingClass = c.CallerScope.OwnerObj
			if len(c.CallerScope.Params) > 0 {
				sc.EnclosingSelf = s.st.vars.variable(c.CallerScope, c.CallerScope.Ctx, Variable{Name: c.CallerScope.Params[0], Kind: VarLocal})
			}
		}
	}
	return sc
}

func (s *solver) registerExtraConstraints(cs []*Constraint) {
	for _, extra := range cs {
		s.st.registerDynamic(extra)
	}
}

// -- super() ------------------------------------------------------------

// applySuperResolve synthesizes an ObjSuper per (class, instance) pair
// currently resolvable from c's explicit or implicit operands (spec.md
// §4.9). Attribute lookup through the result happens later, in
// loadSuperAttr, when something reads an attribute off it.
func (s *solver) applySuperResolve(c *Constraint) {
	var classObjs []*Object
	switch {
	case c.ClassVar != nil:
		classObjs = s.st.ptsOf(c.ClassVar).Objects()
	case c.ImplicitCls != nil:
		classObjs = []*Object{c.ImplicitCls}
	}
	if len(classObjs) == 0 {
		return
	}

	var instObjs []*Object
	if c.InstanceVar != nil {
		instObjs = s.st.ptsOf(c.InstanceVar).Objects()
	}
	if len(instObjs) == 0 {
		instObjs = []*Object{nil}
	}

	for _, cls := range classObjs {
		if cls.Kind != ObjClass {
			continue
		}
		for _, inst := range instObjs {
			site := s.st.sites.alloc(fmt.Sprintf("super#%s#%s", cls.Alloc.StmtID, idOf(inst)), AllocObject, nil)
			superObj := s.st.objects.intern(&Object{Context: cls.Context, Alloc: site, Kind: ObjSuper, SuperCurrentClass: cls, SuperInstance: inst})
			if c.Target != nil {
				s.st.growNode(c.Target, EmptyPTS().Add(superObj), "super")
			}
		}
	}
}

// -- SummaryEnv (builtins.go) ---------------------------------------------

func (s *solver) AllocNow(target Node, ctx Context, allocKind AllocKind, objKind ObjectKind, tag string) *Object {
	var key string
	if target != nil {
		key = fmt.Sprintf("%s#%s", tag, nodeString(target))
	} else {
		s.st.unknownAllocCounter++
		key = fmt.Sprintf("%s#void%d", tag, s.st.unknownAllocCounter)
	}
	site := s.st.sites.alloc(key, allocKind, nil)
	obj := s.st.objects.intern(&Object{Context: ctx, Alloc: site, Kind: objKind})
	if target != nil {
		s.st.growNode(target, EmptyPTS().Add(obj), tag)
	}
	return obj
}

func (s *solver) FieldNode(obj *Object, f Field) *FieldAccessNode {
	return s.st.vars.field(obj, f)
}

// AddEdge installs the edge and immediately flushes source's current
// points-to set through it, since builtin summaries are applied well after
// their argument variables may have already accumulated members, and
// merely adding the edge wouldn't otherwise replay that backlog.
func (s *solver) AddEdge(source, target Node, kind EdgeKind, rebindClass, rebindInstance *Object) *Edge {
	e := s.st.pfg.AddEdge(source, target, kind, rebindClass, rebindInstance)
	out := s.st.pfg.FlowThrough(e, s.st.ptsOf(source))
	if !out.IsEmpty() {
		s.st.growNode(target, out, "builtin-edge")
	}
	return e
}

func (s *solver) Track(kind UnknownKind, location, message string, ctx *Context) {
	s.st.tracker.Record(kind, location, message, ctx)
}

func (s *solver) Hierarchy() *Hierarchy {
	return s.st.hier
}

func nodeString(n Node) string {
	switch v := n.(type) {
	case *ContextualVariable:
		return v.String()
	case *FieldAccessNode:
		return v.String()
	default:
		return fmt.Sprintf("%v", n)
	}
}
