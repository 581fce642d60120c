package pointer

import (
	"testing"

	"github.com/shivasurya/kcfa/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runFixture(t *testing.T, entry ir.Scope, graph *ir.MapModuleGraph) *AnalysisResult {
	t.Helper()
	cfg := DefaultConfig()
	analysis, err := New(cfg)
	require.NoError(t, err)

	world := &ir.SimpleWorld{Entry: entry, Graph: graph}
	result, err := analysis.Analyze(world)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// findObject locates the interned object allocated at stmtID with the given
// kind, for tests that need to assert PTS membership against a specific
// heap object rather than just a count.
func findObject(t *testing.T, result *AnalysisResult, stmtID string, kind ObjectKind) *Object {
	t.Helper()
	for _, o := range result.st.objects.objects {
		if o.Kind == kind && o.Alloc.StmtID == stmtID {
			return o
		}
	}
	t.Fatalf("no %s object found for alloc site %q", kind, stmtID)
	return nil
}

// findVariable locates the contextual variable named name inside the scope
// qualified as scopeQualName.
func findVariable(t *testing.T, result *AnalysisResult, scopeQualName, name string) *ContextualVariable {
	t.Helper()
	for _, cv := range result.st.vars.vars {
		if cv.Scope.qualName == scopeQualName && cv.Var.Name == name {
			return cv
		}
	}
	t.Fatalf("no variable %q found in scope %q", name, scopeQualName)
	return nil
}

// TestAnalyze_SimpleAssignment exercises the smallest possible program: a
// constant flowing through one copy into a second variable.
func TestAnalyze_SimpleAssignment(t *testing.T) {
	module := ir.Module("__main__",
		ir.Statement{ID: "m.1", Kind: ir.StmtConstant, Target: "x", ConstantValue: 1},
		ir.Statement{ID: "m.2", Kind: ir.StmtCopy, Target: "y", Source: "x"},
	)
	graph := ir.NewMapModuleGraph()
	graph.Register("__main__", module)

	result := runFixture(t, module, graph)
	stats := result.Query().Statistics()
	assert.Greater(t, stats["objects"], 0)
	assert.Equal(t, 0, stats["unknown_events"])
}

// TestAnalyze_SingleInheritance builds a two-level class hierarchy, an
// instantiation and a method call, and checks the instance's attribute
// resolves through the base class.
func TestAnalyze_SingleInheritance(t *testing.T) {
	initBody := ir.Method("Animal.__init__", ir.MethodInstance,
		ir.Statement{ID: "init.1", Kind: ir.StmtStoreAttr, Target: "self", Attr: "name", Source: "name"},
	)
	speakBody := ir.Method("Animal.speak", ir.MethodInstance,
		ir.Statement{ID: "speak.1", Kind: ir.StmtLoadAttr, Source: "self", Attr: "name", Target: "$t0"},
		ir.Statement{ID: "speak.2", Kind: ir.StmtReturn, Source: "$t0"},
	)
	animalBody := ir.Class("Animal",
		ir.Statement{ID: "animal.1", Kind: ir.StmtFuncDef, Target: "__init__", Body: initBody, Params: []string{"self", "name"}},
		ir.Statement{ID: "animal.2", Kind: ir.StmtFuncDef, Target: "speak", Body: speakBody, Params: []string{"self"}},
	)
	dogBody := ir.Class("Dog")

	module := ir.Module("__main__",
		ir.Statement{ID: "m.1", Kind: ir.StmtClassDef, Target: "Animal", Body: animalBody},
		ir.Statement{ID: "m.2", Kind: ir.StmtClassDef, Target: "Dog", Body: dogBody, Bases: []string{"Animal"}},
		ir.Statement{ID: "m.3", Kind: ir.StmtConstant, Target: "rex", ConstantValue: "Rex"},
		ir.Statement{ID: "m.4", Kind: ir.StmtCall, SiteID: "site.new", Callee: "Dog", Target: "pet", Args: []ir.Argument{{Var: "rex"}}},
		ir.Statement{ID: "m.5", Kind: ir.StmtLoadAttr, Source: "pet", Attr: "speak", Target: "$m"},
		ir.Statement{ID: "m.6", Kind: ir.StmtCall, SiteID: "site.speak", Callee: "$m", Target: "result"},
	)
	graph := ir.NewMapModuleGraph()
	graph.Register("__main__", module)

	result := runFixture(t, module, graph)
	q := result.Query()

	dog := findObject(t, result, "m.2", ObjClass)
	instance := findObject(t, result, "new#site.new", ObjInstance)
	assert.Same(t, dog, instance.InstanceClass, "the instance's class must be Dog itself, not Animal")

	pet := findVariable(t, result, "__main__", "pet")
	petPTS := q.PointsTo(pet)
	assert.True(t, petPTS.Contains(instance), "pet must point to the Dog instance allocated at the call site")
	assert.Equal(t, 1, petPTS.Len(), "pet should point to exactly one object")

	result2 := findVariable(t, result, "__main__", "result")
	rexName := findObject(t, result, "m.3", ObjConstant)
	assert.True(t, q.PointsTo(result2).Contains(rexName), "speak() must return self.name, which is bound to \"Rex\" through Animal.__init__")
}

// TestAnalyze_Closure checks a function returning a nested function that
// captures a free variable: the inner function's use of the outer
// parameter should see the argument passed at the outer call site.
func TestAnalyze_Closure(t *testing.T) {
	innerBody := ir.Function("outer.<locals>.inner",
		ir.Statement{ID: "inner.1", Kind: ir.StmtReturn, Source: "captured"},
	)
	outerBody := ir.Function("outer",
		ir.Statement{ID: "outer.1", Kind: ir.StmtFuncDef, Target: "inner", Body: innerBody, FreeVars: []string{"captured"}},
		ir.Statement{ID: "outer.2", Kind: ir.StmtReturn, Source: "inner"},
	)
	module := ir.Module("__main__",
		ir.Statement{ID: "m.1", Kind: ir.StmtConstant, Target: "val", ConstantValue: 42},
		ir.Statement{ID: "m.2", Kind: ir.StmtFuncDef, Target: "outer", Body: outerBody, Params: []string{"captured"}},
		ir.Statement{ID: "m.3", Kind: ir.StmtCall, SiteID: "site.outer", Callee: "outer", Target: "fn", Args: []ir.Argument{{Var: "val"}}},
		ir.Statement{ID: "m.4", Kind: ir.StmtCall, SiteID: "site.fn", Callee: "fn", Target: "result"},
	)
	graph := ir.NewMapModuleGraph()
	graph.Register("__main__", module)

	result := runFixture(t, module, graph)
	q := result.Query()

	val := findObject(t, result, "m.1", ObjConstant)
	fnResult := findVariable(t, result, "__main__", "result")
	assert.True(t, q.PointsTo(fnResult).Contains(val), "inner() must return the captured outer parameter, bound to the constant passed at outer()'s call site")
}

// TestAnalyze_DecoratedFunction checks that a single decorator unfolds into
// a call applied to the raw function, and that the decorated result is
// unioned into the function's own variable alongside the undecorated
// function object.
func TestAnalyze_DecoratedFunction(t *testing.T) {
	wrapperBody := ir.Function("deco.<locals>.wrapper",
		ir.Statement{ID: "wrapper.1", Kind: ir.StmtReturn, Source: "marker"},
	)
	decoBody := ir.Function("deco",
		ir.Statement{ID: "deco.1", Kind: ir.StmtFuncDef, Target: "wrapper", Body: wrapperBody},
		ir.Statement{ID: "deco.2", Kind: ir.StmtReturn, Source: "wrapper"},
	)
	targetBody := ir.Function("target",
		ir.Statement{ID: "target.1", Kind: ir.StmtReturn, Source: "$none"},
	)
	module := ir.Module("__main__",
		ir.Statement{ID: "m.1", Kind: ir.StmtFuncDef, Target: "deco", Body: decoBody, Params: []string{"f"}},
		ir.Statement{ID: "m.2", Kind: ir.StmtConstant, Target: "marker", ConstantValue: "wrapped"},
		ir.Statement{ID: "m.3", Kind: ir.StmtFuncDef, Target: "target", Body: targetBody, Decorators: []string{"deco"}},
	)
	graph := ir.NewMapModuleGraph()
	graph.Register("__main__", module)

	result := runFixture(t, module, graph)
	q := result.Query()

	rawTarget := findObject(t, result, "m.3", ObjFunction)
	wrapper := findObject(t, result, "deco.1", ObjFunction)

	target := findVariable(t, result, "__main__", "target")
	targetPTS := q.PointsTo(target)
	assert.True(t, targetPTS.Contains(rawTarget), "target must still point to the undecorated function object")
	assert.True(t, targetPTS.Contains(wrapper), "target must also point to deco's returned wrapper, the decorated result")
	assert.Equal(t, 0, q.UnknownSummary()["TRANSLATION_ERROR"], "a simple name decorator must not be recorded as an unknown")
}

// TestAnalyze_UnknownImportRecorded checks that an import the module graph
// can't resolve is tracked as an unknown event instead of erroring.
func TestAnalyze_UnknownImportRecorded(t *testing.T) {
	module := ir.Module("__main__",
		ir.Statement{ID: "m.1", Kind: ir.StmtImport, Target: "missing", ModuleName: "does.not.exist"},
	)
	graph := ir.NewMapModuleGraph()
	graph.Register("__main__", module)

	result := runFixture(t, module, graph)
	summary := result.Query().UnknownSummary()
	total := 0
	for _, n := range summary {
		total += n
	}
	assert.Greater(t, total, 0)
}

func TestAnalyze_NoEntryModule(t *testing.T) {
	cfg := DefaultConfig()
	analysis, err := New(cfg)
	require.NoError(t, err)

	_, err = analysis.Analyze(&ir.SimpleWorld{Entry: nil, Graph: ir.NewMapModuleGraph()})
	assert.ErrorIs(t, err, ErrNoEntryModule)
}

func TestNew_InvalidConfigRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestQuery_BuildReport(t *testing.T) {
	module := ir.Module("__main__",
		ir.Statement{ID: "m.1", Kind: ir.StmtConstant, Target: "x", ConstantValue: 1},
	)
	graph := ir.NewMapModuleGraph()
	graph.Register("__main__", module)

	result := runFixture(t, module, graph)
	report := result.Query().BuildReport()
	assert.NotNil(t, report.Statistics)

	data, err := report.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), "statistics")
}

func TestCallGraphAnalyzer_ReachabilityAndPaths(t *testing.T) {
	leafBody := ir.Function("leaf",
		ir.Statement{ID: "leaf.1", Kind: ir.StmtReturn, Source: "$none"},
	)
	midBody := ir.Function("mid",
		ir.Statement{ID: "mid.1", Kind: ir.StmtCall, SiteID: "site.leaf", Callee: "leaf", Target: "$t"},
	)
	module := ir.Module("__main__",
		ir.Statement{ID: "m.1", Kind: ir.StmtFuncDef, Target: "leaf", Body: leafBody},
		ir.Statement{ID: "m.2", Kind: ir.StmtFuncDef, Target: "mid", Body: midBody},
		ir.Statement{ID: "m.3", Kind: ir.StmtCall, SiteID: "site.mid", Callee: "mid", Target: "$t2"},
	)
	graph := ir.NewMapModuleGraph()
	graph.Register("__main__", module)

	result := runFixture(t, module, graph)
	cg := result.Query().CallGraph()
	analyzer := NewCallGraphAnalyzer(cg)

	nodes := cg.Nodes()
	require.NotEmpty(t, nodes)
	reachable := analyzer.Reachable(nodes[:1])
	assert.NotEmpty(t, reachable)
}
