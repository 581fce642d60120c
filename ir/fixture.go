package ir

import "strings"

// Fixture is an in-memory Scope/ModuleGraph/World builder used by the
// pointer package's tests (and by the CLI's --fixture debug mode) to drive
// the engine without a real parser. It is not a frontend: callers build
// Statement slices by hand, the way golang.org/x/tools/go/pointer's own
// tests construct SSA by hand rather than compiling source.
type Fixture struct {
	QualNameStr string
	KindVal     ScopeKind
	ModifierVal MethodModifier
	Stmts       []Statement
}

func (f *Fixture) QualName() string           { return f.QualNameStr }
func (f *Fixture) Kind() ScopeKind            { return f.KindVal }
func (f *Fixture) Modifier() MethodModifier   { return f.ModifierVal }
func (f *Fixture) Statements() []Statement    { return f.Stmts }

// Module builds a module-scope fixture.
func Module(qualName string, stmts ...Statement) *Fixture {
	return &Fixture{QualNameStr: qualName, KindVal: ScopeModule, Stmts: stmts}
}

// Function builds a function-scope fixture.
func Function(qualName string, stmts ...Statement) *Fixture {
	return &Fixture{QualNameStr: qualName, KindVal: ScopeFunction, Stmts: stmts}
}

// Method builds a method-scope fixture with the given modifier.
func Method(qualName string, modifier MethodModifier, stmts ...Statement) *Fixture {
	return &Fixture{QualNameStr: qualName, KindVal: ScopeMethod, ModifierVal: modifier, Stmts: stmts}
}

// Class builds a class-scope fixture.
func Class(qualName string, stmts ...Statement) *Fixture {
	return &Fixture{QualNameStr: qualName, KindVal: ScopeClass, Stmts: stmts}
}

// MapModuleGraph is a ModuleGraph backed by a flat map of dotted module
// name to its Scope, with relative-import trimming per spec.md §6.
type MapModuleGraph struct {
	Modules map[string]Scope
}

// NewMapModuleGraph creates an empty module graph ready for Register calls.
func NewMapModuleGraph() *MapModuleGraph {
	return &MapModuleGraph{Modules: make(map[string]Scope)}
}

// Register adds a module under its fully dotted name.
func (g *MapModuleGraph) Register(dottedName string, scope Scope) {
	g.Modules[dottedName] = scope
}

// Resolve implements ModuleGraph. For level == 0 the name is absolute. For
// level >= 1, fromPackage's dotted components are trimmed by level before
// moduleName is appended; an empty moduleName with level >= 1 resolves to
// the trimmed package itself.
func (g *MapModuleGraph) Resolve(fromPackage string, moduleName string, level int) (Scope, bool) {
	target := moduleName
	if level > 0 {
		parts := strings.Split(fromPackage, ".")
		trim := level
		if trim > len(parts) {
			trim = len(parts)
		}
		base := parts[:len(parts)-trim]
		if moduleName == "" {
			target = strings.Join(base, ".")
		} else {
			target = strings.Join(append(append([]string{}, base...), moduleName), ".")
		}
	}
	scope, ok := g.Modules[target]
	return scope, ok
}

// SimpleWorld pairs an entry module with its module graph.
type SimpleWorld struct {
	Entry Scope
	Graph ModuleGraph
}

func (w *SimpleWorld) EntryModule() Scope   { return w.Entry }
func (w *SimpleWorld) ModuleGraph() ModuleGraph { return w.Graph }
