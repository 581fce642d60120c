package ir

// ModuleGraph resolves an import statement, issued from a given scope, to
// the module's top-level Scope. Implementations own module-file discovery
// on disk (or in memory); that mechanism is out of scope for this
// repository (spec.md §1). The pointer translator (pointer.translateImport)
// is the only caller.
//
// Relative-import resolution follows spec.md §6: trim the importing
// package's dotted components by level, then append ModuleName; an empty
// ModuleName with level >= 1 resolves to the current package itself.
type ModuleGraph interface {
	// Resolve returns the target module's Scope and true on success, or
	// (nil, false) if the module cannot be found — the translator then
	// records an IMPORT_NOT_FOUND unknown and binds a conservative object.
	Resolve(fromPackage string, moduleName string, level int) (Scope, bool)
}

// World supplies the entry module and the scope manager to PointerAnalysis.
// A real implementation owns the file system walk that discovers a
// project's modules; this repository only consumes the result.
type World interface {
	EntryModule() Scope
	ModuleGraph() ModuleGraph
}
