package cmd

import "github.com/shivasurya/kcfa/ir"

// demoWorld builds a small in-memory program exercising closures, single
// inheritance and a method call, for `kcfa analyze --fixture` to run
// against without a real frontend (ir/fixture.go's Fixture/SimpleWorld
// are not a frontend, per their own doc comment; this is
// the CLI's debug entry point into them). Roughly:
//
//	class Animal:
//	    def __init__(self, name):
//	        self.name = name
//	    def speak(self):
//	        return self.name
//
//	class Dog(Animal):
//	    pass
//
//	def make_greeter(who):
//	    def greet():
//	        return who.speak()
//	    return greet
//
//	pet = Dog("Rex")
//	greeter = make_greeter(pet)
//	message = greeter()
func demoWorld() ir.World {
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

	greetBody := ir.Function("make_greeter.<locals>.greet",
		ir.Statement{ID: "greet.1", Kind: ir.StmtLoadAttr, Source: "who", Attr: "speak", Target: "$m0"},
		ir.Statement{ID: "greet.2", Kind: ir.StmtCall, SiteID: "site.greet.speak", Callee: "$m0", Target: "$t1"},
		ir.Statement{ID: "greet.3", Kind: ir.StmtReturn, Source: "$t1"},
	)
	makeGreeterBody := ir.Function("make_greeter",
		ir.Statement{ID: "mg.1", Kind: ir.StmtFuncDef, Target: "greet", Body: greetBody, FreeVars: []string{"who"}},
		ir.Statement{ID: "mg.2", Kind: ir.StmtReturn, Source: "greet"},
	)

	module := ir.Module("__main__",
		ir.Statement{ID: "m.1", Kind: ir.StmtClassDef, Target: "Animal", Body: animalBody},
		ir.Statement{ID: "m.2", Kind: ir.StmtClassDef, Target: "Dog", Body: dogBody, Bases: []string{"Animal"}},
		ir.Statement{ID: "m.3", Kind: ir.StmtFuncDef, Target: "make_greeter", Body: makeGreeterBody, Params: []string{"who"}},
		ir.Statement{ID: "m.4", Kind: ir.StmtCall, SiteID: "site.new.dog", Callee: "Dog", Target: "pet", Args: []ir.Argument{{Var: "rex_literal"}}},
		ir.Statement{ID: "m.5", Kind: ir.StmtConstant, Target: "rex_literal", ConstantValue: "Rex"},
		ir.Statement{ID: "m.6", Kind: ir.StmtCall, SiteID: "site.make_greeter", Callee: "make_greeter", Target: "greeter", Args: []ir.Argument{{Var: "pet"}}},
		ir.Statement{ID: "m.7", Kind: ir.StmtCall, SiteID: "site.greeter", Callee: "greeter", Target: "message"},
	)

	graph := ir.NewMapModuleGraph()
	graph.Register("__main__", module)
	return &ir.SimpleWorld{Entry: module, Graph: graph}
}
