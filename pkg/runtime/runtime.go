// Package runtime wires pkg/dispatch, pkg/rhash, pkg/rregexp, and
// pkg/interop into the three embedding-API entry points and the
// built-in primitive set. It is the outermost layer a host program
// (cmd/rcore, or an embedder) talks to.
package runtime

import (
	"rcore/internal/safepoint"
	"rcore/pkg/config"
	"rcore/pkg/dispatch"
	"rcore/pkg/interop"
	"rcore/pkg/rvalue"
)

// Runtime bundles one boot's worth of state: the dispatch engine, the
// built-in class closure, the default hasher/equality collaborator, the
// foreign-value adapter, the thread manager, and boot config. A host
// constructs exactly one per independent VM instance (tests construct
// several, one each, so they never share mutable class state).
type Runtime struct {
	Config   config.Config
	Builtins *rvalue.BuiltinClasses
	Engine   *dispatch.Engine
	Hasher   *DefaultHasher
	Foreign  *interop.Adapter
	Threads  *safepoint.ThreadManager
	Parser   Parser

	sendSite *dispatch.CallSite
}

// New constructs a Runtime with a fresh built-in class hierarchy:
// BasicObject <- Object, a Class/Module pair, and a method_missing
// symbol the engine's handleMissing path looks up.
func New(cfg config.Config) *Runtime {
	basicObject := rvalue.NewClass("BasicObject", nil)
	object := rvalue.NewClass("Object", basicObject)
	module := rvalue.NewClass("Module", object)
	classClass := rvalue.NewClass("Class", module)

	builtins := &rvalue.BuiltinClasses{
		BasicObject: basicObject,
		Object:      object,
		Module:      module,
		ClassClass:  classClass,
		NilClass:    rvalue.NewClass("NilClass", object),
		TrueClass:   rvalue.NewClass("TrueClass", object),
		FalseClass:  rvalue.NewClass("FalseClass", object),
		Integer:     rvalue.NewClass("Integer", object),
		Float:       rvalue.NewClass("Float", object),
		Symbol:      rvalue.NewClass("Symbol", object),
		String:      rvalue.NewClass("String", object),
		Array:       rvalue.NewClass("Array", object),
		Hash:        rvalue.NewClass("Hash", object),
		Regexp:      rvalue.NewClass("Regexp", object),
		MatchData:   rvalue.NewClass("MatchData", object),
		Proc:        rvalue.NewClass("Proc", object),
	}

	foreign := interop.NewAdapter(cfg.InteropWriteCache)
	engine := &dispatch.Engine{
		Builtins:      builtins,
		Foreign:       foreign,
		CacheLimit:    cfg.DispatchCacheLimit,
		MissingSymbol: symOf("method_missing"),
	}

	r := &Runtime{
		Config:   cfg,
		Builtins: builtins,
		Engine:   engine,
		Foreign:  foreign,
		Threads:  safepoint.NewThreadManager(),
		Parser:   stubParser{},
		sendSite: dispatch.NewCallSite(engine),
	}
	r.Hasher = NewDefaultHasher(engine)
	return r
}

// Run implements `run_source`: compile via the configured Parser,
// install every resulting method on Object, and return Nil (the
// parser/AST layer that would actually execute a top-level program body
// is out of scope for this repo).
func (r *Runtime) Run(source, filename string, lineOffset int) (rvalue.Value, error) {
	methods, err := r.Parser.Compile(source, filename, lineOffset)
	if err != nil {
		return rvalue.Nil, err
	}
	for _, m := range methods {
		r.Builtins.Object.Define(m)
	}
	return rvalue.Nil, nil
}

// Send implements `send`: public-only visibility, missing methods
// routed through method_missing and ultimately raising NoMethodError,
// exactly dispatch.Public()'s mode.
func (r *Runtime) Send(receiver rvalue.Value, name *rvalue.Symbol, args []rvalue.Value, block *rvalue.Proc) (rvalue.Value, error) {
	frame := dispatch.CallSplat(receiver, args, block)
	return r.sendSite.Dispatch(receiver, name, frame, dispatch.Public(), nil)
}

// DefineMethod implements `define_method`: records m on mod's method
// table (bumping mod's epoch, per rvalue.Class.Define) and returns the
// installed InternalMethod.
func (r *Runtime) DefineMethod(mod *rvalue.Class, name *rvalue.Symbol, vis rvalue.Visibility, body rvalue.MethodBody, params rvalue.ParamDescriptor) *rvalue.InternalMethod {
	m := &rvalue.InternalMethod{Name: name, Visibility: vis, Body: body, Params: params}
	mod.Define(m)
	return m
}
