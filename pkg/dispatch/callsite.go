package dispatch

import (
	"sync/atomic"

	"rcore/pkg/rclass"
	"rcore/pkg/rerror"
	"rcore/pkg/rvalue"
)

// ForeignAdapter looks up an operation by name on a value that carries
// no Ruby class. Defined here, at the consumer, rather than in a
// separate interop package that dispatch would have to import —
// pkg/interop implements this interface and a host wires an
// *interop.Adapter in via Engine.Foreign.
type ForeignAdapter interface {
	Call(receiver rvalue.Value, name *rvalue.Symbol, args []rvalue.Value, block *rvalue.Proc) (rvalue.Value, bool, error)
}

// Engine owns the pieces every CallSite needs to resolve a receiver's
// class and to build a method_missing frame: the builtin-class closure
// and an optional foreign adapter. One Engine is shared by every call
// site in a runtime.
type Engine struct {
	Builtins       *rvalue.BuiltinClasses
	Foreign        ForeignAdapter
	CacheLimit     int
	MissingSymbol  *rvalue.Symbol
}

// classOf resolves v's class the way rvalue.ClassOf does, given the
// engine's builtin-class closure.
func (e *Engine) classOf(v rvalue.Value) *rvalue.Class {
	if v.Kind() == rvalue.KindForeign {
		return nil
	}
	return rvalue.ClassOf(e.Builtins, v)
}

// CallSite is one polymorphic inline-cache site. Every cache lookup and
// record runs under a spin lock, so two goroutines racing on the same
// site never observe a torn entry list.
type CallSite struct {
	engine *Engine
	// ic mutates in place; guard is the spin lock that serializes every
	// reader and writer of it (see lock/unlock).
	ic    *InlineCache
	guard int32 // 0 = unlocked, 1 = locked (test-and-set via atomic ops)
}

func NewCallSite(e *Engine) *CallSite {
	return &CallSite{engine: e, ic: NewInlineCache(e.CacheLimit)}
}

func (cs *CallSite) lock() {
	for !atomic.CompareAndSwapInt32(&cs.guard, 0, 1) {
	}
}
func (cs *CallSite) unlock() { atomic.StoreInt32(&cs.guard, 0) }

// Dispatch resolves and invokes (receiver, name, frame.Positional,
// frame.Block) under mode.
func (cs *CallSite) Dispatch(receiver rvalue.Value, name *rvalue.Symbol, frame *Frame, mode Mode, refinements *rclass.RefinementScope) (rvalue.Value, error) {
	class := cs.engine.classOf(receiver)
	if class == nil {
		return cs.dispatchForeign(receiver, name, frame, mode)
	}

	cs.lock()
	if cached, ok := cs.ic.lookup(class); ok {
		cs.unlock()
		return invoke(cached, receiver, frame)
	}
	cs.unlock()

	result := rclass.Lookup(class, name, mode.Visibility, refinements, mode.IgnoreRefinements)
	if result.Method == nil {
		return cs.handleMissing(receiver, name, frame, mode, refinements)
	}

	cs.lock()
	cs.ic.record(class, result.Method)
	cs.unlock()

	return invoke(result.Method, receiver, frame)
}

func invoke(m *rvalue.InternalMethod, receiver rvalue.Value, frame *Frame) (rvalue.Value, error) {
	if m.Body == nil {
		return rvalue.Nil, rerror.NewRuntimeError("method '" + m.Name.String() + "' has no body installed")
	}
	return m.Body(receiver, frame.Positional, frame.Block)
}

func (cs *CallSite) handleMissing(receiver rvalue.Value, name *rvalue.Symbol, frame *Frame, mode Mode, refinements *rclass.RefinementScope) (rvalue.Value, error) {
	if mode.OnMissing == ReturnSentinel {
		return rvalue.Missing, nil
	}
	// method_missing dispatch prepends name-as-symbol and ignores
	// refinements.
	class := cs.engine.classOf(receiver)
	mmArgs := append([]rvalue.Value{rvalue.SymbolValue(name)}, frame.Positional...)
	mmMode := mode
	mmMode.IgnoreRefinements = true
	result := rclass.Lookup(class, cs.engine.MissingSymbol, mmMode.Visibility, refinements, true)
	if result.Method == nil {
		return rvalue.Missing, rerror.NewNoMethodError(receiver, name, frame.Positional)
	}
	mmFrame := &Frame{Self: receiver, Block: frame.Block, Positional: mmArgs}
	out, err := invoke(result.Method, receiver, mmFrame)
	if err != nil {
		return rvalue.Nil, err
	}
	if out.IsMissing() {
		return rvalue.Missing, rerror.NewNoMethodError(receiver, name, frame.Positional)
	}
	return out, nil
}

func (cs *CallSite) dispatchForeign(receiver rvalue.Value, name *rvalue.Symbol, frame *Frame, mode Mode) (rvalue.Value, error) {
	if cs.engine.Foreign == nil {
		return rvalue.Missing, rerror.NewUnsupportedInterop(name.String())
	}
	v, ok, err := cs.engine.Foreign.Call(receiver, name, frame.Positional, frame.Block)
	if err != nil {
		return rvalue.Nil, err
	}
	if !ok {
		return rvalue.Missing, rerror.NewUnsupportedInterop(name.String())
	}
	return v, nil
}

// Stats exposes the underlying inline cache's hit/miss counters and
// state, used by the embedding host to report cache-stats diagnostics.
func (cs *CallSite) Stats() (state CacheState, hits, misses uint64) {
	cs.lock()
	defer cs.unlock()
	h, m := cs.ic.Stats()
	return cs.ic.state, h, m
}
