package dispatch

import (
	"rcore/pkg/rerror"
	"rcore/pkg/rvalue"
)

// SymbolProc builds the value produced by treating a symbol :m as a
// block: it takes its first positional argument as receiver and
// dispatches m with the remainder, forwarding the outer block. It owns
// one CallSite reused across invocations, initialized to public
// visibility so every call to the resulting proc caches independently
// of whatever call site converted the symbol.
func SymbolProc(engine *Engine, name *rvalue.Symbol) *rvalue.Proc {
	site := NewCallSite(engine)
	return &rvalue.Proc{
		Call: func(args []rvalue.Value, block *rvalue.Proc) (rvalue.Value, error) {
			if len(args) == 0 {
				return rvalue.Nil, rerror.NewArgumentError("symbol#to_proc requires a receiver argument")
			}
			receiver := args[0]
			frame := CallSplat(receiver, args[1:], block)
			return site.Dispatch(receiver, name, frame, Public(), nil)
		},
	}
}
