package dispatch

import "rcore/pkg/rvalue"

// ForceInline decides whether a call site must inline target rather
// than dispatch through the cache. rcore has no JIT of its own, so this
// predicate is not consulted by any hot-path compiler here — it is
// exposed as the stable decision function a future bytecode compiler
// would call. The hints it reads are metadata on internal methods, not
// something a Ruby program can express directly.
func ForceInline(target *rvalue.InternalMethod, callerNeedsOwnFrame bool, alwaysInlineMissing bool, missingSymbol *rvalue.Symbol) bool {
	if callerNeedsOwnFrame {
		return true
	}
	if target.Name == missingSymbol && alwaysInlineMissing {
		return true
	}
	return false
}

// ShouldCloneTarget reports whether the dispatch inliner should request
// a fresh clone of target's compiled body rather than sharing one
// instance across call sites — true when the method itself requests an
// always-clone-on-inline, or when it is method_missing and the
// always-clone knob is set.
func ShouldCloneTarget(target *rvalue.InternalMethod, alwaysCloneMissing bool, missingSymbol *rvalue.Symbol) bool {
	if target.AlwaysCloneOnInline {
		return true
	}
	return target.Name == missingSymbol && alwaysCloneMissing
}
