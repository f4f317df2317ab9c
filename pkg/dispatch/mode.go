package dispatch

import (
	"rcore/pkg/rclass"
	"rcore/pkg/rvalue"
)

// MissingPolicy selects what a Dispatch call does when method lookup
// fails to resolve.
type MissingPolicy uint8

const (
	// ReturnSentinel returns rvalue.Missing to the caller untouched;
	// used by internals performing tentative dispatch (e.g. checking
	// whether a coercion method exists before calling it).
	ReturnSentinel MissingPolicy = iota
	// InvokeMissing recursively dispatches method_missing.
	InvokeMissing
)

// Mode bundles a lookup VisibilityMode with a MissingPolicy, together
// fully describing how a single dispatch call should resolve.
type Mode struct {
	Visibility rclass.VisibilityMode
	OnMissing  MissingPolicy
	// IgnoreRefinements forces this dispatch to skip any active
	// refinement scope, as method_missing dispatch always must.
	IgnoreRefinements bool
}

// Public is the mode used by the embedding API's `send`: public-only
// visibility; a missing method is routed through method_missing, which
// raises NoMethodError when the receiver does not define it.
func Public() Mode {
	return Mode{Visibility: rclass.ForPublicOnly(), OnMissing: InvokeMissing}
}

// ImplicitSelf is the mode for a bare call inside a method body.
func ImplicitSelf() Mode {
	return Mode{Visibility: rclass.ForImplicitSelf(), OnMissing: InvokeMissing}
}

// ExplicitReceiver is the mode for `recv.foo` from a caller whose self
// is an instance of callerSelfClass.
func ExplicitReceiver(callerSelfClass *rvalue.Class) Mode {
	return Mode{Visibility: rclass.ForExplicitReceiver(callerSelfClass), OnMissing: InvokeMissing}
}

// Tentative returns MISSING instead of raising, used by internals that
// probe for a method's existence (e.g. `respond_to?`-style checks).
func Tentative(v rclass.VisibilityMode) Mode {
	return Mode{Visibility: v, OnMissing: ReturnSentinel}
}
