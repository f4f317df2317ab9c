// Package rclass implements method resolution over rvalue's Class/Module
// model: linearization order, visibility filtering, and refinement
// activation. Lookup walks a class's method table the way a
// prototype-chain Get walks a JS object's prototype chain, generalized
// to Ruby's class+included-modules+superclass linearization.
package rclass

import "rcore/pkg/rvalue"

// VisibilityMode says which method visibilities a particular call site
// may legally resolve to. Built with the ForXxx constructors below
// rather than exported as raw bools, so call sites read as intent
// ("implicit self call") rather than a bag of booleans.
type VisibilityMode struct {
	allowPrivate   bool
	allowProtected bool
	// protectedContext is the class the protected check is evaluated
	// against: the caller's self must be an instance of it (or a
	// descendant) for a protected method to be legal.
	protectedContext *rvalue.Class
}

// ForImplicitSelf is used when the call site has no explicit receiver
// (a bare `foo(1,2)` inside a method body): private methods are legal.
func ForImplicitSelf() VisibilityMode {
	return VisibilityMode{allowPrivate: true, allowProtected: true}
}

// ForExplicitReceiver is used when the call site names a receiver
// (`obj.foo`): private methods are never legal; protected methods are
// legal only when callerSelfClass descends from the defining module.
func ForExplicitReceiver(callerSelfClass *rvalue.Class) VisibilityMode {
	return VisibilityMode{allowProtected: true, protectedContext: callerSelfClass}
}

// ForPublicOnly disallows both private and protected — used by the
// embedding API's public `send`.
func ForPublicOnly() VisibilityMode {
	return VisibilityMode{}
}

// ForceAny allows every visibility, bypassing checks entirely — used by
// Ruby's `send`/`__send__` (as opposed to `public_send`).
func ForceAny() VisibilityMode {
	return VisibilityMode{allowPrivate: true, allowProtected: true, protectedContext: nil}
}

func (m VisibilityMode) legal(method *rvalue.InternalMethod) bool {
	switch method.Visibility {
	case rvalue.Public, rvalue.ModuleFunction:
		return true
	case rvalue.Private:
		return m.allowPrivate
	case rvalue.Protected:
		if !m.allowProtected {
			return false
		}
		if m.protectedContext == nil {
			return true
		}
		return descendsFrom(m.protectedContext, method.Declaring)
	default:
		return false
	}
}

func descendsFrom(c, ancestor *rvalue.Class) bool {
	for cur := c; cur != nil; cur = cur.Superclass {
		if cur == ancestor {
			return true
		}
		for _, inc := range cur.Includes {
			if inc == ancestor {
				return true
			}
		}
	}
	return false
}

// RefinementScope is a call-site-local, additional search scope that is
// consulted ahead of the ordinary linearization when active. Refinement
// activation ("using") is lexical, not global: a RefinementScope is
// built once per call site by the (external) compiler and passed
// explicitly into Lookup, never stored on the receiver's class, so
// activation never leaks across call-site boundaries — matching
// TruffleRuby's refinement model of scoping activation to the lexical
// region rather than the whole program.
type RefinementScope struct {
	// modules maps a refined class to the refinement module active in
	// this scope, searched before that class's own table.
	modules map[*rvalue.Class]*rvalue.Class
}

func NewRefinementScope() *RefinementScope {
	return &RefinementScope{modules: make(map[*rvalue.Class]*rvalue.Class)}
}

func (s *RefinementScope) Activate(refined, refinement *rvalue.Class) {
	s.modules[refined] = refinement
}

// Result is what Lookup returns: either a resolved method, or Missing.
type Result struct {
	Method *rvalue.InternalMethod
	Class  *rvalue.Class // the class actually found the method (for protected checks by callers)
}

var Missing = Result{}

// Lookup walks receiver class C's linearization (refinements, if
// refinements is non-nil and applicable; then C itself; then C's
// included modules, most-recently-included first; then the superclass,
// recursively) and returns the first method table entry named name. An
// Undefined entry, or one that fails mode's visibility check, resolves
// to Missing.
//
// ignoreRefinements should be true for method_missing dispatch: it
// always ignores active refinements.
func Lookup(c *rvalue.Class, name *rvalue.Symbol, mode VisibilityMode, refinements *RefinementScope, ignoreRefinements bool) Result {
	if !ignoreRefinements && refinements != nil {
		if refined, ok := refinements.modules[c]; ok {
			if m := refined.OwnMethod(name); m != nil {
				if m.Undefined {
					return Missing
				}
				if !mode.legal(m) {
					return Missing
				}
				return Result{Method: m, Class: refined}
			}
		}
	}
	for cur := c; cur != nil; cur = cur.Superclass {
		if m := cur.OwnMethod(name); m != nil {
			if m.Undefined {
				return Missing
			}
			if !mode.legal(m) {
				return Missing
			}
			return Result{Method: m, Class: cur}
		}
		for i := len(cur.Includes) - 1; i >= 0; i-- {
			inc := cur.Includes[i]
			if m := inc.OwnMethod(name); m != nil {
				if m.Undefined {
					return Missing
				}
				if !mode.legal(m) {
					return Missing
				}
				return Result{Method: m, Class: inc}
			}
		}
	}
	return Missing
}
