// Package rerror defines the runtime's error surface: one concrete
// type per error kind, all implementing a common RubyError interface,
// rather than a single generic error with a string tag.
package rerror

import (
	"fmt"

	"rcore/pkg/rvalue"
)

// RubyError is the interface every concrete error below implements.
type RubyError interface {
	error
	Kind() string
	Message() string
	Receiver() rvalue.Value
	Unwrap() error
}

type base struct {
	Msg      string
	Recv     rvalue.Value
	HasRecv  bool
	Cause    error
}

func (b *base) Message() string      { return b.Msg }
func (b *base) Receiver() rvalue.Value { return b.Recv }
func (b *base) Unwrap() error        { return b.Cause }

// NoMethodError carries the receiver, the missing method's name, and
// the arguments the failed call was made with, so a handler can report
// both the missing method and the call it was made with.
type NoMethodError struct {
	base
	Name *rvalue.Symbol
	Args []rvalue.Value
}

func NewNoMethodError(recv rvalue.Value, name *rvalue.Symbol, args []rvalue.Value) *NoMethodError {
	return &NoMethodError{
		base: base{Msg: fmt.Sprintf("undefined method '%s'", name.String()), Recv: recv, HasRecv: true},
		Name: name,
		Args: args,
	}
}

func (e *NoMethodError) Error() string { return "NoMethodError: " + e.Msg }
func (e *NoMethodError) Kind() string  { return "NoMethodError" }

type NameError struct{ base }

func NewNameError(msg string) *NameError { return &NameError{base{Msg: msg}} }
func (e *NameError) Error() string       { return "NameError: " + e.Msg }
func (e *NameError) Kind() string        { return "NameError" }

// ArgumentError carries actual/expected arity for the common
// wrong-number-of-arguments case.
type ArgumentError struct {
	base
	Actual, Expected int
}

func NewArgumentError(msg string) *ArgumentError { return &ArgumentError{base: base{Msg: msg}} }
func NewArityError(actual, expected int) *ArgumentError {
	return &ArgumentError{
		base:     base{Msg: fmt.Sprintf("wrong number of arguments (given %d, expected %d)", actual, expected)},
		Actual:   actual,
		Expected: expected,
	}
}
func (e *ArgumentError) Error() string { return "ArgumentError: " + e.Msg }
func (e *ArgumentError) Kind() string  { return "ArgumentError" }

type TypeError struct{ base }

func NewTypeError(msg string) *TypeError { return &TypeError{base{Msg: msg}} }
func (e *TypeError) Error() string       { return "TypeError: " + e.Msg }
func (e *TypeError) Kind() string        { return "TypeError" }

type RangeError struct{ base }

func NewRangeError(msg string) *RangeError { return &RangeError{base{Msg: msg}} }
func (e *RangeError) Error() string        { return "RangeError: " + e.Msg }
func (e *RangeError) Kind() string         { return "RangeError" }

type IndexError struct{ base }

func NewIndexError(msg string) *IndexError { return &IndexError{base{Msg: msg}} }
func (e *IndexError) Error() string        { return "IndexError: " + e.Msg }
func (e *IndexError) Kind() string         { return "IndexError" }

// FrozenError is raised when a mutation is attempted on a frozen value.
type FrozenError struct {
	base
}

func NewFrozenError(recv rvalue.Value) *FrozenError {
	return &FrozenError{base{Msg: "can't modify frozen object", Recv: recv, HasRecv: true}}
}
func (e *FrozenError) Error() string { return "FrozenError: " + e.Msg }
func (e *FrozenError) Kind() string  { return "FrozenError" }

// RegexpError carries the offending source and the byte position within
// it where compilation failed.
type RegexpError struct {
	base
	Source   string
	Position int
}

func NewRegexpError(msg, source string, pos int) *RegexpError {
	return &RegexpError{base: base{Msg: msg}, Source: source, Position: pos}
}
func (e *RegexpError) Error() string {
	return fmt.Sprintf("RegexpError: %s (in %q at byte %d)", e.Msg, e.Source, e.Position)
}
func (e *RegexpError) Kind() string { return "RegexpError" }

type RuntimeError struct{ base }

func NewRuntimeError(msg string) *RuntimeError { return &RuntimeError{base{Msg: msg}} }
func (e *RuntimeError) Error() string          { return "RuntimeError: " + e.Msg }
func (e *RuntimeError) Kind() string           { return "RuntimeError" }
func (e *RuntimeError) CausedBy(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// UnsupportedInterop is the pseudo NoMethodError raised for foreign
// receivers whose adapter has no matching operation.
type UnsupportedInterop struct {
	base
	Operation string
}

func NewUnsupportedInterop(op string) *UnsupportedInterop {
	return &UnsupportedInterop{base: base{Msg: fmt.Sprintf("no such foreign operation '%s'", op)}, Operation: op}
}
func (e *UnsupportedInterop) Error() string { return "NoMethodError: " + e.Msg }
func (e *UnsupportedInterop) Kind() string  { return "NoMethodError" }
