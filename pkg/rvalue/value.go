// Package rvalue implements the value and class model shared by the
// dispatch, hash, and regexp engines: tagged Values, the Class/Module
// method-table structure, ropes, encodings, and the process-wide
// interning tables, kept in one package rather than splitting Value
// from Object across packages.
package rvalue

import (
	"math/big"
	"unsafe"
)

// Kind is the tag of a Value's sum type.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindSmallInt
	KindLongInt
	KindBigInt
	KindFloat
	KindSymbol
	KindImmutableString
	KindMutableString
	KindArray
	KindHash
	KindRegexp
	KindMatchData
	KindMethodProc
	KindClass
	KindModule
	KindObject // generic instance
	KindMissing
	KindForeign // a value carrying no Ruby class (interop boundary)
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindSmallInt:
		return "small_int"
	case KindLongInt:
		return "long_int"
	case KindBigInt:
		return "big_int"
	case KindFloat:
		return "float"
	case KindSymbol:
		return "symbol"
	case KindImmutableString:
		return "immutable_string"
	case KindMutableString:
		return "mutable_string"
	case KindArray:
		return "array"
	case KindHash:
		return "hash"
	case KindRegexp:
		return "regexp"
	case KindMatchData:
		return "match_data"
	case KindMethodProc:
		return "method_proc"
	case KindClass:
		return "class"
	case KindModule:
		return "module"
	case KindObject:
		return "object"
	case KindMissing:
		return "missing"
	case KindForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// Value is a tagged union over every kind the runtime's data model
// needs. Scalar kinds (nil, bool, small int, float) are stored inline;
// every other kind carries an unsafe.Pointer to a heap object owned by
// that kind's package (StringObject, *Array, *Hash, *Class, ...), an
// explicit Kind byte rather than NaN-boxing since this targets clarity
// over a register-passing VM's hot path.
type Value struct {
	kind  Kind
	small int64   // small int / bool (0 or 1)
	float float64 // float payload
	obj   unsafe.Pointer
}

var Nil = Value{kind: KindNil}
var Missing = Value{kind: KindMissing}

func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.small = 1
	}
	return v
}

func SmallInt(i int64) Value { return Value{kind: KindSmallInt, small: i} }
func Float(f float64) Value  { return Value{kind: KindFloat, float: f} }

func BigInt(b *big.Int) Value {
	return Value{kind: KindBigInt, obj: unsafe.Pointer(b)}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNil() bool  { return v.kind == KindNil }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

func (v Value) AsBool() bool     { return v.small != 0 }
func (v Value) AsSmallInt() int64 { return v.small }
func (v Value) AsFloat() float64 { return v.float }
func (v Value) AsBigInt() *big.Int {
	return (*big.Int)(v.obj)
}

// Truthy implements Ruby's truthiness: everything is truthy except nil
// and false.
func (v Value) Truthy() bool {
	if v.kind == KindNil {
		return false
	}
	if v.kind == KindBool {
		return v.AsBool()
	}
	return true
}

// StringObject backs both immutable and mutable string values; the
// distinction is the Frozen flag plus which Kind the Value carries.
type StringObject struct {
	rope   *Rope
	frozen bool
}

func NewImmutableString(r *Rope) Value {
	return Value{kind: KindImmutableString, obj: unsafe.Pointer(&StringObject{rope: r, frozen: true})}
}

func NewMutableString(r *Rope) Value {
	return Value{kind: KindMutableString, obj: unsafe.Pointer(&StringObject{rope: r, frozen: false})}
}

func (v Value) AsString() *StringObject {
	if v.kind != KindImmutableString && v.kind != KindMutableString {
		return nil
	}
	return (*StringObject)(v.obj)
}

func (s *StringObject) Rope() *Rope   { return s.rope }
func (s *StringObject) Frozen() bool  { return s.frozen }
func (s *StringObject) ByteLength() int { return s.rope.ByteLength() }

// ArrayObject backs Array values: a flat, mutable slice of elements.
// Kept in this package (unlike Hash/Regexp/MatchData, which are owned by
// their own packages and boxed through NewOpaque) since an array has no
// collaborators of its own to inject.
type ArrayObject struct {
	elems []Value
}

func NewArray(elems []Value) Value {
	return Value{kind: KindArray, obj: unsafe.Pointer(&ArrayObject{elems: elems})}
}

func (v Value) AsArray() *ArrayObject {
	if v.kind != KindArray {
		return nil
	}
	return (*ArrayObject)(v.obj)
}

func (a *ArrayObject) Elems() []Value { return a.elems }
func (a *ArrayObject) Len() int       { return len(a.elems) }

// SymbolValue wraps an interned *Symbol as a Value.
func SymbolValue(s *Symbol) Value {
	return Value{kind: KindSymbol, obj: unsafe.Pointer(s)}
}

func (v Value) AsSymbol() *Symbol {
	if v.kind != KindSymbol {
		return nil
	}
	return (*Symbol)(v.obj)
}

// ReferenceEqual implements pointer identity for reference values and
// value equality for primitives.
func ReferenceEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil, KindMissing:
		return true
	case KindBool, KindSmallInt, KindLongInt:
		return a.small == b.small
	case KindFloat:
		return a.float == b.float
	default:
		return a.obj == b.obj
	}
}

// ByteLength returns the byte length of a string-kinded value, or -1 if
// v is not a string. Used by the regexp façade's shape checks.
func (v Value) ByteLength() int {
	if s := v.AsString(); s != nil {
		return s.ByteLength()
	}
	return -1
}

// NewOpaque and Ptr let sibling packages (rregexp, rhash's Hash wrapper,
// interop) mint and unwrap Values for the reference-kinded tags this
// package declares but does not itself implement the payload type for
// (KindRegexp, KindMatchData, KindHash, KindForeign) — Go gives no way to
// attach methods to Value from another package, so those packages export
// free functions (rregexp.AsRegexp(v), ...) built on top of these two.
func NewOpaque(kind Kind, ptr unsafe.Pointer) Value {
	return Value{kind: kind, obj: ptr}
}

func (v Value) Ptr() unsafe.Pointer { return v.obj }
