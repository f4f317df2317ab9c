package runtime

import (
	"hash/fnv"
	"math"

	"rcore/pkg/dispatch"
	"rcore/pkg/rerror"
	"rcore/pkg/rvalue"
)

// DefaultHasher implements rhash.HashCoder and rhash.Equality: the
// value-kinded hashing and equality collaborators the hash engine needs.
// Built-in kinds get a direct specialization; a generic object falls
// back to dispatching the receiver's own `hash` method and casting the
// result to a 32-bit signed integer.
type DefaultHasher struct {
	Engine   *dispatch.Engine
	HashSite *dispatch.CallSite
	EqlSite  *dispatch.CallSite
	HashName *rvalue.Symbol
	EqlName  *rvalue.Symbol
}

func NewDefaultHasher(engine *dispatch.Engine) *DefaultHasher {
	return &DefaultHasher{
		Engine:   engine,
		HashSite: dispatch.NewCallSite(engine),
		EqlSite:  dispatch.NewCallSite(engine),
		HashName: symOf("hash"),
		EqlName:  symOf("eql?"),
	}
}

func symOf(s string) *rvalue.Symbol {
	return rvalue.Sym(rvalue.NewLeafRope([]byte(s), rvalue.UTF8), rvalue.UTF8)
}

// Hash computes a 32-bit hash code for v. In identity mode, the code is
// derived from v's own identity (pointer/tag bits) rather than content.
func (d *DefaultHasher) Hash(v rvalue.Value, byIdentity bool) (int32, error) {
	if byIdentity {
		return identityHash(v), nil
	}
	switch v.Kind() {
	case rvalue.KindNil:
		return 0, nil
	case rvalue.KindBool:
		if v.AsBool() {
			return 1, nil
		}
		return 0, nil
	case rvalue.KindSmallInt, rvalue.KindLongInt:
		return int32(v.AsSmallInt()), nil
	case rvalue.KindBigInt:
		return hashBytes([]byte(v.AsBigInt().String())), nil
	case rvalue.KindFloat:
		bits := math.Float64bits(v.AsFloat())
		return int32(bits ^ (bits >> 32)), nil
	case rvalue.KindSymbol:
		return hashBytes(v.AsSymbol().Rope().Flatten()), nil
	case rvalue.KindImmutableString, rvalue.KindMutableString:
		return hashBytes(v.AsString().Rope().Flatten()), nil
	default:
		return d.hashViaDispatch(v)
	}
}

func (d *DefaultHasher) hashViaDispatch(v rvalue.Value) (int32, error) {
	frame := dispatch.Call0(v, nil)
	out, err := d.HashSite.Dispatch(v, d.HashName, frame, dispatch.Public(), nil)
	if err != nil {
		return 0, err
	}
	if out.Kind() != rvalue.KindSmallInt && out.Kind() != rvalue.KindLongInt {
		return 0, rerror.NewTypeError("hash: user-defined hash method did not return an Integer")
	}
	return int32(out.AsSmallInt()), nil
}

// Eql implements the user-visible eql? semantics: same hash code and
// same-type equality, dispatched through the receiver's own `eql?` for
// generic objects and computed directly for built-in scalar kinds.
func (d *DefaultHasher) Eql(a, b rvalue.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case rvalue.KindNil, rvalue.KindMissing:
		return true
	case rvalue.KindBool, rvalue.KindSmallInt, rvalue.KindLongInt:
		return a.AsSmallInt() == b.AsSmallInt()
	case rvalue.KindFloat:
		return a.AsFloat() == b.AsFloat()
	case rvalue.KindSymbol:
		return a.AsSymbol() == b.AsSymbol()
	case rvalue.KindImmutableString, rvalue.KindMutableString:
		return string(a.AsString().Rope().Flatten()) == string(b.AsString().Rope().Flatten())
	default:
		frame := dispatch.Call1(a, b, nil)
		out, err := d.EqlSite.Dispatch(a, d.EqlName, frame, dispatch.Public(), nil)
		if err != nil {
			return false
		}
		return out.Truthy()
	}
}

func (d *DefaultHasher) ReferenceEqual(a, b rvalue.Value) bool {
	return rvalue.ReferenceEqual(a, b)
}

// FreezeKey implements rhash.Freezer, freezing a mutable-string key to
// its canonical immutable form on insert.
func (d *DefaultHasher) FreezeKey(v rvalue.Value) rvalue.Value {
	s := v.AsString()
	if s == nil || v.Kind() != rvalue.KindMutableString {
		return v
	}
	canonical := rvalue.Freeze(s.Rope(), s.Rope().Encoding())
	return rvalue.NewImmutableString(canonical)
}

func hashBytes(b []byte) int32 {
	h := fnv.New32a()
	h.Write(b)
	return int32(h.Sum32())
}

// identityHash derives a stable code from a value's own bit pattern
// rather than its content: scalars hash their inline bits, reference
// kinds hash their heap pointer's address.
func identityHash(v rvalue.Value) int32 {
	switch v.Kind() {
	case rvalue.KindNil, rvalue.KindMissing:
		return 0
	case rvalue.KindBool, rvalue.KindSmallInt, rvalue.KindLongInt:
		n := v.AsSmallInt()
		return int32(n ^ (n >> 32))
	case rvalue.KindFloat:
		bits := math.Float64bits(v.AsFloat())
		return int32(bits ^ (bits >> 32))
	default:
		addr := uintptr(v.Ptr())
		return int32(addr ^ (addr >> 32))
	}
}
