package runtime

import (
	"bytes"

	"rcore/pkg/config"
	"rcore/pkg/rerror"
	"rcore/pkg/rhash"
	"rcore/pkg/rregexp"
	"rcore/pkg/rvalue"
)

// This file implements the built-in primitive set the bundled Ruby-level
// library calls into: one typed Go function per operation, plus a
// name-keyed table of thin adapters so a host can invoke any of them by
// symbol name through Runtime.Primitive, the same way Send resolves a
// method by name.

// regexpMatchInRegion wraps rregexp.MatchInRegion, returning Nil rather
// than a nil *MatchData so callers see a Ruby-shaped result.
func regexpMatchInRegion(cfg config.Config, re *rregexp.Regexp, str rvalue.Value, from, to int, atStart bool, start int) (rvalue.Value, error) {
	md, err := rregexp.MatchInRegion(cfg, re, str, from, to, atStart, start, nil, nil)
	if err != nil {
		return rvalue.Nil, err
	}
	if md == nil {
		return rvalue.Nil, nil
	}
	return rregexp.MatchDataValue(md), nil
}

// regexpMatchInRegionTregex wraps the fast-path-only entry point: no
// fallback, so an ineligible shape or a lookaround-bearing pattern
// simply reports no match instead of paying for backtracking.
func regexpMatchInRegionTregex(cfg config.Config, re *rregexp.Regexp, str rvalue.Value, from, to int, atStart bool, start int) (rvalue.Value, error) {
	md, err := rregexp.MatchInRegionFastOnly(cfg, re, str, from, to, atStart, start)
	if err != nil {
		return rvalue.Nil, err
	}
	if md == nil {
		return rvalue.Nil, nil
	}
	return rregexp.MatchDataValue(md), nil
}

// matchdataFixupPositions rebases md's group offsets by startPos and
// returns the rebased MatchData boxed as a Value.
func matchdataFixupPositions(mdVal rvalue.Value, startPos int) (rvalue.Value, error) {
	md := rregexp.AsMatchData(mdVal)
	if md == nil {
		return rvalue.Nil, rerror.NewTypeError("matchdata_fixup_positions: not a MatchData")
	}
	return rregexp.MatchDataValue(rregexp.MatchFixupPositions(md, startPos)), nil
}

// matchdataCreate builds a MatchData directly from caller-supplied group
// boundaries, the primitive a compiled fast-path result outside this
// package uses to hand its match back in the engine's own shape.
func matchdataCreate(re *rregexp.Regexp, strDup rvalue.Value, starts, ends []int) (rvalue.Value, error) {
	s := strDup.AsString()
	if s == nil {
		return rvalue.Nil, rerror.NewTypeError("matchdata_create: str_dup is not a string")
	}
	md := rregexp.MatchDataCreate(re, s.Rope(), starts, ends)
	return rregexp.MatchDataValue(md), nil
}

// hashLookupOrDefault looks up key in hash, returning Nil (Ruby's
// Hash#default in its simplest form) when absent.
func hashLookupOrDefault(hashVal, key rvalue.Value) (rvalue.Value, error) {
	h := rhash.AsHash(hashVal)
	if h == nil {
		return rvalue.Nil, rerror.NewTypeError("hash_lookup_or_default: not a Hash")
	}
	return h.LookupOrDefault(key, func(*rhash.Storage, rvalue.Value) rvalue.Value {
		return rvalue.Nil
	})
}

// hashSet stores value under key and reports whether the key was new,
// matching rhash.Storage.Set's own contract. byIdentity is accepted for
// signature parity with this primitive's callers, but the
// identity/content mode is fixed at the Storage's own construction: it
// lives on the Hash object, not per-call.
func hashSet(hashVal, key, value rvalue.Value, byIdentity bool) (bool, error) {
	h := rhash.AsHash(hashVal)
	if h == nil {
		return false, rerror.NewTypeError("hash_set: not a Hash")
	}
	return h.Set(key, value)
}

// hashDelete removes key, returning Nil when absent.
func hashDelete(hashVal, key rvalue.Value) (rvalue.Value, error) {
	h := rhash.AsHash(hashVal)
	if h == nil {
		return rvalue.Nil, rerror.NewTypeError("hash_delete: not a Hash")
	}
	v, ok, err := h.Delete(key)
	if err != nil {
		return rvalue.Nil, err
	}
	if !ok {
		return rvalue.Nil, nil
	}
	return v, nil
}

// stringByteIndex finds needle's first byte offset in src at or after
// start, returning Nil when absent.
func stringByteIndex(src, needle rvalue.Value, start int) (rvalue.Value, error) {
	s := src.AsString()
	n := needle.AsString()
	if s == nil || n == nil {
		return rvalue.Nil, rerror.NewTypeError("string_byte_index: both arguments must be strings")
	}
	haystack := s.Rope().Flatten()
	if start < 0 || start > len(haystack) {
		return rvalue.Nil, rerror.NewIndexError("string_byte_index: start out of range")
	}
	idx := bytes.Index(haystack[start:], n.Rope().Flatten())
	if idx < 0 {
		return rvalue.Nil, nil
	}
	return rvalue.SmallInt(int64(start + idx)), nil
}

// NativeType is the FFI marshalling type code nativefunction_type_size
// switches on. The reference runtime's primitive takes an integer
// RubiniusTypes.TYPE_* code, not a type-name string, so this repo
// follows that rather than inventing its own string vocabulary.
type NativeType int32

const (
	NativeChar NativeType = iota
	NativeUChar
	NativeShort
	NativeUShort
	NativeInt
	NativeUInt
	NativeLong
	NativeULong
	NativeLongLong
	NativeULongLong
	NativeFloat
	NativeDouble
	NativePointer
	NativeString
	NativeStrPtr
	NativeCharArray
	NativeBool
	NativeVoid
	NativeEnum
	NativeVarargs
)

// nativeTypeSizes is the size table nativefunction_type_size exposes,
// ported from the reference runtime's NativeFunctionNodes type-size
// switch: the sizes are platform-fixed FFI marshalling constants, not
// language-specific logic.
var nativeTypeSizes = map[NativeType]int64{
	NativeChar: 1, NativeUChar: 1,
	NativeShort: 2, NativeUShort: 2,
	NativeInt: 4, NativeUInt: 4,
	NativeLong: 8, NativeULong: 8,
	NativeLongLong: 8, NativeULongLong: 8,
	NativeFloat:  4,
	NativeDouble: 8,
	NativePointer: 8, NativeString: 8, NativeStrPtr: 8, NativeCharArray: 8,
}

var nativeTypesWithoutFixedSize = map[NativeType]bool{
	NativeBool: true, NativeVoid: true, NativeEnum: true, NativeVarargs: true,
}

// nativeFunctionTypeSize looks up t's marshalled size, raising for the
// types the reference runtime marshals with dedicated logic rather than
// a fixed byte count.
func nativeFunctionTypeSize(t NativeType) (int64, error) {
	if size, ok := nativeTypeSizes[t]; ok {
		return size, nil
	}
	if nativeTypesWithoutFixedSize[t] {
		return 0, rerror.NewArgumentError("nativefunction_type_size: type has no fixed marshalled size")
	}
	return 0, rerror.NewArgumentError("nativefunction_type_size: unknown type code")
}

// Primitive is the calling convention every built-in operation exposes
// to a host: a fixed list of positional Values in, one Value out. Each
// entry below unpacks args into the typed function above and reboxes
// its result.
type Primitive func(r *Runtime, args []rvalue.Value) (rvalue.Value, error)

func intsFromArray(v rvalue.Value) ([]int, bool) {
	a := v.AsArray()
	if a == nil {
		return nil, false
	}
	elems := a.Elems()
	out := make([]int, len(elems))
	for i, e := range elems {
		out[i] = int(e.AsSmallInt())
	}
	return out, true
}

var primitives = map[string]Primitive{
	"regexp_match_in_region": func(r *Runtime, args []rvalue.Value) (rvalue.Value, error) {
		if len(args) != 6 {
			return rvalue.Nil, rerror.NewArgumentError("regexp_match_in_region: wrong number of arguments")
		}
		re := rregexp.AsRegexp(args[0])
		if re == nil {
			return rvalue.Nil, rerror.NewTypeError("regexp_match_in_region: not a Regexp")
		}
		return regexpMatchInRegion(r.Config, re, args[1],
			int(args[2].AsSmallInt()), int(args[3].AsSmallInt()), args[4].Truthy(), int(args[5].AsSmallInt()))
	},
	"regexp_match_in_region_tregex": func(r *Runtime, args []rvalue.Value) (rvalue.Value, error) {
		if len(args) != 6 {
			return rvalue.Nil, rerror.NewArgumentError("regexp_match_in_region_tregex: wrong number of arguments")
		}
		re := rregexp.AsRegexp(args[0])
		if re == nil {
			return rvalue.Nil, rerror.NewTypeError("regexp_match_in_region_tregex: not a Regexp")
		}
		return regexpMatchInRegionTregex(r.Config, re, args[1],
			int(args[2].AsSmallInt()), int(args[3].AsSmallInt()), args[4].Truthy(), int(args[5].AsSmallInt()))
	},
	"matchdata_fixup_positions": func(r *Runtime, args []rvalue.Value) (rvalue.Value, error) {
		if len(args) != 2 {
			return rvalue.Nil, rerror.NewArgumentError("matchdata_fixup_positions: wrong number of arguments")
		}
		return matchdataFixupPositions(args[0], int(args[1].AsSmallInt()))
	},
	"matchdata_create": func(r *Runtime, args []rvalue.Value) (rvalue.Value, error) {
		if len(args) != 4 {
			return rvalue.Nil, rerror.NewArgumentError("matchdata_create: wrong number of arguments")
		}
		re := rregexp.AsRegexp(args[0])
		if re == nil {
			return rvalue.Nil, rerror.NewTypeError("matchdata_create: not a Regexp")
		}
		starts, ok := intsFromArray(args[2])
		if !ok {
			return rvalue.Nil, rerror.NewTypeError("matchdata_create: starts must be an Array")
		}
		ends, ok := intsFromArray(args[3])
		if !ok {
			return rvalue.Nil, rerror.NewTypeError("matchdata_create: ends must be an Array")
		}
		return matchdataCreate(re, args[1], starts, ends)
	},
	"hash_lookup_or_default": func(r *Runtime, args []rvalue.Value) (rvalue.Value, error) {
		if len(args) != 2 {
			return rvalue.Nil, rerror.NewArgumentError("hash_lookup_or_default: wrong number of arguments")
		}
		return hashLookupOrDefault(args[0], args[1])
	},
	"hash_set": func(r *Runtime, args []rvalue.Value) (rvalue.Value, error) {
		if len(args) != 4 {
			return rvalue.Nil, rerror.NewArgumentError("hash_set: wrong number of arguments")
		}
		created, err := hashSet(args[0], args[1], args[2], args[3].Truthy())
		if err != nil {
			return rvalue.Nil, err
		}
		return rvalue.Bool(created), nil
	},
	"hash_delete": func(r *Runtime, args []rvalue.Value) (rvalue.Value, error) {
		if len(args) != 2 {
			return rvalue.Nil, rerror.NewArgumentError("hash_delete: wrong number of arguments")
		}
		return hashDelete(args[0], args[1])
	},
	"string_byte_index": func(r *Runtime, args []rvalue.Value) (rvalue.Value, error) {
		if len(args) != 3 {
			return rvalue.Nil, rerror.NewArgumentError("string_byte_index: wrong number of arguments")
		}
		return stringByteIndex(args[0], args[1], int(args[2].AsSmallInt()))
	},
	"nativefunction_type_size": func(r *Runtime, args []rvalue.Value) (rvalue.Value, error) {
		if len(args) != 1 {
			return rvalue.Nil, rerror.NewArgumentError("nativefunction_type_size: wrong number of arguments")
		}
		size, err := nativeFunctionTypeSize(NativeType(args[0].AsSmallInt()))
		if err != nil {
			return rvalue.Nil, err
		}
		return rvalue.SmallInt(size), nil
	},
}

// Primitive invokes the built-in operation registered under name,
// the entry point an embedding host (or a bundled Ruby-level method
// body) uses to reach the operations in this file.
func (r *Runtime) Primitive(name string, args []rvalue.Value) (rvalue.Value, error) {
	fn, ok := primitives[name]
	if !ok {
		return rvalue.Nil, rerror.NewNameError("undefined primitive '" + name + "'")
	}
	return fn(r, args)
}
