package runtime

import (
	"testing"

	"rcore/pkg/config"
	"rcore/pkg/rhash"
	"rcore/pkg/rregexp"
	"rcore/pkg/rvalue"
)

func str(s string) rvalue.Value {
	return rvalue.NewImmutableString(rvalue.NewLeafRope([]byte(s), rvalue.UTF8))
}

func newTestRuntime() *Runtime {
	return New(config.Default())
}

func TestPrimitiveUnknownName(t *testing.T) {
	r := newTestRuntime()
	if _, err := r.Primitive("no_such_primitive", nil); err == nil {
		t.Fatal("expected an error for an unregistered primitive name")
	}
}

func TestHashSetLookupDeletePrimitives(t *testing.T) {
	r := newTestRuntime()
	storage := rhash.New(r.Config, r.Hasher, r.Hasher, r.Hasher, false)
	hashVal := rhash.HashValue(storage)
	key := rvalue.SymbolValue(symOf("size"))
	val := rvalue.SmallInt(42)

	created, err := r.Primitive("hash_set", []rvalue.Value{hashVal, key, val, rvalue.Bool(false)})
	if err != nil {
		t.Fatalf("hash_set: %v", err)
	}
	if !created.AsBool() {
		t.Fatal("hash_set: expected a fresh key to report created=true")
	}

	got, err := r.Primitive("hash_lookup_or_default", []rvalue.Value{hashVal, key})
	if err != nil {
		t.Fatalf("hash_lookup_or_default: %v", err)
	}
	if got.AsSmallInt() != 42 {
		t.Fatalf("hash_lookup_or_default: got %v, want 42", got.AsSmallInt())
	}

	missing, err := r.Primitive("hash_lookup_or_default", []rvalue.Value{hashVal, rvalue.SymbolValue(symOf("absent"))})
	if err != nil {
		t.Fatalf("hash_lookup_or_default (absent): %v", err)
	}
	if !missing.IsNil() {
		t.Fatalf("hash_lookup_or_default (absent): want Nil, got %v", missing.Kind())
	}

	deleted, err := r.Primitive("hash_delete", []rvalue.Value{hashVal, key})
	if err != nil {
		t.Fatalf("hash_delete: %v", err)
	}
	if deleted.AsSmallInt() != 42 {
		t.Fatalf("hash_delete: got %v, want the removed value 42", deleted.AsSmallInt())
	}
	if storage.Size() != 0 {
		t.Fatalf("hash_delete: storage size = %d, want 0", storage.Size())
	}
}

func TestStringByteIndexPrimitive(t *testing.T) {
	r := newTestRuntime()
	found, err := r.Primitive("string_byte_index", []rvalue.Value{str("hello world"), str("world"), rvalue.SmallInt(0)})
	if err != nil {
		t.Fatalf("string_byte_index: %v", err)
	}
	if found.AsSmallInt() != 6 {
		t.Fatalf("string_byte_index: got %v, want 6", found.AsSmallInt())
	}

	notFound, err := r.Primitive("string_byte_index", []rvalue.Value{str("hello"), str("xyz"), rvalue.SmallInt(0)})
	if err != nil {
		t.Fatalf("string_byte_index (absent): %v", err)
	}
	if !notFound.IsNil() {
		t.Fatalf("string_byte_index (absent): want Nil, got %v", notFound.Kind())
	}
}

func TestNativeFunctionTypeSizePrimitive(t *testing.T) {
	r := newTestRuntime()
	cases := []struct {
		code NativeType
		size int64
	}{
		{NativeChar, 1}, {NativeShort, 2}, {NativeInt, 4},
		{NativeLongLong, 8}, {NativeDouble, 8}, {NativePointer, 8},
	}
	for _, c := range cases {
		got, err := r.Primitive("nativefunction_type_size", []rvalue.Value{rvalue.SmallInt(int64(c.code))})
		if err != nil {
			t.Fatalf("type %d: unexpected error: %v", c.code, err)
		}
		if got.AsSmallInt() != c.size {
			t.Fatalf("type %d: got %d, want %d", c.code, got.AsSmallInt(), c.size)
		}
	}

	if _, err := r.Primitive("nativefunction_type_size", []rvalue.Value{rvalue.SmallInt(int64(NativeBool))}); err == nil {
		t.Fatal("expected bool's type code to raise")
	}
	if _, err := r.Primitive("nativefunction_type_size", []rvalue.Value{rvalue.SmallInt(999)}); err == nil {
		t.Fatal("expected an unknown type code to raise")
	}
}

func TestRegexpMatchInRegionAndMatchdataPrimitives(t *testing.T) {
	r := newTestRuntime()
	re, err := rregexp.Compile(rvalue.NewLeafRope([]byte(`(\w+)@(\w+)`), rvalue.UTF8), rregexp.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	reVal := rregexp.RegexpValue(re)
	subject := str("user@host")

	mdVal, err := r.Primitive("regexp_match_in_region", []rvalue.Value{
		reVal, subject, rvalue.SmallInt(0), rvalue.SmallInt(int64(len("user@host"))), rvalue.Bool(false), rvalue.SmallInt(0),
	})
	if err != nil {
		t.Fatalf("regexp_match_in_region: %v", err)
	}
	md := rregexp.AsMatchData(mdVal)
	if md == nil {
		t.Fatal("regexp_match_in_region: expected a MatchData, got no match")
	}
	if s, e := md.Group(0); s != 0 || e != len("user@host") {
		t.Fatalf("group 0 = [%d,%d), want the whole subject", s, e)
	}

	rebased, err := r.Primitive("matchdata_fixup_positions", []rvalue.Value{mdVal, rvalue.SmallInt(10)})
	if err != nil {
		t.Fatalf("matchdata_fixup_positions: %v", err)
	}
	rmd := rregexp.AsMatchData(rebased)
	if s, e := rmd.Group(0); s != 10 || e != 10+len("user@host") {
		t.Fatalf("rebased group 0 = [%d,%d), want offset by 10", s, e)
	}

	starts := rvalue.NewArray([]rvalue.Value{rvalue.SmallInt(0), rvalue.SmallInt(0)})
	ends := rvalue.NewArray([]rvalue.Value{rvalue.SmallInt(4), rvalue.SmallInt(4)})
	created, err := r.Primitive("matchdata_create", []rvalue.Value{reVal, subject, starts, ends})
	if err != nil {
		t.Fatalf("matchdata_create: %v", err)
	}
	cmd := rregexp.AsMatchData(created)
	if s, e := cmd.Group(0); s != 0 || e != 4 {
		t.Fatalf("matchdata_create group 0 = [%d,%d), want [0,4)", s, e)
	}
}
