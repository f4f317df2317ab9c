package rhash

import (
	"testing"

	"rcore/pkg/config"
	"rcore/pkg/rvalue"
)

// identityHasher is a minimal HashCoder/Equality/Freezer good enough for
// symbol- and small-int-keyed hashes, which is all these tests need.
type identityHasher struct{}

func (identityHasher) Hash(v rvalue.Value, byIdentity bool) (int32, error) {
	switch v.Kind() {
	case rvalue.KindSmallInt:
		return int32(v.AsSmallInt()), nil
	case rvalue.KindSymbol:
		s := v.AsSymbol().String()
		var h int32
		for _, c := range s {
			h = h*31 + int32(c)
		}
		return h, nil
	default:
		return 0, nil
	}
}

func (identityHasher) Eql(a, b rvalue.Value) bool          { return rvalue.ReferenceEqual(a, b) }
func (identityHasher) ReferenceEqual(a, b rvalue.Value) bool { return rvalue.ReferenceEqual(a, b) }
func (identityHasher) FreezeKey(v rvalue.Value) rvalue.Value { return v }

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	h := identityHasher{}
	return New(config.Default(), h, h, h, false)
}

func sym(s string) rvalue.Value {
	return rvalue.SymbolValue(rvalue.Sym(rvalue.NewLeafRope([]byte(s), rvalue.UTF8), rvalue.UTF8))
}

func TestOrderedMapContract(t *testing.T) {
	s := newTestStorage(t)
	a, b, c := sym("a"), sym("b"), sym("c")

	mustSet(t, s, a, rvalue.SmallInt(1))
	mustSet(t, s, b, rvalue.SmallInt(2))
	mustSet(t, s, c, rvalue.SmallInt(3))
	wasNew, err := s.Set(a, rvalue.SmallInt(4))
	if err != nil {
		t.Fatal(err)
	}
	if wasNew {
		t.Fatal("updating an existing key should report wasNew=false")
	}

	got := collect(s)
	want := []int64{4, 2, 3}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("entry %d: got %d want %d", i, got[i], w)
		}
	}

	if _, ok, _ := s.Delete(b); !ok {
		t.Fatal("expected delete of b to succeed")
	}
	got = collect(s)
	if len(got) != 2 || got[0] != 4 || got[1] != 3 {
		t.Fatalf("after delete: got %v", got)
	}
}

func TestPackedToBucketedTransition(t *testing.T) {
	s := newTestStorage(t)
	a, b, c, d := sym("a"), sym("b"), sym("c"), sym("d")
	mustSet(t, s, a, rvalue.SmallInt(1))
	mustSet(t, s, b, rvalue.SmallInt(2))
	mustSet(t, s, c, rvalue.SmallInt(3))
	if s.Representation() != "packed" {
		t.Fatalf("expected packed representation at size 3, got %s", s.Representation())
	}
	mustSet(t, s, d, rvalue.SmallInt(4))
	if s.Representation() != "bucketed" {
		t.Fatalf("expected bucketed representation at size 4, got %s", s.Representation())
	}
	v, ok, err := s.get(a)
	if err != nil || !ok || v.AsSmallInt() != 1 {
		t.Fatalf("lookup of a after transition: v=%v ok=%v err=%v", v, ok, err)
	}
	if err := s.checkInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestRepresentationInvariant(t *testing.T) {
	s := newTestStorage(t)
	if s.Representation() != "null" {
		t.Fatalf("empty storage should be null, got %s", s.Representation())
	}
	for i := 0; i < 20; i++ {
		mustSet(t, s, rvalue.SmallInt(int64(i)), rvalue.SmallInt(int64(i*i)))
		switch {
		case s.Size() == 0 && s.Representation() != "null":
			t.Fatalf("size 0 must be null")
		case s.Size() >= 1 && s.Size() <= 3 && s.Representation() != "packed":
			t.Fatalf("size %d must be packed, got %s", s.Size(), s.Representation())
		case s.Size() > 3 && s.Representation() != "bucketed":
			t.Fatalf("size %d must be bucketed, got %s", s.Size(), s.Representation())
		}
		if err := s.checkInvariants(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDeleteLastTailMismatch(t *testing.T) {
	s := newTestStorage(t)
	mustSet(t, s, sym("a"), rvalue.SmallInt(1))
	mustSet(t, s, sym("b"), rvalue.SmallInt(2))
	if _, err := s.DeleteLast(sym("a")); err != ErrTailMismatch {
		t.Fatalf("expected ErrTailMismatch, got %v", err)
	}
	v, err := s.DeleteLast(sym("b"))
	if err != nil || v.AsSmallInt() != 2 {
		t.Fatalf("expected DeleteLast(b) to succeed with value 2, got %v %v", v, err)
	}
}

func TestShift(t *testing.T) {
	s := newTestStorage(t)
	mustSet(t, s, sym("a"), rvalue.SmallInt(1))
	mustSet(t, s, sym("b"), rvalue.SmallInt(2))
	k, v, ok, err := s.Shift()
	if err != nil || !ok || v.AsSmallInt() != 1 {
		t.Fatalf("shift: k=%v v=%v ok=%v err=%v", k, v, ok, err)
	}
	if s.Size() != 1 {
		t.Fatalf("expected size 1 after shift, got %d", s.Size())
	}
}

// contentStringHasher hashes and compares mutable string keys by their
// current byte content, the collaborator shape needed to reproduce the
// scenario Hash#rehash exists for: a key whose bytes change in place
// after insertion, going stale in whatever bucket its old hash put it in.
type contentStringHasher struct{}

func (contentStringHasher) Hash(v rvalue.Value, byIdentity bool) (int32, error) {
	s := v.AsString()
	if s == nil {
		return 0, nil
	}
	var h int32
	for _, b := range s.Rope().Flatten() {
		h = h*31 + int32(b)
	}
	return h, nil
}

func (contentStringHasher) Eql(a, b rvalue.Value) bool {
	sa, sb := a.AsString(), b.AsString()
	if sa == nil || sb == nil {
		return rvalue.ReferenceEqual(a, b)
	}
	return string(sa.Rope().Flatten()) == string(sb.Rope().Flatten())
}
func (contentStringHasher) ReferenceEqual(a, b rvalue.Value) bool { return rvalue.ReferenceEqual(a, b) }
func (contentStringHasher) FreezeKey(v rvalue.Value) rvalue.Value { return v }

func TestRehashDropsLaterDuplicate(t *testing.T) {
	h := contentStringHasher{}
	s := New(config.Default(), h, h, h, false)

	bufA := []byte("foo")
	bufB := []byte("bar")
	keyA := rvalue.NewMutableString(rvalue.NewLeafRope(bufA, rvalue.UTF8))
	keyB := rvalue.NewMutableString(rvalue.NewLeafRope(bufB, rvalue.UTF8))

	mustSet(t, s, keyA, rvalue.SmallInt(1))
	mustSet(t, s, keyB, rvalue.SmallInt(2))
	if s.Size() != 2 {
		t.Fatalf("expected 2 entries before mutation, got %d", s.Size())
	}

	// Mutate keyB's backing bytes in place so its content now collides
	// with keyA's: the stored hash codes are stale the instant this
	// happens, which is exactly what Rehash repairs.
	copy(bufB, []byte("foo"))

	if err := s.Rehash(); err != nil {
		t.Fatal(err)
	}
	if s.Size() != 1 {
		t.Fatalf("expected rehash to drop the later duplicate, got size %d", s.Size())
	}
	got := collect(s)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected the earlier insertion (value 1) to survive, got %v", got)
	}
}

func mustSet(t *testing.T, s *Storage, k, v rvalue.Value) {
	t.Helper()
	if _, err := s.Set(k, v); err != nil {
		t.Fatal(err)
	}
}

func collect(s *Storage) []int64 {
	var out []int64
	s.EachEntry(func(_ int, k, v rvalue.Value) bool {
		out = append(out, v.AsSmallInt())
		return true
	})
	return out
}
