package interop

import (
	"testing"

	"rcore/pkg/rvalue"
)

func TestAdapterCallsRegisteredOperation(t *testing.T) {
	h := NewHandle(42)
	h.Define("value", func(receiver rvalue.Value, args []rvalue.Value, block *rvalue.Proc) (rvalue.Value, error) {
		hh := AsHandle(receiver)
		return rvalue.SmallInt(int64(hh.Payload.(int))), nil
	})
	fv := ForeignValue(h)

	adapter := NewAdapter(8)
	name := rvalue.Sym(rvalue.NewLeafRope([]byte("value"), rvalue.UTF8), rvalue.UTF8)
	out, ok, err := adapter.Call(fv, name, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected the operation to be found")
	}
	if out.AsSmallInt() != 42 {
		t.Fatalf("got %v, want 42", out.AsSmallInt())
	}

	// Second call exercises the cached path.
	out2, ok2, err2 := adapter.Call(fv, name, nil, nil)
	if err2 != nil || !ok2 || out2.AsSmallInt() != 42 {
		t.Fatalf("cached call mismatch: out=%v ok=%v err=%v", out2, ok2, err2)
	}
}

func TestAdapterUnknownOperationReturnsNotOK(t *testing.T) {
	h := NewHandle(nil)
	fv := ForeignValue(h)
	adapter := NewAdapter(8)
	name := rvalue.Sym(rvalue.NewLeafRope([]byte("missing"), rvalue.UTF8), rvalue.UTF8)
	_, ok, err := adapter.Call(fv, name, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for an undefined operation")
	}
}

func TestAdapterCacheEvictsOldestBeyondLimit(t *testing.T) {
	h := NewHandle(nil)
	for i := 0; i < 4; i++ {
		i := i
		h.Define(string(rune('a'+i)), func(receiver rvalue.Value, args []rvalue.Value, block *rvalue.Proc) (rvalue.Value, error) {
			return rvalue.SmallInt(int64(i)), nil
		})
	}
	fv := ForeignValue(h)
	adapter := NewAdapter(2)
	for i := 0; i < 4; i++ {
		name := rvalue.Sym(rvalue.NewLeafRope([]byte{byte('a' + i)}, rvalue.UTF8), rvalue.UTF8)
		if _, ok, _ := adapter.Call(fv, name, nil, nil); !ok {
			t.Fatalf("operation %d should resolve", i)
		}
	}
	if len(adapter.order) > 2 {
		t.Fatalf("cache order length = %d, want <= 2", len(adapter.order))
	}
}
