package dispatch

import (
	"testing"

	"rcore/pkg/rvalue"
)

func sym(name string) *rvalue.Symbol {
	return rvalue.Sym(rvalue.NewLeafRope([]byte(name), rvalue.UTF8), rvalue.UTF8)
}

func newTestEngine() (*Engine, *rvalue.BuiltinClasses) {
	object := rvalue.NewClass("Object", nil)
	builtins := &rvalue.BuiltinClasses{
		BasicObject: object,
		Object:      object,
		ClassClass:  rvalue.NewClass("Class", object),
	}
	return &Engine{Builtins: builtins, CacheLimit: 8, MissingSymbol: sym("method_missing")}, builtins
}

// TestDispatchCacheStableThenInvalidatedOnRedefinition: repeated calls
// to c.m hit the same monomorphic cache entry; redefining m bumps the
// class epoch and forces a fresh lookup.
func TestDispatchCacheStableThenInvalidatedOnRedefinition(t *testing.T) {
	engine, builtins := newTestEngine()
	class := rvalue.NewClass("C", builtins.Object)
	mName := sym("m")
	class.Define(&rvalue.InternalMethod{
		Name: mName,
		Body: func(self rvalue.Value, args []rvalue.Value, block *rvalue.Proc) (rvalue.Value, error) {
			return rvalue.SmallInt(1), nil
		},
	})

	receiver := rvalue.ObjectValue(rvalue.NewObject(class))
	site := NewCallSite(engine)

	for i := 0; i < 100; i++ {
		frame := Call0(receiver, nil)
		out, err := site.Dispatch(receiver, mName, frame, ImplicitSelf(), nil)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if out.AsSmallInt() != 1 {
			t.Fatalf("call %d: got %v, want 1", i, out.AsSmallInt())
		}
	}
	if state, _, _ := site.Stats(); state != CacheMonomorphic {
		t.Fatalf("cache state = %v, want CacheMonomorphic", state)
	}

	class.Define(&rvalue.InternalMethod{
		Name: mName,
		Body: func(self rvalue.Value, args []rvalue.Value, block *rvalue.Proc) (rvalue.Value, error) {
			return rvalue.SmallInt(2), nil
		},
	})

	frame := Call0(receiver, nil)
	out, err := site.Dispatch(receiver, mName, frame, ImplicitSelf(), nil)
	if err != nil {
		t.Fatalf("post-redefine call: unexpected error: %v", err)
	}
	if out.AsSmallInt() != 2 {
		t.Fatalf("post-redefine call: got %v, want 2", out.AsSmallInt())
	}
}

// TestDispatchCacheInvalidatedOnMixinRedefinition: a method resolved
// through an included module must be invalidated when the *module* is
// redefined, even though the receiver's own class epoch never changes.
func TestDispatchCacheInvalidatedOnMixinRedefinition(t *testing.T) {
	engine, builtins := newTestEngine()
	mixin := rvalue.NewModule("M")
	fooName := sym("foo")
	mixin.Define(&rvalue.InternalMethod{
		Name: fooName,
		Body: func(self rvalue.Value, args []rvalue.Value, block *rvalue.Proc) (rvalue.Value, error) {
			return rvalue.SmallInt(1), nil
		},
	})

	a := rvalue.NewClass("A", builtins.Object)
	a.Include(mixin)
	b := rvalue.NewClass("B", builtins.Object)
	b.Include(mixin)

	receiverA := rvalue.ObjectValue(rvalue.NewObject(a))
	site := NewCallSite(engine)

	frame := Call0(receiverA, nil)
	out, err := site.Dispatch(receiverA, fooName, frame, ImplicitSelf(), nil)
	if err != nil {
		t.Fatalf("initial call: unexpected error: %v", err)
	}
	if out.AsSmallInt() != 1 {
		t.Fatalf("initial call: got %v, want 1", out.AsSmallInt())
	}

	// Redefine foo on the mixin, not on A: A's own epoch never changes,
	// only the mixin's does.
	mixin.Define(&rvalue.InternalMethod{
		Name: fooName,
		Body: func(self rvalue.Value, args []rvalue.Value, block *rvalue.Proc) (rvalue.Value, error) {
			return rvalue.SmallInt(2), nil
		},
	})

	frame2 := Call0(receiverA, nil)
	out, err = site.Dispatch(receiverA, fooName, frame2, ImplicitSelf(), nil)
	if err != nil {
		t.Fatalf("post-redefine call: unexpected error: %v", err)
	}
	if out.AsSmallInt() != 2 {
		t.Fatalf("post-redefine call on same call site: got %v, want 2 (stale mixin cache hit)", out.AsSmallInt())
	}

	// b never called foo yet: it must also observe the redefinition on
	// its first lookup, confirming the fix isn't just an accidental
	// same-call-site coincidence.
	receiverB := rvalue.ObjectValue(rvalue.NewObject(b))
	siteB := NewCallSite(engine)
	frameB := Call0(receiverB, nil)
	outB, err := siteB.Dispatch(receiverB, fooName, frameB, ImplicitSelf(), nil)
	if err != nil {
		t.Fatalf("b's call: unexpected error: %v", err)
	}
	if outB.AsSmallInt() != 2 {
		t.Fatalf("b's call: got %v, want 2", outB.AsSmallInt())
	}
}

func TestMethodMissingFallback(t *testing.T) {
	engine, builtins := newTestEngine()
	class := rvalue.NewClass("O", builtins.Object)
	fooName := sym("foo")
	receiver := rvalue.ObjectValue(rvalue.NewObject(class))
	site := NewCallSite(engine)

	frame := Call2(receiver, rvalue.SmallInt(1), rvalue.SmallInt(2), nil)
	_, err := site.Dispatch(receiver, fooName, frame, ImplicitSelf(), nil)
	if err == nil {
		t.Fatal("expected a NoMethodError when method_missing is not defined")
	}

	class.Define(&rvalue.InternalMethod{
		Name: engine.MissingSymbol,
		Body: func(self rvalue.Value, args []rvalue.Value, block *rvalue.Proc) (rvalue.Value, error) {
			// args[0] is the missing method name as a symbol, args[1:]
			// are the original call's positional arguments.
			return rvalue.SmallInt(int64(len(args))), nil
		},
	})

	frame2 := Call2(receiver, rvalue.SmallInt(1), rvalue.SmallInt(2), nil)
	out, err := site.Dispatch(receiver, fooName, frame2, ImplicitSelf(), nil)
	if err != nil {
		t.Fatalf("unexpected error after defining method_missing: %v", err)
	}
	if out.AsSmallInt() != 3 {
		t.Fatalf("method_missing arg count = %v, want 3 (name + 2 args)", out.AsSmallInt())
	}
}

func TestInlineCacheGoesPolymorphicThenMegamorphic(t *testing.T) {
	engine, builtins := newTestEngine()
	engine.CacheLimit = 2
	ic := NewInlineCache(engine.CacheLimit)

	c1 := rvalue.NewClass("C1", builtins.Object)
	c2 := rvalue.NewClass("C2", builtins.Object)
	c3 := rvalue.NewClass("C3", builtins.Object)
	m := &rvalue.InternalMethod{Name: sym("m"), Declaring: c1}

	ic.record(c1, m)
	if ic.State() != CacheMonomorphic {
		t.Fatalf("state after 1 record = %v, want CacheMonomorphic", ic.State())
	}
	ic.record(c2, m)
	if ic.State() != CachePolymorphic {
		t.Fatalf("state after 2 records = %v, want CachePolymorphic", ic.State())
	}
	ic.record(c3, m)
	if ic.State() != CacheMegamorphic {
		t.Fatalf("state after exceeding limit = %v, want CacheMegamorphic", ic.State())
	}
}
