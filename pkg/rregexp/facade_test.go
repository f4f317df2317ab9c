package rregexp

import (
	"testing"

	"rcore/pkg/config"
	"rcore/pkg/rvalue"
)

func rope(s string, enc *rvalue.Encoding) *rvalue.Rope {
	return rvalue.NewLeafRope([]byte(s), enc)
}

func str(s string, enc *rvalue.Encoding) rvalue.Value {
	return rvalue.NewImmutableString(rope(s, enc))
}

func TestMatchInRegionFastPath(t *testing.T) {
	re, err := Compile(rope(`d`, rvalue.UTF8), Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	cfg := config.Default()
	subj := str("abcd", rvalue.UTF8)
	md, err := MatchInRegion(cfg, re, subj, 0, 4, false, 0, nil, nil)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if md == nil {
		t.Fatal("expected a match")
	}
	if s, e := md.Group(0); s != 3 || e != 4 {
		t.Fatalf("group 0 = [%d,%d), want [3,4)", s, e)
	}
}

// TestRegexpFallback is scenario 5 of the testable-properties section: a
// lookbehind forces the slow path, and a region that doesn't cover the
// whole subject falls back to the slow path too and reports no match.
func TestRegexpFallback(t *testing.T) {
	re, err := Compile(rope(`(?<=abc)d`, rvalue.UTF8), Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	cfg := config.Default()
	subj := str("abcd", rvalue.UTF8)

	md, err := MatchInRegion(cfg, re, subj, 0, 4, false, 0, nil, nil)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if md == nil {
		t.Fatal("expected a match via the slow path")
	}
	if s, e := md.Group(0); s != 3 || e != 4 {
		t.Fatalf("group 0 = [%d,%d), want [3,4)", s, e)
	}

	md2, err := MatchInRegion(cfg, re, subj, 0, 3, false, 0, nil, nil)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if md2 != nil {
		t.Fatalf("expected no match when the region excludes byte 3, got %+v", md2)
	}
}

func TestMatchDataOwnsPrivateSubjectSnapshot(t *testing.T) {
	re, err := Compile(rope(`b`, rvalue.UTF8), Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	cfg := config.Default()
	original := rope("abc", rvalue.UTF8)
	subj := rvalue.NewMutableString(original)
	md, err := MatchInRegion(cfg, re, subj, 0, 3, false, 0, nil, nil)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if md == nil {
		t.Fatal("expected a match")
	}
	if got := string(md.GroupBytes(0)); got != "b" {
		t.Fatalf("GroupBytes(0) = %q, want %q", got, "b")
	}
	if md.subject == original {
		t.Fatal("MatchData must hold a duplicate rope, not the caller's own")
	}
}

func TestCompareEnginesAgree(t *testing.T) {
	re, err := Compile(rope(`[a-c]+`, rvalue.UTF8), Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	subj := str("xxabcyy", rvalue.UTF8)
	agree, err := CompareEngines(re, subj, 0, 7, false)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !agree {
		t.Fatal("expected fast and slow paths to agree on group boundaries")
	}
}

func TestUnionQuotesLiteralsAndCachesByIdentity(t *testing.T) {
	parts := []rvalue.Value{
		str("a.b", rvalue.UTF8),
		str("c+d", rvalue.UTF8),
	}
	re1, err := Union(parts)
	if err != nil {
		t.Fatalf("union: %v", err)
	}
	re2, err := Union(parts)
	if err != nil {
		t.Fatalf("union: %v", err)
	}
	if re1 != re2 {
		t.Fatal("expected Union to return the cached Regexp for the same argument slice identity")
	}
	src := string(re1.Source().Flatten())
	if src != `a\.b|c\+d` {
		t.Fatalf("union source = %q, want literal metacharacters escaped", src)
	}
}

func TestQuoteEscapesMetacharacters(t *testing.T) {
	got := Quote("a.b*c")
	want := `a\.b\*c`
	if got != want {
		t.Fatalf("Quote(%q) = %q, want %q", "a.b*c", got, want)
	}
}

func TestStatsCorrelateCompileAndMatchByKey(t *testing.T) {
	Stats.Reset()
	re, err := Compile(rope(`x`, rvalue.UTF8), Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := Stats.CompileCount(re); got != 1 {
		t.Fatalf("compile count = %d, want 1", got)
	}
	cfg := config.Default()
	_, _ = MatchInRegion(cfg, re, str("x", rvalue.UTF8), 0, 1, false, 0, nil, nil)
	if got := Stats.MatchCount(re); got != 1 {
		t.Fatalf("match count = %d, want 1", got)
	}
}

func TestRegexpValueRoundtrip(t *testing.T) {
	re, err := Compile(rope(`a`, rvalue.UTF8), Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	v := RegexpValue(re)
	if v.Kind() != rvalue.KindRegexp {
		t.Fatalf("kind = %v, want KindRegexp", v.Kind())
	}
	if got := AsRegexp(v); got != re {
		t.Fatal("AsRegexp did not round-trip the same pointer")
	}
	if AsRegexp(str("not a regexp", rvalue.UTF8)) != nil {
		t.Fatal("AsRegexp on a non-regexp value should return nil")
	}
}
