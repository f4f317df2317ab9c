package rregexp

import (
	"strings"
	"sync"
	"unsafe"

	"rcore/pkg/config"
	"rcore/pkg/rvalue"
)

// defaultCompareConfig drives CompareEngines' internal call into
// runSlowPath. CompareEngines is an audit helper invoked with just a
// regexp and a subject, not with a host Config, so it runs the slow
// path under boot defaults.
var defaultCompareConfig = config.Default()

// metacharacters are the characters Quote must escape so they match
// literally in both the RE2 and regexp2 syntaxes rcore compiles with.
const metacharacters = `\.+*?()|[]{}^$`

// Quote escapes special regex characters in s so it matches literally.
func Quote(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(metacharacters, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// unionCache memoizes Union by the identity of the argument slice's
// backing array, so a literal `Regexp.union(...)` call repeated in a
// hot loop with the same argument values doesn't recompile every
// iteration. Entries are never evicted: this cache only ever grows with
// the number of distinct call sites, not with data volume.
var unionCache = struct {
	mu      sync.Mutex
	byIdent map[uintptr]*Regexp
}{byIdent: make(map[uintptr]*Regexp)}

// Union builds a Regexp matching any of parts, concatenating their
// source representations with a literal `|` separator and quoting any
// non-regexp input so its metacharacters become literal.
func Union(parts []rvalue.Value) (*Regexp, error) {
	if len(parts) == 0 {
		return Compile(rvalue.NewLeafRope([]byte(`(?!)`), rvalue.UTF8), Options{})
	}
	ident := uintptr(0)
	if len(parts) > 0 {
		ident = identityOf(parts)
	}
	unionCache.mu.Lock()
	if cached, ok := unionCache.byIdent[ident]; ok {
		unionCache.mu.Unlock()
		return cached, nil
	}
	unionCache.mu.Unlock()

	var pieces []string
	enc := rvalue.UTF8
	for _, p := range parts {
		if p.Kind() == rvalue.KindRegexp {
			re := AsRegexp(p)
			pieces = append(pieces, string(re.Source().Flatten()))
			enc = re.Source().Encoding()
		} else if s := p.AsString(); s != nil {
			pieces = append(pieces, Quote(string(s.Rope().Flatten())))
			enc = s.Rope().Encoding()
		}
	}
	source := rvalue.NewLeafRope([]byte(strings.Join(pieces, "|")), enc)
	re, err := Compile(source, Options{})
	if err != nil {
		return nil, err
	}
	unionCache.mu.Lock()
	unionCache.byIdent[ident] = re
	unionCache.mu.Unlock()
	return re, nil
}

// identityOf uses the address of the slice's first element rather than
// its contents, so the cache key tracks argument-identity, not
// argument-equality.
func identityOf(parts []rvalue.Value) uintptr {
	if len(parts) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&parts[0]))
}

// CompareEngines runs both the fast and slow matchers over subject
// (when the pattern's primary matcher supports the fast path) and
// reports whether their group boundaries agree — the cross-matcher
// invariant an audit tool can use to catch a fast/slow-path divergence.
func CompareEngines(re *Regexp, subject rvalue.Value, from, to int, atStart bool) (agree bool, err error) {
	s := subject.AsString()
	if s == nil || re.primary.fast == nil {
		return true, nil // nothing to compare
	}
	fastMD, fastOK, err := runFastPath(re, re.primary, s.Rope(), from, to, atStart)
	if err != nil {
		return false, err
	}
	slowMD, err := runSlowPath(defaultCompareConfig, re, re.primary.enc, s.Rope(), from, to, atStart, 0)
	if err != nil {
		return false, err
	}
	if fastOK != (slowMD != nil) {
		return false, nil
	}
	if !fastOK {
		return true, nil
	}
	if fastMD.GroupCount() != slowMD.GroupCount() {
		return false, nil
	}
	for i := 0; i < fastMD.GroupCount(); i++ {
		fs, fe := fastMD.Group(i)
		ss, se := slowMD.Group(i)
		if fs != ss || fe != se {
			return false, nil
		}
	}
	return true, nil
}
