package rvalue

import (
	"sync"
	"weak"
)

// internKey is the frozen-string/symbol pool key: byte content and
// encoding identity. Code-range is not part of the key, so two ropes
// with equal bytes and encoding converge on the same pool entry
// whatever code-range either has cached.
type internKey struct {
	content string // Flatten()'d bytes, used as a Go map key
	enc     EncodingID
}

// internEntry is what the pool stores: a weak pointer to the canonical
// *Rope-backed string. Using weak.Pointer here avoids hand-rolling a
// finalizer-based cache.
type internEntry struct {
	rope weak.Pointer[Rope]
}

type internPool struct {
	mu      sync.Mutex
	strings map[internKey]*internEntry
	symbols map[internKey]*Symbol
}

var pool = &internPool{
	strings: make(map[internKey]*internEntry),
	symbols: make(map[internKey]*Symbol),
}

// Symbol is an interned (rope, encoding) pair with pointer identity:
// symbols with equal content and equal encoding compare identical.
type Symbol struct {
	rope *Rope
	enc  *Encoding
}

func (s *Symbol) String() string   { return string(s.rope.Flatten()) }
func (s *Symbol) Rope() *Rope      { return s.rope }
func (s *Symbol) Encoding() *Encoding { return s.enc }

// Sym interns (rope, encoding) into the process-wide symbol table, which
// holds each *Symbol strongly (symbols are never reclaimed, unlike the
// weak frozen-string entries): two calls with equal bytes and equal encoding return the same
// *Symbol object; a different encoding, even over identical ASCII bytes,
// returns a distinct object.
func Sym(r *Rope, enc *Encoding) *Symbol {
	key := internKey{content: string(r.Flatten()), enc: enc.id}
	pool.mu.Lock()
	defer pool.mu.Unlock()
	if s, ok := pool.symbols[key]; ok {
		return s
	}
	s := &Symbol{rope: r, enc: enc}
	pool.symbols[key] = s
	return s
}

// Freeze returns the canonical immutable-string object for r's content
// under enc, creating and caching one if none is live: every
// immutable-string with identical bytes and encoding is
// pointer-identical, the invariant the hash engine's key-freezing rule
// relies on.
func Freeze(r *Rope, enc *Encoding) *Rope {
	key := internKey{content: string(r.Flatten()), enc: enc.id}
	pool.mu.Lock()
	defer pool.mu.Unlock()
	if e, ok := pool.strings[key]; ok {
		if canonical := e.rope.Value(); canonical != nil {
			return canonical
		}
	}
	canonical := r
	pool.strings[key] = &internEntry{rope: weak.Make(canonical)}
	return canonical
}

// InternedStringCount reports the number of live entries in the frozen
// string pool; exposed for tests that assert weak entries get reclaimed.
func InternedStringCount() int {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	n := 0
	for _, e := range pool.strings {
		if e.rope.Value() != nil {
			n++
		}
	}
	return n
}
