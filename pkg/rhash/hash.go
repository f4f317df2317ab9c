// Package rhash implements a three-representation adaptive hash storage
// engine: null (empty), packed (flat triples, linear scan), and
// bucketed (separately chained bucket array + insertion-order sequence;
// not open addressing) representations,
// transitioning as size grows.
package rhash

import (
	"rcore/pkg/config"
	"rcore/pkg/rerror"
	"rcore/pkg/rvalue"
)

// HashCoder computes a 32-bit hash code for a value, with a by-identity
// mode. The storage engine never hashes a value itself; it delegates.
type HashCoder interface {
	Hash(v rvalue.Value, byIdentity bool) (int32, error)
}

// Equality is the external equality collaborator the storage engine
// delegates key comparison to.
type Equality interface {
	Eql(a, b rvalue.Value) bool
	ReferenceEqual(a, b rvalue.Value) bool
}

// Freezer freezes a mutable-string key on insert. Kept as an interface
// (rather than calling rvalue.Freeze directly) so tests can substitute a
// no-op and assert the freeze call actually happened.
type Freezer interface {
	FreezeKey(v rvalue.Value) rvalue.Value
}

// repKind names which of the three physical representations a Storage
// is currently in.
type repKind uint8

const (
	repNull repKind = iota
	repPacked
	repBucketed
)

// entry is one key/value binding. In packed storage entries live in a
// flat slice; in bucketed storage they additionally participate in a
// doubly-linked insertion sequence via seqPrev/seqNext indices into the
// entries slice (-1 sentinel for "no link").
type entry struct {
	hash    int32
	key     rvalue.Value
	value   rvalue.Value
	deleted bool
	seqPrev int
	seqNext int
}

// Storage is the hash engine proper: storage, ignoring the wrapper. The
// owning Hash value (array/index/etc. wrapper) is not modeled in this
// package; Storage is what a Ruby Hash object embeds.
type Storage struct {
	cfg    config.Config
	coder  HashCoder
	eq     Equality
	freeze Freezer

	rep     repKind
	size    int
	byIdent bool

	// packed representation
	packed []entry

	// bucketed representation
	buckets  []int // bucket -> index into entries, or -1
	entries  []entry
	chains   []chainLink // per-entries-slot bucket chain link
	freeList []int       // reusable slots in entries after deletes
	seqHead  int
	seqTail  int
}

// New constructs an empty Storage (null representation) using cfg's
// thresholds and coder/eq/freeze collaborators.
func New(cfg config.Config, coder HashCoder, eq Equality, freeze Freezer, byIdentity bool) *Storage {
	return &Storage{cfg: cfg, coder: coder, eq: eq, freeze: freeze, rep: repNull, byIdent: byIdentity, seqHead: -1, seqTail: -1}
}

func (s *Storage) Size() int    { return s.size }
func (s *Storage) IsEmpty() bool { return s.size == 0 }

// representation reports the physical representation currently in use,
// exposed for the invariant "size==0 => null; 1<=size<=K => packed;
// size>K => bucketed" property test.
func (s *Storage) Representation() string {
	switch s.rep {
	case repNull:
		return "null"
	case repPacked:
		return "packed"
	case repBucketed:
		return "bucketed"
	default:
		return "unknown"
	}
}

func (s *Storage) hashOf(k rvalue.Value) (int32, error) {
	return s.coder.Hash(k, s.byIdent)
}

func (s *Storage) keysEqual(a, b rvalue.Value) bool {
	if s.byIdent {
		return s.eq.ReferenceEqual(a, b)
	}
	return s.eq.Eql(a, b)
}

func (s *Storage) freezeKey(k rvalue.Value) rvalue.Value {
	if s.byIdent {
		return k
	}
	return s.freeze.FreezeKey(k)
}

// LookupOrDefault returns the bound value for k, else invokes
// defaultFn(s, k) and returns its result without inserting.
func (s *Storage) LookupOrDefault(k rvalue.Value, defaultFn func(*Storage, rvalue.Value) rvalue.Value) (rvalue.Value, error) {
	v, ok, err := s.get(k)
	if err != nil {
		return rvalue.Nil, err
	}
	if ok {
		return v, nil
	}
	return defaultFn(s, k), nil
}

func (s *Storage) get(k rvalue.Value) (rvalue.Value, bool, error) {
	h, err := s.hashOf(k)
	if err != nil {
		return rvalue.Nil, false, err
	}
	switch s.rep {
	case repNull:
		return rvalue.Nil, false, nil
	case repPacked:
		for _, e := range s.packed {
			if e.hash == h && s.keysEqual(e.key, k) {
				return e.value, true, nil
			}
		}
		return rvalue.Nil, false, nil
	case repBucketed:
		idx := s.findBucketed(h, k)
		if idx < 0 {
			return rvalue.Nil, false, nil
		}
		return s.entries[idx].value, true, nil
	}
	return rvalue.Nil, false, nil
}

// Set stores v under k, returning true if a new entry was created and
// false if an existing binding was overwritten. It performs
// representation transitions as needed.
func (s *Storage) Set(k, v rvalue.Value) (bool, error) {
	h, err := s.hashOf(k)
	if err != nil {
		return false, err
	}

	switch s.rep {
	case repNull:
		s.rep = repPacked
		fallthrough
	case repPacked:
		for i, e := range s.packed {
			if e.hash == h && s.keysEqual(e.key, k) {
				s.packed[i].value = v
				return false, nil
			}
		}
		if len(s.packed) >= s.cfg.HashPackedMax {
			s.promoteToBucketed()
			return s.insertBucketed(h, s.freezeKey(k), v)
		}
		s.packed = append(s.packed, entry{hash: h, key: s.freezeKey(k), value: v})
		s.size++
		return true, nil
	case repBucketed:
		return s.insertBucketed(h, s.freezeKey(k), v)
	}
	return false, nil
}

// Delete removes k, returning the removed value and whether it was
// present.
func (s *Storage) Delete(k rvalue.Value) (rvalue.Value, bool, error) {
	h, err := s.hashOf(k)
	if err != nil {
		return rvalue.Nil, false, err
	}
	switch s.rep {
	case repNull:
		return rvalue.Nil, false, nil
	case repPacked:
		for i, e := range s.packed {
			if e.hash == h && s.keysEqual(e.key, k) {
				v := e.value
				s.packed = append(s.packed[:i], s.packed[i+1:]...)
				s.size--
				if s.size == 0 {
					s.rep = repNull
				}
				return v, true, nil
			}
		}
		return rvalue.Nil, false, nil
	case repBucketed:
		return s.deleteBucketed(h, k)
	}
	return rvalue.Nil, false, nil
}

// ErrTailMismatch is returned by DeleteLast when k does not match the
// storage's current tail entry: a hard error, not a silent fallback to
// a regular delete (see DESIGN.md's Open Question decision).
var ErrTailMismatch = rerror.NewRuntimeError("delete_last: key does not match current tail entry")

// DeleteLast removes the tail entry (in insertion order), asserting k
// matches its key. Used by shift-like idioms that already know the
// current tail.
func (s *Storage) DeleteLast(k rvalue.Value) (rvalue.Value, error) {
	tailKey, _, ok := s.peekTail()
	if !ok {
		return rvalue.Nil, nil
	}
	if !s.keysEqual(tailKey, k) {
		return rvalue.Nil, ErrTailMismatch
	}
	v, _, err := s.Delete(tailKey)
	if err != nil {
		return rvalue.Nil, err
	}
	return v, nil
}

func (s *Storage) peekTail() (rvalue.Value, rvalue.Value, bool) {
	switch s.rep {
	case repNull:
		return rvalue.Nil, rvalue.Nil, false
	case repPacked:
		if len(s.packed) == 0 {
			return rvalue.Nil, rvalue.Nil, false
		}
		e := s.packed[len(s.packed)-1]
		return e.key, e.value, true
	case repBucketed:
		if s.seqTail < 0 {
			return rvalue.Nil, rvalue.Nil, false
		}
		e := s.entries[s.seqTail]
		return e.key, e.value, true
	}
	return rvalue.Nil, rvalue.Nil, false
}

// Shift removes and returns the head entry as (key, value, ok).
func (s *Storage) Shift() (rvalue.Value, rvalue.Value, bool, error) {
	switch s.rep {
	case repNull:
		return rvalue.Nil, rvalue.Nil, false, nil
	case repPacked:
		if len(s.packed) == 0 {
			return rvalue.Nil, rvalue.Nil, false, nil
		}
		e := s.packed[0]
		s.packed = s.packed[1:]
		s.size--
		if s.size == 0 {
			s.rep = repNull
		}
		return e.key, e.value, true, nil
	case repBucketed:
		if s.seqHead < 0 {
			return rvalue.Nil, rvalue.Nil, false, nil
		}
		e := s.entries[s.seqHead]
		v, _, err := s.Delete(e.key)
		if err != nil {
			return rvalue.Nil, rvalue.Nil, false, err
		}
		return e.key, v, true, nil
	}
	return rvalue.Nil, rvalue.Nil, false, nil
}

// EachEntry walks the insertion sequence, invoking cb(index, k, v). A
// false return from cb stops iteration early. Structural mutation of
// the storage during iteration is tolerated: a concurrent delete of the
// entry currently being visited is observable as iteration completing
// early (seqNext is read from the entry's slot after cb returns, and
// deleting an entry clears that link, so deleting cb's own entry ends
// the walk).
func (s *Storage) EachEntry(cb func(index int, k, v rvalue.Value) bool) {
	switch s.rep {
	case repNull:
		return
	case repPacked:
		for i, e := range s.packed {
			if !cb(i, e.key, e.value) {
				return
			}
		}
	case repBucketed:
		idx := s.seqHead
		i := 0
		for idx >= 0 {
			e := s.entries[idx]
			if !cb(i, e.key, e.value) {
				return
			}
			if s.rep != repBucketed || idx >= len(s.entries) {
				return
			}
			idx = s.entries[idx].seqNext
			i++
		}
	}
}

// Replace deep-copies s's storage into dest, preserving insertion order
// and mode flags.
func (s *Storage) Replace(dest *Storage) {
	dest.rep = repNull
	dest.size = 0
	dest.packed = nil
	dest.buckets = nil
	dest.entries = nil
	dest.chains = nil
	dest.freeList = nil
	dest.seqHead = -1
	dest.seqTail = -1
	dest.byIdent = s.byIdent
	s.EachEntry(func(_ int, k, v rvalue.Value) bool {
		dest.Set(k, v)
		return true
	})
}

// Rehash recomputes every key's hash code. Collisions between two now-
// equal keys keep the earlier insertion and drop the later one.
func (s *Storage) Rehash() error {
	type kv struct {
		k, v rvalue.Value
	}
	var pairs []kv
	s.EachEntry(func(_ int, k, v rvalue.Value) bool {
		pairs = append(pairs, kv{k, v})
		return true
	})
	fresh := New(s.cfg, s.coder, s.eq, s.freeze, s.byIdent)
	for _, p := range pairs {
		_, ok, err := fresh.get(p.k)
		if err != nil {
			return err
		}
		if ok {
			continue // earlier insertion wins on a post-rehash collision
		}
		if _, err := fresh.Set(p.k, p.v); err != nil {
			return err
		}
	}
	*s = *fresh
	return nil
}
