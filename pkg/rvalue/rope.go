package rvalue

import (
	"sync"
	"unicode/utf8"
)

// CodeRange classifies a byte sequence under its declared encoding.
// Once computed it is cached on the rope node; substrings of a 7-bit
// rope inherit SevenBit without rescanning.
type CodeRange uint8

const (
	CodeRangeUnknown CodeRange = iota
	CodeRangeSevenBit
	CodeRangeValid
	CodeRangeBroken
)

type ropeKind uint8

const (
	ropeLeaf ropeKind = iota
	ropeConcat
	ropeRepeat
)

// Rope is an immutable byte sequence with an encoding and a cached
// code-range classification. Concatenation and repetition build a
// logical tree instead of copying bytes; any byte-level access forces
// flattening to a single backing array.
type Rope struct {
	mu   sync.Mutex // guards lazy fields (cr, flat) only
	kind ropeKind

	// leaf
	bytes []byte

	// concat
	left, right *Rope

	// repeat
	base  *Rope
	count int

	enc *Encoding

	byteLen int
	cr      CodeRange

	// flat caches the materialized bytes once Flatten has run on a
	// non-leaf node, so repeated access doesn't re-walk the tree.
	flat []byte
}

// NewLeafRope builds a rope directly over an owned byte slice. The
// caller must not mutate b afterwards; ropes are immutable by contract.
func NewLeafRope(b []byte, enc *Encoding) *Rope {
	cr := CodeRangeUnknown
	if len(b) == 0 {
		cr = CodeRangeSevenBit
	}
	return &Rope{kind: ropeLeaf, bytes: b, enc: enc, byteLen: len(b), cr: cr}
}

func (r *Rope) ByteLength() int   { return r.byteLen }
func (r *Rope) Encoding() *Encoding { return r.enc }

// Concat returns a new rope representing r followed by other. Both
// operands must share an ASCII-compatible relationship the caller has
// already resolved; Concat does not itself perform encoding negotiation.
func (r *Rope) Concat(other *Rope) *Rope {
	if r.byteLen == 0 {
		return other
	}
	if other.byteLen == 0 {
		return r
	}
	return &Rope{
		kind:    ropeConcat,
		left:    r,
		right:   other,
		enc:     r.enc,
		byteLen: r.byteLen + other.byteLen,
		cr:      combineCodeRange(r.CodeRange(), other.CodeRange()),
	}
}

// Repeat returns a rope representing r repeated n times (n >= 0).
func (r *Rope) Repeat(n int) *Rope {
	if n <= 0 || r.byteLen == 0 {
		return NewLeafRope(nil, r.enc)
	}
	if n == 1 {
		return r
	}
	return &Rope{kind: ropeRepeat, base: r, count: n, enc: r.enc, byteLen: r.byteLen * n, cr: r.CodeRange()}
}

func combineCodeRange(a, b CodeRange) CodeRange {
	if a == CodeRangeSevenBit && b == CodeRangeSevenBit {
		return CodeRangeSevenBit
	}
	if a == CodeRangeBroken || b == CodeRangeBroken {
		return CodeRangeBroken
	}
	return CodeRangeUnknown
}

// Flatten forces materialization of the full byte content into a single
// contiguous slice, caching the result. Byte-level access (indexing,
// hashing, handing bytes to a regexp matcher) always goes through this.
func (r *Rope) Flatten() []byte {
	if r.kind == ropeLeaf {
		return r.bytes
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.flat != nil {
		return r.flat
	}
	buf := make([]byte, 0, r.byteLen)
	buf = r.appendInto(buf)
	r.flat = buf
	return buf
}

func (r *Rope) appendInto(buf []byte) []byte {
	switch r.kind {
	case ropeLeaf:
		return append(buf, r.bytes...)
	case ropeConcat:
		buf = r.left.appendInto(buf)
		buf = r.right.appendInto(buf)
		return buf
	case ropeRepeat:
		for i := 0; i < r.count; i++ {
			buf = r.base.appendInto(buf)
		}
		return buf
	}
	return buf
}

// CodeRange returns the cached classification, computing and caching it
// on first use for encodings we know how to validate (UTF-8, and any
// encoding with an x/text codec backing it). Encodings without a known
// validator return Unknown rather than guessing.
func (r *Rope) CodeRange() CodeRange {
	r.mu.Lock()
	cached := r.cr
	r.mu.Unlock()
	if cached != CodeRangeUnknown {
		return cached
	}
	b := r.Flatten()
	cr := classify(b, r.enc)
	r.mu.Lock()
	r.cr = cr
	r.mu.Unlock()
	return cr
}

func classify(b []byte, enc *Encoding) CodeRange {
	allSeven := true
	for _, c := range b {
		if c > 0x7F {
			allSeven = false
			break
		}
	}
	if allSeven {
		return CodeRangeSevenBit
	}
	switch enc {
	case UTF8:
		if utf8.Valid(b) {
			return CodeRangeValid
		}
		return CodeRangeBroken
	case ASCII8BIT:
		// Every byte value is a valid code point under BINARY.
		return CodeRangeValid
	}
	if enc.codec != nil {
		if _, err := enc.codec.NewDecoder().Bytes(b); err != nil {
			return CodeRangeBroken
		}
		return CodeRangeValid
	}
	return CodeRangeUnknown
}

// Substring returns the byte range [from, to) as a new leaf rope. A
// 7-bit parent's substrings inherit SevenBit without rescanning.
func (r *Rope) Substring(from, to int) *Rope {
	b := r.Flatten()[from:to]
	cp := make([]byte, len(b))
	copy(cp, b)
	cr := CodeRangeUnknown
	if r.CodeRange() == CodeRangeSevenBit {
		cr = CodeRangeSevenBit
	}
	return &Rope{kind: ropeLeaf, bytes: cp, enc: r.enc, byteLen: len(cp), cr: cr}
}
