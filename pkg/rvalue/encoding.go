package rvalue

import (
	"sync"

	gxencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// EncodingID is the dense integer index a rope carries instead of a
// pointer, so two ropes can compare encodings with an int compare.
type EncodingID int

// Encoding is a named handler for a byte representation. The runtime
// instantiates exactly one Encoding per known name at startup.
type Encoding struct {
	id              EncodingID
	name            *Symbol // the encoding's own name, itself an interned symbol
	asciiCompatible bool
	fixedWidth      bool
	dummy           bool
	fastPath        bool // whether the regexp façade may compile a DFA matcher for it

	// codec is the golang.org/x/text transcoder backing byte validity
	// checks in classify, nil for encodings with no x/text counterpart
	// (ASCII-8BIT, US-ASCII, UTF-8, UTF-16BE/LE).
	codec gxencoding.Encoding
}

func (e *Encoding) ID() EncodingID         { return e.id }
func (e *Encoding) Name() string           { return e.name.String() }
func (e *Encoding) AsciiCompatible() bool  { return e.asciiCompatible }
func (e *Encoding) FixedWidth() bool       { return e.fixedWidth }
func (e *Encoding) Dummy() bool            { return e.dummy }
func (e *Encoding) SupportsFastPath() bool { return e.fastPath }

// registry is the process-wide built-in encoding table.
type registry struct {
	mu     sync.RWMutex
	byName map[string]*Encoding
	byID   []*Encoding
}

var reg = &registry{byName: make(map[string]*Encoding)}

// well-known IDs, assigned in registration order below.
var (
	ASCII8BIT *Encoding
	USASCII   *Encoding
	UTF8      *Encoding
	Latin1    *Encoding
	UTF16BE   *Encoding
	UTF16LE   *Encoding
	ShiftJIS  *Encoding
	EUCJP     *Encoding
)

func register(name string, asciiCompat, fixedWidth, dummy, fastPath bool, codec gxencoding.Encoding) *Encoding {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	e := &Encoding{
		id:              EncodingID(len(reg.byID)),
		asciiCompatible: asciiCompat,
		fixedWidth:      fixedWidth,
		dummy:           dummy,
		fastPath:        fastPath,
		codec:           codec,
	}
	reg.byID = append(reg.byID, e)
	reg.byName[name] = e
	return e
}

// asciiCompatibleCodec decodes every byte in 0x00-0x7F through codec and
// reports whether each one round-trips to itself, the real test for
// "this encoding's low half is ASCII".
func asciiCompatibleCodec(codec gxencoding.Encoding) bool {
	for b := 0; b < 0x80; b++ {
		out, err := codec.NewDecoder().Bytes([]byte{byte(b)})
		if err != nil || len(out) != 1 || out[0] != byte(b) {
			return false
		}
	}
	return true
}

// fixedWidthCodec reports whether codec decodes every byte value on its
// own, without needing continuation bytes. golang.org/x/text represents
// every single-byte table as a *charmap.Charmap; the japanese package's
// multi-byte encodings are a distinct, unexported concrete type, so this
// type assertion is a real structural test, not a guess.
func fixedWidthCodec(codec gxencoding.Encoding) bool {
	_, ok := codec.(*charmap.Charmap)
	return ok
}

func init() {
	// ASCII-8BIT (BINARY): the identity encoding, every byte is valid.
	// No x/text counterpart exists for a byte-is-a-byte encoding, so its
	// metadata is hand-declared rather than derived.
	ASCII8BIT = register("ASCII-8BIT", true, true, false, true, nil)
	USASCII = register("US-ASCII", true, true, false, true, nil)
	UTF8 = register("UTF-8", true, false, false, true, nil)

	Latin1 = register("ISO-8859-1",
		asciiCompatibleCodec(charmap.ISO8859_1), fixedWidthCodec(charmap.ISO8859_1),
		false, true, charmap.ISO8859_1)

	// x/text has no UTF-16BE/LE charmap; golang.org/x/text/encoding/unicode
	// covers UTF-16 but with BOM-sniffing semantics that don't match a
	// fixed-endianness Ruby encoding name, so these stay hand-declared.
	UTF16BE = register("UTF-16BE", false, true, false, false, nil)
	UTF16LE = register("UTF-16LE", false, true, false, false, nil)

	ShiftJIS = register("Shift_JIS",
		asciiCompatibleCodec(japanese.ShiftJIS), fixedWidthCodec(japanese.ShiftJIS),
		false, false, japanese.ShiftJIS)

	EUCJP = register("EUC-JP",
		asciiCompatibleCodec(japanese.EUCJP), fixedWidthCodec(japanese.EUCJP),
		false, false, japanese.EUCJP)

	// Seed the frozen-string pool with every built-in encoding's own name
	// so Symbol values for encoding names are stable.
	for _, e := range reg.byID {
		e.name = Sym(NewLeafRope([]byte(nameOf(e)), USASCII), USASCII)
	}
}

func nameOf(e *Encoding) string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for n, x := range reg.byName {
		if x == e {
			return n
		}
	}
	return "UNKNOWN"
}

// LookupEncoding returns the built-in encoding registered under name, or
// (nil, false) if no such encoding was registered at startup.
func LookupEncoding(name string) (*Encoding, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	e, ok := reg.byName[name]
	return e, ok
}
