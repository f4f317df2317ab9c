// Package rregexp implements a regexp engine façade: a per-pattern
// compile cache keyed on (pattern, encoding, flags), a dual
// backtracking/DFA matcher dispatch with a falling-back slow path, and
// MatchData construction. The fast path is stdlib `regexp` (RE2,
// linear-time); the slow path is `github.com/dlclark/regexp2`
// (backtracking, supports lookaround and backreferences).
package rregexp

import (
	"regexp"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/dlclark/regexp2"

	"rcore/pkg/rerror"
	"rcore/pkg/rvalue"
)

// Options are a regexp's compile-time flags.
type Options struct {
	IgnoreCase    bool
	Multiline     bool
	Extended      bool
	FixedEncoding bool
	NoEncoding    bool
}

type matcher struct {
	fast *regexp.Regexp  // nil if the fast path is unsupported for this pattern/encoding
	slow *regexp2.Regexp // always populated; the correctness fallback
	enc  *rvalue.Encoding
}

// Regexp owns the source rope, options, the primary matcher for the
// source encoding, and a per-encoding cache of matchers (each holding
// its own fast and slow engine).
type Regexp struct {
	source  *rvalue.Rope
	opts    Options
	primary *matcher

	mu         sync.Mutex
	byEncoding map[rvalue.EncodingID]*matcher
}

// Compile builds a Regexp from source and opts, resolving the effective
// encoding by precedence: an explicit no-encoding flag wins outright;
// otherwise a literal encoding-forcing escape in the source wins (and
// must agree with the source rope's own encoding unless the source is
// all 7-bit, else a RegexpError is returned); otherwise the source
// rope's encoding is used. A prior Compile with the same (pattern,
// encoding, flags) tuple returns the cached *Regexp rather than building
// a second regexp2/RE2 pair for it.
func Compile(source *rvalue.Rope, opts Options) (*Regexp, error) {
	effective := source.Encoding()
	if opts.NoEncoding {
		effective = rvalue.ASCII8BIT
	} else if forced, ok := detectForcedEncoding(source); ok {
		if forced != source.Encoding() && !isASCIIOnly(source) {
			return nil, rerror.NewRegexpError(
				"encoding mismatch: literal escape forces "+forced.Name()+" but source is "+source.Encoding().Name(),
				string(source.Flatten()), 0)
		}
		effective = forced
	}

	key := statKey{pattern: string(source.Flatten()), enc: effective.Name(), flags: flagsString(opts)}
	if re, ok := cache.lookup(key); ok {
		return re, nil
	}

	m, err := buildMatcher(source, opts, effective)
	if err != nil {
		return nil, err
	}
	re := &Regexp{
		source:     source,
		opts:       opts,
		primary:    m,
		byEncoding: make(map[rvalue.EncodingID]*matcher),
	}
	Stats.recordCompile(re)
	cache.store(key, re)
	return re, nil
}

func isASCIIOnly(r *rvalue.Rope) bool {
	return r.CodeRange() == rvalue.CodeRangeSevenBit
}

// detectForcedEncoding scans for the \u literal escape, which forces
// UTF-8; \x escapes are not treated as forcing any encoding. This is a narrow,
// data-only classifier — no general escape parsing — sufficient to
// implement the precedence rule above without a full regex-syntax
// preprocessor.
func detectForcedEncoding(source *rvalue.Rope) (*rvalue.Encoding, bool) {
	s := string(source.Flatten())
	if strings.Contains(s, `\u`) {
		return rvalue.UTF8, true
	}
	return nil, false
}

func (opts Options) toRegexp2() regexp2.RegexOptions {
	o := regexp2.None
	if opts.IgnoreCase {
		o |= regexp2.IgnoreCase
	}
	if opts.Multiline {
		o |= regexp2.Multiline
	}
	if opts.Extended {
		o |= regexp2.IgnorePatternWhitespace
	}
	return o
}

// translatePattern adapts Ruby-ish regex syntax to something both RE2
// and regexp2 accept: named groups `(?<name>...)` are common to both
// already; POSIX bracket classes and \A/\z anchors are passed through
// unchanged since both engines accept them.
func translatePattern(src string, opts Options) string {
	return src
}

func buildMatcher(source *rvalue.Rope, opts Options, enc *rvalue.Encoding) (*matcher, error) {
	pattern := translatePattern(string(source.Flatten()), opts)

	slow, err := regexp2.Compile(pattern, opts.toRegexp2())
	if err != nil {
		return nil, rerror.NewRegexpError(err.Error(), pattern, 0)
	}
	slow.MatchTimeout = 2 * time.Second

	var fast *regexp.Regexp
	if enc.SupportsFastPath() {
		fast = compileFastPath(pattern, opts)
	}
	return &matcher{fast: fast, slow: slow, enc: enc}, nil
}

// compileFastPath attempts to compile pattern with the RE2-backed
// stdlib engine. RE2 cannot express backreferences or lookaround; when
// compilation fails for any reason we treat that as "unsupported" rather
// than a hard error, so the caller falls back to the slow path.
func compileFastPath(pattern string, opts Options) *regexp.Regexp {
	goPattern := pattern
	var prefix string
	if opts.IgnoreCase {
		prefix += "i"
	}
	if opts.Multiline {
		prefix += "m"
	}
	if opts.Extended {
		prefix += "x"
	}
	if prefix != "" {
		goPattern = "(?" + prefix + ")" + goPattern
	}
	re, err := regexp.Compile(goPattern)
	if err != nil {
		return nil
	}
	return re
}

func (r *Regexp) Source() *rvalue.Rope { return r.source }
func (r *Regexp) Options() Options     { return r.opts }

// RegexpValue and AsRegexp box/unbox a *Regexp as a KindRegexp Value.
// rvalue declares KindRegexp but, to avoid an rvalue->rregexp import
// cycle, leaves this package to own the payload type and the
// conversion, the same way KindForeign's payload belongs to pkg/interop.
func RegexpValue(re *Regexp) rvalue.Value {
	return rvalue.NewOpaque(rvalue.KindRegexp, unsafe.Pointer(re))
}

func AsRegexp(v rvalue.Value) *Regexp {
	if v.Kind() != rvalue.KindRegexp {
		return nil
	}
	return (*Regexp)(v.Ptr())
}

// MatchDataValue and AsMatchData box/unbox a *MatchData as a KindMatchData
// Value, for the same reason as RegexpValue above.
func MatchDataValue(m *MatchData) rvalue.Value {
	return rvalue.NewOpaque(rvalue.KindMatchData, unsafe.Pointer(m))
}

func AsMatchData(v rvalue.Value) *MatchData {
	if v.Kind() != rvalue.KindMatchData {
		return nil
	}
	return (*MatchData)(v.Ptr())
}
