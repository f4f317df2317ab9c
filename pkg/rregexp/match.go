package rregexp

import (
	"strconv"

	"rcore/internal/safepoint"
	"rcore/pkg/config"
	"rcore/pkg/rerror"
	"rcore/pkg/rvalue"
)

// MatchData is an immutable record of a successful match plus a private
// snapshot of the subject: mutating the subject after a match must not
// corrupt m.group(i).
type MatchData struct {
	regexp  *Regexp
	subject *rvalue.Rope // private copy, taken at construction
	starts  []int
	ends    []int
	named   map[string]int
}

func (m *MatchData) Regexp() *Regexp { return m.regexp }
func (m *MatchData) GroupCount() int { return len(m.starts) }

// Group returns the byte span of group i (0 is the whole match), or
// (-1,-1) if that group did not participate in the match.
func (m *MatchData) Group(i int) (start, end int) {
	if i < 0 || i >= len(m.starts) {
		return -1, -1
	}
	return m.starts[i], m.ends[i]
}

// GroupBytes returns the matched bytes for group i, reading from the
// match's own private subject snapshot so later mutation of the caller's
// string object is invisible.
func (m *MatchData) GroupBytes(i int) []byte {
	s, e := m.Group(i)
	if s < 0 {
		return nil
	}
	return m.subject.Flatten()[s:e]
}

// NamedGroup resolves a named capture to its group index.
func (m *MatchData) NamedGroup(name string) (int, bool) {
	idx, ok := m.named[name]
	return idx, ok
}

// MatchDataCreate implements the `matchdata_create` primitive: build a
// MatchData from a regexp, a subject the caller has already duplicated,
// and explicit start/end arrays. This is the primitive external hosts
// call directly when they already hold group boundaries (e.g. produced
// by a compiled-target fast path outside this package).
func MatchDataCreate(re *Regexp, subjectDup *rvalue.Rope, starts, ends []int) *MatchData {
	return &MatchData{regexp: re, subject: subjectDup, starts: starts, ends: ends, named: namedGroupsOf(re)}
}

func namedGroupsOf(re *Regexp) map[string]int {
	out := make(map[string]int)
	for _, n := range re.primary.slow.GetGroupNames() {
		if idx := re.primary.slow.GroupNumberFromName(n); idx >= 0 {
			out[n] = idx
		}
	}
	return out
}

// MatchFixupPositions implements `matchdata_fixup_positions`: rebases
// every group's start/end by startPos, used when a match was performed
// against a substring view and the caller wants offsets relative to the
// original string.
func MatchFixupPositions(m *MatchData, startPos int) *MatchData {
	starts := make([]int, len(m.starts))
	ends := make([]int, len(m.ends))
	for i := range m.starts {
		if m.starts[i] < 0 {
			starts[i], ends[i] = -1, -1
			continue
		}
		starts[i] = m.starts[i] + startPos
		ends[i] = m.ends[i] + startPos
	}
	return &MatchData{regexp: m.regexp, subject: m.subject, starts: starts, ends: ends, named: m.named}
}

// selectEncoding implements the encoding-negotiation table for a match,
// returning the encoding to actually match under and
// whether the caller should treat the subject as pinned to US-ASCII
// (the code-range shortcut).
func selectEncoding(re *Regexp, subjectEnc *rvalue.Encoding, subjectAllSevenBit bool) (*rvalue.Encoding, bool) {
	effective := re.primary.enc
	if effective == subjectEnc {
		return effective, false
	}
	if effective == rvalue.USASCII && subjectAllSevenBit {
		return effective, true
	}
	if re.opts.FixedEncoding && subjectEnc.AsciiCompatible() {
		return effective, false
	}
	return subjectEnc, false
}

func (r *Regexp) matcherFor(enc *rvalue.Encoding) (*matcher, error) {
	if enc == r.primary.enc {
		return r.primary, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.byEncoding[enc.ID()]; ok {
		return m, nil
	}
	m, err := buildMatcher(r.source, r.opts, enc)
	if err != nil {
		return nil, err
	}
	r.byEncoding[enc.ID()] = m
	return m, nil
}

// MatchInRegion is the match_in_region entry point: it runs the fast
// path when eligible and falls back to the slow path otherwise. tok, if
// non-nil, is checked once at entry so a cancelled thread never enters
// a match; regexp2 exposes no way to poll a token mid-backtrack, so once
// the slow path starts, its own MatchTimeout (see runSlowPath) is the
// only in-match runaway guard.
func MatchInRegion(cfg config.Config, re *Regexp, subject rvalue.Value, from, to int, atStart bool, startPos int, tok *safepoint.Token, onFallback func()) (*MatchData, error) {
	if err := safepoint.Point(tok); err != nil {
		return nil, rerror.NewRuntimeError("interrupted").CausedBy(err)
	}
	Stats.recordMatchAttempt(re)

	s := subject.AsString()
	if s == nil {
		return nil, rerror.NewTypeError("match_in_region: subject is not a string")
	}
	byteLen := s.ByteLength()

	// Step 1: normalize — shapes outside the fast path's contract always
	// fall back to the slow path.
	fastEligible := cfg.RegexpUseFastPath && to >= from && to == byteLen && startPos == 0 && from >= 0

	subjectEnc := s.Rope().Encoding()
	allSeven := s.Rope().CodeRange() == rvalue.CodeRangeSevenBit
	matchEnc, _ := selectEncoding(re, subjectEnc, allSeven)

	if fastEligible {
		m, err := re.matcherFor(matchEnc)
		if err != nil {
			return nil, err
		}
		if m.fast != nil {
			if md, ok, err := runFastPath(re, m, s.Rope(), from, to, atStart); err != nil {
				return nil, err
			} else if ok {
				return md, nil
			}
			return nil, nil
		}
	}

	if cfg.RegexpWarnFallback && onFallback != nil {
		onFallback()
	}
	return runSlowPath(cfg, re, matchEnc, s.Rope(), from, to, atStart, startPos)
}

// MatchInRegionFastOnly implements `regexp_match_in_region_tregex`: the
// fast-path-only entry point a caller reaches for when it already knows
// the slow path's backtracking cost is unacceptable and would rather
// get a definitive "not eligible" than pay for a fallback. It never
// runs the slow path; ineligible shapes and DFA-unrepresentable regexps
// both report no match rather than falling back.
func MatchInRegionFastOnly(cfg config.Config, re *Regexp, subject rvalue.Value, from, to int, atStart bool, startPos int) (*MatchData, error) {
	s := subject.AsString()
	if s == nil {
		return nil, rerror.NewTypeError("match_in_region_tregex: subject is not a string")
	}
	byteLen := s.ByteLength()
	fastEligible := cfg.RegexpUseFastPath && to >= from && to == byteLen && startPos == 0 && from >= 0
	if !fastEligible {
		return nil, nil
	}
	subjectEnc := s.Rope().Encoding()
	allSeven := s.Rope().CodeRange() == rvalue.CodeRangeSevenBit
	matchEnc, _ := selectEncoding(re, subjectEnc, allSeven)
	m, err := re.matcherFor(matchEnc)
	if err != nil {
		return nil, err
	}
	if m.fast == nil {
		return nil, nil
	}
	Stats.recordMatchAttempt(re)
	md, ok, err := runFastPath(re, m, s.Rope(), from, to, atStart)
	if err != nil || !ok {
		return nil, err
	}
	return md, nil
}

func runFastPath(re *Regexp, m *matcher, subject *rvalue.Rope, from, to int, atStart bool) (*MatchData, bool, error) {
	b := subject.Flatten()[from:to]
	loc := m.fast.FindSubmatchIndex(b)
	if loc == nil {
		return nil, false, nil
	}
	if atStart && loc[0] != 0 {
		return nil, false, nil
	}
	n := len(loc) / 2
	starts := make([]int, n)
	ends := make([]int, n)
	for i := 0; i < n; i++ {
		if loc[2*i] < 0 {
			starts[i], ends[i] = -1, -1
			continue
		}
		starts[i] = loc[2*i] + from
		ends[i] = loc[2*i+1] + from
	}
	dup := subject.Substring(0, subject.ByteLength())
	names := m.fast.SubexpNames()
	named := make(map[string]int)
	for i, n := range names {
		if n != "" {
			named[n] = i
		}
	}
	return &MatchData{regexp: re, subject: dup, starts: starts, ends: ends, named: named}, true, nil
}

func runSlowPath(cfg config.Config, re *Regexp, enc *rvalue.Encoding, subject *rvalue.Rope, from, to int, atStart bool, startPos int) (*MatchData, error) {
	m, err := re.matcherFor(enc)
	if err != nil {
		return nil, err
	}
	region := string(subject.Flatten()[from:to])
	match, err := m.slow.FindStringMatch(region)
	if err != nil {
		return nil, rerror.NewRuntimeError("interrupted").CausedBy(err)
	}
	if match == nil {
		return nil, nil
	}
	if atStart && match.Index != 0 {
		return nil, nil
	}
	groups := match.Groups()
	starts := make([]int, len(groups))
	ends := make([]int, len(groups))
	named := make(map[string]int)
	for i, g := range groups {
		if len(g.Captures) == 0 {
			starts[i], ends[i] = -1, -1
		} else {
			c := g.Captures[len(g.Captures)-1]
			starts[i] = c.Index + from
			ends[i] = c.Index + c.Length + from
		}
		if g.Name != "" && g.Name != strconv.Itoa(i) {
			named[g.Name] = i
		}
	}
	dup := subject.Substring(0, subject.ByteLength())
	return &MatchData{regexp: re, subject: dup, starts: starts, ends: ends, named: named}, nil
}
