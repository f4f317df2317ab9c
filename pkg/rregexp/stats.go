package rregexp

import "sync"

// statKey is the same (pattern, encoding, flags) tuple the compile cache
// uses, so compile and match counts correlate.
type statKey struct {
	pattern string
	enc     string
	flags   string
}

type counters struct {
	compiles int64
	matches  int64
}

// statistics is a mutex-guarded counter table rather than a sync.Map:
// the key type is a small comparable struct and every access already
// takes a lock elsewhere in this package's hot path, so a plain map
// avoids sync.Map's interface-boxing overhead. Every Compile that builds
// a new Regexp and every MatchInRegion call is counted unconditionally;
// config.RegexpInstrumentCreation and RegexpInstrumentMatch are not
// consulted.
type statistics struct {
	mu    sync.Mutex
	byKey map[statKey]*counters
}

// Stats is the process-wide regexp instrumentation table. A host resets
// it between test runs via Reset.
var Stats = &statistics{byKey: make(map[statKey]*counters)}

func keyFor(re *Regexp) statKey {
	return statKey{
		pattern: string(re.source.Flatten()),
		enc:     re.primary.enc.Name(),
		flags:   flagsString(re.opts),
	}
}

func flagsString(o Options) string {
	s := ""
	if o.IgnoreCase {
		s += "i"
	}
	if o.Multiline {
		s += "m"
	}
	if o.Extended {
		s += "x"
	}
	if o.FixedEncoding {
		s += "u"
	}
	if o.NoEncoding {
		s += "n"
	}
	return s
}

func (s *statistics) recordCompile(re *Regexp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyFor(re)
	c, ok := s.byKey[k]
	if !ok {
		c = &counters{}
		s.byKey[k] = c
	}
	c.compiles++
}

func (s *statistics) recordMatchAttempt(re *Regexp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyFor(re)
	c, ok := s.byKey[k]
	if !ok {
		c = &counters{}
		s.byKey[k] = c
	}
	c.matches++
}

// CompileCount and MatchCount report the tallies for (pattern, encoding,
// flags), or zero if never recorded.
func (s *statistics) CompileCount(re *Regexp) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byKey[keyFor(re)]; ok {
		return c.compiles
	}
	return 0
}

func (s *statistics) MatchCount(re *Regexp) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byKey[keyFor(re)]; ok {
		return c.matches
	}
	return 0
}

func (s *statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey = make(map[statKey]*counters)
}
