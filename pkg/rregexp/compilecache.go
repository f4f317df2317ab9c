package rregexp

import "sync"

// compileCache deduplicates Compile by (pattern, encoding, flags), the
// tuple named in this package's own doc comment and reused from
// stats.go's statKey so a hit and its stats entry always agree on what
// counts as "the same regexp". It sits alongside the symbol table,
// frozen-string pool, and encoding table as the process-wide caches this
// runtime keeps a single copy of a given key's payload in.
type compileCache struct {
	mu    sync.Mutex
	byKey map[statKey]*Regexp
}

var cache = &compileCache{byKey: make(map[statKey]*Regexp)}

func (c *compileCache) lookup(k statKey) (*Regexp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	re, ok := c.byKey[k]
	return re, ok
}

func (c *compileCache) store(k statKey, re *Regexp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[k] = re
}

// ResetCompileCache drops every cached Regexp, the compile-cache
// counterpart to Stats.Reset — a host resets both between test runs so
// neither hides state left over from an earlier run.
func ResetCompileCache() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.byKey = make(map[statKey]*Regexp)
}
