package dispatch

import "rcore/pkg/rvalue"

// CacheState is the inline cache's specialization state, transitioning
// Uninitialized -> Monomorphic -> Polymorphic -> Megamorphic as a call
// site observes more distinct receiver classes than fit in an
// N-entry slice sized by config.DispatchCacheLimit. An epoch snapshot
// is checked on every hit since Ruby's open classes mean a cached
// class's method table is never permanently fixed.
type CacheState uint8

const (
	CacheUninitialized CacheState = iota
	CacheMonomorphic
	CachePolymorphic
	CacheMegamorphic
)

// entry records one cached resolution: which receiver class this entry
// is valid for, the resolved method, and the epoch of the method's
// *declaring* class (method.Declaring) at the time it was cached — not
// the receiver's own epoch. A method found through an included module
// or an ancestor is declared on that module/ancestor, not on the
// receiver's class, so the cache must watch the epoch of whichever
// class actually owns the method table entry: that is the only epoch a
// redefinition of the method is guaranteed to bump.
type entry struct {
	class   *rvalue.Class
	method  *rvalue.InternalMethod
	epoch   uint64
	foreign bool
}

// InlineCache is an ordered list of up to N entries owned by one call
// site. It is not safe for concurrent mutation from multiple goroutines
// without CallSite's spin lock (see callsite.go); InlineCache
// itself is a plain single-threaded core.
type InlineCache struct {
	limit   int
	state   CacheState
	entries []entry
	hits    uint64
	misses  uint64
}

func NewInlineCache(limit int) *InlineCache {
	return &InlineCache{limit: limit, entries: make([]entry, 0, limit)}
}

// lookup scans for a class+epoch match, moving a polymorphic hit to the
// front so repeated hits on the same class stay cheap to find.
func (ic *InlineCache) lookup(class *rvalue.Class) (*rvalue.InternalMethod, bool) {
	switch ic.state {
	case CacheUninitialized:
		return nil, false
	case CacheMonomorphic:
		e := ic.entries[0]
		if e.class == class && e.epoch == e.method.Declaring.Epoch() {
			ic.hits++
			return e.method, true
		}
		ic.misses++
		return nil, false
	case CachePolymorphic:
		for i, e := range ic.entries {
			if e.class == class && e.epoch == e.method.Declaring.Epoch() {
				ic.hits++
				if i > 0 {
					copy(ic.entries[1:i+1], ic.entries[0:i])
					ic.entries[0] = e
				}
				return e.method, true
			}
		}
		ic.misses++
		return nil, false
	case CacheMegamorphic:
		ic.misses++
		return nil, false
	}
	return nil, false
}

// record inserts or refreshes an entry, applying the mono -> poly ->
// mega transition table, with a fast update path first when the class
// is already at the front. The snapshotted epoch is method.Declaring's,
// not class's: class is only the receiver shape this entry answers for,
// while method.Declaring is the class whose method table the resolved
// method actually lives in (itself, when directly defined; an included
// module or ancestor, when inherited) and whose epoch a redefinition
// bumps.
func (ic *InlineCache) record(class *rvalue.Class, method *rvalue.InternalMethod) {
	switch ic.state {
	case CacheUninitialized:
		ic.state = CacheMonomorphic
		ic.entries = append(ic.entries[:0], entry{class: class, method: method, epoch: method.Declaring.Epoch()})
	case CacheMonomorphic:
		if ic.entries[0].class == class {
			ic.entries[0] = entry{class: class, method: method, epoch: method.Declaring.Epoch()}
			return
		}
		ic.state = CachePolymorphic
		ic.entries = append(ic.entries, entry{class: class, method: method, epoch: method.Declaring.Epoch()})
	case CachePolymorphic:
		for i, e := range ic.entries {
			if e.class == class {
				ic.entries[i] = entry{class: class, method: method, epoch: method.Declaring.Epoch()}
				return
			}
		}
		if len(ic.entries) < ic.limit {
			ic.entries = append(ic.entries, entry{class: class, method: method, epoch: method.Declaring.Epoch()})
		} else {
			ic.state = CacheMegamorphic
			ic.entries = ic.entries[:0]
		}
	case CacheMegamorphic:
		// Never recorded again; a megamorphic site always performs a
		// full lookup instead of caching further.
	}
}

func (ic *InlineCache) Stats() (hits, misses uint64) { return ic.hits, ic.misses }
func (ic *InlineCache) State() CacheState            { return ic.state }
