package interop

import (
	"sync"

	"rcore/pkg/rvalue"
)

// Adapter implements dispatch.ForeignAdapter over a set of independently
// registered Handles: it resolves (foreign value, operation name) to a
// callable and invokes it, caching the resolution so a hot call site
// hitting the same foreign value's operation repeatedly doesn't re-walk
// the Handle's map every time. Interfaces are matched structurally in
// Go, so Adapter needs no import of pkg/dispatch to satisfy
// dispatch.ForeignAdapter.
//
// The cache is bounded by config.InteropWriteCache: a process embedding
// many short-lived foreign values should not let this cache grow
// without bound, the same reasoning behind an InlineCache's per-site
// limit.
type cacheKey struct {
	handle *Handle
	name   string
}

type Adapter struct {
	mu    sync.Mutex
	cache map[cacheKey]Operation
	order []cacheKey
	limit int
}

func NewAdapter(writeCacheLimit int) *Adapter {
	if writeCacheLimit <= 0 {
		writeCacheLimit = 1
	}
	return &Adapter{cache: make(map[cacheKey]Operation), limit: writeCacheLimit}
}

func (a *Adapter) Call(receiver rvalue.Value, name *rvalue.Symbol, args []rvalue.Value, block *rvalue.Proc) (rvalue.Value, bool, error) {
	h := AsHandle(receiver)
	if h == nil {
		return rvalue.Missing, false, nil
	}
	opName := name.String()
	if op, ok := a.cached(h, opName); ok {
		v, err := op(receiver, args, block)
		return v, true, err
	}
	op, ok := h.lookup(opName)
	if !ok {
		return rvalue.Missing, false, nil
	}
	a.record(h, opName, op)
	v, err := op(receiver, args, block)
	return v, true, err
}

func (a *Adapter) cached(h *Handle, name string) (Operation, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	op, ok := a.cache[cacheKey{h, name}]
	return op, ok
}

// record inserts (h,name)->op, evicting the oldest entry first-in-first-
// out when the cache is at its limit. FIFO rather than LRU: this cache
// only needs to bound memory, not model recency, since a Handle's
// operation table rarely changes shape after construction.
func (a *Adapter) record(h *Handle, name string, op Operation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := cacheKey{handle: h, name: name}
	if _, ok := a.cache[key]; ok {
		return
	}
	if len(a.order) >= a.limit {
		oldest := a.order[0]
		a.order = a.order[1:]
		delete(a.cache, oldest)
	}
	a.cache[key] = op
	a.order = append(a.order, key)
}
