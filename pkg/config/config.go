// Package config holds the boot-time knobs that shape the runtime's
// speculative-specialization mechanisms (dispatch caches, hash storage
// thresholds, regexp matcher selection). All fields have the reference
// defaults baked in; a host embedding rcore constructs one Config and
// threads it through at VM-init time.
package config

// Config is a plain value; there is no on-disk format for it. Boot code
// builds one with Default() and overrides fields before wiring it into
// the runtime.
type Config struct {
	// DispatchCacheLimit is the max number of (class, method) entries an
	// inline cache holds before the call site goes megamorphic.
	DispatchCacheLimit int

	// HashPackedMax is K: hashes with size <= K use the flat packed
	// representation; beyond it they promote to bucketed storage.
	HashPackedMax int

	// HashBucketOverallocate is the multiplier used to pick the next
	// bucket-array capacity on resize (smallest prime-table entry greater
	// than size * HashBucketOverallocate).
	HashBucketOverallocate int

	// HashLoadFactor is the fill ratio that triggers a bucketed resize.
	HashLoadFactor float64

	// DebugHashInvariants is off by default. pkg/rhash does not consult
	// it: the O(n) invariant walk (checkInvariants) runs only where a
	// test calls it directly, not after every mutating hash operation.
	DebugHashInvariants bool

	RegexpUseFastPath        bool
	RegexpCompareEngines     bool
	RegexpWarnFallback       bool
	RegexpInstrumentCreation bool
	RegexpInstrumentMatch    bool

	MethodMissingAlwaysClone  bool
	MethodMissingAlwaysInline bool

	// InteropWriteCache bounds the per-foreign-value adapter cache.
	InteropWriteCache int
}

// Default returns the reference configuration named in the embedding
// interface: dispatch-cache-limit=8, hash-packed-max=3,
// hash-bucket-overallocate=4, hash-load-factor=0.75, and the regexp/
// method_missing/interop knobs at their documented defaults.
func Default() Config {
	return Config{
		DispatchCacheLimit:        8,
		HashPackedMax:             3,
		HashBucketOverallocate:    4,
		HashLoadFactor:            0.75,
		DebugHashInvariants:       false,
		RegexpUseFastPath:         true,
		RegexpCompareEngines:      false,
		RegexpWarnFallback:        false,
		RegexpInstrumentCreation:  false,
		RegexpInstrumentMatch:     false,
		MethodMissingAlwaysClone:  true,
		MethodMissingAlwaysInline: true,
		InteropWriteCache:         8,
	}
}
