package rhash

// primeSizes is a fixed list of bucket-array capacities to grow
// through, the classic st.c-style progression CRuby's own small-table
// hash uses: each entry comfortably spaces the load factor across a
// wide range of hash sizes without every resize needing its own prime
// search.
var primeSizes = []int{
	11, 19, 37, 79, 157, 317, 631, 1259, 2521, 5039, 10079, 20161, 40343,
	80683, 161371, 322741, 645497, 1290997, 2581997, 5163977, 10327993,
	20655989, 41311979, 82623959, 165247931, 330495881, 660991751,
}

// nextCapacity returns the smallest table in primeSizes greater than
// target, or grows geometrically past the table's end if target exceeds
// every entry (an extreme case the fixed table doesn't anticipate).
func nextCapacity(target int) int {
	for _, p := range primeSizes {
		if p > target {
			return p
		}
	}
	c := primeSizes[len(primeSizes)-1]
	for c <= target {
		c *= 2
	}
	return c
}

// promoteToBucketed migrates every packed entry into a fresh bucketed
// table, preserving insertion order via the sequence links.
func (s *Storage) promoteToBucketed() {
	old := s.packed
	s.packed = nil
	s.rep = repBucketed
	s.size = 0
	cap0 := nextCapacity(len(old) * s.cfg.HashBucketOverallocate)
	s.buckets = make([]int, cap0)
	for i := range s.buckets {
		s.buckets[i] = -1
	}
	s.entries = nil
	s.freeList = nil
	s.seqHead = -1
	s.seqTail = -1
	for _, e := range old {
		s.insertBucketed(e.hash, e.key, e.value)
	}
}

func (s *Storage) bucketIndex(h int32) int {
	u := uint32(h)
	return int(u) % len(s.buckets)
}
