package rhash

import (
	"unsafe"

	"rcore/pkg/rvalue"
)

// HashValue and AsHash box/unbox a *Storage as a KindHash Value, the
// same boundary mechanism rregexp.RegexpValue/AsRegexp use for
// KindRegexp: rvalue declares the Kind but leaves the owning package to
// supply the payload type and conversion, avoiding an rvalue->rhash
// import cycle.
func HashValue(s *Storage) rvalue.Value {
	return rvalue.NewOpaque(rvalue.KindHash, unsafe.Pointer(s))
}

func AsHash(v rvalue.Value) *Storage {
	if v.Kind() != rvalue.KindHash {
		return nil
	}
	return (*Storage)(v.Ptr())
}
