// Package rlog is a minimal debug-print shim gated on a package-level
// boolean, for interpreter-internal tracing that only needs to be
// switched on locally or in a test.
package rlog

import (
	"fmt"
	"os"
)

// Enabled gates Debugf output. Flip it in tests or from a CLI flag.
var Enabled = false

func Debugf(format string, args ...any) {
	if !Enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "[rcore] "+format+"\n", args...)
}

func Printf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
