package runtime

import "rcore/pkg/rvalue"

// Parser turns source text into internal methods with parameter
// descriptors and installs regexp literals via pkg/rregexp.Compile. The
// parser/AST itself is out of scope for this repo, which only defines
// the seam a host's own parser plugs into.
type Parser interface {
	Compile(source, filename string, lineOffset int) ([]*rvalue.InternalMethod, error)
}

// stubParser is the only Parser implementation this repo ships: it
// raises for anything but the empty program, so Run has a well-defined
// (if minimal) behavior without pulling in a parser.
type stubParser struct{}

func (stubParser) Compile(source, filename string, lineOffset int) ([]*rvalue.InternalMethod, error) {
	if source == "" {
		return nil, nil
	}
	return nil, errUnsupportedSource(filename)
}

func errUnsupportedSource(filename string) error {
	return &unsupportedSourceError{filename: filename}
}

type unsupportedSourceError struct{ filename string }

func (e *unsupportedSourceError) Error() string {
	return "rcore has no bundled parser; source in " + e.filename + " must be pre-compiled to internal methods by the host"
}
