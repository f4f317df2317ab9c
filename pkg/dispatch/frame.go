package dispatch

import "rcore/pkg/rvalue"

// Frame is the fixed-shape argument record a call site builds:
// [declaring-module-slot, reserved x4, self, block, positional-args...].
// The four reserved slots are held in an unexported fixed-size array;
// they carry no meaning at this layer.
type Frame struct {
	DeclaringModule *rvalue.Class
	reserved        [4]rvalue.Value
	Self            rvalue.Value
	Block           *rvalue.Proc // nil means no block was passed
	Positional      []rvalue.Value
}

// KeywordRest is the tagged value a trailing keyword-argument hash is
// packed into, kept in the last positional slot so a trailing hash
// literal can never be misread as a keyword-rest by accident.
type KeywordRest struct {
	Pairs map[*rvalue.Symbol]rvalue.Value
}

func NewKeywordRest() *KeywordRest { return &KeywordRest{Pairs: make(map[*rvalue.Symbol]rvalue.Value)} }

// Call0..Call3 avoid boxing a []Value for the common small-arity case.

func Call0(self rvalue.Value, block *rvalue.Proc) *Frame {
	return &Frame{Self: self, Block: block}
}

func Call1(self, a0 rvalue.Value, block *rvalue.Proc) *Frame {
	return &Frame{Self: self, Block: block, Positional: []rvalue.Value{a0}}
}

func Call2(self, a0, a1 rvalue.Value, block *rvalue.Proc) *Frame {
	return &Frame{Self: self, Block: block, Positional: []rvalue.Value{a0, a1}}
}

func Call3(self, a0, a1, a2 rvalue.Value, block *rvalue.Proc) *Frame {
	return &Frame{Self: self, Block: block, Positional: []rvalue.Value{a0, a1, a2}}
}

// CallSplat builds a frame for the variadic shape, taking ownership of
// args (the caller must not mutate it afterward).
func CallSplat(self rvalue.Value, args []rvalue.Value, block *rvalue.Proc) *Frame {
	return &Frame{Self: self, Block: block, Positional: args}
}
