package rvalue

import (
	"sync/atomic"
	"unsafe"
)

// Visibility controls where a method may be called from.
type Visibility uint8

const (
	Public Visibility = iota
	Private
	Protected
	ModuleFunction
)

// ParamKind classifies one formal parameter slot.
type ParamKind uint8

const (
	ParamRequired ParamKind = iota
	ParamOptional
	ParamRest
	ParamKeyword
	ParamKeywordRest
	ParamBlock
)

type Param struct {
	Kind ParamKind
	Name *Symbol
}

// ParamDescriptor is the formal-parameter shape of an InternalMethod.
type ParamDescriptor struct {
	Params []Param
}

func (d ParamDescriptor) Required() int {
	n := 0
	for _, p := range d.Params {
		if p.Kind == ParamRequired {
			n++
		}
	}
	return n
}

// Proc is a callable value: a method-procedure closing over a declared
// body, a bound method, or a symbol-to-proc adapter. It lives in
// rvalue (rather than dispatch) because it is itself a first-class
// Value kind (KindMethodProc) that other values can hold and pass
// around, not just something a call site constructs transiently.
type Proc struct {
	Call func(args []Value, block *Proc) (Value, error)
}

func (p *Proc) Invoke(args []Value, block *Proc) (Value, error) {
	if p == nil {
		return Nil, nil
	}
	return p.Call(args, block)
}

func ProcValue(p *Proc) Value {
	return Value{kind: KindMethodProc, obj: unsafe.Pointer(p)}
}

func (v Value) AsProc() *Proc {
	if v.kind != KindMethodProc {
		return nil
	}
	return (*Proc)(v.obj)
}

// MethodBody is the compiled-target reference an InternalMethod carries:
// an opaque Go closure a host installs via define_method.
type MethodBody func(self Value, args []Value, block *Proc) (Value, error)

// InternalMethod records: declaring module, an
// interned name, a parameter descriptor, visibility, a body reference,
// an "undefined" marker (used to shadow an inherited method), and the
// "always clone on inline" hint the dispatch inliner consults.
type InternalMethod struct {
	Declaring   *Class
	Name        *Symbol
	Params      ParamDescriptor
	Visibility  Visibility
	Body        MethodBody
	Undefined   bool
	AlwaysCloneOnInline bool
}

// Class is also used to represent modules; IsModule distinguishes them.
// It owns a method table, a superclass link, included modules, and a
// monotonically increasing assumption epoch bumped on every mutation of
// its own method table or includes list; a mutation of an included
// module or a superclass bumps only that module's or class's epoch.
type Class struct {
	name       string
	IsModule   bool
	methods    map[*Symbol]*InternalMethod
	Superclass *Class
	Includes   []*Class // included modules, most-recently-included last

	epoch atomic.Uint64

	// singleton is this class's own singleton (metaclass), created lazily.
	singleton *Class
	// singletonOwner points back at the object this class is the singleton
	// class of, when this Class *is* a singleton class.
	singletonOwner Value
}

func NewClass(name string, super *Class) *Class {
	return &Class{name: name, methods: make(map[*Symbol]*InternalMethod), Superclass: super}
}

func NewModule(name string) *Class {
	return &Class{name: name, IsModule: true, methods: make(map[*Symbol]*InternalMethod)}
}

func (c *Class) Name() string  { return c.name }
func (c *Class) Epoch() uint64 { return c.epoch.Load() }

// BumpEpoch invalidates any inline-cache entry that was recorded against
// c's own epoch. Called on every direct mutation; Define/Undef/Include
// all route through it. It only ever bumps c itself — an inline-cache
// entry watches the epoch of whichever class actually declares the
// resolved method (see dispatch.InlineCache), so a redefinition on an
// included module or ancestor invalidates every cache that resolved
// through it without c needing a reverse link to its includers.
func (c *Class) BumpEpoch() { c.epoch.Add(1) }

// Define installs m in c's own method table, sets m.Declaring to c, and
// bumps c's epoch.
func (c *Class) Define(m *InternalMethod) {
	m.Declaring = c
	c.methods[m.Name] = m
	c.BumpEpoch()
}

// Undef marks name as undefined in c's own table: lookup will find this
// entry and stop (rather than falling through to the superclass), and
// report Missing.
func (c *Class) Undef(name *Symbol) {
	c.methods[name] = &InternalMethod{Declaring: c, Name: name, Undefined: true}
	c.BumpEpoch()
}

// Include appends mod to c's included-modules list (searched most-
// recently-included first, before the superclass) and bumps c's epoch.
func (c *Class) Include(mod *Class) {
	c.Includes = append(c.Includes, mod)
	c.BumpEpoch()
}

// OwnMethod returns the method installed directly on c (not searching
// the linearization), or nil.
func (c *Class) OwnMethod(name *Symbol) *InternalMethod {
	return c.methods[name]
}

// Metaclass builds a new singleton class for v whose superclass is v's
// class. Each call returns a fresh *Class; it is neither cached nor
// attached to v.
func Metaclass(classOf func(Value) *Class, v Value) *Class {
	// Generic objects, classes, and modules can carry a singleton; the
	// singleton itself is threaded onto the object out-of-band by the
	// caller (see Object.singleton in object.go), so Metaclass here
	// is a pure constructor used by that call site.
	base := classOf(v)
	return &Class{
		name:       "#<Class:" + base.name + ">",
		methods:    make(map[*Symbol]*InternalMethod),
		Superclass: base,
	}
}
