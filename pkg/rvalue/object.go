package rvalue

import "unsafe"

// Shape is a hidden-class-style layout descriptor: it records which
// instance-variable names map to which slot offsets, and is shared by
// every object whose instance variables were assigned in the same
// order. A transition table keyed on Ruby instance-variable assignment
// order, narrowed to the single field kind Ruby objects need (no
// accessors, no enumerable/configurable flags, since ivars have none of
// those).
type Shape struct {
	parent      *Shape
	names       []*Symbol
	transitions map[*Symbol]*Shape
}

var rootShape = &Shape{transitions: make(map[*Symbol]*Shape)}

func RootShape() *Shape { return rootShape }

// offsetOf returns the slot index for name under this shape, if any.
func (s *Shape) offsetOf(name *Symbol) (int, bool) {
	for i, n := range s.names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// transition returns the shape reached by adding name as a new
// instance variable, creating and caching the transition edge if it
// doesn't exist yet.
func (s *Shape) transition(name *Symbol) *Shape {
	if next, ok := s.transitions[name]; ok {
		return next
	}
	next := &Shape{
		parent:      s,
		names:       append(append([]*Symbol{}, s.names...), name),
		transitions: make(map[*Symbol]*Shape),
	}
	s.transitions[name] = next
	return next
}

// Object is a generic instance: a class pointer, a shape/layout
// descriptor, and per-instance ivar slots.
type Object struct {
	class     *Class
	shape     *Shape
	ivars     []Value
	singleton *Class
	frozen    bool
}

func NewObject(class *Class) *Object {
	return &Object{class: class, shape: rootShape}
}

func ObjectValue(o *Object) Value {
	return Value{kind: KindObject, obj: unsafe.Pointer(o)}
}

func (v Value) AsObject() *Object {
	if v.kind != KindObject {
		return nil
	}
	return (*Object)(v.obj)
}

func (o *Object) Frozen() bool    { return o.frozen }
func (o *Object) Freeze()         { o.frozen = true }

// GetIvar returns the value bound to an instance variable, or Nil if
// unset (Ruby's accessing-an-unset-ivar-returns-nil semantics).
func (o *Object) GetIvar(name *Symbol) Value {
	if off, ok := o.shape.offsetOf(name); ok {
		return o.ivars[off]
	}
	return Nil
}

// SetIvar assigns an instance variable, transitioning the object's shape
// if this is the first assignment to that name on an object of this
// shape.
func (o *Object) SetIvar(name *Symbol, v Value) {
	if off, ok := o.shape.offsetOf(name); ok {
		o.ivars[off] = v
		return
	}
	o.shape = o.shape.transition(name)
	o.ivars = append(o.ivars, v)
}

// Singleton returns o's singleton class, creating it on first access by
// inserting it ahead of o.class in the lookup chain.
func (o *Object) Singleton(classOf func(Value) *Class, self Value) *Class {
	if o.singleton == nil {
		o.singleton = &Class{
			name:       "#<Class:#<" + o.class.name + ">>",
			methods:    make(map[*Symbol]*InternalMethod),
			Superclass: o.class,
		}
		o.singleton.singletonOwner = self
	}
	return o.singleton
}

func (o *Object) HasSingleton() bool { return o.singleton != nil }
func (o *Object) Class() *Class      { return o.class }

// ClassOf returns the class of any Value, consulting an object's
// singleton class when present, exactly as §4.1's lookup step 1
// requires ("Compute the receiver's class (consulting metaclass if
// present)").
func ClassOf(builtins *BuiltinClasses, v Value) *Class {
	switch v.kind {
	case KindNil:
		return builtins.NilClass
	case KindBool:
		if v.AsBool() {
			return builtins.TrueClass
		}
		return builtins.FalseClass
	case KindSmallInt, KindLongInt, KindBigInt:
		return builtins.Integer
	case KindFloat:
		return builtins.Float
	case KindSymbol:
		return builtins.Symbol
	case KindImmutableString, KindMutableString:
		return builtins.String
	case KindArray:
		return builtins.Array
	case KindHash:
		return builtins.Hash
	case KindRegexp:
		return builtins.Regexp
	case KindMatchData:
		return builtins.MatchData
	case KindMethodProc:
		return builtins.Proc
	case KindClass:
		return v.AsClass().Meta(builtins)
	case KindModule:
		return builtins.Module
	case KindObject:
		o := v.AsObject()
		if o.singleton != nil {
			return o.singleton
		}
		return o.class
	case KindForeign:
		return nil
	default:
		return builtins.Object
	}
}

// BuiltinClasses is the small closure of core classes every value's
// class-of relation may need to consult. A host constructs one at boot
// and threads it through ClassOf/dispatch instead of relying on package
// globals, so multiple independent runtimes (e.g. in tests) never share
// mutable class state.
type BuiltinClasses struct {
	BasicObject *Class
	Object      *Class
	Module      *Class
	ClassClass  *Class
	NilClass    *Class
	TrueClass   *Class
	FalseClass  *Class
	Integer     *Class
	Float       *Class
	Symbol      *Class
	String      *Class
	Array       *Class
	Hash        *Class
	Regexp      *Class
	MatchData   *Class
	Proc        *Class
}

// ClassValue wraps a *Class as a Value with KindClass or KindModule.
func ClassValue(c *Class) Value {
	k := KindClass
	if c.IsModule {
		k = KindModule
	}
	return Value{kind: k, obj: unsafe.Pointer(c)}
}

func (v Value) AsClass() *Class {
	if v.kind != KindClass && v.kind != KindModule {
		return nil
	}
	return (*Class)(v.obj)
}

// Meta returns c's own metaclass (the singleton class of a Class object
// itself), used when the receiver of a call is a class/module.
func (c *Class) Meta(builtins *BuiltinClasses) *Class {
	if c.singleton == nil {
		super := builtins.ClassClass
		if c.Superclass != nil {
			super = c.Superclass.Meta(builtins)
		}
		c.singleton = &Class{name: "#<Class:" + c.name + ">", methods: make(map[*Symbol]*InternalMethod), Superclass: super}
	}
	return c.singleton
}
