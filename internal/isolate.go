package jsg

// Value is an opaque value owned by the host runtime.
type Value interface {
	TypeOf() string
	IsUndefined() bool
	IsNull() bool
	IsBoolean() bool
	IsNumber() bool
	IsString() bool
	IsObject() bool
}

// FunctionTemplate is the host-side class shape built from a
// ResourceDescriptor. It is opaque to this package.
type FunctionTemplate interface {
	ClassName() string
}

// WeakCallback is invoked by the host collector with the address that was
// passed to MakeWeak.
type WeakCallback func(address uintptr)

// RootsHandler lets the host collector ask whether a weakly held wrapper must
// still be treated as a root.
type RootsHandler interface {
	IsRoot(address uintptr) bool
}

// Isolate is the contract the host runtime has to fulfil.
//
// Every method except IsLocked must be called while holding the host
// execution lock.
//
// MakeWeak: the host calls the callback at most once, only after the object
// has become unreachable (and the roots handler no longer reports it as a
// root), and only while the execution lock is held. Calling it twice for the
// same address is undefined behaviour.
type Isolate interface {
	IsLocked() bool

	Undefined() Value
	Null() Value
	NewBoolean(b bool) Value
	NewNumber(n float64) Value
	NewString(s string) Value
	NewObject() Value

	ToBoolean(v Value) bool
	ToNumber(v Value) float64
	ToString(v Value) string

	ThrowException(t ExceptionType, message string)

	CreateResourceTemplate(desc *ResourceDescriptor) (FunctionTemplate, error)
	NewInstance(tmpl FunctionTemplate) (Value, error)
	SetWrapperAddress(obj Value, address uintptr) error
	WrapperAddress(obj Value) (uintptr, bool)
	MakeWeak(obj Value, address uintptr, callback WeakCallback) error
	SetEmbedderRootsHandler(handler RootsHandler)

	ContextData(slot int) any
	SetContextData(slot int, data any)
}
