package jsg

import "fmt"

// Type converts between a native type and host values.
type Type[T any] interface {
	// ClassName is the name used in error messages, matching typeof.
	ClassName() string
	Wrap(lock *Lock, value T) Value
	// IsExact reports whether value already is a T without coercion.
	IsExact(value Value) bool
	// Unwrap converts value to T, coercing when needed.
	Unwrap(lock *Lock, value Value) T
}

type stringType struct{}

func (stringType) ClassName() string { return "string" }

func (stringType) Wrap(lock *Lock, value string) Value {
	return lock.isolate.NewString(value)
}

func (stringType) IsExact(value Value) bool { return value.IsString() }

func (stringType) Unwrap(lock *Lock, value Value) string {
	return lock.isolate.ToString(value)
}

type booleanType struct{}

func (booleanType) ClassName() string { return "boolean" }

func (booleanType) Wrap(lock *Lock, value bool) Value {
	return lock.isolate.NewBoolean(value)
}

func (booleanType) IsExact(value Value) bool { return value.IsBoolean() }

func (booleanType) Unwrap(lock *Lock, value Value) bool {
	return lock.isolate.ToBoolean(value)
}

type numberType struct{}

func (numberType) ClassName() string { return "number" }

func (numberType) Wrap(lock *Lock, value float64) Value {
	return lock.isolate.NewNumber(value)
}

func (numberType) IsExact(value Value) bool { return value.IsNumber() }

func (numberType) Unwrap(lock *Lock, value Value) float64 {
	return lock.isolate.ToNumber(value)
}

var (
	String  Type[string]  = stringType{}
	Boolean Type[bool]    = booleanType{}
	Number  Type[float64] = numberType{}
)

// NonCoercible accepts only values that already are a T.
type NonCoercible[T any] struct {
	Value T
}

func NewNonCoercible[T any](value T) NonCoercible[T] {
	return NonCoercible[T]{Value: value}
}

// UnwrapNonCoercible fails with a TypeError when value is not exactly a T.
func UnwrapNonCoercible[T any](lock *Lock, typ Type[T], value Value) (NonCoercible[T], error) {
	if !typ.IsExact(value) {
		return NonCoercible[T]{}, NewError(ExceptionTypeError,
			fmt.Sprintf("Expected a %s value but got %s", typ.ClassName(), value.TypeOf()))
	}
	return NewNonCoercible(typ.Unwrap(lock, value)), nil
}
