package jsg

import (
	"context"

	"go.uber.org/zap"

	internal "github.com/jerbob92/wazero-jsg/internal"
)

type Lock = internal.Lock

type Realm = internal.Realm

type RealmKey = internal.RealmKey

type Value = internal.Value

type Resource interface {
	internal.Resource
}

type Member = internal.Member

type Callback = internal.Callback

type FunctionCallbackInfo = internal.FunctionCallbackInfo

type ResourceDescriptor = internal.ResourceDescriptor

type Ref[T any] = internal.Ref[T]

type ResourceImpl[R internal.Resource] = internal.ResourceImpl[R]

type State = internal.State

const (
	StateUnwrapped     = internal.StateUnwrapped
	StateWrappedStrong = internal.StateWrappedStrong
	StateWrappedWeak   = internal.StateWrappedWeak
	StateCollected     = internal.StateCollected
)

type Dropper interface {
	internal.Dropper
}

type Error = internal.Error

type InvariantError = internal.InvariantError

type ExceptionType = internal.ExceptionType

const (
	ExceptionError              = internal.ExceptionError
	ExceptionTypeError          = internal.ExceptionTypeError
	ExceptionRangeError         = internal.ExceptionRangeError
	ExceptionReferenceError     = internal.ExceptionReferenceError
	ExceptionSyntaxError        = internal.ExceptionSyntaxError
	ExceptionOperationError     = internal.ExceptionOperationError
	ExceptionDataError          = internal.ExceptionDataError
	ExceptionDataCloneError     = internal.ExceptionDataCloneError
	ExceptionInvalidAccessError = internal.ExceptionInvalidAccessError
	ExceptionInvalidStateError  = internal.ExceptionInvalidStateError
	ExceptionNotSupportedError  = internal.ExceptionNotSupportedError
	ExceptionTimeoutError       = internal.ExceptionTimeoutError
	ExceptionAbortError         = internal.ExceptionAbortError
)

type Type[T any] = internal.Type[T]

type NonCoercible[T any] = internal.NonCoercible[T]

var (
	String  = internal.String
	Boolean = internal.Boolean
	Number  = internal.Number
)

func NewError(name ExceptionType, message string) *Error {
	return internal.NewError(name, message)
}

// Alloc creates a reference counted instance of a resource. The instance is
// destroyed with its last Ref unless it was wrapped first.
func Alloc[R Resource](lock *Lock, value R) *Ref[R] {
	return internal.Alloc(lock, value)
}

// NewInstance is Alloc for values that are never exposed to scripts.
func NewInstance[T any](value T) *Ref[T] {
	return internal.NewInstance(value)
}

// Wrap creates the script object for an instance. An instance can be wrapped
// once; afterwards WrapperOf returns the same object.
func Wrap[R Resource](lock *Lock, ref *Ref[R]) (Value, error) {
	return internal.Wrap(lock, ref)
}

func WrapperOf[R any](ref *Ref[R]) (Value, bool) {
	return internal.WrapperOf(ref)
}

func This[R Resource](info *FunctionCallbackInfo) (*R, error) {
	return internal.This[R](info)
}

// UnwrapRef returns a new Ref to the instance behind a wrapper. A weak
// instance becomes strong again.
func UnwrapRef[R Resource](lock *Lock, value Value) (*Ref[R], error) {
	return internal.UnwrapRef[R](lock, value)
}

// ReturnNew is the body of a typical constructor callback.
func ReturnNew[R Resource](info *FunctionCallbackInfo, value R) {
	internal.ReturnNew(info, value)
}

func GetResources[R Resource](realm *Realm) *ResourceImpl[R] {
	return internal.GetResources[R](realm)
}

func DescriptorFor[R Resource]() *ResourceDescriptor {
	return internal.DescriptorFor[R]()
}

func Constructor(cb Callback) Member {
	return internal.Constructor(cb)
}

func Method(name string, cb Callback) Member {
	return internal.Method(name, cb)
}

func StaticMethod(name string, cb Callback) Member {
	return internal.StaticMethod(name, cb)
}

// Property is not supported; resources declaring one panic when their
// template is created.
func Property(name string, getter, setter Callback) Member {
	return internal.Property(name, getter, setter)
}

func HandleResult[T any](info *FunctionCallbackInfo, typ Type[T], value T, err error) {
	internal.HandleResult(info, typ, value, err)
}

func UnwrapNonCoercible[T any](lock *Lock, typ Type[T], value Value) (NonCoercible[T], error) {
	return internal.UnwrapNonCoercible(lock, typ, value)
}

func RealmFromContext(ctx context.Context) (*Realm, error) {
	return internal.RealmFromContext(ctx)
}

// LiveWrapperStates is the number of wrapped instances that have not been
// finalized yet.
func LiveWrapperStates() int {
	return internal.LiveWrapperStates()
}

// SetLogger sets the logger used for lifecycle events and leak warnings.
func SetLogger(l *zap.Logger) {
	internal.SetLogger(l)
}
