package jsg

import (
	"fmt"
	"reflect"
	"unsafe"

	"go.uber.org/zap"
)

// Wrap exposes the instance behind ref to the host and returns its wrapper
// object. The strong count is left alone: ref stays valid and must still be
// dropped, after which the host collector decides when the instance dies.
//
// An instance can only be wrapped once. Wrapping it again panics, use
// WrapperOf to get the existing wrapper.
func Wrap[R Resource](lock *Lock, ref *Ref[R]) (Value, error) {
	lock.AssertLocked("Wrap")
	ref.assertLive("Wrap")

	instance := ref.instance
	if instance.wrapper.Load() != nil {
		invariant("Wrap", "%s is already wrapped", ref.leak.typeName)
	}

	resources := GetResources[R](lock.Realm())
	obj, err := lock.isolate.NewInstance(resources.Constructor())
	if err != nil {
		return nil, fmt.Errorf("could not create wrapper for %s: %w", resources.Descriptor().Name, err)
	}

	state := &WrapperState{
		dropFn: dropInstance[R],
		this:   unsafe.Pointer(instance),
		object: obj,
		class:  resources.Descriptor().Name,
		rtype:  reflect.TypeFor[R](),
		strong: instance.count.Load,
	}
	address := wrapperStates.insert(state)

	if err := lock.isolate.SetWrapperAddress(obj, address); err != nil {
		wrapperStates.remove(address)
		return nil, fmt.Errorf("could not store wrapper address for %s: %w", state.class, err)
	}

	if !instance.wrapper.CompareAndSwap(nil, state) {
		wrapperStates.remove(address)
		invariant("Wrap", "%s was wrapped concurrently", ref.leak.typeName)
	}

	if err := lock.isolate.MakeWeak(obj, address, InvokeWeakDrop); err != nil {
		instance.wrapper.Store(nil)
		wrapperStates.remove(address)
		return nil, fmt.Errorf("could not register finalizer for %s: %w", state.class, err)
	}

	Logger().Debug("wrapped instance",
		zap.String("class", state.class),
		zap.Uintptr("address", address),
		zap.Int64("count", instance.count.Load()))

	return obj, nil
}

// WrapperOf returns the wrapper object of an already wrapped instance.
func WrapperOf[R any](ref *Ref[R]) (Value, bool) {
	ref.assertLive("WrapperOf")
	state := ref.instance.wrapper.Load()
	if state == nil {
		return nil, false
	}
	return state.object, true
}

func instanceOf[R any](lock *Lock, value Value) (*Instance[R], bool) {
	if value == nil || !value.IsObject() {
		return nil, false
	}
	address, ok := lock.isolate.WrapperAddress(value)
	if !ok {
		return nil, false
	}
	state, ok := wrapperStates.lookup(address)
	if !ok || state.rtype != reflect.TypeFor[R]() {
		return nil, false
	}
	return (*Instance[R])(state.this), true
}

func illegalInvocation() error {
	return NewError(ExceptionTypeError, "Illegal invocation")
}

// This borrows the instance the callback was invoked on. The pointer is
// valid for the duration of the callback.
func This[R Resource](info *FunctionCallbackInfo) (*R, error) {
	instance, ok := instanceOf[R](info.lock, info.This())
	if !ok {
		return nil, illegalInvocation()
	}
	return &instance.value, nil
}

// UnwrapRef takes a new strong reference to the instance behind a wrapper.
// A weak instance becomes strong again.
func UnwrapRef[R Resource](lock *Lock, value Value) (*Ref[R], error) {
	lock.AssertLocked("UnwrapRef")

	instance, ok := instanceOf[R](lock, value)
	if !ok {
		var zero R
		return nil, NewError(ExceptionTypeError, fmt.Sprintf("Expected a %s value but got %s", zero.ClassName(), typeOf(value)))
	}
	instance.revive()
	return newRef(instance), nil
}

func typeOf(value Value) string {
	if value == nil {
		return "undefined"
	}
	return value.TypeOf()
}

// ReturnNew allocates value, wraps it and makes the wrapper the result of
// the callback. It is meant for constructors.
func ReturnNew[R Resource](info *FunctionCallbackInfo, value R) {
	ref := Alloc(info.lock, value)
	defer ref.Drop()

	obj, err := Wrap(info.lock, ref)
	if err != nil {
		info.Throw(err)
		return
	}
	info.SetReturnValue(obj)
}
