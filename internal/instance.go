package jsg

import (
	"fmt"
	"reflect"
	"runtime"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
)

// State is the lifecycle state of an Instance.
type State int32

const (
	// StateUnwrapped instances have never been handed to the host. Dropping
	// the last Ref destroys them synchronously.
	StateUnwrapped State = iota
	// StateWrappedStrong instances have a wrapper and at least one Ref.
	StateWrappedStrong
	// StateWrappedWeak instances have a wrapper and no Refs. Only the host
	// collector can destroy them now.
	StateWrappedWeak
	// StateCollected instances have been destroyed.
	StateCollected
)

func (s State) String() string {
	switch s {
	case StateUnwrapped:
		return "unwrapped"
	case StateWrappedStrong:
		return "wrapped-strong"
	case StateWrappedWeak:
		return "wrapped-weak"
	case StateCollected:
		return "collected"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Dropper is optionally implemented by resource values (or pointers to them)
// that hold something that has to be released on destruction. Drop always
// runs under the execution lock: either from the host collector or from the
// last Ref.Drop of an instance that was never wrapped.
type Dropper interface {
	Drop()
}

// Instance holds the user data of a resource together with its strong count
// and, once exposed to the host, its WrapperState.
type Instance[T any] struct {
	value     T
	count     atomic.Int64
	wrapper   atomic.Pointer[WrapperState]
	collected atomic.Bool

	// isolate is set for instances allocated under a Lock. Destroying them
	// without the execution lock is an invariant violation.
	isolate Isolate
}

func newInstance[T any](value T) *Instance[T] {
	instance := &Instance[T]{
		value: value,
	}
	instance.count.Store(1)
	return instance
}

func (i *Instance[T]) State() State {
	if i.collected.Load() {
		return StateCollected
	}
	if i.wrapper.Load() == nil {
		return StateUnwrapped
	}
	if i.count.Load() > 0 {
		return StateWrappedStrong
	}
	return StateWrappedWeak
}

func (i *Instance[T]) retain() {
	if i.count.Add(1) <= 1 {
		invariant("Ref.Clone", "clone of %s with no outstanding references", typeName[T]())
	}
}

// revive takes a strong reference on behalf of the host, which may find a
// wrapped instance with a count of zero. Callers hold the execution lock, so
// no collection pass can run concurrently.
func (i *Instance[T]) revive() {
	if i.collected.Load() {
		invariant("UnwrapRef", "%s was already collected", typeName[T]())
	}
	i.count.Add(1)
}

func (i *Instance[T]) release() {
	remaining := i.count.Add(-1)
	switch {
	case remaining < 0:
		invariant("Ref.Drop", "strong count of %s dropped below zero", typeName[T]())
	case remaining == 0 && i.wrapper.Load() == nil:
		if i.isolate != nil && !i.isolate.IsLocked() {
			invariant("Ref.Drop", "last Ref to %s dropped without holding the execution lock", typeName[T]())
		}
		i.destroy()
	}
}

func (i *Instance[T]) destroy() {
	if !i.collected.CompareAndSwap(false, true) {
		invariant("Instance.destroy", "%s destroyed twice", typeName[T]())
	}

	dropValue(&i.value)

	var zero T
	i.value = zero
}

func dropValue[T any](value *T) {
	if dropper, ok := any(value).(Dropper); ok {
		dropper.Drop()
		return
	}
	if dropper, ok := any(*value).(Dropper); ok {
		dropper.Drop()
	}
}

// dropInstance is the type-erased destructor stored in a WrapperState.
func dropInstance[T any](this unsafe.Pointer) {
	(*Instance[T])(this).destroy()
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// Ref is an owning handle to an Instance. Every Ref must be dropped exactly
// once.
type Ref[T any] struct {
	instance *Instance[T]
	leak     *leakInfo
}

type leakInfo struct {
	dropped  atomic.Bool
	typeName string
}

// NewInstance allocates value in a new Instance with a strong count of one.
func NewInstance[T any](value T) *Ref[T] {
	return newRef(newInstance(value))
}

// Alloc allocates a resource instance. The returned Ref manages its lifetime;
// see Wrap for what changes once the instance is exposed to the host.
func Alloc[R Resource](lock *Lock, value R) *Ref[R] {
	instance := newInstance(value)
	if lock != nil {
		instance.isolate = lock.Isolate()
	}
	return newRef(instance)
}

func newRef[T any](instance *Instance[T]) *Ref[T] {
	ref := &Ref[T]{
		instance: instance,
		leak: &leakInfo{
			typeName: typeName[T](),
		},
	}
	runtime.AddCleanup(ref, reportLeak, ref.leak)
	return ref
}

// reportLeak runs on the Go collector's goroutine, where the execution lock
// is not held, so it only warns.
func reportLeak(info *leakInfo) {
	if info.dropped.Load() {
		return
	}
	Logger().Warn("found a leaked Ref, make sure to call Drop() once you are done with it",
		zap.String("type", info.typeName))
}

func (r *Ref[T]) assertLive(op string) {
	if r.leak.dropped.Load() {
		invariant(op, "use of a dropped Ref to %s", r.leak.typeName)
	}
}

// Clone returns a new Ref to the same Instance. It only touches the atomic
// count and is safe without the execution lock.
func (r *Ref[T]) Clone() *Ref[T] {
	r.assertLive("Ref.Clone")
	r.instance.retain()
	return newRef(r.instance)
}

// Drop releases this Ref. When it was the last one and the instance was never
// wrapped, the value is destroyed before Drop returns. A wrapped instance is
// left to the host collector.
//
// Destruction must happen under the execution lock. Dropping the last Ref of
// an unwrapped instance that came from Alloc without holding it panics.
func (r *Ref[T]) Drop() {
	if !r.leak.dropped.CompareAndSwap(false, true) {
		invariant("Ref.Drop", "Ref to %s dropped twice", r.leak.typeName)
	}
	r.instance.release()
}

// Get returns a pointer to the user data. It is valid while this Ref is.
func (r *Ref[T]) Get() *T {
	r.assertLive("Ref.Get")
	return &r.instance.value
}

func (r *Ref[T]) Count() int64 {
	return r.instance.count.Load()
}

func (r *Ref[T]) State() State {
	return r.instance.State()
}

func (r *Ref[T]) IsWrapped() bool {
	return r.instance.wrapper.Load() != nil
}

// Same reports whether both Refs point at the same Instance.
func (r *Ref[T]) Same(other *Ref[T]) bool {
	return other != nil && r.instance == other.instance
}
