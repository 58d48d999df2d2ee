// Package isolate is a small embeddable script heap with a tracing garbage
// collector. It implements the host side of the jsg resource bridge: wrapper
// objects, weak handles with finalizers, embedder roots and templates built
// from resource descriptors.
package isolate

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	jsg "github.com/jerbob92/wazero-jsg/internal"
)

type Isolate struct {
	config *config
	logger *zap.Logger

	// mu is the execution lock. locked mirrors it for IsLocked.
	mu     sync.Mutex
	locked atomic.Bool

	heap   map[*Object]struct{}
	nextID uint64

	scopes  []*HandleScope
	globals map[*Global]struct{}
	weak    map[*Object]*weakHandle
	roots   jsg.RootsHandler

	contexts map[*Context]struct{}
	entered  []*Context

	pending *Exception

	inGC             bool
	allocatedSinceGC int
	stats            Stats
}

var _ jsg.Isolate = (*Isolate)(nil)

func New(cfg Config) *Isolate {
	if cfg == nil {
		cfg = NewConfig()
	}
	c := cfg.(*config)
	return &Isolate{
		config:   c,
		logger:   c.logger,
		heap:     map[*Object]struct{}{},
		globals:  map[*Global]struct{}{},
		weak:     map[*Object]*weakHandle{},
		contexts: map[*Context]struct{}{},
	}
}

// Locker is the token of a held execution lock. Code that already holds one
// passes it (or the jsg.Lock derived from it) down instead of locking again.
type Locker struct {
	isolate  *Isolate
	released bool
}

// Lock blocks until the execution lock is available. The lock is not
// re-entrant: callbacks already run under it.
func (iso *Isolate) Lock() *Locker {
	iso.mu.Lock()
	iso.locked.Store(true)
	return &Locker{isolate: iso}
}

func (l *Locker) Unlock() {
	if l.released {
		panic("isolate: Unlock called twice")
	}
	if len(l.isolate.scopes) > 0 {
		panic("isolate: Unlock called with open handle scopes")
	}
	l.released = true
	l.isolate.locked.Store(false)
	l.isolate.mu.Unlock()
}

func (l *Locker) Isolate() *Isolate {
	return l.isolate
}

// JSG returns the lock handed to resource code.
func (l *Locker) JSG() *jsg.Lock {
	l.assertHeld()
	return jsg.NewLock(l.isolate)
}

func (l *Locker) assertHeld() {
	if l.released {
		panic("isolate: use of a released Locker")
	}
}

// RunInContext enters ctx, opens a handle scope and runs fn. The lock must
// already be held through l. An exception left pending by fn is returned as
// an *Exception.
func (l *Locker) RunInContext(ctx *Context, fn func(lock *jsg.Lock) error) error {
	l.assertHeld()
	iso := l.isolate
	if ctx.isolate != iso {
		return fmt.Errorf("context belongs to another isolate")
	}
	if ctx.disposed {
		return fmt.Errorf("context is disposed")
	}

	iso.entered = append(iso.entered, ctx)
	defer func() {
		iso.entered = iso.entered[:len(iso.entered)-1]
	}()

	scope := iso.OpenHandleScope()
	defer scope.Close()

	err := fn(jsg.NewLock(iso))
	if exc := iso.takeException(); exc != nil && err == nil {
		err = exc
	}
	return err
}

// RunInContext acquires the execution lock and runs fn inside ctx. It must
// not be called while the lock is held; use Locker.RunInContext there.
func (iso *Isolate) RunInContext(ctx *Context, fn func(lock *jsg.Lock) error) error {
	locker := iso.Lock()
	defer locker.Unlock()
	return locker.RunInContext(ctx, fn)
}

func (iso *Isolate) IsLocked() bool {
	return iso.locked.Load()
}

func (iso *Isolate) assertLocked(op string) {
	if !iso.locked.Load() {
		panic(fmt.Sprintf("isolate: %s called without holding the execution lock", op))
	}
}

func (iso *Isolate) Logger() *zap.Logger {
	return iso.logger
}

// CurrentContext is the innermost entered context, or nil.
func (iso *Isolate) CurrentContext() *Context {
	if len(iso.entered) == 0 {
		return nil
	}
	return iso.entered[len(iso.entered)-1]
}

func (iso *Isolate) Undefined() jsg.Value {
	return undefinedValue
}

func (iso *Isolate) Null() jsg.Value {
	return nullValue
}

func (iso *Isolate) NewBoolean(b bool) jsg.Value {
	if b {
		return trueValue
	}
	return falseValue
}

func (iso *Isolate) NewNumber(n float64) jsg.Value {
	return Number{value: n}
}

func (iso *Isolate) NewString(s string) jsg.Value {
	return newString(s)
}

func (iso *Isolate) NewObject() jsg.Value {
	return iso.newObject("Object", nil)
}

func (iso *Isolate) ToBoolean(v jsg.Value) bool {
	return toBoolean(v)
}

func (iso *Isolate) ToNumber(v jsg.Value) float64 {
	return toNumber(v)
}

func (iso *Isolate) ToString(v jsg.Value) string {
	return toString(v)
}

func (iso *Isolate) newObject(class string, proto *Object) *Object {
	iso.assertLocked("NewObject")
	iso.maybeCollect()

	iso.nextID++
	obj := &Object{
		isolate:    iso,
		id:         iso.nextID,
		class:      class,
		proto:      proto,
		properties: map[string]jsg.Value{},
	}
	iso.heap[obj] = struct{}{}
	iso.allocatedSinceGC++

	if len(iso.scopes) > 0 {
		iso.scopes[len(iso.scopes)-1].add(obj)
	}
	return obj
}

func (iso *Isolate) newFunction(name string, call, construct callBehaviour) *Object {
	fn := iso.newObject("Function", nil)
	fn.name = name
	fn.call = call
	fn.construct = construct
	fn.Set("name", newString(name))
	return fn
}

func (iso *Isolate) owns(v jsg.Value) (*Object, error) {
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("value of type %s is not an object", typeOf(v))
	}
	if obj.isolate != iso {
		return nil, fmt.Errorf("object belongs to another isolate")
	}
	if obj.collected {
		return nil, fmt.Errorf("object %d was collected", obj.id)
	}
	return obj, nil
}

func (iso *Isolate) SetWrapperAddress(v jsg.Value, address uintptr) error {
	iso.assertLocked("SetWrapperAddress")
	obj, err := iso.owns(v)
	if err != nil {
		return err
	}
	if !obj.hasInternalField {
		return fmt.Errorf("object %d has no internal field", obj.id)
	}
	if obj.addressSet {
		return fmt.Errorf("object %d already holds a wrapper address", obj.id)
	}
	obj.address = address
	obj.addressSet = true
	return nil
}

func (iso *Isolate) WrapperAddress(v jsg.Value) (uintptr, bool) {
	obj, ok := v.(*Object)
	if !ok || obj.isolate != iso || !obj.addressSet {
		return 0, false
	}
	return obj.address, true
}

func (iso *Isolate) SetEmbedderRootsHandler(handler jsg.RootsHandler) {
	iso.roots = handler
}

// ContextData reads an embedder data slot of the current context.
func (iso *Isolate) ContextData(slot int) any {
	ctx := iso.CurrentContext()
	if ctx == nil {
		return nil
	}
	return ctx.data[slot]
}

func (iso *Isolate) SetContextData(slot int, data any) {
	ctx := iso.CurrentContext()
	if ctx == nil {
		panic("isolate: SetContextData called without an entered context")
	}
	ctx.data[slot] = data
}

func typeOf(v jsg.Value) string {
	if v == nil {
		return "undefined"
	}
	return v.TypeOf()
}
