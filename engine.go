package jsg

import (
	"context"
	"errors"
	"fmt"

	internal "github.com/jerbob92/wazero-jsg/internal"
	"github.com/jerbob92/wazero-jsg/isolate"
)

// Engine binds one isolate context to a Wasm guest. The guest reaches the
// context's resources through the host functions installed by the
// FunctionExporter and refers to host values through integer handles.
type Engine interface {
	Isolate() *isolate.Isolate
	Context() *isolate.Context
	Realm() *Realm

	// Attach returns a context carrying the engine and its realm. Guest
	// functions must be called with it.
	Attach(ctx context.Context) context.Context

	// Run takes the execution lock, enters the engine's context and calls fn
	// with an attached context.
	Run(ctx context.Context, fn func(ctx context.Context, lock *Lock) error) error

	NewFunctionExporter() FunctionExporter

	// LiveHandles is the number of handles the guest currently holds.
	LiveHandles() int
}

type EngineKey struct{}

type exportedClass struct {
	descriptor *internal.ResourceDescriptor
	template   func(realm *internal.Realm) internal.FunctionTemplate
}

type engine struct {
	iso     *isolate.Isolate
	context *isolate.Context
	handles *handleTable
	classes []*exportedClass
}

func CreateEngine(iso *isolate.Isolate, ctx *isolate.Context) Engine {
	return &engine{
		iso:     iso,
		context: ctx,
		handles: newHandleTable(iso),
	}
}

func (e *engine) Isolate() *isolate.Isolate {
	return e.iso
}

func (e *engine) Context() *isolate.Context {
	return e.context
}

func (e *engine) Realm() *Realm {
	return e.context.Realm()
}

func (e *engine) Attach(ctx context.Context) context.Context {
	ctx = e.context.Realm().Attach(ctx)
	return context.WithValue(ctx, EngineKey{}, e)
}

func (e *engine) Run(ctx context.Context, fn func(ctx context.Context, lock *Lock) error) error {
	return e.iso.RunInContext(e.context, func(lock *Lock) error {
		return fn(e.Attach(ctx), lock)
	})
}

func (e *engine) LiveHandles() int {
	return e.handles.live()
}

func (e *engine) NewFunctionExporter() FunctionExporter {
	return &functionExporter{
		engine: e,
	}
}

// RegisterResource makes R constructible from the guest. It has to be called
// before the engine's functions are exported.
func RegisterResource[R Resource](e Engine) error {
	eng, ok := e.(*engine)
	if !ok {
		return fmt.Errorf("engine of type %T was not created by CreateEngine", e)
	}

	desc := internal.DescriptorFor[R]()
	for i := range eng.classes {
		if eng.classes[i].descriptor.Name == desc.Name {
			return fmt.Errorf("cannot register resource %s twice", desc.Name)
		}
	}

	eng.classes = append(eng.classes, &exportedClass{
		descriptor: desc,
		template: func(realm *internal.Realm) internal.FunctionTemplate {
			return internal.GetResources[R](realm).Constructor()
		},
	})
	return nil
}

func GetEngineFromContext(ctx context.Context) (Engine, error) {
	raw := ctx.Value(EngineKey{})
	if raw == nil {
		return nil, fmt.Errorf("jsg engine not found in context")
	}

	value, ok := raw.(Engine)
	if !ok {
		return nil, fmt.Errorf("context value %v not of type %T", value, new(Engine))
	}

	return value, nil
}

// mustGetEngineFromContext is used by the host functions. It panics when no
// engine is attached or when the execution lock is not held, which wazero
// turns into an error for the caller of the guest function.
func mustGetEngineFromContext(ctx context.Context) *engine {
	e, err := GetEngineFromContext(ctx)
	if err != nil {
		panic(fmt.Errorf("could not get jsg engine from context: %w, make sure to create an engine with jsg.CreateEngine() and to attach it to the context with \"ctx = engine.Attach(ctx)\"", err))
	}

	eng := e.(*engine)
	if !eng.iso.IsLocked() {
		panic(fmt.Errorf("jsg host function called without holding the isolate execution lock"))
	}
	if eng.context.IsDisposed() {
		panic(fmt.Errorf("jsg host function called for a disposed context"))
	}
	return eng
}

// function returns the constructor of a registered class in the engine's
// context.
func (e *engine) function(class *exportedClass) (*isolate.Object, error) {
	if current := e.iso.CurrentContext(); current != e.context {
		return nil, fmt.Errorf("the engine's context is not the entered context")
	}
	return e.context.FunctionFor(class.template(e.context.Realm()))
}

// result turns the outcome of a call into a handle. Exceptions are kept for
// jsg_exception and reported as the invalid handle.
func (e *engine) result(value internal.Value, err error) int32 {
	if err != nil {
		var exc *isolate.Exception
		if !errors.As(err, &exc) {
			panic(err)
		}
		e.handles.setException(exc.Value)
		return HandleInvalid
	}
	return e.handles.toHandle(value)
}
