package jsg

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	internal "github.com/jerbob92/wazero-jsg/internal"
	"github.com/jerbob92/wazero-jsg/isolate"
)

var valueUndefined = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	mustGetEngineFromContext(ctx)
	stack[0] = api.EncodeI32(HandleUndefined)
})

var valueNull = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	mustGetEngineFromContext(ctx)
	stack[0] = api.EncodeI32(HandleNull)
})

var valueBoolean = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	mustGetEngineFromContext(ctx)
	if api.DecodeI32(stack[0]) != 0 {
		stack[0] = api.EncodeI32(HandleTrue)
	} else {
		stack[0] = api.EncodeI32(HandleFalse)
	}
})

var valueToBoolean = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	engine := mustGetEngineFromContext(ctx)
	value := engine.mustValue(api.DecodeI32(stack[0]))
	if engine.iso.ToBoolean(value) {
		stack[0] = api.EncodeI32(1)
	} else {
		stack[0] = api.EncodeI32(0)
	}
})

var valueNumber = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	engine := mustGetEngineFromContext(ctx)
	n := api.DecodeF64(stack[0])
	stack[0] = api.EncodeI32(engine.handles.toHandle(engine.iso.NewNumber(n)))
})

var valueToNumber = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	engine := mustGetEngineFromContext(ctx)
	value := engine.mustValue(api.DecodeI32(stack[0]))
	stack[0] = api.EncodeF64(engine.iso.ToNumber(value))
})

var stringNew = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	engine := mustGetEngineFromContext(ctx)
	ptr := api.DecodeU32(stack[0])
	length := api.DecodeU32(stack[1])

	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		panic(fmt.Errorf("could not read string of length %d at pointer %d", length, ptr))
	}

	stack[0] = api.EncodeI32(engine.handles.toHandle(engine.iso.NewString(string(data))))
})

// stringLen returns the UTF-8 length of the value converted to a string.
var stringLen = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	engine := mustGetEngineFromContext(ctx)
	value := engine.mustValue(api.DecodeI32(stack[0]))
	stack[0] = api.EncodeI32(int32(len(engine.iso.ToString(value))))
})

// stringRead writes at most capacity bytes of the UTF-8 string and returns
// how many it wrote.
var stringRead = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	engine := mustGetEngineFromContext(ctx)
	value := engine.mustValue(api.DecodeI32(stack[0]))
	ptr := api.DecodeU32(stack[1])
	capacity := api.DecodeU32(stack[2])

	data := []byte(engine.iso.ToString(value))
	if uint32(len(data)) > capacity {
		data = data[:capacity]
	}
	if !mod.Memory().Write(ptr, data) {
		panic(fmt.Errorf("could not write string of length %d at pointer %d", len(data), ptr))
	}

	stack[0] = api.EncodeI32(int32(len(data)))
})

var handleIncref = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	engine := mustGetEngineFromContext(ctx)
	err := engine.handles.incref(api.DecodeI32(stack[0]))
	if err != nil {
		panic(fmt.Errorf("could not incref: %w", err))
	}
})

var handleDecref = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	engine := mustGetEngineFromContext(ctx)
	id := api.DecodeI32(stack[0])
	if id == HandleInvalid {
		return
	}
	err := engine.handles.decref(id)
	if err != nil {
		panic(fmt.Errorf("could not decref: %w", err))
	}
})

var pushArg = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	engine := mustGetEngineFromContext(ctx)
	value := engine.mustValue(api.DecodeI32(stack[0]))
	engine.handles.args = append(engine.handles.args, value)
})

// takeException returns a handle to the exception thrown by the last failed
// call, or 0.
var takeException = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	engine := mustGetEngineFromContext(ctx)
	stack[0] = api.EncodeI32(engine.handles.takeException())
})

var requestGC = api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
	engine := mustGetEngineFromContext(ctx)
	engine.iso.RequestGC()
})

func (e *engine) mustValue(id int32) internal.Value {
	value, err := e.handles.value(id)
	if err != nil {
		panic(err)
	}
	return value
}

// scoped runs fn in its own handle scope. Values that outlive the call are
// pinned by the handle table, everything else becomes collectable as soon as
// the host function returns.
func (e *engine) scoped(fn func()) {
	scope := e.iso.OpenHandleScope()
	defer scope.Close()
	fn()
}

func classConstructor(class *exportedClass) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		engine := mustGetEngineFromContext(ctx)
		engine.scoped(func() {
			construct(engine, class, stack)
		})
	}
}

func construct(engine *engine, class *exportedClass, stack []uint64) {
	args := engine.handles.takeArgs()

	fn, err := engine.function(class)
	if err != nil {
		panic(fmt.Errorf("could not get constructor of %s: %w", class.descriptor.Name, err))
	}

	stack[0] = api.EncodeI32(engine.result(engine.iso.Construct(fn, args...)))
}

func classMethod(class *exportedClass, name string) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		engine := mustGetEngineFromContext(ctx)
		engine.scoped(func() {
			callMethod(engine, class, name, stack)
		})
	}
}

func callMethod(engine *engine, class *exportedClass, name string, stack []uint64) {
	this := engine.mustValue(api.DecodeI32(stack[0]))
	args := engine.handles.takeArgs()

	fn, err := engine.function(class)
	if err != nil {
		panic(fmt.Errorf("could not get constructor of %s: %w", class.descriptor.Name, err))
	}
	prototype, ok := fn.Get("prototype").(*isolate.Object)
	if !ok {
		panic(fmt.Errorf("%s has no prototype", class.descriptor.Name))
	}
	method := prototype.Get(name)

	stack[0] = api.EncodeI32(engine.result(engine.iso.Call(method, this, args...)))
}

func classStaticMethod(class *exportedClass, name string) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		engine := mustGetEngineFromContext(ctx)
		engine.scoped(func() {
			callStatic(engine, class, name, stack)
		})
	}
}

func callStatic(engine *engine, class *exportedClass, name string, stack []uint64) {
	args := engine.handles.takeArgs()

	fn, err := engine.function(class)
	if err != nil {
		panic(fmt.Errorf("could not get constructor of %s: %w", class.descriptor.Name, err))
	}

	stack[0] = api.EncodeI32(engine.result(engine.iso.Call(fn.Get(name), fn, args...)))
}
