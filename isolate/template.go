package isolate

import (
	"fmt"

	"go.uber.org/zap"

	jsg "github.com/jerbob92/wazero-jsg/internal"
)

// FunctionTemplate is the class shape of a resource. It is shared by all
// contexts of an isolate; GetFunction instantiates it once per context.
type FunctionTemplate struct {
	isolate    *Isolate
	descriptor *jsg.ResourceDescriptor
}

func (t *FunctionTemplate) ClassName() string {
	return t.descriptor.Name
}

func (t *FunctionTemplate) Descriptor() *jsg.ResourceDescriptor {
	return t.descriptor
}

func (iso *Isolate) CreateResourceTemplate(desc *jsg.ResourceDescriptor) (jsg.FunctionTemplate, error) {
	if desc == nil {
		return nil, fmt.Errorf("resource descriptor must not be nil")
	}
	if desc.Name == "" {
		return nil, fmt.Errorf("resource descriptor has no class name")
	}
	return &FunctionTemplate{
		isolate:    iso,
		descriptor: desc,
	}, nil
}

func (iso *Isolate) template(tmpl jsg.FunctionTemplate) (*FunctionTemplate, error) {
	t, ok := tmpl.(*FunctionTemplate)
	if !ok {
		return nil, fmt.Errorf("template of type %T was not created by this package", tmpl)
	}
	if t.isolate != iso {
		return nil, fmt.Errorf("template %s belongs to another isolate", t.ClassName())
	}
	return t, nil
}

// GetFunction returns the constructor function of the template in ctx,
// creating it on first use.
func (t *FunctionTemplate) GetFunction(ctx *Context) (*Object, error) {
	iso := t.isolate
	iso.assertLocked("GetFunction")
	if ctx.isolate != iso {
		return nil, fmt.Errorf("context belongs to another isolate")
	}
	if ctx.disposed {
		return nil, fmt.Errorf("context is disposed")
	}
	if fn, ok := ctx.functions[t]; ok {
		return fn, nil
	}

	desc := t.descriptor
	proto := iso.newObject("Object", nil)

	fn := iso.newFunction(desc.Name,
		func(this jsg.Value, newTarget *Object, args []jsg.Value) jsg.Value {
			iso.ThrowException(jsg.ExceptionTypeError,
				fmt.Sprintf("Class constructor %s cannot be invoked without 'new'", desc.Name))
			return undefinedValue
		},
		func(_ jsg.Value, newTarget *Object, args []jsg.Value) jsg.Value {
			if desc.Constructor == nil {
				iso.ThrowException(jsg.ExceptionTypeError, "Illegal constructor")
				return undefinedValue
			}
			prototype, _ := newTarget.Get("prototype").(*Object)
			this := iso.newObject(desc.Name, prototype)
			this.hasInternalField = true

			result := iso.invoke(desc.Constructor.Callback, this, newTarget, args)
			if obj, ok := result.(*Object); ok {
				return obj
			}
			return this
		})
	fn.template = t
	ctx.functions[t] = fn

	fn.Set("prototype", proto)
	proto.Set("constructor", fn)

	for _, method := range desc.Methods {
		cb := method.Callback
		proto.Set(method.Name, iso.newFunction(method.Name,
			func(this jsg.Value, _ *Object, args []jsg.Value) jsg.Value {
				return iso.invoke(cb, this, nil, args)
			}, nil))
	}
	for _, method := range desc.StaticMethods {
		cb := method.Callback
		fn.Set(method.Name, iso.newFunction(method.Name,
			func(this jsg.Value, _ *Object, args []jsg.Value) jsg.Value {
				return iso.invoke(cb, this, nil, args)
			}, nil))
	}

	iso.logger.Debug("instantiated template",
		zap.String("class", desc.Name),
		zap.Uint64("function", fn.id))

	return fn, nil
}

// NewInstance creates an empty wrapper object of the template in the current
// context without running its constructor.
func (iso *Isolate) NewInstance(tmpl jsg.FunctionTemplate) (jsg.Value, error) {
	iso.assertLocked("NewInstance")
	t, err := iso.template(tmpl)
	if err != nil {
		return nil, err
	}
	ctx := iso.CurrentContext()
	if ctx == nil {
		return nil, fmt.Errorf("no context entered")
	}
	fn, err := t.GetFunction(ctx)
	if err != nil {
		return nil, err
	}
	prototype, _ := fn.Get("prototype").(*Object)
	obj := iso.newObject(t.ClassName(), prototype)
	obj.hasInternalField = true
	return obj, nil
}

// FunctionFor instantiates a template in ctx. It is a shorthand for
// GetFunction that accepts the jsg.FunctionTemplate returned by a realm.
func (c *Context) FunctionFor(tmpl jsg.FunctionTemplate) (*Object, error) {
	t, err := c.isolate.template(tmpl)
	if err != nil {
		return nil, err
	}
	return t.GetFunction(c)
}

func (iso *Isolate) invoke(cb jsg.Callback, this jsg.Value, newTarget *Object, args []jsg.Value) jsg.Value {
	var target jsg.Value
	if newTarget != nil {
		target = newTarget
	}
	info := jsg.NewFunctionCallbackInfo(jsg.NewLock(iso), this, target, args)
	cb(info)
	if info.Threw() {
		return undefinedValue
	}
	if rv := info.ReturnValue(); rv != nil {
		return rv
	}
	return undefinedValue
}

// Call invokes fn with the given receiver. A thrown exception is returned as
// an *Exception.
func (iso *Isolate) Call(fn jsg.Value, this jsg.Value, args ...jsg.Value) (jsg.Value, error) {
	iso.assertLocked("Call")
	obj, ok := fn.(*Object)
	if !ok || obj.call == nil {
		return nil, iso.typeError("%s is not a function", toString(fn))
	}
	if this == nil {
		this = undefinedValue
	}
	result := obj.call(this, nil, args)
	if exc := iso.takeException(); exc != nil {
		return nil, exc
	}
	return result, nil
}

// Construct runs fn as a constructor.
func (iso *Isolate) Construct(fn jsg.Value, args ...jsg.Value) (jsg.Value, error) {
	iso.assertLocked("Construct")
	obj, ok := fn.(*Object)
	if !ok || obj.construct == nil {
		return nil, iso.typeError("%s is not a constructor", toString(fn))
	}
	result := obj.construct(undefinedValue, obj, args)
	if exc := iso.takeException(); exc != nil {
		return nil, exc
	}
	return result, nil
}

// CallMethod looks name up on obj and calls it with obj as receiver.
func (iso *Isolate) CallMethod(obj *Object, name string, args ...jsg.Value) (jsg.Value, error) {
	iso.assertLocked("CallMethod")
	fn := obj.Get(name)
	if f, ok := fn.(*Object); !ok || f.call == nil {
		return nil, iso.typeError("%s.%s is not a function", obj.class, name)
	}
	return iso.Call(fn, obj, args...)
}
