package isolate

import (
	"fmt"

	jsg "github.com/jerbob92/wazero-jsg/internal"
)

// callBehaviour implements [[Call]]. newTarget is nil for plain calls.
type callBehaviour func(this jsg.Value, newTarget *Object, args []jsg.Value) jsg.Value

// Object is a heap object. Objects are only ever created through an
// Isolate and are owned by its heap.
type Object struct {
	isolate    *Isolate
	id         uint64
	class      string
	proto      *Object
	properties map[string]jsg.Value
	keys       []string

	// Wrapper objects carry one internal field holding their state address.
	hasInternalField bool
	address          uintptr
	addressSet       bool

	name      string
	call      callBehaviour
	construct callBehaviour
	template  *FunctionTemplate

	collected bool
}

func (o *Object) TypeOf() string {
	if o.call != nil || o.construct != nil {
		return "function"
	}
	return "object"
}

func (*Object) IsUndefined() bool { return false }
func (*Object) IsNull() bool      { return false }
func (*Object) IsBoolean() bool   { return false }
func (*Object) IsNumber() bool    { return false }
func (*Object) IsString() bool    { return false }
func (*Object) IsObject() bool    { return true }

func (o *Object) ID() uint64 {
	return o.id
}

// ClassName is "Object" for plain objects, "Function" for functions and
// the resource class name for wrapper objects.
func (o *Object) ClassName() string {
	return o.class
}

func (o *Object) Prototype() *Object {
	return o.proto
}

func (o *Object) IsCollected() bool {
	return o.collected
}

func (o *Object) IsCallable() bool {
	return o.call != nil
}

func (o *Object) IsConstructor() bool {
	return o.construct != nil
}

// Get looks key up on the object and its prototype chain. Missing keys are
// undefined.
func (o *Object) Get(key string) jsg.Value {
	for cur := o; cur != nil; cur = cur.proto {
		if v, ok := cur.properties[key]; ok {
			return v
		}
	}
	return undefinedValue
}

// GetOwn only looks at the object itself.
func (o *Object) GetOwn(key string) (jsg.Value, bool) {
	v, ok := o.properties[key]
	return v, ok
}

func (o *Object) Set(key string, value jsg.Value) {
	if value == nil {
		value = undefinedValue
	}
	if _, ok := o.properties[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.properties[key] = value
}

func (o *Object) Has(key string) bool {
	for cur := o; cur != nil; cur = cur.proto {
		if _, ok := cur.properties[key]; ok {
			return true
		}
	}
	return false
}

func (o *Object) Delete(key string) bool {
	if _, ok := o.properties[key]; !ok {
		return false
	}
	delete(o.properties, key)
	for i := range o.keys {
		if o.keys[i] == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the own property names in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

func (o *Object) trace(visit func(jsg.Value)) {
	if o.proto != nil {
		visit(o.proto)
	}
	for _, key := range o.keys {
		visit(o.properties[key])
	}
}

func (o *Object) toString() string {
	if o.TypeOf() == "function" {
		return fmt.Sprintf("function %s() { [native code] }", o.name)
	}
	return fmt.Sprintf("[object %s]", o.class)
}

func (o *Object) String() string {
	return o.toString()
}
