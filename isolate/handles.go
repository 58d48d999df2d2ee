package isolate

import (
	"fmt"

	jsg "github.com/jerbob92/wazero-jsg/internal"
)

// HandleScope roots every object created while it is the innermost open
// scope. Scopes must be closed in reverse order of opening.
type HandleScope struct {
	isolate *Isolate
	objects []*Object
	closed  bool
}

func (iso *Isolate) OpenHandleScope() *HandleScope {
	iso.assertLocked("OpenHandleScope")
	scope := &HandleScope{isolate: iso}
	iso.scopes = append(iso.scopes, scope)
	return scope
}

func (s *HandleScope) add(obj *Object) {
	s.objects = append(s.objects, obj)
}

// Escape roots v in the enclosing scope as well.
func (s *HandleScope) Escape(v jsg.Value) jsg.Value {
	obj, ok := v.(*Object)
	if !ok {
		return v
	}
	scopes := s.isolate.scopes
	for i := len(scopes) - 1; i > 0; i-- {
		if scopes[i] == s {
			scopes[i-1].add(obj)
			break
		}
	}
	return v
}

func (s *HandleScope) Close() {
	if s.closed {
		return
	}
	iso := s.isolate
	if len(iso.scopes) == 0 || iso.scopes[len(iso.scopes)-1] != s {
		panic("isolate: handle scopes closed out of order")
	}
	iso.scopes = iso.scopes[:len(iso.scopes)-1]
	s.closed = true
	s.objects = nil
}

// Global is a strong persistent handle. It keeps its value alive across
// handle scopes until Reset.
type Global struct {
	isolate *Isolate
	value   jsg.Value
}

func (iso *Isolate) NewGlobal(v jsg.Value) *Global {
	iso.assertLocked("NewGlobal")
	g := &Global{
		isolate: iso,
		value:   v,
	}
	iso.globals[g] = struct{}{}
	return g
}

func (g *Global) Get() jsg.Value {
	if g.value == nil {
		return undefinedValue
	}
	return g.value
}

func (g *Global) IsEmpty() bool {
	return g.value == nil
}

func (g *Global) Reset() {
	g.isolate.assertLocked("Global.Reset")
	g.value = nil
	delete(g.isolate.globals, g)
}

type weakHandle struct {
	target   *Object
	address  uintptr
	callback jsg.WeakCallback
}

// MakeWeak registers a finalizer for obj. The callback runs at most once,
// after a collection found obj unreachable and the embedder roots handler
// did not claim address. The handle is cleared before the callback runs.
func (iso *Isolate) MakeWeak(v jsg.Value, address uintptr, callback jsg.WeakCallback) error {
	iso.assertLocked("MakeWeak")
	obj, err := iso.owns(v)
	if err != nil {
		return err
	}
	if callback == nil {
		return fmt.Errorf("weak callback must not be nil")
	}
	if _, ok := iso.weak[obj]; ok {
		return fmt.Errorf("object %d is already weak", obj.id)
	}
	iso.weak[obj] = &weakHandle{
		target:   obj,
		address:  address,
		callback: callback,
	}
	return nil
}
