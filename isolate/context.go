package isolate

import (
	"go.uber.org/zap"

	jsg "github.com/jerbob92/wazero-jsg/internal"
)

// Context is one global scope with its own Realm. Its global object and the
// functions instantiated from templates stay alive until it is disposed.
type Context struct {
	isolate   *Isolate
	global    *Object
	data      map[int]any
	functions map[*FunctionTemplate]*Object
	realm     *jsg.Realm
	disposed  bool
}

// NewContext creates a context and its Realm. It takes the execution lock,
// so it must not be called while holding it.
func (iso *Isolate) NewContext() *Context {
	locker := iso.Lock()
	defer locker.Unlock()

	ctx := &Context{
		isolate:   iso,
		data:      map[int]any{},
		functions: map[*FunctionTemplate]*Object{},
	}
	iso.contexts[ctx] = struct{}{}

	// Not created in a handle scope: the context roots it from here on.
	ctx.global = iso.newObject("global", nil)

	ctx.realm = jsg.NewRealm(iso)
	ctx.data[jsg.RealmSlot] = ctx.realm

	iso.logger.Debug("created context", zap.Uint64("global", ctx.global.id))
	return ctx
}

func (c *Context) Isolate() *Isolate {
	return c.isolate
}

func (c *Context) Global() *Object {
	return c.global
}

func (c *Context) Realm() *jsg.Realm {
	return c.realm
}

func (c *Context) IsDisposed() bool {
	return c.disposed
}

// Dispose closes the Realm and drops the context roots. Wrapper objects that
// were only reachable from it are finalized by the next collection.
func (c *Context) Dispose() {
	if c.disposed {
		return
	}

	locker := c.isolate.Lock()
	defer locker.Unlock()

	c.realm.Close()
	c.disposed = true
	c.functions = nil
	c.data = nil
	delete(c.isolate.contexts, c)
}

func (c *Context) trace(visit func(jsg.Value)) {
	if c.global != nil {
		visit(c.global)
	}
	for _, fn := range c.functions {
		visit(fn)
	}
}
