package jsg

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// RealmSlot is the context embedder data slot the host stores the Realm in.
const RealmSlot = 1

// Realm is the per-context state of this package. The host creates one for
// every context and closes it when the context is disposed.
type Realm struct {
	isolate   Isolate
	resources *Resources
	closed    bool
}

func NewRealm(isolate Isolate) *Realm {
	isolate.SetEmbedderRootsHandler(Roots)
	return &Realm{
		isolate:   isolate,
		resources: newResources(),
	}
}

func (r *Realm) Isolate() Isolate {
	return r.isolate
}

func (r *Realm) Resources() *Resources {
	r.assertOpen("Realm.Resources")
	return r.resources
}

// Close drops every cached template. Wrapped instances created in this realm
// are not affected, they are owned by the host heap.
func (r *Realm) Close() {
	if !r.isolate.IsLocked() {
		invariant("Realm.Close", "the isolate execution lock is not held")
	}
	if r.closed {
		return
	}
	r.closed = true
	r.resources = nil
}

func (r *Realm) IsClosed() bool {
	return r.closed
}

func (r *Realm) assertOpen(op string) {
	if r.closed {
		invariant(op, "realm is closed")
	}
}

type resourceEntry struct {
	descriptor *ResourceDescriptor
	template   FunctionTemplate
	impl       any
}

// Resources caches one template per resource type.
type Resources struct {
	entries map[reflect.Type]*resourceEntry
	order   []reflect.Type
}

func newResources() *Resources {
	return &Resources{
		entries: map[reflect.Type]*resourceEntry{},
	}
}

func (r *Resources) Len() int {
	return len(r.order)
}

// Each calls fn for every cached entry in creation order.
func (r *Resources) Each(fn func(desc *ResourceDescriptor, template FunctionTemplate)) {
	for _, typ := range r.order {
		entry := r.entries[typ]
		fn(entry.descriptor, entry.template)
	}
}

// ResourceImpl is the cached registry entry of R within one realm.
type ResourceImpl[R Resource] struct {
	descriptor *ResourceDescriptor
	template   FunctionTemplate
}

func (ri *ResourceImpl[R]) Constructor() FunctionTemplate {
	return ri.template
}

func (ri *ResourceImpl[R]) Descriptor() *ResourceDescriptor {
	return ri.descriptor
}

// GetResources returns the entry of R in realm, building its descriptor and
// template on first use. Later calls return the same entry.
func GetResources[R Resource](realm *Realm) *ResourceImpl[R] {
	realm.assertOpen("GetResources")
	if !realm.isolate.IsLocked() {
		invariant("GetResources", "the isolate execution lock is not held")
	}

	typ := reflect.TypeFor[R]()
	if entry, ok := realm.resources.entries[typ]; ok {
		return entry.impl.(*ResourceImpl[R])
	}

	desc := DescriptorFor[R]()
	template, err := realm.isolate.CreateResourceTemplate(desc)
	if err != nil {
		invariant("GetResources", "could not create template for %s: %v", desc.Name, err)
	}

	impl := &ResourceImpl[R]{
		descriptor: desc,
		template:   template,
	}
	realm.resources.entries[typ] = &resourceEntry{
		descriptor: desc,
		template:   template,
		impl:       impl,
	}
	realm.resources.order = append(realm.resources.order, typ)

	Logger().Debug("created resource template",
		zap.String("class", desc.Name),
		zap.Int("methods", len(desc.Methods)),
		zap.Int("static_methods", len(desc.StaticMethods)))

	return impl
}

type RealmKey struct{}

// Attach returns a context that carries the realm, for host functions that
// only receive a context.Context.
func (r *Realm) Attach(ctx context.Context) context.Context {
	return context.WithValue(ctx, RealmKey{}, r)
}

func RealmFromContext(ctx context.Context) (*Realm, error) {
	raw := ctx.Value(RealmKey{})
	if raw == nil {
		return nil, fmt.Errorf("jsg realm not found in context")
	}
	realm, ok := raw.(*Realm)
	if !ok {
		return nil, fmt.Errorf("context value %v not of type %T", raw, realm)
	}
	return realm, nil
}

func MustRealmFromContext(ctx context.Context) *Realm {
	realm, err := RealmFromContext(ctx)
	if err != nil {
		panic(fmt.Errorf("could not get jsg realm from context: %w, make sure to attach it with \"ctx = realm.Attach(ctx)\"", err))
	}
	return realm
}
