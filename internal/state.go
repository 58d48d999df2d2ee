package jsg

import (
	"reflect"
	"sync"
	"unsafe"

	"go.uber.org/zap"
)

// WrapperState is attached to an Instance the moment it is exposed to the
// host. Its address is the only thing the host collector ever sees.
//
// All fields are written once in Wrap and read-only afterwards.
type WrapperState struct {
	address uintptr
	dropFn  func(this unsafe.Pointer)
	this    unsafe.Pointer
	object  Value
	class   string
	rtype   reflect.Type
	strong  func() int64
}

func (ws *WrapperState) Address() uintptr {
	return ws.address
}

func (ws *WrapperState) ClassName() string {
	return ws.class
}

// stateTable maps addresses handed to the host back to wrapper states.
// Addresses are never reused, so a stale address can only miss, never alias.
type stateTable struct {
	mu     sync.Mutex
	next   uintptr
	states map[uintptr]*WrapperState
}

var wrapperStates = &stateTable{
	states: map[uintptr]*WrapperState{},
}

// stateAlignment keeps addresses looking like aligned heap pointers in logs.
const stateAlignment = 16

func (st *stateTable) insert(state *WrapperState) uintptr {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.next += stateAlignment
	state.address = st.next
	st.states[state.address] = state
	return state.address
}

func (st *stateTable) lookup(address uintptr) (*WrapperState, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	state, ok := st.states[address]
	return state, ok
}

func (st *stateTable) remove(address uintptr) {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.states, address)
}

func (st *stateTable) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	return len(st.states)
}

// LiveWrapperStates returns how many wrapped instances have not been
// finalized yet.
func LiveWrapperStates() int {
	return wrapperStates.len()
}

// InvokeWeakDrop is the finalizer handed to the host's weak reference
// primitive. The host must call it at most once per address, only when the
// wrapper became unreachable and only under the execution lock.
func InvokeWeakDrop(address uintptr) {
	state, ok := wrapperStates.lookup(address)
	if !ok {
		invariant("InvokeWeakDrop", "no wrapper state at address %#x", address)
	}

	// Both are always set by Wrap.
	if state.dropFn == nil {
		invariant("InvokeWeakDrop", "drop function must be set for %s at %#x", state.class, address)
	}
	if state.this == nil {
		invariant("InvokeWeakDrop", "instance pointer must be set for %s at %#x", state.class, address)
	}

	if count := state.strong(); count > 0 {
		invariant("InvokeWeakDrop", "%s at %#x finalized with %d strong references left", state.class, address, count)
	}

	wrapperStates.remove(address)

	Logger().Debug("finalizing wrapped instance",
		zap.String("class", state.class),
		zap.Uintptr("address", address))

	state.dropFn(state.this)
}

type rootsHandler struct{}

// IsRoot keeps a wrapper alive for as long as native code holds a Ref to
// its instance.
func (rootsHandler) IsRoot(address uintptr) bool {
	state, ok := wrapperStates.lookup(address)
	if !ok {
		return false
	}
	return state.strong() > 0
}

// Roots is the RootsHandler every host isolate has to install.
var Roots RootsHandler = rootsHandler{}
