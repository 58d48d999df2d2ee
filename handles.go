package jsg

import (
	"fmt"

	internal "github.com/jerbob92/wazero-jsg/internal"
	"github.com/jerbob92/wazero-jsg/isolate"
)

// Reserved handles, valid in every table.
const (
	HandleInvalid   int32 = 0
	HandleUndefined int32 = 1
	HandleNull      int32 = 2
	HandleTrue      int32 = 3
	HandleFalse     int32 = 4
)

type valueHandle struct {
	value    internal.Value
	global   *isolate.Global
	refCount int
}

// handleTable hands out guest-visible integer handles for host values. Every
// live handle pins its value with a persistent handle, so values the guest
// holds are never collected.
type handleTable struct {
	iso       *isolate.Isolate
	allocated []*valueHandle
	freelist  []int32
	reserved  int

	// args collects jsg_push_arg values for the next call.
	args []internal.Value
	// exception is the last exception thrown by a call from the guest.
	exception *isolate.Global
}

func newHandleTable(iso *isolate.Isolate) *handleTable {
	return &handleTable{
		iso: iso,
		allocated: []*valueHandle{
			nil, // Reserve slot 0 so that 0 is always an invalid handle
			{value: iso.Undefined()},
			{value: iso.Null()},
			{value: iso.NewBoolean(true)},
			{value: iso.NewBoolean(false)},
		},
		freelist: []int32{},
		reserved: 5,
	}
}

func (ht *handleTable) get(id int32) (*valueHandle, error) {
	if id < 1 || int(id) > len(ht.allocated)-1 || ht.allocated[id] == nil {
		return nil, fmt.Errorf("invalid handle: %d", id)
	}

	return ht.allocated[int(id)], nil
}

// value resolves a handle. The invalid handle reads as undefined.
func (ht *handleTable) value(id int32) (internal.Value, error) {
	if id == HandleInvalid {
		return ht.iso.Undefined(), nil
	}
	handle, err := ht.get(id)
	if err != nil {
		return nil, err
	}
	return handle.value, nil
}

func (ht *handleTable) toHandle(value internal.Value) int32 {
	switch {
	case value == nil || value.IsUndefined():
		return HandleUndefined
	case value.IsNull():
		return HandleNull
	case value.IsBoolean():
		if ht.iso.ToBoolean(value) {
			return HandleTrue
		}
		return HandleFalse
	}

	handle := &valueHandle{
		value:    value,
		refCount: 1,
	}
	if value.IsObject() {
		handle.global = ht.iso.NewGlobal(value)
	}
	return ht.allocate(handle)
}

func (ht *handleTable) allocate(handle *valueHandle) int32 {
	var id int32

	// Reuse items to free when available
	if len(ht.freelist) > 0 {
		id = ht.freelist[len(ht.freelist)-1]
		ht.freelist = ht.freelist[:len(ht.freelist)-1]
		ht.allocated[id] = handle
	} else {
		id = int32(len(ht.allocated))
		ht.allocated = append(ht.allocated, handle)
	}

	return id
}

func (ht *handleTable) free(id int32) error {
	if int(id) < ht.reserved || int(id) > len(ht.allocated)-1 {
		return fmt.Errorf("invalid handle: %d", id)
	}

	if handle := ht.allocated[id]; handle != nil && handle.global != nil {
		handle.global.Reset()
	}
	ht.allocated[id] = nil
	ht.freelist = append(ht.freelist, id)

	return nil
}

func (ht *handleTable) incref(id int32) error {
	if int(id) >= ht.reserved {
		handle, err := ht.get(id)
		if err != nil {
			return err
		}
		handle.refCount++
	}

	return nil
}

func (ht *handleTable) decref(id int32) error {
	if int(id) >= ht.reserved {
		handle, err := ht.get(id)
		if err != nil {
			return err
		}

		handle.refCount--
		if handle.refCount == 0 {
			return ht.free(id)
		}
	}

	return nil
}

// live is the number of non-reserved handles in use.
func (ht *handleTable) live() int {
	return len(ht.allocated) - ht.reserved - len(ht.freelist)
}

func (ht *handleTable) setException(value internal.Value) {
	ht.clearException()
	ht.exception = ht.iso.NewGlobal(value)
}

func (ht *handleTable) clearException() {
	if ht.exception != nil {
		ht.exception.Reset()
		ht.exception = nil
	}
}

// takeException moves the last exception into a new handle, or returns the
// invalid handle when there is none.
func (ht *handleTable) takeException() int32 {
	if ht.exception == nil {
		return HandleInvalid
	}
	value := ht.exception.Get()
	id := ht.toHandle(value)
	ht.clearException()
	return id
}

func (ht *handleTable) takeArgs() []internal.Value {
	args := ht.args
	ht.args = nil
	return args
}
