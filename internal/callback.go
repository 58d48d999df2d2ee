package jsg

// FunctionCallbackInfo carries one host invocation of a Callback: the
// receiver, the arguments and the slot for the return value.
type FunctionCallbackInfo struct {
	lock        *Lock
	this        Value
	newTarget   Value
	args        []Value
	returnValue Value
	threw       bool
}

func NewFunctionCallbackInfo(lock *Lock, this Value, newTarget Value, args []Value) *FunctionCallbackInfo {
	return &FunctionCallbackInfo{
		lock:      lock,
		this:      this,
		newTarget: newTarget,
		args:      args,
	}
}

func (info *FunctionCallbackInfo) Lock() *Lock {
	return info.lock
}

func (info *FunctionCallbackInfo) This() Value {
	return info.this
}

// NewTarget is undefined unless the callback runs as a constructor.
func (info *FunctionCallbackInfo) NewTarget() Value {
	if info.newTarget == nil {
		return info.lock.isolate.Undefined()
	}
	return info.newTarget
}

func (info *FunctionCallbackInfo) IsConstructCall() bool {
	return info.newTarget != nil && !info.newTarget.IsUndefined()
}

func (info *FunctionCallbackInfo) Args() []Value {
	return info.args
}

func (info *FunctionCallbackInfo) Len() int {
	return len(info.args)
}

// Arg returns argument i, or undefined when fewer arguments were passed.
func (info *FunctionCallbackInfo) Arg(i int) Value {
	if i < 0 || i >= len(info.args) {
		return info.lock.isolate.Undefined()
	}
	return info.args[i]
}

func (info *FunctionCallbackInfo) SetReturnValue(v Value) {
	info.returnValue = v
}

// ReturnValue is nil when the callback did not set one.
func (info *FunctionCallbackInfo) ReturnValue() Value {
	return info.returnValue
}

func (info *FunctionCallbackInfo) Throw(err error) {
	info.threw = true
	info.lock.Throw(err)
}

func (info *FunctionCallbackInfo) Threw() bool {
	return info.threw
}

// HandleResult completes a callback: on success the value is wrapped with typ
// and returned to the host, otherwise err is thrown.
func HandleResult[T any](info *FunctionCallbackInfo, typ Type[T], value T, err error) {
	if err != nil {
		info.Throw(err)
		return
	}
	info.SetReturnValue(typ.Wrap(info.lock, value))
}
