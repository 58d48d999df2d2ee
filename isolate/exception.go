package isolate

import (
	"fmt"

	jsg "github.com/jerbob92/wazero-jsg/internal"
)

// Exception is a script exception surfaced to Go.
type Exception struct {
	Type    jsg.ExceptionType
	Message string
	// Value is the thrown error object.
	Value jsg.Value
}

func (e *Exception) Error() string {
	return e.Type.String() + ": " + e.Message
}

// ThrowException schedules an exception. Only the first exception thrown
// before it is taken is kept.
func (iso *Isolate) ThrowException(t jsg.ExceptionType, message string) {
	iso.assertLocked("ThrowException")
	if iso.pending != nil {
		return
	}

	errObj := iso.newObject(t.String(), nil)
	errObj.Set("name", newString(t.String()))
	errObj.Set("message", newString(message))

	iso.pending = &Exception{
		Type:    t,
		Message: message,
		Value:   errObj,
	}
}

func (iso *Isolate) HasPendingException() bool {
	return iso.pending != nil
}

func (iso *Isolate) takeException() *Exception {
	exc := iso.pending
	iso.pending = nil
	return exc
}

func (iso *Isolate) typeError(format string, args ...any) *Exception {
	iso.ThrowException(jsg.ExceptionTypeError, fmt.Sprintf(format, args...))
	return iso.takeException()
}
