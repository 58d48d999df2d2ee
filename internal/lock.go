package jsg

// Lock gives access to host operations while the host execution lock is
// held. It is handed to resource callbacks and must not be retained after
// the callback returns.
type Lock struct {
	isolate Isolate
}

func NewLock(isolate Isolate) *Lock {
	if isolate == nil {
		invariant("NewLock", "isolate must not be nil")
	}
	return &Lock{
		isolate: isolate,
	}
}

func (l *Lock) Isolate() Isolate {
	return l.isolate
}

// Realm returns the realm of the context the isolate has currently entered.
func (l *Lock) Realm() *Realm {
	realm, ok := l.isolate.ContextData(RealmSlot).(*Realm)
	if !ok || realm == nil {
		invariant("Lock.Realm", "no realm installed in the current context")
	}
	return realm
}

func (l *Lock) NewObject() Value {
	return l.isolate.NewObject()
}

// Throw schedules err as a script exception.
func (l *Lock) Throw(err error) {
	jsgErr := AsError(err)
	l.isolate.ThrowException(jsgErr.Name, jsgErr.Message)
}

func (l *Lock) AssertLocked(op string) {
	if !l.isolate.IsLocked() {
		invariant(op, "the isolate execution lock is not held")
	}
}
