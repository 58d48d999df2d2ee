package main

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	jsg "github.com/jerbob92/wazero-jsg"
	"github.com/jerbob92/wazero-jsg/isolate"
)

type entry struct {
	id int
	// first is kept after it is dropped, Count and State stay readable.
	first   *jsg.Ref[probe]
	held    []*jsg.Ref[probe]
	wrapper jsg.Value
	pinned  bool
}

func (e *entry) state() jsg.State {
	return e.first.State()
}

func (e *entry) globalName() string {
	return "probe" + strconv.Itoa(e.id)
}

// session is one isolate the inspector manipulates.
type session struct {
	iso     *isolate.Isolate
	ctx     *isolate.Context
	log     *dropLog
	entries []*entry
	nextID  int
}

func newSession(logger *zap.Logger) *session {
	iso := isolate.New(isolate.NewConfig().WithLogger(logger))
	return &session{
		iso:    iso,
		ctx:    iso.NewContext(),
		log:    newDropLog(),
		nextID: 1,
	}
}

func (s *session) entry(i int) (*entry, error) {
	if i < 0 || i >= len(s.entries) {
		return nil, fmt.Errorf("no instance selected")
	}
	return s.entries[i], nil
}

func (s *session) alloc() error {
	return s.iso.RunInContext(s.ctx, func(lock *jsg.Lock) error {
		ref := jsg.Alloc(lock, probe{id: s.nextID, log: s.log})
		s.entries = append(s.entries, &entry{
			id:    s.nextID,
			first: ref,
			held:  []*jsg.Ref[probe]{ref},
		})
		s.nextID++
		return nil
	})
}

func (s *session) wrap(i int) error {
	e, err := s.entry(i)
	if err != nil {
		return err
	}
	if e.wrapper != nil {
		return fmt.Errorf("probe %d is already wrapped", e.id)
	}
	if len(e.held) == 0 {
		return fmt.Errorf("probe %d has no refs left", e.id)
	}

	return s.iso.RunInContext(s.ctx, func(lock *jsg.Lock) error {
		obj, err := jsg.Wrap(lock, e.held[0])
		if err != nil {
			return err
		}
		e.wrapper = obj
		return nil
	})
}

func (s *session) clone(i int) error {
	e, err := s.entry(i)
	if err != nil {
		return err
	}
	if len(e.held) == 0 {
		return fmt.Errorf("probe %d has no refs left", e.id)
	}
	e.held = append(e.held, e.held[0].Clone())
	return nil
}

func (s *session) drop(i int) error {
	e, err := s.entry(i)
	if err != nil {
		return err
	}
	if len(e.held) == 0 {
		return fmt.Errorf("probe %d has no refs left", e.id)
	}

	// The last drop of an unwrapped probe destroys it, which needs the lock.
	return s.iso.RunInContext(s.ctx, func(lock *jsg.Lock) error {
		last := e.held[len(e.held)-1]
		e.held = e.held[:len(e.held)-1]
		last.Drop()
		return nil
	})
}

// pin stores the wrapper on the global object, or removes it again.
func (s *session) pin(i int) error {
	e, err := s.entry(i)
	if err != nil {
		return err
	}
	if e.wrapper == nil {
		return fmt.Errorf("probe %d is not wrapped", e.id)
	}
	if e.pinned {
		s.ctx.Global().Delete(e.globalName())
		e.pinned = false
		return nil
	}
	if e.state() == jsg.StateCollected {
		return fmt.Errorf("probe %d was collected", e.id)
	}
	s.ctx.Global().Set(e.globalName(), e.wrapper)
	e.pinned = true
	return nil
}

// revive takes a new ref through the wrapper, which makes a weak probe strong
// again.
func (s *session) revive(i int) error {
	e, err := s.entry(i)
	if err != nil {
		return err
	}
	if e.wrapper == nil {
		return fmt.Errorf("probe %d is not wrapped", e.id)
	}
	if e.state() == jsg.StateCollected {
		return fmt.Errorf("probe %d was collected", e.id)
	}

	return s.iso.RunInContext(s.ctx, func(lock *jsg.Lock) error {
		ref, err := jsg.UnwrapRef[probe](lock, e.wrapper)
		if err != nil {
			return err
		}
		e.held = append(e.held, ref)
		return nil
	})
}

func (s *session) gc() {
	s.iso.LowMemoryNotification()
}

func (s *session) close() {
	for _, e := range s.entries {
		for _, ref := range e.held {
			_ = s.iso.RunInContext(s.ctx, func(lock *jsg.Lock) error {
				ref.Drop()
				return nil
			})
		}
		e.held = nil
	}
	s.ctx.Dispose()
}
