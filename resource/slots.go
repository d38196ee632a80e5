package resource

import (
	"sync"

	"github.com/wippyai/tagcast"
)

// slots is handle storage with a free list and borrow counts.
type slots struct {
	entries  []entry
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value   tagcast.Tagged
	shape   tagcast.ShapeID
	rep     uint32
	borrows uint32
	valid   bool
}

func newSlots() *slots {
	return &slots{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

func (s *slots) create(e entry) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	e.valid = true

	if len(s.freeList) > 0 {
		handle := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		s.entries[handle-1] = e
		return handle, nil
	}

	s.entries = append(s.entries, e)
	return Handle(len(s.entries)), nil
}

// get returns a copy of the entry behind handle.
func (s *slots) get(handle Handle) (entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.lookup(handle)
	if e == nil {
		return entry{}, false
	}
	return *e, true
}

func (s *slots) drop(handle Handle) (entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(handle)
	if e == nil {
		return entry{}, ErrNotFound
	}
	if e.borrows > 0 {
		return entry{}, ErrOutstandingBorrow
	}

	out := *e
	*e = entry{}
	s.freeList = append(s.freeList, handle)
	return out, nil
}

func (s *slots) borrow(handle Handle) (entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(handle)
	if e == nil {
		return entry{}, false
	}
	e.borrows++
	return *e, true
}

func (s *slots) returnBorrow(handle Handle) (entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(handle)
	if e == nil || e.borrows == 0 {
		return entry{}, false
	}
	e.borrows--
	return *e, true
}

func (s *slots) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// each visits live entries in handle order until fn returns false.
// fn must not call back into the table.
func (s *slots) each(fn func(Handle, entry) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, e := range s.entries {
		if e.valid && !fn(Handle(i+1), e) {
			return
		}
	}
}

type held struct {
	entry
	handle Handle
}

// close marks the storage closed and hands back every live entry.
func (s *slots) close() []held {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var live []held
	for i, e := range s.entries {
		if e.valid {
			live = append(live, held{entry: e, handle: Handle(i + 1)})
		}
	}
	s.entries = nil
	s.freeList = nil
	return live
}

// lookup must be called with mu held.
func (s *slots) lookup(handle Handle) *entry {
	if handle == 0 || int(handle) > len(s.entries) {
		return nil
	}
	e := &s.entries[handle-1]
	if !e.valid {
		return nil
	}
	return e
}
