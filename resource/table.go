package resource

import (
	"reflect"
	"sync"

	"github.com/wippyai/tagcast"
)

// Table maps handles to tagged objects and linear-memory representations.
type Table struct {
	slots     *slots
	observers []Observer
	obsMu     sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{slots: newSlots()}
}

// Insert stores obj under the shape stamped in its identifier slot. In
// checked builds an object that was never stamped is rejected with
// ErrUnstamped.
func (t *Table) Insert(obj tagcast.Tagged) (Handle, error) {
	if isNil(obj) {
		return 0, ErrNilValue
	}
	shape := tagcast.Identify(tagcast.RefOf(obj))
	if tagcast.Checked && shape == tagcast.Unknown {
		return 0, ErrUnstamped
	}
	e := entry{value: obj, shape: shape}
	h, err := t.slots.create(e)
	if err != nil {
		return 0, err
	}
	t.notify(EventCreated, h, e)
	return h, nil
}

// InsertRep stores a representation value, typically a linear-memory
// pointer, for an object of the given shape.
func (t *Table) InsertRep(shape tagcast.ShapeID, rep uint32) (Handle, error) {
	if shape == tagcast.Unknown {
		return 0, ErrUnstamped
	}
	e := entry{shape: shape, rep: rep}
	h, err := t.slots.create(e)
	if err != nil {
		return 0, err
	}
	t.notify(EventCreated, h, e)
	return h, nil
}

// Get returns the object behind handle. It is false for representation
// entries.
func (t *Table) Get(handle Handle) (tagcast.Tagged, bool) {
	e, ok := t.slots.get(handle)
	if !ok || e.value == nil {
		return nil, false
	}
	return e.value, true
}

// GetTyped returns the object behind handle only if it was inserted with
// the given shape. Unknown never matches. Checked-off builds record no
// shapes and return any object.
func (t *Table) GetTyped(handle Handle, shape tagcast.ShapeID) (tagcast.Tagged, bool) {
	e, ok := t.slots.get(handle)
	if !ok || e.value == nil {
		return nil, false
	}
	if tagcast.Checked && (shape == tagcast.Unknown || e.shape != shape) {
		return nil, false
	}
	return e.value, true
}

// Rep returns the representation value behind handle.
func (t *Table) Rep(handle Handle) (uint32, bool) {
	e, ok := t.slots.get(handle)
	if !ok || e.value != nil {
		return 0, false
	}
	return e.rep, true
}

// RepTyped returns the representation value behind handle only if it was
// inserted with the given shape. Unknown never matches.
func (t *Table) RepTyped(handle Handle, shape tagcast.ShapeID) (uint32, bool) {
	e, ok := t.slots.get(handle)
	if !ok || e.value != nil || shape == tagcast.Unknown || e.shape != shape {
		return 0, false
	}
	return e.rep, true
}

// Shape returns the shape identifier recorded for handle.
func (t *Table) Shape(handle Handle) (tagcast.ShapeID, bool) {
	e, ok := t.slots.get(handle)
	if !ok {
		return tagcast.Unknown, false
	}
	return e.shape, true
}

// Lookup returns the object behind handle cast to *T.
func Lookup[T any, P tagcast.Shape[T]](t *Table, handle Handle) (*T, bool) {
	obj, ok := t.Get(handle)
	if !ok {
		return nil, false
	}
	out := tagcast.Cast[T, P](tagcast.RefOf(obj))
	return out, out != nil
}

// Borrow pins handle until ReturnBorrow.
func (t *Table) Borrow(handle Handle) bool {
	e, ok := t.slots.borrow(handle)
	if ok {
		t.notify(EventBorrowed, handle, e)
	}
	return ok
}

// ReturnBorrow releases one borrow of handle.
func (t *Table) ReturnBorrow(handle Handle) bool {
	e, ok := t.slots.returnBorrow(handle)
	if ok {
		t.notify(EventBorrowReturned, handle, e)
	}
	return ok
}

// Remove drops handle. Objects implementing Dropper are dropped first.
func (t *Table) Remove(handle Handle) (tagcast.Tagged, error) {
	e, err := t.slots.drop(handle)
	if err != nil {
		return nil, err
	}
	t.release(handle, e)
	return e.value, nil
}

// Each visits live entries in handle order until fn returns false. The
// object is nil for representation entries.
func (t *Table) Each(fn func(h Handle, shape tagcast.ShapeID, obj tagcast.Tagged, rep uint32) bool) {
	var all []held
	t.slots.each(func(h Handle, e entry) bool {
		all = append(all, held{entry: e, handle: h})
		return true
	})
	for _, e := range all {
		if !fn(e.handle, e.shape, e.value, e.rep) {
			return
		}
	}
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	return t.slots.len()
}

// Clear removes every entry without outstanding borrows.
func (t *Table) Clear() {
	var handles []Handle
	t.slots.each(func(h Handle, _ entry) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		_, _ = t.Remove(h)
	}
}

// Close drops every entry, borrowed or not, and rejects further inserts.
func (t *Table) Close() error {
	for _, e := range t.slots.close() {
		t.release(e.handle, e.entry)
	}
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table) release(handle Handle, e entry) {
	if d, ok := e.value.(Dropper); ok {
		d.Drop()
	}
	t.notify(EventDropped, handle, e)
}

func (t *Table) notify(typ EventType, handle Handle, e entry) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(Event{
			Value:  e.value,
			Handle: handle,
			Shape:  e.shape,
			Rep:    e.rep,
			Type:   typ,
		})
	}
}

// isNil also catches a nil pointer wrapped in a non-nil interface.
func isNil(obj tagcast.Tagged) bool {
	if obj == nil {
		return true
	}
	v := reflect.ValueOf(obj)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
