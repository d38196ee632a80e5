//go:build !tagcast_unchecked

package tagcast

import "unsafe"

// Checked is true when identifier slots are stamped and compared.
const Checked = true

// Marker is the identifier slot. Embed it in every taggable struct.
// The zero Marker carries Unknown and matches no shape.
type Marker struct {
	id ShapeID
}

func (m *Marker) marker() *Marker { return m }

func (m *Marker) stamp(id ShapeID) { m.id = id }

func (m *Marker) matches(id ShapeID) bool { return m.id == id }

func (m *Marker) shape() ShapeID { return m.id }

// Cast returns src as a *T if its identifier slot holds T's identifier, and
// nil otherwise. The result aliases src. A nil src yields nil.
func Cast[T any, P Shape[T]](src Ref) *T {
	if src == nil {
		return nil
	}
	d := describe[T]()
	if d.err != nil {
		return nil
	}
	m := markerOf(src)
	if !m.matches(d.id) {
		return nil
	}
	return (*T)(unsafe.Add(unsafe.Pointer(m), -int(d.markerOffset)))
}
