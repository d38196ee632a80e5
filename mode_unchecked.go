//go:build tagcast_unchecked

package tagcast

// Checked is false: Marker is zero-sized, nothing is stamped and every cast
// of a non-nil source succeeds whatever the object really is.
const Checked = false

// Marker is the identifier slot. In this build it occupies no memory.
type Marker struct{}

func (m *Marker) marker() *Marker { return m }

func (*Marker) stamp(ShapeID) {}

func (*Marker) shape() ShapeID { return Unknown }

// Cast reinterprets src as a *T without looking at it. A nil src yields nil.
// Reinterpreting an object of another shape is only meaningful when both
// shapes declare Marker as their first field.
func Cast[T any, P Shape[T]](src Ref) *T {
	if src == nil {
		return nil
	}
	return reinterpret[T, P](src)
}
