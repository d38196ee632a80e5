package tagcast

import (
	"fmt"
	"reflect"

	"github.com/wippyai/tagcast/errors"
)

// LayoutMode says where the identifier slot lives inside a tagged object.
type LayoutMode uint8

const (
	// FirstField reads the slot through the Tagged interface.
	FirstField LayoutMode = iota
	// FixedOffset reads the slot from byte 0 of an opaque pointer.
	FixedOffset
)

func (m LayoutMode) String() string {
	switch m {
	case FirstField:
		return "first-field"
	case FixedOffset:
		return "fixed-offset"
	default:
		return fmt.Sprintf("LayoutMode(%d)", uint8(m))
	}
}

var markerType = reflect.TypeFor[Marker]()

// VerifyLayout reports whether T can be allocated and cast under the active
// layout mode: T must be a struct embedding Marker directly, exactly once, and
// at offset 0 in fixed-offset mode.
func VerifyLayout[T any]() error {
	return describe[T]().err
}

func inspect(t reflect.Type) *descriptor {
	d := &descriptor{
		typ:   t,
		name:  t.String(),
		size:  t.Size(),
		align: uintptr(t.Align()),
	}

	if t.Kind() != reflect.Struct {
		d.err = errors.Layout(d.name, "shape must be a struct")
		return d
	}

	found := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type != markerType {
			continue
		}
		if !f.Anonymous {
			d.err = errors.Layout(d.name, fmt.Sprintf("field %s holds a Marker but does not embed it", f.Name))
			return d
		}
		found++
		d.markerOffset = f.Offset
	}

	switch {
	case found == 0:
		d.err = errors.Layout(d.name, "Marker must be embedded directly in the shape")
	case found > 1:
		d.err = errors.Layout(d.name, "Marker embedded more than once")
	case Layout == FixedOffset && d.markerOffset != 0:
		d.err = errors.Layout(d.name, fmt.Sprintf("Marker at offset %d, fixed-offset mode requires 0", d.markerOffset))
	}

	d.pointerFree = pointerFree(t)
	return d
}

// pointerFree reports whether values of t contain no pointers the garbage
// collector would need to trace.
func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || pointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
