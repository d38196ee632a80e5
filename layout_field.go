//go:build !tagcast_offset0

package tagcast

import "unsafe"

// Layout is the identifier slot convention compiled into this build.
const Layout = FirstField

// Ref is what casts accept: any tagged object, shape not yet known.
type Ref = Tagged

// RefOf returns the cast source for obj.
func RefOf(obj Tagged) Ref { return obj }

func markerOf(src Ref) *Marker { return src.marker() }

func reinterpret[T any, P Shape[T]](src Ref) *T {
	if p, ok := src.(P); ok {
		return (*T)(p)
	}
	return (*T)(unsafe.Pointer(src.marker()))
}
