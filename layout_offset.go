//go:build tagcast_offset0

package tagcast

import "unsafe"

// Layout is the identifier slot convention compiled into this build.
const Layout = FixedOffset

// Ref is what casts accept: an opaque pointer whose first bytes hold a Marker.
type Ref = unsafe.Pointer

// RefOf returns the cast source for obj. The Marker sits at offset 0, so its
// address is the object's address.
func RefOf(obj Tagged) Ref { return unsafe.Pointer(obj.marker()) }

func markerOf(src Ref) *Marker { return (*Marker)(src) }

func reinterpret[T any, P Shape[T]](src Ref) *T { return (*T)(src) }
