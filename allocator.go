package tagcast

import "unsafe"

// Allocator reserves raw memory for tagged objects.
//
// Memory handed out by an Allocator is invisible to the garbage collector,
// so tagcast only places pointer-free shapes in it. A nil Allocator passed to
// AllocFrom, New or Free selects the Go heap instead.
type Allocator interface {
	// Alloc returns size bytes aligned to align, or an error when the
	// reservation cannot be satisfied.
	Alloc(size, align uintptr) (unsafe.Pointer, error)

	// Free returns memory obtained from Alloc with the same size and align.
	Free(ptr unsafe.Pointer, size, align uintptr)
}
