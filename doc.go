// Package tagcast provides runtime shape identification for objects reached
// through untyped pointers.
//
// Every taggable struct embeds a Marker. Objects allocated through Alloc,
// AllocFrom or New get the identifier of their shape stamped into that Marker
// exactly once. Cast later compares the stamp against the shape the caller
// asks for and hands back a typed pointer to the same memory only on an exact
// match; otherwise it returns nil.
//
// # Architecture Overview
//
//	tagcast/          Marker, Alloc, Cast and the shape identifier table
//	├── errors/       Structured error types (phase + kind)
//	├── arena/        Fixed-capacity manual allocator for pointer-free shapes
//	├── linmem/       Tagged objects in WebAssembly linear memory (wazero)
//	├── resource/     Handle table with shape-checked lookup
//	└── cmd/tagdemo/  Demonstration program and interactive inspector
//
// # Quick Start
//
//	type Foo struct {
//		tagcast.Marker
//		A int32
//	}
//
//	type Bar struct {
//		tagcast.Marker
//		B int32
//	}
//
//	var foo *Foo
//	if !tagcast.Alloc(&foo) {
//		log.Fatal("out of memory")
//	}
//
//	var src tagcast.Ref = tagcast.RefOf(foo)
//	tagcast.Cast[Foo](src) // == foo
//	tagcast.Cast[Bar](src) // == nil
//
// Objects built with a composite literal carry no stamp and never match any
// shape.
//
// # Manual Memory
//
// AllocFrom and New take an Allocator. A nil Allocator selects the Go heap.
// Any other allocator hands out memory the garbage collector does not scan,
// so only pointer-free shapes may live there; New reports
// errors.KindUnsupported otherwise. Reservation failure is reported as a
// false result from AllocFrom and as errors.KindAllocation from New.
//
//	a := arena.New(64 << 10)
//	var foo *Foo
//	if !tagcast.AllocFrom(a, &foo) {
//		// arena exhausted
//	}
//	defer tagcast.Free(a, foo)
//
// # Layout Modes
//
// The identifier slot location is selected at build time.
//
// First-field mode (default): Ref is the Tagged interface. The slot is read
// through the interface, so the caller needs a value known to be some tagged
// shape but not which one. Embed Marker as the first field.
//
// Fixed-offset mode (build tag tagcast_offset0): Ref is unsafe.Pointer and the
// slot is read from byte 0 of the object, so a check works through an opaque
// pointer. Every shape in the program must embed Marker at offset 0.
// Allocation rejects shapes that do not, and the offset can also be pinned at
// compile time next to the type declaration:
//
//	var _ [0]struct{} = [unsafe.Offsetof(Foo{}.Marker)]struct{}{}
//
// A pointer that does not reference a tagged object is read anyway; the
// result is a silent misread, not a reported error.
//
// # Checked-Off Mode
//
// Build tag tagcast_unchecked makes Marker zero-sized, removes the stamp and
// turns Cast into an unconditional reinterpretation that succeeds for any
// non-nil source without consulting any shape table. Reinterpreting one
// shape as another is only meaningful when both declare Marker first. It
// offers no safety at all and exists only to remove the per-cast comparison
// in trusted builds. Checked reports which mode is active.
//
// # Shape Identifiers
//
// ShapeID values are small integers interned per distinct Go type, or per
// distinct name for shapes that live outside the Go type system (see
// InternName and package linmem). Zero is never assigned. The table maps
// shapes to ids only; it never records objects.
package tagcast
