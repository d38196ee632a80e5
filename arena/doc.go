// Package arena provides a fixed-capacity allocator for tagged objects whose
// lifetime is managed by hand.
//
// An Arena owns a single slab reserved up front. Alloc carves blocks out of
// it with a bump pointer and recycles freed blocks through per-(size, align)
// free lists. When the slab cannot satisfy a request, Alloc fails with
// errors.KindAllocation instead of growing, which makes reservation failure
// observable and testable:
//
//	a := arena.New(4096)
//	var foo *Foo
//	if !tagcast.AllocFrom(a, &foo) {
//		// out of arena memory
//	}
//	tagcast.Free(a, foo)
//
// The slab is not scanned by the garbage collector for pointers. Only
// pointer-free values may be stored in it; tagcast.New enforces this for
// tagged shapes.
//
// An Arena is safe for concurrent use.
package arena
