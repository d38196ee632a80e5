// Package linmem places tagged objects in WebAssembly linear memory.
//
// Pointers are uint32 offsets into a wazero memory. Object shapes are WIT
// records; in checked builds every object starts with a u32 shape identifier
// at offset 0, so a cast only needs the pointer and the expected shape:
//
//	mod, _ := linmem.NewMemoryModule(ctx, rt, "heap", 1, 16)
//	mem := linmem.WrapMemory(mod.Memory())
//	heap := linmem.NewHeap(mem, linmem.NewPageAllocator(mod.Memory(), 0))
//
//	point, _ := linmem.DefineShape("point", pointDef)
//	ptr, ok := heap.Alloc(point)
//	if _, ok := heap.Cast(ptr, point); ok {
//		_ = heap.Store(ptr, point, "x", 7)
//	}
//
// Identifiers come from tagcast.InternName, so a shape named here shares the
// process-wide identifier space with Go shapes. Builds with the
// tagcast_unchecked tag drop the identifier slot and casts always succeed.
package linmem
