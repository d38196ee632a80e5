package arena

import (
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/tagcast/errors"
)

const wordSize = unsafe.Sizeof(uint64(0))

// Stats is a snapshot of arena usage.
type Stats struct {
	Capacity uintptr // slab size in bytes
	InUse    uintptr // bytes held by live blocks
	Peak     uintptr // high-water mark of the bump pointer
	Live     int     // live blocks
	Allocs   int     // successful allocations
	Reused   int     // allocations served from a free list
	Frees    int     // successful frees
	Failures int     // allocations that could not be satisfied
}

type class struct {
	size  uintptr
	align uintptr
}

// Arena is a fixed-capacity slab allocator.
type Arena struct {
	mem   []byte
	free  map[class][]uintptr
	live  map[uintptr]class
	next  uintptr
	stats Stats
	mu    sync.Mutex
}

// New creates an arena with at least capacity bytes of backing memory.
func New(capacity int) *Arena {
	if capacity < 0 {
		capacity = 0
	}
	words := (uintptr(capacity) + wordSize - 1) / wordSize
	slab := make([]uint64, words)

	var mem []byte
	if words > 0 {
		mem = unsafe.Slice((*byte)(unsafe.Pointer(&slab[0])), words*wordSize)
	}

	return &Arena{
		mem:   mem,
		free:  make(map[class][]uintptr),
		live:  make(map[uintptr]class),
		stats: Stats{Capacity: uintptr(len(mem))},
	}
}

// Alloc reserves size bytes aligned to align. The block is zeroed.
func (a *Arena) Alloc(size, align uintptr) (unsafe.Pointer, error) {
	c, err := normalize(size, align)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if list := a.free[c]; len(list) > 0 {
		off := list[len(list)-1]
		a.free[c] = list[:len(list)-1]
		clear(a.mem[off : off+c.size])
		a.commit(off, c)
		a.stats.Reused++
		return unsafe.Pointer(&a.mem[off]), nil
	}

	off, ok := a.bump(c)
	if !ok {
		a.stats.Failures++
		if ce := Logger().Check(zap.DebugLevel, "arena exhausted"); ce != nil {
			ce.Write(
				zap.Uintptr("size", c.size),
				zap.Uintptr("align", c.align),
				zap.Uintptr("in_use", a.stats.InUse),
				zap.Uintptr("capacity", a.stats.Capacity),
			)
		}
		return nil, errors.AllocationFailed(errors.PhaseAlloc, uint64(size), uint64(align))
	}
	a.commit(off, c)
	return unsafe.Pointer(&a.mem[off]), nil
}

// Free returns a block obtained from Alloc. Pointers the arena does not own,
// blocks already freed and size/align mismatches are logged and ignored.
func (a *Arena) Free(ptr unsafe.Pointer, size, align uintptr) {
	if err := a.release(ptr, size, align); err != nil {
		Logger().Warn("arena free rejected", zap.Error(err))
	}
}

func (a *Arena) release(ptr unsafe.Pointer, size, align uintptr) error {
	c, err := normalize(size, align)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	off, ok := a.offset(ptr)
	if !ok {
		return errors.InvalidFree(uint64(uintptr(ptr)), "pointer not owned by arena")
	}
	have, ok := a.live[off]
	if !ok {
		return errors.InvalidFree(uint64(off), "block is not live")
	}
	if have != c {
		return errors.InvalidFree(uint64(off), "size or alignment differs from allocation")
	}

	delete(a.live, off)
	a.free[c] = append(a.free[c], off)
	a.stats.InUse -= c.size
	a.stats.Live--
	a.stats.Frees++
	return nil
}

// Owns reports whether ptr points into the arena's slab.
func (a *Arena) Owns(ptr unsafe.Pointer) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.offset(ptr)
	return ok
}

// Stats returns a snapshot of arena usage.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Reset forgets every block. Pointers obtained before Reset must not be used.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.mem)
	a.free = make(map[class][]uintptr)
	a.live = make(map[uintptr]class)
	a.next = 0
	a.stats = Stats{Capacity: uintptr(len(a.mem))}
}

func (a *Arena) bump(c class) (uintptr, bool) {
	if len(a.mem) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(&a.mem[0]))
	off := alignUp(base+a.next, c.align) - base
	if off > uintptr(len(a.mem)) || c.size > uintptr(len(a.mem))-off {
		return 0, false
	}
	a.next = off + c.size
	if a.next > a.stats.Peak {
		a.stats.Peak = a.next
	}
	return off, true
}

func (a *Arena) commit(off uintptr, c class) {
	a.live[off] = c
	a.stats.InUse += c.size
	a.stats.Live++
	a.stats.Allocs++
}

func (a *Arena) offset(ptr unsafe.Pointer) (uintptr, bool) {
	if ptr == nil || len(a.mem) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(&a.mem[0]))
	p := uintptr(ptr)
	if p < base || p >= base+uintptr(len(a.mem)) {
		return 0, false
	}
	return p - base, true
}

// normalize rounds size up to whole words so every block can hold a Marker,
// and defaults a zero align to the word size.
func normalize(size, align uintptr) (class, error) {
	if align == 0 {
		align = wordSize
	}
	if align&(align-1) != 0 {
		return class{}, errors.InvalidInput(errors.PhaseAlloc, "alignment must be a power of two")
	}
	if size == 0 {
		size = wordSize
	}
	if size > ^uintptr(0)-(wordSize-1) {
		return class{}, errors.AllocationFailed(errors.PhaseAlloc, uint64(size), uint64(align))
	}
	return class{size: alignUp(size, wordSize), align: align}, nil
}

func alignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}
