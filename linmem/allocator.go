package linmem

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/tagcast/errors"
	"github.com/wippyai/tagcast/linmem/internal/layout"
)

// Growable is the part of api.Memory the page allocator needs.
type Growable interface {
	Size() uint32
	Grow(deltaPages uint32) (previousPages uint32, ok bool)
}

// AllocStats is a snapshot of page allocator usage.
type AllocStats struct {
	InUse    uint32 // bytes held by live blocks
	Break    uint32 // bump pointer
	Grown    uint32 // pages added since creation
	Live     int
	Allocs   int
	Reused   int
	Frees    int
	Failures int
}

type blockClass struct {
	size  uint32
	align uint32
}

// PageAllocator hands out blocks of a linear memory, growing it a page at a
// time. Freed blocks are kept on per-class free lists. Offset 0 is never
// returned so that 0 can stand for a null pointer.
type PageAllocator struct {
	mem   Growable
	free  map[blockClass][]uint32
	live  map[uint32]blockClass
	next  uint32
	stats AllocStats
	mu    sync.Mutex
}

// NewPageAllocator creates an allocator that starts handing out memory at
// base. A base of zero starts at the first word past the null pointer.
func NewPageAllocator(mem Growable, base uint32) *PageAllocator {
	if base < minBlock {
		base = minBlock
	}
	return &PageAllocator{
		mem:  mem,
		free: make(map[blockClass][]uint32),
		live: make(map[uint32]blockClass),
		next: base,
	}
}

const minBlock = 8

// Alloc reserves size bytes aligned to align. Reused blocks are not zeroed;
// Heap clears every object it hands out.
func (p *PageAllocator) Alloc(size, align uint32) (uint32, error) {
	c, err := classify(size, align)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if list := p.free[c]; len(list) > 0 {
		ptr := list[len(list)-1]
		p.free[c] = list[:len(list)-1]
		p.commit(ptr, c)
		p.stats.Reused++
		return ptr, nil
	}

	ptr, ok := p.bump(c)
	if !ok {
		p.stats.Failures++
		if ce := Logger().Check(zap.DebugLevel, "linear memory exhausted"); ce != nil {
			ce.Write(
				zap.Uint32("size", c.size),
				zap.Uint32("align", c.align),
				zap.Uint32("memory_bytes", p.mem.Size()),
			)
		}
		return 0, errors.AllocationFailed(errors.PhaseAlloc, uint64(size), uint64(align))
	}
	p.commit(ptr, c)
	return ptr, nil
}

// Free returns a block to its free list. Unknown pointers and double frees
// are logged and ignored.
func (p *PageAllocator) Free(ptr, size, align uint32) {
	if err := p.release(ptr, size, align); err != nil {
		Logger().Warn("linear memory free rejected", zap.Error(err))
	}
}

func (p *PageAllocator) release(ptr, size, align uint32) error {
	c, err := classify(size, align)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	have, ok := p.live[ptr]
	if !ok {
		return errors.InvalidFree(uint64(ptr), "block is not live")
	}
	if have != c {
		return errors.InvalidFree(uint64(ptr), "size or alignment differs from allocation")
	}

	delete(p.live, ptr)
	p.free[c] = append(p.free[c], ptr)
	p.stats.InUse -= c.size
	p.stats.Live--
	p.stats.Frees++
	return nil
}

// Stats returns a snapshot of allocator usage.
func (p *PageAllocator) Stats() AllocStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Break = p.next
	return s
}

func (p *PageAllocator) bump(c blockClass) (uint32, bool) {
	mask := uint64(c.align) - 1
	start := (uint64(p.next) + mask) &^ mask
	end := start + uint64(c.size)
	if end >= 1<<32 {
		return 0, false
	}

	if have := uint64(p.mem.Size()); end > have {
		pages := (end - have + PageSize - 1) / PageSize
		if _, ok := p.mem.Grow(uint32(pages)); !ok {
			return 0, false
		}
		p.stats.Grown += uint32(pages)
		if ce := Logger().Check(zap.DebugLevel, "linear memory grown"); ce != nil {
			ce.Write(zap.Uint64("pages", pages), zap.Uint32("memory_bytes", p.mem.Size()))
		}
	}

	p.next = uint32(end)
	return uint32(start), true
}

func (p *PageAllocator) commit(ptr uint32, c blockClass) {
	p.live[ptr] = c
	p.stats.InUse += c.size
	p.stats.Live++
	p.stats.Allocs++
}

func classify(size, align uint32) (blockClass, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return blockClass{}, errors.InvalidInput(errors.PhaseAlloc, "alignment must be a power of two")
	}
	if size == 0 {
		size = 1
	}
	if size > math.MaxUint32-(align-1) {
		return blockClass{}, errors.AllocationFailed(errors.PhaseAlloc, uint64(size), uint64(align))
	}
	return blockClass{size: layout.AlignTo(size, align), align: align}, nil
}
