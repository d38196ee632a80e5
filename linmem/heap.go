package linmem

import (
	"go.uber.org/zap"

	"github.com/wippyai/tagcast"
	"github.com/wippyai/tagcast/errors"
)

// Heap allocates and casts tagged objects in one linear memory.
// A Heap adds no locking of its own; it is as safe for concurrent use as its
// Memory and Allocator.
type Heap struct {
	mem   Memory
	alloc Allocator
}

// NewHeap creates a heap over mem that reserves blocks from alloc.
func NewHeap(mem Memory, alloc Allocator) *Heap {
	return &Heap{mem: mem, alloc: alloc}
}

// Memory returns the heap's memory.
func (h *Heap) Memory() Memory {
	return h.mem
}

// Alloc reserves a zeroed object of shape s and stamps its identifier.
// It reports false if the block could not be reserved.
func (h *Heap) Alloc(s *Shape) (uint32, bool) {
	ptr, err := h.New(s)
	return ptr, err == nil
}

// New is Alloc with the reason for failure.
func (h *Heap) New(s *Shape) (uint32, error) {
	if s == nil {
		return 0, errors.InvalidInput(errors.PhaseAlloc, "shape is nil")
	}

	ptr, err := h.alloc.Alloc(s.Size, s.Align)
	if err != nil {
		return 0, errors.New(errors.PhaseAlloc, errors.KindAllocation).
			Shape(s.Name).
			Cause(err).
			Detail("reserve %d bytes", s.Size).
			Build()
	}
	if err := h.mem.Write(ptr, make([]byte, s.Size)); err != nil {
		h.alloc.Free(ptr, s.Size, s.Align)
		return 0, err
	}
	if SlotSize > 0 {
		if err := h.mem.WriteU32(ptr, uint32(s.ID)); err != nil {
			h.alloc.Free(ptr, s.Size, s.Align)
			return 0, err
		}
	}
	return ptr, nil
}

// Cast returns ptr unchanged if the object there was allocated with shape
// s. A zero pointer, an unreadable slot and any other shape yield false.
func (h *Heap) Cast(ptr uint32, s *Shape) (uint32, bool) {
	if ptr == 0 || s == nil {
		return 0, false
	}
	if SlotSize == 0 {
		return ptr, true
	}
	id, err := h.mem.ReadU32(ptr)
	if err != nil || tagcast.ShapeID(id) != s.ID {
		return 0, false
	}
	return ptr, true
}

// As is Cast with an error describing a failed cast.
func (h *Heap) As(ptr uint32, s *Shape) (uint32, error) {
	if s == nil {
		return 0, errors.InvalidInput(errors.PhaseCast, "shape is nil")
	}
	if ptr == 0 {
		return 0, errors.NilPointer(errors.PhaseCast, s.Name)
	}
	if out, ok := h.Cast(ptr, s); ok {
		return out, nil
	}

	id, err := h.Identify(ptr)
	if err != nil {
		return 0, err
	}
	if ce := Logger().Check(zap.DebugLevel, "cast mismatch"); ce != nil {
		ce.Write(
			zap.Uint32("ptr", ptr),
			zap.String("want", s.Name),
			zap.String("have", tagcast.ShapeName(id)),
		)
	}
	return 0, errors.TypeMismatch(errors.PhaseCast, s.Name, tagcast.ShapeName(id))
}

// Identify reads the identifier stamped at ptr. It is tagcast.Unknown in
// builds without checking.
func (h *Heap) Identify(ptr uint32) (tagcast.ShapeID, error) {
	if ptr == 0 {
		return tagcast.Unknown, errors.NilPointer(errors.PhaseCast, "")
	}
	if SlotSize == 0 {
		return tagcast.Unknown, nil
	}
	id, err := h.mem.ReadU32(ptr)
	if err != nil {
		return tagcast.Unknown, err
	}
	return tagcast.ShapeID(id), nil
}

// Free releases an object allocated with shape s. A zero pointer is ignored.
func (h *Heap) Free(ptr uint32, s *Shape) {
	if ptr == 0 || s == nil {
		return
	}
	h.alloc.Free(ptr, s.Size, s.Align)
}

// Load reads a scalar field of the object at ptr, zero-extended to 64 bits.
// The object is assumed to have shape s; cast first when unsure.
func (h *Heap) Load(ptr uint32, s *Shape, field string) (uint64, error) {
	f, err := scalar(s, field)
	if err != nil {
		return 0, err
	}
	at := ptr + f.Offset
	switch f.Size {
	case 1:
		v, err := h.mem.ReadU8(at)
		return uint64(v), err
	case 2:
		v, err := h.mem.ReadU16(at)
		return uint64(v), err
	case 4:
		v, err := h.mem.ReadU32(at)
		return uint64(v), err
	default:
		return h.mem.ReadU64(at)
	}
}

// Store writes the low bits of v into a scalar field of the object at ptr.
func (h *Heap) Store(ptr uint32, s *Shape, field string, v uint64) error {
	f, err := scalar(s, field)
	if err != nil {
		return err
	}
	at := ptr + f.Offset
	switch f.Size {
	case 1:
		return h.mem.WriteU8(at, uint8(v))
	case 2:
		return h.mem.WriteU16(at, uint16(v))
	case 4:
		return h.mem.WriteU32(at, uint32(v))
	default:
		return h.mem.WriteU64(at, v)
	}
}

func scalar(s *Shape, field string) (Field, error) {
	if s == nil {
		return Field{}, errors.InvalidInput(errors.PhaseMemory, "shape is nil")
	}
	f, ok := s.Field(field)
	if !ok {
		return Field{}, errors.NotFound(errors.PhaseMemory, "field", field)
	}
	if f.Size == 0 {
		return Field{}, errors.New(errors.PhaseMemory, errors.KindUnsupported).
			Shape(s.Name).
			Path(field).
			Detail("field is not a scalar").
			Build()
	}
	return f, nil
}
