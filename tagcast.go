package tagcast

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/tagcast/errors"
)

// Tagged is implemented by every struct that embeds Marker.
type Tagged interface {
	marker() *Marker
}

// Shape constrains P to *T where T embeds Marker. It lets callers write
// Cast[Foo](src) and have the pointer type inferred.
type Shape[T any] interface {
	*T
	Tagged
}

// Alloc allocates a T on the Go heap, stamps its identifier slot and stores
// it in *dst. It returns false if T has an invalid layout; *dst is left
// untouched in that case.
func Alloc[T any, P Shape[T]](dst **T) bool {
	return AllocFrom[T, P](nil, dst)
}

// AllocFrom is Alloc with memory reserved from a. It returns false when the
// reservation fails or T cannot live in a.
func AllocFrom[T any, P Shape[T]](a Allocator, dst **T) bool {
	obj, err := New[T, P](a)
	if err != nil {
		return false
	}
	*dst = obj
	return true
}

// New allocates and stamps a T, reserving memory from a (nil selects the Go
// heap). The payload is zeroed.
func New[T any, P Shape[T]](a Allocator) (*T, error) {
	d := describe[T]()
	if d.err != nil {
		return nil, d.err
	}

	var obj *T
	if a == nil {
		obj = new(T)
	} else {
		if !d.pointerFree {
			return nil, errors.New(errors.PhaseAlloc, errors.KindUnsupported).
				Shape(d.name).
				Detail("shape holds pointers and cannot live in manually managed memory").
				Build()
		}
		p, err := a.Alloc(d.size, d.align)
		if err != nil || p == nil {
			if ce := Logger().Check(zap.DebugLevel, "tagged allocation failed"); ce != nil {
				ce.Write(zap.String("shape", d.name), zap.Uintptr("size", d.size), zap.Error(err))
			}
			return nil, errors.New(errors.PhaseAlloc, errors.KindAllocation).
				Shape(d.name).
				Detail("failed to allocate %d bytes (align %d)", d.size, d.align).
				Cause(err).
				Build()
		}
		clear(unsafe.Slice((*byte)(p), d.size))
		obj = (*T)(p)
	}

	P(obj).marker().stamp(d.id)
	return obj, nil
}

// Free returns obj to a. It is a no-op for the Go heap (nil a) and for a nil
// obj. Using obj afterwards is undefined.
func Free[T any, P Shape[T]](a Allocator, obj *T) {
	if a == nil || obj == nil {
		return
	}
	d := describe[T]()
	a.Free(unsafe.Pointer(obj), d.size, d.align)
}

// As is Cast with a reason on failure: errors.KindNilPointer for a nil src,
// errors.KindTypeMismatch naming both shapes otherwise.
func As[T any, P Shape[T]](src Ref) (*T, error) {
	d := describe[T]()
	if src == nil {
		return nil, errors.NilPointer(errors.PhaseCast, d.name)
	}
	if d.err != nil {
		return nil, d.err
	}
	if obj := Cast[T, P](src); obj != nil {
		return obj, nil
	}

	actual := ShapeName(Identify(src))
	if ce := Logger().Check(zap.DebugLevel, "tag mismatch"); ce != nil {
		ce.Write(zap.String("want", d.name), zap.String("have", actual))
	}
	return nil, errors.TypeMismatch(errors.PhaseCast, d.name, actual)
}

// Is reports whether src holds a T.
func Is[T any, P Shape[T]](src Ref) bool {
	return Cast[T, P](src) != nil
}

// Identify returns the identifier stamped in src, or Unknown for a nil src,
// an object that was never stamped, or a checked-off build.
func Identify(src Ref) ShapeID {
	if src == nil {
		return Unknown
	}
	return markerOf(src).shape()
}
