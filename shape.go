package tagcast

import (
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// ShapeID identifies a declared shape. Unknown is never assigned to a shape.
type ShapeID uint32

// Unknown is the identifier carried by objects that were never stamped.
const Unknown ShapeID = 0

// descriptor is everything Alloc and Cast need to know about a Go shape.
type descriptor struct {
	err          error
	typ          reflect.Type
	name         string
	size         uintptr
	align        uintptr
	markerOffset uintptr
	id           ShapeID
	pointerFree  bool
}

type shapeTable struct {
	byType sync.Map // reflect.Type -> *descriptor
	mu     sync.Mutex
	byName map[string]ShapeID
	names  []string
}

var shapes = &shapeTable{
	byName: make(map[string]ShapeID),
	names:  []string{"<unknown>"},
}

// ShapeOf returns the identifier of shape T.
func ShapeOf[T any]() ShapeID {
	return describe[T]().id
}

// InternName returns the identifier for a shape known only by name.
// Repeated calls with the same name return the same identifier.
func InternName(name string) ShapeID {
	shapes.mu.Lock()
	defer shapes.mu.Unlock()
	if id, ok := shapes.byName[name]; ok {
		return id
	}
	id := shapes.nextLocked(name)
	shapes.byName[name] = id
	return id
}

// ShapeName returns a human-readable name for id.
func ShapeName(id ShapeID) string {
	shapes.mu.Lock()
	defer shapes.mu.Unlock()
	if int(id) >= len(shapes.names) {
		return "<invalid>"
	}
	return shapes.names[id]
}

func describe[T any]() *descriptor {
	return shapes.lookup(reflect.TypeFor[T]())
}

func (s *shapeTable) lookup(t reflect.Type) *descriptor {
	if d, ok := s.byType.Load(t); ok {
		return d.(*descriptor)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check
	if d, ok := s.byType.Load(t); ok {
		return d.(*descriptor)
	}

	d := inspect(t)
	d.id = s.nextLocked(d.name)
	s.byType.Store(t, d)

	if d.err != nil {
		Logger().Warn("shape has invalid layout",
			zap.String("shape", d.name),
			zap.Error(d.err),
		)
	}
	return d
}

func (s *shapeTable) nextLocked(name string) ShapeID {
	id := ShapeID(len(s.names))
	s.names = append(s.names, name)
	return id
}
