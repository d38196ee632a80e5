package linmem

import (
	"reflect"
	"sort"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/tagcast"
	"github.com/wippyai/tagcast/errors"
	"github.com/wippyai/tagcast/linmem/internal/layout"
)

// Field is one primitive-addressable member of a shape.
type Field struct {
	Type   wit.Type
	Name   string
	Offset uint32
	Size   uint32
}

// Shape is the linear-memory layout of a WIT record with its identifier slot.
type Shape struct {
	fields map[string]Field
	order  []string
	Name   string
	ID     tagcast.ShapeID
	Size   uint32
	Align  uint32
}

// defined maps each shape name to the first layout declared under it.
var defined = struct {
	sync.Mutex
	byName map[string]*Shape
}{byName: make(map[string]*Shape)}

// DefineShape lays out the record def under name. Redefining a name with an
// identical layout yields the same identifier; a different layout is an
// errors.KindLayout error.
func DefineShape(name string, def *wit.TypeDef) (*Shape, error) {
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseLayout, "shape name is empty")
	}
	if def == nil {
		return nil, errors.InvalidInput(errors.PhaseLayout, "shape definition is nil")
	}
	record, ok := def.Kind.(*wit.Record)
	if !ok {
		return nil, errors.New(errors.PhaseLayout, errors.KindUnsupported).
			Shape(name).
			Detail("only records can be tagged, got %T", def.Kind).
			Build()
	}

	info := layout.NewCalculator().Record(record, SlotSize)

	align := max(info.Align, 4)
	s := &Shape{
		fields: make(map[string]Field, len(record.Fields)),
		order:  make([]string, 0, len(record.Fields)),
		Name:   name,
		Size:   layout.AlignTo(max(info.Size, minBlock), align),
		Align:  align,
	}
	for _, f := range record.Fields {
		if _, dup := s.fields[f.Name]; dup {
			return nil, errors.Layout(name, "duplicate field "+f.Name)
		}
		s.fields[f.Name] = Field{
			Type:   f.Type,
			Name:   f.Name,
			Offset: info.FieldOffs[f.Name],
			Size:   primitiveSize(f.Type),
		}
		s.order = append(s.order, f.Name)
	}

	defined.Lock()
	defer defined.Unlock()
	if prev, ok := defined.byName[name]; ok {
		if !prev.sameLayout(s) {
			return nil, errors.Layout(name, "redefined with a different layout")
		}
		s.ID = prev.ID
		return s, nil
	}
	s.ID = tagcast.InternName(name)
	defined.byName[name] = s
	return s, nil
}

func (s *Shape) sameLayout(o *Shape) bool {
	if s.Size != o.Size || s.Align != o.Align || len(s.order) != len(o.order) {
		return false
	}
	for i, name := range s.order {
		if o.order[i] != name {
			return false
		}
		a, b := s.fields[name], o.fields[name]
		if a.Offset != b.Offset || a.Size != b.Size || !sameType(a.Type, b.Type) {
			return false
		}
	}
	return true
}

// sameType compares primitives by kind and type definitions by identity.
func sameType(a, b wit.Type) bool {
	if ta, ok := a.(*wit.TypeDef); ok {
		tb, ok := b.(*wit.TypeDef)
		return ok && ta == tb
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

// Field returns the named field.
func (s *Shape) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns the fields in declaration order.
func (s *Shape) Fields() []Field {
	out := make([]Field, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.fields[name])
	}
	return out
}

// FieldNames returns the field names sorted alphabetically.
func (s *Shape) FieldNames() []string {
	names := append([]string(nil), s.order...)
	sort.Strings(names)
	return names
}

// primitiveSize is the load/store width of t, or 0 if t is not a scalar.
func primitiveSize(t wit.Type) uint32 {
	switch t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return 1
	case wit.U16, wit.S16:
		return 2
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return 4
	case wit.U64, wit.S64, wit.F64:
		return 8
	}
	return 0
}
