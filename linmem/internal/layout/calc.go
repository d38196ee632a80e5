package layout

import (
	"go.bytecodealliance.org/wit"
)

// Info is the memory footprint of a type.
type Info struct {
	FieldOffs map[string]uint32
	Size      uint32
	Align     uint32
}

type Calculator struct {
	cache map[*wit.TypeDef]Info
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[*wit.TypeDef]Info),
	}
}

func (c *Calculator) Calculate(t wit.Type) Info {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Info{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return Info{Size: 8, Align: 8}
	case wit.String:
		return Info{Size: 8, Align: 4} // [ptr: u32, len: u32]
	case *wit.TypeDef:
		return c.calculateTypeDef(typ)
	default:
		return Info{Size: 0, Align: 1}
	}
}

// Record lays out r behind a header of header bytes. The header itself is
// aligned to its own size, so a 4-byte header keeps the record at least
// 4-aligned even when every field is a byte.
func (c *Calculator) Record(r *wit.Record, header uint32) Info {
	fieldOffs := make(map[string]uint32, len(r.Fields))
	maxAlign := uint32(1)
	if header > maxAlign {
		maxAlign = header
	}
	offset := header

	for _, field := range r.Fields {
		fieldLayout := c.Calculate(field.Type)

		offset = AlignTo(offset, fieldLayout.Align)
		fieldOffs[field.Name] = offset

		if fieldLayout.Align > maxAlign {
			maxAlign = fieldLayout.Align
		}

		offset += fieldLayout.Size
	}

	return Info{
		Size:      AlignTo(offset, maxAlign),
		Align:     maxAlign,
		FieldOffs: fieldOffs,
	}
}

func (c *Calculator) calculateTypeDef(t *wit.TypeDef) Info {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info Info

	switch kind := t.Kind.(type) {
	case *wit.Record:
		if len(kind.Fields) == 0 {
			info = Info{Size: 0, Align: 1}
		} else {
			info = c.Record(kind, 0)
		}
	case *wit.Variant:
		info = c.calculateVariant(kind)
	case *wit.Enum:
		size := DiscriminantSize(len(kind.Cases))
		info = Info{Size: size, Align: size}
	case *wit.List:
		info = Info{Size: 8, Align: 4}
	case *wit.Option:
		info = c.calculateOption(kind)
	case *wit.Result:
		info = c.calculateResult(kind)
	case *wit.Tuple:
		info = c.calculateTuple(kind)
	case *wit.Flags:
		info = calculateFlags(kind)
	case wit.Type:
		info = c.Calculate(kind)
	default:
		info = Info{Size: 0, Align: 1}
	}

	c.cache[t] = info
	return info
}

func (c *Calculator) calculateVariant(v *wit.Variant) Info {
	if len(v.Cases) == 0 {
		return Info{Size: 0, Align: 1}
	}

	discSize := DiscriminantSize(len(v.Cases))
	maxAlign := discSize
	maxSize := uint32(0)

	for _, cs := range v.Cases {
		if cs.Type == nil {
			continue
		}
		caseLayout := c.Calculate(cs.Type)
		maxAlign = max(maxAlign, caseLayout.Align)
		maxSize = max(maxSize, caseLayout.Size)
	}

	payloadOffset := AlignTo(discSize, maxAlign)
	return Info{
		Size:  AlignTo(payloadOffset+maxSize, maxAlign),
		Align: maxAlign,
	}
}

func (c *Calculator) calculateOption(o *wit.Option) Info {
	inner := c.Calculate(o.Type)
	align := max(inner.Align, 1)

	payloadOffset := AlignTo(1, align)
	return Info{
		Size:  AlignTo(payloadOffset+inner.Size, align),
		Align: align,
	}
}

func (c *Calculator) calculateResult(r *wit.Result) Info {
	var ok, bad Info
	ok.Align, bad.Align = 1, 1
	if r.OK != nil {
		ok = c.Calculate(r.OK)
	}
	if r.Err != nil {
		bad = c.Calculate(r.Err)
	}

	align := max(ok.Align, bad.Align)
	payloadOffset := AlignTo(1, align)
	return Info{
		Size:  AlignTo(payloadOffset+max(ok.Size, bad.Size), align),
		Align: align,
	}
}

func (c *Calculator) calculateTuple(t *wit.Tuple) Info {
	if len(t.Types) == 0 {
		return Info{Size: 0, Align: 1}
	}

	maxAlign := uint32(1)
	offset := uint32(0)
	for _, typ := range t.Types {
		elem := c.Calculate(typ)
		offset = AlignTo(offset, elem.Align) + elem.Size
		maxAlign = max(maxAlign, elem.Align)
	}

	return Info{
		Size:  AlignTo(offset, maxAlign),
		Align: maxAlign,
	}
}

func calculateFlags(f *wit.Flags) Info {
	n := len(f.Flags)
	switch {
	case n == 0:
		return Info{Size: 0, Align: 1}
	case n <= 8:
		return Info{Size: 1, Align: 1}
	case n <= 16:
		return Info{Size: 2, Align: 2}
	case n <= 32:
		return Info{Size: 4, Align: 4}
	case n <= 64:
		return Info{Size: 8, Align: 8}
	}
	// more than 64 flags spill into a run of u32 words
	return Info{Size: uint32((n + 31) / 32 * 4), Align: 4}
}

// AlignTo rounds offset up to a multiple of align. align must be a power of two.
func AlignTo(offset, align uint32) uint32 {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// DiscriminantSize is the byte width needed to tag numCases alternatives.
func DiscriminantSize(numCases int) uint32 {
	switch {
	case numCases <= 1<<8:
		return 1
	case numCases <= 1<<16:
		return 2
	default:
		return 4
	}
}
