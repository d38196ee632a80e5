package layout

import (
	"testing"

	"go.bytecodealliance.org/wit"
)

func TestCalculatePrimitives(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		typ   wit.Type
		name  string
		size  uint32
		align uint32
	}{
		{wit.Bool{}, "bool", 1, 1},
		{wit.U8{}, "u8", 1, 1},
		{wit.S16{}, "s16", 2, 2},
		{wit.U32{}, "u32", 4, 4},
		{wit.F32{}, "f32", 4, 4},
		{wit.Char{}, "char", 4, 4},
		{wit.S64{}, "s64", 8, 8},
		{wit.F64{}, "f64", 8, 8},
		{wit.String{}, "string", 8, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := c.Calculate(tc.typ)
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Align != tc.align {
				t.Errorf("align: got %d, want %d", info.Align, tc.align)
			}
		})
	}
}

func TestRecordWithHeader(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		offs   map[string]uint32
		name   string
		fields []wit.Field
		header uint32
		size   uint32
		align  uint32
	}{
		{
			name:   "bytes_behind_tag",
			fields: []wit.Field{{Name: "a", Type: wit.U8{}}, {Name: "b", Type: wit.U8{}}},
			header: 4,
			size:   8,
			align:  4,
			offs:   map[string]uint32{"a": 4, "b": 5},
		},
		{
			name:   "u64_pads_after_tag",
			fields: []wit.Field{{Name: "x", Type: wit.U64{}}},
			header: 4,
			size:   16,
			align:  8,
			offs:   map[string]uint32{"x": 8},
		},
		{
			name:   "no_header",
			fields: []wit.Field{{Name: "a", Type: wit.U8{}}, {Name: "b", Type: wit.U32{}}},
			header: 0,
			size:   8,
			align:  4,
			offs:   map[string]uint32{"a": 0, "b": 4},
		},
		{
			name:   "tag_only",
			header: 4,
			size:   4,
			align:  4,
			offs:   map[string]uint32{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := c.Record(&wit.Record{Fields: tc.fields}, tc.header)
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Align != tc.align {
				t.Errorf("align: got %d, want %d", info.Align, tc.align)
			}
			for name, want := range tc.offs {
				if got := info.FieldOffs[name]; got != want {
					t.Errorf("field %s offset: got %d, want %d", name, got, want)
				}
			}
		})
	}
}

func TestCalculateNested(t *testing.T) {
	c := NewCalculator()

	point := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "x", Type: wit.S32{}},
		{Name: "y", Type: wit.S32{}},
	}}}
	opt := &wit.TypeDef{Kind: &wit.Option{Type: wit.U64{}}}
	tuple := &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.U32{}}}}
	flags := &wit.TypeDef{Kind: &wit.Flags{Flags: make([]wit.Flag, 9)}}

	tests := []struct {
		typ   wit.Type
		name  string
		size  uint32
		align uint32
	}{
		{point, "record", 8, 4},
		{opt, "option_u64", 16, 8},
		{tuple, "tuple", 8, 4},
		{flags, "flags_9", 2, 2},
		{&wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}, "list", 8, 4},
		{&wit.TypeDef{Kind: &wit.Record{}}, "empty_record", 0, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := c.Calculate(tc.typ)
			if info.Size != tc.size || info.Align != tc.align {
				t.Errorf("got size=%d align=%d, want size=%d align=%d",
					info.Size, info.Align, tc.size, tc.align)
			}
		})
	}

	// cached entries are returned unchanged
	if again := c.Calculate(point); again.FieldOffs["y"] != 4 {
		t.Errorf("cached field y offset: got %d, want 4", again.FieldOffs["y"])
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct{ offset, align, want uint32 }{
		{0, 4, 0},
		{1, 4, 4},
		{5, 8, 8},
		{9, 1, 9},
		{9, 0, 9},
	}
	for _, tc := range tests {
		if got := AlignTo(tc.offset, tc.align); got != tc.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tc.offset, tc.align, got, tc.want)
		}
	}
}

func TestDiscriminantSize(t *testing.T) {
	tests := []struct {
		cases int
		want  uint32
	}{
		{1, 1},
		{256, 1},
		{257, 2},
		{65536, 2},
		{65537, 4},
	}
	for _, tc := range tests {
		if got := DiscriminantSize(tc.cases); got != tc.want {
			t.Errorf("DiscriminantSize(%d) = %d, want %d", tc.cases, got, tc.want)
		}
	}
}
