package linmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/tagcast"
	"github.com/wippyai/tagcast/errors"
)

func TestDefineShapeLayout(t *testing.T) {
	s, err := DefineShape("shape-layout", record(
		wit.Field{Name: "flag", Type: wit.Bool{}},
		wit.Field{Name: "count", Type: wit.U64{}},
		wit.Field{Name: "label", Type: wit.String{}},
	))
	require.NoError(t, err)

	flag, ok := s.Field("flag")
	require.True(t, ok)
	count, _ := s.Field("count")
	label, _ := s.Field("label")

	assert.Equal(t, SlotSize, flag.Offset)
	assert.Equal(t, uint32(1), flag.Size)
	assert.Equal(t, uint32(8), count.Offset)
	assert.Equal(t, uint32(8), count.Size)
	assert.Equal(t, uint32(16), label.Offset)
	assert.Zero(t, label.Size, "strings are not scalars")

	assert.Equal(t, uint32(24), s.Size)
	assert.Equal(t, uint32(8), s.Align)

	names := make([]string, 0, 3)
	for _, f := range s.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"flag", "count", "label"}, names)
	assert.Equal(t, []string{"count", "flag", "label"}, s.FieldNames())
}

func TestDefineShapeIdentity(t *testing.T) {
	a, err := DefineShape("shape-identity", record(wit.Field{Name: "x", Type: wit.U32{}}))
	require.NoError(t, err)
	b, err := DefineShape("shape-identity", record(wit.Field{Name: "x", Type: wit.U32{}}))
	require.NoError(t, err)
	c, err := DefineShape("shape-other", record(wit.Field{Name: "x", Type: wit.U32{}}))
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.NotEqual(t, tagcast.Unknown, a.ID)
	assert.Equal(t, "shape-identity", tagcast.ShapeName(a.ID))
}

func TestDefineShapeConflictingRedefinition(t *testing.T) {
	first, err := DefineShape("shape-conflict", record(wit.Field{Name: "x", Type: wit.U8{}}))
	require.NoError(t, err)

	redefs := []*wit.TypeDef{
		record(wit.Field{Name: "y", Type: wit.U64{}}),
		record(wit.Field{Name: "x", Type: wit.S8{}}),
		record(wit.Field{Name: "x", Type: wit.U8{}}, wit.Field{Name: "z", Type: wit.U8{}}),
	}
	for _, def := range redefs {
		s, err := DefineShape("shape-conflict", def)
		assert.Nil(t, s)
		assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindLayout})
	}

	// The first layout keeps its identifier, so a heap object built from
	// it never casts to anything else named the same.
	again, err := DefineShape("shape-conflict", record(wit.Field{Name: "x", Type: wit.U8{}}))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestDefineShapeEmptyRecord(t *testing.T) {
	s, err := DefineShape("shape-empty", record())
	require.NoError(t, err)
	assert.Equal(t, uint32(8), s.Size)
	assert.Equal(t, uint32(4), s.Align)
	assert.Empty(t, s.Fields())
}

func TestDefineShapeErrors(t *testing.T) {
	tests := []struct {
		def  *wit.TypeDef
		want *errors.Error
		name string
		as   string
	}{
		{
			name: "empty_name",
			as:   "",
			def:  record(),
			want: &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindInvalidInput},
		},
		{
			name: "nil_def",
			as:   "nil-def",
			want: &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindInvalidInput},
		},
		{
			name: "not_record",
			as:   "an-enum",
			def:  &wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "a"}}}},
			want: &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindUnsupported},
		},
		{
			name: "duplicate_field",
			as:   "dup",
			def: record(
				wit.Field{Name: "x", Type: wit.U32{}},
				wit.Field{Name: "x", Type: wit.U8{}},
			),
			want: &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindLayout},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DefineShape(tc.as, tc.def)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
