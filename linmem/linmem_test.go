package linmem

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/tagcast/errors"
)

func newModule(t *testing.T, minPages, maxPages uint32) api.Module {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	mod, err := NewMemoryModule(ctx, rt, "test", minPages, maxPages)
	require.NoError(t, err)
	require.NotNil(t, mod.Memory())
	return mod
}

func newHeap(t *testing.T, minPages, maxPages uint32) (*Heap, *PageAllocator) {
	t.Helper()
	mod := newModule(t, minPages, maxPages)
	alloc := NewPageAllocator(mod.Memory(), 0)
	return NewHeap(WrapMemory(mod.Memory()), alloc), alloc
}

func record(fields ...wit.Field) *wit.TypeDef {
	return &wit.TypeDef{Kind: &wit.Record{Fields: fields}}
}

func TestMemoryModuleBinary(t *testing.T) {
	want := []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,
		0x05, 0x03, 0x01, 0x00, 0x01,
		0x07, 0x0a, 0x01,
		0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79,
		0x02, 0x00,
	}
	if got := memoryModuleBinary(1, 0); !bytes.Equal(got, want) {
		t.Errorf("memoryModuleBinary(1, 0) = % x, want % x", got, want)
	}

	bounded := memoryModuleBinary(2, 300)
	// limits flag 1, min 2, max 300 as LEB128 (ac 02)
	if !bytes.Contains(bounded, []byte{0x05, 0x05, 0x01, 0x01, 0x02, 0xac, 0x02}) {
		t.Errorf("bounded memory section missing: % x", bounded)
	}
}

func TestAppendLEB128u(t *testing.T) {
	tests := []struct {
		want []byte
		in   uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xffffffff},
	}
	for _, tc := range tests {
		if got := appendLEB128u(nil, tc.in); !bytes.Equal(got, tc.want) {
			t.Errorf("appendLEB128u(%d) = % x, want % x", tc.in, got, tc.want)
		}
	}
}

func TestNewMemoryModule(t *testing.T) {
	mod := newModule(t, 1, 2)
	mem := mod.Memory()
	assert.Equal(t, uint32(PageSize), mem.Size())

	_, ok := mem.Grow(1)
	assert.True(t, ok)
	_, ok = mem.Grow(1)
	assert.False(t, ok, "grow past declared max")
}

func TestNewMemoryModuleRejectsLimits(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	_, err := NewMemoryModule(ctx, rt, "bad", 4, 2)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMemory, Kind: errors.KindInvalidInput})

	_, err = NewMemoryModule(ctx, rt, "huge", 1, MaxPages+1)
	assert.Error(t, err)
}

func TestWrapper(t *testing.T) {
	assert.Nil(t, WrapMemory(nil))

	mem := WrapMemory(newModule(t, 1, 1).Memory())

	require.NoError(t, mem.WriteU8(0, 0xab))
	require.NoError(t, mem.WriteU16(2, 0xbeef))
	require.NoError(t, mem.WriteU32(4, 0xdeadbeef))
	require.NoError(t, mem.WriteU64(8, 0x0102030405060708))

	u8, err := mem.ReadU8(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xab), u8)

	u16, err := mem.ReadU16(2)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xbeef), u16)

	u32, err := mem.ReadU32(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	u64, err := mem.ReadU64(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	data, err := mem.Read(4, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde}, data)

	_, err = mem.ReadU32(PageSize - 2)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMemory, Kind: errors.KindOutOfBounds})
	assert.Error(t, mem.Write(PageSize-1, []byte{1, 2}))
}
