//go:build tagcast_offset0

package tagcast_test

import (
	stderrors "errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/tagcast"
	"github.com/wippyai/tagcast/errors"
)

type trailing struct {
	X int64
	tagcast.Marker
}

func TestFixedOffsetMode(t *testing.T) {
	assert.Equal(t, tagcast.FixedOffset, tagcast.Layout)
}

func TestCastThroughOpaquePointer(t *testing.T) {
	var f *foo
	require.True(t, tagcast.Alloc(&f))

	opaque := unsafe.Pointer(f)
	assert.Equal(t, opaque, tagcast.RefOf(f))
	assert.Same(t, f, tagcast.Cast[foo](opaque))
	if tagcast.Checked {
		assert.Nil(t, tagcast.Cast[bar](opaque))
	}
}

func TestMarkerMustBeAtOffsetZero(t *testing.T) {
	err := tagcast.VerifyLayout[trailing]()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindLayout}))

	var tr *trailing
	assert.False(t, tagcast.Alloc(&tr))
}
