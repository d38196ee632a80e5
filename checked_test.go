//go:build !tagcast_unchecked

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

func TestCheckedBuild(t *testing.T) {
	assert.True(t, tagcast.Checked)
	assert.Equal(t, unsafe.Sizeof(tagcast.ShapeID(0)), unsafe.Sizeof(tagcast.Marker{}))
}

func TestMismatchMatrix(t *testing.T) {
	var f *foo
	var b *bar
	var z *baz
	require.True(t, tagcast.Alloc(&f))
	require.True(t, tagcast.Alloc(&b))
	require.True(t, tagcast.Alloc(&z))

	tests := []struct {
		name  string
		src   tagcast.Ref
		isFoo bool
		isBar bool
		isBaz bool
	}{
		{"foo", tagcast.RefOf(f), true, false, false},
		{"bar", tagcast.RefOf(b), false, true, false},
		{"baz", tagcast.RefOf(z), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isFoo, tagcast.Cast[foo](tt.src) != nil)
			assert.Equal(t, tt.isBar, tagcast.Cast[bar](tt.src) != nil)
			assert.Equal(t, tt.isBaz, tagcast.Cast[baz](tt.src) != nil)
		})
	}
}

func TestUnstampedObjectNeverMatches(t *testing.T) {
	f := &foo{A: 1}
	src := tagcast.RefOf(f)

	assert.Nil(t, tagcast.Cast[foo](src))
	assert.Nil(t, tagcast.Cast[bar](src))
	assert.Equal(t, tagcast.Unknown, tagcast.Identify(src))
}

func TestIdentify(t *testing.T) {
	var b *bar
	require.True(t, tagcast.Alloc(&b))
	assert.Equal(t, tagcast.ShapeOf[bar](), tagcast.Identify(tagcast.RefOf(b)))
}

func TestAsMismatchNamesBothShapes(t *testing.T) {
	var f *foo
	require.True(t, tagcast.Alloc(&f))

	got, err := tagcast.As[bar](tagcast.RefOf(f))
	assert.Nil(t, got)
	require.Error(t, err)

	var tErr *errors.Error
	require.True(t, stderrors.As(err, &tErr))
	assert.Equal(t, errors.KindTypeMismatch, tErr.Kind)
	assert.Contains(t, tErr.Shape, "bar")
	assert.Contains(t, tErr.Actual, "foo")
}

func TestStampSurvivesPayloadWrites(t *testing.T) {
	var f *foo
	require.True(t, tagcast.Alloc(&f))
	for i := int32(0); i < 10; i++ {
		f.A = i
		assert.Same(t, f, tagcast.Cast[foo](tagcast.RefOf(f)))
	}
}
