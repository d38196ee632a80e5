package tagcast_test

import (
	"unsafe"

	"github.com/wippyai/tagcast"
)

type foo struct {
	tagcast.Marker
	A int32
}

type bar struct {
	tagcast.Marker
	B int32
}

type baz struct {
	tagcast.Marker
	C int32
}

// Pin the identifier slot at offset 0 for the shapes above.
var (
	_ [0]struct{} = [unsafe.Offsetof(foo{}.Marker)]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(bar{}.Marker)]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(baz{}.Marker)]struct{}{}
)

type named struct {
	tagcast.Marker
	Name string
}

type inner struct {
	tagcast.Marker
}

// nested satisfies Tagged through a promoted Marker but does not embed it
// directly.
type nested struct {
	inner
	X int64
}

type fieldOnly struct {
	M tagcast.Marker
}
