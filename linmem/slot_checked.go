//go:build !tagcast_unchecked

package linmem

// SlotSize is the width of the u32 identifier slot at offset 0.
const SlotSize uint32 = 4
