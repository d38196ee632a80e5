//go:build tagcast_unchecked

package linmem

// SlotSize is zero: objects carry no identifier slot.
const SlotSize uint32 = 0
