package resource

import (
	"errors"

	"github.com/wippyai/tagcast"
)

// Handle is an opaque reference to a resource in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventBorrowed
	EventBorrowReturned
)

func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow-returned"
	}
	return "unknown"
}

// Event represents a resource lifecycle event. Value is nil for
// representation entries.
type Event struct {
	Value  tagcast.Tagged
	Handle Handle
	Shape  tagcast.ShapeID
	Rep    uint32
	Type   EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Dropper is optionally implemented by resource values that need cleanup.
type Dropper interface {
	Drop()
}

var (
	ErrClosed            = errors.New("resource table closed")
	ErrNilValue          = errors.New("resource value is nil")
	ErrNotFound          = errors.New("resource handle not found")
	ErrOutstandingBorrow = errors.New("cannot drop resource with outstanding borrows")
	ErrUnstamped         = errors.New("resource value carries no shape identifier")
)
