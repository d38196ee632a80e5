// Package resource maps integer handles to tagged objects.
//
// A handle names either a Go object that embeds tagcast.Marker or a
// representation value, usually a linmem pointer. Every entry remembers the
// shape identifier it was created with, so retrieval can be checked the same
// way a cast is:
//
//	table := resource.NewTable()
//	h, _ := table.Insert(conn)
//
//	c, ok := resource.Lookup[Conn](table, h) // tagcast.Cast under the hood
//	_, ok = resource.Lookup[File](table, h)  // false
//
// Linear-memory objects are registered by representation:
//
//	h, _ := table.InsertRep(point.ID, ptr)
//	ptr, ok := table.RepTyped(h, point.ID)
//
// # Borrows
//
// Borrow pins an entry; Remove refuses to drop it until every borrow has
// been returned.
//
// # Observers
//
// Observers see every create, drop, borrow and return. Removing a
// representation entry does not release the memory behind it; an observer
// that frees on EventDropped is the usual way to tie the two together.
//
// Tables are safe for concurrent use.
package resource
