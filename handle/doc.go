// Package handle provides the handle tables backing every primitive kind.
//
// A table maps opaque integer handles to primitive records. Handles are
// strictly positive, monotonically increasing within a table, and never
// reused: once a record is removed, its handle is permanently invalid.
//
// # Handle Table
//
//	table := handle.NewTable[*myRecord](handle.KindMutex)
//
//	// Insert a record, get a handle
//	h, err := table.Insert(rec)
//
//	// Retrieve record by handle
//	rec, ok := table.Get(h)
//
//	// Evict and take back ownership (for final teardown)
//	rec, ok := table.Remove(h)
//
// Each primitive kind owns an independent table with its own lock, so
// operations on one kind never serialize against another. The table
// lock linearizes insert, lookup and removal; With runs a closure inside
// that critical section for check-then-act sequences that must be atomic
// with respect to concurrent table users.
//
// # Observers
//
// Register observers to track record lifecycle events:
//
//	table.Subscribe(obs) // obs.OnHandleEvent(Event{...})
//
// # Teardown
//
// Remove hands the record back to the caller and does not run its Drop;
// join, detach and destroy need the live record to finish their work.
// Clear and Close do run Drop on records that implement Dropper, so a
// runtime shutdown tears down every surviving primitive exactly once.
package handle
