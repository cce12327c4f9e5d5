package handle

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("handle table closed")

// Table is a thread-safe store mapping handles to records of one
// primitive kind. Each table issues its own monotonically increasing
// handles; the table mutex linearizes insert, lookup and removal.
//
// Unlike a free-list table, removed handles stay permanently invalid:
// a stale handle can never alias a newer record.
type Table[T any] struct {
	mu      sync.Mutex
	entries map[Handle]T
	next    uint64
	kind    Kind
	closed  bool

	obsMu     sync.RWMutex
	observers []Observer
}

// NewTable creates an empty table for the given kind.
func NewTable[T any](kind Kind) *Table[T] {
	return &Table[T]{
		entries: make(map[Handle]T),
		kind:    kind,
	}
}

// Kind returns the primitive kind this table manages.
func (t *Table[T]) Kind() Kind { return t.kind }

// Insert stores a record and returns its freshly issued handle.
// It fails only when the table has been closed.
func (t *Table[T]) Insert(v T) (Handle, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, ErrClosed
	}
	t.next++
	h := Handle(t.next)
	t.entries[h] = v
	t.mu.Unlock()

	t.notify(Event{Kind: t.kind, Type: EventCreated, Handle: h})
	return h, nil
}

// Get retrieves a record by handle.
func (t *Table[T]) Get(h Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[h]
	return v, ok
}

// Remove evicts a record and returns ownership of it to the caller for
// final teardown. The record's Drop is not invoked here.
func (t *Table[T]) Remove(h Handle) (T, bool) {
	t.mu.Lock()
	v, ok := t.entries[h]
	if ok {
		delete(t.entries, h)
	}
	t.mu.Unlock()

	if ok {
		t.notify(Event{Kind: t.kind, Type: EventRemoved, Handle: h})
	}
	return v, ok
}

// With runs fn on the record inside the table's critical section and
// reports whether the handle was known. fn must not block and must not
// call back into the table.
func (t *Table[T]) With(h Handle, fn func(T)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[h]
	if !ok {
		return false
	}
	fn(v)
	return true
}

// Len returns the number of live records.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Each iterates over all live records.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.mu.Lock()
	type pair struct {
		h Handle
		v T
	}
	snapshot := make([]pair, 0, len(t.entries))
	for h, v := range t.entries {
		snapshot = append(snapshot, pair{h, v})
	}
	t.mu.Unlock()

	for _, p := range snapshot {
		if !fn(p.h, p.v) {
			break
		}
	}
}

// Clear removes every record, invoking Drop on those that implement
// Dropper. Handles issued before Clear remain permanently invalid.
func (t *Table[T]) Clear() {
	t.mu.Lock()
	victims := make(map[Handle]T, len(t.entries))
	for h, v := range t.entries {
		victims[h] = v
	}
	t.entries = make(map[Handle]T)
	t.mu.Unlock()

	for h, v := range victims {
		if d, ok := any(v).(Dropper); ok {
			d.Drop()
		}
		t.notify(Event{Kind: t.kind, Type: EventRemoved, Handle: h})
	}
}

// Close clears the table and stops accepting inserts.
func (t *Table[T]) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.Clear()
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[T]) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table[T]) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table[T]) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnHandleEvent(e)
	}
}
