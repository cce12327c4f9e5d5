package handle

// Handle is an opaque reference to a record in a table.
// Handle 0 is reserved and always invalid. Handles are strictly
// increasing within a table and are never reused, even after removal.
type Handle uint64

// Kind identifies which primitive family a table manages.
type Kind uint8

const (
	KindThread Kind = iota
	KindMutex
	KindSemaphore
	KindTimer
)

func (k Kind) String() string {
	switch k {
	case KindThread:
		return "thread"
	case KindMutex:
		return "mutex"
	case KindSemaphore:
		return "semaphore"
	case KindTimer:
		return "timer"
	default:
		return "unknown"
	}
}

// EventType identifies a record lifecycle event.
type EventType uint8

const (
	EventCreated EventType = iota
	EventRemoved
)

// Event represents a record lifecycle event.
type Event struct {
	Kind   Kind
	Type   EventType
	Handle Handle
}

// Observer receives notifications about record lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// Dropper is optionally implemented by record values that need cleanup
// when the owning table is cleared or closed. Remove deliberately does
// not call it: removal transfers ownership back to the caller.
type Dropper interface {
	Drop()
}
