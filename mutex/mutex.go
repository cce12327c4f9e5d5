package mutex

import (
	"context"
	"sync"
	"time"

	"github.com/wippyai/native-sync/errors"
	"github.com/wippyai/native-sync/handle"
	"github.com/wippyai/native-sync/internal/goid"
)

// Handle references a mutex record. Distinct from the handle types of
// other primitive kinds, so a mutex handle cannot be passed where a
// semaphore handle is expected.
type Handle handle.Handle

// record owns one lock object. The lock itself is a one-slot channel,
// which gives timed acquisition without spinning. Reentrant records
// additionally track the holder's goroutine id and acquisition count.
type record struct {
	slot      chan struct{}
	reentrant bool

	mu    sync.Mutex
	owner uint64
	count int
}

// acquire takes the lock slot. timeout < 0 blocks indefinitely, 0 is an
// immediate attempt, > 0 bounds the wait.
func (r *record) acquire(timeout time.Duration) bool {
	if timeout < 0 {
		r.slot <- struct{}{}
		return true
	}
	if timeout == 0 {
		select {
		case r.slot <- struct{}{}:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case r.slot <- struct{}{}:
		return true
	case <-t.C:
		return false
	}
}

func (r *record) lock(timeout time.Duration) bool {
	if !r.reentrant {
		// Plain lock: self-recursion deadlocks, exactly like the
		// underlying OS primitive. Not detected here.
		return r.acquire(timeout)
	}

	gid := goid.Current()
	r.mu.Lock()
	if r.owner == gid {
		r.count++
		r.mu.Unlock()
		return true
	}
	r.mu.Unlock()

	if !r.acquire(timeout) {
		return false
	}
	r.mu.Lock()
	r.owner = gid
	r.count = 1
	r.mu.Unlock()
	return true
}

func (r *record) unlock() bool {
	if !r.reentrant {
		select {
		case <-r.slot:
			return true
		default:
			// Not held. Unlocking an unheld lock is undefined at the
			// OS level; reported as failure instead of crashing.
			return false
		}
	}

	gid := goid.Current()
	r.mu.Lock()
	if r.owner != gid || r.count == 0 {
		r.mu.Unlock()
		return false
	}
	r.count--
	release := r.count == 0
	if release {
		r.owner = 0
	}
	r.mu.Unlock()

	if release {
		<-r.slot
	}
	return true
}

// Host exposes mutex operations to the embedding environment.
type Host struct {
	table *handle.Table[*record]
}

// NewHost creates a mutex host with its own handle table.
func NewHost() *Host {
	return &Host{table: handle.NewTable[*record](handle.KindMutex)}
}

// Namespace returns the host interface name.
func (h *Host) Namespace() string {
	return "native:sync/mutexes@1.0.0"
}

// Create allocates a plain or reentrant mutex and returns its handle.
func (h *Host) Create(_ context.Context, reentrant bool) (Handle, error) {
	rec := &record{
		slot:      make(chan struct{}, 1),
		reentrant: reentrant,
	}
	hd, err := h.table.Insert(rec)
	if err != nil {
		return 0, errors.Resource(errors.PhaseCreate, "mutex", err)
	}
	return Handle(hd), nil
}

// Lock acquires the mutex. timeoutMs < 0 blocks indefinitely; 0 is an
// immediate attempt; > 0 waits at most that many milliseconds and
// returns false on expiry with no side effects. Unknown handles report
// false rather than an error.
//
// Reentrant mutexes may be re-acquired by the holding goroutine; each
// successful Lock needs a matching Unlock.
func (h *Host) Lock(_ context.Context, m Handle, timeoutMs int64) bool {
	rec, ok := h.table.Get(handle.Handle(m))
	if !ok {
		return false
	}
	var timeout time.Duration = -1
	if timeoutMs >= 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}
	return rec.lock(timeout)
}

// Unlock releases the mutex. Returns false on an unknown handle or when
// the lock is not held by the caller.
func (h *Host) Unlock(_ context.Context, m Handle) bool {
	rec, ok := h.table.Get(handle.Handle(m))
	if !ok {
		return false
	}
	return rec.unlock()
}

// Destroy evicts the mutex record. Waiters blocked on the lock at the
// time of destruction are not released; destroying a contended mutex is
// a host programming error, as with the native primitive.
func (h *Host) Destroy(_ context.Context, m Handle) bool {
	_, ok := h.table.Remove(handle.Handle(m))
	return ok
}

// Len returns the number of live mutexes.
func (h *Host) Len() int { return h.table.Len() }

// Subscribe registers an observer for mutex lifecycle events.
func (h *Host) Subscribe(o handle.Observer) { h.table.Subscribe(o) }

// Close tears down the table; outstanding handles become invalid.
func (h *Host) Close() error { return h.table.Close() }
