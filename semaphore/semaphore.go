package semaphore

import (
	"context"
	"sync"
	"time"

	"github.com/wippyai/native-sync/errors"
	"github.com/wippyai/native-sync/handle"
)

// Handle references a semaphore record.
type Handle handle.Handle

// record owns one counting semaphore. Tokens live in a buffered channel
// of capacity max; the mirrored count is what Signal's bounds check and
// Count observe. The record mutex makes the check-then-release sequence
// in signal atomic with respect to concurrent signalers.
//
// Invariants: 0 <= current <= max, and the number of tokens in the
// channel never exceeds current (wait receives a token before it
// decrements the mirror).
type record struct {
	tokens chan struct{}

	mu      sync.Mutex
	current int
	max     int
}

func (r *record) wait(timeout time.Duration) bool {
	if timeout < 0 {
		<-r.tokens
	} else if timeout == 0 {
		select {
		case <-r.tokens:
		default:
			return false
		}
	} else {
		t := time.NewTimer(timeout)
		defer t.Stop()
		select {
		case <-r.tokens:
		case <-t.C:
			return false
		}
	}

	r.mu.Lock()
	r.current--
	r.mu.Unlock()
	return true
}

// signal releases n tokens if the bound allows it, returning the count
// observed immediately before the release. On overflow nothing changes
// and no token is issued.
func (r *record) signal(n int) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current+n > r.max {
		return -1, false
	}
	previous := r.current
	r.current += n
	// Token count in the channel is at most current, so these sends
	// cannot block: capacity is max and current+n <= max held above.
	for i := 0; i < n; i++ {
		r.tokens <- struct{}{}
	}
	return previous, true
}

// Host exposes counting semaphore operations to the embedding environment.
type Host struct {
	table *handle.Table[*record]
}

// NewHost creates a semaphore host with its own handle table.
func NewHost() *Host {
	return &Host{table: handle.NewTable[*record](handle.KindSemaphore)}
}

// Namespace returns the host interface name.
func (h *Host) Namespace() string {
	return "native:sync/semaphores@1.0.0"
}

// Create allocates a counting semaphore. The bounds are validated before
// any resource is allocated: initial must be non-negative, max positive,
// and initial no greater than max.
func (h *Host) Create(_ context.Context, initial, max int) (Handle, error) {
	if initial < 0 || max <= 0 || initial > max {
		return 0, errors.Validation(errors.PhaseCreate,
			"invalid semaphore bounds: initial %d, max %d", initial, max)
	}

	rec := &record{
		tokens:  make(chan struct{}, max),
		current: initial,
		max:     max,
	}
	for i := 0; i < initial; i++ {
		rec.tokens <- struct{}{}
	}

	hd, err := h.table.Insert(rec)
	if err != nil {
		return 0, errors.Resource(errors.PhaseCreate, "semaphore", err)
	}
	return Handle(hd), nil
}

// Wait blocks until the count is positive, then decrements it. The
// uniform timeout semantics apply: timeoutMs < 0 blocks indefinitely,
// 0 is an immediate attempt, > 0 bounds the wait. Returns false on
// expiry or an unknown handle.
func (h *Host) Wait(_ context.Context, s Handle, timeoutMs int64) bool {
	rec, ok := h.table.Get(handle.Handle(s))
	if !ok {
		return false
	}
	var timeout time.Duration = -1
	if timeoutMs >= 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}
	return rec.wait(timeout)
}

// Signal releases the semaphore by n and returns the count observed
// immediately before the release. If the release would push the count
// past max, or n is not positive, or the handle is unknown, it returns
// (-1, false) with no state change.
func (h *Host) Signal(_ context.Context, s Handle, n int) (int, bool) {
	if n <= 0 {
		return -1, false
	}
	rec, ok := h.table.Get(handle.Handle(s))
	if !ok {
		return -1, false
	}
	return rec.signal(n)
}

// Count reports the current count. Diagnostic; the value may be stale by
// the time the caller observes it.
func (h *Host) Count(_ context.Context, s Handle) (int, bool) {
	rec, ok := h.table.Get(handle.Handle(s))
	if !ok {
		return 0, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.current, true
}

// Destroy evicts the semaphore record. Returns false on unknown handle.
func (h *Host) Destroy(_ context.Context, s Handle) bool {
	_, ok := h.table.Remove(handle.Handle(s))
	return ok
}

// Len returns the number of live semaphores.
func (h *Host) Len() int { return h.table.Len() }

// Subscribe registers an observer for semaphore lifecycle events.
func (h *Host) Subscribe(o handle.Observer) { h.table.Subscribe(o) }

// Close tears down the table; outstanding handles become invalid.
func (h *Host) Close() error { return h.table.Close() }
