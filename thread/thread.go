package thread

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/native-sync/errors"
	"github.com/wippyai/native-sync/handle"
)

// Handle references a thread record.
type Handle handle.Handle

// EntryFunc is the host-supplied entry point. It runs exactly once on a
// freshly spawned thread. The returned int is the thread's exit code;
// a returned error (or a panic, which is recovered) is captured on the
// record and surfaced by Join instead of crashing the process.
type EntryFunc func() (int, error)

// record exclusively owns one native thread of execution. The goroutine
// is pinned to its OS thread for its whole lifetime, so each record maps
// to a dedicated kernel thread as the embedding host expects.
type record struct {
	done chan struct{}

	mu       sync.Mutex
	exitCode int
	err      error
}

func (r *record) run(h handle.Handle, entry EntryFunc) {
	runtime.LockOSThread()
	defer close(r.done)
	defer func() {
		if p := recover(); p != nil {
			r.mu.Lock()
			r.err = errors.Callback(errors.PhaseJoin, uint64(h),
				fmt.Errorf("panic: %v", p))
			r.mu.Unlock()
			Logger().Warn("thread entry panicked",
				zap.Uint64("handle", uint64(h)),
				zap.Any("panic", p))
		}
	}()

	code, err := entry()

	r.mu.Lock()
	r.exitCode = code
	if err != nil {
		r.err = errors.Callback(errors.PhaseJoin, uint64(h), err)
	}
	r.mu.Unlock()
}

// result is only safe to call after done is closed.
func (r *record) result() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitCode, r.err
}

// Host exposes thread operations to the embedding environment.
type Host struct {
	table *handle.Table[*record]
}

// NewHost creates a thread host with its own handle table.
func NewHost() *Host {
	return &Host{table: handle.NewTable[*record](handle.KindThread)}
}

// Namespace returns the host interface name.
func (h *Host) Namespace() string {
	return "native:sync/threads@1.0.0"
}

// Create spawns a new thread running entry and returns its handle.
func (h *Host) Create(_ context.Context, entry EntryFunc) (Handle, error) {
	if entry == nil {
		return 0, errors.Validation(errors.PhaseCreate, "entry function required")
	}

	rec := &record{done: make(chan struct{})}
	hd, err := h.table.Insert(rec)
	if err != nil {
		return 0, errors.Resource(errors.PhaseCreate, "thread", err)
	}

	go rec.run(hd, entry)

	Logger().Debug("thread created", zap.Uint64("handle", uint64(hd)))
	return Handle(hd), nil
}

// Join blocks until the thread finishes, evicts the handle, and returns
// the exit code together with any failure captured from the entry
// function. Unlike the other primitive operations, an unknown handle is
// reported as an error here, not a sentinel.
func (h *Host) Join(_ context.Context, th Handle) (int, error) {
	rec, ok := h.table.Get(handle.Handle(th))
	if !ok {
		return -1, errors.NotFound(errors.PhaseJoin, "thread", uint64(th))
	}

	<-rec.done

	// Exactly one joiner wins the eviction; a concurrent join or detach
	// that got here first makes this handle unknown.
	if _, ok := h.table.Remove(handle.Handle(th)); !ok {
		return -1, errors.NotFound(errors.PhaseJoin, "thread", uint64(th))
	}

	code, err := rec.result()
	Logger().Debug("thread joined",
		zap.Uint64("handle", uint64(th)),
		zap.Int("exit_code", code))
	return code, err
}

// Detach disowns the thread: it keeps running to completion, but the
// handle is evicted and no further operation may reference it. Returns
// false on an unknown or already joined/detached handle.
func (h *Host) Detach(_ context.Context, th Handle) bool {
	_, ok := h.table.Remove(handle.Handle(th))
	if ok {
		Logger().Debug("thread detached", zap.Uint64("handle", uint64(th)))
	}
	return ok
}

// CurrentID returns the OS-level identifier of the calling thread. The
// value is process-global, not registry-scoped; it exists for
// diagnostics, not lifecycle management.
func (h *Host) CurrentID(_ context.Context) uint64 {
	return currentThreadID()
}

// Len returns the number of live (not yet joined or detached) threads.
func (h *Host) Len() int { return h.table.Len() }

// Subscribe registers an observer for thread lifecycle events.
func (h *Host) Subscribe(o handle.Observer) { h.table.Subscribe(o) }

// Close tears down the table. Surviving threads are implicitly detached:
// their goroutines run to completion on their own.
func (h *Host) Close() error { return h.table.Close() }
