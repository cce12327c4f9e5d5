package nativesync

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/native-sync/errors"
	"github.com/wippyai/native-sync/hostapi"
	"github.com/wippyai/native-sync/mutex"
	"github.com/wippyai/native-sync/semaphore"
	"github.com/wippyai/native-sync/thread"
	"github.com/wippyai/native-sync/timer"
)

// Runtime bundles one host per primitive kind over independent handle
// tables, plus a dispatch registry for embedders that bind by name.
type Runtime struct {
	Threads    *thread.Host
	Mutexes    *mutex.Host
	Semaphores *semaphore.Host
	Timers     *timer.Host

	registry  *hostapi.Registry
	logger    *zap.Logger
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger routes the runtime's and every primitive package's logging
// through l instead of the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// New creates a Runtime with fresh handle tables for every primitive
// kind and registers each host in the dispatch registry.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		Threads:    thread.NewHost(),
		Mutexes:    mutex.NewHost(),
		Semaphores: semaphore.NewHost(),
		Timers:     timer.NewHost(),
		registry:   hostapi.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger != nil {
		thread.SetLogger(r.logger)
		timer.SetLogger(r.logger)
		hostapi.SetLogger(r.logger)
	}

	// Registration over a fresh registry cannot fail: the namespaces
	// are non-empty constants.
	_ = r.registry.RegisterHost(r.Threads)
	_ = r.registry.RegisterHost(r.Mutexes)
	_ = r.registry.RegisterHost(r.Semaphores)
	_ = r.registry.RegisterHost(r.Timers)

	return r
}

// Registry returns the host function dispatch registry.
func (r *Runtime) Registry() *hostapi.Registry { return r.registry }

// Call dispatches namespace#name through the registry.
func (r *Runtime) Call(ctx context.Context, namespace, name string, args ...any) ([]any, error) {
	return r.registry.Call(ctx, namespace, name, args...)
}

// Close tears down every handle table exactly once. Live timers are
// stopped and joined; surviving threads are disowned and run to
// completion on their own. All outstanding handles become invalid.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = stderrors.Join(
			r.Timers.Close(),
			r.Threads.Close(),
			r.Mutexes.Close(),
			r.Semaphores.Close(),
		)
	})
	return r.closeErr
}

// The methods below mirror the host-facing operation surface one to one
// for embedders that link against the Go API directly.

// CreateThread spawns a thread running entry.
func (r *Runtime) CreateThread(ctx context.Context, entry thread.EntryFunc) (thread.Handle, error) {
	return r.Threads.Create(ctx, entry)
}

// JoinThread waits for the thread, evicts its handle, and returns its
// exit code plus any captured entry failure. Errors on unknown handles.
func (r *Runtime) JoinThread(ctx context.Context, h thread.Handle) (int, error) {
	return r.Threads.Join(ctx, h)
}

// DetachThread disowns the thread and evicts its handle.
func (r *Runtime) DetachThread(ctx context.Context, h thread.Handle) bool {
	return r.Threads.Detach(ctx, h)
}

// GetThreadID returns the OS-level id of the calling thread.
func (r *Runtime) GetThreadID(ctx context.Context) uint64 {
	return r.Threads.CurrentID(ctx)
}

// CreateMutex allocates a plain or reentrant mutex.
func (r *Runtime) CreateMutex(ctx context.Context, reentrant bool) (mutex.Handle, error) {
	return r.Mutexes.Create(ctx, reentrant)
}

// LockMutex acquires the mutex under the uniform timeout convention.
func (r *Runtime) LockMutex(ctx context.Context, h mutex.Handle, timeoutMs int64) bool {
	return r.Mutexes.Lock(ctx, h, timeoutMs)
}

// UnlockMutex releases the mutex.
func (r *Runtime) UnlockMutex(ctx context.Context, h mutex.Handle) bool {
	return r.Mutexes.Unlock(ctx, h)
}

// DestroyMutex evicts the mutex handle.
func (r *Runtime) DestroyMutex(ctx context.Context, h mutex.Handle) bool {
	return r.Mutexes.Destroy(ctx, h)
}

// CreateSemaphore allocates a bounded counting semaphore.
func (r *Runtime) CreateSemaphore(ctx context.Context, initial, max int) (semaphore.Handle, error) {
	return r.Semaphores.Create(ctx, initial, max)
}

// WaitSemaphore decrements the semaphore under the uniform timeout
// convention.
func (r *Runtime) WaitSemaphore(ctx context.Context, h semaphore.Handle, timeoutMs int64) bool {
	return r.Semaphores.Wait(ctx, h, timeoutMs)
}

// SignalSemaphore releases the semaphore by n, returning the count
// observed immediately before the release, or (-1, false) when the
// release would exceed the bound.
func (r *Runtime) SignalSemaphore(ctx context.Context, h semaphore.Handle, n int) (int, bool) {
	return r.Semaphores.Signal(ctx, h, n)
}

// SemaphoreCount reports the semaphore's current count.
func (r *Runtime) SemaphoreCount(ctx context.Context, h semaphore.Handle) (int, bool) {
	return r.Semaphores.Count(ctx, h)
}

// DestroySemaphore evicts the semaphore handle.
func (r *Runtime) DestroySemaphore(ctx context.Context, h semaphore.Handle) bool {
	return r.Semaphores.Destroy(ctx, h)
}

// CreateTimer spawns a periodic timer with a microsecond interval,
// returning the handle and the interval as a Duration.
func (r *Runtime) CreateTimer(ctx context.Context, cb timer.Callback, intervalMicros int64) (timer.Handle, time.Duration, error) {
	if intervalMicros <= 0 {
		return 0, 0, errors.Validation(errors.PhaseCreate, "timer interval must be greater than 0")
	}
	interval := time.Duration(intervalMicros) * time.Microsecond
	h, err := r.Timers.Create(ctx, cb, interval)
	if err != nil {
		return 0, 0, err
	}
	return h, interval, nil
}

// DestroyTimer stops the timer and joins its thread before returning.
func (r *Runtime) DestroyTimer(ctx context.Context, h timer.Handle) bool {
	return r.Timers.Destroy(ctx, h)
}
