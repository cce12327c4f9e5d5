package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/native-sync/errors"
	"github.com/wippyai/native-sync/handle"
)

// Handle references a timer record.
type Handle handle.Handle

// Callback is invoked on every tick. The host retains ownership of any
// state the callback touches and must keep it valid until the timer is
// destroyed. A returned error (or a panic, which is recovered) is
// captured on the record, stops further ticks, and can be queried with
// Err until the timer is destroyed.
type Callback func() error

// record owns a dedicated background thread driving one periodic timer.
type record struct {
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}

	mu  sync.Mutex
	err error
}

// loop invokes cb on a drift-corrected fixed schedule: each deadline is
// advanced by exactly one interval from the previous deadline, not from
// the callback's completion time, so callback cost never accumulates
// into skew. The stop flag is re-checked at every iteration boundary and
// during the sleep, so teardown never waits out a full interval.
func (r *record) loop(h handle.Handle, cb Callback) {
	defer close(r.done)

	next := time.Now().Add(r.interval)
	for {
		select {
		case <-r.stop:
			return
		default:
		}

		if !r.invoke(h, cb) {
			return
		}

		if d := time.Until(next); d > 0 {
			t := time.NewTimer(d)
			select {
			case <-r.stop:
				t.Stop()
				return
			case <-t.C:
			}
		}
		next = next.Add(r.interval)
	}
}

// invoke runs one tick, capturing failures. Reports whether ticking
// should continue.
func (r *record) invoke(h handle.Handle, cb Callback) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.setErr(errors.Callback(errors.PhaseTick, uint64(h),
				fmt.Errorf("panic: %v", p)))
			Logger().Warn("timer callback panicked",
				zap.Uint64("handle", uint64(h)),
				zap.Any("panic", p))
			ok = false
		}
	}()

	if err := cb(); err != nil {
		r.setErr(errors.Callback(errors.PhaseTick, uint64(h), err))
		return false
	}
	return true
}

func (r *record) setErr(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

func (r *record) lastErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Drop stops the loop and waits for it to exit. Invoked by table
// teardown for timers that were never explicitly destroyed.
func (r *record) Drop() {
	close(r.stop)
	<-r.done
}

// Host exposes periodic timer operations to the embedding environment.
type Host struct {
	table *handle.Table[*record]
}

// NewHost creates a timer host with its own handle table.
func NewHost() *Host {
	return &Host{table: handle.NewTable[*record](handle.KindTimer)}
}

// Namespace returns the host interface name.
func (h *Host) Namespace() string {
	return "native:sync/timers@1.0.0"
}

// Create spawns a dedicated background thread invoking cb every
// interval. The interval must be positive.
func (h *Host) Create(_ context.Context, cb Callback, interval time.Duration) (Handle, error) {
	if cb == nil {
		return 0, errors.Validation(errors.PhaseCreate, "callback function required")
	}
	if interval <= 0 {
		return 0, errors.Validation(errors.PhaseCreate, "timer interval must be greater than 0")
	}

	rec := &record{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	hd, err := h.table.Insert(rec)
	if err != nil {
		return 0, errors.Resource(errors.PhaseCreate, "timer", err)
	}

	go rec.loop(hd, cb)

	Logger().Debug("timer created",
		zap.Uint64("handle", uint64(hd)),
		zap.Duration("interval", interval))
	return Handle(hd), nil
}

// Destroy stops the timer and synchronously joins its thread before
// returning: no callback invocation can start after Destroy returns,
// and at most the invocation already in flight completes. The handle is
// claimed first, so a concurrent Destroy on the same handle reports
// false instead of racing on the teardown.
func (h *Host) Destroy(_ context.Context, tm Handle) bool {
	rec, ok := h.table.Remove(handle.Handle(tm))
	if !ok {
		return false
	}
	close(rec.stop)
	<-rec.done

	Logger().Debug("timer destroyed", zap.Uint64("handle", uint64(tm)))
	return true
}

// Interval reports the timer's configured interval.
func (h *Host) Interval(_ context.Context, tm Handle) (time.Duration, bool) {
	rec, ok := h.table.Get(handle.Handle(tm))
	if !ok {
		return 0, false
	}
	return rec.interval, true
}

// Err reports the failure captured from the callback, if any. A non-nil
// result means ticking has stopped; the record stays live (and the error
// queryable) until Destroy.
func (h *Host) Err(_ context.Context, tm Handle) (error, bool) {
	rec, ok := h.table.Get(handle.Handle(tm))
	if !ok {
		return nil, false
	}
	return rec.lastErr(), true
}

// Len returns the number of live timers.
func (h *Host) Len() int { return h.table.Len() }

// Subscribe registers an observer for timer lifecycle events.
func (h *Host) Subscribe(o handle.Observer) { h.table.Subscribe(o) }

// Close tears down the table, stopping every surviving timer.
func (h *Host) Close() error { return h.table.Close() }
