package semaphore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	syncerrors "github.com/wippyai/native-sync/errors"
)

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	h := NewHost()

	tests := []struct {
		name    string
		initial int
		max     int
	}{
		{"negative initial", -1, 5},
		{"zero max", 0, 0},
		{"negative max", 1, -1},
		{"initial above max", 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Create(ctx, tt.initial, tt.max)
			if err == nil {
				t.Fatal("expected validation error")
			}
			want := &syncerrors.Error{Phase: syncerrors.PhaseCreate, Kind: syncerrors.KindValidation}
			if !errors.Is(err, want) {
				t.Fatalf("got %v, want validation error", err)
			}
		})
	}

	if h.Len() != 0 {
		t.Fatal("failed creations must not allocate records")
	}
}

func TestWaitSignal(t *testing.T) {
	ctx := context.Background()
	h := NewHost()

	s, err := h.Create(ctx, 2, 5)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !h.Wait(ctx, s, 0) {
		t.Fatal("Wait should succeed with count 2")
	}
	if !h.Wait(ctx, s, 0) {
		t.Fatal("Wait should succeed with count 1")
	}
	if h.Wait(ctx, s, 0) {
		t.Fatal("Wait should fail with count 0")
	}

	prev, ok := h.Signal(ctx, s, 1)
	if !ok {
		t.Fatal("Signal failed")
	}
	if prev != 0 {
		t.Fatalf("previous count = %d, want 0", prev)
	}
	if !h.Wait(ctx, s, 0) {
		t.Fatal("Wait should succeed after Signal")
	}
}

func TestOverflowRejection(t *testing.T) {
	ctx := context.Background()
	h := NewHost()

	s, _ := h.Create(ctx, 0, 1)

	if _, ok := h.Signal(ctx, s, 2); ok {
		t.Fatal("Signal past max should fail")
	}
	if count, _ := h.Count(ctx, s); count != 0 {
		t.Fatalf("failed Signal changed count to %d", count)
	}
	// No phantom token was issued either.
	if h.Wait(ctx, s, 0) {
		t.Fatal("Wait succeeded after rejected Signal")
	}
}

func TestSignalInvalidCount(t *testing.T) {
	ctx := context.Background()
	h := NewHost()
	s, _ := h.Create(ctx, 0, 1)

	if _, ok := h.Signal(ctx, s, 0); ok {
		t.Fatal("Signal with zero count should fail")
	}
	if _, ok := h.Signal(ctx, s, -3); ok {
		t.Fatal("Signal with negative count should fail")
	}
}

func TestTimedWaitExpiry(t *testing.T) {
	ctx := context.Background()
	h := NewHost()
	s, _ := h.Create(ctx, 0, 1)

	start := time.Now()
	if h.Wait(ctx, s, 100) {
		t.Fatal("Wait should time out with no signaler")
	}
	elapsed := time.Since(start)
	if elapsed < 80*time.Millisecond {
		t.Fatalf("Wait returned too early: %v", elapsed)
	}

	prev, ok := h.Signal(ctx, s, 1)
	if !ok || prev != 0 {
		t.Fatalf("Signal = (%d, %v), want (0, true)", prev, ok)
	}
	if !h.Wait(ctx, s, 0) {
		t.Fatal("Wait should succeed immediately after Signal")
	}
}

func TestWaitUnblocksOnSignal(t *testing.T) {
	ctx := context.Background()
	h := NewHost()
	s, _ := h.Create(ctx, 0, 1)

	got := make(chan bool, 1)
	go func() { got <- h.Wait(ctx, s, -1) }()

	time.Sleep(20 * time.Millisecond)
	if _, ok := h.Signal(ctx, s, 1); !ok {
		t.Fatal("Signal failed")
	}

	select {
	case ok := <-got:
		if !ok {
			t.Fatal("blocked Wait reported failure after Signal")
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after Signal")
	}
}

func TestUnknownHandle(t *testing.T) {
	ctx := context.Background()
	h := NewHost()

	if h.Wait(ctx, 42, 0) {
		t.Fatal("Wait on unknown handle should report false")
	}
	if _, ok := h.Signal(ctx, 42, 1); ok {
		t.Fatal("Signal on unknown handle should fail")
	}
	if _, ok := h.Count(ctx, 42); ok {
		t.Fatal("Count on unknown handle should fail")
	}
	if h.Destroy(ctx, 42) {
		t.Fatal("Destroy on unknown handle should report false")
	}
}

// The count must stay within [0, max] under any interleaving of waiters
// and signalers.
func TestBoundInvariantUnderContention(t *testing.T) {
	ctx := context.Background()
	h := NewHost()

	const max = 4
	s, _ := h.Create(ctx, max, max)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if h.Wait(ctx, s, 10) {
					h.Signal(ctx, s, 1)
				}
			}
		}()
	}

	deadline := time.After(200 * time.Millisecond)
	for done := false; !done; {
		select {
		case <-deadline:
			done = true
		default:
			count, ok := h.Count(ctx, s)
			if !ok {
				t.Fatal("Count failed")
			}
			if count < 0 || count > max {
				t.Fatalf("count %d outside [0, %d]", count, max)
			}
		}
	}
	close(stop)
	wg.Wait()
}
