package mutex

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestCreateLockUnlock(t *testing.T) {
	ctx := context.Background()
	h := NewHost()

	m, err := h.Create(ctx, false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m == 0 {
		t.Fatal("expected non-zero handle")
	}

	if !h.Lock(ctx, m, -1) {
		t.Fatal("Lock failed")
	}
	if !h.Unlock(ctx, m) {
		t.Fatal("Unlock failed")
	}
}

func TestUnknownHandle(t *testing.T) {
	ctx := context.Background()
	h := NewHost()

	if h.Lock(ctx, 99, -1) {
		t.Fatal("Lock on unknown handle should report false")
	}
	if h.Unlock(ctx, 99) {
		t.Fatal("Unlock on unknown handle should report false")
	}
	if h.Destroy(ctx, 99) {
		t.Fatal("Destroy on unknown handle should report false")
	}
}

func TestExclusivity(t *testing.T) {
	ctx := context.Background()
	h := NewHost()
	m, _ := h.Create(ctx, false)

	if !h.Lock(ctx, m, -1) {
		t.Fatal("first Lock failed")
	}

	acquired := make(chan struct{})
	go func() {
		h.Lock(ctx, m, -1)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock succeeded while mutex held")
	case <-time.After(50 * time.Millisecond):
	}

	h.Unlock(ctx, m)

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock did not unblock after Unlock")
	}
}

func TestTimedLockExpiry(t *testing.T) {
	ctx := context.Background()
	h := NewHost()
	m, _ := h.Create(ctx, false)

	h.Lock(ctx, m, -1)

	start := time.Now()
	if h.Lock(ctx, m, 50) {
		t.Fatal("timed Lock should expire while mutex held")
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("timed Lock returned too early: %v", elapsed)
	}

	// Expired attempt leaves no side effects: unlock then relock works.
	if !h.Unlock(ctx, m) {
		t.Fatal("Unlock failed")
	}
	if !h.Lock(ctx, m, 0) {
		t.Fatal("try-lock failed on free mutex")
	}
}

func TestUnlockNotHeld(t *testing.T) {
	ctx := context.Background()
	h := NewHost()
	m, _ := h.Create(ctx, false)

	if h.Unlock(ctx, m) {
		t.Fatal("Unlock on unheld mutex should report false")
	}
}

func TestReentrantSymmetry(t *testing.T) {
	ctx := context.Background()
	h := NewHost()
	m, _ := h.Create(ctx, true)

	// The holder can re-acquire without blocking.
	if !h.Lock(ctx, m, -1) {
		t.Fatal("first Lock failed")
	}
	if !h.Lock(ctx, m, 100) {
		t.Fatal("reentrant re-acquire blocked")
	}

	// One unlock is not enough for another goroutine to get in.
	if !h.Unlock(ctx, m) {
		t.Fatal("first Unlock failed")
	}
	got := make(chan bool, 1)
	go func() { got <- h.Lock(ctx, m, 50) }()
	if <-got {
		t.Fatal("lock available after only one of two unlocks")
	}

	// After the matching second unlock it is.
	if !h.Unlock(ctx, m) {
		t.Fatal("second Unlock failed")
	}
	go func() { got <- h.Lock(ctx, m, 1000) }()
	if !<-got {
		t.Fatal("lock unavailable after matching unlocks")
	}
}

func TestReentrantUnlockByNonHolder(t *testing.T) {
	ctx := context.Background()
	h := NewHost()
	m, _ := h.Create(ctx, true)

	h.Lock(ctx, m, -1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if h.Unlock(ctx, m) {
			t.Error("Unlock by non-holder should report false")
		}
	}()
	wg.Wait()

	if !h.Unlock(ctx, m) {
		t.Fatal("holder Unlock failed")
	}
}

func TestDestroyInvalidatesHandle(t *testing.T) {
	ctx := context.Background()
	h := NewHost()
	m, _ := h.Create(ctx, false)

	if !h.Destroy(ctx, m) {
		t.Fatal("Destroy failed")
	}
	if h.Lock(ctx, m, 0) {
		t.Fatal("Lock succeeded on destroyed handle")
	}
	if h.Destroy(ctx, m) {
		t.Fatal("second Destroy should report false")
	}
}

func TestHandlesIncrease(t *testing.T) {
	ctx := context.Background()
	h := NewHost()

	prev := Handle(0)
	for i := 0; i < 10; i++ {
		m, err := h.Create(ctx, i%2 == 0)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if m <= prev {
			t.Fatalf("handle %d not greater than %d", m, prev)
		}
		prev = m
	}
}
