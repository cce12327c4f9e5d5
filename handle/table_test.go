package handle

import (
	"sync"
	"testing"
)

type testObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *testObserver) OnHandleEvent(e Event) {
	o.mu.Lock()
	o.events = append(o.events, e)
	o.mu.Unlock()
}

type dropRecord struct {
	dropped bool
}

func (d *dropRecord) Drop() { d.dropped = true }

func TestTable_Basic(t *testing.T) {
	table := NewTable[string](KindMutex)

	h, err := table.Insert("test")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	val, ok = table.Remove(h)
	if !ok {
		t.Fatal("Remove failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}

	// Removed handles stay invalid
	if _, ok := table.Get(h); ok {
		t.Fatal("Get should fail after Remove")
	}
	if _, ok := table.Remove(h); ok {
		t.Fatal("Second Remove should fail")
	}
}

func TestTable_MonotonicNoReuse(t *testing.T) {
	table := NewTable[int](KindThread)

	h1, _ := table.Insert(1)
	h2, _ := table.Insert(2)
	if h2 <= h1 {
		t.Fatalf("handles not increasing: %d then %d", h1, h2)
	}

	table.Remove(h1)
	h3, _ := table.Insert(3)
	if h3 <= h2 {
		t.Fatalf("handle %d reused after removal of %d", h3, h1)
	}
}

func TestTable_ConcurrentInsertUnique(t *testing.T) {
	table := NewTable[int](KindSemaphore)

	const n = 64
	handles := make(chan Handle, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			h, err := table.Insert(v)
			if err != nil {
				t.Errorf("Insert failed: %v", err)
				return
			}
			handles <- h
		}(i)
	}
	wg.Wait()
	close(handles)

	seen := make(map[Handle]bool)
	for h := range handles {
		if seen[h] {
			t.Fatalf("duplicate handle %d", h)
		}
		seen[h] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d unique handles, got %d", n, len(seen))
	}
}

func TestTable_With(t *testing.T) {
	table := NewTable[*dropRecord](KindSemaphore)
	rec := &dropRecord{}
	h, _ := table.Insert(rec)

	ran := false
	if !table.With(h, func(r *dropRecord) { ran = r == rec }) {
		t.Fatal("With failed on live handle")
	}
	if !ran {
		t.Fatal("With did not run fn on the record")
	}

	table.Remove(h)
	if table.With(h, func(*dropRecord) {}) {
		t.Fatal("With should fail on removed handle")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable[string](KindTimer)
	obs := &testObserver{}
	table.Subscribe(obs)

	h, _ := table.Insert("test")
	if len(obs.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventCreated || obs.events[0].Handle != h {
		t.Fatal("wrong created event")
	}
	if obs.events[0].Kind != KindTimer {
		t.Fatal("event missing kind tag")
	}

	table.Remove(h)
	if len(obs.events) != 2 || obs.events[1].Type != EventRemoved {
		t.Fatal("Expected EventRemoved")
	}

	table.Unsubscribe(obs)
	table.Insert("test2")
	if len(obs.events) != 2 {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}

func TestTable_RemoveDoesNotDrop(t *testing.T) {
	table := NewTable[*dropRecord](KindTimer)
	rec := &dropRecord{}
	h, _ := table.Insert(rec)

	table.Remove(h)
	if rec.dropped {
		t.Fatal("Remove must not call Drop; ownership returns to caller")
	}
}

func TestTable_CloseDrops(t *testing.T) {
	table := NewTable[*dropRecord](KindTimer)
	a := &dropRecord{}
	b := &dropRecord{}
	table.Insert(a)
	table.Insert(b)

	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !a.dropped || !b.dropped {
		t.Fatal("Close should Drop all records")
	}

	if _, err := table.Insert(&dropRecord{}); err != ErrClosed {
		t.Fatalf("Insert after Close: got %v, want ErrClosed", err)
	}
}
