package resource

import (
	"errors"
	"testing"

	"github.com/wippyai/mbridge/engine"
	mberrors "github.com/wippyai/mbridge/errors"
)

// faultAllocator fails the Nth allocation (1-based) and counts frees.
type faultAllocator struct {
	failAt int
	calls  int
	frees  int
}

func (a *faultAllocator) Alloc(size int) (*engine.Buffer, error) {
	a.calls++
	if a.calls == a.failAt {
		return nil, errors.New("out of memory")
	}
	return engine.NewBuffer(make([]byte, size), func([]byte) { a.frees++ }), nil
}

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestGuard_AcquireRelease(t *testing.T) {
	alloc := &faultAllocator{}
	obs := &testObserver{}
	g := NewGuard(alloc, obs)

	b1, err := g.Acquire(16)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	b2, err := g.Acquire(16)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if b1 == b2 {
		t.Fatal("Acquire returned the same buffer twice")
	}
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}

	if n := g.Release(); n != 2 {
		t.Fatalf("Release() = %d, want 2", n)
	}
	if alloc.frees != 2 {
		t.Fatalf("frees = %d, want 2", alloc.frees)
	}

	// acquire and release events pair up by handle
	handles := map[Handle]*engine.Buffer{}
	for _, e := range obs.events {
		if e.Handle == 0 {
			t.Errorf("%v event with the reserved handle", e.Type)
		}
		switch e.Type {
		case EventAcquired:
			handles[e.Handle] = e.Buffer
		case EventReleased:
			if handles[e.Handle] != e.Buffer {
				t.Errorf("handle %d released a different buffer", e.Handle)
			}
			delete(handles, e.Handle)
		}
	}
	if len(handles) != 0 {
		t.Errorf("unreleased handles: %v", handles)
	}

	var types []EventType
	for _, e := range obs.events {
		types = append(types, e.Type)
	}
	want := []EventType{EventAcquired, EventAcquired, EventReleased, EventReleased}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, types[i], want[i])
		}
	}
}

func TestGuard_ReleaseIdempotent(t *testing.T) {
	alloc := &faultAllocator{}
	g := NewGuard(alloc)
	if _, err := g.Acquire(8); err != nil {
		t.Fatal(err)
	}

	g.Release()
	if n := g.Release(); n != 0 {
		t.Fatalf("second Release() = %d, want 0", n)
	}
	if alloc.frees != 1 {
		t.Fatalf("frees = %d, want 1", alloc.frees)
	}
	if !g.Released() {
		t.Fatal("Released() = false")
	}
}

func TestGuard_FaultAtEachPoint(t *testing.T) {
	for failAt := 1; failAt <= engine.Slots; failAt++ {
		alloc := &faultAllocator{failAt: failAt}
		var c Counter
		g := NewGuard(alloc, &c)

		var err error
		for i := 0; i < engine.Slots && err == nil; i++ {
			_, err = g.Acquire(32)
		}
		if !errors.Is(err, mberrors.ErrAllocation) {
			t.Fatalf("failAt=%d: err = %v, want ErrAllocation", failAt, err)
		}
		g.Release()

		if alloc.frees != failAt-1 {
			t.Errorf("failAt=%d: frees = %d, want %d", failAt, alloc.frees, failAt-1)
		}
		if c.Outstanding() != 0 {
			t.Errorf("failAt=%d: outstanding = %d", failAt, c.Outstanding())
		}
		if c.Failed() != 1 {
			t.Errorf("failAt=%d: failed = %d, want 1", failAt, c.Failed())
		}
	}
}

func TestGuard_Capacity(t *testing.T) {
	g := NewGuard(&faultAllocator{})
	defer g.Release()

	for i := 0; i < engine.Slots; i++ {
		if _, err := g.Acquire(4); err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
	}
	_, err := g.Acquire(4)
	if !errors.Is(err, mberrors.ErrCapacity) {
		t.Fatalf("err = %v, want ErrCapacity", err)
	}
}

func TestGuard_AcquireAfterRelease(t *testing.T) {
	g := NewGuard(&faultAllocator{})
	g.Release()
	_, err := g.Acquire(4)
	if !errors.Is(err, mberrors.ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestGuard_HeapAllocator(t *testing.T) {
	heap := engine.NewHeapAllocator()
	g := NewGuard(heap)

	buf, err := g.Acquire(engine.MaxValue)
	if err != nil {
		t.Fatal(err)
	}
	buf.SetString("hello")
	if heap.Live() != 1 {
		t.Fatalf("Live() = %d, want 1", heap.Live())
	}
	g.Release()
	if heap.Live() != 0 {
		t.Fatalf("Live() = %d after Release, want 0", heap.Live())
	}
}

func TestObserverFunc(t *testing.T) {
	var got []EventType
	g := NewGuard(&faultAllocator{}, ObserverFunc(func(e Event) { got = append(got, e.Type) }))
	g.Acquire(1)
	g.Release()
	if len(got) != 2 || got[0] != EventAcquired || got[1] != EventReleased {
		t.Fatalf("events = %v", got)
	}
}
