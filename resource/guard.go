package resource

import (
	"go.uber.org/zap"

	"github.com/wippyai/mbridge/engine"
	mberrors "github.com/wippyai/mbridge/errors"
)

// Guard owns the text buffers acquired during one invocation. Every buffer
// is tracked in a fixed registry and freed exactly once by Release.
//
// A Guard is per-invocation and not safe for concurrent use.
type Guard struct {
	alloc     engine.Allocator
	observers []Observer
	entries   [engine.Slots]*engine.Buffer
	n         int
	released  bool
}

// NewGuard creates a guard acquiring buffers from alloc.
func NewGuard(alloc engine.Allocator, observers ...Observer) *Guard {
	return &Guard{
		alloc:     alloc,
		observers: observers,
	}
}

// Acquire allocates a buffer of size bytes and tracks it. Observers see it
// under the handle of its registry position.
func (g *Guard) Acquire(size int) (*engine.Buffer, error) {
	if g.released {
		return nil, mberrors.Closed("resource guard")
	}
	if g.n == len(g.entries) {
		return nil, mberrors.CapacityExceeded(mberrors.NoPosition, "buffer", len(g.entries))
	}

	buf, err := g.alloc.Alloc(size)
	if err != nil {
		g.notify(Event{Type: EventAcquireFailed, Size: size, Err: err})
		return nil, mberrors.AllocationFailed(size, err)
	}
	if buf == nil {
		g.notify(Event{Type: EventAcquireFailed, Size: size})
		return nil, mberrors.AllocationFailed(size, nil)
	}

	g.entries[g.n] = buf
	g.n++

	g.notify(Event{Type: EventAcquired, Handle: Handle(g.n), Size: size, Buffer: buf})
	return buf, nil
}

// Len returns the number of tracked buffers.
func (g *Guard) Len() int { return g.n }

// Released reports whether Release has run.
func (g *Guard) Released() bool { return g.released }

// Release frees every tracked buffer and returns how many this call freed.
// Later calls are no-ops.
func (g *Guard) Release() int {
	if g.released {
		return 0
	}
	g.released = true

	freed := 0
	for i := 0; i < g.n; i++ {
		buf := g.entries[i]
		g.entries[i] = nil
		if buf.Free() {
			freed++
			g.notify(Event{Type: EventReleased, Handle: Handle(i + 1), Buffer: buf})
		}
	}
	if g.n > 0 {
		Logger().Debug("released buffers", zap.Int("count", freed))
	}
	return freed
}

func (g *Guard) notify(e Event) {
	for _, o := range g.observers {
		o.OnResourceEvent(e)
	}
}
