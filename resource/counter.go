package resource

import "sync/atomic"

// Counter is an Observer tallying buffer events across guards.
type Counter struct {
	acquired atomic.Int64
	released atomic.Int64
	failed   atomic.Int64
}

func (c *Counter) OnResourceEvent(e Event) {
	switch e.Type {
	case EventAcquired:
		c.acquired.Add(1)
	case EventReleased:
		c.released.Add(1)
	case EventAcquireFailed:
		c.failed.Add(1)
	}
}

// Acquired returns the number of successful acquisitions.
func (c *Counter) Acquired() int64 { return c.acquired.Load() }

// Released returns the number of releases.
func (c *Counter) Released() int64 { return c.released.Load() }

// Failed returns the number of failed acquisitions.
func (c *Counter) Failed() int64 { return c.failed.Load() }

// Outstanding returns acquired minus released buffers.
func (c *Counter) Outstanding() int64 { return c.acquired.Load() - c.released.Load() }
