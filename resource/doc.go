// Package resource manages the lifetime of foreign text buffers.
//
// Text slots of a call-in frame point at buffers owned by the engine side.
// A Guard tracks every buffer acquired during one invocation and releases
// all of them exactly once, whatever path the invocation takes:
//
//	g := resource.NewGuard(eng)
//	defer g.Release()
//
//	buf, err := g.Acquire(engine.MaxValue)
//	if err != nil {
//	    return err // buffers acquired so far are freed by the deferred Release
//	}
//
// # Observers
//
// Observers receive EventAcquired, EventReleased and EventAcquireFailed.
// Counter tallies them across guards, which is how leak checks are written:
//
//	var c resource.Counter
//	g := resource.NewGuard(eng, &c)
//	...
//	if c.Outstanding() != 0 { ... }
package resource
