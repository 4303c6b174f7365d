package resource

import "github.com/wippyai/mbridge/engine"

// Handle identifies a buffer tracked by a Guard.
// Handle 0 is reserved and always invalid.
type Handle uint32

// EventType is a buffer lifecycle notification.
type EventType uint8

const (
	EventAcquired EventType = iota
	EventReleased
	EventAcquireFailed
)

func (t EventType) String() string {
	switch t {
	case EventAcquired:
		return "acquired"
	case EventReleased:
		return "released"
	case EventAcquireFailed:
		return "acquire_failed"
	}
	return "unknown"
}

// Event represents a buffer lifecycle event.
type Event struct {
	Buffer *engine.Buffer
	Err    error
	Size   int
	Handle Handle
	Type   EventType
}

// Observer receives notifications about buffer lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }
