package ready

import (
	"sync"
	"sync/atomic"
)

// Event names shared by the loader→manager and manager→consumer channels.
const (
	// EventError reports a load failure for one resource or sub-target.
	EventError = "error"

	// EventPreReady reports that approximate dimensions (or a deferred-load
	// marker) are known. On a loader it fires at most once; on a Manager it
	// fires exactly once per batch.
	EventPreReady = "preReady"

	// EventReady reports terminal load state. On a loader it fires exactly
	// once; on a Manager it fires exactly once per batch.
	EventReady = "ready"

	// EventPreReadyElement and EventReadyElement are per-resource
	// notifications emitted by a Manager as individual resources settle.
	EventPreReadyElement = "preReadyElement"
	EventReadyElement    = "readyElement"

	// Container loaders emit these toward their owning Manager only.
	EventRequestChildren      = "requestChildren"
	EventRequestReadyChildren = "requestReadyChildren"
	EventRequestDestroy       = "requestDestroy"
)

// emitterIDCounter is the source of unique subscription IDs.
var emitterIDCounter uint64

func nextSubscriptionID() uint64 {
	return atomic.AddUint64(&emitterIDCounter, 1)
}

// Handler receives an event payload. Payload types are fixed per event name;
// see events.go and loader.go.
type Handler func(payload any)

// Subscription identifies one attached handler and allows detaching it.
type Subscription struct {
	emitter *Emitter
	event   string
	id      uint64
}

// Off detaches the handler. Safe to call more than once.
func (s Subscription) Off() {
	if s.emitter != nil {
		s.emitter.off(s.event, s.id)
	}
}

type subscriber struct {
	id uint64
	fn Handler
}

// Emitter is the publish/subscribe channel used uniformly between loaders,
// managers, and consumers. Handlers for one Emit call run synchronously on
// the emitting goroutine, in subscription order.
type Emitter struct {
	mu       sync.Mutex
	handlers map[string][]subscriber
}

// On attaches a handler for the named event.
func (e *Emitter) On(event string, fn Handler) Subscription {
	if fn == nil {
		return Subscription{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handlers == nil {
		e.handlers = make(map[string][]subscriber)
	}
	id := nextSubscriptionID()
	e.handlers[event] = append(e.handlers[event], subscriber{id: id, fn: fn})
	return Subscription{emitter: e, event: event, id: id}
}

// off removes the handler with the given subscription ID.
func (e *Emitter) off(event string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.handlers[event]
	for i, s := range subs {
		if s.id == id {
			e.handlers[event] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// subscribers returns a copy of the handlers attached for the event, so a
// caller can notify them outside any lock.
func (e *Emitter) subscribers(event string) []subscriber {
	e.mu.Lock()
	defer e.mu.Unlock()
	subs := make([]subscriber, len(e.handlers[event]))
	copy(subs, e.handlers[event])
	return subs
}

// Emit delivers the payload to every handler attached for the event.
// Handlers are copied before notification so they may attach or detach
// subscriptions without corrupting the iteration.
func (e *Emitter) Emit(event string, payload any) {
	for _, s := range e.subscribers(event) {
		s.fn(payload)
	}
}

// RemoveAll detaches every handler for every event.
func (e *Emitter) RemoveAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = nil
}
